// Package render turns the fleet model into styled terminal text. Every
// function is a pure formatter writing to an io.Writer.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Bytes formats n with a decimal SI suffix: 594000000000000 becomes
// "594TB", 1500000 becomes "1.5MB".
func Bytes(n uint64) string {
	if n < 1000 {
		return strconv.FormatUint(n, 10) + "B"
	}
	v := float64(n)
	exp := 0
	for v >= 999.5 && exp < 18 {
		v /= 1000
		exp += 3
	}
	// The quantity of 1 at a power-of-ten scale prints as "1k", "1M", ...
	suffix := strings.TrimPrefix(resource.NewScaledQuantity(1, resource.Scale(exp)).String(), "1")
	if v < 10 {
		return fmt.Sprintf("%.1f%sB", v, suffix)
	}
	return fmt.Sprintf("%.0f%sB", v, suffix)
}

// Rate formats a byte-per-second throughput.
func Rate(bps float64) string {
	if bps <= 0 {
		return "0B/s"
	}
	return Bytes(uint64(bps)) + "/s"
}

// Bits formats a bit-per-second link speed or NIC throughput.
func Bits(bps float64) string {
	if bps <= 0 {
		return "0b/s"
	}
	return strings.TrimSuffix(Bytes(uint64(bps)), "B") + "b/s"
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func iops(v float64) string {
	if v < 10 {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.0f", v)
}

// Enum turns "REPLICATION_RUNNING" with prefix "REPLICATION_" into
// "Running".
func Enum(v, prefix string) string {
	v = strings.TrimPrefix(v, prefix)
	if v == "" {
		return "-"
	}
	v = strings.ReplaceAll(strings.ToLower(v), "_", " ")
	return cases.Title(language.English).String(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ptrInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
