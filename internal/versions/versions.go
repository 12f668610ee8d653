// Package versions orders cluster software versions and summarises which
// versions a fleet runs.
package versions

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fredericrous/qontrol/internal/model"
)

const maxParts = 4

// Version is a dotted release number with 2 to 4 numeric components and an
// optional pre-release or build suffix.
type Version struct {
	parts    [maxParts]int
	n        int
	pre      string
	original string
}

// Parse extracts a version from s. Product prefixes such as
// "Qumulo Core 7.2.3.1" are skipped: the first whitespace-separated token
// that starts with a digit (after an optional "v") is parsed.
func Parse(s string) (Version, bool) {
	for _, tok := range strings.Fields(s) {
		t := strings.TrimPrefix(tok, "v")
		if t == "" || t[0] < '0' || t[0] > '9' {
			continue
		}
		v, ok := parseToken(t)
		if ok {
			v.original = s
		}
		return v, ok
	}
	return Version{}, false
}

func parseToken(s string) (Version, bool) {
	var v Version
	if idx := strings.IndexAny(s, "-+"); idx >= 0 {
		v.pre = s[idx:]
		s = s[:idx]
	}
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > maxParts {
		return Version{}, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, false
		}
		v.parts[i] = n
	}
	v.n = len(parts)
	return v, true
}

// String returns the input Parse was given.
func (v Version) String() string { return v.original }

// Less orders by numeric components (missing ones count as zero), then
// places pre-releases before the release.
func (v Version) Less(o Version) bool {
	for i := 0; i < maxParts; i++ {
		if v.parts[i] != o.parts[i] {
			return v.parts[i] < o.parts[i]
		}
	}
	if v.pre != "" && o.pre == "" {
		return true
	}
	if v.pre == "" && o.pre != "" {
		return false
	}
	return v.pre < o.pre
}

// Highest returns the newest parseable version in list, or "".
func Highest(list []string) string {
	var best *Version
	for _, s := range list {
		v, ok := Parse(s)
		if !ok {
			continue
		}
		if best == nil || best.Less(v) {
			best = &v
		}
	}
	if best == nil {
		return ""
	}
	return best.original
}

// Group is one distinct version and the clusters running it.
type Group struct {
	Version  string   `json:"version"`
	Clusters []string `json:"clusters"`
	Latest   bool     `json:"latest"`
}

// Summary groups clusters by version, newest first. Versions that do not
// parse sort last, alphabetically. Clusters with no version are skipped.
func Summary(clusters []model.ClusterStatus) []Group {
	byVersion := make(map[string][]string)
	var order []string
	for _, c := range clusters {
		if c.Version == "" {
			continue
		}
		if _, ok := byVersion[c.Version]; !ok {
			order = append(order, c.Version)
		}
		name := c.ClusterName
		if name == "" {
			name = c.ProfileName
		}
		byVersion[c.Version] = append(byVersion[c.Version], name)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, aok := Parse(order[i])
		b, bok := Parse(order[j])
		switch {
		case aok && bok:
			return b.Less(a)
		case aok != bok:
			return aok
		}
		return order[i] < order[j]
	})

	newest := Highest(order)
	groups := make([]Group, 0, len(order))
	for _, v := range order {
		names := byVersion[v]
		sort.Strings(names)
		groups = append(groups, Group{Version: v, Clusters: names, Latest: v == newest})
	}
	return groups
}
