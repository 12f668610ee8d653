package model

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeUUID returns the canonical lower-case form of a cluster UUID.
// Values that do not parse as UUIDs are returned trimmed but otherwise
// untouched, since older clusters report opaque ids.
func NormalizeUUID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}
