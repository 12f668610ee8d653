package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// sanitizeID converts a name to a valid Mermaid node ID.
func sanitizeID(name string) string {
	return nonAlphaNum.ReplaceAllString(name, "_")
}

// quote wraps a string in double quotes for Mermaid labels. Embedded
// quotes become the #quot; entity.
func quote(s string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(s, `"`, "#quot;"))
}

// humanEnum turns "REPLICATION_CONTINUOUS" into "Continuous" once prefix
// is stripped.
func humanEnum(v, prefix string) string {
	v = strings.TrimPrefix(v, prefix)
	if v == "" {
		return ""
	}
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(v), "_", " "))
}
