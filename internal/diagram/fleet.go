package diagram

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fredericrous/qontrol/internal/model"
	"github.com/fredericrous/qontrol/internal/versions"
)

// GenerateVersions produces a JSON table of the software versions running
// across the fleet, newest first.
func GenerateVersions(env *model.EnvironmentStatus) model.DiagramResult {
	if env == nil || len(env.Clusters) == 0 {
		return model.DiagramResult{
			ID:      "versions",
			Title:   "Software Versions",
			Type:    "markdown",
			Content: "*No cluster data available.*",
		}
	}

	content, err := json.Marshal(versions.Summary(env.Clusters))
	if err != nil {
		content = []byte("[]")
	}
	return model.DiagramResult{
		ID:      "versions",
		Title:   "Software Versions",
		Type:    "table",
		Content: string(content),
	}
}

// GenerateCapacity produces a Mermaid pie chart of used capacity per
// cluster.
func GenerateCapacity(env *model.EnvironmentStatus) model.DiagramResult {
	var b strings.Builder
	b.WriteString("pie showData\n")
	b.WriteString("  title Used capacity (TB)\n")
	found := false
	if env != nil {
		for _, c := range env.Clusters {
			if c.Capacity.UsedBytes == 0 {
				continue
			}
			name := c.ClusterName
			if name == "" {
				name = c.ProfileName
			}
			if c.Stale {
				name += " (cached)"
			}
			b.WriteString(fmt.Sprintf("  %s : %.1f\n", quote(name), float64(c.Capacity.UsedBytes)/1e12))
			found = true
		}
	}
	if !found {
		b.WriteString("  \"none\" : 1\n")
	}
	return model.DiagramResult{
		ID:      "capacity",
		Title:   "Fleet Capacity",
		Type:    "mermaid",
		Content: b.String(),
	}
}
