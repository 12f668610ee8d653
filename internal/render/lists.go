package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/model"
)

// Health writes unhealthy disks and PSUs across the fleet. It returns the
// number of unhealthy entities shown.
func Health(w io.Writer, clusters []model.ClusterStatus) int {
	disks := newTable("CLUSTER", "NODE", "SLOT", "STATE", "TYPE", "MODEL")
	psus := newTable("CLUSTER", "NODE", "PSU", "LOCATION", "STATE")
	var nDisks, nPSUs int
	var atRisk []string

	for _, c := range clusters {
		for _, d := range c.Health.UnhealthyDiskDetails {
			disks.Row(c.ClusterName, strconv.FormatUint(d.NodeID, 10), strconv.FormatUint(d.Slot, 10),
				criticalStyle.Render(d.State), orDash(d.DiskType), orDash(d.Model))
			nDisks++
		}
		for _, p := range c.Health.UnhealthyPSUDetails {
			psus.Row(c.ClusterName, strconv.FormatUint(p.NodeID, 10), orDash(p.Name), orDash(p.Location),
				criticalStyle.Render(p.State))
			nPSUs++
		}
		if c.Health.DataAtRisk {
			atRisk = append(atRisk, c.ClusterName)
		}
	}

	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Disks (%d unhealthy)", nDisks)))
	if nDisks > 0 {
		fmt.Fprintln(w, disks.Render())
	} else {
		fmt.Fprintln(w, "  "+okStyle.Render("all disks healthy"))
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Power supplies (%d unhealthy)", nPSUs)))
	if nPSUs > 0 {
		fmt.Fprintln(w, psus.Render())
	} else {
		fmt.Fprintln(w, "  "+okStyle.Render("all PSUs healthy"))
	}
	for _, name := range atRisk {
		fmt.Fprintln(w, criticalStyle.Render(name+": data at risk, restriper is rebuilding unprotected data"))
	}
	return nDisks + nPSUs
}

// Snapshots writes a cluster's snapshot list.
func Snapshots(w io.Writer, snaps []api.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No snapshots."))
		return
	}
	t := newTable("ID", "NAME", "DIRECTORY", "CREATED", "EXPIRES", "POLICY")
	for _, s := range snaps {
		t.Row(strconv.FormatUint(s.ID, 10), s.Name, orDash(s.DirectoryName), orDash(s.Timestamp),
			orDash(s.Expiration), ptrInt(s.PolicyID))
	}
	fmt.Fprintln(w, t.Render())
}

// Directory writes a directory listing.
func Directory(w io.Writer, entries []api.DirectoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Empty directory."))
		return
	}
	t := newTable("NAME", "TYPE", "SIZE", "MODIFIED")
	for _, e := range entries {
		name := e.Name
		if e.Type == "FS_FILE_TYPE_DIRECTORY" {
			name += "/"
		}
		t.Row(name, Enum(e.Type, "FS_FILE_TYPE_"), Bytes(uint64(e.Size)), orDash(e.ModificationTime))
	}
	fmt.Fprintln(w, t.Render())
}

// Profiles writes the configured profiles, marking the default.
func Profiles(w io.Writer, store *config.Store) {
	names := store.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No profiles configured. Run `qontrol profile add <name>`."))
		return
	}
	t := newTable("", "NAME", "ENDPOINT", "UUID", "TLS")
	for _, name := range names {
		p := store.Profiles[name]
		mark := ""
		if name == store.DefaultProfile {
			mark = "*"
		}
		tls := "verify"
		if p.Insecure {
			tls = "skip"
		}
		t.Row(mark, name, p.URL(), orDash(p.ClusterUUID), tls)
	}
	fmt.Fprintln(w, t.Render())
}

// Profile writes one profile with its token masked.
func Profile(w io.Writer, p config.Profile, isDefault bool) {
	fmt.Fprintln(w, titleStyle.Render(p.Name))
	fmt.Fprintf(w, "  %-9s %s\n", "host:", p.Host)
	fmt.Fprintf(w, "  %-9s %d\n", "port:", p.Port)
	fmt.Fprintf(w, "  %-9s %s\n", "endpoint:", p.URL())
	fmt.Fprintf(w, "  %-9s %s\n", "token:", MaskToken(p.Token))
	fmt.Fprintf(w, "  %-9s %t\n", "insecure:", p.Insecure)
	fmt.Fprintf(w, "  %-9s %s\n", "uuid:", orDash(p.ClusterUUID))
	fmt.Fprintf(w, "  %-9s %t\n", "default:", isDefault)
}

// MaskToken keeps only the last four characters of a token.
func MaskToken(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return "****" + tok[len(tok)-4:]
}
