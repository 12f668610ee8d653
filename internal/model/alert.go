package model

// Severity orders alerts; lower ranks sort first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank returns the sort key of the severity.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// AlertCategory is the closed set of conditions the alert engine reports.
type AlertCategory string

const (
	CategoryConnectivity       AlertCategory = "connectivity"
	CategoryNodeOffline        AlertCategory = "node_offline"
	CategoryDataAtRisk         AlertCategory = "data_at_risk"
	CategoryDiskUnhealthy      AlertCategory = "disk_unhealthy"
	CategoryPSUUnhealthy       AlertCategory = "psu_unhealthy"
	CategoryProtectionDegraded AlertCategory = "protection_degraded"
	CategoryCapacityProjection AlertCategory = "capacity_projection"
)

// Alert is derived fresh on every run and never persisted.
type Alert struct {
	Severity    Severity      `json:"severity"`
	ClusterName string        `json:"cluster_name"`
	Message     string        `json:"message"`
	Category    AlertCategory `json:"category"`
}
