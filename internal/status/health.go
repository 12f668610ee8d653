package status

import (
	"strings"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

const (
	diskHealthy = "healthy"
	diskEmpty   = "empty"
	psuHealthy  = "good"
)

// healthInputs are the raw best-effort responses health is derived from.
// Nil entries mean the call failed.
type healthInputs struct {
	protection *api.ProtectionStatus
	restriper  *api.RestriperStatus
	chassis    []api.Chassis
	slots      []api.Slot
}

func deriveHealth(in healthInputs) model.HealthStatus {
	h := model.HealthStatus{
		UnhealthyDiskDetails: []model.DiskDetail{},
		UnhealthyPSUDetails:  []model.PSUDetail{},
	}

	if in.restriper != nil {
		h.DataAtRisk = in.restriper.InProgress && in.restriper.DataAtRisk
	}
	if in.protection != nil {
		h.RemainingNodeFailures = in.protection.RemainingNodeFailures
		h.RemainingDriveFailures = in.protection.RemainingDriveFailures
		if pt := in.protection.ProtectionType; pt != "" {
			h.ProtectionType = &pt
		}
	}

	for _, s := range in.slots {
		state := strings.ToLower(strings.TrimSpace(s.State))
		if state == diskHealthy || state == diskEmpty {
			continue
		}
		h.UnhealthyDiskDetails = append(h.UnhealthyDiskDetails, model.DiskDetail{
			NodeID:   s.NodeID,
			Slot:     s.Slot,
			State:    s.State,
			DiskType: s.DiskType,
			Model:    s.DiskModel,
		})
	}
	h.DisksUnhealthy = len(h.UnhealthyDiskDetails)

	for _, c := range in.chassis {
		for _, psu := range c.PSUStatuses {
			if strings.EqualFold(strings.TrimSpace(psu.State), psuHealthy) {
				continue
			}
			h.UnhealthyPSUDetails = append(h.UnhealthyPSUDetails, model.PSUDetail{
				NodeID:   c.ID,
				Name:     psu.Name,
				Location: psu.Location,
				State:    psu.State,
			})
		}
	}
	h.PSUsUnhealthy = len(h.UnhealthyPSUDetails)

	return h
}
