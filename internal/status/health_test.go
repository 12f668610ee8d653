package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

func TestDeriveHealth(t *testing.T) {
	zero, two := 0, 2
	h := deriveHealth(healthInputs{
		protection: &api.ProtectionStatus{RemainingNodeFailures: &zero, RemainingDriveFailures: &two, ProtectionType: "PROTECTION_SYSTEM_TYPE_EC"},
		restriper:  &api.RestriperStatus{InProgress: true, DataAtRisk: true},
		chassis: []api.Chassis{
			{ID: 1, PSUStatuses: []api.PSUStatus{{Name: "PSU1", Location: "left", State: "GOOD"}, {Name: "PSU2", Location: "right", State: "MISSING"}}},
			{ID: 2, PSUStatuses: []api.PSUStatus{{Name: "PSU1", Location: "left", State: "good"}}},
		},
		slots: []api.Slot{
			{NodeID: 1, Slot: 1, State: "healthy"},
			{NodeID: 1, Slot: 2, State: "empty"},
			{NodeID: 2, Slot: 7, State: "dead", DiskType: "HDD", DiskModel: "ST16000"},
			{NodeID: 3, Slot: 1, State: "HEALTHY"},
		},
	})

	assert.True(t, h.DataAtRisk)
	assert.Equal(t, &zero, h.RemainingNodeFailures)
	assert.Equal(t, &two, h.RemainingDriveFailures)
	require.NotNil(t, h.ProtectionType)
	assert.Equal(t, "PROTECTION_SYSTEM_TYPE_EC", *h.ProtectionType)

	assert.Equal(t, 1, h.DisksUnhealthy)
	assert.Equal(t, []model.DiskDetail{{NodeID: 2, Slot: 7, State: "dead", DiskType: "HDD", Model: "ST16000"}}, h.UnhealthyDiskDetails)
	assert.Equal(t, 1, h.PSUsUnhealthy)
	assert.Equal(t, []model.PSUDetail{{NodeID: 1, Name: "PSU2", Location: "right", State: "MISSING"}}, h.UnhealthyPSUDetails)
}

func TestDeriveHealthRestriperIdle(t *testing.T) {
	h := deriveHealth(healthInputs{restriper: &api.RestriperStatus{InProgress: false, DataAtRisk: true}})
	assert.False(t, h.DataAtRisk)
}

func TestDeriveHealthAllCallsFailed(t *testing.T) {
	h := deriveHealth(healthInputs{})
	assert.False(t, h.DataAtRisk)
	assert.Nil(t, h.RemainingNodeFailures)
	assert.Nil(t, h.ProtectionType)
	assert.NotNil(t, h.UnhealthyDiskDetails)
	assert.Empty(t, h.UnhealthyDiskDetails)
	assert.NotNil(t, h.UnhealthyPSUDetails)
}
