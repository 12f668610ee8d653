package status

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

func linearPoints(n int, start, perDay float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: start + perDay*float64(i)}
	}
	return pts
}

func TestLinearRegressionExactFit(t *testing.T) {
	reg, ok := LinearRegression(linearPoints(10, 100, 3))
	require.True(t, ok)
	assert.InDelta(t, 3, reg.Slope, 1e-9)
	assert.InDelta(t, 100, reg.Intercept, 1e-9)
	assert.InDelta(t, 1, reg.R2, 1e-12)
}

func TestLinearRegressionDegenerate(t *testing.T) {
	_, ok := LinearRegression([]Point{{X: 2, Y: 1}, {X: 2, Y: 5}, {X: 2, Y: 9}})
	assert.False(t, ok)
	_, ok = LinearRegression([]Point{{X: 1, Y: 1}})
	assert.False(t, ok)
}

func TestLinearRegressionShiftInvariantSlope(t *testing.T) {
	pts := []Point{{0, 5}, {1, 9}, {2, 4}, {3, 12}, {4, 11}, {5, 20}, {6, 17}}
	base, ok := LinearRegression(pts)
	require.True(t, ok)

	for _, c := range []float64{-1e3, 1, 1e6} {
		shifted := make([]Point, len(pts))
		for i, p := range pts {
			shifted[i] = Point{X: p.X, Y: p.Y + c}
		}
		reg, ok := LinearRegression(shifted)
		require.True(t, ok)
		assert.InDelta(t, base.Slope, reg.Slope, 1e-6*math.Max(1, math.Abs(base.Slope)), "shift %g", c)
	}
}

func TestProjectCapacityConstantUsage(t *testing.T) {
	pts := linearPoints(10, 500, 0)
	reg, ok := LinearRegression(pts)
	require.True(t, ok)
	assert.Equal(t, 1.0, reg.R2)
	assert.Equal(t, 0.0, reg.Slope)
	assert.Nil(t, ProjectCapacity(pts, 500, 1000))
}

func TestProjectCapacityPointThreshold(t *testing.T) {
	assert.Nil(t, ProjectCapacity(linearPoints(6, 0, 10), 60, 1000), "six points never project")

	p := ProjectCapacity(linearPoints(7, 0, 10), 60, 1000)
	require.NotNil(t, p)
	assert.InDelta(t, 10, p.GrowthRateBytesPerDay, 1e-9)
	require.NotNil(t, p.DaysUntilFull)
	assert.Equal(t, uint64(94), *p.DaysUntilFull)
	assert.Equal(t, model.ConfidenceHigh, p.Confidence)

	assert.Nil(t, ProjectCapacity(linearPoints(7, 1000, -10), 940, 1000), "shrinking usage")
}

func TestProjectCapacityRoundsUpAndClamps(t *testing.T) {
	p := ProjectCapacity(linearPoints(8, 0, 3), 990, 1000)
	require.NotNil(t, p)
	assert.Equal(t, uint64(4), *p.DaysUntilFull) // 10/3 rounds up

	p = ProjectCapacity(linearPoints(8, 0, 3), 1200, 1000)
	require.NotNil(t, p)
	assert.Equal(t, uint64(0), *p.DaysUntilFull)
}

func TestProjectCapacityLowConfidence(t *testing.T) {
	pts := []Point{{0, 100}, {1, 0}, {2, 100}, {3, 0}, {4, 100}, {5, 0}, {6, 100}, {7, 40}, {8, 100}}
	reg, ok := LinearRegression(pts)
	require.True(t, ok)
	require.Greater(t, reg.Slope, 0.0)
	require.Less(t, reg.R2, LowConfidenceR2)

	p := ProjectCapacity(pts, 100, 1000)
	require.NotNil(t, p)
	assert.Equal(t, model.ConfidenceLow, p.Confidence)
}

func TestHistoryPoints(t *testing.T) {
	day := uint64(secondsPerDay)
	pts := HistoryPoints([]api.CapacityHistoryPoint{
		{CapacityUsed: 30, PeriodStartTime: api.Uint(1000 + 2*day)},
		{CapacityUsed: 10, PeriodStartTime: 1000},
		{CapacityUsed: 20, PeriodStartTime: api.Uint(1000 + day)},
	})
	require.Len(t, pts, 3)
	assert.Equal(t, []Point{{0, 10}, {1, 20}, {2, 30}}, pts)

	untimed := HistoryPoints([]api.CapacityHistoryPoint{{CapacityUsed: 5}, {CapacityUsed: 6}})
	assert.Equal(t, []Point{{0, 5}, {1, 6}}, untimed)
}
