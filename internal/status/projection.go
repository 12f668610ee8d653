package status

import (
	"math"
	"sort"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

// Projection and alerting thresholds.
const (
	MinHistoryPoints = 7
	LowConfidenceR2  = 0.5
	OnPremWarnDays   = 90
	CloudWarnDays    = 7
)

const secondsPerDay = 86400

// Point is one (day index, used bytes) sample.
type Point struct {
	X float64
	Y float64
}

// Regression is an ordinary least-squares fit y = Slope*x + Intercept.
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits points. It reports false when there are fewer
// than two points or every x is the same.
func LinearRegression(points []Point) (Regression, bool) {
	n := float64(len(points))
	if len(points) < 2 {
		return Regression{}, false
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	meanX, meanY := sumX/n, sumY/n

	// Centered sums keep the slope exact under a constant shift of y.
	var sxx, sxy float64
	for _, p := range points {
		dx := p.X - meanX
		sxx += dx * dx
		sxy += dx * (p.Y - meanY)
	}
	if sxx == 0 {
		return Regression{}, false
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssRes, ssTot float64
	for _, p := range points {
		pred := slope*p.X + intercept
		ssRes += (p.Y - pred) * (p.Y - pred)
		ssTot += (p.Y - meanY) * (p.Y - meanY)
	}
	r2 := 1.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Regression{Slope: slope, Intercept: intercept, R2: r2}, true
}

// ProjectCapacity estimates when a cluster fills up. It returns nil when
// there is too little history, the fit is degenerate, or usage is not
// growing.
func ProjectCapacity(points []Point, currentUsed, total uint64) *model.CapacityProjection {
	if len(points) < MinHistoryPoints {
		return nil
	}
	reg, ok := LinearRegression(points)
	if !ok || reg.Slope <= 0 {
		return nil
	}

	var days uint64
	if total > currentUsed {
		days = uint64(math.Ceil(float64(total-currentUsed) / reg.Slope))
	}
	confidence := model.ConfidenceHigh
	if reg.R2 < LowConfidenceR2 {
		confidence = model.ConfidenceLow
	}
	return &model.CapacityProjection{
		GrowthRateBytesPerDay: reg.Slope,
		DaysUntilFull:         &days,
		Confidence:            confidence,
	}
}

// HistoryPoints converts capacity-history samples into regression points
// with x measured in days since the first sample. Samples without a
// timestamp fall back to their position.
func HistoryPoints(history []api.CapacityHistoryPoint) []Point {
	samples := make([]api.CapacityHistoryPoint, len(history))
	copy(samples, history)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].PeriodStartTime < samples[j].PeriodStartTime
	})

	timed := len(samples) > 0
	for _, s := range samples {
		if s.PeriodStartTime == 0 {
			timed = false
			break
		}
	}

	points := make([]Point, 0, len(samples))
	for i, s := range samples {
		x := float64(i)
		if timed {
			x = float64(s.PeriodStartTime-samples[0].PeriodStartTime) / secondsPerDay
		}
		points = append(points, Point{X: x, Y: float64(s.CapacityUsed)})
	}
	return points
}

// warnDays is the days-until-full horizon below which a projection alerts.
func warnDays(t model.ClusterType) uint64 {
	if t.IsCloud() {
		return CloudWarnDays
	}
	return OnPremWarnDays
}
