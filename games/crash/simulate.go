package crash

import (
	"fmt"
	"math"
	"sort"
)

// SimParams describes a Monte Carlo run of a fixed cash-out strategy.
type SimParams struct {
	Rounds    int
	Target    float64 // cash out as soon as the multiplier reaches Target
	HouseEdge float64
	Source    RandomSource
}

// Stats summarizes a simulation.
type Stats struct {
	Rounds           int     `json:"rounds"`
	Target           float64 `json:"target"`
	RTP              float64 `json:"rtp"`
	InstantCrashRate float64 `json:"instant_crash_rate"` // u < e branch only
	MinCrashRate     float64 `json:"min_crash_rate"`     // any crash point of 1.00
	WinRate          float64 `json:"win_rate"`
	MeanCrashPoint   float64 `json:"mean_crash_point"`
	P50              float64 `json:"p50"`
	P90              float64 `json:"p90"`
	P99              float64 `json:"p99"`
}

// Simulate draws Rounds crash points and pays Target per unit staked on each
// round whose crash point reaches it. RTP converges to 1 - HouseEdge.
func Simulate(p SimParams) (Stats, error) {
	if p.Rounds <= 0 {
		return Stats{}, fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	}
	if p.Target < MinCrashPoint {
		return Stats{}, fmt.Errorf("%w: target %v below %v", ErrInvalidConfig, p.Target, MinCrashPoint)
	}
	if err := ValidateHouseEdge(p.HouseEdge); err != nil {
		return Stats{}, err
	}
	src := p.Source
	if src == nil {
		src = CryptoSource()
	}

	points := make([]float64, p.Rounds)
	var paid, sum float64
	var instant, atMin, wins int
	for i := range points {
		cp, inst := DrawCrashPoint(src.Float64(), p.HouseEdge)
		points[i] = cp
		if inst {
			instant++
		}
		if cp == MinCrashPoint {
			atMin++
		}
		// Same rule as an armed Engine: the target pays when the crash point reaches it,
		// and a round at 1.00 crashes on its first tick.
		if cp >= p.Target && cp > MinCrashPoint {
			paid += p.Target
			wins++
		}
		if !math.IsInf(cp, 0) {
			sum += cp
		}
	}
	sort.Float64s(points)
	n := float64(p.Rounds)
	return Stats{
		Rounds:           p.Rounds,
		Target:           p.Target,
		RTP:              paid / n,
		InstantCrashRate: float64(instant) / n,
		MinCrashRate:     float64(atMin) / n,
		WinRate:          float64(wins) / n,
		MeanCrashPoint:   sum / n,
		P50:              percentile(points, 0.50),
		P90:              percentile(points, 0.90),
		P99:              percentile(points, 0.99),
	}, nil
}

// percentile expects sorted xs.
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(xs)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(xs) {
		idx = len(xs) - 1
	}
	return xs[idx]
}
