package crash

import (
	"fmt"
	"math"
	"time"
)

// DefaultHouseEdge is the fraction of stake retained by the house (4%).
const DefaultHouseEdge = 0.04

// DefaultGrowthK gives multiplier(t) = exp(0.00006 * ms): ~1.82x at 10s, ~6.05x at 30s.
const DefaultGrowthK = 0.00006

// TickDuration is the simulated time one AdvanceTick represents.
const TickDuration = 10 * time.Millisecond

// MinCrashPoint is the lowest possible crash point (instant crash).
const MinCrashPoint = 1.0

// ValidateHouseEdge checks 0 < e < 1.
func ValidateHouseEdge(e float64) error {
	if !(e > 0 && e < 1) {
		return fmt.Errorf("%w: house edge %v not in (0, 1)", ErrInvalidConfig, e)
	}
	return nil
}

// CrashPointFor maps a uniform draw u in (0, 1) to a crash point for house edge e.
// u < e is an instant crash at 1.00; otherwise floor(100*(1-e)/(1-u))/100, never below 1.00.
func CrashPointFor(u, e float64) float64 {
	cp, _ := DrawCrashPoint(u, e)
	return cp
}

// DrawCrashPoint is CrashPointFor that also reports whether the instant-crash
// branch (u < e) fired. Draws just above e also floor to 1.00 but are not
// instant: P(cp == 1.00) is 1 - (1-e)/1.01, of which e is instant.
func DrawCrashPoint(u, e float64) (cp float64, instant bool) {
	u = openUnit(u)
	if u < e {
		return MinCrashPoint, true
	}
	cp = math.Floor(100*(1-e)/(1-u)) / 100
	if cp < MinCrashPoint || math.IsNaN(cp) {
		return MinCrashPoint, false
	}
	return cp, false
}

// openUnit clamps u into the open interval (0, 1).
func openUnit(u float64) float64 {
	if math.IsNaN(u) || u <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if u >= 1 {
		return math.Nextafter(1, 0)
	}
	return u
}

// Growth is the multiplier law exp(K * ms).
type Growth struct {
	K float64
}

// At returns the multiplier after ms simulated milliseconds.
func (gr Growth) At(ms float64) float64 {
	if ms <= 0 {
		return 1.0
	}
	return math.Exp(gr.K * ms)
}

// AtTick returns the multiplier after n ticks of TickDuration.
func (gr Growth) AtTick(n int) float64 {
	return gr.At(float64(n) * float64(TickDuration.Milliseconds()))
}

// TicksTo returns the first tick at which the multiplier reaches m.
func (gr Growth) TicksTo(m float64) int {
	if m <= 1 {
		return 0
	}
	step := float64(TickDuration.Milliseconds())
	n := int(math.Ceil(math.Log(m) / (gr.K * step)))
	for n > 0 && gr.AtTick(n-1) >= m {
		n--
	}
	for gr.AtTick(n) < m {
		n++
	}
	return n
}
