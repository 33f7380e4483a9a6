package crash

import (
	"errors"
	"math"
)

var (
	// ErrRoundNotActive is returned by CashOut outside the Running phase.
	ErrRoundNotActive = errors.New("crash: round not active")
	// ErrInvalidBet is returned by CashOut for a bet that is not a finite non-negative number.
	ErrInvalidBet = errors.New("crash: invalid bet")
	// ErrInvalidTarget is returned by SetAutoCashout for a target at or below 1.00.
	ErrInvalidTarget = errors.New("crash: invalid auto cash-out target")
	// ErrInvalidConfig is returned by New for an out-of-range house edge or growth constant.
	ErrInvalidConfig = errors.New("crash: invalid config")
)

// Phase is the lifecycle state of a round.
type Phase int

const (
	Idle Phase = iota
	Running
	Crashed
	CashedOut
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Crashed:
		return "crashed"
	case CashedOut:
		return "cashed_out"
	}
	return "unknown"
}

// Terminal reports whether the phase ends a round.
func (p Phase) Terminal() bool {
	return p == Crashed || p == CashedOut
}

// Engine runs one round at a time. It is not safe for concurrent use;
// StartRound, AdvanceTick and CashOut must be serialized by the caller.
type Engine struct {
	houseEdge float64
	growth    Growth
	source    RandomSource

	phase      Phase
	crashPoint float64
	multiplier float64
	ticks      int
	target     float64 // auto cash-out; 0 disables
}

// Option configures an Engine.
type Option func(*Engine)

// WithHouseEdge sets the house edge e, 0 < e < 1.
func WithHouseEdge(e float64) Option {
	return func(g *Engine) { g.houseEdge = e }
}

// WithGrowth sets the growth constant k (per millisecond).
func WithGrowth(k float64) Option {
	return func(g *Engine) { g.growth = Growth{K: k} }
}

// WithSource sets the uniform random source used to draw crash points.
func WithSource(src RandomSource) Option {
	return func(g *Engine) { g.source = src }
}

// New returns an idle engine. Defaults: DefaultHouseEdge, DefaultGrowthK, CryptoSource.
func New(opts ...Option) (*Engine, error) {
	g := &Engine{
		houseEdge:  DefaultHouseEdge,
		growth:     Growth{K: DefaultGrowthK},
		source:     CryptoSource(),
		multiplier: 1.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := ValidateHouseEdge(g.houseEdge); err != nil {
		return nil, err
	}
	if !(g.growth.K > 0) {
		return nil, ErrInvalidConfig
	}
	if g.source == nil {
		g.source = CryptoSource()
	}
	return g, nil
}

// HouseEdge returns the configured house edge.
func (g *Engine) HouseEdge() float64 { return g.houseEdge }

// StartRound draws a new crash point and resets the round to Running.
// Any previous round is discarded.
func (g *Engine) StartRound() {
	g.crashPoint = CrashPointFor(g.source.Float64(), g.houseEdge)
	g.multiplier = 1.0
	g.ticks = 0
	g.target = 0
	g.phase = Running
}

// SetAutoCashout arms an automatic cash-out for the running round. The round
// ends CashedOut at exactly target on the first tick that reaches it, provided
// the crash point is at least target. A target of 0 disarms it.
func (g *Engine) SetAutoCashout(target float64) error {
	if g.phase != Running {
		return ErrRoundNotActive
	}
	if target != 0 && (!(target > MinCrashPoint) || math.IsInf(target, 1)) {
		return ErrInvalidTarget
	}
	g.target = target
	return nil
}

// AutoCashout returns the armed target, or 0.
func (g *Engine) AutoCashout() float64 { return g.target }

// AdvanceTick moves the round forward one tick and returns the multiplier.
// Outside Running it returns the last multiplier unchanged.
func (g *Engine) AdvanceTick() float64 {
	if g.phase != Running {
		return g.multiplier
	}
	g.ticks++
	m := g.growth.AtTick(g.ticks)
	switch {
	case g.target > 0 && m >= g.target && g.crashPoint >= g.target:
		m = g.target
		g.phase = CashedOut
	case m >= g.crashPoint:
		m = g.crashPoint
		g.phase = Crashed
	}
	g.multiplier = m
	return g.multiplier
}

// IsRunning reports whether a round is in progress.
func (g *Engine) IsRunning() bool {
	return g.phase == Running
}

// CashOut ends the running round and returns bet times the current multiplier.
// A bet that is not a finite non-negative number fails with ErrInvalidBet
// without touching the round. Outside Running it returns 0 and ErrRoundNotActive.
func (g *Engine) CashOut(bet float64) (float64, error) {
	if !(bet >= 0) || math.IsInf(bet, 1) {
		return 0, ErrInvalidBet
	}
	if g.phase != Running {
		return 0, ErrRoundNotActive
	}
	// An instant crash (crash point 1.00) has already crashed at the first instant.
	if g.multiplier >= g.crashPoint {
		g.multiplier = g.crashPoint
		g.phase = Crashed
		return 0, ErrRoundNotActive
	}
	g.phase = CashedOut
	return bet * g.multiplier, nil
}

// Multiplier returns the current multiplier.
func (g *Engine) Multiplier() float64 { return g.multiplier }

// Phase returns the current phase.
func (g *Engine) Phase() Phase { return g.phase }

// Ticks returns the ticks elapsed in the current round.
func (g *Engine) Ticks() int { return g.ticks }

// CrashPoint returns the round's crash point once the round is over.
// While the round runs (or before any round) it reports false.
func (g *Engine) CrashPoint() (float64, bool) {
	if !g.phase.Terminal() {
		return 0, false
	}
	return g.crashPoint, true
}
