package round

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Ashenafi-pixel/aviator-crash/games/crash"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManySessions    = errors.New("too many sessions")
	ErrRoundInProgress    = errors.New("round in progress")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAutoCashout = errors.New("auto cash-out must be above 1.00")
	ErrInvalidBalance     = errors.New("balance must not be negative")

	// ErrRecordFailed wraps a history write failure after a round has
	// already been paid; the balance and snapshot are still valid.
	ErrRecordFailed = errors.New("record round")
)

// winningsPlaces is the currency's minor unit. Payouts round down to it.
const winningsPlaces = 2

// Snapshot is the player-visible state of a session. The crash point and
// server seed are only filled in once the round is over.
type Snapshot struct {
	SessionID      string          `json:"sessionId"`
	RoundID        string          `json:"roundId,omitempty"`
	Phase          string          `json:"phase"`
	Running        bool            `json:"running"`
	Multiplier     float64         `json:"multiplier"`
	Ticks          int             `json:"ticks"`
	Balance        decimal.Decimal `json:"balance"`
	Bet            decimal.Decimal `json:"bet"`
	AutoCashout    float64         `json:"autoCashout,omitempty"`
	Winnings       decimal.Decimal `json:"winnings"`
	CrashPoint     float64         `json:"crashPoint,omitempty"`
	Commitment     string          `json:"commitment,omitempty"`
	ServerSeed     string          `json:"serverSeed,omitempty"`
	ClientSeed     string          `json:"clientSeed"`
	NextCommitment string          `json:"nextCommitment"`
}

// Session is one player's table: a balance and its own round engine.
// All engine calls go through the session mutex.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	engine      *crash.Engine
	history     History
	balance     decimal.Decimal
	bet         decimal.Decimal
	autoCashout float64
	winnings    decimal.Decimal
	roundID     string
	settled     bool
	clientSeed  string
	fair        *crash.ProvablyFair // current round
	next        *crash.ProvablyFair // committed for the next round
	newSeed     func() (string, error)
}

func newSession(balance decimal.Decimal, clientSeed string, history History, newSeed func() (string, error), opts []crash.Option) (*Session, error) {
	if clientSeed == "" {
		clientSeed = uuid.NewString()
	}
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		history:    history,
		balance:    balance,
		clientSeed: clientSeed,
		settled:    true,
		newSeed:    newSeed,
	}
	next, err := s.newFairness()
	if err != nil {
		return nil, err
	}
	s.next = next
	opts = append(append([]crash.Option{}, opts...), crash.WithSource(sessionSource{s}))
	if s.engine, err = crash.New(opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// sessionSource draws from the session's current provably fair seed.
type sessionSource struct{ s *Session }

func (src sessionSource) Float64() float64 { return src.s.fair.Float64() }

func (s *Session) newFairness() (*crash.ProvablyFair, error) {
	seed, err := s.newSeed()
	if err != nil {
		return nil, err
	}
	return crash.NewProvablyFair(seed, s.clientSeed), nil
}

// PlaceBet debits bet from the balance and starts a round. autoCashout of 0
// disables automatic cash-out.
func (s *Session) PlaceBet(ctx context.Context, bet decimal.Decimal, autoCashout float64) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.IsRunning() {
		return s.snapshotLocked(), ErrRoundInProgress
	}
	if !bet.IsPositive() {
		return s.snapshotLocked(), fmt.Errorf("%w: amount must be positive", crash.ErrInvalidBet)
	}
	if bet.GreaterThan(s.balance) {
		return s.snapshotLocked(), ErrInsufficientFunds
	}
	if autoCashout != 0 && (!(autoCashout > crash.MinCrashPoint) || math.IsInf(autoCashout, 1)) {
		return s.snapshotLocked(), ErrInvalidAutoCashout
	}
	next, err := s.newFairness()
	if err != nil {
		return s.snapshotLocked(), err
	}

	s.balance = s.balance.Sub(bet)
	s.bet = bet
	s.autoCashout = autoCashout
	s.winnings = decimal.Zero
	s.roundID = uuid.NewString()
	s.settled = false
	s.fair, s.next = s.next, next
	s.engine.StartRound()
	if autoCashout > 0 {
		_ = s.engine.SetAutoCashout(autoCashout) // validated above
	}
	return s.snapshotLocked(), nil
}

// Tick advances the round one tick. An armed auto cash-out pays at exactly
// its target when the crash point reaches it.
func (s *Session) Tick(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasRunning := s.engine.IsRunning()
	s.engine.AdvanceTick()
	if wasRunning && s.engine.Phase() == crash.CashedOut {
		s.creditLocked()
	}
	err := s.settleLocked(ctx)
	return s.snapshotLocked(), err
}

// CashOut locks in bet times the current multiplier and credits the balance.
// An error wrapping ErrRecordFailed still returns the credited winnings.
func (s *Session) CashOut(ctx context.Context) (decimal.Decimal, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.engine.CashOut(s.bet.InexactFloat64()); err != nil {
		// An instant crash ends the round here; the cash-out error wins.
		_ = s.settleLocked(ctx)
		return decimal.Zero, s.snapshotLocked(), err
	}
	w := s.creditLocked()
	err := s.settleLocked(ctx)
	return w, s.snapshotLocked(), err
}

// creditLocked pays bet times the final multiplier, rounded down to the cent.
func (s *Session) creditLocked() decimal.Decimal {
	s.winnings = s.bet.Mul(decimal.NewFromFloat(s.engine.Multiplier())).RoundDown(winningsPlaces)
	s.balance = s.balance.Add(s.winnings)
	return s.winnings
}

// settleLocked records a finished round once.
func (s *Session) settleLocked(ctx context.Context) error {
	if s.settled || !s.engine.Phase().Terminal() {
		return nil
	}
	s.settled = true
	if s.history == nil {
		return nil
	}
	cp, _ := s.engine.CrashPoint()
	r := &Result{
		RoundID:    s.roundID,
		SessionID:  s.ID,
		Bet:        s.bet,
		CrashPoint: cp,
		Winnings:   s.winnings,
		Outcome:    OutcomeLose,
		Ticks:      s.engine.Ticks(),
		ServerSeed: s.fair.Reveal(),
		ClientSeed: s.clientSeed,
		SettledAt:  time.Now().UTC(),
	}
	if s.engine.Phase() == crash.CashedOut {
		r.Outcome = OutcomeWin
		r.CashedOutAt = s.engine.Multiplier()
	}
	if err := s.history.Append(ctx, r); err != nil {
		return fmt.Errorf("%w %s: %w", ErrRecordFailed, s.roundID, err)
	}
	return nil
}

// Snapshot returns the current player-visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Balance returns the session balance.
func (s *Session) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// History returns the session's settled rounds, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]*Result, error) {
	if s.history == nil {
		return []*Result{}, nil
	}
	return s.history.Recent(ctx, s.ID, limit)
}

func (s *Session) snapshotLocked() Snapshot {
	phase := s.engine.Phase()
	snap := Snapshot{
		SessionID:      s.ID,
		RoundID:        s.roundID,
		Phase:          phase.String(),
		Running:        phase == crash.Running,
		Multiplier:     s.engine.Multiplier(),
		Ticks:          s.engine.Ticks(),
		Balance:        s.balance,
		Bet:            s.bet,
		AutoCashout:    s.autoCashout,
		Winnings:       s.winnings,
		ClientSeed:     s.clientSeed,
		NextCommitment: s.next.Commitment(),
	}
	if s.fair != nil {
		snap.Commitment = s.fair.Commitment()
	}
	if cp, ok := s.engine.CrashPoint(); ok {
		snap.CrashPoint = cp
		snap.ServerSeed = s.fair.Reveal()
	}
	return snap
}

// Sessions holds the active sessions in memory.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	history  History
	opts     []crash.Option
	max      int
	newSeed  func() (string, error)
}

// NewSessions returns a session store. max <= 0 means unlimited.
func NewSessions(history History, max int, opts ...crash.Option) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		history:  history,
		opts:     opts,
		max:      max,
		newSeed:  crash.NewServerSeed,
	}
}

// Create opens a session with the given balance.
func (ss *Sessions) Create(balance decimal.Decimal, clientSeed string) (*Session, error) {
	if balance.IsNegative() {
		return nil, ErrInvalidBalance
	}
	s, err := newSession(balance, clientSeed, ss.history, ss.newSeed, ss.opts)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.max > 0 && len(ss.sessions) >= ss.max {
		return nil, ErrTooManySessions
	}
	ss.sessions[s.ID] = s
	return s, nil
}

func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (ss *Sessions) Delete(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(ss.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
