package round

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Outcomes recorded for a settled round.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

// Result records a settled round for the player's history.
type Result struct {
	RoundID     string          `json:"roundId"`
	SessionID   string          `json:"sessionId"`
	Bet         decimal.Decimal `json:"bet"`
	CrashPoint  float64         `json:"crashPoint"`
	CashedOutAt float64         `json:"cashedOutAt,omitempty"` // 0 when the round crashed first
	Winnings    decimal.Decimal `json:"winnings"`
	Outcome     string          `json:"outcome"`
	Ticks       int             `json:"ticks"`
	ServerSeed  string          `json:"serverSeed,omitempty"`
	ClientSeed  string          `json:"clientSeed,omitempty"`
	SettledAt   time.Time       `json:"settledAt"`
}

// History stores settled rounds.
type History interface {
	Append(ctx context.Context, r *Result) error
	// Recent returns up to limit results for a session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]*Result, error)
}

// ResultsStore appends settled rounds to data/round_results.json.
type ResultsStore struct {
	mu      sync.Mutex
	dataDir string
}

func NewResultsStore(dataDir string) *ResultsStore {
	if dataDir == "" {
		dataDir = "data"
	}
	return &ResultsStore{dataDir: dataDir}
}

func (rs *ResultsStore) path() string {
	return filepath.Join(rs.dataDir, "round_results.json")
}

func (rs *ResultsStore) ensureDir() error {
	return os.MkdirAll(rs.dataDir, 0755)
}

// readLocked returns the stored list; a missing file is an empty history.
func (rs *ResultsStore) readLocked() ([]*Result, error) {
	data, err := os.ReadFile(rs.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []*Result
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Append adds a settled round to the JSON file.
func (rs *ResultsStore) Append(_ context.Context, r *Result) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if err := rs.ensureDir(); err != nil {
		return err
	}
	list, err := rs.readLocked()
	if err != nil {
		return err
	}
	list = append(list, r)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rs.path(), data, 0644)
}

func (rs *ResultsStore) Recent(_ context.Context, sessionID string, limit int) ([]*Result, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	list, err := rs.readLocked()
	if err != nil {
		return nil, err
	}
	out := []*Result{}
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if list[i].SessionID == sessionID {
			out = append(out, list[i])
		}
	}
	return out, nil
}
