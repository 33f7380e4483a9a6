package round

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SQLHistory stores settled rounds in Postgres or SQLite.
type SQLHistory struct {
	db       *sql.DB
	postgres bool
}

// NewSQLHistory wraps db. driver is "postgres" or "sqlite".
func NewSQLHistory(db *sql.DB, driver string) *SQLHistory {
	return &SQLHistory{db: db, postgres: driver == "postgres"}
}

// Migrate creates the crash_rounds table.
func (h *SQLHistory) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS crash_rounds (
			round_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			bet TEXT NOT NULL,
			crash_point DOUBLE PRECISION NOT NULL,
			cashed_out_at DOUBLE PRECISION NOT NULL DEFAULT 0,
			winnings TEXT NOT NULL,
			outcome TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			server_seed TEXT NOT NULL DEFAULT '',
			client_seed TEXT NOT NULL DEFAULT '',
			settled_at_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crash_rounds_session ON crash_rounds(session_id, settled_at_ms)`,
	}
	for _, q := range stmts {
		if _, err := h.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate crash_rounds: %w", err)
		}
	}
	return nil
}

func (h *SQLHistory) Append(ctx context.Context, r *Result) error {
	q := h.rebind(`INSERT INTO crash_rounds
		(round_id, session_id, bet, crash_point, cashed_out_at, winnings, outcome, ticks, server_seed, client_seed, settled_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := h.db.ExecContext(ctx, q,
		r.RoundID, r.SessionID, r.Bet.String(), r.CrashPoint, r.CashedOutAt, r.Winnings.String(),
		r.Outcome, r.Ticks, r.ServerSeed, r.ClientSeed, r.SettledAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert round %s: %w", r.RoundID, err)
	}
	return nil
}

func (h *SQLHistory) Recent(ctx context.Context, sessionID string, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 100
	}
	q := h.rebind(`SELECT round_id, session_id, bet, crash_point, cashed_out_at, winnings, outcome, ticks, server_seed, client_seed, settled_at_ms
		FROM crash_rounds WHERE session_id = ? ORDER BY settled_at_ms DESC, round_id DESC LIMIT ?`)
	rows, err := h.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	out := []*Result{}
	for rows.Next() {
		var (
			r             Result
			bet, winnings string
			settledMs     int64
		)
		if err := rows.Scan(&r.RoundID, &r.SessionID, &bet, &r.CrashPoint, &r.CashedOutAt, &winnings,
			&r.Outcome, &r.Ticks, &r.ServerSeed, &r.ClientSeed, &settledMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if r.Bet, err = decimal.NewFromString(bet); err != nil {
			return nil, fmt.Errorf("round %s bet: %w", r.RoundID, err)
		}
		if r.Winnings, err = decimal.NewFromString(winnings); err != nil {
			return nil, fmt.Errorf("round %s winnings: %w", r.RoundID, err)
		}
		r.SettledAt = time.UnixMilli(settledMs).UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// rebind turns ? placeholders into $1, $2, ... for Postgres.
func (h *SQLHistory) rebind(q string) string {
	if !h.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
