package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ashenafi-pixel/aviator-crash/round"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sessions := round.NewSessions(round.NewResultsStore(t.TempDir()), 0)
	ts := httptest.NewServer(New(sessions, nil, decimal.NewFromInt(1000), 0).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]interface{}
	if code := do(t, ts, http.MethodGet, "/health", nil, &body); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("body %+v", body)
	}
}

func TestRoundFlow(t *testing.T) {
	ts := newTestServer(t)

	var snap round.Snapshot
	if code := do(t, ts, http.MethodPost, "/sessions", nil, &snap); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if !snap.Balance.Equal(decimal.NewFromInt(1000)) || snap.Phase != "idle" || snap.NextCommitment == "" {
		t.Fatalf("new session %+v", snap)
	}
	base := "/sessions/" + snap.SessionID

	if code := do(t, ts, http.MethodPost, base+"/bet", BetRequest{Amount: decimal.NewFromInt(10)}, &snap); code != http.StatusOK {
		t.Fatalf("bet status %d", code)
	}
	if !snap.Running || !snap.Balance.Equal(decimal.NewFromInt(990)) || snap.CrashPoint != 0 {
		t.Fatalf("after bet %+v", snap)
	}

	var apiErr APIError
	if code := do(t, ts, http.MethodPost, base+"/bet", BetRequest{Amount: decimal.NewFromInt(10)}, &apiErr); code != http.StatusConflict || apiErr.Code != "ROUND_IN_PROGRESS" {
		t.Errorf("second bet: %d %+v", code, apiErr)
	}

	if code := do(t, ts, http.MethodPost, base+"/tick", nil, &snap); code != http.StatusOK {
		t.Fatalf("tick status %d", code)
	}

	var cash CashoutResponse
	code := do(t, ts, http.MethodPost, base+"/cashout", nil, &cash)
	switch code {
	case http.StatusOK:
		want := decimal.NewFromInt(10).Mul(decimal.NewFromFloat(cash.Session.Multiplier)).RoundDown(2)
		if cash.Session.Phase != "cashed_out" || !cash.Winnings.Equal(want) {
			t.Errorf("cash out %+v", cash)
		}
	case http.StatusConflict:
		// Instant crash on the first tick.
		if code := do(t, ts, http.MethodGet, base, nil, &snap); code != http.StatusOK || snap.Phase != "crashed" {
			t.Errorf("conflict without crash: %+v", snap)
		}
	default:
		t.Fatalf("cash out status %d", code)
	}

	if code := do(t, ts, http.MethodPost, base+"/cashout", nil, &apiErr); code != http.StatusConflict || apiErr.Code != "ROUND_NOT_ACTIVE" {
		t.Errorf("cash out after end: %d %+v", code, apiErr)
	}

	var results []round.Result
	if code := do(t, ts, http.MethodGet, base+"/history?limit=5", nil, &results); code != http.StatusOK {
		t.Fatalf("history status %d", code)
	}
	if len(results) != 1 || results[0].SessionID != snap.SessionID {
		t.Errorf("history %+v", results)
	}
	if code := do(t, ts, http.MethodGet, base+"/history?limit=x", nil, &apiErr); code != http.StatusBadRequest {
		t.Errorf("bad limit status %d", code)
	}

	if code := do(t, ts, http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status %d", code)
	}
	if code := do(t, ts, http.MethodGet, base, nil, &apiErr); code != http.StatusNotFound || apiErr.Code != "SESSION_NOT_FOUND" {
		t.Errorf("get deleted: %d %+v", code, apiErr)
	}
}

func TestBetErrors(t *testing.T) {
	ts := newTestServer(t)
	var snap round.Snapshot
	do(t, ts, http.MethodPost, "/sessions", CreateSessionRequest{Balance: ptr(decimal.NewFromInt(5))}, &snap)
	base := "/sessions/" + snap.SessionID

	cases := []struct {
		req  BetRequest
		code string
	}{
		{BetRequest{Amount: decimal.NewFromInt(-5)}, "INVALID_BET"},
		{BetRequest{Amount: decimal.NewFromInt(6)}, "INSUFFICIENT_FUNDS"},
		{BetRequest{Amount: decimal.NewFromInt(1), AutoCashout: 0.5}, "INVALID_AUTO_CASHOUT"},
	}
	for _, c := range cases {
		var apiErr APIError
		if status := do(t, ts, http.MethodPost, base+"/bet", c.req, &apiErr); status != http.StatusBadRequest || apiErr.Code != c.code {
			t.Errorf("%+v: %d %+v", c.req, status, apiErr)
		}
	}

	var apiErr APIError
	if status := do(t, ts, http.MethodPost, base+"/cashout", nil, &apiErr); status != http.StatusConflict || apiErr.Code != "ROUND_NOT_ACTIVE" {
		t.Errorf("idle cash out: %d %+v", status, apiErr)
	}
	if status := do(t, ts, http.MethodPost, "/sessions/nope/tick", nil, &apiErr); status != http.StatusNotFound {
		t.Errorf("unknown session tick: %d", status)
	}
}

func TestCreateSessionNegativeBalance(t *testing.T) {
	ts := newTestServer(t)
	var apiErr APIError
	status := do(t, ts, http.MethodPost, "/sessions", CreateSessionRequest{Balance: ptr(decimal.NewFromInt(-1))}, &apiErr)
	if status != http.StatusBadRequest || apiErr.Code != "INVALID_BALANCE" {
		t.Errorf("negative balance: %d %+v", status, apiErr)
	}
}

type brokenHistory struct{}

func (brokenHistory) Append(context.Context, *round.Result) error { return errors.New("db down") }

func (brokenHistory) Recent(context.Context, string, int) ([]*round.Result, error) {
	return nil, errors.New("db down")
}

// A history outage after the payout must not turn a paid cash-out into a 500.
func TestCashOutWithHistoryDown(t *testing.T) {
	sessions := round.NewSessions(brokenHistory{}, 0)
	ts := httptest.NewServer(New(sessions, nil, decimal.NewFromInt(1000), 0).Routes())
	t.Cleanup(ts.Close)

	var snap round.Snapshot
	do(t, ts, http.MethodPost, "/sessions", nil, &snap)
	base := "/sessions/" + snap.SessionID
	if code := do(t, ts, http.MethodPost, base+"/bet", BetRequest{Amount: decimal.NewFromInt(10)}, &snap); code != http.StatusOK {
		t.Fatalf("bet status %d", code)
	}
	var cash CashoutResponse
	switch code := do(t, ts, http.MethodPost, base+"/cashout", nil, &cash); code {
	case http.StatusOK:
		if cash.Session.Phase != "cashed_out" || !cash.Winnings.IsPositive() {
			t.Fatalf("cash out %+v", cash)
		}
		if !cash.Session.Balance.Equal(decimal.NewFromInt(990).Add(cash.Winnings)) {
			t.Errorf("balance %s winnings %s", cash.Session.Balance, cash.Winnings)
		}
	case http.StatusConflict:
		// Instant crash.
	default:
		t.Fatalf("cash out status %d", code)
	}
}

func ptr[T any](v T) *T { return &v }
