package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Ashenafi-pixel/aviator-crash/round"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateSessionRequest struct {
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	ClientSeed string           `json:"clientSeed,omitempty"`
}

type BetRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	AutoCashout float64         `json:"autoCashout,omitempty"`
}

type CashoutResponse struct {
	Winnings decimal.Decimal `json:"winnings"`
	Session  round.Snapshot  `json:"session"`
}

// decodeBody decodes JSON into v; an empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*round.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	balance := s.initialBalance
	if req.Balance != nil {
		balance = *req.Balance
	}
	sess, err := s.sessions.Create(balance, req.ClientSeed)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.log.Info("session created", zap.String("session", sess.ID), zap.Stringer("balance", balance))
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req BetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	snap, err := sess.PlaceBet(r.Context(), req.Amount, req.AutoCashout)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.log.Info("round started",
		zap.String("session", sess.ID),
		zap.String("round", snap.RoundID),
		zap.Stringer("bet", req.Amount),
		zap.String("commitment", snap.Commitment),
	)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := sess.Tick(r.Context())
	if err != nil {
		s.log.Error("tick", zap.String("session", sess.ID), zap.Error(err))
		if !errors.Is(err, round.ErrRecordFailed) {
			writeErr(w, err)
			return
		}
	}
	if snap.Phase == "crashed" && snap.Ticks > 0 {
		s.log.Debug("round crashed", zap.String("round", snap.RoundID), zap.Float64("crash_point", snap.CrashPoint))
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) cashOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	winnings, snap, err := sess.CashOut(r.Context())
	if errors.Is(err, round.ErrRecordFailed) {
		// The payout stands; only the history write failed.
		s.log.Error("record cash out", zap.String("session", sess.ID), zap.Error(err))
	} else if err != nil {
		writeErr(w, err)
		return
	}
	s.log.Info("cashed out",
		zap.String("session", sess.ID),
		zap.String("round", snap.RoundID),
		zap.Float64("multiplier", snap.Multiplier),
		zap.Stringer("winnings", winnings),
	)
	writeJSON(w, http.StatusOK, CashoutResponse{Winnings: winnings, Session: snap})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "INVALID_LIMIT")
			return
		}
		limit = n
	}
	results, err := sess.History(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
