package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ashenafi-pixel/aviator-crash/games/crash"
	"github.com/Ashenafi-pixel/aviator-crash/round"
)

// APIError is the standard error response.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, code int, errMsg, codeStr string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(APIError{
		Error:   errMsg,
		Code:    codeStr,
		Message: errMsg,
	})
}

// statusFor maps session and engine errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, round.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, crash.ErrInvalidBet):
		return http.StatusBadRequest, "INVALID_BET"
	case errors.Is(err, round.ErrInvalidAutoCashout):
		return http.StatusBadRequest, "INVALID_AUTO_CASHOUT"
	case errors.Is(err, round.ErrInvalidBalance):
		return http.StatusBadRequest, "INVALID_BALANCE"
	case errors.Is(err, round.ErrInsufficientFunds):
		return http.StatusBadRequest, "INSUFFICIENT_FUNDS"
	case errors.Is(err, crash.ErrRoundNotActive):
		return http.StatusConflict, "ROUND_NOT_ACTIVE"
	case errors.Is(err, round.ErrRoundInProgress):
		return http.StatusConflict, "ROUND_IN_PROGRESS"
	case errors.Is(err, round.ErrTooManySessions):
		return http.StatusServiceUnavailable, "TOO_MANY_SESSIONS"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeErr(w http.ResponseWriter, err error) {
	code, codeStr := statusFor(err)
	writeError(w, code, err.Error(), codeStr)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
