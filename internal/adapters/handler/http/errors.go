package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Error: message})
}

// writeError maps ledger errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)

	switch {
	case errors.Is(err, domain.ErrVotedTwice),
		errors.Is(err, domain.ErrAccountInUse),
		errors.Is(err, domain.ErrTxConflict):
		writeJSONError(w, http.StatusConflict, code, err.Error())
	case errors.Is(err, domain.ErrMaxLenExceeded),
		errors.Is(err, domain.ErrInvalidText),
		errors.Is(err, domain.ErrDaoMismatch),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidPage),
		errors.Is(err, domain.ErrArithmeticOverflow):
		writeJSONError(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, domain.ErrDaoNotFound),
		errors.Is(err, domain.ErrProposalNotFound),
		errors.Is(err, domain.ErrVoterNotFound),
		errors.Is(err, domain.ErrRewardNotFound):
		writeJSONError(w, http.StatusNotFound, code, err.Error())
	case errors.Is(err, domain.ErrMissingIdentity):
		writeJSONError(w, http.StatusUnauthorized, code, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, code, domain.ErrInternal.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
