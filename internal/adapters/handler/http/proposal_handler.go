package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

type ProposalHandler struct {
	service ports.LedgerService
}

func NewProposalHandler(service ports.LedgerService) *ProposalHandler {
	return &ProposalHandler{
		service: service,
	}
}

func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "proposal")
	if !ok {
		return
	}

	proposal, err := h.service.GetProposal(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

type voteRequest struct {
	Dao  uuid.UUID `json:"dao"`
	Vote *bool     `json:"vote"`
}

func (h *ProposalHandler) Vote(w http.ResponseWriter, r *http.Request) {
	proposal, ok := addressParam(w, r, "proposal")
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if req.Vote == nil {
		writeJSONError(w, http.StatusBadRequest, "InvalidRequest", "vote is required")
		return
	}

	userID, ok := callerID(r)
	if !ok {
		writeError(w, domain.ErrMissingIdentity)
		return
	}

	err := h.service.Vote(r.Context(), ports.VoteInput{
		Proposal: proposal,
		Dao:      req.Dao,
		Voter:    userID,
		Choice:   *req.Vote,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *ProposalHandler) GetVoter(w http.ResponseWriter, r *http.Request) {
	proposal, ok := addressParam(w, r, "proposal")
	if !ok {
		return
	}
	user, ok := addressParam(w, r, "user")
	if !ok {
		return
	}

	voter, err := h.service.GetVoter(r.Context(), proposal, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voter)
}
