package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

type DaoHandler struct {
	service ports.LedgerService
}

func NewDaoHandler(service ports.LedgerService) *DaoHandler {
	return &DaoHandler{
		service: service,
	}
}

type initializeRequest struct {
	Address uuid.UUID `json:"address"`
	Name    string    `json:"name"`
}

func (h *DaoHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	payer, ok := callerID(r)
	if !ok {
		writeError(w, domain.ErrMissingIdentity)
		return
	}

	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}

	dao, err := h.service.Initialize(r.Context(), ports.InitializeInput{
		Payer:   payer,
		Address: req.Address,
		Name:    req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dao)
}

func (h *DaoHandler) GetDao(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "dao")
	if !ok {
		return
	}

	dao, err := h.service.GetDao(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dao)
}

type createProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *DaoHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	payer, ok := callerID(r)
	if !ok {
		writeError(w, domain.ErrMissingIdentity)
		return
	}
	dao, ok := addressParam(w, r, "dao")
	if !ok {
		return
	}

	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}

	proposal, err := h.service.CreateProposal(r.Context(), ports.CreateProposalInput{
		Payer:       payer,
		Dao:         dao,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// ListProposals returns one page of the DAO's proposals, or the single
// proposal matching ?title= when given.
func (h *DaoHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	dao, ok := addressParam(w, r, "dao")
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Has("title") {
		proposal, err := h.service.GetProposalByTitle(r.Context(), dao, query.Get("title"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
		return
	}

	page := 1
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "InvalidRequest", "invalid page")
			return
		}
		page = n
	}

	proposals, err := h.service.ListProposals(r.Context(), ports.ListProposalsInput{Dao: dao, Page: page})
	if err != nil {
		writeError(w, err)
		return
	}
	if proposals == nil {
		proposals = []*domain.Proposal{}
	}
	writeJSON(w, http.StatusOK, proposals)
}

func (h *DaoHandler) GetRewardAccount(w http.ResponseWriter, r *http.Request) {
	dao, ok := addressParam(w, r, "dao")
	if !ok {
		return
	}
	user, ok := addressParam(w, r, "user")
	if !ok {
		return
	}

	reward, err := h.service.GetRewardAccount(r.Context(), dao, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func addressParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	address, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, domain.ErrInvalidAddress)
		return uuid.Nil, false
	}
	return address, true
}
