package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
	"github.com/nikitashlyahktin/VotingSystem/internal/platform/apperr"
)

type createPollRequest struct {
	Title      string   `json:"title"`
	Options    []string `json:"options"`
	ChoiceMode string   `json:"choice_mode"`
	ClosesAt   *string  `json:"closes_at"`
}

// @Summary     Create a poll
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Param       request  body  createPollRequest  true  "Poll definition"
// @Success     201  {object}  poll.Poll
// @Failure     400  {object}  map[string]string
// @Router      /api/v1/polls [post]
func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	mode := poll.ChoiceMode(req.ChoiceMode)
	if req.ChoiceMode == "" {
		mode = poll.ChoiceSingle
	}

	p, err := h.pollSvc.Create(r.Context(), userIDFromCtx(r), req.Title, mode, req.Options, parseTimePtr(req.ClosesAt))
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.pollSvc.List(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

func (h *Handler) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary     Close a poll
// @Tags        polls
// @Security    BearerAuth
// @Param       id  path  string  true  "Poll ID"
// @Success     200  {object}  poll.Poll
// @Failure     403  {object}  map[string]string
// @Failure     409  {object}  map[string]string  "already closed"
// @Router      /api/v1/polls/{id}/close [post]
func (h *Handler) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.ClosePoll(r.Context(), chi.URLParam(r, "id"), userIDFromCtx(r))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
