package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikitashlyahktin/VotingSystem/internal/platform/apperr"
	"github.com/nikitashlyahktin/VotingSystem/internal/worker"
)

type voteRequest struct {
	OptionIDs []string `json:"option_ids"`
}

// @Summary     Cast or revise a vote
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Param       id       path      string       true  "Poll ID"
// @Param       request  body      voteRequest  true  "Chosen option ids"
// @Success     200      {object}  poll.Ballot
// @Failure     400      {object}  map[string]string  "closed poll, bad option or choice count"
// @Failure     401      {object}  map[string]string  "unauthorized"
// @Failure     404      {object}  map[string]string  "poll not found"
// @Failure     409      {object}  map[string]string  "concurrent modification"
// @Router      /api/v1/polls/{id}/vote [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	voterID := userIDFromCtx(r)

	b, err := h.pollSvc.Vote(r.Context(), pollID, voterID, req.OptionIDs)
	if err != nil {
		errorResponse(w, err)
		return
	}

	select {
	case h.voteCh <- worker.VoteEvent{PollID: pollID, VoterID: voterID}:
	default:
	}

	writeJSON(w, http.StatusOK, b)
}

// @Summary     Poll results
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       id   path     string  true  "Poll ID"
// @Success     200  {object} poll.Results
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     404  {object}  map[string]string  "poll not found"
// @Router      /api/v1/polls/{id}/results [get]
func (h *Handler) handlePollResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.pollSvc.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
