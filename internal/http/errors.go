package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
	"github.com/nikitashlyahktin/VotingSystem/internal/domain/user"
	"github.com/nikitashlyahktin/VotingSystem/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("not_found", "resource not found", err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "invalid credentials", err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.BadRequest("email_taken", "email already taken", err)
	case errors.Is(err, user.ErrUserNotFound):
		return apperr.NotFound("user_not_found", "user not found", err)
	case errors.Is(err, poll.ErrPollNotFound):
		return apperr.NotFound("poll_not_found", "poll not found", err)
	case errors.Is(err, poll.ErrInvalidPollDefinition):
		return apperr.BadRequest("invalid_poll", "poll needs a title and at least two distinct options", err)
	case errors.Is(err, poll.ErrPollClosed):
		return apperr.BadRequest("poll_closed", "poll is not accepting votes", err)
	case errors.Is(err, poll.ErrUnknownOption):
		return apperr.BadRequest("invalid_option", "option does not belong to poll", err)
	case errors.Is(err, poll.ErrInvalidChoiceCount):
		return apperr.BadRequest("invalid_choice_count", "wrong number of chosen options for this poll", err)
	case errors.Is(err, poll.ErrDuplicateOption):
		return apperr.BadRequest("duplicate_option", "chosen options contain duplicates", err)
	case errors.Is(err, poll.ErrForbidden):
		return apperr.Forbidden("forbidden", "only the creator can close this poll", err)
	case errors.Is(err, poll.ErrAlreadyClosed):
		return apperr.Conflict("already_closed", "poll is already closed", err)
	case errors.Is(err, poll.ErrConcurrentModification):
		return apperr.Conflict("concurrent_modification", "poll was modified concurrently, retry", err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}
