package apperrors

import (
	"errors"
	"net/http"
)

// Recoverable, user-facing rejection reasons. Handlers map these to HTTP
// statuses; clients retry with corrected input.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateAnswer  = errors.New("answer matches an existing answer")
	ErrAlreadySubmitted = errors.New("answer already submitted for this round")
	ErrAlreadyVoted     = errors.New("vote already submitted for this round")
	ErrSelfVote         = errors.New("cannot vote for your own answer")
	ErrNotHost          = errors.New("only the host can do this")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoundNotFound    = errors.New("round not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyStarted   = errors.New("game has already started")
	ErrWrongPhase       = errors.New("round is not in the right phase")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrRoundNotFound),
		errors.Is(err, ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrDuplicateAnswer),
		errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrSelfVote):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
