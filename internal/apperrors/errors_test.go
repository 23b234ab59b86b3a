package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrRoomNotFound, http.StatusNotFound},
		{ErrPlayerNotFound, http.StatusNotFound},
		{ErrDuplicateAnswer, http.StatusConflict},
		{ErrWrongPhase, http.StatusConflict},
		{ErrNotHost, http.StatusForbidden},
		{ErrSelfVote, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}

	// Wrapped sentinels keep their mapping.
	wrapped := fmt.Errorf("submit: %w", ErrAlreadyVoted)
	if got := HTTPStatus(wrapped); got != http.StatusConflict {
		t.Errorf("HTTPStatus(wrapped) = %d, want %d", got, http.StatusConflict)
	}
}
