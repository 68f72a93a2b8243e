package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOfWrapped(t *testing.T) {
	base := Conflict("already_responded", errors.New("recommendation already responded"))
	wrapped := fmt.Errorf("respond: %w", base)

	if StatusOf(wrapped) != http.StatusConflict || !IsConflict(wrapped) {
		t.Fatalf("status=%d", StatusOf(wrapped))
	}
	if IsNotFound(wrapped) || IsInvalidInput(wrapped) {
		t.Fatalf("wrong classification")
	}
	if StatusOf(errors.New("plain")) != 0 {
		t.Fatalf("plain errors carry no status")
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{NotFound("not_found", errors.New("recommendation not found")), "recommendation not found"},
		{InvalidInput("invalid_rating", nil), "invalid_rating"},
		{New(http.StatusTeapot, "", nil), "api error (418)"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error()=%q want %q", got, tc.want)
		}
	}
}
