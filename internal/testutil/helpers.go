package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/pkg/apperr"
)

// RequireCode fails the test unless err carries the given error code.
func RequireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %s: %v", code, got, err)
	}
}

// At parses an RFC3339 timestamp and fails the test if invalid.
func At(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("Invalid timestamp %q: %v", value, err)
	}
	return ts
}

// FixedClock returns a clock that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
