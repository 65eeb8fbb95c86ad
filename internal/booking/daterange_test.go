package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) Range {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	e, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	r, err := NewRange(s, e)
	require.NoError(t, err)
	return r
}

func TestRange_Overlaps(t *testing.T) {
	first := mustRange(t, "2025-05-15T14:00:00Z", "2025-05-18T11:00:00Z")

	tests := []struct {
		name     string
		other    Range
		overlaps bool
	}{
		{"touching end boundary", mustRange(t, "2025-05-18T11:00:00Z", "2025-05-20T10:00:00Z"), false},
		{"touching start boundary", mustRange(t, "2025-05-13T10:00:00Z", "2025-05-15T14:00:00Z"), false},
		{"inside", mustRange(t, "2025-05-16T00:00:00Z", "2025-05-17T00:00:00Z"), true},
		{"covering", mustRange(t, "2025-05-10T00:00:00Z", "2025-05-25T00:00:00Z"), true},
		{"straddling start", mustRange(t, "2025-05-14T00:00:00Z", "2025-05-15T14:00:01Z"), true},
		{"disjoint", mustRange(t, "2025-06-01T00:00:00Z", "2025-06-03T00:00:00Z"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, first.Overlaps(tt.other))
			assert.Equal(t, tt.overlaps, tt.other.Overlaps(first), "overlap must be symmetric")
		})
	}
}

func TestNewRange_RejectsInvertedAndEmpty(t *testing.T) {
	start := time.Date(2025, 5, 15, 14, 0, 0, 0, time.UTC)

	_, err := NewRange(start, start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(time.Time{}, start)
	assert.ErrorIs(t, err, ErrMissingBounds)
}

func TestNewRange_NormalizesToUTCSeconds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2025, 5, 15, 17, 0, 0, 123456789, loc)

	r, err := NewRange(start, start.Add(48*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, time.UTC, r.Start.Location())
	assert.Equal(t, 14, r.Start.Hour())
	assert.Zero(t, r.Start.Nanosecond())
}

func TestRange_ValidateAt(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	r := mustRange(t, "2025-05-01T00:00:00Z", "2025-05-02T00:00:00Z")
	assert.ErrorIs(t, r.ValidateAt(now), ErrStartInPast, "start equal to now is not in the future")

	r = mustRange(t, "2025-05-01T00:00:01Z", "2025-05-02T00:00:00Z")
	assert.NoError(t, r.ValidateAt(now))
}

func TestRange_Nights(t *testing.T) {
	assert.Equal(t, 3, mustRange(t, "2025-05-15T14:00:00Z", "2025-05-18T11:00:00Z").Nights())
	assert.Equal(t, 2, mustRange(t, "2025-05-18T00:00:00Z", "2025-05-20T00:00:00Z").Nights())
}
