package booking

import (
	"testing"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to models.ReservationStatus
		want     error
	}{
		{models.ReservationPending, models.ReservationConfirmed, nil},
		{models.ReservationPending, models.ReservationCancelled, nil},
		{models.ReservationConfirmed, models.ReservationCompleted, nil},
		{models.ReservationConfirmed, models.ReservationCancelled, nil},
		{models.ReservationPending, models.ReservationCompleted, ErrInvalidTransition},
		{models.ReservationPending, models.ReservationPending, ErrInvalidTransition},
		{models.ReservationConfirmed, models.ReservationPending, ErrInvalidTransition},
		{models.ReservationCancelled, models.ReservationConfirmed, ErrTerminalState},
		{models.ReservationCompleted, models.ReservationCancelled, ErrTerminalState},
		{models.ReservationPending, "archived", ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCanCancel(t *testing.T) {
	assert.NoError(t, CanCancel(models.ReservationPending))
	assert.NoError(t, CanCancel(models.ReservationConfirmed))
	assert.ErrorIs(t, CanCancel(models.ReservationCancelled), ErrNotCancellable)
	assert.ErrorIs(t, CanCancel(models.ReservationCompleted), ErrNotCancellable)
}

func TestNextStatuses_ReturnsCopy(t *testing.T) {
	next := NextStatuses(models.ReservationPending)
	next[0] = models.ReservationCompleted

	assert.Equal(t, models.ReservationConfirmed, NextStatuses(models.ReservationPending)[0])
	assert.Empty(t, NextStatuses(models.ReservationCompleted))
}
