package booking

import (
	"errors"

	"github.com/Baaaki/apartment-booking/internal/models"
)

var (
	ErrUnknownStatus     = errors.New("booking: unknown reservation status")
	ErrTerminalState     = errors.New("booking: reservation is already cancelled or completed")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrNotCancellable    = errors.New("booking: only pending or confirmed reservations can be cancelled")
)

var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed: {models.ReservationCompleted, models.ReservationCancelled},
}

// CheckTransition validates moving a reservation from one status to another.
func CheckTransition(from, to models.ReservationStatus) error {
	if !to.Valid() {
		return ErrUnknownStatus
	}
	if from.IsTerminal() {
		return ErrTerminalState
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// CanCancel reports whether a reservation in the given status may be cancelled.
func CanCancel(status models.ReservationStatus) error {
	if status.IsTerminal() {
		return ErrNotCancellable
	}
	return CheckTransition(status, models.ReservationCancelled)
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from models.ReservationStatus) []models.ReservationStatus {
	next := transitions[from]
	out := make([]models.ReservationStatus, len(next))
	copy(out, next)
	return out
}
