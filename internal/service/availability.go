package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/apartment-booking/internal/booking"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

// AvailabilityChecker answers whether an apartment can be booked for a window.
type AvailabilityChecker struct {
	store *repository.Store
	now   func() time.Time
}

func NewAvailabilityChecker(store *repository.Store) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, now: time.Now}
}

// WithClock replaces the time source used to reject past windows.
func (a *AvailabilityChecker) WithClock(now func() time.Time) *AvailabilityChecker {
	a.now = now
	return a
}

// ValidateRange builds a booking window and rejects windows that are empty,
// inverted or not strictly in the future.
func (a *AvailabilityChecker) ValidateRange(start, end time.Time) (booking.Range, error) {
	rng := booking.Range{Start: start, End: end}
	if !start.IsZero() && !end.IsZero() {
		var err error
		if rng, err = booking.NewRange(start, end); err != nil {
			return booking.Range{}, rangeError(err)
		}
	}
	if err := rng.ValidateAt(a.now()); err != nil {
		return booking.Range{}, rangeError(err)
	}
	return rng, nil
}

func rangeError(err error) error {
	switch {
	case errors.Is(err, booking.ErrMissingBounds):
		return apperr.Validation("invalid reservation dates",
			apperr.FieldError{Field: "start_time", Message: "start_time is required"},
			apperr.FieldError{Field: "end_time", Message: "end_time is required"},
		)
	case errors.Is(err, booking.ErrInvalidRange):
		return apperr.Validation("invalid reservation dates",
			apperr.FieldError{Field: "end_time", Message: "end_time must be after start_time"},
		)
	case errors.Is(err, booking.ErrStartInPast):
		return apperr.Validation("invalid reservation dates",
			apperr.FieldError{Field: "start_time", Message: "start_time must be in the future"},
		)
	}
	return apperr.Validation(err.Error())
}

// IsAvailable reports whether no active reservation overlaps [start, end) on the apartment.
// It has no side effects.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, apartmentID uint, start, end time.Time) (bool, error) {
	rng, err := a.ValidateRange(start, end)
	if err != nil {
		return false, err
	}

	apt, err := a.store.Apartments.GetByID(ctx, apartmentID)
	if err != nil {
		logger.Log.Error("Failed to load apartment",
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return false, apperr.Internal(err, "failed to check availability")
	}
	if apt == nil {
		return false, ErrApartmentNotFound
	}

	n, err := a.store.Reservations.CountConflicts(ctx, apartmentID, rng)
	if err != nil {
		logger.Log.Error("Failed to count conflicting reservations",
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return false, apperr.Internal(err, "failed to check availability")
	}

	logger.Log.Debug("Availability checked",
		zap.Uint("apartment_id", apartmentID),
		zap.Time("start_time", rng.Start),
		zap.Time("end_time", rng.End),
		zap.Int64("conflicts", n),
	)
	return n == 0, nil
}
