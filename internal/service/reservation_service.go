package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/apartment-booking/internal/booking"
	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

type CreateReservationInput struct {
	ApartmentID uint
	StartTime   time.Time
	EndTime     time.Time
}

type ReservationService struct {
	store        *repository.Store
	availability *AvailabilityChecker
	events       *EventRecorder
}

func NewReservationService(store *repository.Store, availability *AvailabilityChecker, events *EventRecorder) *ReservationService {
	return &ReservationService{
		store:        store,
		availability: availability,
		events:       events,
	}
}

// Create books an apartment for the caller. The availability check and the insert
// run in one transaction holding the apartment row lock, so two overlapping
// requests cannot both succeed.
func (s *ReservationService) Create(ctx context.Context, actor Actor, in CreateReservationInput) (*models.Reservation, error) {
	start := time.Now()

	logger.Log.Debug("Processing reservation request",
		zap.Uint("user_id", actor.UserID),
		zap.Uint("apartment_id", in.ApartmentID),
	)

	// 1. Validate window
	rng, err := s.availability.ValidateRange(in.StartTime, in.EndTime)
	if err != nil {
		logger.Log.Warn("Reservation window rejected",
			zap.Uint("user_id", actor.UserID),
			zap.Time("start_time", in.StartTime),
			zap.Time("end_time", in.EndTime),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check and insert atomically
	var created *models.Reservation
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		apt, err := tx.Apartments.GetForUpdate(ctx, in.ApartmentID)
		if err != nil {
			return err
		}
		if apt == nil {
			return ErrApartmentNotFound
		}

		conflicts, err := tx.Reservations.CountConflicts(ctx, apt.ID, rng)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrReservationConflict
		}

		res := &models.Reservation{
			UserID:      actor.UserID,
			ApartmentID: apt.ID,
			StartTime:   rng.Start,
			EndTime:     rng.End,
			Status:      models.ReservationPending,
		}
		if err := tx.Reservations.Create(ctx, res); err != nil {
			return err
		}
		res.Apartment = apt
		created = res
		return nil
	})
	if err != nil {
		if repository.IsOverlapViolation(err) {
			err = ErrReservationConflict
		}
		if isAppError(err) {
			logger.Log.Warn("Reservation rejected",
				zap.Uint("user_id", actor.UserID),
				zap.Uint("apartment_id", in.ApartmentID),
				zap.Error(err),
			)
		} else {
			logger.Log.Error("Failed to create reservation",
				zap.Uint("user_id", actor.UserID),
				zap.Uint("apartment_id", in.ApartmentID),
				zap.Error(err),
			)
		}
		return nil, internalOr(err, "failed to create reservation")
	}

	// 3. Journal and publish
	s.events.Record(ctx, reservationEvent(broker.EventReservationCreated, created, actor.UserID))

	logger.Log.Info("Reservation created",
		zap.Uint("reservation_id", created.ID),
		zap.Uint("user_id", actor.UserID),
		zap.Uint("apartment_id", created.ApartmentID),
		zap.Int("nights", rng.Nights()),
		zap.Duration("total_duration", time.Since(start)),
	)

	return created, nil
}

// Get returns a reservation visible to its owner or an admin.
func (s *ReservationService) Get(ctx context.Context, actor Actor, id uint) (*models.Reservation, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(res.UserID) {
		logger.Log.Warn("Reservation access denied",
			zap.Uint("reservation_id", id),
			zap.Uint("user_id", actor.UserID),
		)
		return nil, ErrNotOwner
	}
	return res, nil
}

// ListMine lists the caller's own reservations.
func (s *ReservationService) ListMine(ctx context.Context, actor Actor, status models.ReservationStatus, page repository.Page) (*PageResult[models.Reservation], error) {
	userID := actor.UserID
	return s.list(ctx, repository.ReservationFilter{UserID: &userID, Status: status}, page)
}

// ListAll lists every user's reservations. Admin only.
func (s *ReservationService) ListAll(ctx context.Context, actor Actor, status models.ReservationStatus, page repository.Page) (*PageResult[models.Reservation], error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return s.list(ctx, repository.ReservationFilter{Status: status}, page)
}

func (s *ReservationService) list(ctx context.Context, f repository.ReservationFilter, page repository.Page) (*PageResult[models.Reservation], error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status filter",
			apperr.FieldError{Field: "status", Message: "must be one of pending, confirmed, cancelled, completed"},
		)
	}

	rows, total, err := s.store.Reservations.List(ctx, f, page)
	if err != nil {
		logger.Log.Error("Failed to list reservations", zap.Error(err))
		return nil, apperr.Internal(err, "failed to list reservations")
	}
	return pageResult(rows, total, page), nil
}

// Cancel cancels a pending or confirmed reservation. Owners may cancel their own;
// admins may cancel any.
func (s *ReservationService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Reservation, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(res.UserID) {
		logger.Log.Warn("Cancel denied: not owner",
			zap.Uint("reservation_id", id),
			zap.Uint("user_id", actor.UserID),
		)
		return nil, ErrNotOwner
	}
	if err := booking.CanCancel(res.Status); err != nil {
		return nil, ErrReservationTerminal
	}

	if err := s.transition(ctx, res, models.ReservationCancelled); err != nil {
		return nil, err
	}

	s.events.Record(ctx, reservationEvent(broker.EventReservationStatusChanged, res, actor.UserID))

	logger.Log.Info("Reservation cancelled",
		zap.Uint("reservation_id", id),
		zap.Uint("actor_id", actor.UserID),
		zap.Bool("by_admin", actor.IsAdmin() && actor.UserID != res.UserID),
	)
	return res, nil
}

// UpdateStatus applies an admin-driven lifecycle transition, e.g. manual approval
// (pending to confirmed) or completion (confirmed to completed).
func (s *ReservationService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.ReservationStatus) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid status",
			apperr.FieldError{Field: "status", Message: "must be one of pending, confirmed, cancelled, completed"},
		)
	}

	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := booking.CheckTransition(res.Status, status); err != nil {
		logger.Log.Warn("Status transition rejected",
			zap.Uint("reservation_id", id),
			zap.String("from", string(res.Status)),
			zap.String("to", string(status)),
		)
		if errors.Is(err, booking.ErrTerminalState) {
			return nil, ErrReservationTerminal
		}
		return nil, ErrInvalidTransition
	}

	if err := s.transition(ctx, res, status); err != nil {
		return nil, err
	}

	s.events.Record(ctx, reservationEvent(broker.EventReservationStatusChanged, res, actor.UserID))

	logger.Log.Info("Reservation status updated",
		zap.Uint("reservation_id", id),
		zap.String("status", string(status)),
		zap.Uint("admin_id", actor.UserID),
	)
	return res, nil
}

// Delete soft-deletes a reservation. Admin only.
func (s *ReservationService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	res, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.Reservations.SoftDelete(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete reservation",
			zap.Uint("reservation_id", id),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to delete reservation")
	}
	if !deleted {
		return ErrReservationNotFound
	}

	s.events.Record(ctx, reservationEvent(broker.EventReservationDeleted, res, actor.UserID))

	logger.Log.Info("Reservation deleted",
		zap.Uint("reservation_id", id),
		zap.Uint("admin_id", actor.UserID),
	)
	return nil
}

// transition moves res to the target status only if nobody changed it since it was read.
func (s *ReservationService) transition(ctx context.Context, res *models.Reservation, to models.ReservationStatus) error {
	changed, err := s.store.Reservations.UpdateStatus(ctx, res.ID, res.Status, to)
	if err != nil {
		logger.Log.Error("Failed to update reservation status",
			zap.Uint("reservation_id", res.ID),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to update reservation")
	}
	if !changed {
		return apperr.Conflict("reservation was modified concurrently, please retry")
	}
	res.Status = to
	return nil
}

func (s *ReservationService) load(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to load reservation",
			zap.Uint("reservation_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to load reservation")
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

func reservationEvent(t broker.EventType, res *models.Reservation, actorID uint) broker.Event {
	return broker.Event{
		Type:          t,
		ReservationID: res.ID,
		ApartmentID:   res.ApartmentID,
		UserID:        res.UserID,
		ActorID:       actorID,
		Status:        string(res.Status),
	}
}
