package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

const (
	MinRatingValue   = 1
	MaxRatingValue   = 5
	MaxCommentLength = 1000
)

type ReservationRatingInput struct {
	ReservationID uint
	// ApartmentID is optional; when set it must match the reservation.
	ApartmentID uint
	Value       int
	Comment     string
}

type DirectRatingInput struct {
	ApartmentID uint
	Value       int
	Comment     string
}

type UpdateRatingInput struct {
	Value   int
	Comment *string
}

type RatingService struct {
	store *repository.Store
}

func NewRatingService(store *repository.Store) *RatingService {
	return &RatingService{store: store}
}

// SubmitForReservation rates a completed reservation of the caller. Each
// reservation can be rated once.
func (s *RatingService) SubmitForReservation(ctx context.Context, actor Actor, in ReservationRatingInput) (*models.Rating, error) {
	comment := strings.TrimSpace(in.Comment)
	if err := validateRating(in.Value, comment); err != nil {
		return nil, err
	}

	var rating *models.Rating
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		res, err := tx.Reservations.GetByID(ctx, in.ReservationID)
		if err != nil {
			return err
		}
		if res == nil || (in.ApartmentID != 0 && res.ApartmentID != in.ApartmentID) {
			return ErrReservationNotFound
		}
		if res.UserID != actor.UserID {
			return ErrNotOwner
		}
		if res.Status != models.ReservationCompleted {
			return ErrRatingNotAllowed
		}

		exists, err := tx.Ratings.ExistsForReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRating
		}

		reservationID := res.ID
		rating = &models.Rating{
			UserID:        actor.UserID,
			ApartmentID:   res.ApartmentID,
			ReservationID: &reservationID,
			Value:         in.Value,
		}
		return s.create(ctx, tx, rating, comment, ErrDuplicateRating)
	})
	if err != nil {
		logger.Log.Warn("Reservation rating rejected",
			zap.Uint("reservation_id", in.ReservationID),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, internalOr(err, "failed to create rating")
	}

	logger.Log.Info("Rating created",
		zap.Uint("rating_id", rating.ID),
		zap.Uint("reservation_id", in.ReservationID),
		zap.Int("value", rating.Value),
	)
	return rating, nil
}

// SubmitDirect rates an apartment without a reservation. A user gets one direct
// rating per apartment; reservation-scoped ratings do not count against it.
func (s *RatingService) SubmitDirect(ctx context.Context, actor Actor, in DirectRatingInput) (*models.Rating, error) {
	comment := strings.TrimSpace(in.Comment)
	if err := validateRating(in.Value, comment); err != nil {
		return nil, err
	}

	var rating *models.Rating
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		apt, err := tx.Apartments.GetByID(ctx, in.ApartmentID)
		if err != nil {
			return err
		}
		if apt == nil {
			return ErrApartmentNotFound
		}

		exists, err := tx.Ratings.ExistsDirect(ctx, actor.UserID, apt.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRated
		}

		rating = &models.Rating{
			UserID:      actor.UserID,
			ApartmentID: apt.ID,
			Value:       in.Value,
		}
		return s.create(ctx, tx, rating, comment, ErrAlreadyRated)
	})
	if err != nil {
		logger.Log.Warn("Direct rating rejected",
			zap.Uint("apartment_id", in.ApartmentID),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, internalOr(err, "failed to create rating")
	}

	logger.Log.Info("Direct rating created",
		zap.Uint("rating_id", rating.ID),
		zap.Uint("apartment_id", in.ApartmentID),
		zap.Int("value", rating.Value),
	)
	return rating, nil
}

// create inserts the optional comment first so the rating can reference it.
func (s *RatingService) create(ctx context.Context, tx *repository.Store, rating *models.Rating, text string, duplicate error) error {
	if text != "" {
		c := &models.Comment{UserID: rating.UserID, ApartmentID: rating.ApartmentID, Text: text}
		if err := tx.Ratings.CreateComment(ctx, c); err != nil {
			return err
		}
		rating.CommentID = &c.ID
		rating.Comment = c
	}
	if err := tx.Ratings.Create(ctx, rating); err != nil {
		if repository.IsDuplicate(err) {
			return duplicate
		}
		return err
	}
	return nil
}

// Update changes the value and creates or updates the linked comment. Owner only.
func (s *RatingService) Update(ctx context.Context, actor Actor, id uint, in UpdateRatingInput) (*models.Rating, error) {
	var comment string
	if in.Comment != nil {
		comment = strings.TrimSpace(*in.Comment)
	}
	if err := validateRating(in.Value, comment); err != nil {
		return nil, err
	}

	var rating *models.Rating
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		rating, err = tx.Ratings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rating == nil {
			return ErrRatingNotFound
		}
		if rating.UserID != actor.UserID {
			return ErrNotOwner
		}

		if err := tx.Ratings.UpdateValue(ctx, id, in.Value); err != nil {
			return err
		}
		rating.Value = in.Value

		if comment == "" {
			return nil
		}
		if rating.CommentID != nil {
			if err := tx.Ratings.UpdateCommentText(ctx, *rating.CommentID, comment); err != nil {
				return err
			}
			if rating.Comment != nil {
				rating.Comment.Text = comment
			}
			return nil
		}

		c := &models.Comment{UserID: rating.UserID, ApartmentID: rating.ApartmentID, Text: comment}
		if err := tx.Ratings.CreateComment(ctx, c); err != nil {
			return err
		}
		if err := tx.Ratings.LinkComment(ctx, id, c.ID); err != nil {
			return err
		}
		rating.CommentID = &c.ID
		rating.Comment = c
		return nil
	})
	if err != nil {
		logger.Log.Warn("Rating update rejected",
			zap.Uint("rating_id", id),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, internalOr(err, "failed to update rating")
	}

	logger.Log.Info("Rating updated",
		zap.Uint("rating_id", id),
		zap.Int("value", rating.Value),
	)
	return rating, nil
}

// Delete removes a rating and its linked comment. Owners may delete their own;
// admins may delete any.
func (s *RatingService) Delete(ctx context.Context, actor Actor, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		rating, err := tx.Ratings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rating == nil {
			return ErrRatingNotFound
		}
		if !actor.CanAccess(rating.UserID) {
			return ErrNotOwner
		}

		if err := tx.Ratings.Delete(ctx, id); err != nil {
			return err
		}
		if rating.CommentID != nil {
			return tx.Ratings.DeleteComment(ctx, *rating.CommentID)
		}
		return nil
	})
	if err != nil {
		logger.Log.Warn("Rating delete rejected",
			zap.Uint("rating_id", id),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return internalOr(err, "failed to delete rating")
	}

	logger.Log.Info("Rating deleted",
		zap.Uint("rating_id", id),
		zap.Uint("actor_id", actor.UserID),
	)
	return nil
}

func (s *RatingService) ListForApartment(ctx context.Context, apartmentID uint, page repository.Page) (*PageResult[models.Rating], error) {
	rows, total, err := s.store.Ratings.ListByApartment(ctx, apartmentID, page)
	if err != nil {
		logger.Log.Error("Failed to list ratings",
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to list ratings")
	}
	return pageResult(rows, total, page), nil
}

func (s *RatingService) ListMine(ctx context.Context, actor Actor, page repository.Page) (*PageResult[models.Rating], error) {
	rows, total, err := s.store.Ratings.ListByUser(ctx, actor.UserID, page)
	if err != nil {
		logger.Log.Error("Failed to list user ratings",
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to list ratings")
	}
	return pageResult(rows, total, page), nil
}

// Stats returns the average and the 1..5 distribution for an apartment.
func (s *RatingService) Stats(ctx context.Context, apartmentID uint) (*models.RatingStats, error) {
	stats, err := s.store.Ratings.Stats(ctx, apartmentID)
	if err != nil {
		logger.Log.Error("Failed to aggregate ratings",
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to load rating stats")
	}
	return stats, nil
}

func validateRating(value int, comment string) error {
	var fields []apperr.FieldError
	if value < MinRatingValue || value > MaxRatingValue {
		fields = append(fields, apperr.FieldError{Field: "value", Message: "rating must be between 1 and 5"})
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		fields = append(fields, apperr.FieldError{Field: "comment", Message: "comment must be at most 1000 characters"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid rating", fields...)
	}
	return nil
}
