package service

import (
	"errors"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
)

var (
	ErrEmailAlreadyExists = apperr.Conflict("email already exists")
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrAccountBlocked     = apperr.Forbidden("account is blocked")

	ErrApartmentNotFound   = apperr.NotFound("apartment not found")
	ErrReservationNotFound = apperr.NotFound("reservation not found")
	ErrPaymentNotFound     = apperr.NotFound("payment not found")
	ErrRatingNotFound      = apperr.NotFound("rating not found")
	ErrUserNotFound        = apperr.NotFound("user not found")
	ErrFavoriteNotFound    = apperr.NotFound("favorite not found")

	ErrReservationConflict   = apperr.Conflict("apartment is not available for the selected dates")
	ErrReservationTerminal   = apperr.Conflict("reservation is already cancelled or completed")
	ErrInvalidTransition     = apperr.Conflict("invalid reservation status transition")
	ErrDuplicatePayment      = apperr.Conflict("payment already exists for this reservation")
	ErrReservationNotPayable = apperr.Conflict("only pending or confirmed reservations can be paid")
	ErrPaymentNotRefundable  = apperr.Conflict("only completed payments can be refunded")
	ErrRatingNotAllowed      = apperr.Conflict("can only rate completed reservations")
	ErrDuplicateRating       = apperr.Conflict("reservation has already been rated")
	ErrAlreadyRated          = apperr.Conflict("you have already rated this apartment")
	ErrAlreadyFavorite       = apperr.Conflict("apartment is already in favorites")

	ErrNotOwner      = apperr.Forbidden("you can only access your own resources")
	ErrAdminRequired = apperr.Forbidden("admin access required")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanAccess reports whether the actor owns the resource or is an admin.
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

// PageResult is a page of items plus the total across all pages.
type PageResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// internalOr passes AppErrors through and wraps anything else as a persistence failure.
func internalOr(err error, message string) error {
	if isAppError(err) {
		return err
	}
	return apperr.Internal(err, message)
}

func isAppError(err error) bool {
	var ae *apperr.AppError
	return errors.As(err, &ae)
}
