package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/apartment-booking/internal/booking"
	"github.com/Baaaki/apartment-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservationFilter narrows reservation listings. A nil UserID lists every user's rows.
type ReservationFilter struct {
	UserID      *uint
	ApartmentID *uint
	Status      models.ReservationStatus
}

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(res).Error
}

// GetByID returns an active (not soft-deleted) reservation with its apartment.
func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Scopes(Active("reservations")).
		Preload("Apartment").
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// overlapping selects active reservations on the apartment whose half-open window
// intersects rng: start_time < rng.End AND end_time > rng.Start.
func (r *ReservationRepository) overlapping(ctx context.Context, apartmentID uint, rng booking.Range) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Scopes(Active("reservations")).
		Where("apartment_id = ?", apartmentID).
		Where("status IN ?", models.ActiveReservationStatuses).
		Where("start_time < ? AND end_time > ?", rng.End, rng.Start)
}

// CountConflicts counts active reservations overlapping rng on the apartment.
func (r *ReservationRepository) CountConflicts(ctx context.Context, apartmentID uint, rng booking.Range) (int64, error) {
	var n int64
	err := r.overlapping(ctx, apartmentID, rng).Count(&n).Error
	return n, err
}

// Conflicts lists the overlapping active reservations ordered by start.
func (r *ReservationRepository) Conflicts(ctx context.Context, apartmentID uint, rng booking.Range) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.overlapping(ctx, apartmentID, rng).Order("start_time").Find(&rows).Error
	return rows, err
}

func (r *ReservationRepository) List(ctx context.Context, f ReservationFilter, page Page) ([]models.Reservation, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Reservation{}).Scopes(Active("reservations"))
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.ApartmentID != nil {
			q = q.Where("apartment_id = ?", *f.ApartmentID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := filtered().Preload("Apartment")
	if f.UserID == nil {
		q = q.Preload("User")
	}

	var rows []models.Reservation
	err := q.Order("created_at DESC, id DESC").Scopes(Paginate(page)).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus moves a reservation from one status to another only if it is still
// in the expected status. It reports whether a row changed.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uint, from, to models.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Scopes(Active("reservations")).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *ReservationRepository) SoftDelete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Scopes(Active("reservations")).
		Where("id = ?", id).
		Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}
