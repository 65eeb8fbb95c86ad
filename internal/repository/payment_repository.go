package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/apartment-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentFilter struct {
	UserID *uint
	Status models.PaymentStatus
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Preload("Reservation").Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetByReservationID returns the payment of a reservation in any status.
func (r *PaymentRepository) GetByReservationID(ctx context.Context, reservationID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentFilter, page Page) ([]models.Payment, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Payment{})
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
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

	var rows []models.Payment
	err := filtered().
		Preload("Reservation").
		Preload("Reservation.Apartment").
		Order("created_at DESC, id DESC").
		Scopes(Paginate(page)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SetOutcome records the gateway result on a pending payment.
func (r *PaymentRepository) SetOutcome(ctx context.Context, id uint, status models.PaymentStatus, ref string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]any{"status": status, "transaction_ref": ref}).Error
}

// UpdateStatus changes the status only if the payment is still in from.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uint, from, to models.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}
