package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/apartment-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApartmentFilter narrows the public apartment listing. Zero values are ignored.
type ApartmentFilter struct {
	Category    string
	Location    string
	Search      string
	MinPrice    *float64
	MaxPrice    *float64
	MinCapacity int
}

type ApartmentRepository struct {
	db *gorm.DB
}

func NewApartmentRepository(db *gorm.DB) *ApartmentRepository {
	return &ApartmentRepository{db: db}
}

func (r *ApartmentRepository) Create(ctx context.Context, apt *models.Apartment) error {
	return r.db.WithContext(ctx).Create(apt).Error
}

func (r *ApartmentRepository) GetByID(ctx context.Context, id uint) (*models.Apartment, error) {
	var apt models.Apartment
	err := r.db.WithContext(ctx).Scopes(Active("apartments")).Where("id = ?", id).First(&apt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apt, nil
}

// GetForUpdate loads an active apartment and locks its row until the transaction ends.
// Concurrent bookings of the same apartment serialize on this lock.
func (r *ApartmentRepository) GetForUpdate(ctx context.Context, id uint) (*models.Apartment, error) {
	var apt models.Apartment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(Active("apartments")).
		Where("id = ?", id).
		First(&apt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apt, nil
}

func (r *ApartmentRepository) withStats(ctx context.Context) *gorm.DB {
	stats := r.db.Model(&models.Rating{}).
		Select("apartment_id, AVG(value) AS average_rating, COUNT(*) AS review_count").
		Group("apartment_id")

	return r.db.WithContext(ctx).
		Table("apartments").
		Scopes(Active("apartments")).
		Joins("LEFT JOIN (?) AS rs ON rs.apartment_id = apartments.id", stats)
}

const statsColumns = "apartments.*, COALESCE(rs.average_rating, 0) AS average_rating, COALESCE(rs.review_count, 0) AS review_count"

// GetWithStats loads one active apartment with its rating aggregate.
func (r *ApartmentRepository) GetWithStats(ctx context.Context, id uint) (*models.ApartmentWithStats, error) {
	var rows []models.ApartmentWithStats
	err := r.withStats(ctx).
		Select(statsColumns).
		Where("apartments.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// List returns active apartments matching the filter, newest first, with rating stats.
func (r *ApartmentRepository) List(ctx context.Context, f ApartmentFilter, page Page) ([]models.ApartmentWithStats, int64, error) {
	filtered := func() *gorm.DB {
		q := r.withStats(ctx)
		if f.Category != "" {
			q = q.Where("apartments.category = ?", f.Category)
		}
		if f.Location != "" {
			q = q.Where(`LOWER(apartments.location) LIKE ? ESCAPE '\'`, likePattern(f.Location))
		}
		if f.Search != "" {
			p := likePattern(f.Search)
			q = q.Where(
				`(LOWER(apartments.title) LIKE ? ESCAPE '\' OR LOWER(apartments.description) LIKE ? ESCAPE '\' OR LOWER(apartments.location) LIKE ? ESCAPE '\')`,
				p, p, p,
			)
		}
		if f.MinPrice != nil {
			q = q.Where("apartments.price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("apartments.price <= ?", *f.MaxPrice)
		}
		if f.MinCapacity > 0 {
			q = q.Where("apartments.capacity >= ?", f.MinCapacity)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ApartmentWithStats
	err := filtered().
		Select(statsColumns).
		Order("apartments.created_at DESC, apartments.id DESC").
		Scopes(Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update applies a partial update to an active apartment.
func (r *ApartmentRepository) Update(ctx context.Context, id uint, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Apartment{}).
		Scopes(Active("apartments")).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *ApartmentRepository) SoftDelete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Apartment{}).
		Scopes(Active("apartments")).
		Where("id = ?", id).
		Update("is_deleted", true)
	return res.RowsAffected > 0, res.Error
}

// Categories lists distinct categories of active apartments.
func (r *ApartmentRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

// Locations lists distinct locations of active apartments.
func (r *ApartmentRepository) Locations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

func (r *ApartmentRepository) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.Apartment{}).
		Scopes(Active("apartments")).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct().
		Order(column).
		Pluck(column, &values).Error
	return values, err
}
