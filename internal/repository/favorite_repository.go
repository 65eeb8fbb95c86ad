package repository

import (
	"context"

	"github.com/Baaaki/apartment-booking/internal/models"
	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Create(ctx context.Context, f *models.Favorite) error {
	return r.db.WithContext(ctx).Omit("Apartment").Create(f).Error
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, apartmentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND apartment_id = ?", userID, apartmentID).
		Delete(&models.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, apartmentID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND apartment_id = ?", userID, apartmentID).
		Count(&n).Error
	return n > 0, err
}

// ListByUser returns the user's favorites on apartments that are still listed.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]models.Favorite, int64, error) {
	filtered := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Favorite{}).
			Joins("JOIN apartments ON apartments.id = favorites.apartment_id").
			Scopes(Active("apartments")).
			Where("favorites.user_id = ?", userID)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Favorite
	err := filtered().
		Preload("Apartment").
		Order("favorites.created_at DESC, favorites.id DESC").
		Scopes(Paginate(page)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
