package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/apartment-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rating).Error
}

func (r *RatingRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *RatingRepository) GetByID(ctx context.Context, id uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).Preload("Comment").Where("id = ?", id).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *RatingRepository) ExistsForReservation(ctx context.Context, reservationID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).Where("reservation_id = ?", reservationID).Count(&n).Error
	return n > 0, err
}

// ExistsDirect reports whether the user already left a direct rating on the apartment.
func (r *RatingRepository) ExistsDirect(ctx context.Context, userID, apartmentID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("user_id = ? AND apartment_id = ? AND reservation_id IS NULL", userID, apartmentID).
		Count(&n).Error
	return n > 0, err
}

func (r *RatingRepository) ListByApartment(ctx context.Context, apartmentID uint, page Page) ([]models.Rating, int64, error) {
	return r.list(ctx, "apartment_id = ?", apartmentID, page, "User")
}

func (r *RatingRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]models.Rating, int64, error) {
	return r.list(ctx, "user_id = ?", userID, page, "Apartment")
}

func (r *RatingRepository) list(ctx context.Context, cond string, arg uint, page Page, preload string) ([]models.Rating, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Rating{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).Preload("Comment").Where(cond, arg)
	if preload == "User" {
		q = q.Preload("User", publicUser)
	} else {
		q = q.Preload(preload)
	}

	var rows []models.Rating
	err := q.Order("created_at DESC, id DESC").Scopes(Paginate(page)).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *RatingRepository) UpdateValue(ctx context.Context, id uint, value int) error {
	return r.db.WithContext(ctx).Model(&models.Rating{}).Where("id = ?", id).Update("value", value).Error
}

func (r *RatingRepository) LinkComment(ctx context.Context, ratingID, commentID uint) error {
	return r.db.WithContext(ctx).Model(&models.Rating{}).Where("id = ?", ratingID).Update("comment_id", commentID).Error
}

func (r *RatingRepository) UpdateCommentText(ctx context.Context, commentID uint, text string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).Update("text", text).Error
}

func (r *RatingRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Rating{}, id).Error
}

func (r *RatingRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}

// Stats aggregates all ratings of an apartment.
func (r *RatingRepository) Stats(ctx context.Context, apartmentID uint) (*models.RatingStats, error) {
	var stats models.RatingStats
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select(`COALESCE(AVG(value), 0) AS average_rating,
			COUNT(*) AS total_ratings,
			COUNT(CASE WHEN value = 5 THEN 1 END) AS five_star,
			COUNT(CASE WHEN value = 4 THEN 1 END) AS four_star,
			COUNT(CASE WHEN value = 3 THEN 1 END) AS three_star,
			COUNT(CASE WHEN value = 2 THEN 1 END) AS two_star,
			COUNT(CASE WHEN value = 1 THEN 1 END) AS one_star`).
		Where("apartment_id = ?", apartmentID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
