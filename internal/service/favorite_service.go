package service

import (
	"context"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

type FavoriteService struct {
	store *repository.Store
}

func NewFavoriteService(store *repository.Store) *FavoriteService {
	return &FavoriteService{store: store}
}

func (s *FavoriteService) Add(ctx context.Context, actor Actor, apartmentID uint) (*models.Favorite, error) {
	apt, err := s.store.Apartments.GetByID(ctx, apartmentID)
	if err != nil {
		logger.Log.Error("Failed to load apartment",
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to add favorite")
	}
	if apt == nil {
		return nil, ErrApartmentNotFound
	}

	fav := &models.Favorite{UserID: actor.UserID, ApartmentID: apartmentID}
	if err := s.store.Favorites.Create(ctx, fav); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrAlreadyFavorite
		}
		logger.Log.Error("Failed to add favorite",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to add favorite")
	}
	fav.Apartment = apt

	logger.Log.Info("Favorite added",
		zap.Uint("user_id", actor.UserID),
		zap.Uint("apartment_id", apartmentID),
	)
	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, actor Actor, apartmentID uint) error {
	removed, err := s.store.Favorites.Delete(ctx, actor.UserID, apartmentID)
	if err != nil {
		logger.Log.Error("Failed to remove favorite",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("apartment_id", apartmentID),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to remove favorite")
	}
	if !removed {
		return ErrFavoriteNotFound
	}
	return nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, actor Actor, apartmentID uint) (bool, error) {
	ok, err := s.store.Favorites.Exists(ctx, actor.UserID, apartmentID)
	if err != nil {
		return false, apperr.Internal(err, "failed to check favorite")
	}
	return ok, nil
}

func (s *FavoriteService) List(ctx context.Context, actor Actor, page repository.Page) (*PageResult[models.Favorite], error) {
	rows, total, err := s.store.Favorites.ListByUser(ctx, actor.UserID, page)
	if err != nil {
		logger.Log.Error("Failed to list favorites",
			zap.Uint("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to list favorites")
	}
	return pageResult(rows, total, page), nil
}
