package service

import (
	"context"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

// UserService holds the admin user-management operations.
type UserService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

// List returns users including blocked ones.
func (s *UserService) List(ctx context.Context, actor Actor, role models.Role, page repository.Page) (*PageResult[models.User], error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("invalid role filter",
			apperr.FieldError{Field: "role", Message: "must be user or admin"},
		)
	}

	users, total, err := s.store.Users.ListUsers(ctx, role, page)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, apperr.Internal(err, "failed to list users")
	}
	return pageResult(users, total, page), nil
}

func (s *UserService) Get(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	user, err := s.store.Users.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, actor Actor, id uint, role models.Role) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role",
			apperr.FieldError{Field: "role", Message: "must be user or admin"},
		)
	}

	updated, err := s.store.Users.UpdateRole(ctx, id, role)
	if err != nil {
		logger.Log.Error("Failed to update user role",
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return nil, apperr.Internal(err, "failed to update role")
	}
	if !updated {
		return nil, ErrUserNotFound
	}

	logger.Log.Info("User role updated",
		zap.Uint("user_id", id),
		zap.String("role", string(role)),
		zap.Uint("admin_id", actor.UserID),
	)
	return s.Get(ctx, actor, id)
}

// Block soft-deletes a user; blocked users cannot log in or use existing tokens.
func (s *UserService) Block(ctx context.Context, actor Actor, id uint) error {
	if actor.IsAdmin() && actor.UserID == id {
		return apperr.Conflict("you cannot block your own account")
	}
	return s.setDeleted(ctx, actor, id, true)
}

// Reactivate lifts a block.
func (s *UserService) Reactivate(ctx context.Context, actor Actor, id uint) error {
	return s.setDeleted(ctx, actor, id, false)
}

func (s *UserService) setDeleted(ctx context.Context, actor Actor, id uint, deleted bool) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	changed, err := s.store.Users.SetDeleted(ctx, id, deleted)
	if err != nil {
		logger.Log.Error("Failed to change user state",
			zap.Uint("user_id", id),
			zap.Bool("blocked", deleted),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to update user")
	}
	if !changed {
		return ErrUserNotFound
	}

	logger.Log.Info("User state changed",
		zap.Uint("user_id", id),
		zap.Bool("blocked", deleted),
		zap.Uint("admin_id", actor.UserID),
	)
	return nil
}
