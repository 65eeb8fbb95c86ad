package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/utils"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, environment string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// TokenTTL is how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtExpiration
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing user registration",
		zap.String("email", email),
	)

	// 1. Validate input
	if err := validateRegisterInput(name, email, password); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 2. Check if email already exists
	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to register user")
	}
	if existingUser != nil {
		logger.Log.Warn("Email already exists",
			zap.String("email", email),
		)
		return nil, "", ErrEmailAlreadyExists
	}

	// 3. Hash password (Argon2)
	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password",
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to register user")
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, "", ErrEmailAlreadyExists
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to register user")
	}

	// 5. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to issue token")
	}

	logger.Log.Info("User registered successfully",
		zap.Uint("user_id", user.ID),
		zap.String("email", email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing user login",
		zap.String("email", email),
	)

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to log in")
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", ErrInvalidCredentials
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.Uint("user_id", user.ID),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 3. Reject blocked accounts
	if user.IsDeleted {
		logger.Log.Warn("Login failed: account blocked",
			zap.Uint("user_id", user.ID),
		)
		return nil, "", ErrAccountBlocked
	}

	// 4. Upgrade legacy hashes
	if utils.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	// 5. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", apperr.Internal(err, "failed to issue token")
	}

	logger.Log.Info("User logged in successfully",
		zap.Uint("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := utils.HashPassword(password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		logger.Log.Warn("Failed to upgrade password hash",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return
	}
	user.PasswordHash = hash
	logger.Log.Info("Password hash upgraded to argon2id", zap.Uint("user_id", user.ID))
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load profile")
	}
	if user == nil || user.IsDeleted {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < MinPasswordLength {
		return apperr.Validation("invalid password",
			apperr.FieldError{Field: "newPassword", Message: "new password must be at least 6 characters"},
		)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := utils.VerifyPassword(current, user.PasswordHash)
	if err != nil || !valid {
		logger.Log.Warn("Password change rejected: wrong current password",
			zap.Uint("user_id", userID),
		)
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Internal(err, "failed to change password")
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		logger.Log.Error("Failed to store new password",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return apperr.Internal(err, "failed to change password")
	}

	logger.Log.Info("Password changed", zap.Uint("user_id", userID))
	return nil
}

func validateRegisterInput(name, email, password string) error {
	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 100 {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "name must be at most 100 characters"})
	}
	if !emailRegex.MatchString(email) || len(email) > 100 {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "valid email is required"})
	}
	if len(password) < MinPasswordLength {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	} else if len(password) > 128 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "password too long"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid registration", fields...)
	}
	return nil
}
