package main

import (
	"context"
	"os"
	"strings"

	"github.com/Baaaki/apartment-booking/internal/config"
	"github.com/Baaaki/apartment-booking/internal/database"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/utils"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

var sampleApartments = []models.Apartment{
	{
		Title:       "Luxury Downtown Apartment",
		Description: "Spacious apartment in the heart of downtown with city views.",
		Location:    "Downtown",
		Category:    "luxury",
		Price:       150,
		Capacity:    4,
		Amenities:   "WiFi,Kitchen,Air Conditioning,Parking",
	},
	{
		Title:       "Cozy Weekend Getaway",
		Description: "Quiet retreat for a short stay outside the city.",
		Location:    "Countryside",
		Category:    "cottage",
		Price:       80,
		Capacity:    2,
		Amenities:   "WiFi,Fireplace,Garden",
	},
	{
		Title:       "Modern Studio",
		Description: "Compact studio close to public transport.",
		Location:    "City Center",
		Category:    "studio",
		Price:       120,
		Capacity:    2,
		Amenities:   "WiFi,Kitchenette,Washer",
	},
}

func main() {
	if err := logger.Init(true); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	adminName := os.Getenv("ADMIN_NAME")
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminName == "" || adminEmail == "" || adminPassword == "" {
		logger.Log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	store := repository.NewStore(db)

	// 1. Admin account
	existing, err := store.Users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		logger.Log.Fatal("Failed to look up admin", zap.Error(err))
	}
	if existing != nil {
		logger.Log.Info("Admin user already exists", zap.String("email", existing.Email))
	} else {
		passwordHash, err := utils.HashPassword(adminPassword)
		if err != nil {
			logger.Log.Fatal("Failed to hash password", zap.Error(err))
		}
		admin := &models.User{
			Name:         adminName,
			Email:        adminEmail,
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
		}
		if err := store.Users.CreateUser(ctx, admin); err != nil {
			logger.Log.Fatal("Failed to create admin", zap.Error(err))
		}
		logger.Log.Info("Admin user created", zap.Uint("user_id", admin.ID), zap.String("email", admin.Email))
	}

	// 2. Sample apartments, only into an empty catalogue
	var count int64
	if err := db.WithContext(ctx).Model(&models.Apartment{}).Count(&count).Error; err != nil {
		logger.Log.Fatal("Failed to count apartments", zap.Error(err))
	}
	if count > 0 {
		logger.Log.Info("Apartments already seeded", zap.Int64("count", count))
		return
	}

	for i := range sampleApartments {
		apt := sampleApartments[i]
		if err := store.Apartments.Create(ctx, &apt); err != nil {
			logger.Log.Fatal("Failed to create apartment", zap.String("title", apt.Title), zap.Error(err))
		}
		logger.Log.Info("Apartment created", zap.Uint("apartment_id", apt.ID), zap.String("title", apt.Title))
	}
}
