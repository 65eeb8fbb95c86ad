package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/utils"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of fixture users.
const DefaultPassword = "Test123456"

// CreateTestUser inserts a user with a hashed DefaultPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()

	hashedPassword, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// DefaultTestUser inserts a regular user
func DefaultTestUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Test Guest", "guest@example.com", models.RoleUser)
}

// DefaultAdminUser inserts an admin user
func DefaultAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
}

// CreateTestApartment inserts an active apartment.
func CreateTestApartment(t *testing.T, db *gorm.DB, title string, price float64) *models.Apartment {
	t.Helper()

	apt := &models.Apartment{
		Title:       title,
		Description: title + " near the old town",
		Location:    "Istanbul",
		Category:    "apartment",
		Price:       price,
		Capacity:    2,
	}
	if err := db.Create(apt).Error; err != nil {
		t.Fatalf("Failed to create apartment: %v", err)
	}
	return apt
}

// CreateTestReservation inserts a reservation directly, bypassing availability checks.
func CreateTestReservation(t *testing.T, db *gorm.DB, userID, apartmentID uint, start, end time.Time, status models.ReservationStatus) *models.Reservation {
	t.Helper()

	res := &models.Reservation{
		UserID:      userID,
		ApartmentID: apartmentID,
		StartTime:   start.UTC().Truncate(time.Second),
		EndTime:     end.UTC().Truncate(time.Second),
		Status:      status,
	}
	if err := db.Omit("User", "Apartment").Create(res).Error; err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}
	return res
}
