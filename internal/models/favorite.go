package models

import "time"

type Favorite struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_favorites_user_apartment" json:"user_id"`
	ApartmentID uint      `gorm:"not null;uniqueIndex:idx_favorites_user_apartment" json:"apartment_id"`
	CreatedAt   time.Time `json:"created_at"`

	Apartment *Apartment `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
}

// All returns every model managed by the schema migration, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Apartment{},
		&Reservation{},
		&Payment{},
		&Comment{},
		&Rating{},
		&Favorite{},
	}
}
