package models

import (
	"strings"
	"time"
)

type Apartment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:varchar(200);index" json:"location"`
	Category    string    `gorm:"type:varchar(100);index" json:"category"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Capacity    int       `gorm:"not null;default:1" json:"capacity"`
	Amenities   string    `gorm:"type:text" json:"amenities"`
	Images      string    `gorm:"type:text" json:"images"` // comma-separated URLs
	CreatedBy   *uint     `json:"created_by,omitempty"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageList splits the stored image column into URLs.
func (a *Apartment) ImageList() []string {
	if a.Images == "" {
		return nil
	}
	return strings.Split(a.Images, ",")
}

// ApartmentWithStats is an apartment row joined with its rating aggregate.
type ApartmentWithStats struct {
	Apartment
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}
