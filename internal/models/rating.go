package models

import "time"

// Rating is either tied to a completed reservation (ReservationID set) or a direct
// rating of an apartment (ReservationID nil). Each path has its own uniqueness rule.
type Rating struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	ApartmentID   uint      `gorm:"not null;index" json:"apartment_id"`
	ReservationID *uint     `gorm:"uniqueIndex" json:"reservation_id,omitempty"`
	CommentID     *uint     `json:"comment_id,omitempty"`
	Value         int       `gorm:"not null" json:"value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Comment   *Comment   `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Apartment *Apartment `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
}

// IsDirect reports whether the rating was created without a reservation.
func (r *Rating) IsDirect() bool {
	return r.ReservationID == nil
}

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ApartmentID uint      `gorm:"not null;index" json:"apartment_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RatingStats is the aggregate shown on an apartment page.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
	FiveStar      int64   `json:"five_star"`
	FourStar      int64   `json:"four_star"`
	ThreeStar     int64   `json:"three_star"`
	TwoStar       int64   `json:"two_star"`
	OneStar       int64   `json:"one_star"`
}
