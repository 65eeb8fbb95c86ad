package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment rows are never deleted; failed attempts stay for audit history.
type Payment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ReservationID  uint          `gorm:"not null;uniqueIndex" json:"reservation_id"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	ApartmentID    uint          `gorm:"not null;index" json:"apartment_id"`
	Amount         float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod  string        `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TransactionRef string        `gorm:"type:varchar(64)" json:"transaction_ref,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
}
