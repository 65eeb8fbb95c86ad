package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// ActiveReservationStatuses are the statuses that occupy an apartment's calendar.
var ActiveReservationStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// IsActive reports whether a reservation in this status blocks other bookings.
func (s ReservationStatus) IsActive() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// IsTerminal reports whether no further transition is possible.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

type Reservation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"not null;index" json:"user_id"`
	ApartmentID uint              `gorm:"not null;index:idx_reservations_apartment_window,priority:1" json:"apartment_id"`
	StartTime   time.Time         `gorm:"not null;index:idx_reservations_apartment_window,priority:2" json:"start_time"`
	EndTime     time.Time         `gorm:"not null;index:idx_reservations_apartment_window,priority:3" json:"end_time"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsDeleted   bool              `gorm:"not null;default:false;index" json:"-"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Apartment *Apartment `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
}
