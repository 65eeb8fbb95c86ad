package broker

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventReservationCreated       EventType = "reservation.created"
	EventReservationStatusChanged EventType = "reservation.status_changed"
	EventReservationDeleted       EventType = "reservation.deleted"
	EventPaymentCompleted         EventType = "payment.completed"
	EventPaymentFailed            EventType = "payment.failed"
	EventPaymentRefunded          EventType = "payment.refunded"
)

// Event describes a change to a reservation or its payment.
// UserID is the reservation owner; ActorID is whoever caused the change.
type Event struct {
	Type          EventType `json:"type"`
	ReservationID uint      `json:"reservation_id"`
	PaymentID     uint      `json:"payment_id,omitempty"`
	ApartmentID   uint      `json:"apartment_id"`
	UserID        uint      `json:"user_id"`
	ActorID       uint      `json:"actor_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Key groups events of one reservation onto the same stream partition.
func (e Event) Key() string {
	return "reservation-" + strconv.FormatUint(uint64(e.ReservationID), 10)
}
