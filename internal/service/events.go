package service

import (
	"context"
	"time"

	"github.com/Baaaki/apartment-booking/internal/activity"
	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"go.uber.org/zap"
)

// EventRecorder journals and publishes booking events after the database commit.
// Failures are logged and never fail the operation that produced the event.
type EventRecorder struct {
	journal   *activity.Journal
	publisher broker.EventPublisher
}

func NewEventRecorder(journal *activity.Journal, publisher broker.EventPublisher) *EventRecorder {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	return &EventRecorder{journal: journal, publisher: publisher}
}

func (r *EventRecorder) Record(ctx context.Context, event broker.Event) {
	if r == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	err := r.journal.Append(activity.Entry{
		Action:        string(event.Type),
		ActorID:       event.ActorID,
		UserID:        event.UserID,
		ApartmentID:   event.ApartmentID,
		ReservationID: event.ReservationID,
		PaymentID:     event.PaymentID,
		Status:        event.Status,
		Timestamp:     event.OccurredAt,
	})
	if err != nil {
		logger.Log.Warn("Failed to journal activity",
			zap.String("event", string(event.Type)),
			zap.Uint("reservation_id", event.ReservationID),
			zap.Error(err),
		)
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish event",
			zap.String("event", string(event.Type)),
			zap.Uint("reservation_id", event.ReservationID),
			zap.Error(err),
		)
	}
}

// Recent returns the newest journal entries for the admin activity feed.
func (r *EventRecorder) Recent(limit int) ([]activity.Entry, error) {
	if r == nil {
		return []activity.Entry{}, nil
	}
	return r.journal.Recent(limit)
}

func pageResult[T any](items []T, total int64, page repository.Page) *PageResult[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}
}
