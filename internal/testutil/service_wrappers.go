package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Baaaki/apartment-booking/internal/activity"
	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/payment"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/internal/storage"
	"gorm.io/gorm"
)

// TestJWTSecret signs tokens issued by test services.
const TestJWTSecret = "test-secret-key-for-jwt-testing"

// Services wires every service over one test database.
type Services struct {
	Store        *repository.Store
	Events       *service.EventRecorder
	Availability *service.AvailabilityChecker
	Auth         *service.AuthService
	Users        *service.UserService
	Apartments   *service.ApartmentService
	Reservations *service.ReservationService
	Payments     *service.PaymentService
	Ratings      *service.RatingService
	Favorites    *service.FavoriteService
}

// ServiceOptions overrides collaborators; zero values get test defaults.
type ServiceOptions struct {
	Clock     func() time.Time
	Gateway   payment.Gateway
	Publisher broker.EventPublisher
	Journal   *activity.Journal
	Uploader  storage.Uploader
}

func NewServices(db *gorm.DB, opts ServiceOptions) *Services {
	if opts.Gateway == nil {
		opts.Gateway = payment.FixedGateway{Approve: true}
	}

	store := repository.NewStore(db)
	events := service.NewEventRecorder(opts.Journal, opts.Publisher)
	availability := service.NewAvailabilityChecker(store)
	if opts.Clock != nil {
		availability.WithClock(opts.Clock)
	}

	return &Services{
		Store:        store,
		Events:       events,
		Availability: availability,
		Auth:         service.NewAuthService(store.Users, TestJWTSecret, time.Hour, "test"),
		Users:        service.NewUserService(store),
		Apartments:   service.NewApartmentService(store, opts.Uploader),
		Reservations: service.NewReservationService(store, availability, events),
		Payments:     service.NewPaymentService(store, opts.Gateway, events),
		Ratings:      service.NewRatingService(store),
		Favorites:    service.NewFavoriteService(store),
	}
}

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []broker.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event broker.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []broker.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]broker.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *RecordingPublisher) Close() error { return nil }

// Types lists the recorded event types in order.
func (p *RecordingPublisher) Types() []broker.EventType {
	events := p.Events()
	out := make([]broker.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}
