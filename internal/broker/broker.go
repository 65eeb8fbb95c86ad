package broker

import (
	"context"
	"errors"
)

// EventPublisher fans booking events out to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// EventSubscriber delivers published events until ctx is done.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// MultiPublisher publishes to every target and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
