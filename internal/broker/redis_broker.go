package broker

import (
	"context"
	"encoding/json"

	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "booking:events"

// RedisBroker implements EventPublisher and EventSubscriber using Redis pub/sub.
type RedisBroker struct {
	client    *redis.Client
	ownClient bool
}

func NewRedisBroker(ctx context.Context, redisURL string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisBroker{client: client, ownClient: true}, nil
}

// NewRedisBrokerFromClient shares an existing client; Close leaves it open.
func NewRedisBrokerFromClient(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Client exposes the connection for other Redis users such as the rate limiter.
func (r *RedisBroker) Client() *redis.Client {
	return r.client
}

func (r *RedisBroker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, eventsChannel, data).Err()
}

// Subscribe returns once the subscription is confirmed, so events published
// afterwards are not missed.
func (r *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan Event, 100)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Log.Warn("Dropping malformed event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisBroker) Close() error {
	if !r.ownClient {
		return nil
	}
	return r.client.Close()
}
