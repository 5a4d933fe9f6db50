package changefeed

import (
	"context"
	"fmt"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/structures"

	"github.com/nats-io/nats.go"
)

// PrimaryTable is the backend table whose changes drive the timeline.
const PrimaryTable = "posts"

type Handler func(ev models.ChangeEvent)

type Subscription interface {
	Unsubscribe() error
}

// Subscriber delivers change events for one backend table until the returned
// subscription is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, table string, handler Handler) (Subscription, error)
}

// NewSubscriber builds the transport named by changeFeed.transport. The returned
// close function releases any shared connection.
func NewSubscriber(conf *structures.Config, logger providers.Logger) (Subscriber, func(), error) {
	switch conf.ChangeFeed.Transport {
	case "websocket":
		return NewWebsocketSubscriber(conf.ChangeFeed.URL, conf.ChangeFeed.ReconnectDelay, logger), func() {}, nil
	case "nats":
		nc, err := nats.Connect(conf.ChangeFeed.URL,
			nats.Name(conf.AppName+"-changefeed"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(reconnectDelay(conf.ChangeFeed.ReconnectDelay)),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats %s: %w", conf.ChangeFeed.URL, err)
		}
		return NewNatsSubscriber(nc, conf.ChangeFeed.SubjectPrefix, logger), func() { _ = nc.Drain() }, nil
	case "", "none":
		logger.Infof(providers.TypeChangeFeed, "Change feed disabled")
		return NoopSubscriber{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown change feed transport %q", conf.ChangeFeed.Transport)
	}
}

// NoopSubscriber never delivers an event.
type NoopSubscriber struct{}

func (NoopSubscriber) Subscribe(context.Context, string, Handler) (Subscription, error) {
	return noopSubscription{}, nil
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }
