// Package notify hands user notifications to the dispatch service. Delivery is
// fire-and-forget: failures are logged and never reach the caller.
package notify

import (
	"context"
	"fmt"
	"unifeed/internal/models"
	"unifeed/internal/providers"
	"unifeed/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

const DefaultSubject = "notifications.dispatch"

type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Publisher is the part of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type NatsNotifier struct {
	publisher Publisher
	subject   string
	logger    providers.Logger
}

func NewNatsNotifier(publisher Publisher, subject string, logger providers.Logger) *NatsNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NatsNotifier{publisher: publisher, subject: subject, logger: logger}
}

func (n *NatsNotifier) Notify(_ context.Context, notification models.Notification) {
	data, err := json.Marshal(notification)
	if err != nil {
		n.logger.Errorf(providers.TypeMutation, "Notification %s encode failed: %v", notification.ID, err)
		return
	}
	if err := n.publisher.Publish(n.subject, data); err != nil {
		n.logger.Errorf(providers.TypeMutation, "Notification %s publish to %s failed: %v", notification.ID, n.subject, err)
		return
	}
	n.logger.Debugf(providers.TypeMutation, "Published %s notification for %s on %s",
		notification.Kind, notification.TargetUserID, notification.ContextID)
}

// LogNotifier only records notifications in the mutation log.
type LogNotifier struct {
	logger providers.Logger
}

func NewLogNotifier(logger providers.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	l.logger.Infof(providers.TypeMutation, "Notification %s: %s from %s to %s on %s",
		n.ID, n.Kind, n.FromUserID, n.TargetUserID, n.ContextID)
}

// NewNotifier builds the notifier named by notify.transport. The returned close
// function drains the NATS connection when there is one.
func NewNotifier(conf *structures.Config, logger providers.Logger) (Notifier, func(), error) {
	switch conf.Notify.Transport {
	case "nats":
		nc, err := nats.Connect(conf.Notify.URL, nats.Name(conf.AppName+"-notify"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats %s: %w", conf.Notify.URL, err)
		}
		logger.Infof(providers.TypeApp, "Notifications published to %s on %s", conf.Notify.URL, conf.Notify.Subject)
		return NewNatsNotifier(nc, conf.Notify.Subject, logger), func() { _ = nc.Drain() }, nil
	case "", "log":
		return NewLogNotifier(logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notify transport %q", conf.Notify.Transport)
	}
}
