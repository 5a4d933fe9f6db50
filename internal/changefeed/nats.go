package changefeed

import (
	"context"
	"fmt"
	"time"
	"unifeed/internal/providers"

	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "changes"

// NatsSubscriber receives change events published on <prefix>.<table>.
type NatsSubscriber struct {
	conn   *nats.Conn
	prefix string
	logger providers.Logger
}

func NewNatsSubscriber(conn *nats.Conn, prefix string, logger providers.Logger) *NatsSubscriber {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NatsSubscriber{conn: conn, prefix: prefix, logger: logger}
}

func (n *NatsSubscriber) Subject(table string) string {
	return n.prefix + "." + table
}

func (n *NatsSubscriber) Subscribe(_ context.Context, table string, handler Handler) (Subscription, error) {
	subject := n.Subject(table)
	sub, err := n.conn.Subscribe(subject, n.msgHandler(table, handler))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	n.logger.Infof(providers.TypeChangeFeed, "Subscribed to %s", subject)
	return sub, nil
}

func (n *NatsSubscriber) msgHandler(table string, handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ev, err := ParseEvent(msg.Data, time.Now())
		if err != nil {
			n.logger.Warnf(providers.TypeChangeFeed, "Invalid change event on %s: %v", msg.Subject, err)
			return
		}
		if ev.Table == "" {
			ev.Table = table
		}
		handler(ev)
	}
}
