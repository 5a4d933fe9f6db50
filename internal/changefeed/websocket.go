package changefeed

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unifeed/internal/providers"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// WebsocketSubscriber keeps a websocket open to the change stream and reconnects
// after reconnectDelay whenever the connection drops.
type WebsocketSubscriber struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	logger         providers.Logger
}

func NewWebsocketSubscriber(url string, reconnectDelay time.Duration, logger providers.Logger) *WebsocketSubscriber {
	return &WebsocketSubscriber{
		url:            url,
		reconnectDelay: reconnectDelay,
		dialer:         websocket.DefaultDialer,
		logger:         logger,
	}
}

type wsSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *wsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

func (w *WebsocketSubscriber) Subscribe(ctx context.Context, table string, handler Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &wsSubscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		w.run(ctx, table, handler)
	}()
	return sub, nil
}

func (w *WebsocketSubscriber) run(ctx context.Context, table string, handler Handler) {
	for {
		err := w.session(ctx, table, handler)
		if ctx.Err() != nil {
			return
		}
		w.logger.Warnf(providers.TypeChangeFeed, "Change stream connection error, reconnecting: %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay(w.reconnectDelay)):
		}
	}
}

func (w *WebsocketSubscriber) session(ctx context.Context, table string, handler Handler) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial change stream: %w", err)
	}
	defer conn.Close()

	// ReadMessage does not observe ctx, so closing the conn is what unblocks it.
	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-closed:
		}
	}()

	frame, err := json.Marshal(subscribeFrame{Type: "subscribe", Table: table})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send subscribe frame: %w", err)
	}
	w.logger.Infof(providers.TypeChangeFeed, "Subscribed to %s on %s", table, w.url)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		ev, err := ParseEvent(message, time.Now())
		if err != nil {
			w.logger.Warnf(providers.TypeChangeFeed, "Invalid change event: %v", err)
			continue
		}
		if ev.Table != "" && ev.Table != table {
			continue
		}
		ev.Table = table
		handler(ev)
	}
}

func reconnectDelay(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultReconnectDelay
	}
	return d
}
