package notify

import (
	"context"
	"errors"
	"testing"
	"time"
	"unifeed/internal/models"
	"unifeed/internal/structures"
	"unifeed/internal/testutil"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func sample() models.Notification {
	return models.Notification{
		ID:           "n1",
		TargetUserID: "author",
		Kind:         models.NotificationReaction,
		FromUserID:   "viewer",
		ContextID:    "post:p1",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNatsNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNatsNotifier(pub, "", &testutil.MockLogger{})

	n.Notify(context.Background(), sample())

	assert.Equal(t, DefaultSubject, pub.subject)
	var got models.Notification
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, sample(), got)
}

func TestNatsNotifier_PublishErrorIsLogged(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no responders")}
	logger := &testutil.MockLogger{}
	n := NewNatsNotifier(pub, "custom.subject", logger)

	assert.NotPanics(t, func() { n.Notify(context.Background(), sample()) })
	assert.Equal(t, "custom.subject", pub.subject)
	assert.True(t, logger.HasLog("error", "no responders"))
}

func TestLogNotifier(t *testing.T) {
	logger := &testutil.MockLogger{}

	NewLogNotifier(logger).Notify(context.Background(), sample())

	assert.True(t, logger.HasLog("info", "reaction from viewer to author on post:p1"))
}

func TestNewNotifier_Log(t *testing.T) {
	n, closeFn, err := NewNotifier(&structures.Config{Notify: structures.NotifyConfig{Transport: "log"}}, &testutil.MockLogger{})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &LogNotifier{}, n)
}

func TestNewNotifier_Unknown(t *testing.T) {
	_, _, err := NewNotifier(&structures.Config{Notify: structures.NotifyConfig{Transport: "smtp"}}, &testutil.MockLogger{})
	assert.Error(t, err)
}

func TestNewNotifier_NatsUnreachable(t *testing.T) {
	conf := &structures.Config{Notify: structures.NotifyConfig{Transport: "nats", URL: "nats://127.0.0.1:1"}}
	_, _, err := NewNotifier(conf, &testutil.MockLogger{})
	assert.Error(t, err)
}
