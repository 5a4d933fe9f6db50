package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unifeed/internal/models"
	"unifeed/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLog reports whether a message at level contains substr once formatted.
func (m *MockLogger) HasLog(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Logs {
		if l.Level == level && strings.Contains(fmt.Sprintf(l.Format, l.Args...), substr) {
			return true
		}
	}
	return false
}

// WriteCall is one recorded backend write.
type WriteCall struct {
	Method   string
	ViewerID string
	Ref      models.EntryRef
	Reaction models.ReactionType
	Comment  models.Comment
}

// MockBackend implements backend.Backend over in-memory pages.
type MockBackend struct {
	mu sync.Mutex

	Pages     map[models.Kind][]models.RawRecord
	PageErr   map[models.Kind]error
	PageDelay map[models.Kind]time.Duration
	PageCalls map[models.Kind]int

	States     map[models.EntryRef]models.ViewerState
	StateErr   error
	StateCalls [][]models.EntryRef

	// WriteErrs fails the named write method ("InsertReaction", "DeleteEntry", ...).
	WriteErrs map[string]error
	// BeforeWrite runs before every write outside the lock; tests use it to hold a write open.
	BeforeWrite func(method string)
	Writes      []WriteCall
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Pages:     make(map[models.Kind][]models.RawRecord),
		PageErr:   make(map[models.Kind]error),
		PageDelay: make(map[models.Kind]time.Duration),
		PageCalls: make(map[models.Kind]int),
		States:    make(map[models.EntryRef]models.ViewerState),
		WriteErrs: make(map[string]error),
	}
}

func (m *MockBackend) SetPage(kind models.Kind, records ...models.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range records {
		records[i].Kind = kind
		records[i].Approved = true
	}
	m.Pages[kind] = records
}

func (m *MockBackend) SetPageErr(kind models.Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageErr[kind] = err
}

func (m *MockBackend) SetWriteErr(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteErrs[method] = err
}

func (m *MockBackend) FetchPage(ctx context.Context, kind models.Kind, limit int, cursor string) ([]models.RawRecord, error) {
	m.mu.Lock()
	m.PageCalls[kind]++
	delay := m.PageDelay[kind]
	err := m.PageErr[kind]
	page := m.Pages[kind]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return append([]models.RawRecord(nil), page...), nil
}

func (m *MockBackend) FetchViewerState(ctx context.Context, viewerID string, refs []models.EntryRef) (map[models.EntryRef]models.ViewerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StateCalls = append(m.StateCalls, append([]models.EntryRef(nil), refs...))
	if m.StateErr != nil {
		return nil, m.StateErr
	}
	out := make(map[models.EntryRef]models.ViewerState)
	for _, ref := range refs {
		if st, ok := m.States[ref]; ok {
			out[ref] = st
		}
	}
	return out, nil
}

func (m *MockBackend) write(call WriteCall) error {
	if m.BeforeWrite != nil {
		m.BeforeWrite(call.Method)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, call)
	return m.WriteErrs[call.Method]
}

func (m *MockBackend) InsertReaction(_ context.Context, viewerID string, ref models.EntryRef, reaction models.ReactionType) error {
	return m.write(WriteCall{Method: "InsertReaction", ViewerID: viewerID, Ref: ref, Reaction: reaction})
}

func (m *MockBackend) DeleteReaction(_ context.Context, viewerID string, ref models.EntryRef) error {
	return m.write(WriteCall{Method: "DeleteReaction", ViewerID: viewerID, Ref: ref})
}

func (m *MockBackend) InsertBookmark(_ context.Context, viewerID string, ref models.EntryRef) error {
	return m.write(WriteCall{Method: "InsertBookmark", ViewerID: viewerID, Ref: ref})
}

func (m *MockBackend) DeleteBookmark(_ context.Context, viewerID string, ref models.EntryRef) error {
	return m.write(WriteCall{Method: "DeleteBookmark", ViewerID: viewerID, Ref: ref})
}

func (m *MockBackend) InsertComment(_ context.Context, comment models.Comment) error {
	return m.write(WriteCall{Method: "InsertComment", ViewerID: comment.AuthorID, Ref: comment.Ref, Comment: comment})
}

func (m *MockBackend) DeleteEntry(_ context.Context, ref models.EntryRef) error {
	return m.write(WriteCall{Method: "DeleteEntry", Ref: ref})
}

// WriteMethods returns the recorded write method names in call order.
func (m *MockBackend) WriteMethods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Writes))
	for i, w := range m.Writes {
		out[i] = w.Method
	}
	return out
}

// MockNotifier implements notify.Notifier and records what was sent.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []models.Notification
}

func (m *MockNotifier) Notify(_ context.Context, n models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	SetErr error
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Data[key] = value
	return nil
}

// MockKVStore implements cache.KVStore with injectable failures. BeforeSet,
// when set, runs outside the lock before every Set.
type MockKVStore struct {
	mu        sync.Mutex
	Data      map[string]string
	GetErr    error
	SetErr    error
	Sets      int
	BeforeSet func(key, value string)
}

func NewMockKVStore() *MockKVStore {
	return &MockKVStore{Data: make(map[string]string)}
}

func (m *MockKVStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.Data[key]
	return v, ok, nil
}

func (m *MockKVStore) Set(key, value string) error {
	if m.BeforeSet != nil {
		m.BeforeSet(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Data[key] = value
	return nil
}

func (m *MockKVStore) Close() error { return nil }

// MockCompressor implements cache.Compressor with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics counts the domain metrics and ignores the HTTP ones.
type MockMetrics struct {
	providers.MetricsProviderInterface

	mu             sync.Mutex
	SourceFailures map[string]int
	Mutations      map[string]int // key: "action:outcome"
	ChangeEvents   map[string]int
	Suppressed     int
	Refreshes      int
	CacheHits      int
	CacheMisses    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		MetricsProviderInterface: providers.NewNoopMetrics(),
		SourceFailures:           make(map[string]int),
		Mutations:                make(map[string]int),
		ChangeEvents:             make(map[string]int),
	}
}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncSourceFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFailures[kind]++
}

func (m *MockMetrics) IncMutations(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations[action+":"+outcome]++
}

func (m *MockMetrics) IncChangeEvents(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChangeEvents[op]++
}

func (m *MockMetrics) IncRefreshSuppressed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Suppressed++
}

func (m *MockMetrics) ObserveRefreshDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes++
}

func (m *MockMetrics) Mutation(action, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Mutations[action+":"+outcome]
}

func (m *MockMetrics) SuppressedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Suppressed
}
