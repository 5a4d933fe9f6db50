package timeline

import (
	"sync"
	"unifeed/internal/models"
)

// Listener receives a read-only copy of the timeline after every change.
type Listener func(entries []models.TimelineEntry)

// Timeline is the in-memory feed owned by one viewing session. Replacements are
// token guarded: a result produced by an older refresh never overwrites a newer one.
type Timeline struct {
	mu        sync.RWMutex
	entries   []models.TimelineEntry
	aboveFold int
	applied   uint64

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewTimeline() *Timeline {
	return &Timeline{listeners: make(map[int]Listener)}
}

// Replace installs entries when token is newer than the last applied one and
// reports whether it did. Token 0 always applies; it is used to paint a cached
// snapshot before any refresh.
func (t *Timeline) Replace(token uint64, entries []models.TimelineEntry, aboveFold int) bool {
	t.mu.Lock()
	if token != 0 && token <= t.applied {
		t.mu.Unlock()
		return false
	}
	if token != 0 {
		t.applied = token
	}
	t.entries = models.CloneEntries(entries)
	t.aboveFold = min(aboveFold, len(entries))
	t.mu.Unlock()

	t.notify()
	return true
}

// Applied returns the token of the last applied refresh.
func (t *Timeline) Applied() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.applied
}

func (t *Timeline) Get(ref models.EntryRef) (models.TimelineEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.indexOf(ref); i >= 0 {
		return t.entries[i].Clone(), true
	}
	return models.TimelineEntry{}, false
}

// Update applies fn to the entry in place and notifies listeners. It reports
// false when the entry is not in the timeline.
func (t *Timeline) Update(ref models.EntryRef, fn func(e *models.TimelineEntry)) bool {
	t.mu.Lock()
	i := t.indexOf(ref)
	if i < 0 {
		t.mu.Unlock()
		return false
	}
	fn(&t.entries[i])
	t.mu.Unlock()

	t.notify()
	return true
}

// Remove drops the entry and returns it.
func (t *Timeline) Remove(ref models.EntryRef) (models.TimelineEntry, bool) {
	t.mu.Lock()
	i := t.indexOf(ref)
	if i < 0 {
		t.mu.Unlock()
		return models.TimelineEntry{}, false
	}
	removed := t.entries[i]
	t.entries = append(t.entries[:i:i], t.entries[i+1:]...)
	if i < t.aboveFold {
		t.aboveFold--
	}
	t.mu.Unlock()

	t.notify()
	return removed, true
}

func (t *Timeline) Snapshot() []models.TimelineEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return models.CloneEntries(t.entries)
}

func (t *Timeline) AboveFold() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aboveFold
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// OnChanged registers fn and returns a function that removes it.
func (t *Timeline) OnChanged(fn Listener) func() {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		delete(t.listeners, id)
	}
}

func (t *Timeline) notify() {
	t.lmu.Lock()
	listeners := make([]Listener, 0, len(t.listeners))
	for _, fn := range t.listeners {
		listeners = append(listeners, fn)
	}
	t.lmu.Unlock()
	if len(listeners) == 0 {
		return
	}

	snapshot := t.Snapshot()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (t *Timeline) indexOf(ref models.EntryRef) int {
	for i := range t.entries {
		if t.entries[i].Kind == ref.Kind && t.entries[i].ID == ref.ID {
			return i
		}
	}
	return -1
}
