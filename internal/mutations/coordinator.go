// Package mutations applies user actions to the in-memory timeline before the
// backend confirms them, and restores the previous state when it refuses.
package mutations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unifeed/internal/backend"
	"unifeed/internal/models"
	"unifeed/internal/notify"
	"unifeed/internal/providers"
	"unifeed/internal/timeline"

	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionReaction ActionKind = "reaction"
	ActionBookmark ActionKind = "bookmark"
	ActionComment  ActionKind = "comment"
	ActionDelete   ActionKind = "delete"
)

type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
	// StateFailed marks a delete the backend refused. The entry stays removed.
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StatePending:    "pending",
	StateCommitted:  "committed",
	StateRolledBack: "rolled_back",
	StateFailed:     "failed",
}

func (s State) String() string {
	return stateNames[s]
}

type actionKey struct {
	ref    models.EntryRef
	action ActionKind
}

type CoordinatorInterface interface {
	ToggleReaction(ctx context.Context, viewer models.Viewer, ref models.EntryRef, reaction models.ReactionType) error
	ToggleBookmark(ctx context.Context, viewer models.Viewer, ref models.EntryRef) error
	AddComment(ctx context.Context, viewer models.Viewer, ref models.EntryRef, text string) error
	DeleteEntry(ctx context.Context, viewer models.Viewer, ref models.EntryRef) error
}

// Coordinator allows one pending mutation per (entry, action). A second request
// for the same pair is rejected with models.ErrConcurrentMutationIgnored.
type Coordinator struct {
	timeline *timeline.Timeline
	writer   backend.Writer
	notifier notify.Notifier
	metrics  providers.MetricsProviderInterface
	logger   providers.Logger
	now      func() time.Time

	mu     sync.Mutex
	states map[actionKey]State
}

func NewCoordinator(tl *timeline.Timeline, writer backend.Writer, notifier notify.Notifier, metrics providers.MetricsProviderInterface, logger providers.Logger) *Coordinator {
	return &Coordinator{
		timeline: tl,
		writer:   writer,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		states:   make(map[actionKey]State),
	}
}

// State returns the lifecycle state of the last mutation for (ref, action).
func (c *Coordinator) State(ref models.EntryRef, action ActionKind) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[actionKey{ref, action}]
}

func (c *Coordinator) begin(key actionKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[key] == StatePending {
		return false
	}
	c.states[key] = StatePending
	return true
}

func (c *Coordinator) settle(key actionKey, state State) {
	c.mu.Lock()
	c.states[key] = state
	c.mu.Unlock()
	if state != StateIdle {
		c.metrics.IncMutations(string(key.action), state.String())
	}
}

func (c *Coordinator) ignored(key actionKey) error {
	c.metrics.IncMutations(string(key.action), "ignored")
	c.logger.Debugf(providers.TypeMutation, "%s on %s ignored: already pending", key.action, key.ref)
	return models.ErrConcurrentMutationIgnored
}

// undoFunc reverts one action's optimistic change on the current entry. It
// touches only the fields that action changed, so edits made by other actions
// or a refresh while the write was in flight survive the rollback.
type undoFunc func(e *models.TimelineEntry)

// apply runs an optimistic mutation: mutate the entry in place, issue write,
// and run the returned undo if write fails.
func (c *Coordinator) apply(ctx context.Context, key actionKey, mutate func(e *models.TimelineEntry) undoFunc, write func(ctx context.Context) error) error {
	if !c.begin(key) {
		return c.ignored(key)
	}

	var undo undoFunc
	found := c.timeline.Update(key.ref, func(e *models.TimelineEntry) {
		undo = mutate(e)
	})
	if !found {
		c.settle(key, StateIdle)
		return models.ErrEntryNotFound
	}

	if err := write(ctx); err != nil {
		c.timeline.Update(key.ref, func(e *models.TimelineEntry) {
			undo(e)
		})
		c.settle(key, StateRolledBack)
		c.logger.Warnf(providers.TypeMutation, "%s on %s rolled back: %v", key.action, key.ref, err)
		return &models.MutationError{Ref: key.ref, Action: string(key.action), Err: err}
	}

	c.settle(key, StateCommitted)
	return nil
}

// ToggleReaction sets, switches or removes the viewer's reaction on ref. Tapping
// the current reaction removes it. The author is notified only when the viewer
// had no reaction before.
func (c *Coordinator) ToggleReaction(ctx context.Context, viewer models.Viewer, ref models.EntryRef, reaction models.ReactionType) error {
	if !reaction.Valid() {
		return models.ErrInvalidReaction
	}

	var (
		prior    *models.ReactionType
		authorID string
	)
	mutate := func(e *models.TimelineEntry) undoFunc {
		if e.Interaction.ViewerReaction != nil {
			prior = e.Interaction.ViewerReaction.Ptr()
		}
		authorID = e.AuthorID
		countBefore := e.Interaction.ReactionsCount
		switch {
		case prior == nil:
			e.Interaction.ViewerReaction = reaction.Ptr()
			e.Interaction.ReactionsCount++
		case *prior == reaction:
			e.Interaction.ViewerReaction = nil
			e.Interaction.ReactionsCount = max(e.Interaction.ReactionsCount-1, 0)
		default:
			e.Interaction.ViewerReaction = reaction.Ptr()
		}
		delta := e.Interaction.ReactionsCount - countBefore
		return func(e *models.TimelineEntry) {
			e.Interaction.ViewerReaction = nil
			if prior != nil {
				e.Interaction.ViewerReaction = prior.Ptr()
			}
			e.Interaction.ReactionsCount = max(e.Interaction.ReactionsCount-delta, 0)
		}
	}
	write := func(ctx context.Context) error {
		switch {
		case prior == nil:
			return c.writer.InsertReaction(ctx, viewer.ID, ref, reaction)
		case *prior == reaction:
			return c.writer.DeleteReaction(ctx, viewer.ID, ref)
		default:
			delErr := c.writer.DeleteReaction(ctx, viewer.ID, ref)
			insErr := c.writer.InsertReaction(ctx, viewer.ID, ref, reaction)
			return errors.Join(delErr, insErr)
		}
	}

	if err := c.apply(ctx, actionKey{ref, ActionReaction}, mutate, write); err != nil {
		return err
	}
	if prior == nil {
		c.notifyAuthor(ctx, viewer, authorID, ref, models.NotificationReaction)
	}
	return nil
}

func (c *Coordinator) ToggleBookmark(ctx context.Context, viewer models.Viewer, ref models.EntryRef) error {
	var bookmarked bool
	mutate := func(e *models.TimelineEntry) undoFunc {
		e.Interaction.ViewerBookmarked = !e.Interaction.ViewerBookmarked
		bookmarked = e.Interaction.ViewerBookmarked
		return func(e *models.TimelineEntry) {
			e.Interaction.ViewerBookmarked = !bookmarked
		}
	}
	write := func(ctx context.Context) error {
		if bookmarked {
			return c.writer.InsertBookmark(ctx, viewer.ID, ref)
		}
		return c.writer.DeleteBookmark(ctx, viewer.ID, ref)
	}
	return c.apply(ctx, actionKey{ref, ActionBookmark}, mutate, write)
}

// AddComment posts text on ref and bumps its comment count.
func (c *Coordinator) AddComment(ctx context.Context, viewer models.Viewer, ref models.EntryRef, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ErrEmptyComment
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		Ref:       ref,
		AuthorID:  viewer.ID,
		Text:      text,
		CreatedAt: c.now().UTC(),
	}
	var authorID string
	mutate := func(e *models.TimelineEntry) undoFunc {
		authorID = e.AuthorID
		e.Interaction.CommentsCount++
		return func(e *models.TimelineEntry) {
			e.Interaction.CommentsCount = max(e.Interaction.CommentsCount-1, 0)
		}
	}
	write := func(ctx context.Context) error {
		return c.writer.InsertComment(ctx, comment)
	}

	if err := c.apply(ctx, actionKey{ref, ActionComment}, mutate, write); err != nil {
		return err
	}
	c.notifyAuthor(ctx, viewer, authorID, ref, models.NotificationComment)
	return nil
}

// DeleteEntry removes ref for its author or a moderator. The removal is not
// undone when the backend refuses it; the error is still returned.
func (c *Coordinator) DeleteEntry(ctx context.Context, viewer models.Viewer, ref models.EntryRef) error {
	entry, ok := c.timeline.Get(ref)
	if !ok {
		return models.ErrEntryNotFound
	}
	if entry.AuthorID != viewer.ID && !viewer.CanModerate() {
		return models.ErrForbidden
	}

	key := actionKey{ref, ActionDelete}
	if !c.begin(key) {
		return c.ignored(key)
	}
	if _, ok := c.timeline.Remove(ref); !ok {
		c.settle(key, StateIdle)
		return models.ErrEntryNotFound
	}

	if err := c.writer.DeleteEntry(ctx, ref); err != nil {
		c.settle(key, StateFailed)
		c.logger.Errorf(providers.TypeMutation, "delete of %s by %s failed, entry stays hidden: %v", ref, viewer.ID, err)
		return &models.MutationError{Ref: ref, Action: string(ActionDelete), Err: err}
	}

	c.settle(key, StateCommitted)
	c.logger.Infof(providers.TypeMutation, "%s deleted by %s", ref, viewer.ID)
	return nil
}

func (c *Coordinator) notifyAuthor(ctx context.Context, viewer models.Viewer, authorID string, ref models.EntryRef, kind models.NotificationKind) {
	if authorID == "" || authorID == viewer.ID {
		return
	}
	c.notifier.Notify(ctx, models.Notification{
		ID:           uuid.NewString(),
		TargetUserID: authorID,
		Kind:         kind,
		FromUserID:   viewer.ID,
		ContextID:    ref.String(),
		CreatedAt:    c.now().UTC(),
	})
}
