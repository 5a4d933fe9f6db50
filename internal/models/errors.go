package models

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable         = errors.New("source unavailable")
	ErrFeedUnavailable           = errors.New("feed unavailable")
	ErrMutationRejected          = errors.New("mutation rejected")
	ErrConcurrentMutationIgnored = errors.New("concurrent mutation ignored")
	ErrEntryNotFound             = errors.New("entry not found")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidReaction           = errors.New("invalid reaction")
	ErrEmptyComment              = errors.New("empty comment")
)

// SourceError reports a failed fetch for one content kind.
type SourceError struct {
	Kind Kind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// MutationError reports a backend write that failed for a user action.
type MutationError struct {
	Ref    EntryRef
	Action string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on %s rejected: %v", e.Action, e.Ref, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

func (e *MutationError) Is(target error) bool { return target == ErrMutationRejected }
