package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the origin collection of a timeline entry.
type Kind string

const (
	KindPost     Kind = "post"
	KindPoll     Kind = "poll"
	KindActivity Kind = "activity"
	KindVideo    Kind = "video"
	KindMovie    Kind = "movie"
	KindReshare  Kind = "reshare"
)

// PrimaryKind is the kind whose table feeds the change-event stream.
const PrimaryKind = KindPost

// AllKinds lists every kind in merge order.
var AllKinds = []Kind{KindPost, KindPoll, KindActivity, KindVideo, KindMovie, KindReshare}

func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindPoll, KindActivity, KindVideo, KindMovie, KindReshare:
		return true
	}
	return false
}

// EntryRef is the global identity of an entry: ids are only unique within a kind.
type EntryRef struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func (r EntryRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// ParseEntryRef parses the "kind:id" form produced by EntryRef.String.
func ParseEntryRef(s string) (EntryRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return EntryRef{}, fmt.Errorf("malformed entry ref %q", s)
	}
	ref := EntryRef{Kind: Kind(kind), ID: id}
	if !ref.Kind.Valid() {
		return EntryRef{}, fmt.Errorf("unknown kind %q in entry ref", kind)
	}
	return ref, nil
}

type Payload struct {
	Text         string            `json:"text,omitempty"`
	Title        string            `json:"title,omitempty"`
	MediaURL     string            `json:"mediaUrl,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
	Pinned       bool              `json:"pinned,omitempty"`
	Options      []string          `json:"options,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
}

type Interaction struct {
	ReactionsCount   int           `json:"reactionsCount"`
	CommentsCount    int           `json:"commentsCount"`
	SharesCount      int           `json:"sharesCount"`
	ViewerReaction   *ReactionType `json:"viewerReaction,omitempty"`
	ViewerBookmarked bool          `json:"viewerBookmarked"`
}

// Clone copies the interaction including the reaction pointer.
func (i Interaction) Clone() Interaction {
	out := i
	if i.ViewerReaction != nil {
		r := *i.ViewerReaction
		out.ViewerReaction = &r
	}
	return out
}

// TimelineEntry is one piece of feed content regardless of its origin kind.
type TimelineEntry struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	AuthorID    string      `json:"authorId"`
	CreatedAt   time.Time   `json:"createdAt"`
	Payload     Payload     `json:"payload"`
	Interaction Interaction `json:"interaction"`
	DedupKey    string      `json:"dedupKey,omitempty"`
}

func (e TimelineEntry) Ref() EntryRef {
	return EntryRef{Kind: e.Kind, ID: e.ID}
}

// Clone returns a deep copy, so callers holding a snapshot never observe later mutations.
func (e TimelineEntry) Clone() TimelineEntry {
	out := e
	out.Interaction = e.Interaction.Clone()
	if e.Payload.Options != nil {
		out.Payload.Options = append([]string(nil), e.Payload.Options...)
	}
	if e.Payload.Meta != nil {
		out.Payload.Meta = make(map[string]string, len(e.Payload.Meta))
		for k, v := range e.Payload.Meta {
			out.Payload.Meta[k] = v
		}
	}
	return out
}

func CloneEntries(entries []TimelineEntry) []TimelineEntry {
	out := make([]TimelineEntry, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}
