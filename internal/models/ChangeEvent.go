package models

import "time"

type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// ChangeEvent is one server-pushed row change.
type ChangeEvent struct {
	Op       ChangeOp
	Table    string
	ID       string
	Approved *bool
	Visible  *bool
	At       time.Time
}

// Hidden reports whether an update withdrew the row from the feed.
func (e ChangeEvent) Hidden() bool {
	if e.Approved != nil && !*e.Approved {
		return true
	}
	return e.Visible != nil && !*e.Visible
}
