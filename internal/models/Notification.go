package models

import "time"

type NotificationKind string

const (
	NotificationReaction NotificationKind = "reaction"
	NotificationComment  NotificationKind = "comment"
)

type Notification struct {
	ID           string           `json:"id"`
	TargetUserID string           `json:"targetUserId"`
	Kind         NotificationKind `json:"kind"`
	FromUserID   string           `json:"fromUserId"`
	ContextID    string           `json:"contextId"`
	CreatedAt    time.Time        `json:"createdAt"`
}
