package models

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Ref       EntryRef  `json:"ref"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
