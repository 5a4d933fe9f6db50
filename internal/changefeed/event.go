package changefeed

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unifeed/internal/models"

	json "github.com/goccy/go-json"
)

type subscribeFrame struct {
	Type  string `json:"type"`
	Table string `json:"table"`
}

type wireEvent struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Record struct {
		ID       json.RawMessage `json:"id"`
		Approved *bool           `json:"approved"`
		Visible  *bool           `json:"visible"`
	} `json:"record"`
}

// ParseEvent decodes one change message. Record ids may be JSON strings or numbers.
func ParseEvent(data []byte, at time.Time) (models.ChangeEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return models.ChangeEvent{}, fmt.Errorf("unmarshal change event: %w", err)
	}

	id, err := parseID(w.Record.ID)
	if err != nil {
		return models.ChangeEvent{}, err
	}
	return models.ChangeEvent{
		Op:       models.ChangeOp(w.Type),
		Table:    w.Table,
		ID:       id,
		Approved: w.Record.Approved,
		Visible:  w.Record.Visible,
		At:       at,
	}, nil
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("change event without record id")
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("unmarshal record id: %w", err)
		}
		return id, nil
	}
	return string(raw), nil
}
