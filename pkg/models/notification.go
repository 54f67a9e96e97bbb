package models

import (
	"encoding/json"
	"time"
)

// Notification is a durable alert awaiting delivery. Processed transitions
// false -> true exactly once, regardless of how delivery went; Error records
// the joined send failures, if any.
type Notification struct {
	ID             int64     `db:"id" json:"id"`
	NodeNum        string    `db:"node_num" json:"node_id"`
	WindowStart    time.Time `db:"window_start" json:"window_start"`
	WindowEnd      time.Time `db:"window_end" json:"window_end"`
	PacketCount    int64     `db:"packet_count" json:"packet_count"`
	Threshold      int64     `db:"threshold" json:"threshold"`
	CategoriesJSON string    `db:"categories_json" json:"categories"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Processed      bool      `db:"processed" json:"processed"`
	Error          *string   `db:"error" json:"error,omitempty"`
}

// Categories decodes the stored category breakdown. Only categories that had
// a non-zero count at creation time are present.
func (n *Notification) Categories() (map[string]int64, error) {
	cats := map[string]int64{}
	if err := json.Unmarshal([]byte(n.CategoriesJSON), &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// EncodeCategories serializes a breakdown for storage, dropping zero counts.
func EncodeCategories(counts map[PacketCategory]int64) (string, error) {
	out := make(map[string]int64, len(counts))
	for cat, n := range counts {
		if n > 0 {
			out[string(cat)] = n
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
