package models

import "time"

// LinkToken is a single-use pairing secret. A token is created pending for a
// chat and transitions to consumed exactly once, when a node sends it over
// the mesh. A consumed token is never rebound.
type LinkToken struct {
	Token      string     `db:"token"`
	ChatID     int64      `db:"chat_id"`
	CreatedAt  time.Time  `db:"created_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
}

// Consumed reports whether the token has already been used.
func (t *LinkToken) Consumed() bool {
	return t.ConsumedAt != nil
}
