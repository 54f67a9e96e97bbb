package models

import "time"

// NodeChatMapping binds a node to a chat that wants alerts for it.
// Unique per (node_num, chat_id).
type NodeChatMapping struct {
	ID         int64     `db:"id"`
	NodeNum    string    `db:"node_num"`
	ChatID     int64     `db:"chat_id"`
	LocalName  *string   `db:"local_name"`
	CreatedAt  time.Time `db:"created_at"`
	VerifiedAt time.Time `db:"verified_at"`
}

// ChatBinding is a delivery target resolved for a node: the chat plus the
// preferred display name (local override, then long name, then short name,
// then the hex ID).
type ChatBinding struct {
	ChatID      int64  `db:"chat_id"`
	DisplayName string `db:"display_name"`
}
