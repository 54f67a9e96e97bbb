package notify

import "context"

// Sender delivers a Markdown-formatted message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
