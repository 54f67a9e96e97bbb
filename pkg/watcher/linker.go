package watcher

import (
	"fmt"
	"log/slog"

	"github.com/dbertolani/noise-guard/pkg/mesh"
	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/notify"
	"github.com/dbertolani/noise-guard/pkg/token"
)

// handleLinkToken binds the sending node to a chat when the packet text
// carries a valid single-use LINK token. A consumed or unknown token is
// ignored without contacting the chat.
func (w *Watcher) handleLinkToken(nodeNum string, pkt *mesh.Packet) error {
	tok, ok := token.Extract(pkt.Text)
	if !ok {
		return nil
	}
	slog.Info("link token received", "token", tok, "node_id", nodeNum)

	lt, err := w.stores.LinkTokens.Get(tok)
	if err != nil {
		return fmt.Errorf("looking up link token: %w", err)
	}
	if lt == nil || lt.Consumed() {
		slog.Info("link token invalid or already consumed", "token", tok)
		return nil
	}

	// Directory details are a nicety; a dead public map must not block
	// the pairing.
	details, lookupErr := w.dir.Lookup(nodeNum)
	if lookupErr != nil {
		slog.Warn("public map lookup failed during pairing", "node_id", nodeNum, "error", lookupErr)
	}

	now := w.now().UTC()
	node := &models.Node{NodeNum: nodeNum, CreatedAt: now, UpdatedAt: now}
	if details != nil {
		if s := details.Short(); s != "" {
			node.ShortName = &s
		}
		if l := details.Long(); l != "" {
			node.LongName = &l
		}
		if details.ID != 0 {
			id := details.ID
			node.LoraItaliaID = &id
		}
	}

	chatID, bound, err := w.stores.Bindings.BindWithToken(tok, node)
	if err != nil {
		return fmt.Errorf("binding node %s with token: %w", nodeNum, err)
	}
	if !bound {
		slog.Info("link token consumed concurrently", "token", tok)
		return nil
	}
	slog.Info("node bound to chat", "node_id", nodeNum, "chat_id", chatID)

	displayName := node.DisplayName()
	if displayName == node.NodeNum {
		displayName = node.PrettyID()
	}

	msg := notify.FormatLinkConfirmation(displayName, node.PrettyID())
	if err := w.sender.Send(w.baseCtx, chatID, msg); err != nil {
		return fmt.Errorf("sending link confirmation to chat %d: %w", chatID, err)
	}
	return nil
}
