package watcher

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dbertolani/noise-guard/pkg/mesh"
	"github.com/dbertolani/noise-guard/pkg/notify"
)

// checkHopLimit warns every chat bound to the node when a packet advertises
// a hop limit above the allowed ceiling. The check is stateless: each
// offending packet produces a fresh round of warnings.
func (w *Watcher) checkHopLimit(nodeNum string, pkt *mesh.Packet) error {
	if pkt.HopLimit == nil || int(*pkt.HopLimit) <= w.opts.MaxHopsAllowed {
		return nil
	}

	bindings, err := w.stores.Bindings.GetChatsForNode(nodeNum)
	if err != nil {
		return fmt.Errorf("listing chats for node: %w", err)
	}
	if len(bindings) == 0 {
		return nil
	}

	prettyID := "!" + nodeNum
	slog.Warn("hop limit above ceiling",
		"node_id", nodeNum,
		"hop_limit", *pkt.HopLimit,
		"max_allowed", w.opts.MaxHopsAllowed)

	var sendErrs []error
	for _, b := range bindings {
		msg := notify.FormatHopWarning(b.DisplayName, prettyID, *pkt.HopLimit, w.opts.MaxHopsAllowed)
		if err := w.sender.Send(w.baseCtx, b.ChatID, msg); err != nil {
			slog.Error("hop warning delivery failed", "chat_id", b.ChatID, "error", err)
			sendErrs = append(sendErrs, err)
		}
	}
	return errors.Join(sendErrs...)
}
