package watcher

import (
	"log/slog"

	"github.com/dbertolani/noise-guard/pkg/mesh"
)

// processPayload runs one raw broker payload through the full pipeline:
// decode, sender normalization, link token handling, noise accounting and
// the hop limit check.
func (w *Watcher) processPayload(payload []byte) {
	pkt, ok := mesh.DecodePayload(w.decoders, payload)
	if !ok {
		slog.Debug("undecodable mqtt payload", "bytes", len(payload))
		return
	}

	nodeNum := mesh.NormalizeNodeID(pkt.SenderID)
	if nodeNum == "" {
		slog.Debug("packet without usable sender id")
		return
	}

	if err := w.handleLinkToken(nodeNum, pkt); err != nil {
		slog.Error("link token handling failed", "node_id", nodeNum, "error", err)
	}
	if err := w.handleNoiseCounters(nodeNum, pkt); err != nil {
		slog.Error("noise accounting failed", "node_id", nodeNum, "error", err)
	}
	if err := w.checkHopLimit(nodeNum, pkt); err != nil {
		slog.Error("hop limit check failed", "node_id", nodeNum, "error", err)
	}
}
