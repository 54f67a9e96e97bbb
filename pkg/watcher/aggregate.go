package watcher

import (
	"fmt"
	"log/slog"

	"github.com/dbertolani/noise-guard/pkg/mesh"
	"github.com/dbertolani/noise-guard/pkg/models"
)

// handleNoiseCounters bumps the node's hourly counters and, once the window
// total reaches the threshold, records a rate-limited notification for the
// dispatcher to deliver.
func (w *Watcher) handleNoiseCounters(nodeNum string, pkt *mesh.Packet) error {
	now := w.now().UTC()
	windowStart, windowEnd := models.WindowFor(now)
	category := mesh.Classify(pkt.Port)

	if err := w.stores.Nodes.EnsureExists(nodeNum, now); err != nil {
		return fmt.Errorf("ensuring node row: %w", err)
	}

	window, err := w.stores.Windows.Increment(nodeNum, windowStart, windowEnd, category, now)
	if err != nil {
		return fmt.Errorf("incrementing hourly window: %w", err)
	}

	if window.TotalCount < w.opts.NoiseThreshold {
		return nil
	}

	categoriesJSON, err := models.EncodeCategories(window.CategoryCounts())
	if err != nil {
		return fmt.Errorf("encoding category breakdown: %w", err)
	}

	created, err := w.stores.Notifications.CreateIfDue(&models.Notification{
		NodeNum:        nodeNum,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		PacketCount:    window.TotalCount,
		Threshold:      w.opts.NoiseThreshold,
		CategoriesJSON: categoriesJSON,
		CreatedAt:      now,
	}, w.opts.NotificationInterval)
	if err != nil {
		return fmt.Errorf("recording noise notification: %w", err)
	}
	if created {
		slog.Info("noise threshold exceeded",
			"node_id", nodeNum,
			"window_start", windowStart,
			"packets", window.TotalCount,
			"threshold", w.opts.NoiseThreshold)
	}
	return nil
}
