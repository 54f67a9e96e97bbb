package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/notify"
	"github.com/dbertolani/noise-guard/pkg/store"
)

const noChatMarker = "no_chat_for_node"

// Dispatcher periodically drains pending notifications and delivers them to
// every chat bound to the offending node. Each notification gets exactly one
// delivery round; per-chat failures are recorded, never retried.
type Dispatcher struct {
	stores   *store.Stores
	sender   notify.Sender
	interval time.Duration
}

func New(stores *store.Stores, sender notify.Sender, interval time.Duration) *Dispatcher {
	return &Dispatcher{stores: stores, sender: sender, interval: interval}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	slog.Info("notification dispatcher started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.Sweep(ctx); err != nil {
				slog.Error("dispatch sweep failed", "error", err)
			}
		}
	}
}

// Sweep processes every currently pending notification once.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	pending, err := d.stores.Notifications.GetPending()
	if err != nil {
		return fmt.Errorf("loading pending notifications: %w", err)
	}
	for _, n := range pending {
		if err := d.deliver(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) error {
	bindings, err := d.stores.Bindings.GetChatsForNode(n.NodeNum)
	if err != nil {
		return fmt.Errorf("listing chats for node %s: %w", n.NodeNum, err)
	}
	if len(bindings) == 0 {
		slog.Debug("notification has no bound chat", "node_id", n.NodeNum, "notification_id", n.ID)
		marker := noChatMarker
		return d.stores.Notifications.MarkProcessed(n.ID, &marker)
	}

	prettyID := "!" + n.NodeNum
	var sendErrors []string
	for _, b := range bindings {
		msg := notify.FormatNoiseAlert(b.DisplayName, prettyID, n)
		if err := d.sender.Send(ctx, b.ChatID, msg); err != nil {
			slog.Error("noise alert delivery failed",
				"node_id", n.NodeNum,
				"chat_id", b.ChatID,
				"error", err)
			sendErrors = append(sendErrors, err.Error())
			continue
		}
		slog.Info("noise alert delivered", "node_id", n.NodeNum, "chat_id", b.ChatID)
	}

	var errMsg *string
	if len(sendErrors) > 0 {
		joined := strings.Join(sendErrors, "; ")
		errMsg = &joined
	}
	return d.stores.Notifications.MarkProcessed(n.ID, errMsg)
}
