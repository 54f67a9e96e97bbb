package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
)

// FormatLinkConfirmation is the message a chat receives when one of its
// tokens is consumed by a node.
func FormatLinkConfirmation(displayName, prettyID string) string {
	return fmt.Sprintf(
		"✅ Nodo %s (%s) collegato correttamente al tuo account Telegram.\n"+
			"Da ora in poi riceverai gli avvisi se il nodo diventa rumoroso.",
		displayName, prettyID)
}

// FormatHopWarning warns bound chats that a node is configured with an
// excessive hop limit.
func FormatHopWarning(displayName, prettyID string, hopLimit uint32, maxAllowed int) string {
	return fmt.Sprintf(
		"⚠️ Nodo %s (%s) ha impostato un hop limit troppo alto: %d.\n"+
			"Il valore consigliato è %d o meno.",
		displayName, prettyID, hopLimit, maxAllowed)
}

// FormatNoiseAlert renders a threshold notification for one chat, with the
// per-category breakdown ordered by count, largest first.
func FormatNoiseAlert(chatDisplay, prettyID string, n *models.Notification) string {
	breakdown := "n/d"
	if cats, err := n.Categories(); err == nil && len(cats) > 0 {
		type catCount struct {
			name  string
			count int64
		}
		parts := make([]catCount, 0, len(cats))
		for name, count := range cats {
			parts = append(parts, catCount{name, count})
		}
		sort.Slice(parts, func(i, j int) bool {
			if parts[i].count != parts[j].count {
				return parts[i].count > parts[j].count
			}
			return parts[i].name < parts[j].name
		})
		rendered := make([]string, len(parts))
		for i, p := range parts {
			rendered[i] = fmt.Sprintf("%s: %d", p.name, p.count)
		}
		breakdown = strings.Join(rendered, ", ")
	}

	return fmt.Sprintf(
		"⚠️ Nodo *%s* (%s) rumoroso.\n"+
			"Finestra: `%s` – `%s`\n"+
			"Pacchetti: *%d* (soglia %d)\n"+
			"Dettaglio per tipo: %s",
		chatDisplay, prettyID,
		n.WindowStart.UTC().Format(time.RFC3339), n.WindowEnd.UTC().Format(time.RFC3339),
		n.PacketCount, n.Threshold, breakdown)
}
