package models

import "time"

// HourlyWindow is the per-node packet counter for one tumbling hourly
// bucket. Exactly one row exists per (node_num, window_start); counters only
// grow while the window is live, and total_count equals the sum of the
// category counters.
type HourlyWindow struct {
	NodeNum        string    `db:"node_num"`
	WindowStart    time.Time `db:"window_start"`
	WindowEnd      time.Time `db:"window_end"`
	TotalCount     int64     `db:"total_count"`
	PositionCount  int64     `db:"position_count"`
	NodeInfoCount  int64     `db:"nodeinfo_count"`
	TelemetryCount int64     `db:"telemetry_count"`
	TextCount      int64     `db:"text_count"`
	OtherCount     int64     `db:"other_count"`
	LastUpdatedAt  time.Time `db:"last_updated_at"`
}

// CategoryCounts returns the non-zero category counters.
func (w *HourlyWindow) CategoryCounts() map[PacketCategory]int64 {
	all := map[PacketCategory]int64{
		CategoryPosition:  w.PositionCount,
		CategoryNodeInfo:  w.NodeInfoCount,
		CategoryTelemetry: w.TelemetryCount,
		CategoryText:      w.TextCount,
		CategoryOther:     w.OtherCount,
	}
	counts := make(map[PacketCategory]int64, len(all))
	for cat, n := range all {
		if n > 0 {
			counts[cat] = n
		}
	}
	return counts
}

// WindowFor returns the hourly bucket containing t, in UTC.
func WindowFor(t time.Time) (start, end time.Time) {
	start = t.UTC().Truncate(time.Hour)
	return start, start.Add(time.Hour)
}
