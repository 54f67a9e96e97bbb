package store

import (
	"database/sql"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/jmoiron/sqlx"
)

type WindowStore interface {
	// Increment bumps the counter for one received packet and returns the
	// window row as it stands after the bump.
	Increment(nodeNum string, windowStart, windowEnd time.Time, category models.PacketCategory, now time.Time) (*models.HourlyWindow, error)
	Get(nodeNum string, windowStart time.Time) (*models.HourlyWindow, error)
	TopForWindow(windowStart time.Time, limit int) ([]*models.HourlyWindow, error)
}

type postgresWindowStore struct {
	db *sqlx.DB
}

func NewWindows(dbconn *sqlx.DB) WindowStore {
	return &postgresWindowStore{db: dbconn}
}

func (b *postgresWindowStore) Increment(nodeNum string, windowStart, windowEnd time.Time, category models.PacketCategory, now time.Time) (*models.HourlyWindow, error) {
	if !category.Valid() {
		category = models.CategoryOther
	}

	stmt := `
	INSERT INTO hourly_windows
	  (node_num, window_start, window_end, total_count,
	   position_count, nodeinfo_count, telemetry_count, text_count, other_count,
	   last_updated_at)
	VALUES
	  ($1, $2, $3, 1,
	   CASE WHEN $4 = 'position'  THEN 1 ELSE 0 END,
	   CASE WHEN $4 = 'nodeinfo'  THEN 1 ELSE 0 END,
	   CASE WHEN $4 = 'telemetry' THEN 1 ELSE 0 END,
	   CASE WHEN $4 = 'text'      THEN 1 ELSE 0 END,
	   CASE WHEN $4 = 'other'     THEN 1 ELSE 0 END,
	   $5)
	ON CONFLICT (node_num, window_start) DO UPDATE
	SET total_count     = hourly_windows.total_count     + 1,
	    position_count  = hourly_windows.position_count  + EXCLUDED.position_count,
	    nodeinfo_count  = hourly_windows.nodeinfo_count  + EXCLUDED.nodeinfo_count,
	    telemetry_count = hourly_windows.telemetry_count + EXCLUDED.telemetry_count,
	    text_count      = hourly_windows.text_count      + EXCLUDED.text_count,
	    other_count     = hourly_windows.other_count     + EXCLUDED.other_count,
	    last_updated_at = EXCLUDED.last_updated_at
	RETURNING *;
	`

	var window models.HourlyWindow
	err := b.db.Get(&window, stmt, nodeNum, windowStart, windowEnd, string(category), now)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (b *postgresWindowStore) Get(nodeNum string, windowStart time.Time) (*models.HourlyWindow, error) {
	stmt := `SELECT w.* FROM hourly_windows w WHERE w.node_num = $1 AND w.window_start = $2;`
	var window models.HourlyWindow
	err := b.db.Get(&window, stmt, nodeNum, windowStart)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &window, err
}

func (b *postgresWindowStore) TopForWindow(windowStart time.Time, limit int) ([]*models.HourlyWindow, error) {
	stmt := `
	SELECT w.* FROM hourly_windows w
	WHERE w.window_start = $1
	ORDER BY w.total_count DESC, w.node_num
	LIMIT $2;
	`

	var windows []*models.HourlyWindow
	err := b.db.Select(&windows, stmt, windowStart, limit)
	if err == sql.ErrNoRows {
		return []*models.HourlyWindow{}, nil
	}
	return windows, err
}
