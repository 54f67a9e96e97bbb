package store

import (
	"database/sql"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/jmoiron/sqlx"
)

var selectNotifications = `SELECT nt.* FROM notifications nt`

type NotificationStore interface {
	// CreateIfDue records the alert unless another alert for the same node
	// and window was created within the rate-limit interval. Returns whether
	// a row was inserted.
	CreateIfDue(n *models.Notification, interval time.Duration) (bool, error)
	GetPending() ([]*models.Notification, error)
	MarkProcessed(id int64, sendErr *string) error
	ListRecent(limit int) ([]*models.Notification, error)
}

type postgresNotificationStore struct {
	db *sqlx.DB
}

func NewNotifications(dbconn *sqlx.DB) NotificationStore {
	return &postgresNotificationStore{db: dbconn}
}

func (b *postgresNotificationStore) CreateIfDue(n *models.Notification, interval time.Duration) (bool, error) {
	stmt := `
	INSERT INTO notifications
	  (node_num, window_start, window_end, packet_count, threshold, categories_json, created_at, processed)
	SELECT $1, $2, $3, $4, $5, $6, $7, FALSE
	WHERE NOT EXISTS (
	  SELECT 1 FROM notifications
	  WHERE node_num = $1 AND window_start = $2 AND created_at > $7 - make_interval(secs => $8)
	);
	`

	res, err := b.db.Exec(stmt,
		n.NodeNum, n.WindowStart, n.WindowEnd,
		n.PacketCount, n.Threshold, n.CategoriesJSON,
		n.CreatedAt, interval.Seconds())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetPending returns undelivered alerts, oldest first.
func (b *postgresNotificationStore) GetPending() ([]*models.Notification, error) {
	stmt := selectNotifications + " WHERE NOT nt.processed ORDER BY nt.created_at;"
	var pending []*models.Notification
	err := b.db.Select(&pending, stmt)
	if err == sql.ErrNoRows {
		return []*models.Notification{}, nil
	}
	return pending, err
}

// MarkProcessed settles an alert after one delivery attempt. sendErr is nil
// when every bound chat received the message.
func (b *postgresNotificationStore) MarkProcessed(id int64, sendErr *string) error {
	stmt := `
	UPDATE notifications
	SET processed = TRUE, error = $1
	WHERE id = $2;
	`

	_, err := b.db.Exec(stmt, sendErr, id)
	return err
}

func (b *postgresNotificationStore) ListRecent(limit int) ([]*models.Notification, error) {
	stmt := selectNotifications + " ORDER BY nt.created_at DESC LIMIT $1;"
	var recent []*models.Notification
	err := b.db.Select(&recent, stmt, limit)
	if err == sql.ErrNoRows {
		return []*models.Notification{}, nil
	}
	return recent, err
}
