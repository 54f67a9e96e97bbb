package store

import (
	"database/sql"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/jmoiron/sqlx"
)

var selectNodes = `SELECT n.* FROM nodes n`

type NodeStore interface {
	Get(nodeNum string) (*models.Node, error)
	EnsureExists(nodeNum string, now time.Time) error
	Upsert(node *models.Node) error
	ListOverview() ([]*models.NodeOverview, error)
}

type postgresNodeStore struct {
	db *sqlx.DB
}

func NewNodes(dbconn *sqlx.DB) NodeStore {
	return &postgresNodeStore{db: dbconn}
}

func (b *postgresNodeStore) Get(nodeNum string) (*models.Node, error) {
	stmt := selectNodes + " WHERE n.node_num = $1;"
	var node models.Node
	err := b.db.Get(&node, stmt, nodeNum)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &node, err
}

// EnsureExists records a node the first time it is heard, leaving any
// existing row untouched.
func (b *postgresNodeStore) EnsureExists(nodeNum string, now time.Time) error {
	stmt := `
	INSERT INTO nodes (node_num, created_at, updated_at)
	VALUES ($1, $2, $2)
	ON CONFLICT (node_num) DO NOTHING;
	`

	_, err := b.db.Exec(stmt, nodeNum, now)
	return err
}

// Upsert merges known directory details into the node row. Nil fields never
// overwrite previously stored values.
func (b *postgresNodeStore) Upsert(node *models.Node) error {
	stmt := `
	INSERT INTO nodes (node_num, short_name, long_name, loraitalia_id, created_at, updated_at)
	VALUES (:node_num, :short_name, :long_name, :loraitalia_id, :created_at, :updated_at)
	ON CONFLICT (node_num) DO UPDATE
	SET short_name    = COALESCE(EXCLUDED.short_name, nodes.short_name),
	    long_name     = COALESCE(EXCLUDED.long_name, nodes.long_name),
	    loraitalia_id = COALESCE(EXCLUDED.loraitalia_id, nodes.loraitalia_id),
	    updated_at    = EXCLUDED.updated_at;
	`

	_, err := b.db.NamedExec(stmt, node)
	return err
}

func (b *postgresNodeStore) ListOverview() ([]*models.NodeOverview, error) {
	stmt := `
	SELECT n.node_num,
	       COALESCE(NULLIF(n.long_name, ''), NULLIF(n.short_name, ''), n.node_num) AS display_name,
	       n.short_name,
	       n.long_name,
	       COUNT(m.id) AS bindings
	FROM nodes n
	LEFT JOIN node_chat_mappings m ON m.node_num = n.node_num
	GROUP BY n.node_num, n.short_name, n.long_name
	ORDER BY n.node_num;
	`

	var overviews []*models.NodeOverview
	err := b.db.Select(&overviews, stmt)
	if err == sql.ErrNoRows {
		return []*models.NodeOverview{}, nil
	}
	return overviews, err
}
