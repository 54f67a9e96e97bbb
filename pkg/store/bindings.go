package store

import (
	"database/sql"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/jmoiron/sqlx"
)

type BindingStore interface {
	// BindWithToken consumes the token and binds its chat to the node in a
	// single transaction. bound is false when the token is unknown or
	// already consumed.
	BindWithToken(tok string, node *models.Node) (chatID int64, bound bool, err error)
	GetChatsForNode(nodeNum string) ([]*models.ChatBinding, error)
	ListForChat(chatID int64) ([]*models.NodeChatMapping, error)
	SetLocalName(nodeNum string, chatID int64, localName string) error
	Unbind(nodeNum string, chatID int64) (bool, error)
}

type postgresBindingStore struct {
	db *sqlx.DB
}

func NewBindings(dbconn *sqlx.DB) BindingStore {
	return &postgresBindingStore{db: dbconn}
}

func (b *postgresBindingStore) BindWithToken(tok string, node *models.Node) (int64, bool, error) {
	tx, err := b.db.Beginx()
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	consumeStmt := `
	UPDATE link_tokens
	SET consumed_at = $1
	WHERE token = $2 AND consumed_at IS NULL
	RETURNING chat_id;
	`

	var chatID int64
	err = tx.Get(&chatID, consumeStmt, now, tok)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	nodeStmt := `
	INSERT INTO nodes (node_num, short_name, long_name, loraitalia_id, created_at, updated_at)
	VALUES (:node_num, :short_name, :long_name, :loraitalia_id, :created_at, :updated_at)
	ON CONFLICT (node_num) DO UPDATE
	SET short_name    = COALESCE(EXCLUDED.short_name, nodes.short_name),
	    long_name     = COALESCE(EXCLUDED.long_name, nodes.long_name),
	    loraitalia_id = COALESCE(EXCLUDED.loraitalia_id, nodes.loraitalia_id),
	    updated_at    = EXCLUDED.updated_at;
	`

	if _, err := tx.NamedExec(nodeStmt, node); err != nil {
		return 0, false, err
	}

	bindStmt := `
	INSERT INTO node_chat_mappings (node_num, chat_id, created_at, verified_at)
	VALUES ($1, $2, $3, $3)
	ON CONFLICT (node_num, chat_id) DO UPDATE
	SET verified_at = EXCLUDED.verified_at;
	`

	if _, err := tx.Exec(bindStmt, node.NodeNum, chatID, now); err != nil {
		return 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return chatID, true, nil
}

// GetChatsForNode returns every chat bound to the node, each with the name
// the alert should use. The chat's local override wins over the
// directory names.
func (b *postgresBindingStore) GetChatsForNode(nodeNum string) ([]*models.ChatBinding, error) {
	stmt := `
	SELECT m.chat_id,
	       COALESCE(NULLIF(m.local_name, ''), NULLIF(n.long_name, ''), NULLIF(n.short_name, ''), n.node_num) AS display_name
	FROM node_chat_mappings m
	JOIN nodes n ON n.node_num = m.node_num
	WHERE m.node_num = $1
	ORDER BY m.chat_id;
	`

	var bindings []*models.ChatBinding
	err := b.db.Select(&bindings, stmt, nodeNum)
	if err == sql.ErrNoRows {
		return []*models.ChatBinding{}, nil
	}
	return bindings, err
}

func (b *postgresBindingStore) ListForChat(chatID int64) ([]*models.NodeChatMapping, error) {
	stmt := `SELECT m.* FROM node_chat_mappings m WHERE m.chat_id = $1 ORDER BY m.node_num;`
	var mappings []*models.NodeChatMapping
	err := b.db.Select(&mappings, stmt, chatID)
	if err == sql.ErrNoRows {
		return []*models.NodeChatMapping{}, nil
	}
	return mappings, err
}

func (b *postgresBindingStore) SetLocalName(nodeNum string, chatID int64, localName string) error {
	stmt := `
	UPDATE node_chat_mappings
	SET local_name = $1
	WHERE node_num = $2 AND chat_id = $3;
	`

	_, err := b.db.Exec(stmt, localName, nodeNum, chatID)
	return err
}

func (b *postgresBindingStore) Unbind(nodeNum string, chatID int64) (bool, error) {
	stmt := `DELETE FROM node_chat_mappings WHERE node_num = $1 AND chat_id = $2;`

	res, err := b.db.Exec(stmt, nodeNum, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
