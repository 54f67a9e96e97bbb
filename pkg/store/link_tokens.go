package store

import (
	"database/sql"
	"time"

	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/token"
	"github.com/jmoiron/sqlx"
)

var selectLinkTokens = `SELECT t.* FROM link_tokens t`

type LinkTokenStore interface {
	Create(chatID int64) (*models.LinkToken, error)
	Get(tok string) (*models.LinkToken, error)
	ListForChat(chatID int64) ([]*models.LinkToken, error)
}

type postgresLinkTokenStore struct {
	db *sqlx.DB
}

func NewLinkTokens(dbconn *sqlx.DB) LinkTokenStore {
	return &postgresLinkTokenStore{db: dbconn}
}

// Create mints a fresh single-use token for the chat. On the vanishingly
// rare collision with an existing token it retries with a new value.
func (b *postgresLinkTokenStore) Create(chatID int64) (*models.LinkToken, error) {
	stmt := `
	INSERT INTO link_tokens (token, chat_id, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (token) DO NOTHING;
	`

	for {
		tok, err := token.Generate()
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		res, err := b.db.Exec(stmt, tok, chatID, now)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			continue
		}
		return &models.LinkToken{Token: tok, ChatID: chatID, CreatedAt: now}, nil
	}
}

func (b *postgresLinkTokenStore) Get(tok string) (*models.LinkToken, error) {
	stmt := selectLinkTokens + " WHERE t.token = $1;"
	var lt models.LinkToken
	err := b.db.Get(&lt, stmt, tok)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &lt, err
}

func (b *postgresLinkTokenStore) ListForChat(chatID int64) ([]*models.LinkToken, error) {
	stmt := selectLinkTokens + " WHERE t.chat_id = $1 ORDER BY t.created_at DESC;"
	var tokens []*models.LinkToken
	err := b.db.Select(&tokens, stmt, chatID)
	if err == sql.ErrNoRows {
		return []*models.LinkToken{}, nil
	}
	return tokens, err
}
