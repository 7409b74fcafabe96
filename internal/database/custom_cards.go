// internal/database/custom_cards.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/e-crumb/blanks/internal/game"
)

// CustomCardStore holds player-submitted cards awaiting approval and
// serves the approved set to the content provider. It satisfies
// content.CustomCardSource.
//
// Schema:
//
//	CREATE TABLE custom_cards (
//	    id           BIGSERIAL PRIMARY KEY,
//	    card_type    TEXT        NOT NULL,
//	    text         TEXT        NOT NULL,
//	    nsfw         BOOLEAN     NOT NULL DEFAULT FALSE,
//	    submitted_by TEXT        NOT NULL,
//	    approved     BOOLEAN     NOT NULL DEFAULT FALSE,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    UNIQUE (card_type, text)
//	);
type CustomCardStore struct {
	pool *pgxpool.Pool

	// queryTimeout bounds provider-path queries so a slow database cannot
	// stall a session operation indefinitely.
	queryTimeout time.Duration
}

// NewCustomCardStore wraps a connected pool.
func NewCustomCardStore(pool *pgxpool.Pool) *CustomCardStore {
	return &CustomCardStore{pool: pool, queryTimeout: 3 * time.Second}
}

// Submit files a new card for approval. Duplicate texts are rejected by
// the unique constraint.
func (s *CustomCardStore) Submit(ctx context.Context, t game.CardType, text string, nsfw bool, submittedBy string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO custom_cards (card_type, text, nsfw, submitted_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(t), text, nsfw, submittedBy, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert custom card: %w", err)
	}
	return nil
}

// Approve marks a pending card as approved, returning whether a row
// changed.
func (s *CustomCardStore) Approve(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE custom_cards SET approved = TRUE WHERE id = $1 AND NOT approved`, id)
	if err != nil {
		return false, fmt.Errorf("approve custom card: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PendingCard is one row of the approval queue.
type PendingCard struct {
	ID          int64         `json:"id"`
	Type        game.CardType `json:"type"`
	Text        string        `json:"text"`
	NSFW        bool          `json:"nsfw"`
	SubmittedBy string        `json:"submittedBy"`
}

// Pending lists cards awaiting approval, oldest first.
func (s *CustomCardStore) Pending(ctx context.Context) ([]PendingCard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, card_type, text, nsfw, submitted_by
		 FROM custom_cards WHERE NOT approved ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending custom cards: %w", err)
	}
	defer rows.Close()

	var out []PendingCard
	for rows.Next() {
		var c PendingCard
		var cardType string
		if err := rows.Scan(&c.ID, &cardType, &c.Text, &c.NSFW, &c.SubmittedBy); err != nil {
			return nil, fmt.Errorf("scan pending custom card: %w", err)
		}
		c.Type = game.CardType(cardType)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ApprovedCards returns approved texts for the pool under the content
// mode. Called from inside session operations, so it carries its own
// timeout rather than a caller context.
func (s *CustomCardStore) ApprovedCards(t game.CardType, allowSensitive bool) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT text FROM custom_cards
		 WHERE approved AND card_type = $1 AND (NOT nsfw OR $2)`,
		string(t), allowSensitive)
	if err != nil {
		return nil, fmt.Errorf("list approved custom cards: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan approved custom card: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}
