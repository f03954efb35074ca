package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/model"
)

// DeckRepo implements DeckRepository using PostgreSQL.
type DeckRepo struct{ db *DB }

// NewDeckRepo constructs a deck repository.
func NewDeckRepo(db *DB) *DeckRepo { return &DeckRepo{db: db} }

// Create inserts a new deck row and fills the generated id.
func (r *DeckRepo) Create(ctx context.Context, d *model.Deck) error {
	const q = `
INSERT INTO decks (guid, user_id, deck_name)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, d.GUID, d.UserID, d.Name).
		Scan(&d.ID, &d.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// ListByUser returns the user's decks ordered by insertion (id ASC).
func (r *DeckRepo) ListByUser(ctx context.Context, userID int64) ([]model.Deck, error) {
	const q = `
SELECT id, guid, user_id, deck_name, card_count, created_at
FROM decks
WHERE user_id=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Deck
	for rows.Next() {
		var d model.Deck
		if err = rows.Scan(&d.ID, &d.GUID, &d.UserID, &d.Name, &d.CardCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetOwned selects a deck by id only when it belongs to the user.
func (r *DeckRepo) GetOwned(ctx context.Context, userID, deckID int64) (*model.Deck, error) {
	const q = `
SELECT id, guid, user_id, deck_name, card_count, created_at
FROM decks WHERE id=$1 AND user_id=$2`
	row := r.db.Pool.QueryRow(ctx, q, deckID, userID)
	var d model.Deck
	if err := row.Scan(&d.ID, &d.GUID, &d.UserID, &d.Name, &d.CardCount, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Rename updates the deck name. One conditional statement; zero affected
// rows means missing or foreign, reported identically.
func (r *DeckRepo) Rename(ctx context.Context, userID, deckID int64, name string) error {
	const q = `UPDATE decks SET deck_name=$3 WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, deckID, userID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the deck row; cards referencing it are removed by the
// ON DELETE CASCADE constraint.
func (r *DeckRepo) Delete(ctx context.Context, userID, deckID int64) error {
	const q = `DELETE FROM decks WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, deckID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
