package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/review"
)

// CardRepo implements CardRepository using PostgreSQL.
type CardRepo struct{ db *DB }

// NewCardRepo constructs a card repository.
func NewCardRepo(db *DB) *CardRepo { return &CardRepo{db: db} }

const cardColumns = `
id, guid, user_id, deck_id, card_front, card_back,
last_review, next_review, cur_interval, learning_step, status, created_at`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	err := row.Scan(
		&c.ID, &c.GUID, &c.UserID, &c.DeckID, &c.Front, &c.Back,
		&c.Review.LastReview, &c.Review.NextReview, &c.Review.Interval,
		&c.Review.LearningStep, &c.Review.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a card and bumps the parent deck's counter in one
// transaction. The counter update doubles as the ownership check: zero
// affected rows means the deck is missing or belongs to someone else.
func (r *CardRepo) Create(ctx context.Context, c *model.Card) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const bump = `UPDATE decks SET card_count = card_count + 1 WHERE id=$1 AND user_id=$2`
	tag, err := tx.Exec(ctx, bump, c.DeckID, c.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	const ins = `
INSERT INTO cards (guid, user_id, deck_id, card_front, card_back,
                   last_review, next_review, cur_interval, learning_step, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at`
	return tx.QueryRow(ctx, ins,
		c.GUID, c.UserID, c.DeckID, c.Front, c.Back,
		c.Review.LastReview, c.Review.NextReview, c.Review.Interval,
		c.Review.LearningStep, c.Review.Status,
	).Scan(&c.ID, &c.CreatedAt)
}

// ListByDeck returns the deck's cards ordered by insertion (id ASC).
func (r *CardRepo) ListByDeck(ctx context.Context, userID, deckID int64) ([]model.Card, error) {
	const q = `
SELECT ` + cardColumns + `
FROM cards
WHERE deck_id=$1 AND user_id=$2
ORDER BY id ASC`
	return r.queryCards(ctx, q, deckID, userID)
}

// ListDue returns cards in the deck due at or before the given Unix time.
func (r *CardRepo) ListDue(ctx context.Context, userID, deckID, now int64) ([]model.Card, error) {
	const q = `
SELECT ` + cardColumns + `
FROM cards
WHERE deck_id=$1 AND user_id=$2 AND next_review<=$3
ORDER BY next_review ASC, id ASC`
	return r.queryCards(ctx, q, deckID, userID, now)
}

func (r *CardRepo) queryCards(ctx context.Context, q string, args ...any) ([]model.Card, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetOwned selects a card by id only when it belongs to the user.
func (r *CardRepo) GetOwned(ctx context.Context, userID, cardID int64) (*model.Card, error) {
	const q = `
SELECT ` + cardColumns + `
FROM cards WHERE id=$1 AND user_id=$2`
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, cardID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Patch updates only the supplied fields; nil pointers become NULL and
// COALESCE keeps the stored value. Review state is never touched here.
func (r *CardRepo) Patch(ctx context.Context, userID, cardID int64, p model.CardPatch) error {
	const q = `
UPDATE cards
SET card_front = COALESCE($3, card_front),
    card_back  = COALESCE($4, card_back)
WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, cardID, userID, p.Front, p.Back)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetReviewState persists the scheduling fields produced by a review policy.
func (r *CardRepo) SetReviewState(ctx context.Context, userID, cardID int64, st review.State) error {
	const q = `
UPDATE cards
SET last_review=$3, next_review=$4, cur_interval=$5, learning_step=$6, status=$7
WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, cardID, userID,
		st.LastReview, st.NextReview, st.Interval, st.LearningStep, st.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the card and decrements the parent deck's counter in one
// transaction.
func (r *CardRepo) Delete(ctx context.Context, userID, cardID int64) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const del = `DELETE FROM cards WHERE id=$1 AND user_id=$2 RETURNING deck_id`
	var deckID int64
	if err = tx.QueryRow(ctx, del, cardID, userID).Scan(&deckID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}

	const drop = `UPDATE decks SET card_count = card_count - 1 WHERE id=$1`
	_, err = tx.Exec(ctx, drop, deckID)
	return err
}
