package repository

import (
	"context"

	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/review"
)

// CardRepository provides CRUD access to cards scoped by owner and deck.
// The parent deck's card_count is maintained in the same transaction as
// the card insert/delete.
type CardRepository interface {
	// Create inserts a card and increments the parent deck's card_count.
	// The deck must belong to the card's user.
	Create(ctx context.Context, c *model.Card) error
	// ListByDeck returns the deck's cards in insertion order.
	ListByDeck(ctx context.Context, userID, deckID int64) ([]model.Card, error)
	// ListDue returns cards in the deck with next_review at or before now.
	ListDue(ctx context.Context, userID, deckID, now int64) ([]model.Card, error)
	// GetOwned loads a card only if it belongs to the user.
	GetOwned(ctx context.Context, userID, cardID int64) (*model.Card, error)
	// Patch updates only the non-nil fields, leaving review state untouched.
	Patch(ctx context.Context, userID, cardID int64, p model.CardPatch) error
	// SetReviewState persists a new review state for the card.
	SetReviewState(ctx context.Context, userID, cardID int64, st review.State) error
	// Delete removes the card and decrements the parent deck's card_count.
	Delete(ctx context.Context, userID, cardID int64) error
}
