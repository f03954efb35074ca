package repository

import (
	"context"

	"github.com/and161185/deck-keeper/internal/model"
)

// DeckRepository provides CRUD access to decks scoped by owner.
// Every mutation filters on both id and user_id so a missing row and a
// foreign row produce the same ErrNotFound.
type DeckRepository interface {
	// Create inserts a new deck and fills the generated internal id.
	Create(ctx context.Context, d *model.Deck) error
	// ListByUser returns the owner's decks in insertion order.
	ListByUser(ctx context.Context, userID int64) ([]model.Deck, error)
	// GetOwned loads a deck only if it belongs to the user.
	GetOwned(ctx context.Context, userID, deckID int64) (*model.Deck, error)
	// Rename updates the deck name with a single conditional statement.
	Rename(ctx context.Context, userID, deckID int64, name string) error
	// Delete removes the deck; its cards go with it (FK cascade).
	Delete(ctx context.Context, userID, deckID int64) error
}
