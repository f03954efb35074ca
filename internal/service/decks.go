package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/repository"
)

// DeckService defines deck operations scoped to the owning user.
type DeckService interface {
	// Add creates a deck with a fresh GUID and returns it.
	Add(ctx context.Context, userID int64, name string) (*model.Deck, error)
	// List returns the user's decks in creation order.
	List(ctx context.Context, userID int64) ([]model.Deck, error)
	// Rename changes the deck name; missing and foreign decks are one error.
	Rename(ctx context.Context, userID int64, guid uuid.UUID, name string) error
	// Delete removes the deck and every card in it.
	Delete(ctx context.Context, userID int64, guid uuid.UUID) error
}

type DeckServiceImpl struct {
	decks    repository.DeckRepository
	resolver repository.GUIDResolver
}

// NewDeckService constructs DeckService.
func NewDeckService(decks repository.DeckRepository, resolver repository.GUIDResolver) *DeckServiceImpl {
	return &DeckServiceImpl{decks: decks, resolver: resolver}
}

// Add creates a deck owned by the user.
func (s *DeckServiceImpl) Add(ctx context.Context, userID int64, name string) (*model.Deck, error) {
	if name == "" {
		return nil, errors.New("validation: empty deck name")
	}
	guid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	d := &model.Deck{GUID: guid, UserID: userID, Name: name}
	if err := s.decks.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns the user's decks ordered by insertion.
func (s *DeckServiceImpl) List(ctx context.Context, userID int64) ([]model.Deck, error) {
	return s.decks.ListByUser(ctx, userID)
}

// Rename resolves the GUID and applies a single conditional update.
// An empty name keeps the current one; the request still verifies the
// deck exists and belongs to the caller.
func (s *DeckServiceImpl) Rename(ctx context.Context, userID int64, guid uuid.UUID, name string) error {
	id, err := s.resolver.Resolve(ctx, repository.TableDecks, guid)
	if err != nil {
		return err
	}
	if name == "" {
		_, err := s.decks.GetOwned(ctx, userID, id)
		return err
	}
	return s.decks.Rename(ctx, userID, id, name)
}

// Delete resolves the GUID and removes the deck with its cards.
func (s *DeckServiceImpl) Delete(ctx context.Context, userID int64, guid uuid.UUID) error {
	id, err := s.resolver.Resolve(ctx, repository.TableDecks, guid)
	if err != nil {
		return err
	}
	return s.decks.Delete(ctx, userID, id)
}
