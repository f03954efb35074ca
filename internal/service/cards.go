package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/repository"
	"github.com/and161185/deck-keeper/internal/review"
)

// CardService defines card operations scoped to the owning user and deck.
type CardService interface {
	// Add creates a card in the deck with a fresh review state.
	Add(ctx context.Context, userID int64, deckGUID uuid.UUID, front, back string) (*model.Card, error)
	// List returns the deck's cards in creation order.
	List(ctx context.Context, userID int64, deckGUID uuid.UUID) ([]model.Card, error)
	// ListDue returns the deck's cards due for review at the given time.
	ListDue(ctx context.Context, userID int64, deckGUID uuid.UUID, now time.Time) ([]model.Card, error)
	// Update patches only the supplied fields, leaving review state intact.
	Update(ctx context.Context, userID int64, cardGUID uuid.UUID, p model.CardPatch) error
	// Delete removes the card and updates the deck's counter.
	Delete(ctx context.Context, userID int64, cardGUID uuid.UUID) error
	// Review applies the scheduling policy to one answer and persists
	// the resulting state.
	Review(ctx context.Context, userID int64, cardGUID uuid.UUID, grade review.Grade, now time.Time) (review.State, error)
}

type CardServiceImpl struct {
	cards    repository.CardRepository
	decks    repository.DeckRepository
	resolver repository.GUIDResolver
	policy   review.Policy
}

// NewCardService constructs CardService with the given scheduling policy.
func NewCardService(
	cards repository.CardRepository,
	decks repository.DeckRepository,
	resolver repository.GUIDResolver,
	policy review.Policy,
) *CardServiceImpl {
	if policy == nil {
		policy = review.DefaultStepPolicy()
	}
	return &CardServiceImpl{cards: cards, decks: decks, resolver: resolver, policy: policy}
}

// Add creates a card in the resolved deck. Front/back may be empty, matching
// the create-then-fill flow of the client.
func (s *CardServiceImpl) Add(ctx context.Context, userID int64, deckGUID uuid.UUID, front, back string) (*model.Card, error) {
	deckID, err := s.resolver.Resolve(ctx, repository.TableDecks, deckGUID)
	if err != nil {
		return nil, err
	}
	guid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Card{
		GUID:   guid,
		UserID: userID,
		DeckID: deckID,
		Front:  front,
		Back:   back,
		Review: review.NewState(),
	}
	if err := s.cards.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the deck's cards after confirming deck ownership.
func (s *CardServiceImpl) List(ctx context.Context, userID int64, deckGUID uuid.UUID) ([]model.Card, error) {
	deckID, err := s.ownedDeck(ctx, userID, deckGUID)
	if err != nil {
		return nil, err
	}
	return s.cards.ListByDeck(ctx, userID, deckID)
}

// ListDue returns the deck's cards whose next_review is at or before now.
func (s *CardServiceImpl) ListDue(ctx context.Context, userID int64, deckGUID uuid.UUID, now time.Time) ([]model.Card, error) {
	deckID, err := s.ownedDeck(ctx, userID, deckGUID)
	if err != nil {
		return nil, err
	}
	return s.cards.ListDue(ctx, userID, deckID, now.Unix())
}

// Update patches the card's text fields with a single conditional statement.
// An all-nil patch is a no-op that still verifies the card exists and
// belongs to the caller.
func (s *CardServiceImpl) Update(ctx context.Context, userID int64, cardGUID uuid.UUID, p model.CardPatch) error {
	cardID, err := s.resolver.Resolve(ctx, repository.TableCards, cardGUID)
	if err != nil {
		return err
	}
	return s.cards.Patch(ctx, userID, cardID, p)
}

// Delete removes the card.
func (s *CardServiceImpl) Delete(ctx context.Context, userID int64, cardGUID uuid.UUID) error {
	cardID, err := s.resolver.Resolve(ctx, repository.TableCards, cardGUID)
	if err != nil {
		return err
	}
	return s.cards.Delete(ctx, userID, cardID)
}

// Review reads the card's current state, asks the policy for the next one,
// and persists it. The write is conditional on id and owner, so a concurrent
// delete surfaces as ErrNotFound instead of resurrecting the row.
func (s *CardServiceImpl) Review(ctx context.Context, userID int64, cardGUID uuid.UUID, grade review.Grade, now time.Time) (review.State, error) {
	cardID, err := s.resolver.Resolve(ctx, repository.TableCards, cardGUID)
	if err != nil {
		return review.State{}, err
	}
	c, err := s.cards.GetOwned(ctx, userID, cardID)
	if err != nil {
		return review.State{}, err
	}
	next := s.policy.Next(c.Review, grade, now)
	if err := s.cards.SetReviewState(ctx, userID, cardID, next); err != nil {
		return review.State{}, err
	}
	return next, nil
}

func (s *CardServiceImpl) ownedDeck(ctx context.Context, userID int64, deckGUID uuid.UUID) (int64, error) {
	deckID, err := s.resolver.Resolve(ctx, repository.TableDecks, deckGUID)
	if err != nil {
		return 0, err
	}
	if _, err := s.decks.GetOwned(ctx, userID, deckID); err != nil {
		return 0, err
	}
	return deckID, nil
}
