// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/deck-keeper/internal/review"
)

// Tokens collects issued session tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server.
type User struct {
	ID        int64  // internal PK, never exposed
	Username  string // unique
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	CreatedAt time.Time
}

// Deck is a named collection of cards owned by one user.
// GUID is the only identifier clients ever see; it is immutable.
type Deck struct {
	ID        int64
	GUID      uuid.UUID
	UserID    int64
	Name      string
	CardCount int // denormalized, maintained by card add/delete
	CreatedAt time.Time
}

// Card belongs to exactly one deck and carries its review state.
type Card struct {
	ID        int64
	GUID      uuid.UUID
	UserID    int64
	DeckID    int64
	Front     string
	Back      string
	Review    review.State
	CreatedAt time.Time
}

// CardPatch holds the mutable card fields for a partial update.
// Nil means "leave unchanged".
type CardPatch struct {
	Front *string
	Back  *string
}
