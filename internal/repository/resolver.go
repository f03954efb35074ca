package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// GUIDResolver maps an externally exposed GUID to the internal row id of a
// table. A missing row is a normal outcome reported as errs.ErrNotFound,
// never a panic or an opaque failure.
type GUIDResolver interface {
	Resolve(ctx context.Context, table string, guid uuid.UUID) (int64, error)
}

// Tables known to the resolver.
const (
	TableDecks = "decks"
	TableCards = "cards"
)
