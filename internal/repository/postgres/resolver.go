package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/repository"
)

// Resolver maps externally exposed GUIDs to internal row ids.
// Table names come from a fixed allow-list; nothing reaches SQL unchecked.
type Resolver struct{ db *DB }

// NewResolver constructs a GUID resolver.
func NewResolver(db *DB) *Resolver { return &Resolver{db: db} }

var resolveQueries = map[string]string{
	repository.TableDecks: `SELECT id FROM decks WHERE guid=$1`,
	repository.TableCards: `SELECT id FROM cards WHERE guid=$1`,
}

// Resolve returns the internal id matching the GUID, or errs.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, table string, guid uuid.UUID) (int64, error) {
	q, ok := resolveQueries[table]
	if !ok {
		return 0, fmt.Errorf("resolver: unknown table %q", table)
	}
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, guid).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}
