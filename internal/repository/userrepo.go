// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/deck-keeper/internal/model"
)

// UserRepository provides account storage.
type UserRepository interface {
	// Create inserts a new user and fills the generated internal id.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}
