// Package store defines the persistence contract of the shareholder registry.
//
// Stores are pure I/O. They report infrastructure facts through
// pkg/platform/sentinel and leave authorization and validation to the
// registry service.
package store

import (
	"context"

	"shareledger/internal/registry/models"
	"shareledger/pkg/domain"
)

// Store reads and writes registry state.
type Store interface {
	// Config returns sentinel.ErrNotFound before the registry is deployed.
	Config(ctx context.Context) (*models.Config, error)
	SaveConfig(ctx context.Context, cfg *models.Config) error

	// Find returns sentinel.ErrNotFound for unknown identities.
	Find(ctx context.Context, id domain.Identity) (*models.ShareRecord, error)
	// Insert returns sentinel.ErrConflict when the identity is present.
	Insert(ctx context.Context, record *models.ShareRecord) error
	// Update returns sentinel.ErrNotFound when the identity is absent.
	Update(ctx context.Context, record *models.ShareRecord) error
	// Delete returns sentinel.ErrNotFound when the identity is absent.
	Delete(ctx context.Context, id domain.Identity) error
	// List returns all records ordered by identity.
	List(ctx context.Context) ([]*models.ShareRecord, error)
}

// TxStore runs fn atomically: either every write made through the Store
// handed to fn is applied, or none is. Mutations on one TxStore are
// serialized.
type TxStore interface {
	Store
	RunInTx(ctx context.Context, fn func(s Store) error) error
}
