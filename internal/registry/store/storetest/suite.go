// Package storetest holds the behavioural contract every registry store
// backend must satisfy. Backends run it from their own test files.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/sentinel"
)

const (
	Admin  = domain.Identity("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	Holder = domain.Identity("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
	Other  = domain.Identity("ST3AM1A56AK2C1XAFJ4115ZSV26EB49BVQ10MGCS0")
)

var errAbort = errors.New("abort transaction")

// StoreSuite exercises a TxStore. NewStore must return an empty store.
type StoreSuite struct {
	suite.Suite
	NewStore func() store.TxStore

	store store.TxStore
	ctx   context.Context
	now   time.Time
}

func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.now = time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) record(id domain.Identity, shares int64) *models.ShareRecord {
	return &models.ShareRecord{
		Identity:     id,
		Shares:       shares,
		RegisteredAt: s.now,
		UpdatedAt:    s.now,
	}
}

// TestConfig verifies config lifecycle from undeployed to saved.
func (s *StoreSuite) TestConfig() {
	s.Run("returns ErrNotFound before deployment", func() {
		_, err := s.store.Config(s.ctx)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("saves and overwrites config", func() {
		cfg := models.NewConfig(Admin, s.now)
		s.Require().NoError(s.store.SaveConfig(s.ctx, cfg))

		cfg.RecordDate = 20230101
		cfg.VotingOpen = true
		cfg.Admin = Other
		s.Require().NoError(s.store.SaveConfig(s.ctx, cfg))

		got, err := s.store.Config(s.ctx)
		s.Require().NoError(err)
		s.Equal(Other, got.Admin)
		s.Equal(int64(20230101), got.RecordDate)
		s.True(got.VotingOpen)
	})
}

// TestRecords verifies record CRUD and the sentinel contract.
func (s *StoreSuite) TestRecords() {
	s.Run("inserts and finds", func() {
		s.Require().NoError(s.store.Insert(s.ctx, s.record(Holder, 100)))

		got, err := s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
		s.Equal(int64(100), got.Shares)
		s.True(got.RegisteredAt.Equal(s.now))
	})

	s.Run("rejects duplicate insert", func() {
		err := s.store.Insert(s.ctx, s.record(Holder, 5))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
		s.Equal(int64(100), got.Shares, "duplicate insert must not overwrite")
	})

	s.Run("updates existing record including to zero", func() {
		rec := s.record(Holder, 0)
		s.Require().NoError(s.store.Update(s.ctx, rec))

		got, err := s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
		s.Zero(got.Shares)
	})

	s.Run("update and delete report missing records", func() {
		s.Require().ErrorIs(s.store.Update(s.ctx, s.record(Other, 1)), sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, Other), sentinel.ErrNotFound)
		_, err := s.store.Find(s.ctx, Other)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deletes record", func() {
		s.Require().NoError(s.store.Delete(s.ctx, Holder))
		_, err := s.store.Find(s.ctx, Holder)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestList verifies ordering by identity.
func (s *StoreSuite) TestList() {
	empty, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	for _, id := range []domain.Identity{Other, Admin, Holder} {
		s.Require().NoError(s.store.Insert(s.ctx, s.record(id, 10)))
	}

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(Admin, got[0].Identity)
	s.Equal(Holder, got[1].Identity)
	s.Equal(Other, got[2].Identity)
}

// TestTransactions verifies all-or-nothing semantics of RunInTx.
func (s *StoreSuite) TestTransactions() {
	s.Require().NoError(s.store.SaveConfig(s.ctx, models.NewConfig(Admin, s.now)))

	s.Run("commits on success", func() {
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.Insert(s.ctx, s.record(Holder, 50)); err != nil {
				return err
			}
			cfg, err := tx.Config(s.ctx)
			if err != nil {
				return err
			}
			cfg.VotingOpen = true
			return tx.SaveConfig(s.ctx, cfg)
		})
		s.Require().NoError(err)

		got, err := s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
		s.Equal(int64(50), got.Shares)
		cfg, err := s.store.Config(s.ctx)
		s.Require().NoError(err)
		s.True(cfg.VotingOpen)
	})

	s.Run("rolls back every write on error", func() {
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.Insert(s.ctx, s.record(Other, 7)); err != nil {
				return err
			}
			if err := tx.Update(s.ctx, s.record(Holder, 999)); err != nil {
				return err
			}
			cfg, err := tx.Config(s.ctx)
			if err != nil {
				return err
			}
			cfg.Admin = Other
			if err := tx.SaveConfig(s.ctx, cfg); err != nil {
				return err
			}
			return errAbort
		})
		s.Require().ErrorIs(err, errAbort)

		_, err = s.store.Find(s.ctx, Other)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		got, err := s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
		s.Equal(int64(50), got.Shares)
		cfg, err := s.store.Config(s.ctx)
		s.Require().NoError(err)
		s.Equal(Admin, cfg.Admin)
	})

	s.Run("reads inside a transaction see its own writes", func() {
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.Delete(s.ctx, Holder); err != nil {
				return err
			}
			_, err := tx.Find(s.ctx, Holder)
			s.ErrorIs(err, sentinel.ErrNotFound)
			return errAbort
		})
		s.Require().ErrorIs(err, errAbort)

		_, err = s.store.Find(s.ctx, Holder)
		s.Require().NoError(err)
	})
}
