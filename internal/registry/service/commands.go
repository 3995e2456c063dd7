package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/audit"
	"shareledger/pkg/platform/sentinel"
)

// Deploy creates the registry configuration with deployer as admin. A
// registry that is already deployed keeps its stored configuration.
func (s *Service) Deploy(ctx context.Context, deployer domain.Identity) (err error) {
	ctx, finish := s.begin(ctx, "deploy", attribute.String("deployer", deployer.String()))
	defer func() { finish(err) }()

	if !validIdentity(deployer) {
		return models.ErrInvalidIdentity
	}

	var existing *models.Config
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		cfg, err := tx.Config(ctx)
		if err == nil {
			existing = cfg
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return tx.SaveConfig(ctx, models.NewConfig(deployer, s.now(ctx)))
	})
	if err != nil {
		return translate(err)
	}

	if existing != nil {
		s.logger.InfoContext(ctx, "registry already deployed, keeping stored config",
			"admin", existing.Admin.String(),
		)
	} else {
		s.logger.InfoContext(ctx, "registry deployed", "admin", deployer.String())
	}
	s.syncShareholderGauge(ctx)
	return nil
}

func (s *Service) syncShareholderGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count shareholders", "error", err)
		return
	}
	s.metrics.SetShareholders(len(records))
}

// SetAdmin transfers the admin capability to newAdmin.
func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin domain.Identity) error {
	return s.mutate(ctx, "set_admin", caller, func(tx store.Store, cfg *models.Config) (change, error) {
		if !validIdentity(newAdmin) {
			return change{}, models.ErrInvalidIdentity
		}
		cfg.Admin = newAdmin
		cfg.UpdatedAt = s.now(ctx)
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return change{}, err
		}
		return change{event: audit.Event{
			Action: audit.ActionAdminChanged,
			Admin:  newAdmin.String(),
		}}, nil
	})
}

// SetRecordDate sets the date at which holdings are considered for votes.
// Any value is accepted.
func (s *Service) SetRecordDate(ctx context.Context, caller domain.Identity, date int64) error {
	return s.mutate(ctx, "set_record_date", caller, func(tx store.Store, cfg *models.Config) (change, error) {
		cfg.RecordDate = date
		cfg.UpdatedAt = s.now(ctx)
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return change{}, err
		}
		return change{event: audit.Event{
			Action:     audit.ActionRecordDateSet,
			RecordDate: &date,
		}}, nil
	})
}

// ToggleVoting flips the voting flag and returns its new value.
func (s *Service) ToggleVoting(ctx context.Context, caller domain.Identity) (bool, error) {
	var open bool
	err := s.mutate(ctx, "toggle_voting", caller, func(tx store.Store, cfg *models.Config) (change, error) {
		cfg.VotingOpen = !cfg.VotingOpen
		cfg.UpdatedAt = s.now(ctx)
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return change{}, err
		}
		open = cfg.VotingOpen
		return change{event: audit.Event{
			Action:     audit.ActionVotingToggled,
			VotingOpen: &open,
		}}, nil
	})
	if err != nil {
		return false, err
	}
	return open, nil
}

// RegisterShareholder adds id with the given share count. Zero shares are
// allowed; such a holder is registered but not eligible.
func (s *Service) RegisterShareholder(ctx context.Context, caller, id domain.Identity, shares int64) error {
	return s.mutate(ctx, "register_shareholder", caller, func(tx store.Store, _ *models.Config) (change, error) {
		if !validIdentity(id) {
			return change{}, models.ErrInvalidIdentity
		}
		if shares < 0 {
			return change{}, models.ErrInvalidShares
		}
		now := s.now(ctx)
		err := tx.Insert(ctx, &models.ShareRecord{
			Identity:     id,
			Shares:       shares,
			RegisteredAt: now,
			UpdatedAt:    now,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			return change{}, models.ErrAlreadyRegistered
		}
		if err != nil {
			return change{}, err
		}
		return change{
			event: audit.Event{
				Action:  audit.ActionShareholderRegistered,
				Subject: id.String(),
				Shares:  &shares,
			},
			holder:      id,
			shares:      shares,
			holderDelta: 1,
		}, nil
	})
}

// UpdateShares replaces the share count of a registered holder. Updating to
// zero keeps the record.
func (s *Service) UpdateShares(ctx context.Context, caller, id domain.Identity, shares int64) error {
	return s.mutate(ctx, "update_shares", caller, func(tx store.Store, _ *models.Config) (change, error) {
		if shares < 0 {
			return change{}, models.ErrInvalidShares
		}
		rec, err := tx.Find(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return change{}, models.ErrNotFound
		}
		if err != nil {
			return change{}, err
		}
		rec.Shares = shares
		rec.UpdatedAt = s.now(ctx)
		if err := tx.Update(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return change{}, models.ErrNotFound
			}
			return change{}, err
		}
		return change{
			event: audit.Event{
				Action:  audit.ActionSharesUpdated,
				Subject: id.String(),
				Shares:  &shares,
			},
			holder: id,
			shares: shares,
		}, nil
	})
}

// RemoveShareholder deletes the record of id.
func (s *Service) RemoveShareholder(ctx context.Context, caller, id domain.Identity) error {
	return s.mutate(ctx, "remove_shareholder", caller, func(tx store.Store, _ *models.Config) (change, error) {
		err := tx.Delete(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return change{}, models.ErrNotFound
		}
		if err != nil {
			return change{}, err
		}
		return change{
			event: audit.Event{
				Action:  audit.ActionShareholderRemoved,
				Subject: id.String(),
			},
			holder:      id,
			holderDelta: -1,
		}, nil
	})
}
