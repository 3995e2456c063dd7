package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
)

// GetShares returns the share count of id, or 0 when id is not registered.
func (s *Service) GetShares(ctx context.Context, id domain.Identity) (shares int64, err error) {
	ctx, finish := s.begin(ctx, "get_shares", attribute.String("identity", id.String()))
	defer func() { finish(err) }()

	return s.lookupShares(ctx, id)
}

// IsEligible reports whether id is registered with a positive share count.
func (s *Service) IsEligible(ctx context.Context, id domain.Identity) (eligible bool, err error) {
	ctx, finish := s.begin(ctx, "is_eligible", attribute.String("identity", id.String()))
	defer func() { finish(err) }()

	shares, err := s.lookupShares(ctx, id)
	if err != nil {
		return false, err
	}
	return shares > 0, nil
}

func (s *Service) IsVotingOpen(ctx context.Context) (open bool, err error) {
	ctx, finish := s.begin(ctx, "is_voting_open")
	defer func() { finish(err) }()

	cfg, err := s.config(ctx)
	if err != nil {
		return false, err
	}
	return cfg.VotingOpen, nil
}

// GetRecordDate returns the record date; 0 means it was never set.
func (s *Service) GetRecordDate(ctx context.Context) (date int64, err error) {
	ctx, finish := s.begin(ctx, "get_record_date")
	defer func() { finish(err) }()

	cfg, err := s.config(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.RecordDate, nil
}

func (s *Service) GetAdmin(ctx context.Context) (admin domain.Identity, err error) {
	ctx, finish := s.begin(ctx, "get_admin")
	defer func() { finish(err) }()

	cfg, err := s.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Admin, nil
}

// ListShareholders returns every registered holder ordered by identity,
// including zero-share holders.
func (s *Service) ListShareholders(ctx context.Context) (records []*models.ShareRecord, err error) {
	ctx, finish := s.begin(ctx, "list_shareholders")
	defer func() { finish(err) }()

	records, err = s.store.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// Snapshot reads the configuration and holder totals in one transaction.
func (s *Service) Snapshot(ctx context.Context) (snap *models.Snapshot, err error) {
	ctx, finish := s.begin(ctx, "snapshot")
	defer func() { finish(err) }()

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		records, err := tx.List(ctx)
		if err != nil {
			return err
		}
		snap = &models.Snapshot{
			Admin:            cfg.Admin,
			RecordDate:       cfg.RecordDate,
			VotingOpen:       cfg.VotingOpen,
			ShareholderCount: len(records),
		}
		for _, rec := range records {
			snap.TotalShares += rec.Shares
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

func (s *Service) config(ctx context.Context) (*models.Config, error) {
	cfg, err := loadConfig(ctx, s.store)
	if err != nil {
		return nil, translate(err)
	}
	return cfg, nil
}
