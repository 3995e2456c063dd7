package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"shareledger/internal/registry/models"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/audit"
)

// MaxRecentActivity caps the number of events RecentActivity returns.
const MaxRecentActivity = 500

// History returns the recorded changes to id, oldest first. An identity
// that was never changed has an empty history.
func (s *Service) History(ctx context.Context, id domain.Identity) (events []audit.Event, err error) {
	ctx, finish := s.begin(ctx, "history", attribute.String("identity", id.String()))
	defer func() { finish(err) }()

	if s.auditReader == nil {
		return nil, models.ErrHistoryUnavailable
	}
	events, err = s.auditReader.ListBySubject(ctx, id.String())
	if err != nil {
		return nil, translate(err)
	}
	return events, nil
}

// RecentActivity returns up to limit of the latest registry changes, newest
// first. Non-positive or oversized limits are clamped to MaxRecentActivity.
func (s *Service) RecentActivity(ctx context.Context, limit int) (events []audit.Event, err error) {
	ctx, finish := s.begin(ctx, "recent_activity", attribute.Int("limit", limit))
	defer func() { finish(err) }()

	if s.auditReader == nil {
		return nil, models.ErrHistoryUnavailable
	}
	if limit <= 0 || limit > MaxRecentActivity {
		limit = MaxRecentActivity
	}
	events, err = s.auditReader.ListRecent(ctx, limit)
	if err != nil {
		return nil, translate(err)
	}
	return events, nil
}
