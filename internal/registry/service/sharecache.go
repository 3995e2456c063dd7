package service

import (
	"context"
	"errors"

	"shareledger/pkg/domain"
	"shareledger/pkg/platform/sentinel"
)

// Cache lookup results.
const (
	cacheHit    = "hit"
	cacheMiss   = "miss"
	cacheError  = "error"
	cacheBypass = "bypass"
)

// lookupShares reads through the cache when one is configured. An absent
// identity is cached as 0, which is indistinguishable from a zero-share
// holder for both queries. On a miss the write version is sampled before the
// store read, and the fill is dropped if a mutation bumped it meanwhile.
func (s *Service) lookupShares(ctx context.Context, id domain.Identity) (int64, error) {
	var (
		fill    bool
		version int64
	)
	switch {
	case s.cache == nil:
	case s.bypassed(id):
		s.recordCacheLookup(cacheBypass)
	default:
		shares, ok, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.recordCacheLookup(cacheError)
			s.logger.WarnContext(ctx, "share cache lookup failed, reading store",
				"identity", id.String(),
				"error", err,
			)
		case ok:
			s.recordCacheLookup(cacheHit)
			return shares, nil
		default:
			s.recordCacheLookup(cacheMiss)
			version, err = s.cache.Version(ctx, id)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to read share cache version",
					"identity", id.String(),
					"error", err,
				)
			}
			fill = err == nil
		}
	}

	var shares int64
	rec, err := s.store.Find(ctx, id)
	switch {
	case err == nil:
		shares = rec.Shares
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return 0, translate(err)
	}

	if fill {
		if _, err := s.cache.Fill(ctx, id, version, shares); err != nil {
			s.logger.WarnContext(ctx, "failed to populate share cache",
				"identity", id.String(),
				"error", err,
			)
		}
	}
	return shares, nil
}

// writeThrough stores the committed count of ch.holder. When that fails the
// entry is dropped and the identity bypasses the cache, since a reader may
// still fill it from an older store read.
func (s *Service) writeThrough(ctx context.Context, ch change) {
	err := ch.cacheErr
	if err == nil {
		err = s.cache.Put(ctx, ch.holder, ch.cacheVersion, ch.shares)
	}
	if err == nil {
		s.setBypass(ch.holder, false)
		return
	}

	s.setBypass(ch.holder, true)
	s.logger.WarnContext(ctx, "failed to write share cache, bypassing it for identity",
		"identity", ch.holder.String(),
		"error", err,
	)
	if err := s.cache.Invalidate(ctx, ch.holder); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate share cache",
			"identity", ch.holder.String(),
			"error", err,
		)
	}
}

func (s *Service) bypassed(id domain.Identity) bool {
	s.bypassMu.RLock()
	defer s.bypassMu.RUnlock()
	_, ok := s.bypass[id]
	return ok
}

func (s *Service) setBypass(id domain.Identity, on bool) {
	s.bypassMu.Lock()
	defer s.bypassMu.Unlock()
	if on {
		s.bypass[id] = struct{}{}
	} else {
		delete(s.bypass, id)
	}
}

func (s *Service) recordCacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.IncrementCacheLookup(result)
	}
}
