package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/sentinel"
)

// InMemory keeps registry state in process memory. Records handed in or out
// are copied so callers never alias stored state.
type InMemory struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	config  *models.Config
	holders map[domain.Identity]models.ShareRecord
}

func (s state) clone() state {
	c := state{holders: maps.Clone(s.holders)}
	if s.config != nil {
		cfg := *s.config
		c.config = &cfg
	}
	return c
}

var _ store.TxStore = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{state: state{holders: make(map[domain.Identity]models.ShareRecord)}}
}

// RunInTx runs fn against a private copy of the state and swaps it in only
// when fn succeeds.
func (s *InMemory) RunInTx(ctx context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.state.clone()
	if err := fn(&txView{st: &staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *InMemory) view() *txView {
	return &txView{st: &s.state}
}

func (s *InMemory) Config(ctx context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().Config(ctx)
}

func (s *InMemory) SaveConfig(ctx context.Context, cfg *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().SaveConfig(ctx, cfg)
}

func (s *InMemory) Find(ctx context.Context, id domain.Identity) (*models.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().Find(ctx, id)
}

func (s *InMemory) Insert(ctx context.Context, record *models.ShareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Insert(ctx, record)
}

func (s *InMemory) Update(ctx context.Context, record *models.ShareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Update(ctx, record)
}

func (s *InMemory) Delete(ctx context.Context, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Delete(ctx, id)
}

func (s *InMemory) List(ctx context.Context) ([]*models.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().List(ctx)
}

// txView operates on a state without locking. The owner holds the lock.
type txView struct {
	st *state
}

func (v *txView) Config(_ context.Context) (*models.Config, error) {
	if v.st.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cfg := *v.st.config
	return &cfg, nil
}

func (v *txView) SaveConfig(_ context.Context, cfg *models.Config) error {
	c := *cfg
	v.st.config = &c
	return nil
}

func (v *txView) Find(_ context.Context, id domain.Identity) (*models.ShareRecord, error) {
	rec, ok := v.st.holders[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

func (v *txView) Insert(_ context.Context, record *models.ShareRecord) error {
	if _, ok := v.st.holders[record.Identity]; ok {
		return sentinel.ErrConflict
	}
	v.st.holders[record.Identity] = *record
	return nil
}

func (v *txView) Update(_ context.Context, record *models.ShareRecord) error {
	if _, ok := v.st.holders[record.Identity]; !ok {
		return sentinel.ErrNotFound
	}
	v.st.holders[record.Identity] = *record
	return nil
}

func (v *txView) Delete(_ context.Context, id domain.Identity) error {
	if _, ok := v.st.holders[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(v.st.holders, id)
	return nil
}

func (v *txView) List(_ context.Context) ([]*models.ShareRecord, error) {
	out := make([]*models.ShareRecord, 0, len(v.st.holders))
	for _, rec := range v.st.holders {
		out = append(out, &rec)
	}
	slices.SortFunc(out, func(a, b *models.ShareRecord) int {
		return strings.Compare(string(a.Identity), string(b.Identity))
	})
	return out, nil
}
