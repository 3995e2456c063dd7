package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shareledger/internal/registry/metrics"
	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	dErrors "shareledger/pkg/domain-errors"
	"shareledger/pkg/platform/audit"
	"shareledger/pkg/platform/sentinel"
	"shareledger/pkg/requestcontext"
)

const tracerName = "shareledger/internal/registry/service"

// ShareCache is an optional read-through cache of share counts. Entries are
// tagged with a per-identity write version so a reader that sampled an older
// version cannot overwrite a committed mutation.
type ShareCache interface {
	Get(ctx context.Context, id domain.Identity) (shares int64, ok bool, err error)
	Version(ctx context.Context, id domain.Identity) (int64, error)
	Bump(ctx context.Context, id domain.Identity) (int64, error)
	Fill(ctx context.Context, id domain.Identity, version, shares int64) (bool, error)
	Put(ctx context.Context, id domain.Identity, version, shares int64) error
	Invalidate(ctx context.Context, id domain.Identity) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReader reads back recorded audit events.
type AuditReader interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Service is the shareholder registry. Every mutation is authorized against
// the stored admin and applied inside a single store transaction.
type Service struct {
	store          store.TxStore
	cache          ShareCache
	auditPublisher AuditPublisher
	auditReader    AuditReader
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	now            func(ctx context.Context) time.Time

	// bypass holds identities whose cache entry could not be written after a
	// commit. Their lookups go to the store until a later write-through lands.
	bypassMu sync.RWMutex
	bypass   map[domain.Identity]struct{}
}

type Option func(*Service)

func WithShareCache(c ShareCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithAuditReader(reader AuditReader) Option {
	return func(s *Service) {
		s.auditReader = reader
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithClock pins the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = func(context.Context) time.Time { return now() }
	}
}

// New constructs a Service over st.
func New(st store.TxStore, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    requestcontext.Now,
		bypass: make(map[domain.Identity]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// change is the committed effect of one mutation.
type change struct {
	event audit.Event
	// holder names the identity whose share count changed; shares is its
	// committed count, 0 after removal.
	holder domain.Identity
	shares int64
	// holderDelta is the change in the number of registered shareholders.
	holderDelta int

	cacheVersion int64
	cacheErr     error
}

// mutate runs apply inside a store transaction after checking that the
// registry is deployed and caller is its admin. Side effects of the change
// run only after commit.
func (s *Service) mutate(ctx context.Context, op string, caller domain.Identity, apply func(tx store.Store, cfg *models.Config) (change, error)) (err error) {
	ctx, finish := s.begin(ctx, op, attribute.String("caller", caller.String()))
	defer func() { finish(err) }()

	var ch change
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if !cfg.IsAdmin(caller) {
			return models.ErrUnauthorized
		}
		ch, err = apply(tx, cfg)
		if err != nil {
			return err
		}
		// Versions are taken while mutations are serialized so they follow
		// commit order.
		if s.cache != nil && !ch.holder.IsZero() {
			ch.cacheVersion, ch.cacheErr = s.cache.Bump(ctx, ch.holder)
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	s.afterCommit(context.WithoutCancel(ctx), caller, ch)
	return nil
}

// afterCommit runs the side effects of a committed change. ctx is detached
// from the request so a disconnecting client cannot drop them.
func (s *Service) afterCommit(ctx context.Context, caller domain.Identity, ch change) {
	if s.cache != nil && !ch.holder.IsZero() {
		s.writeThrough(ctx, ch)
	}
	if s.metrics != nil && ch.holderDelta != 0 {
		s.metrics.AddShareholders(ch.holderDelta)
	}
	s.emit(ctx, caller, ch.event)
}

func (s *Service) emit(ctx context.Context, caller domain.Identity, event audit.Event) {
	if s.auditPublisher == nil || event.Action == "" {
		return
	}
	event.ActorID = caller.String()
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = s.now(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(event.Action),
			"subject", event.Subject,
			"error", err,
		)
	}
}

// begin opens a span for op and returns a finisher that records its
// outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, outcome, start)
		}
	}
}

func loadConfig(ctx context.Context, st store.Store) (*models.Config, error) {
	cfg, err := st.Config(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrNotDeployed
		}
		return nil, err
	}
	return cfg, nil
}

// translate maps store failures into the domain taxonomy. Domain errors
// pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry operation did not complete")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry store failure")
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden, dErrors.CodeNotFound, dErrors.CodeConflict,
		dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func validIdentity(id domain.Identity) bool {
	_, err := domain.ParseIdentity(id.String())
	return err == nil
}
