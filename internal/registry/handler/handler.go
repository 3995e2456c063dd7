package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shareledger/internal/platform/middleware"
	"shareledger/internal/registry/models"
	"shareledger/pkg/domain"
	dErrors "shareledger/pkg/domain-errors"
	"shareledger/pkg/platform/audit"
	"shareledger/pkg/platform/httputil"
	"shareledger/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// Service defines the registry operations exposed over HTTP.
type Service interface {
	SetAdmin(ctx context.Context, caller, newAdmin domain.Identity) error
	SetRecordDate(ctx context.Context, caller domain.Identity, date int64) error
	ToggleVoting(ctx context.Context, caller domain.Identity) (bool, error)
	RegisterShareholder(ctx context.Context, caller, id domain.Identity, shares int64) error
	UpdateShares(ctx context.Context, caller, id domain.Identity, shares int64) error
	RemoveShareholder(ctx context.Context, caller, id domain.Identity) error

	GetShares(ctx context.Context, id domain.Identity) (int64, error)
	IsEligible(ctx context.Context, id domain.Identity) (bool, error)
	IsVotingOpen(ctx context.Context) (bool, error)
	GetRecordDate(ctx context.Context) (int64, error)
	GetAdmin(ctx context.Context) (domain.Identity, error)
	ListShareholders(ctx context.Context) ([]*models.ShareRecord, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	History(ctx context.Context, id domain.Identity) ([]audit.Event, error)
	RecentActivity(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves the shareholder registry endpoints.
type Handler struct {
	registry     Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a registry Handler.
func New(registry Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		registry:     registry,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the registry routes on r. Queries are public; mutations
// require a bearer token whose subject is the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/shareholders", h.handleListShareholders)
		r.Get("/shareholders/{identity}/shares", h.handleGetShares)
		r.Get("/shareholders/{identity}/eligibility", h.handleIsEligible)
		r.Get("/voting", h.handleIsVotingOpen)
		r.Get("/record-date", h.handleGetRecordDate)
		r.Get("/admin", h.handleGetAdmin)
		r.Get("/snapshot", h.handleSnapshot)
		r.Get("/shareholders/{identity}/history", h.handleHistory)
		r.Get("/audit", h.handleRecentActivity)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCaller(h.jwtValidator, h.logger))
			r.Put("/admin", h.handleSetAdmin)
			r.Put("/record-date", h.handleSetRecordDate)
			r.Post("/voting/toggle", h.handleToggleVoting)
			r.Post("/shareholders", h.handleRegisterShareholder)
			r.Put("/shareholders/{identity}/shares", h.handleUpdateShares)
			r.Delete("/shareholders/{identity}", h.handleRemoveShareholder)
		})
	})
}

type sharesResponse struct {
	Identity string `json:"identity"`
	Shares   int64  `json:"shares"`
}

type eligibilityResponse struct {
	Identity string `json:"identity"`
	Eligible bool   `json:"eligible"`
}

type shareholderResponse struct {
	Identity     string    `json:"identity"`
	Shares       int64     `json:"shares"`
	Eligible     bool      `json:"eligible"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type listResponse struct {
	Shareholders []shareholderResponse `json:"shareholders"`
}

type votingResponse struct {
	VotingOpen bool `json:"voting_open"`
}

type recordDateResponse struct {
	RecordDate int64 `json:"record_date"`
}

type adminResponse struct {
	Admin string `json:"admin"`
}

type snapshotResponse struct {
	Admin            string `json:"admin"`
	RecordDate       int64  `json:"record_date"`
	VotingOpen       bool   `json:"voting_open"`
	ShareholderCount int    `json:"shareholder_count"`
	TotalShares      int64  `json:"total_shares"`
}

type eventResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	Subject    string    `json:"subject,omitempty"`
	Shares     *int64    `json:"shares,omitempty"`
	RecordDate *int64    `json:"record_date,omitempty"`
	VotingOpen *bool     `json:"voting_open,omitempty"`
	Admin      string    `json:"admin,omitempty"`
}

type historyResponse struct {
	Identity string          `json:"identity"`
	Events   []eventResponse `json:"events"`
}

type activityResponse struct {
	Events []eventResponse `json:"events"`
}

func toEventResponses(events []audit.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:         e.ID,
			Action:     string(e.Action),
			Timestamp:  e.Timestamp,
			Actor:      e.ActorID,
			Subject:    e.Subject,
			Shares:     e.Shares,
			RecordDate: e.RecordDate,
			VotingOpen: e.VotingOpen,
			Admin:      e.Admin,
		})
	}
	return out
}

// Request bodies use pointers so a missing field is distinguishable from 0.
type setAdminRequest struct {
	Admin *string `json:"admin"`
}

type setRecordDateRequest struct {
	RecordDate *int64 `json:"record_date"`
}

type registerRequest struct {
	Identity *string `json:"identity"`
	Shares   *int64  `json:"shares"`
}

type updateSharesRequest struct {
	Shares *int64 `json:"shares"`
}

func (h *Handler) handleGetShares(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	shares, err := h.registry.GetShares(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get shares", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sharesResponse{Identity: id.String(), Shares: shares})
}

func (h *Handler) handleIsEligible(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	eligible, err := h.registry.IsEligible(r.Context(), id)
	if err != nil {
		h.fail(w, r, "check eligibility", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, eligibilityResponse{Identity: id.String(), Eligible: eligible})
}

func (h *Handler) handleListShareholders(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.ListShareholders(r.Context())
	if err != nil {
		h.fail(w, r, "list shareholders", err)
		return
	}
	resp := listResponse{Shareholders: make([]shareholderResponse, 0, len(records))}
	for _, rec := range records {
		resp.Shareholders = append(resp.Shareholders, shareholderResponse{
			Identity:     rec.Identity.String(),
			Shares:       rec.Shares,
			Eligible:     rec.Eligible(),
			RegisteredAt: rec.RegisteredAt,
			UpdatedAt:    rec.UpdatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleIsVotingOpen(w http.ResponseWriter, r *http.Request) {
	open, err := h.registry.IsVotingOpen(r.Context())
	if err != nil {
		h.fail(w, r, "read voting state", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, votingResponse{VotingOpen: open})
}

func (h *Handler) handleGetRecordDate(w http.ResponseWriter, r *http.Request) {
	date, err := h.registry.GetRecordDate(r.Context())
	if err != nil {
		h.fail(w, r, "read record date", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordDateResponse{RecordDate: date})
}

func (h *Handler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.registry.GetAdmin(r.Context())
	if err != nil {
		h.fail(w, r, "read admin", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminResponse{Admin: admin.String()})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.registry.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, "read snapshot", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshotResponse{
		Admin:            snap.Admin.String(),
		RecordDate:       snap.RecordDate,
		VotingOpen:       snap.VotingOpen,
		ShareholderCount: snap.ShareholderCount,
		TotalShares:      snap.TotalShares,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	events, err := h.registry.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, "read history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Identity: id.String(), Events: toEventResponses(events)})
}

// handleRecentActivity serves ?limit=N; without it the service default applies.
func (h *Handler) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	events, err := h.registry.RecentActivity(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "read recent activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activityResponse{Events: toEventResponses(events)})
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Admin == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "admin is required"))
		return
	}
	// The service validates the new admin after authorizing the caller.
	err := h.registry.SetAdmin(r.Context(), h.caller(r), domain.Identity(*req.Admin))
	if err != nil {
		h.fail(w, r, "set admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetRecordDate(w http.ResponseWriter, r *http.Request) {
	var req setRecordDateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.RecordDate == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "record_date is required"))
		return
	}
	if err := h.registry.SetRecordDate(r.Context(), h.caller(r), *req.RecordDate); err != nil {
		h.fail(w, r, "set record date", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleVoting(w http.ResponseWriter, r *http.Request) {
	open, err := h.registry.ToggleVoting(r.Context(), h.caller(r))
	if err != nil {
		h.fail(w, r, "toggle voting", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, votingResponse{VotingOpen: open})
}

func (h *Handler) handleRegisterShareholder(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Identity == nil || req.Shares == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identity and shares are required"))
		return
	}
	id := domain.Identity(*req.Identity)
	if err := h.registry.RegisterShareholder(r.Context(), h.caller(r), id, *req.Shares); err != nil {
		h.fail(w, r, "register shareholder", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sharesResponse{Identity: id.String(), Shares: *req.Shares})
}

func (h *Handler) handleUpdateShares(w http.ResponseWriter, r *http.Request) {
	var req updateSharesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Shares == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "shares is required"))
		return
	}
	raw, err := identityParam(r)
	if err != nil {
		httputil.WriteError(w, models.ErrInvalidIdentity)
		return
	}
	id := domain.Identity(raw)
	if err := h.registry.UpdateShares(r.Context(), h.caller(r), id, *req.Shares); err != nil {
		h.fail(w, r, "update shares", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveShareholder(w http.ResponseWriter, r *http.Request) {
	raw, err := identityParam(r)
	if err != nil {
		httputil.WriteError(w, models.ErrInvalidIdentity)
		return
	}
	id := domain.Identity(raw)
	if err := h.registry.RemoveShareholder(r.Context(), h.caller(r), id); err != nil {
		h.fail(w, r, "remove shareholder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// caller returns the identity stored by RequireCaller.
func (h *Handler) caller(r *http.Request) domain.Identity {
	return requestcontext.Caller(r.Context())
}

// identityParam returns the decoded {identity} URL parameter. chi matches on
// RawPath when the request path carries escapes such as %2F, and the
// parameter is then still escaped.
func identityParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "identity")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	return url.PathUnescape(raw)
}

// pathIdentity parses the {identity} URL parameter of a query route.
func (h *Handler) pathIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	raw, err := identityParam(r)
	if err != nil {
		httputil.WriteError(w, models.ErrInvalidIdentity)
		return "", false
	}
	id, err := domain.ParseIdentity(raw)
	if err != nil {
		httputil.WriteError(w, models.ErrInvalidIdentity)
		return "", false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// fail logs err at a level matching its code and writes the error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"caller", requestcontext.Caller(ctx).String(),
		"error", err,
	}
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, "registry request rejected: "+action, attrs...)
	} else {
		h.logger.ErrorContext(ctx, "registry request failed: "+action, attrs...)
	}
	httputil.WriteError(w, err)
}
