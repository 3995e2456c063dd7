package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "shareledger/internal/jwt_token"
	"shareledger/internal/platform/middleware"
	"shareledger/internal/registry/handler"
	"shareledger/internal/registry/service"
	"shareledger/internal/registry/store/memory"
	"shareledger/pkg/domain"
	dErrors "shareledger/pkg/domain-errors"
	"shareledger/pkg/platform/audit/publisher"
	auditmemory "shareledger/pkg/platform/audit/store/memory"
	"shareledger/pkg/testutil"
)

const (
	admin    = domain.Identity("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	holder   = domain.Identity("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
	outsider = domain.Identity("ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC")
)

type sharesBody struct {
	Identity string `json:"identity"`
	Shares   int64  `json:"shares"`
}

type historyBody struct {
	Events []struct {
		Action string `json:"action"`
	} `json:"events"`
}

// TestRegistryOverHTTP drives the example lifecycle through the full stack:
// router, JWT authentication, service and in-memory store.
func TestRegistryOverHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService := jwttoken.NewJWTService("test-signing-key", "shareledger", "shareledger-api")

	events := auditmemory.NewInMemoryStore()
	svc := service.New(memory.NewInMemory(),
		service.WithLogger(logger),
		service.WithAuditPublisher(publisher.NewPublisher(events)),
		service.WithAuditReader(events),
	)
	require.NoError(t, svc.Deploy(t.Context(), admin))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	handler.New(svc, logger, jwttoken.NewJWTServiceAdapter(jwtService)).Register(router)

	tokenFor := func(id domain.Identity) string {
		token, err := jwtService.GenerateCallerToken(id, time.Hour)
		require.NoError(t, err)
		return token
	}
	as := func(id domain.Identity, req *http.Request) *http.Request {
		return testutil.WithBearer(req, tokenFor(id))
	}
	sharesOf := func(id domain.Identity) int64 {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/registry/shareholders/"+url.PathEscape(id.String())+"/shares", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		return testutil.UnmarshalResponse[sharesBody](t, rr).Shares
	}

	rr := testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodPost, "/registry/shareholders",
		map[string]any{"identity": holder, "shares": 50})))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	rr = testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodPost, "/registry/shareholders",
		map[string]any{"identity": holder, "shares": 5})))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, string(dErrors.CodeConflict))

	rr = testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodPut, "/registry/shareholders/"+holder.String()+"/shares",
		map[string]any{"shares": 75})))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(75), sharesOf(holder))

	rr = testutil.DoRequest(router, as(outsider, testutil.NewJSONRequest(t, http.MethodDelete, "/registry/shareholders/"+holder.String(), nil)))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodDelete, "/registry/shareholders/"+holder.String(), nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	assert.Equal(t, int64(75), sharesOf(holder))

	rr = testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodDelete, "/registry/shareholders/"+holder.String(), nil)))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(0), sharesOf(holder))

	rr = testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodDelete, "/registry/shareholders/"+holder.String(), nil)))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))

	rr = testutil.DoRequest(router, as(admin, testutil.NewJSONRequest(t, http.MethodPost, "/registry/shareholders",
		map[string]any{"identity": outsider, "shares": -1})))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/registry/shareholders/"+holder.String()+"/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	history := testutil.UnmarshalResponse[historyBody](t, rr)
	require.Len(t, history.Events, 3)
	assert.Equal(t, "shareholder_registered", history.Events[0].Action)
	assert.Equal(t, "shares_updated", history.Events[1].Action)
	assert.Equal(t, "shareholder_removed", history.Events[2].Action)
}

func TestSlashedIdentityOverHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService := jwttoken.NewJWTService("test-signing-key", "shareledger", "shareledger-api")
	svc := service.New(memory.NewInMemory(), service.WithLogger(logger))
	require.NoError(t, svc.Deploy(t.Context(), admin))

	router := chi.NewRouter()
	handler.New(svc, logger, jwttoken.NewJWTServiceAdapter(jwtService)).Register(router)
	token, err := jwtService.GenerateCallerToken(admin, time.Hour)
	require.NoError(t, err)

	const slashed = "acct/1"
	path := "/registry/shareholders/" + url.PathEscape(slashed)

	rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/registry/shareholders",
		map[string]any{"identity": slashed, "shares": 10}), token))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, path+"/shares", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	got := testutil.UnmarshalResponse[sharesBody](t, rr)
	assert.Equal(t, slashed, got.Identity)
	assert.Equal(t, int64(10), got.Shares)

	rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPut, path+"/shares",
		map[string]any{"shares": 4}), token))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodDelete, path, nil), token))
	require.Equal(t, http.StatusNoContent, rr.Code)

	shares, err := svc.GetShares(t.Context(), slashed)
	require.NoError(t, err)
	assert.Zero(t, shares)
}
