package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"shareledger/internal/platform/middleware"
	"shareledger/internal/registry/handler/mocks"
	"shareledger/internal/registry/models"
	"shareledger/pkg/domain"
	dErrors "shareledger/pkg/domain-errors"
	"shareledger/pkg/platform/audit"
	"shareledger/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const (
	adminID  = domain.Identity("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	holderID = domain.Identity("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
)

// stubValidator accepts tokens of the form "token-<caller>".
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.CallerClaims, error) {
	caller, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, errors.New("bad token")
	}
	return &middleware.CallerClaims{Caller: caller}, nil
}

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger, stubValidator{}).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) (int, []byte) {
	rr := testutil.DoRequest(s.router, req)
	return rr.Code, rr.Body.Bytes()
}

func (s *HandlerSuite) TestQueries() {
	s.Run("get shares", func() {
		s.service.EXPECT().GetShares(gomock.Any(), holderID).Return(int64(75), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/"+holderID.String()+"/shares", nil))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[sharesResponse](s.T(), rr)
		s.Equal(holderID.String(), resp.Identity)
		s.Equal(int64(75), resp.Shares)
	})

	s.Run("eligibility", func() {
		s.service.EXPECT().IsEligible(gomock.Any(), holderID).Return(true, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/"+holderID.String()+"/eligibility", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.True(testutil.UnmarshalResponse[eligibilityResponse](s.T(), rr).Eligible)
	})

	s.Run("malformed identity in path", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/ST1%09BAD/shares", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("list shareholders", func() {
		now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		s.service.EXPECT().ListShareholders(gomock.Any()).Return([]*models.ShareRecord{
			{Identity: adminID, Shares: 0, RegisteredAt: now, UpdatedAt: now},
			{Identity: holderID, Shares: 10, RegisteredAt: now, UpdatedAt: now},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders", nil))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[listResponse](s.T(), rr)
		s.Require().Len(resp.Shareholders, 2)
		s.False(resp.Shareholders[0].Eligible)
		s.True(resp.Shareholders[1].Eligible)
	})

	s.Run("config queries", func() {
		s.service.EXPECT().IsVotingOpen(gomock.Any()).Return(true, nil)
		s.service.EXPECT().GetRecordDate(gomock.Any()).Return(int64(20230101), nil)
		s.service.EXPECT().GetAdmin(gomock.Any()).Return(adminID, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/voting", nil))
		s.True(testutil.UnmarshalResponse[votingResponse](s.T(), rr).VotingOpen)
		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/record-date", nil))
		s.Equal(int64(20230101), testutil.UnmarshalResponse[recordDateResponse](s.T(), rr).RecordDate)
		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/admin", nil))
		s.Equal(adminID.String(), testutil.UnmarshalResponse[adminResponse](s.T(), rr).Admin)
	})

	s.Run("snapshot", func() {
		s.service.EXPECT().Snapshot(gomock.Any()).Return(&models.Snapshot{
			Admin: adminID, RecordDate: 5, VotingOpen: true, ShareholderCount: 2, TotalShares: 30,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/snapshot", nil))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[snapshotResponse](s.T(), rr)
		s.Equal(2, resp.ShareholderCount)
		s.Equal(int64(30), resp.TotalShares)
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().GetAdmin(gomock.Any()).Return(domain.Identity(""), models.ErrNotDeployed)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/admin", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.Empty(testutil.UnmarshalErrorResponse(s.T(), rr)["error_description"])
	})
}

func (s *HandlerSuite) TestAuthentication() {
	s.Run("missing token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/voting/toggle", nil)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("invalid token", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/voting/toggle", nil), "garbage")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("subject is not a valid identity", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/voting/toggle", nil), "token-")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}

func (s *HandlerSuite) authed(method, path string, body any) *http.Request {
	return testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), "token-"+adminID.String())
}

func (s *HandlerSuite) TestMutations() {
	s.Run("set admin", func() {
		s.service.EXPECT().SetAdmin(gomock.Any(), adminID, holderID).Return(nil)
		code, _ := s.do(s.authed(http.MethodPut, "/registry/admin", map[string]any{"admin": holderID}))
		s.Equal(http.StatusNoContent, code)
	})

	s.Run("set record date", func() {
		s.service.EXPECT().SetRecordDate(gomock.Any(), adminID, int64(20230101)).Return(nil)
		code, _ := s.do(s.authed(http.MethodPut, "/registry/record-date", map[string]any{"record_date": 20230101}))
		s.Equal(http.StatusNoContent, code)
	})

	s.Run("toggle voting", func() {
		s.service.EXPECT().ToggleVoting(gomock.Any(), adminID).Return(true, nil)
		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/registry/voting/toggle", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.True(testutil.UnmarshalResponse[votingResponse](s.T(), rr).VotingOpen)
	})

	s.Run("register shareholder", func() {
		s.service.EXPECT().RegisterShareholder(gomock.Any(), adminID, holderID, int64(50)).Return(nil)
		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/registry/shareholders", map[string]any{
			"identity": holderID, "shares": 50,
		}))
		s.Equal(http.StatusCreated, rr.Code)
		s.Equal(int64(50), testutil.UnmarshalResponse[sharesResponse](s.T(), rr).Shares)
	})

	s.Run("register with zero shares", func() {
		s.service.EXPECT().RegisterShareholder(gomock.Any(), adminID, holderID, int64(0)).Return(nil)
		code, _ := s.do(s.authed(http.MethodPost, "/registry/shareholders", map[string]any{
			"identity": holderID, "shares": 0,
		}))
		s.Equal(http.StatusCreated, code)
	})

	s.Run("update shares", func() {
		s.service.EXPECT().UpdateShares(gomock.Any(), adminID, holderID, int64(75)).Return(nil)
		code, _ := s.do(s.authed(http.MethodPut, "/registry/shareholders/"+holderID.String()+"/shares", map[string]any{"shares": 75}))
		s.Equal(http.StatusNoContent, code)
	})

	s.Run("remove shareholder", func() {
		s.service.EXPECT().RemoveShareholder(gomock.Any(), adminID, holderID).Return(nil)
		code, _ := s.do(s.authed(http.MethodDelete, "/registry/shareholders/"+holderID.String(), nil))
		s.Equal(http.StatusNoContent, code)
	})
}

func (s *HandlerSuite) TestMutationErrors() {
	cases := []struct {
		name   string
		err    error
		status int
		code   dErrors.Code
	}{
		{"not admin", models.ErrUnauthorized, http.StatusForbidden, dErrors.CodeForbidden},
		{"already registered", models.ErrAlreadyRegistered, http.StatusConflict, dErrors.CodeConflict},
		{"invalid shares", models.ErrInvalidShares, http.StatusBadRequest, dErrors.CodeInvalidInput},
		{"invalid identity", models.ErrInvalidIdentity, http.StatusBadRequest, dErrors.CodeBadRequest},
		{"store failure", dErrors.Wrap(errors.New("boom"), dErrors.CodeInternal, "registry store failure"), http.StatusInternalServerError, dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().RegisterShareholder(gomock.Any(), adminID, holderID, int64(1)).Return(tc.err)
			rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/registry/shareholders", map[string]any{
				"identity": holderID, "shares": 1,
			}))
			testutil.AssertStatusAndError(s.T(), rr, tc.status, string(tc.code))
		})
	}

	s.Run("unknown shareholder", func() {
		s.service.EXPECT().RemoveShareholder(gomock.Any(), adminID, holderID).Return(models.ErrNotFound)
		rr := testutil.DoRequest(s.router, s.authed(http.MethodDelete, "/registry/shareholders/"+holderID.String(), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *HandlerSuite) TestBadBodies() {
	token := "token-" + adminID.String()
	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed json", http.MethodPost, "/registry/shareholders", `{"identity":`},
		{"missing shares", http.MethodPost, "/registry/shareholders", `{"identity":"ST2"}`},
		{"missing identity", http.MethodPost, "/registry/shareholders", `{"shares":1}`},
		{"fractional shares", http.MethodPost, "/registry/shareholders", `{"identity":"ST2","shares":1.5}`},
		{"missing admin", http.MethodPut, "/registry/admin", `{}`},
		{"missing record date", http.MethodPut, "/registry/record-date", `{}`},
		{"missing update shares", http.MethodPut, "/registry/shareholders/ST2/shares", `{}`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := testutil.WithBearer(testutil.NewRequestWithBody(s.T(), tc.method, tc.path, tc.body), token)
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
		})
	}
}

func TestCallerFromContext(t *testing.T) {
	h := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), stubValidator{})
	req := testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), adminID.String())
	assert.Equal(t, adminID, h.caller(req))
}

func (s *HandlerSuite) TestEscapedIdentities() {
	const slashed = domain.Identity("acct/1")

	s.Run("queries decode escaped slashes", func() {
		s.service.EXPECT().GetShares(gomock.Any(), slashed).Return(int64(10), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/acct%2F1/shares", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal(slashed.String(), testutil.UnmarshalResponse[sharesResponse](s.T(), rr).Identity)
	})

	s.Run("mutations decode escaped slashes", func() {
		s.service.EXPECT().UpdateShares(gomock.Any(), adminID, slashed, int64(3)).Return(nil)
		s.service.EXPECT().RemoveShareholder(gomock.Any(), adminID, slashed).Return(nil)

		code, _ := s.do(s.authed(http.MethodPut, "/registry/shareholders/acct%2F1/shares", map[string]any{"shares": 3}))
		s.Equal(http.StatusNoContent, code)
		code, _ = s.do(s.authed(http.MethodDelete, "/registry/shareholders/acct%2F1", nil))
		s.Equal(http.StatusNoContent, code)
	})

	s.Run("percent signs survive decoding", func() {
		s.service.EXPECT().GetShares(gomock.Any(), domain.Identity("a%b")).Return(int64(1), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/a%25b/shares", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("a%b", testutil.UnmarshalResponse[sharesResponse](s.T(), rr).Identity)
	})
}

func (s *HandlerSuite) TestAuditRoutes() {
	shares := int64(10)
	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	registered := audit.Event{
		ID:        "evt-1",
		Action:    audit.ActionShareholderRegistered,
		Timestamp: at,
		ActorID:   adminID.String(),
		Subject:   holderID.String(),
		Shares:    &shares,
	}

	s.Run("shareholder history", func() {
		s.service.EXPECT().History(gomock.Any(), holderID).Return([]audit.Event{registered}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/"+holderID.String()+"/history", nil))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[historyResponse](s.T(), rr)
		s.Equal(holderID.String(), resp.Identity)
		s.Require().Len(resp.Events, 1)
		s.Equal(string(audit.ActionShareholderRegistered), resp.Events[0].Action)
		s.Equal(adminID.String(), resp.Events[0].Actor)
		s.Require().NotNil(resp.Events[0].Shares)
		s.Equal(int64(10), *resp.Events[0].Shares)
		s.True(at.Equal(resp.Events[0].Timestamp))
	})

	s.Run("empty history is an empty list", func() {
		s.service.EXPECT().History(gomock.Any(), holderID).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/shareholders/"+holderID.String()+"/history", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"events":[]`)
	})

	s.Run("recent activity with limit", func() {
		s.service.EXPECT().RecentActivity(gomock.Any(), 5).Return([]audit.Event{registered}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/audit?limit=5", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.Len(testutil.UnmarshalResponse[activityResponse](s.T(), rr).Events, 1)
	})

	s.Run("recent activity defaults its limit", func() {
		s.service.EXPECT().RecentActivity(gomock.Any(), 0).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/audit", nil))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("invalid limit", func() {
		for _, limit := range []string{"0", "-1", "ten"} {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/audit?limit="+limit, nil))
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
		}
	})

	s.Run("unreadable sink", func() {
		s.service.EXPECT().RecentActivity(gomock.Any(), 0).Return(nil, models.ErrHistoryUnavailable)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/audit", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}
