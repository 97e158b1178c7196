package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/internal/breakeven"
	"github.com/angelmondragon/showrunner-backend/internal/breaks"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/pkg/config"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

type stubSessions struct {
	session *models.Session
	err     error
	calls   []string
}

func (s *stubSessions) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Session, error) {
	return s.session, s.err
}

func (s *stubSessions) Finalize(context.Context, uuid.UUID, uuid.UUID) (*models.Session, error) {
	s.calls = append(s.calls, "finalize")
	return s.session, s.err
}

func (s *stubSessions) Unfinalize(context.Context, uuid.UUID, uuid.UUID) (*models.Session, error) {
	s.calls = append(s.calls, "unfinalize")
	return s.session, s.err
}

func (s *stubSessions) AddItem(_ context.Context, _, sessionID, itemID uuid.UUID, via enums.ItemSource) (*models.SessionItem, error) {
	s.calls = append(s.calls, "add:"+via.String())
	if s.err != nil {
		return nil, s.err
	}
	return &models.SessionItem{ID: uuid.New(), SessionID: sessionID, ItemID: itemID, ItemNumber: 4, Position: 4, AddedVia: via}, nil
}

func (s *stubSessions) RemoveItem(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	s.calls = append(s.calls, "remove")
	return s.err
}

func (s *stubSessions) Breakeven(context.Context, uuid.UUID, uuid.UUID) (*breakeven.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return breakeven.Calculate(breakeven.Input{
		ShowType:      enums.ShowTypeSinglesOnly,
		InventoryCost: decimal.NewFromInt(100),
		FeeRate:       decimal.RequireFromString("0.1"),
		ItemCount:     3,
	})
}

func (s *stubSessions) BreakEconomics(context.Context, uuid.UUID, uuid.UUID) (*breaks.SessionEconomics, error) {
	return &breaks.SessionEconomics{TotalBoxCost: decimal.NewFromInt(240)}, s.err
}

type stubSchedules struct {
	schedule fees.Schedule
	err      error
}

func (s stubSchedules) Schedule(context.Context, enums.Platform) (fees.Schedule, error) {
	return s.schedule, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func route(t *testing.T, method, pattern, target string, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestFeeQuoteUsesPlatformSchedule(t *testing.T) {
	h := FeeQuote(nil, nil, nil)
	rec := route(t, http.MethodPost, "/fees", "/fees", h, `{"price":"100","platform":"Whatnot"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	breakdown := data["breakdown"].(map[string]any)
	assert.Equal(t, "8", breakdown["commission"])
	assert.Equal(t, "3.2", breakdown["processing"])
	assert.Equal(t, "11.2", breakdown["totalFees"])
	assert.Equal(t, "88.80", data["net"])
}

func TestFeeQuoteFlatRateAndOverride(t *testing.T) {
	h := FeeQuote(stubSchedules{err: errors.New("not consulted")}, nil, nil)

	rec := route(t, http.MethodPost, "/fees", "/fees", h, `{"price":"50","feeRate":"0.1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "5", decodeData(t, rec)["breakdown"].(map[string]any)["totalFees"])

	rec = route(t, http.MethodPost, "/fees", "/fees", h, `{"price":"50","feeRate":"0.1","feeOverride":"2.5"}`)
	breakdown := decodeData(t, rec)["breakdown"].(map[string]any)
	assert.Equal(t, "2.5", breakdown["totalFees"])
	assert.Equal(t, true, breakdown["overridden"])
}

func TestFeeQuoteValidation(t *testing.T) {
	h := FeeQuote(nil, nil, nil)
	for _, body := range []string{`{"price":"-1"}`, `{"price":"1","platform":"tiktok"}`, `{"price":"1","feeRate":"1.5"}`, `not json`} {
		rec := route(t, http.MethodPost, "/fees", "/fees", h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestFeeQuoteScheduleSourceError(t *testing.T) {
	h := FeeQuote(stubSchedules{err: pkgerrors.New(pkgerrors.CodePersistence, "db down")}, nil, nil)
	rec := route(t, http.MethodPost, "/fees", "/fees", h, `{"price":"1","platform":"ebay"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBreakevenQuote(t *testing.T) {
	h := BreakevenQuote(nil, nil)
	rec := route(t, http.MethodPost, "/breakeven", "/breakeven", h,
		`{"showType":"singles_only","inventoryCost":"300","breaksCost":"999","totalExpenses":"75","feeRate":"0.12","profitTargetAmount":"100","itemCount":40,"breaks":[]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, "539.77", data["breakevenRevenue"])
	assert.Equal(t, "375", data["totalOutlay"])
}

func TestBreakevenQuoteConfigurationError(t *testing.T) {
	h := BreakevenQuote(nil, nil)
	rec := route(t, http.MethodPost, "/breakeven", "/breakeven", h,
		`{"showType":"mixed","inventoryCost":"10","breaksCost":"0","totalExpenses":"0","feeRate":"0.1","itemCount":1,"breaks":[]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIGURATION_ERROR")
	assert.Contains(t, rec.Body.String(), "singlesAllocationPercent")
}

func TestSessionTransitions(t *testing.T) {
	id := uuid.New()
	svc := &stubSessions{session: &models.Session{ID: id, Status: enums.SessionStatusFinalized}}

	rec := route(t, http.MethodPost, "/sessions/{sessionId}/finalize", "/sessions/"+id.String()+"/finalize", SessionFinalize(svc, nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FINALIZED", decodeData(t, rec)["status"])

	rec = route(t, http.MethodPost, "/sessions/{sessionId}/unfinalize", "/sessions/"+id.String()+"/unfinalize", SessionUnfinalize(svc, nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"finalize", "unfinalize"}, svc.calls)
}

func TestSessionTransitionConflict(t *testing.T) {
	svc := &stubSessions{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move session from RECONCILED to DRAFT")}
	rec := route(t, http.MethodPost, "/sessions/{sessionId}/unfinalize", "/sessions/"+uuid.NewString()+"/unfinalize", SessionUnfinalize(svc, nil), "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot move session from RECONCILED to DRAFT")
}

func TestSessionBadPathID(t *testing.T) {
	rec := route(t, http.MethodGet, "/sessions/{sessionId}/breakeven", "/sessions/nope/breakeven", SessionBreakeven(&stubSessions{}, nil), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionBreakevenRounds(t *testing.T) {
	rec := route(t, http.MethodGet, "/sessions/{sessionId}/breakeven", "/sessions/"+uuid.NewString()+"/breakeven", SessionBreakeven(&stubSessions{}, nil), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "111.11", decodeData(t, rec)["breakevenRevenue"])
}

func TestSessionBreakEconomics(t *testing.T) {
	rec := route(t, http.MethodGet, "/sessions/{sessionId}/breaks/economics", "/sessions/"+uuid.NewString()+"/breaks/economics", SessionBreakEconomics(&stubSessions{}, nil), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "240", decodeData(t, rec)["totalBoxCost"])
}

func TestSessionAddAndRemoveItem(t *testing.T) {
	svc := &stubSessions{}
	sid := uuid.NewString()
	rec := route(t, http.MethodPost, "/sessions/{sessionId}/items", "/sessions/"+sid+"/items", SessionAddItem(svc, nil),
		`{"itemId":"`+uuid.NewString()+`","addedVia":"csv_import"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(4), decodeData(t, rec)["itemNumber"])

	rec = route(t, http.MethodDelete, "/sessions/{sessionId}/items/{sessionItemId}", "/sessions/"+sid+"/items/"+uuid.NewString(), SessionRemoveItem(svc, nil), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"add:csv_import", "remove"}, svc.calls)

	rec = route(t, http.MethodPost, "/sessions/{sessionId}/items", "/sessions/"+sid+"/items", SessionAddItem(svc, nil), `{"itemId":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Showrunner-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, stubPinger{err: errors.New("refused")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}
