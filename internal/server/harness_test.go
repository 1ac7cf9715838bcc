package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/auth"
	"github.com/MarcoPoloResearchLab/modulux/internal/cache"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

const (
	testSigningSecret = "test-signing-secret"
	testCookieName    = "app_session"
)

type testHarness struct {
	handler    http.Handler
	database   *gorm.DB
	issuer     *auth.SessionIssuer
	dispatcher *RealtimeDispatcher
	logs       *observer.ObservedLogs
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&portfolios.PortfolioRecord{}, &users.Identity{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		CookieName:    testCookieName,
	})
	if err != nil {
		t.Fatalf("failed to construct validator: %v", err)
	}
	issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{SigningSecret: []byte(testSigningSecret)})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}
	userService, err := users.NewService(users.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		t.Fatalf("failed to construct user service: %v", err)
	}
	portfolioService, err := portfolios.NewService(portfolios.ServiceConfig{
		Repository: portfolios.NewGormRepository(db),
		Cache:      cache.NewMemory(time.Minute),
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("failed to construct portfolio service: %v", err)
	}

	dispatcher := NewRealtimeDispatcher()
	handler, err := NewHTTPHandler(Dependencies{
		SessionValidator:  validator,
		OwnerResolver:     userService,
		Portfolios:        portfolioService,
		Realtime:          dispatcher,
		HeartbeatInterval: time.Hour,
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}

	return &testHarness{
		handler:    handler,
		database:   db,
		issuer:     issuer,
		dispatcher: dispatcher,
		logs:       logs,
	}
}

func (h *testHarness) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := h.issuer.Issue(auth.SessionIdentity{UserID: userID})
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return token
}

// do sends the request with the session in a cookie, the way the browser does.
func (h *testHarness) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

type portfolioResponse struct {
	Success   bool                 `json:"success"`
	Portfolio portfolios.Portfolio `json:"portfolio"`
}

type listResponse struct {
	Success    bool                   `json:"success"`
	Portfolios []portfolios.Portfolio `json:"portfolios"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var target T
	if err := json.Unmarshal(recorder.Body.Bytes(), &target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return target
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, status int) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, recorder.Code, recorder.Body.String())
	}
}

func expectErrorCode(t *testing.T, recorder *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, recorder, status)
	payload := decodeBody[errorResponse](t, recorder)
	if payload.Code != code {
		t.Fatalf("expected error code %s, got %q (%s)", code, payload.Code, payload.Error)
	}
	if payload.Error == "" {
		t.Fatalf("expected error message for code %s", code)
	}
}

func mustCreatePortfolio(t *testing.T, harness *testHarness, token, name string) portfolios.Portfolio {
	t.Helper()
	recorder := harness.do(t, http.MethodPost, "/portfolios", token, fmt.Sprintf(`{"name":%q}`, name))
	expectStatus(t, recorder, http.StatusOK)
	return decodeBody[portfolioResponse](t, recorder).Portfolio
}
