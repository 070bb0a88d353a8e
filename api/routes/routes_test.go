package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/handlers"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type idleCycles struct{ started bool }

func (c *idleCycles) StartCycle(context.Context) error  { c.started = true; return nil }
func (c *idleCycles) Running() bool                     { return false }
func (c *idleCycles) LastReport() *services.CycleReport { return nil }

type idleViews struct{}

func (idleViews) Trigger() bool  { return true }
func (idleViews) InFlight() bool { return false }

type knownSubscriber struct{}

func (knownSubscriber) FirstContact(_ context.Context, req *models.CreateSubscriberRequest) (*services.SubscriberAssessmentView, error) {
	return &services.SubscriberAssessmentView{Subscriber: &models.Subscriber{PK: 1, MSISDN: req.MSISDN}}, nil
}

func (knownSubscriber) Assessment(_ context.Context, msisdn string) (*services.SubscriberAssessmentView, error) {
	return &services.SubscriberAssessmentView{Subscriber: &models.Subscriber{PK: 1, MSISDN: msisdn}}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config, *idleCycles) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedHosts: []string{"*"}},
		JWT:    config.JWTConfig{Secret: "route-secret", ExpiresIn: 60},
		Admin:  config.AdminConfig{Username: "ops", PasswordHash: string(hash)},
	}

	cycles := &idleCycles{}
	router := SetupRouter(cfg, Handlers{
		Auth:       handlers.NewAuthHandler(services.NewAuthService(cfg)),
		Cycle:      handlers.NewCycleHandler(context.Background(), cycles, idleViews{}),
		Subscriber: handlers.NewSubscriberHandler(knownSubscriber{}),
		Health:     handlers.NewHealthHandler(nil),
	})
	return router, cfg, cycles
}

func request(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := request(r, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "ops", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Token
}

func TestPublicRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := request(r, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesNeedAdminToken(t *testing.T) {
	r, cfg, cycles := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/v1/admin/cycles", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/v1/admin/cycles", "garbage", nil).Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/v1/admin/cycles", signed, nil).Code)

	viewer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops", "role": "viewer", "exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err = viewer.SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodPost, "/api/v1/admin/cycles", signed, nil).Code)
	assert.False(t, cycles.started)

	token := login(t, r)
	assert.Equal(t, http.StatusAccepted, request(r, http.MethodPost, "/api/v1/admin/cycles", token, nil).Code)
	assert.True(t, cycles.started)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/admin/cycles", token, nil).Code)
	assert.Equal(t, http.StatusAccepted, request(r, http.MethodPost, "/api/v1/admin/views/refresh", token, nil).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/api/v1/subscribers", token, models.CreateSubscriberRequest{MSISDN: "08031234567"}).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/subscribers/08031234567/assessment", token, nil).Code)
}

func TestAdminRoutesDisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	r := SetupRouter(cfg, Handlers{
		Auth:       handlers.NewAuthHandler(services.NewAuthService(cfg)),
		Cycle:      handlers.NewCycleHandler(context.Background(), &idleCycles{}, idleViews{}),
		Subscriber: handlers.NewSubscriberHandler(knownSubscriber{}),
		Health:     handlers.NewHealthHandler(nil),
	})

	assert.Equal(t, http.StatusServiceUnavailable, request(r, http.MethodPost, "/api/v1/admin/cycles", "anything", nil).Code)
}
