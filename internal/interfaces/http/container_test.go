package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/infrastructure/config"
	sharedconfig "github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Redis:      sharedconfig.RedisConfig{Enabled: false},
		Telegram:   sharedconfig.TelegramConfig{SendTimeout: time.Second, DefaultLang: "ru"},
		Activation: sharedconfig.ActivationConfig{LockTTL: time.Minute, LockWait: time.Second},
		Violation: sharedconfig.ViolationConfig{
			Cooldown:               10 * time.Minute,
			MaxNotificationRetries: 3,
			CheckInterval:          5 * time.Minute,
		},
		Batch:     sharedconfig.BatchConfig{PaymentWindow: 30 * time.Minute},
		Providers: sharedconfig.ProvidersConfig{RequestTimeout: time.Second},
		Panels:    sharedconfig.PanelsConfig{TokenLifetime: time.Hour, TokenMargin: time.Minute},
		Scheduler: sharedconfig.SchedulerConfig{
			KeyExpireInterval:   time.Hour,
			BatchExpireInterval: 10 * time.Minute,
			RetryInterval:       10 * time.Minute,
			ReconcileInterval:   5 * time.Minute,
			JobTimeout:          time.Minute,
		},
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func (s *testServer) do(method, path string, body any) (int, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func newTestContainer(t *testing.T) (*Container, *testServer) {
	t.Helper()
	c, err := NewContainer(testutil.NewTestDB(t), testConfig(), logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, c.SetupRoutes())
	t.Cleanup(func() { _ = c.Shutdown() })
	return c, &testServer{t: t, engine: c.Engine()}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestContainer(t)

	code, resp := srv.do(nethttp.MethodGet, "/health", nil)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"database":"ok"`)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "keyhub_http_requests_total")
}

func TestSwaggerDocument(t *testing.T) {
	_, srv := newTestContainer(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	require.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/keys/{code}/activate"`)
	assert.Contains(t, w.Body.String(), `"basePath": "/api/v1"`)
}

func TestBatchToActivationFlow(t *testing.T) {
	c, srv := newTestContainer(t)
	ctx := context.Background()

	r, err := reseller.NewReseller("Acme VPN", "", "en")
	require.NoError(t, err)
	require.NoError(t, c.repos.resellerRepo.Create(ctx, r))

	p, err := pack.NewPack(pack.PackParams{
		Name:             "Monthly x2",
		Price:            990,
		PeriodDays:       30,
		TrafficLimit:     100 << 30,
		Count:            2,
		ActivationWindow: 72 * time.Hour,
		ConnectionLimit:  1,
		PanelType:        "marzban",
	})
	require.NoError(t, err)
	require.NoError(t, c.repos.packRepo.Create(ctx, p))

	code, resp := srv.do(nethttp.MethodPost, "/api/v1/batches", map[string]any{"pack_id": p.ID(), "reseller_id": r.ID()})
	require.Equal(t, nethttp.StatusCreated, code)
	var batch struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, "unpaid", batch.Status)

	code, resp = srv.do(nethttp.MethodPost, fmt.Sprintf("/api/v1/batches/%d/payment", batch.ID), map[string]any{"status": "paid"})
	require.Equal(t, nethttp.StatusOK, code)
	var paid struct {
		Status string `json:"status"`
		Keys   []struct {
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &paid))
	assert.Equal(t, "paid", paid.Status)
	require.Len(t, paid.Keys, 2)

	keyCode := paid.Keys[0].Code
	code, resp = srv.do(nethttp.MethodGet, "/api/v1/keys/"+keyCode, nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"status":"issued"`)

	// No panel has been provisioned yet.
	code, resp = srv.do(nethttp.MethodPost, "/api/v1/keys/"+keyCode+"/activate", map[string]any{"user_id": 4242})
	assert.Equal(t, nethttp.StatusServiceUnavailable, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "unavailable", resp.Error.Type)

	code, _ = srv.do(nethttp.MethodGet, "/api/v1/keys/does-not-exist", nil)
	assert.Equal(t, nethttp.StatusNotFound, code)
}

func TestServerIDValidation(t *testing.T) {
	_, srv := newTestContainer(t)

	code, resp := srv.do(nethttp.MethodPost, "/api/v1/servers/abc/check", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Type)

	code, _ = srv.do(nethttp.MethodPost, "/api/v1/servers/99/check", nil)
	assert.Equal(t, nethttp.StatusNotFound, code)
}

func TestJobsAreComplete(t *testing.T) {
	c, _ := newTestContainer(t)
	jobs := c.Jobs()

	assert.NotNil(t, jobs.ExpireKeys)
	assert.NotNil(t, jobs.ExpireBatches)
	assert.NotNil(t, jobs.CheckConnections)
	assert.NotNil(t, jobs.RetryNotifications)
	assert.NotNil(t, jobs.ReconcileServers)

	n, err := jobs.ExpireBatches.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = jobs.CheckConnections.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
