package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WECHAT_SYNC_INTERVAL_HOURS", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 6, cfg.Features.WeChat.SyncInterval())
	assert.Equal(t, "https://api.weixin.qq.com", cfg.Features.WeChat.APIBase)
	assert.False(t, cfg.Features.WeChat.HasCredentials())
}

func TestSyncIntervalNonPositive(t *testing.T) {
	for _, hours := range []int{0, -3} {
		assert.Equal(t, 6, WeChatConfig{IntervalHours: hours}.SyncInterval())
	}
	assert.Equal(t, 2, WeChatConfig{IntervalHours: 2}.SyncInterval())
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 70000},
		Database: DatabaseConfig{Path: "x.db"},
		Features: FeatureConfig{Images: ImagesConfig{MaxUploadMB: 1}},
	}
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 5000
	assert.NoError(t, cfg.Validate())

	cfg.Features.WeChat.Enabled = true
	assert.Error(t, cfg.Validate(), "wechat without images must be rejected")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewUpstreamError("down", nil), http.StatusBadGateway},
		{NewRateLimitedError("slow down"), http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("gone", nil)), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HandleError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}
}

type stubFeature struct {
	*BaseFeature
	inits     *[]string
	shutdowns *[]string
}

func (f *stubFeature) Init(ctx context.Context) error {
	*f.inits = append(*f.inits, f.Name())
	return nil
}

func (f *stubFeature) Shutdown(ctx context.Context) error {
	*f.shutdowns = append(*f.shutdowns, f.Name())
	return nil
}

func (f *stubFeature) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/" + f.Name()}}
}

func TestRegistryOrdering(t *testing.T) {
	logger := NewDiscardLogger()
	registry := NewRegistry(logger)
	var inits, shutdowns []string

	for _, name := range []string{"wechat", "content", "images"} {
		enabled := name != "images"
		f := &stubFeature{BaseFeature: NewBaseFeature(name, name, enabled, logger, nil), inits: &inits, shutdowns: &shutdowns}
		require.NoError(t, registry.Register(f))
	}
	require.Error(t, registry.Register(&stubFeature{BaseFeature: NewBaseFeature("content", "", true, logger, nil)}))

	require.NoError(t, registry.InitAll(context.Background()))
	assert.Equal(t, []string{"wechat", "content"}, inits)

	require.NoError(t, registry.ShutdownAll(context.Background()))
	assert.Equal(t, []string{"content", "wechat"}, shutdowns)

	assert.Len(t, registry.GetAllRoutes(), 2)
	assert.False(t, registry.GetFeatureStatus()["images"].Enabled)
}

func TestMigrationManager(t *testing.T) {
	ctx := context.Background()
	logger := NewDiscardLogger()
	db, err := OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	defer db.Close()

	manager := NewMigrationManager("test", db, logger, []Migration{
		{Version: 901, Name: "create_a", UpSQL: `CREATE TABLE a (id INTEGER PRIMARY KEY);`, DownSQL: `DROP TABLE a;`},
		{Version: 902, Name: "create_b", UpSQL: `CREATE TABLE b (id INTEGER PRIMARY KEY);`, DownSQL: `DROP TABLE b;`},
	})

	require.NoError(t, manager.Migrate(ctx))
	require.NoError(t, manager.Migrate(ctx), "migrations must be idempotent")

	status, err := manager.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.AppliedCount)
	assert.Equal(t, 902, status.LastApplied.Version)

	require.NoError(t, manager.Rollback(ctx))
	pending, err := manager.GetPendingMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 902, pending[0].Version)

	var count int
	err = db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='b'`, nil, &count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueryRowWithTimeoutNotFound(t *testing.T) {
	db, err := OpenSQLite(":memory:", NewDiscardLogger())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecWithTimeout(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)`)
	require.NoError(t, err)

	var v string
	err = db.QueryRowWithTimeout(context.Background(), `SELECT v FROM t WHERE id = ?`, []interface{}{1}, &v)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.ExecWithTimeout(context.Background(), `INSERT INTO t (v) VALUES ('x')`)
	require.NoError(t, err)
	_, err = db.ExecWithTimeout(context.Background(), `INSERT INTO t (v) VALUES ('x')`)
	assert.True(t, IsUniqueViolation(err))
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Close()

	handler := rl.Wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	rec := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code, "other clients keep their own bucket")
}

type failingFeature struct {
	*BaseFeature
	err error
}

func (f *failingFeature) Init(ctx context.Context) error {
	return f.err
}

func TestInitAllWrapsFeatureFailure(t *testing.T) {
	logger := NewDiscardLogger()
	registry := NewRegistry(logger)
	cause := errors.New("no such table")
	require.NoError(t, registry.Register(&failingFeature{BaseFeature: NewBaseFeature("wechat", "", true, logger, nil), err: cause}))

	err := registry.InitAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeFeature, appErr.Code)
	assert.Contains(t, appErr.Message, "[wechat]")
}

func TestLoggerWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithLevel(&buf, "info")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	logger.WithContext(ctx).Info("handled")
	assert.Contains(t, buf.String(), "req-42")

	buf.Reset()
	logger.WithContext(context.Background()).Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestSQLiteDSNKeepsPragmas(t *testing.T) {
	assert.Equal(t, "file::memory:?"+sqlitePragmas, sqliteDSN(":memory:"))
	assert.Equal(t, "data.db?"+sqlitePragmas, sqliteDSN("data.db"))
	assert.Equal(t, "data.db?_txlock=immediate&"+sqlitePragmas, sqliteDSN("data.db?_txlock=immediate"))
}

func TestOpenSQLiteWithQueryAppliesBusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atelier.db") + "?_txlock=immediate"
	db, err := OpenSQLite(path, NewDiscardLogger())
	require.NoError(t, err)
	defer db.Close()

	var timeout, foreignKeys int
	require.NoError(t, db.QueryRowWithTimeout(context.Background(), `PRAGMA busy_timeout`, nil, &timeout))
	require.NoError(t, db.QueryRowWithTimeout(context.Background(), `PRAGMA foreign_keys`, nil, &foreignKeys))
	assert.Equal(t, 5000, timeout)
	assert.Equal(t, 1, foreignKeys)
}
