package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core"
	contentmigrations "atelier/internal/features/content/migrations"
	contentservices "atelier/internal/features/content/services"
	imagemigrations "atelier/internal/features/images/migrations"
	imageservices "atelier/internal/features/images/services"
	"atelier/internal/features/wechat/migrations"
	"atelier/internal/features/wechat/models"
	"atelier/internal/features/wechat/services"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newLoggedRouter(t, core.NewDiscardLogger())
}

func newLoggedRouter(t *testing.T, logger *core.Logger) http.Handler {
	t.Helper()
	ctx := context.Background()
	db, err := core.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, contentmigrations.NewManager(db, logger).Migrate(ctx))
	require.NoError(t, imagemigrations.NewManager(db, logger).Migrate(ctx))
	require.NoError(t, migrations.NewManager(db, logger).Migrate(ctx))

	upserter := services.NewUpserter(
		contentservices.NewPostService(db, logger),
		services.NewImageImporter(imageservices.NewImageService(db, logger), logger, nil),
		services.NewHTMLSanitizer(),
		logger,
		"公众号导入",
		"AI创作者",
	)
	h := NewHandlers(logger, services.NewSyncService(nil, upserter, services.NewPageFetcher(nil), logger, 0))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Post("/api/admin/wechat/import", h.ImportArticle)
	r.Post("/api/admin/wechat/sync", h.SyncNow)
	return r
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) core.AppError {
	t.Helper()
	var resp struct {
		Error core.AppError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestImportArticleValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := post(router, "/api/admin/wechat/import", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	appErr := errorBody(t, rec)
	assert.Equal(t, core.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "请提供文章链接或 HTML 内容", appErr.Message)

	assert.Equal(t, http.StatusBadRequest, post(router, "/api/admin/wechat/import", `not json`).Code)
}

func TestImportArticleUnreachablePage(t *testing.T) {
	router := newTestRouter(t)
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer site.Close()

	rec := post(router, "/api/admin/wechat/import", `{"url":"`+site.URL+`/s/x"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "无法访问文章页面", errorBody(t, rec).Message)
}

func TestImportArticleExtractionFailure(t *testing.T) {
	router := newTestRouter(t)

	rec := post(router, "/api/admin/wechat/import", `{"html":"<p>nothing here</p>"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "导入失败", errorBody(t, rec).Message)
}

func TestImportArticleFromHTML(t *testing.T) {
	router := newTestRouter(t)
	payload, err := json.Marshal(models.ManualImportRequest{
		HTML: `<meta property="og:url" content="https://mp.weixin.qq.com/s/x"><h1 id="activity-name">标题</h1><div id="js_content"><p>正文</p></div>`,
	})
	require.NoError(t, err)

	rec := post(router, "/api/admin/wechat/import", string(payload))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.WasNew)
	assert.Equal(t, "标题", result.Article.Title)

	rec = post(router, "/api/admin/wechat/import", string(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.WasNew)
}

func TestSyncNowWithoutCredentials(t *testing.T) {
	router := newTestRouter(t)

	rec := post(router, "/api/admin/wechat/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.SyncReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, models.SourceNone, report.Source)
	assert.Equal(t, 0, report.Created)
}

func TestImportFailureLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newLoggedRouter(t, core.NewLoggerWithLevel(&buf, "info"))

	rec := post(router, "/api/admin/wechat/import", `{"html":"<html><body><p>no title</p></body></html>"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "Manual import failed")
	assert.Contains(t, buf.String(), "request_id=")
}
