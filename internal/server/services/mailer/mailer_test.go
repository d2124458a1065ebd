package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
)

func report() models.SyncReport {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.SyncReport{
		Source:     models.SourcePublished,
		Created:    3,
		Duplicates: 1,
		StartedAt:  now,
		FinishedAt: now.Add(time.Minute),
	}
}

func TestSendRendersSyncReport(t *testing.T) {
	var got SMTP2GORequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"request_id":"r1","data":{"succeeded":1,"failed":0}}`))
	}))
	defer srv.Close()

	m := New("key", "Atelier <a@b.c>", core.NewDiscardLogger(), WithEndpoint(srv.URL))
	require.NoError(t, m.Send(context.Background(), "me@example.com", "sync_report.tmpl", report()))

	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, []string{"me@example.com"}, got.To)
	assert.Equal(t, "公众号同步：新增 3 篇文章", got.Subject)
	assert.Contains(t, got.TextBody, "重复: 1")
	assert.Contains(t, got.HtmlBody, "2026-01-02 03:04:05")
}

func TestSendRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := New("key", "a@b.c", core.NewDiscardLogger(), WithEndpoint(srv.URL), WithBackoff(time.Millisecond))
	err := m.Send(context.Background(), "me@example.com", "sync_report.tmpl", report())
	require.Error(t, err)
	assert.EqualValues(t, sendAttempts, calls.Load())
}

func TestSendRejectedRecipient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"data":{"succeeded":0,"failed":1}}`))
			return
		}
		w.Write([]byte(`{"data":{"succeeded":1,"failed":0}}`))
	}))
	defer srv.Close()

	m := New("key", "a@b.c", core.NewDiscardLogger(), WithEndpoint(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, m.Send(context.Background(), "me@example.com", "sync_report.tmpl", report()))
	assert.EqualValues(t, 2, calls.Load())
}
