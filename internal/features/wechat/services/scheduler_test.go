package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
)

type countingRunner struct {
	passes  atomic.Int32
	created int
}

func (r *countingRunner) RunSyncPass(context.Context) models.SyncReport {
	r.passes.Add(1)
	return models.SyncReport{Source: models.SourcePublished, Created: r.created}
}

type recordingMailer struct {
	mu        sync.Mutex
	sent      []string
	templates []string
}

func (m *recordingMailer) Send(_ context.Context, recipient, templateFile string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipient)
	m.templates = append(m.templates, templateFile)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestSchedulerRunsAtStartAndOnTick(t *testing.T) {
	runner := &countingRunner{}
	ticks := make(chan time.Time)
	scheduler := NewScheduler(runner, time.Hour, core.NewDiscardLogger()).WithTicks(ticks)

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool { return runner.passes.Load() == 1 }, time.Second, 5*time.Millisecond)

	ticks <- time.Now()
	require.Eventually(t, func() bool { return runner.passes.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, scheduler.Stop(context.Background()))
	require.NoError(t, scheduler.Stop(context.Background()), "stop is idempotent")
	assert.Equal(t, int32(2), runner.passes.Load())
}

func TestSchedulerExitsOnContextCancel(t *testing.T) {
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(runner, time.Hour, core.NewDiscardLogger()).WithTicks(make(chan time.Time))

	scheduler.Start(ctx)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	assert.NoError(t, scheduler.Stop(stopCtx))
}

func TestSchedulerMailsReportWhenArticlesCreated(t *testing.T) {
	runner := &countingRunner{created: 2}
	mailer := &recordingMailer{}
	ticks := make(chan time.Time)
	scheduler := NewScheduler(runner, time.Hour, core.NewDiscardLogger()).
		WithTicks(ticks).
		WithReportMail(mailer, "me@example.com")

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop(context.Background()))

	assert.Equal(t, []string{"me@example.com"}, mailer.sent)
	assert.Equal(t, []string{SyncReportTemplate}, mailer.templates)
}

func TestSchedulerSkipsMailWithoutNewArticles(t *testing.T) {
	runner := &countingRunner{}
	mailer := &recordingMailer{}
	ticks := make(chan time.Time)
	scheduler := NewScheduler(runner, time.Hour, core.NewDiscardLogger()).
		WithTicks(ticks).
		WithReportMail(mailer, "me@example.com")

	scheduler.Start(context.Background())
	ticks <- time.Now()
	require.Eventually(t, func() bool { return runner.passes.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop(context.Background()))

	assert.Equal(t, 0, mailer.count())
}
