package services

import (
	"context"
	"sync"
	"time"

	"atelier/internal/core"
	"atelier/internal/features/wechat/models"
)

// SyncReportTemplate is the mail template used for sync summaries
const SyncReportTemplate = "sync_report.tmpl"

// SyncRunner runs one sync pass
type SyncRunner interface {
	RunSyncPass(ctx context.Context) models.SyncReport
}

// Mailer sends a templated email
type Mailer interface {
	Send(ctx context.Context, recipient, templateFile string, data any) error
}

// Scheduler runs a sync pass at start and then on every tick until stopped
type Scheduler struct {
	runner    SyncRunner
	interval  time.Duration
	logger    *core.Logger
	mailer    Mailer
	recipient string

	ticks    <-chan time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler running every interval
func NewScheduler(runner SyncRunner, interval time.Duration, logger *core.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// WithReportMail mails a summary to recipient after passes that created articles
func (s *Scheduler) WithReportMail(mailer Mailer, recipient string) *Scheduler {
	s.mailer = mailer
	s.recipient = recipient
	return s
}

// WithTicks replaces the interval ticker with ticks
func (s *Scheduler) WithTicks(ticks <-chan time.Time) *Scheduler {
	s.ticks = ticks
	return s
}

// Start launches the loop in the background
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting WeChat sync scheduler", "interval", s.interval)

	ticks := s.ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(s.interval)
		ticks = ticker.C
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}
		s.loop(ctx, ticks)
	}()
}

// Stop signals the loop and waits for a running pass to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping WeChat sync scheduler")
		close(s.stopChan)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, ticks <-chan time.Time) {
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			return
		case <-ticks:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report := s.runner.RunSyncPass(ctx)

	if report.Created == 0 || s.mailer == nil || s.recipient == "" {
		return
	}
	if err := s.mailer.Send(ctx, s.recipient, SyncReportTemplate, report); err != nil {
		s.logger.Error("Failed to send sync report", "recipient", s.recipient, "error", err)
	}
}
