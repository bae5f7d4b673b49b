// internal/cron/cron.go
package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/schema"
)

// Scheduler handles scheduled background tasks.
type Scheduler struct {
	cron   *cron.Cron
	attrs  *schema.AttributeCache
	logger *zap.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler(attrs *schema.AttributeCache, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		attrs:  attrs,
		logger: logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() {
	// Warm the attribute discovery cache every 10 minutes so live-schema
	// mapping rarely pays the fetch on the request path.
	s.cron.AddFunc("*/10 * * * *", func() {
		s.logger.Info("warming attribute cache")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.attrs.Warm(ctx)
	})

	s.cron.Start()
	s.logger.Info("scheduler started")

	// Initial warm-up off the startup path.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.attrs.Warm(ctx)
	}()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}
