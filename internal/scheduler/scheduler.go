package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/personachat/personachat/internal/history"
	"github.com/personachat/personachat/internal/logger"
)

// DefaultCronExpr runs the retention job nightly at 03:00
const DefaultCronExpr = "0 3 * * *"

// Scheduler runs periodic maintenance over the history store
type Scheduler struct {
	store         history.Store
	cron          *cron.Cron
	cronExpr      string
	retentionDays int
	running       bool
	mu            sync.RWMutex
}

// New creates a scheduler pruning conversations older than retentionDays.
// A retentionDays of zero disables pruning.
func New(store history.Store, retentionDays int) *Scheduler {
	return &Scheduler{
		store:         store,
		cron:          cron.New(),
		cronExpr:      DefaultCronExpr,
		retentionDays: retentionDays,
	}
}

// Start registers the retention job and starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.retentionDays <= 0 {
		logger.Info("History retention disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cronExpr, func() {
		if err := s.prune(context.Background()); err != nil {
			logger.Error("History retention job failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add retention job: %w", err)
	}

	s.cron.Start()
	s.running = true

	logger.Info("Scheduler started, pruning conversations older than %d days", s.retentionDays)
	return nil
}

// Stop stops the cron loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false

	logger.Info("Scheduler stopped")
}

// prune removes conversations past the retention window
func (s *Scheduler) prune(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	removed, err := s.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if removed > 0 {
		logger.Info("Pruned %d conversations created before %s", removed, cutoff.Format(time.RFC3339))
	}
	return nil
}
