package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pricing-service/internal/models"
)

// BatchRunner is the part of the pricing service the scheduler drives
type BatchRunner interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
	RunBatchUpdate(ctx context.Context, tenantID string) (*models.BatchUpdateResult, error)
}

// PricingJob runs the dynamic pricing batch for every tenant on a fixed interval
type PricingJob struct {
	runner   BatchRunner
	logger   *logrus.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPricingJob creates a new pricing job
func NewPricingJob(runner BatchRunner, interval time.Duration, logger *logrus.Logger) *PricingJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &PricingJob{
		runner:   runner,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled
func (j *PricingJob) Start(ctx context.Context) {
	j.logger.Infof("Pricing job started (interval %s)", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.runOnce(ctx)
		case <-j.stopCh:
			j.logger.Info("Pricing job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Pricing job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop. Safe to call more than once.
func (j *PricingJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *PricingJob) runOnce(ctx context.Context) {
	j.logger.Debug("Running scheduled price update...")

	tenants, err := j.runner.ListTenantIDs(ctx)
	if err != nil {
		j.logger.Errorf("Failed to list tenants for pricing: %v", err)
		return
	}

	if len(tenants) == 0 {
		j.logger.Debug("No tenants with products")
		return
	}

	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return
		}

		result, err := j.runner.RunBatchUpdate(ctx, tenantID)
		if err != nil {
			j.logger.WithField("tenant_id", tenantID).Errorf("Scheduled price update failed: %v", err)
			continue
		}
		j.logger.WithField("tenant_id", tenantID).Info(result.Message)
	}
}
