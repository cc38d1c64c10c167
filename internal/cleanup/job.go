// Package cleanup removes carts that never turned into an order.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/storeapi"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the delete concurrency when none is configured.
const DefaultWorkers = 2

// Store lists and deletes carts. *storeapi.Client satisfies it.
type Store interface {
	CartsWithoutOrders(ctx context.Context) ([]cart.Cart, error)
	DeleteCart(ctx context.Context, id string) error
}

// Report summarises one run.
type Report struct {
	Found   int
	Deleted int
	Failed  int
}

type Job struct {
	store   Store
	workers int
	logger  *zap.Logger
}

func NewJob(store Store, workers int, logger *zap.Logger) *Job {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Job{store: store, workers: workers, logger: logger}
}

// Run deletes every cart without an order. A cart that is already gone
// counts as deleted. Individual failures do not stop the run; they are
// joined into the returned error.
func (j *Job) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	carts, err := j.store.CartsWithoutOrders(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list carts without orders: %w", err)
	}
	j.logger.Info("carts without orders", zap.Int("count", len(carts)))

	var (
		mu     sync.Mutex
		report = Report{Found: len(carts)}
		errs   []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for _, c := range carts {
		g.Go(func() error {
			err := j.store.DeleteCart(gctx, c.ID)
			if errors.Is(err, storeapi.ErrNotFound) {
				err = nil
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				errs = append(errs, fmt.Errorf("cart %s: %w", c.ID, err))
				j.logger.Error("cart cleanup failed", zap.String("cart_id", c.ID), zap.Error(err))
				return nil
			}
			report.Deleted++
			j.logger.Info("cleaned up cart", zap.String("cart_id", c.ID))
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordCleanupRun(report.Deleted, report.Failed, time.Since(start))
	j.logger.Info("cart cleanup complete",
		zap.Int("found", report.Found),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
	)
	return report, errors.Join(errs...)
}
