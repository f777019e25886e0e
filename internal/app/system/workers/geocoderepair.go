// internal/app/system/workers/geocoderepair.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/swarmhub/internal/app/lifecycle"
	"github.com/dalemusser/swarmhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Repairer geocodes inquiries that were stored without coordinates.
// *lifecycle.Service satisfies it.
type Repairer interface {
	RepairCoordinates(ctx context.Context, limit int64) (lifecycle.RepairStats, error)
}

// GeocodeRepair is a background worker that retries geocoding for
// inquiries tagged needs_geocode.
type GeocodeRepair struct {
	repairer Repairer
	log      *zap.Logger
	interval time.Duration
	batch    int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewGeocodeRepair creates the worker. Every interval it repairs at most
// batch inquiries.
func NewGeocodeRepair(r Repairer, logger *zap.Logger, interval time.Duration, batch int64) *GeocodeRepair {
	ctx, cancel := context.WithCancel(context.Background())
	return &GeocodeRepair{
		repairer: r,
		log:      logger,
		interval: interval,
		batch:    batch,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the background loop.
func (w *GeocodeRepair) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("geocode repair worker started",
		zap.Duration("interval", w.interval),
		zap.Int64("batch", w.batch))
}

// Stop cancels any pass in flight and waits for the loop to exit. It is
// safe to call more than once.
func (w *GeocodeRepair) Stop() {
	w.once.Do(func() {
		w.cancel()
		w.wg.Wait()
		w.log.Info("geocode repair worker stopped")
	})
}

func (w *GeocodeRepair) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.repair()
		}
	}
}

func (w *GeocodeRepair) repair() {
	ctx, cancel := timeouts.WithTimeout(w.ctx, timeouts.Batch(), w.log, "geocode repair")
	defer cancel()

	stats, err := w.repairer.RepairCoordinates(ctx, w.batch)
	if err != nil {
		w.log.Error("geocode repair pass failed", zap.Error(err))
		return
	}
	if stats.Scanned > 0 {
		w.log.Info("geocode repair pass",
			zap.Int("scanned", stats.Scanned),
			zap.Int("repaired", stats.Repaired),
			zap.Int("failed", stats.Failed))
	}
}
