package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/logger"
	"github.com/MrSnakeDoc/kbase/internal/sources/seed"
)

// Importer merges a catalog into the persisted one.
type Importer interface {
	Import(ctx context.Context, c domain.Catalog) (int, error)
}

// SeedImporter imports the seed file at start, on every manual trigger and,
// when interval is positive, periodically.
type SeedImporter struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	target        Importer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu       sync.RWMutex
	lastRun  time.Time
	lastErr  error
	imported int
}

// NewSeedImporter creates a new seed importer
func NewSeedImporter(
	seedFile string,
	target Importer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedImporter {
	return &SeedImporter{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then keeps listening for triggers until Stop or ctx ends.
// A failed first import is logged, not fatal: the catalog is usable without seed data.
func (si *SeedImporter) Start(ctx context.Context) {
	if err := si.Import(ctx); err != nil {
		si.logger.Warn("initial seed import failed",
			logger.Error(err))
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if si.interval > 0 {
		ticker = time.NewTicker(si.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				si.runLogged(ctx)
			case <-si.manualTrigger:
				si.logger.Info("manual seed import triggered")
				si.runLogged(ctx)
			case <-si.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the importer. It is safe to call more than once.
func (si *SeedImporter) Stop() {
	si.stopOnce.Do(func() { close(si.stopCh) })
}

// Import loads the seed file and merges it into the catalog
func (si *SeedImporter) Import(ctx context.Context) error {
	si.logger.Info("importing seed file",
		logger.String("file", si.loader.Path()))

	added, err := si.importFile(ctx)

	si.mu.Lock()
	si.lastRun = time.Now()
	si.lastErr = err
	if err == nil {
		si.imported += added
	}
	si.mu.Unlock()

	if err != nil {
		return err
	}

	si.logger.Info("seed import completed",
		logger.Int("added", added))
	return nil
}

// Status reports the last run, its error and how many entries were added overall.
func (si *SeedImporter) Status() (lastRun time.Time, lastErr error, imported int) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.lastRun, si.lastErr, si.imported
}

func (si *SeedImporter) importFile(ctx context.Context) (int, error) {
	file, err := si.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load seed: %w", err)
	}

	c, err := si.mapper.MapCatalog(file)
	if err != nil {
		return 0, fmt.Errorf("failed to map seed: %w", err)
	}

	added, err := si.target.Import(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("failed to import seed: %w", err)
	}
	return added, nil
}

func (si *SeedImporter) runLogged(ctx context.Context) {
	if err := si.Import(ctx); err != nil {
		si.logger.Error("failed to import seed",
			logger.Error(err))
	}
}
