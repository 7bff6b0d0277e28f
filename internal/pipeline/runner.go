// Package pipeline orchestrates the audit and training pipelines: it loads
// the configured datasets, enforces single-writer access to the data
// directory, runs the computation, and hands the result to the persistence
// layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"stayscope/internal/artifacts"
	"stayscope/internal/audit"
	"stayscope/internal/config"
	"stayscope/internal/dataset"
	"stayscope/internal/logging"
	"stayscope/internal/model"
	"stayscope/internal/persist"
	"stayscope/internal/runs"
)

const lockFileName = "stayscope.lock"

// Runner executes pipelines against one data directory. Mutating operations
// hold both an in-process mutex and a file lock, so two runners in the same
// process or separate processes never write concurrently.
type Runner struct {
	cfg    *config.Config
	store  *runs.Store
	files  *artifacts.Store
	logger *slog.Logger
	lock   *flock.Flock

	mu     sync.Mutex
	inputs *model.Inputs
}

// New constructs a runner over an opened store and artifact tree.
func New(cfg *config.Config, store *runs.Store, files *artifacts.Store, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || store == nil || files == nil {
		return nil, errors.New("pipeline requires config, store, and artifact store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, lockFileName)
	return &Runner{
		cfg:    cfg,
		store:  store,
		files:  files,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		lock:   flock.New(lockPath),
	}, nil
}

// LockPath returns the file lock guarding the data directory.
func (r *Runner) LockPath() string {
	return r.lock.Path()
}

// RunHealth audits the configured datasets and persists the result under a
// fresh run.
func (r *Runner) RunHealth(ctx context.Context) (*runs.Run, *audit.HealthResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquireLock()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	inputs, err := r.loadDatasets()
	if err != nil {
		return nil, nil, err
	}

	result := audit.RunHealthAudit(inputs.Listings, inputs.Calendar, inputs.Reviews)
	run, err := persist.HealthAudit(ctx, r.store, r.files, "", result)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("health audit persisted",
		logging.String("run_id", run.ID),
		logging.Int("listings_rows", result.Metrics.RowsCols.Listings.Rows),
		logging.Int("referential_violations", result.Metrics.Referential.Total),
		logging.Float64("price_mean", result.Metrics.PriceSummary.Mean),
	)
	return run, result, nil
}

// RunDeepDive runs the deep-dive audit and persists the result under a
// fresh run.
func (r *Runner) RunDeepDive(ctx context.Context) (*runs.Run, *audit.DeepDiveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquireLock()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	inputs, err := r.loadDatasets()
	if err != nil {
		return nil, nil, err
	}

	result := audit.RunDeepDiveAudit(inputs.Listings, inputs.Calendar, inputs.Reviews)
	run, err := persist.DeepDiveAudit(ctx, r.store, r.files, "", result)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("deep dive audit persisted",
		logging.String("run_id", run.ID),
		logging.Int("neighborhoods", result.Metrics.Neighborhoods.Count),
		logging.Float64("overall_occupancy", result.Metrics.Occupancy.OverallRate),
	)
	return run, result, nil
}

// Train runs the named collaborator and persists its result. Collaborator
// failures end the run as failed and surface as ComputationError.
func (r *Runner) Train(ctx context.Context, kindName string) (*runs.Run, *model.Result, error) {
	spec, ok := model.Lookup(kindName)
	if !ok {
		return nil, nil, &runs.NotFoundError{Entity: "model", Key: kindName}
	}
	kind, ok := runs.ParseKind(spec.Kind)
	if !ok {
		return nil, nil, fmt.Errorf("model kind %q has no run kind", spec.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquireLock()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	inputs, err := r.loadDatasets()
	if err != nil {
		return nil, nil, err
	}

	run, err := r.store.StartRun(ctx, kind)
	if err != nil {
		return nil, nil, err
	}

	result, err := spec.Run(ctx, inputs, r.modelConfig())
	if err != nil {
		wrapped := &model.ComputationError{Kind: spec.Kind, Err: err}
		persist.FailRun(ctx, r.store, run.ID, wrapped)
		r.logger.Warn("model training failed",
			logging.String("run_id", run.ID),
			logging.String("kind", spec.Kind),
			logging.Error(wrapped),
		)
		return nil, nil, wrapped
	}

	persisted, err := persist.ModelResult(ctx, r.store, r.files, run.ID, kind, result)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("model training persisted",
		logging.String("run_id", persisted.ID),
		logging.String("kind", spec.Kind),
		logging.Int("metrics", len(result.Metrics)),
	)
	return persisted, result, nil
}

// acquireLock takes the data-directory file lock without blocking. A lock
// held elsewhere surfaces as StorageError so callers fail fast instead of
// queueing behind another writer.
func (r *Runner) acquireLock() (func(), error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, &runs.StorageError{Op: "acquire data lock", Err: err}
	}
	if !ok {
		return nil, &runs.StorageError{Op: "acquire data lock", Err: errors.New("held by another process")}
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("release data lock", logging.Error(err))
		}
	}, nil
}

// loadDatasets reads the three configured CSVs once and caches them for the
// runner's lifetime. Callers must hold r.mu.
func (r *Runner) loadDatasets() (*model.Inputs, error) {
	if r.inputs != nil {
		return r.inputs, nil
	}

	listings, err := dataset.LoadCSV(r.cfg.Datasets.ListingsCSV, dataset.ListingsSpec())
	if err != nil {
		return nil, err
	}
	calendar, err := dataset.LoadCSV(r.cfg.Datasets.CalendarCSV, dataset.CalendarSpec())
	if err != nil {
		return nil, err
	}
	reviews, err := dataset.LoadCSV(r.cfg.Datasets.ReviewsCSV, dataset.ReviewsSpec())
	if err != nil {
		return nil, err
	}

	r.logger.Info("datasets loaded",
		logging.Int("listings_rows", listings.NumRows()),
		logging.Int("calendar_rows", calendar.NumRows()),
		logging.Int("reviews_rows", reviews.NumRows()),
	)
	r.inputs = &model.Inputs{Listings: listings, Calendar: calendar, Reviews: reviews}
	return r.inputs, nil
}

func (r *Runner) modelConfig() model.Config {
	return model.Config{
		Clusters: r.cfg.Models.Clusters,
		Horizon:  r.cfg.Models.Horizon,
		Window:   r.cfg.Models.Window,
	}
}
