// Package sweep periodically re-measures storage for every factory that holds
// an active license.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/factorylicense/internal/clock"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	obsmetrics "github.com/smallbiznis/factorylicense/internal/observability/metrics"
	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("sweep: missing dependency")

// ActiveLicenseLister yields the licenses the sweep should cover.
type ActiveLicenseLister interface {
	ActiveLicenses() []licensedomain.License
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Licenses licensedomain.Service
	Storage  storagedomain.Service
	GenID    *snowflake.Node
	Clock    clock.Clock
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Config   Config              `optional:"true"`
}

type Sweeper struct {
	log      *zap.Logger
	cfg      Config
	licenses ActiveLicenseLister
	storage  storagedomain.Service
	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *obsmetrics.Metrics
}

// Result summarises one pass.
type Result struct {
	RunID     string
	Factories int
	Processed int
	Failed    int
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Licenses == nil || p.Storage == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:      p.Log.Named("sweep").With(zap.String("component", "sweep")),
		cfg:      p.Config.withDefaults(),
		licenses: p.Licenses,
		storage:  p.Storage,
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}, nil
}

// RunOnce recomputes storage for each distinct factory among the active
// licenses. A failing factory is logged and skipped.
func (s *Sweeper) RunOnce(ctx context.Context) Result {
	licenses := s.licenses.ActiveLicenses()
	factories := make([]string, 0, len(licenses))
	seen := make(map[string]struct{}, len(licenses))
	for _, l := range licenses {
		if _, ok := seen[l.FactoryID]; ok {
			continue
		}
		seen[l.FactoryID] = struct{}{}
		factories = append(factories, l.FactoryID)
	}

	r := &run{
		runID:        s.genID.Generate().String(),
		startedAt:    s.clock.Now(),
		licenseCount: len(licenses),
		factoryCount: len(factories),
	}
	s.logRunStart(r)
	start := time.Now()

	for _, factoryID := range factories {
		if ctx.Err() != nil {
			s.logFactoryError(r, factoryID, false, ctx.Err())
			break
		}
		if err := s.runJob(ctx, factoryID); err != nil {
			timedOut := errors.Is(err, context.DeadlineExceeded)
			s.logFactoryError(r, factoryID, timedOut, err)
			continue
		}
		r.processedCount++
	}

	outcome := obsmetrics.OutcomeAccepted
	if r.errorCount > 0 {
		outcome = obsmetrics.OutcomeError
	}
	s.metrics.ObserveSweep(outcome, r.processedCount, time.Since(start))
	s.logRunFinish(r)

	return Result{
		RunID:     r.runID,
		Factories: r.factoryCount,
		Processed: r.processedCount,
		Failed:    r.errorCount,
	}
}

func (s *Sweeper) runJob(parent context.Context, factoryID string) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	usage, err := s.storage.CalculateStorageUsage(ctx, factoryID)
	if err != nil {
		return err
	}
	s.log.Debug("sweep.factory.done",
		zap.String("factory_id", factoryID),
		zap.Float64("storage_mb", usage.StorageMB),
		zap.Int("licenses", len(usage.UpdatedLicenses)))
	return nil
}

// RunForever runs a pass every RunInterval until ctx is done.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	if s.cfg.RunOnStart {
		s.RunOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
