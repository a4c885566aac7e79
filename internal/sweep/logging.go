package sweep

import (
	"time"

	"go.uber.org/zap"
)

type run struct {
	runID          string
	startedAt      time.Time
	licenseCount   int
	factoryCount   int
	processedCount int
	errorCount     int
}

func (s *Sweeper) logRunStart(r *run) {
	s.log.Info("sweep.run.start",
		zap.String("run_id", r.runID),
		zap.Int("licenses", r.licenseCount),
		zap.Int("factories", r.factoryCount),
	)
}

func (s *Sweeper) logRunFinish(r *run) {
	fields := []zap.Field{
		zap.String("run_id", r.runID),
		zap.Int64("duration_ms", s.clock.Now().Sub(r.startedAt).Milliseconds()),
		zap.Int("processed_count", r.processedCount),
		zap.Int("error_count", r.errorCount),
	}
	if r.errorCount > 0 {
		s.log.Warn("sweep.run.finish", fields...)
		return
	}
	s.log.Info("sweep.run.finish", fields...)
}

func (s *Sweeper) logFactoryError(r *run, factoryID string, timedOut bool, err error) {
	r.errorCount++
	s.log.Error("sweep.factory.failed",
		zap.String("run_id", r.runID),
		zap.String("factory_id", factoryID),
		zap.Bool("timeout", timedOut),
		zap.Error(err),
	)
}
