package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Boatkungg/teerute-tpat13-checker/pkg/jobs"
)

// Maintenance job types.
const (
	JobExportCleanup = "export_cleanup"
	JobResultSweep   = "result_sweep"
)

type exportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

type resultSweeper interface {
	Sweep() int
}

// MaintenanceService removes expired export files and stored results.
type MaintenanceService struct {
	exports exportCleaner
	results resultSweeper
	logger  *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService. results may be nil when Redis expires keys itself.
func NewMaintenanceService(exports exportCleaner, results resultSweeper, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{exports: exports, results: results, logger: logger}
}

// Handle runs one maintenance job.
func (s *MaintenanceService) Handle(_ context.Context, job jobs.Job) error {
	switch job.Type {
	case JobExportCleanup:
		removed, err := s.exports.Cleanup(0)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			s.logger.Info("expired exports removed", zap.Int("count", len(removed)), zap.Strings("files", removed))
		}
	case JobResultSweep:
		if s.results == nil {
			return nil
		}
		if n := s.results.Sweep(); n > 0 {
			s.logger.Debug("expired results swept", zap.Int("count", n))
		}
	default:
		return fmt.Errorf("unknown maintenance job %q", job.Type)
	}
	return nil
}
