package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/simulation"
	"github.com/andresuchdata/demandcast/internal/storage"
	"github.com/rs/zerolog/log"
)

// SimulationService fronts the background runner and exports a comparison
// report to object storage when a job completes.
type SimulationService struct {
	runner  *simulation.Runner
	reports storage.ObjectStorage
}

// NewSimulationService wires the runner to an optional report sink. With a
// nil sink, completed runs are kept in memory only.
func NewSimulationService(runner *simulation.Runner, reports storage.ObjectStorage) *SimulationService {
	s := &SimulationService{runner: runner, reports: reports}
	if reports != nil {
		runner.SetOnComplete(s.exportReport)
	}
	return s
}

// Submit starts a simulation job and returns its ID for polling.
func (s *SimulationService) Submit(req simulation.Request) (string, error) {
	return s.runner.Submit(req)
}

// Get returns the current snapshot of a job.
func (s *SimulationService) Get(id string) (*simulation.JobSnapshot, bool) {
	return s.runner.Get(id)
}

// Cancel requests cancellation of a running job.
func (s *SimulationService) Cancel(id string) bool {
	return s.runner.Cancel(id)
}

func (s *SimulationService) exportReport(jobID string, result *domain.ComparisonResult) {
	data, err := storage.BuildComparisonCSV(result)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("comparison report build failed")
		return
	}

	key := fmt.Sprintf("reports/simulations/%s/%s.csv", result.CompletedAt.Format("2006-01-02"), jobID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.reports.UploadObject(ctx, key, data); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Str("key", key).Msg("comparison report upload failed")
		return
	}
	log.Info().Str("job_id", jobID).Str("key", key).Msg("comparison report uploaded")
}
