// Package services holds the serving-layer state between the batch
// pipeline and the HTTP transport.
package services

import (
	"context"
	"log/slog"
	"sync"

	"lendlib/internal/pipeline"
)

// ResultsService runs the pipeline on demand and caches the latest
// complete result for the API to serve. Pipeline runs themselves stay
// independent; only the finished result is shared.
type ResultsService struct {
	logger *slog.Logger
	runner *pipeline.Runner

	mu     sync.RWMutex
	latest *pipeline.Result
}

// NewResultsService creates the service around a pipeline runner.
func NewResultsService(logger *slog.Logger, runner *pipeline.Runner) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{logger: logger, runner: runner}
}

// Refresh executes a full pipeline run and, on success, replaces the
// cached result. A failed run leaves the previous result in place.
func (s *ResultsService) Refresh(ctx context.Context) (*pipeline.Result, error) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	return result, nil
}

// Latest returns the most recent complete result, or nil before the
// first successful run.
func (s *ResultsService) Latest() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
