package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"lendlib/internal/config"
	"lendlib/internal/errors"
	"lendlib/internal/gaps"
	"lendlib/internal/member"
)

// coverageEntry is one element of the coverage reference list.
type coverageEntry struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// CoverageSource fetches the logbook coverage reference list, from a
// local file when configured and over HTTP otherwise.
type CoverageSource struct {
	logger   *slog.Logger
	client   *http.Client
	validate *validator.Validate
	cfg      config.CoverageConfig
}

// NewCoverageSource creates a coverage source.
func NewCoverageSource(logger *slog.Logger, cfg config.CoverageConfig) *CoverageSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoverageSource{
		logger:   logger,
		client:   &http.Client{Timeout: 30 * time.Second},
		validate: validator.New(),
		cfg:      cfg,
	}
}

// Intervals fetches and parses the coverage list. The fetch happens
// once per pipeline run and is complete-or-fail: no retries, no partial
// results.
func (s *CoverageSource) Intervals(ctx context.Context) ([]gaps.Interval, error) {
	data, source, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var entries []coverageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewParsingError("failed to parse coverage list", err)
	}

	intervals := make([]gaps.Interval, 0, len(entries))
	for i, entry := range entries {
		if err := s.validate.Struct(entry); err != nil {
			return nil, errors.NewValidationError(
				fmt.Sprintf("coverage entry %d incomplete: %v", i, err))
		}
		start := member.ParseDate(entry.StartDate)
		end := member.ParseDate(entry.EndDate)
		if start.IsZero() || end.IsZero() {
			return nil, errors.NewValidationError(
				fmt.Sprintf("coverage entry %d has unparseable dates %q..%q",
					i, entry.StartDate, entry.EndDate))
		}
		intervals = append(intervals, gaps.Interval{Start: start, End: end})
	}

	s.logger.InfoContext(ctx, "fetched coverage list",
		slog.String("source", source),
		slog.Int("intervals", len(intervals)))

	return intervals, nil
}

func (s *CoverageSource) fetch(ctx context.Context) (data []byte, source string, err error) {
	if s.cfg.File != "" {
		data, err := os.ReadFile(s.cfg.File)
		if err != nil {
			return nil, "", errors.NewStorageError("failed to read coverage file", err)
		}
		return data, s.cfg.File, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, "", errors.NewNetworkError("failed to build coverage request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", errors.NewNetworkError("failed to fetch coverage list", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.NewNetworkError(
			fmt.Sprintf("coverage fetch returned status %d", resp.StatusCode), nil)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.NewNetworkError("failed to read coverage response", err)
	}
	return data, s.cfg.URL, nil
}
