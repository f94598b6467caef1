package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendlib/internal/config"
	"lendlib/internal/pipeline"
	"lendlib/internal/services"
)

const eventHeader = "event_type,start_date,end_date,subscription_purchase_date,member_uris,member_names,item_uri,source_type,subscription_duration,subscription_duration_days,subscription_volumes,subscription_category"

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	dataDir := t.TempDir()
	var rows []string
	rows = append(rows, eventHeader)
	day := time.Date(1920, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; day.Before(time.Date(1920, 4, 1, 0, 0, 0, 0, time.UTC)); i++ {
		rows = append(rows, fmt.Sprintf(
			"Subscription,%s,,,https://example.org/members/m%d/,Member %d,,Logbook,,,,",
			day.Format("2006-01-02"), i, i))
		day = day.AddDate(0, 0, 7)
	}
	csv := strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "events.csv"), []byte(csv), 0644))

	coveragePath := filepath.Join(dataDir, "coverage.json")
	coverage := `[{"startDate":"1920-01-01","endDate":"1920-03-31"},{"startDate":"1920-05-01","endDate":"1920-06-30"}]`
	require.NoError(t, os.WriteFile(coveragePath, []byte(coverage), 0644))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:      8080,
			RateLimit: config.RateLimitConfig{Enabled: false},
		},
		Paths:    config.PathsConfig{DataDir: dataDir, OutputDir: t.TempDir()},
		Coverage: config.CoverageConfig{File: coveragePath},
		Forecast: config.ForecastConfig{
			Backend:     "linear",
			Granularity: "weekly",
			Training:    "per-gap",
			Growth:      "linear",
		},
	}

	svc := services.NewResultsService(nil, pipeline.New(nil, cfg))
	router := NewRouter(nil, cfg, svc, prometheus.NewRegistry())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResultsLifecycle(t *testing.T) {
	srv := testServer(t)

	// No results before the first run.
	resp, err := http.Get(srv.URL + "/api/v1/gaps")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Trigger a run.
	resp, err = http.Post(srv.URL+"/api/v1/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, 1, run.LargeGaps)
	assert.Equal(t, 13, run.Members)

	// Gap list is now served.
	resp, err = http.Get(srv.URL + "/api/v1/gaps")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var gapRows []GapResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&gapRows))
	require.Len(t, gapRows, 1)
	assert.Equal(t, "1920-04-01", gapRows[0].Start)
	assert.Contains(t, gapRows[0].Label, "days")

	// Forecast windows.
	resp, err = http.Get(srv.URL + "/api/v1/forecasts?window=full")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preds []PredictionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preds))
	assert.NotEmpty(t, preds)
}

func TestForecastsRejectsUnknownWindow(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/forecasts?window=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
