/*
handlers_test.go - HTTP tests for the dashboard API

Tests for:
- Filter parsing (defaults, empty reason selection, validation)
- Aggregate endpoints on the sample dataset
- Map endpoint with and without a boundary file
- Reload and the refresh scheduler
*/
package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-insights/api"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
	"github.com/warp/loan-insights/source"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func sampleBuild(ctx context.Context) (*pipeline.Base, error) {
	return pipeline.Build(ctx, source.Sample(), pipeline.BuildOptions{})
}

func newServer(t *testing.T, opts api.Options) (*api.Handler, *httptest.Server) {
	t.Helper()
	if opts.Build == nil {
		opts.Build = sampleBuild
	}
	h := api.NewHandler(opts)
	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{Quiet: true}))
	t.Cleanup(srv.Close)
	return h, srv
}

func loadedServer(t *testing.T, opts api.Options) (*api.Handler, *httptest.Server) {
	t.Helper()
	h, srv := newServer(t, opts)
	_, err := h.Reload(context.Background())
	require.NoError(t, err)
	return h, srv
}

func get(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func post(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// =============================================================================
// STATUS
// =============================================================================

func TestHealth_BeforeAndAfterLoad(t *testing.T) {
	h, srv := newServer(t, api.Options{})

	var before api.HealthDTO
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/health", &before))
	assert.Equal(t, "loading", before.Status)

	_, err := h.Reload(context.Background())
	require.NoError(t, err)

	var after api.HealthDTO
	get(t, srv, "/api/health", &after)
	assert.Equal(t, "ok", after.Status)
	assert.Equal(t, 16, after.Facts)
	assert.NotEmpty(t, after.LoadID)
}

func TestDashboard_NotLoadedIs503(t *testing.T) {
	_, srv := newServer(t, api.Options{})

	var resp api.ErrorResponse
	status := get(t, srv, "/api/dashboard", &resp)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotEmpty(t, resp.Error)
}

func TestDiagnostics(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var d api.DiagnosticsDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/diagnostics", &d))

	assert.Equal(t, "memory:sample", d.Source)
	assert.Equal(t, 1, d.Diagnostics.UnparseableDates)
	assert.Equal(t, 1, d.Diagnostics.EmpLengthOutOfDomain)
	assert.Equal(t, 16, d.Diagnostics.Facts)
	assert.Equal(t, "2021-01-14", d.Observed.Start)
	assert.Equal(t, "2022-05-23", d.Observed.End)
}

func TestControls(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var c api.ControlsDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/controls", &c))

	assert.Equal(t, api.RangeDTO{Start: "2021-01-14", End: "2022-05-23"}, c.DateBounds)
	assert.Equal(t, []string{"car", "credit_card", "debt_consolidation", "home_improvement", "medical", loan.UnresolvedLabel}, c.Reasons)
	assert.Equal(t, c.Reasons, c.Selected)
}

// =============================================================================
// AGGREGATES
// =============================================================================

func TestDashboard_DefaultFilterSelectsEverything(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var d api.DashboardDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/dashboard", &d))

	assert.Equal(t, 16, d.Loans)
	assert.Equal(t, "2021-01-14", d.Filter.Start)
	assert.Len(t, d.Filter.Reasons, 6)
	assert.Len(t, d.Monthly, 13)
	assert.Len(t, d.Delinquency, 2)
	assert.Len(t, d.States, 7)
}

func TestDashboard_EmptyReasonSelection(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	resp, err := http.Get(srv.URL + "/api/dashboard?reason=")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var d api.DashboardDTO
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, 0, d.Loans)
	assert.Contains(t, string(body), `"monthly":[]`, "empty arrays, not null")
	assert.Contains(t, string(body), `"states":[]`)
}

func TestMonthly_DateRangeAndReasons(t *testing.T) {
	// GIVEN: Q1 2021, two reasons
	_, srv := loadedServer(t, api.Options{})

	// WHEN
	var s api.SeriesDTO[api.PointDTO]
	status := get(t, srv, "/api/aggregates/monthly?start=2021-01-01&end=2021-03-09&reason=debt_consolidation&reason=home_improvement", &s)

	// THEN: 1001 (Jan, R1), 1003 (Feb, R1), 1004 (Mar 9, R3, inclusive end)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []api.PointDTO{{X: "2021-01", Y: 1}, {X: "2021-02", Y: 1}, {X: "2021-03", Y: 1}}, s.Data)
	assert.Equal(t, "2021-01-14", s.Filter.Start, "clamped to observed bounds")
	assert.Equal(t, "2021-03-09", s.Filter.End)
}

func TestReasons_UnresolvedLast(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var s api.SeriesDTO[api.BarDTO]
	require.Equal(t, http.StatusOK, get(t, srv, "/api/aggregates/reasons", &s))

	require.Len(t, s.Data, 6)
	assert.Equal(t, "car", s.Data[0].Category)
	assert.Equal(t, 3750.0, s.Data[0].Value)
	last := s.Data[len(s.Data)-1]
	assert.Equal(t, loan.UnresolvedLabel, last.Category)
	assert.False(t, last.Resolved)
}

func TestDelinquency(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var s api.SeriesDTO[api.BarDTO]
	require.Equal(t, http.StatusOK, get(t, srv, "/api/aggregates/delinquency", &s))

	require.Len(t, s.Data, 2)
	assert.Equal(t, "Late (16-30 days)", s.Data[0].Category)
	assert.Equal(t, 3, s.Data[0].Count)
	assert.Equal(t, "Late (31-120 days)", s.Data[1].Category)
	assert.Equal(t, 2, s.Data[1].Count)
}

func TestEmployment(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var s api.SeriesDTO[api.BoxDTO]
	require.Equal(t, http.StatusOK, get(t, srv, "/api/aggregates/employment?reason=car", &s))

	// 1007 (< 1 year, 3500) and 1017 (no emp_length, 4000)
	require.Len(t, s.Data, 2)
	assert.Equal(t, "< 1 year", s.Data[0].Category)
	assert.Equal(t, 3500.0, s.Data[0].Distribution.Median)
	assert.Equal(t, loan.UnresolvedLabel, s.Data[1].Category)
}

func TestStates(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var s api.SeriesDTO[api.RegionDTO]
	require.Equal(t, http.StatusOK, get(t, srv, "/api/aggregates/states?reason=medical", &s))

	assert.Equal(t, []api.RegionDTO{{RegionKey: "FL", Value: 11000, Count: 2}}, s.Data)
}

func TestFilter_InvalidDateIs400(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var resp api.ErrorResponse
	status := get(t, srv, "/api/dashboard?start=03/15/2021", &resp)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"start": "datetime"}, resp.Details)
}

// =============================================================================
// FACTS
// =============================================================================

func TestFacts_Paging(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	var page api.FactsPageDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/facts?limit=5&offset=14", &page))

	assert.Equal(t, 16, page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "1017", page.Rows[0].LoanID)
	assert.Nil(t, page.Rows[0].Status, "unknown status code stays null")
	assert.Nil(t, page.Rows[0].EmpLength)
	assert.Equal(t, "1018", page.Rows[1].LoanID)
	require.NotNil(t, page.Rows[1].Amount)
	assert.Equal(t, "13000", *page.Rows[1].Amount)
}

func TestFacts_InvalidLimit(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/facts?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/facts?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/facts?offset=-1", nil))
}

// =============================================================================
// MAP
// =============================================================================

const boundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"CA","properties":{"name":"California"},
  "geometry":{"type":"Polygon","coordinates":[[[-124,32],[-114,32],[-114,42],[-124,42],[-124,32]]]}},
 {"type":"Feature","id":"TX","properties":{"name":"Texas"},
  "geometry":{"type":"Polygon","coordinates":[[[-106,26],[-94,26],[-94,36],[-106,36],[-106,26]]]}}]}`

func TestMap_MissingBoundariesIs503(t *testing.T) {
	_, srv := loadedServer(t, api.Options{GeoJSONPath: filepath.Join(t.TempDir(), "missing.geojson")})

	var resp api.ErrorResponse
	status := get(t, srv, "/api/map", &resp)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, resp.Details, "missing.geojson")

	// the rest of the API keeps working
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/dashboard", nil))
}

func TestMap_JoinsStatesWithBoundaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.geojson")
	require.NoError(t, os.WriteFile(path, []byte(boundaries), 0o644))
	_, srv := loadedServer(t, api.Options{GeoJSONPath: path})

	var m api.MapDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/map", &m))

	require.Len(t, m.Regions, 2)
	assert.Equal(t, "CA", m.Regions[0].RegionKey)
	assert.Equal(t, "California", m.Regions[0].Name)
	assert.Equal(t, 27000.0, m.Regions[0].Value)
	assert.Equal(t, "TX", m.Regions[1].RegionKey)
	assert.Equal(t, 18500.0, m.Regions[1].Value)
	assert.Equal(t, []string{"FL", "GA", "IL", "NY", "WA"}, m.Unmatched)
	require.NotNil(t, m.GeoJSON)
	assert.Len(t, m.GeoJSON.Features, 2)
}

// =============================================================================
// RELOAD
// =============================================================================

func TestReload_SwapsBase(t *testing.T) {
	h, srv := loadedServer(t, api.Options{})
	first := h.Base().ID

	var d api.DiagnosticsDTO
	require.Equal(t, http.StatusOK, post(t, srv, "/api/reload", &d))

	assert.NotEqual(t, first, d.LoadID)
	assert.Equal(t, d.LoadID, h.Base().ID)
}

func TestReload_FailureKeepsCurrentBase(t *testing.T) {
	// GIVEN: a build that succeeds once, then fails
	var calls atomic.Int32
	build := func(ctx context.Context) (*pipeline.Base, error) {
		if calls.Add(1) > 1 {
			return nil, errors.New("source unavailable")
		}
		return sampleBuild(ctx)
	}
	h, srv := loadedServer(t, api.Options{Build: build})
	first := h.Base().ID

	// WHEN
	var resp api.ErrorResponse
	status := post(t, srv, "/api/reload", &resp)

	// THEN
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "source unavailable", resp.Details)
	assert.Equal(t, first, h.Base().ID)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/dashboard", nil))
}

func TestMetrics_Exposed(t *testing.T) {
	_, srv := loadedServer(t, api.Options{})
	get(t, srv, "/api/dashboard", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `loan_insights_http_requests_total{method="GET",route="/api/dashboard",status="200"} 1`), text)
	assert.Contains(t, text, "loan_insights_fact_rows 16")
	assert.Contains(t, text, `loan_insights_builds_total{result="ok"} 1`)
}

func TestRefreshScheduler_Reloads(t *testing.T) {
	var calls atomic.Int32
	build := func(ctx context.Context) (*pipeline.Base, error) {
		calls.Add(1)
		return sampleBuild(ctx)
	}
	h := api.NewHandler(api.Options{Build: build})

	s := api.NewRefreshScheduler(h, 10*time.Millisecond, nil)
	s.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.NotNil(t, h.Base())
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no refresh after Stop")
}

func TestRefreshScheduler_DisabledWithoutInterval(t *testing.T) {
	h := api.NewHandler(api.Options{Build: sampleBuild})

	s := api.NewRefreshScheduler(h, 0, nil)
	s.Start()
	s.Stop()

	assert.Nil(t, h.Base())
}
