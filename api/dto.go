/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures handed to chart and map renderers. These
  types decouple the pipeline's typed results from the external contract:
  amounts leave as JSON numbers, dates as YYYY-MM-DD, and every collection
  is an array (never null) so empty selections render as empty charts.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Query: Query-string types parsed from requests

SHAPES:
  Time series:  PointDTO    {x, y}
  Bar:          BarDTO      {category, value}
  Box:          BoxDTO      {category, distribution}
  Choropleth:   RegionDTO   {region_key, value}
  Controls:     ControlsDTO {date_bounds, reasons, selected}

SEE ALSO:
  - handlers.go: Uses these types
  - query.go: FilterQuery and PageQuery
  - pipeline/aggregate.go: The results converted here
*/
package api

import (
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-insights/geo"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RangeDTO is an inclusive date range.
type RangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FilterDTO echoes the filter a response was computed with, after defaults
// and clamping were applied.
type FilterDTO struct {
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Reasons []string `json:"reasons"`
}

// PointDTO is one point of a time series.
type PointDTO struct {
	X string `json:"x"`
	Y int    `json:"y"`
}

// BarDTO is one bar of a categorical chart.
type BarDTO struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
	Resolved bool    `json:"resolved"`
}

// DistributionDTO is the five-number summary of a box plot plus the values.
type DistributionDTO struct {
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
	Values []float64 `json:"values"`
}

// BoxDTO is one box of a box plot.
type BoxDTO struct {
	Category     string          `json:"category"`
	Resolved     bool            `json:"resolved"`
	Count        int             `json:"count"`
	Distribution DistributionDTO `json:"distribution"`
}

// RegionDTO is one value of a choropleth.
type RegionDTO struct {
	RegionKey string  `json:"region_key"`
	Value     float64 `json:"value"`
	Count     int     `json:"count"`
}

// ControlsDTO describes the filter controls.
type ControlsDTO struct {
	DateBounds RangeDTO `json:"date_bounds"`
	Reasons    []string `json:"reasons"`
	Selected   []string `json:"selected"`
}

// DashboardDTO carries all five views for one filter.
type DashboardDTO struct {
	Filter      FilterDTO   `json:"filter"`
	Loans       int         `json:"loans"`
	TotalAmount float64     `json:"total_amount"`
	Monthly     []PointDTO  `json:"monthly"`
	Reasons     []BarDTO    `json:"reasons"`
	Delinquency []BarDTO    `json:"delinquency"`
	Employment  []BoxDTO    `json:"employment"`
	States      []RegionDTO `json:"states"`
}

// SeriesDTO wraps a single aggregate with its filter.
type SeriesDTO[T any] struct {
	Filter FilterDTO `json:"filter"`
	Data   []T       `json:"data"`
}

// MapRegionDTO is a choropleth region joined with its boundary.
type MapRegionDTO struct {
	RegionKey string     `json:"region_key"`
	Name      string     `json:"name"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	Center    [2]float64 `json:"center"`
}

// MapDTO is the choropleth payload.
type MapDTO struct {
	Filter    FilterDTO                  `json:"filter"`
	Regions   []MapRegionDTO             `json:"regions"`
	Unmatched []string                   `json:"unmatched"`
	Bound     [4]float64                 `json:"bound"` // min lon, min lat, max lon, max lat
	GeoJSON   *geojson.FeatureCollection `json:"geojson"`
}

// FactDTO is one row of the explore table.
type FactDTO struct {
	LoanID        string  `json:"loan_id"`
	AddrState     string  `json:"addr_state"`
	Amount        *string `json:"loan_amnt"` // null when the source cell was empty or non-numeric
	IssueDate     string  `json:"issue_date"`
	Month         string  `json:"issue_month"`
	ReasonCode    string  `json:"reason_code"`
	Reason        *string `json:"reason"`
	StatusCode    string  `json:"loan_status_code"`
	Status        *string `json:"loan_status"`
	EmpLengthCode string  `json:"emp_length"`
	EmpLength     *string `json:"emp_length_label"`
}

// FactsPageDTO is one page of filtered fact rows.
type FactsPageDTO struct {
	Filter FilterDTO `json:"filter"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Rows   []FactDTO `json:"rows"`
}

// DiagnosticsDTO describes the current fact table.
type DiagnosticsDTO struct {
	LoadID      string               `json:"load_id"`
	Source      string               `json:"source"`
	BuiltAt     string               `json:"built_at"`
	Observed    RangeDTO             `json:"observed"`
	Diagnostics pipeline.Diagnostics `json:"diagnostics"`
}

// HealthDTO is the liveness response.
type HealthDTO struct {
	Status string `json:"status"`
	LoadID string `json:"load_id,omitempty"`
	Facts  int    `json:"facts"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) float64 { return d.InexactFloat64() }

func toRangeDTO(r loan.DateRange) RangeDTO {
	return RangeDTO{Start: r.Start.String(), End: r.End.String()}
}

func toFilterDTO(spec pipeline.FilterSpec, r loan.DateRange) FilterDTO {
	return FilterDTO{Start: r.Start.String(), End: r.End.String(), Reasons: spec.Reasons.Labels()}
}

func toPointDTOs(ms []pipeline.MonthlyCount) []PointDTO {
	dtos := make([]PointDTO, len(ms))
	for i, m := range ms {
		dtos[i] = PointDTO{X: m.Label, Y: m.Count}
	}
	return dtos
}

func toReasonDTOs(rs []pipeline.ReasonMean) []BarDTO {
	dtos := make([]BarDTO, len(rs))
	for i, r := range rs {
		dtos[i] = BarDTO{Category: r.Reason, Value: money(r.Mean), Count: r.Count, Resolved: r.Resolved}
	}
	return dtos
}

func toStatusDTOs(ss []pipeline.StatusCount) []BarDTO {
	dtos := make([]BarDTO, len(ss))
	for i, s := range ss {
		dtos[i] = BarDTO{Category: s.Status, Value: float64(s.Count), Count: s.Count, Resolved: true}
	}
	return dtos
}

func toBoxDTOs(ds []pipeline.AmountDistribution) []BoxDTO {
	dtos := make([]BoxDTO, len(ds))
	for i, d := range ds {
		values := make([]float64, len(d.Values))
		for j, v := range d.Values {
			values[j] = money(v)
		}
		dtos[i] = BoxDTO{
			Category: d.EmpLength,
			Resolved: d.Resolved,
			Count:    d.Count,
			Distribution: DistributionDTO{
				Min:    money(d.Min),
				Q1:     money(d.Q1),
				Median: money(d.Median),
				Q3:     money(d.Q3),
				Max:    money(d.Max),
				Values: values,
			},
		}
	}
	return dtos
}

func toRegionDTOs(ss []pipeline.StateTotal) []RegionDTO {
	dtos := make([]RegionDTO, len(ss))
	for i, s := range ss {
		dtos[i] = RegionDTO{RegionKey: s.State, Value: money(s.Total), Count: s.Count}
	}
	return dtos
}

func toDashboardDTO(filter FilterDTO, d pipeline.Dashboard) DashboardDTO {
	return DashboardDTO{
		Filter:      filter,
		Loans:       d.Loans,
		TotalAmount: money(d.TotalAmount),
		Monthly:     toPointDTOs(d.Monthly),
		Reasons:     toReasonDTOs(d.Reasons),
		Delinquency: toStatusDTOs(d.Delinquency),
		Employment:  toBoxDTOs(d.Employment),
		States:      toRegionDTOs(d.States),
	}
}

func toControlsDTO(c pipeline.Controls) ControlsDTO {
	return ControlsDTO{
		DateBounds: toRangeDTO(c.DateBounds),
		Reasons:    nonNil(c.Reasons),
		Selected:   nonNil(c.Selected),
	}
}

func toMapDTO(filter FilterDTO, c *geo.Choropleth) MapDTO {
	regions := make([]MapRegionDTO, len(c.Regions))
	for i, r := range c.Regions {
		regions[i] = MapRegionDTO{
			RegionKey: r.Key,
			Name:      r.Name,
			Value:     money(r.Value),
			Count:     r.Count,
			Center:    [2]float64{r.Center.X(), r.Center.Y()},
		}
	}
	return MapDTO{
		Filter:    filter,
		Regions:   regions,
		Unmatched: nonNil(c.Unmatched),
		Bound:     [4]float64{c.Bound.Min.X(), c.Bound.Min.Y(), c.Bound.Max.X(), c.Bound.Max.Y()},
		GeoJSON:   c.FeatureCollection(),
	}
}

func toFactDTO(f loan.FactRow) FactDTO {
	var amount *string
	if f.Amount.Valid {
		amount = loan.StrPtr(f.Amount.Decimal.String())
	}
	return FactDTO{
		LoanID:        f.LoanID,
		AddrState:     f.AddrState,
		Amount:        amount,
		IssueDate:     f.IssueDate.String(),
		Month:         f.MonthLabel,
		ReasonCode:    f.ReasonCode,
		Reason:        f.Reason,
		StatusCode:    f.StatusCode,
		Status:        f.Status,
		EmpLengthCode: f.EmpLengthCode,
		EmpLength:     f.EmpLength,
	}
}

func toDiagnosticsDTO(b *pipeline.Base) DiagnosticsDTO {
	return DiagnosticsDTO{
		LoadID:      b.ID,
		Source:      b.Source,
		BuiltAt:     b.BuiltAt.Format(time.RFC3339),
		Observed:    toRangeDTO(b.Observed()),
		Diagnostics: b.Diagnostics,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
