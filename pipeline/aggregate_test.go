package pipeline_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
	"github.com/warp/loan-insights/source"
)

func dec(s string) decimal.Decimal { return loan.MustAmount(s) }

func TestAggregates_ConcreteScenario(t *testing.T) {
	// GIVEN: the two-loan dataset, all reasons selected
	base := build(t, dataset())
	rows := base.Query(pipeline.AllReasons(base.Facts()))

	// WHEN
	monthly := pipeline.MonthlyCounts(rows)
	delinquency := pipeline.DelinquencyCounts(rows)
	states := pipeline.AmountByState(rows)

	// THEN
	require.Len(t, monthly, 2)
	assert.Equal(t, pipeline.MonthlyCount{Month: 202103, Label: "2021-03", Count: 1}, monthly[0])
	assert.Equal(t, pipeline.MonthlyCount{Month: 202104, Label: "2021-04", Count: 1}, monthly[1])

	assert.Equal(t, []pipeline.StatusCount{{Status: "Late (16-30 days)", Count: 1}}, delinquency)

	require.Len(t, states, 2)
	assert.Equal(t, "CA", states[0].State)
	assert.True(t, states[0].Total.Equal(dec("1000")))
	assert.Equal(t, "TX", states[1].State)
	assert.True(t, states[1].Total.Equal(dec("2000")))
}

func TestAggregates_EmptyInputGivesEmptyResults(t *testing.T) {
	d := pipeline.DashboardFor(nil)

	assert.Equal(t, 0, d.Loans)
	assert.True(t, d.TotalAmount.IsZero())
	assert.NotNil(t, d.Monthly)
	assert.Empty(t, d.Monthly)
	assert.NotNil(t, d.Reasons)
	assert.NotNil(t, d.Delinquency)
	assert.NotNil(t, d.Employment)
	assert.NotNil(t, d.States)
}

func TestMeanAmountByReason_UnresolvedIsOwnGroupSortedLast(t *testing.T) {
	rows := []loan.FactRow{
		{Reason: loan.StrPtr("medical"), Amount: loan.AmountOf("100")},
		{Reason: nil, Amount: loan.AmountOf("50")},
		{Reason: loan.StrPtr("car"), Amount: loan.AmountOf("10")},
		{Reason: loan.StrPtr("car"), Amount: loan.AmountOf("20")},
		{Reason: loan.StrPtr("car"), Amount: loan.AmountOf("20")},
	}

	got := pipeline.MeanAmountByReason(rows)

	require.Len(t, got, 3)
	assert.Equal(t, "car", got[0].Reason)
	assert.Equal(t, 3, got[0].Count)
	assert.True(t, got[0].Mean.Equal(dec("16.67")), "rounded to cents, got %s", got[0].Mean)
	assert.Equal(t, "medical", got[1].Reason)
	assert.Equal(t, loan.UnresolvedLabel, got[2].Reason)
	assert.False(t, got[2].Resolved)
}

func TestDelinquencyCounts_EnumeratedOrderOnly(t *testing.T) {
	rows := []loan.FactRow{
		{Status: loan.StrPtr("Late (31-120 days)")},
		{Status: loan.StrPtr("Current")},
		{Status: loan.StrPtr("Late (16-30 days)")},
		{Status: loan.StrPtr("Late (31-120 days)")},
		{Status: nil},
	}

	got := pipeline.DelinquencyCounts(rows)

	assert.Equal(t, []pipeline.StatusCount{
		{Status: "Late (16-30 days)", Count: 1},
		{Status: "Late (31-120 days)", Count: 2},
	}, got)
}

func TestAmountDistributionByEmployment_Quartiles(t *testing.T) {
	rows := []loan.FactRow{
		{EmpLength: loan.StrPtr("1-2 years"), Amount: loan.AmountOf("400")},
		{EmpLength: loan.StrPtr("1-2 years"), Amount: loan.AmountOf("100")},
		{EmpLength: loan.StrPtr("1-2 years"), Amount: loan.AmountOf("300")},
		{EmpLength: loan.StrPtr("1-2 years"), Amount: loan.AmountOf("200")},
		{EmpLength: loan.StrPtr("1-2 years"), Amount: loan.AmountOf("500")},
		{EmpLength: nil, Amount: loan.AmountOf("70")},
	}

	got := pipeline.AmountDistributionByEmployment(rows)

	require.Len(t, got, 2)
	d := got[0]
	assert.Equal(t, "1-2 years", d.EmpLength)
	assert.Equal(t, 5, d.Count)
	assert.True(t, d.Min.Equal(dec("100")))
	assert.True(t, d.Q1.Equal(dec("200")))
	assert.True(t, d.Median.Equal(dec("300")))
	assert.True(t, d.Q3.Equal(dec("400")))
	assert.True(t, d.Max.Equal(dec("500")))
	assert.True(t, d.Values[0].Equal(dec("100")), "values sorted")

	assert.Equal(t, loan.UnresolvedLabel, got[1].EmpLength)
	assert.True(t, got[1].Median.Equal(dec("70")))
}

func TestQuantile_Interpolates(t *testing.T) {
	vs := []decimal.Decimal{dec("10"), dec("20"), dec("30"), dec("40")}

	assert.True(t, pipeline.Quantile(vs, 0.5).Equal(dec("25")))
	assert.True(t, pipeline.Quantile(vs, 0.25).Equal(dec("17.5")))
	assert.True(t, pipeline.Quantile(vs, 1).Equal(dec("40")))
	assert.True(t, pipeline.Quantile(nil, 0.5).IsZero())
}

func TestAmountByState_NormalizesAndSkipsEmpty(t *testing.T) {
	rows := []loan.FactRow{
		{AddrState: "ca", Amount: loan.AmountOf("10")},
		{AddrState: " CA ", Amount: loan.AmountOf("5")},
		{AddrState: "", Amount: loan.AmountOf("99")},
		{AddrState: "NV", Amount: loan.AmountOf("1")},
	}

	got := pipeline.AmountByState(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "CA", got[0].State)
	assert.True(t, got[0].Total.Equal(dec("15")))
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "NV", got[1].State)
}

func TestDashboardFor_Sample(t *testing.T) {
	base := build(t, source.Sample())

	d := pipeline.DashboardFor(base.Query(pipeline.AllReasons(base.Facts())))

	assert.Equal(t, 16, d.Loans)
	assert.Len(t, d.Monthly, 13)
	assert.Equal(t, []pipeline.StatusCount{
		{Status: "Late (16-30 days)", Count: 3},
		{Status: "Late (31-120 days)", Count: 2},
	}, d.Delinquency)

	totals := make(map[string]string, len(d.States))
	for _, s := range d.States {
		totals[s.State] = s.Total.String()
	}
	assert.Equal(t, map[string]string{
		"CA": "27000", "TX": "18500", "NY": "64000", "FL": "11000",
		"WA": "50000", "IL": "28000", "GA": "20000",
	}, totals)

	require.NotEmpty(t, d.Reasons)
	last := d.Reasons[len(d.Reasons)-1]
	assert.Equal(t, loan.UnresolvedLabel, last.Reason)
	assert.True(t, last.Mean.Equal(dec("7000")))
}
