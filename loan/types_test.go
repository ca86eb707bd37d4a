package loan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-insights/loan"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		cell  string
		valid bool
		err   bool
	}{
		{name: "integer", cell: "1000", valid: true},
		{name: "decimal", cell: "2500.50", valid: true},
		{name: "empty cell", cell: ""},
		{name: "non-numeric", cell: "n/a", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loan.ParseAmount(tt.cell)

			assert.Equal(t, tt.err, err != nil)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, got.Decimal.Equal(loan.MustAmount(tt.cell)))
			}
		})
	}
}

func TestMustAmount_PanicsOnBadLiteral(t *testing.T) {
	assert.Panics(t, func() { loan.MustAmount("12,5") })
	assert.NotPanics(t, func() { loan.MustAmount("12.5") })
}

func TestSumAmounts_SkipsMissing(t *testing.T) {
	rows := []loan.FactRow{
		{Amount: loan.AmountOf("10")},
		{},
		{Amount: loan.AmountOf("2.5")},
	}

	assert.True(t, loan.SumAmounts(rows).Equal(loan.MustAmount("12.5")))
}

func TestEscapeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "car", want: "car"},
		{in: "", want: ""},
		{in: loan.UnresolvedLabel, want: `"(unresolved)"`},
		{in: `"(unresolved)"`, want: `""(unresolved)""`},
		{in: `"(unresolved)`, want: `"(unresolved)`},
		{in: `"car"`, want: `"car"`},
	}
	seen := make(map[string]string)
	for _, tt := range tests {
		got := loan.EscapeLabel(tt.in)
		assert.Equal(t, tt.want, got, "EscapeLabel(%q)", tt.in)
		assert.NotEqual(t, loan.UnresolvedLabel, got)

		prev, dup := seen[got]
		require.False(t, dup, "%q and %q both escape to %q", prev, tt.in, got)
		seen[got] = tt.in
	}
}

func TestReasonLabel_NilIsUnresolved(t *testing.T) {
	assert.Equal(t, loan.UnresolvedLabel, loan.FactRow{}.ReasonLabel())
	assert.Equal(t, "car", loan.FactRow{Reason: loan.StrPtr("car")}.ReasonLabel())
}
