package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-insights/app"
	"github.com/warp/loan-insights/config"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/source"
)

func TestOpenSource_SampleBuilds(t *testing.T) {
	// GIVEN the default configuration
	cfg := config.Default()

	// WHEN the source is opened and built
	src, closer, err := app.OpenSource(cfg.Data)
	require.NoError(t, err)
	defer closer.Close()

	base, err := app.Builder(cfg.Data, src, nil)(context.Background())

	// THEN the sample fact table is produced
	require.NoError(t, err)
	assert.Equal(t, 16, base.Len())
	assert.Equal(t, "memory:sample", base.Source)
}

func TestOpenSource_CSVAppliesTableNames(t *testing.T) {
	// GIVEN a CSV config that renames the loans table
	cfg := config.Default().Data
	cfg.Kind = config.KindCSV
	cfg.Path = "/data/extract"
	cfg.Tables = map[string]string{loan.SourceLoans: "loans_2021"}

	// WHEN the source is opened
	src, _, err := app.OpenSource(cfg)
	require.NoError(t, err)

	// THEN the override is used and the other names keep their defaults
	csv, ok := src.(*source.CSV)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/data/extract", "loans_2021.csv"), csv.Path(loan.SourceLoans))
	assert.Equal(t, filepath.Join("/data/extract", "customerdata.csv"), csv.Path(loan.SourceBorrowers))
}

func TestOpenSource_CSVMissingDirectoryFailsOnBuild(t *testing.T) {
	// GIVEN a CSV directory with no files
	cfg := config.Default().Data
	cfg.Kind = config.KindCSV
	cfg.Path = t.TempDir()

	src, _, err := app.OpenSource(cfg)
	require.NoError(t, err)

	// WHEN built
	_, err = app.Builder(cfg, src, nil)(context.Background())

	// THEN the missing table is reported
	assert.True(t, errors.Is(err, loan.ErrSourceNotFound))
}

func TestOpenSource_CSVBuildsFromFiles(t *testing.T) {
	// GIVEN the five tables as CSV files
	dir := t.TempDir()
	files := map[string]string{
		"customerdata.csv":     "loan_id,addr_state,emp_length\n1,CA,3\n2,TX,50\n",
		"loandata.csv":         "loan_id,loan_amnt,issue_date,reason_code,loan_status_code\n1,1000,2021-03-15,R1,S1\n2,2000,2021-04-01,R2,S2\n",
		"loanreason.csv":       "reasoncode,reason\nR1,car\nR2,medical\n",
		"loanstatus.csv":       "loan_status_code,loan_status\nS1,Current\nS2,Late (16-30 days)\n",
		"employmentlength.csv": "emp_length,emp_length_label\n3,3 years\n50,10+ years\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg := config.Default().Data
	cfg.Kind = config.KindCSV
	cfg.Path = dir

	// WHEN opened and built
	src, closer, err := app.OpenSource(cfg)
	require.NoError(t, err)
	defer closer.Close()
	base, err := app.Builder(cfg, src, nil)(context.Background())

	// THEN both loans are facts
	require.NoError(t, err)
	assert.Equal(t, 2, base.Len())
}

func TestOpenSource_UnknownKind(t *testing.T) {
	cfg := config.Default().Data
	cfg.Kind = "parquet"

	_, _, err := app.OpenSource(cfg)

	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
