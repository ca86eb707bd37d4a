/*
main.go - One-shot dashboard report

PURPOSE:
  Builds the fact table once, applies a filter and prints the five
  aggregates as plain-text tables. Useful for checking an extract before
  pointing the server at it.

COMMAND-LINE FLAGS:
  -config   YAML configuration file (optional)
  -source   sample | csv | xlsx | sqlite (overrides data.kind)
  -data     CSV directory, workbook or database path (overrides data.path)
  -start    First issue date, YYYY-MM-DD (default: observed minimum)
  -end      Last issue date, YYYY-MM-DD (default: observed maximum)
  -reason   Comma-separated reason labels (default: all)
  -diag     Print build diagnostics as JSON before the report

EXAMPLES:
  ./report
  ./report -source=csv -data=./data -start=2021-01-01 -reason=car,medical

SEE ALSO:
  - cmd/server/main.go: The same data over HTTP
  - pipeline/aggregate.go: The aggregates printed here
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/warp/loan-insights/app"
	"github.com/warp/loan-insights/config"
	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/logging"
	"github.com/warp/loan-insights/pipeline"
)

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	configPath := flag.String("config", "", "YAML configuration file")
	kind := flag.String("source", "", "Data source kind: sample, csv, xlsx or sqlite")
	dataPath := flag.String("data", "", "CSV directory, XLSX workbook or SQLite database")
	start := flag.String("start", "", "First issue date (YYYY-MM-DD)")
	end := flag.String("end", "", "Last issue date (YYYY-MM-DD)")
	reasons := flag.String("reason", "", "Comma-separated reason labels")
	diag := flag.Bool("diag", false, "Print build diagnostics")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg = cfg.With(config.Overrides{Kind: *kind, Path: *dataPath})
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Reports go to stdout; keep the log on stderr and quiet.
	cfg.Logging.Level = "warn"
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	src, closer, err := app.OpenSource(cfg.Data)
	if err != nil {
		return err
	}
	defer closer.Close()

	base, err := app.Builder(cfg.Data, src, logger)(context.Background())
	if err != nil {
		return err
	}
	logger.Debug("Fact table built", zap.String("load_id", base.ID))

	spec, err := filterSpec(base, *start, *end, *reasons)
	if err != nil {
		return err
	}

	if *diag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(base.Diagnostics); err != nil {
			return err
		}
	}

	r := base.Range(spec)
	fmt.Fprintf(out, "Source:  %s\nRange:   %s .. %s\nReasons: %s\n\n",
		base.Source, r.Start, r.End, strings.Join(spec.Reasons.Labels(), ", "))
	printDashboard(out, pipeline.DashboardFor(base.Query(spec)))
	return nil
}

func filterSpec(base *pipeline.Base, start, end, reasons string) (pipeline.FilterSpec, error) {
	spec := base.DefaultFilter()
	if start != "" {
		d, err := loan.ParseDate(loan.DefaultDateLayout, start)
		if err != nil {
			return spec, fmt.Errorf("invalid -start: %w", err)
		}
		spec.Start = &d
	}
	if end != "" {
		d, err := loan.ParseDate(loan.DefaultDateLayout, end)
		if err != nil {
			return spec, fmt.Errorf("invalid -end: %w", err)
		}
		spec.End = &d
	}
	if reasons != "" {
		var labels []string
		for _, l := range strings.Split(reasons, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
		spec.Reasons = loan.NewReasonSet(labels...)
	}
	return spec, nil
}

func printDashboard(out io.Writer, d pipeline.Dashboard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Loans\t%d\nTotal amount\t%s\n\n", d.Loans, d.TotalAmount.StringFixed(2))

	fmt.Fprintln(w, "MONTH\tLOANS")
	for _, m := range d.Monthly {
		fmt.Fprintf(w, "%s\t%d\n", m.Label, m.Count)
	}

	fmt.Fprintln(w, "\nREASON\tLOANS\tMEAN AMOUNT")
	for _, r := range d.Reasons {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Reason, r.Count, r.Mean.StringFixed(2))
	}

	fmt.Fprintln(w, "\nSTATUS\tLOANS")
	for _, s := range d.Delinquency {
		fmt.Fprintf(w, "%s\t%d\n", s.Status, s.Count)
	}

	fmt.Fprintln(w, "\nEMP LENGTH\tLOANS\tMIN\tQ1\tMEDIAN\tQ3\tMAX")
	for _, e := range d.Employment {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n", e.EmpLength, e.Count,
			e.Min.StringFixed(2), e.Q1.StringFixed(2), e.Median.StringFixed(2),
			e.Q3.StringFixed(2), e.Max.StringFixed(2))
	}

	fmt.Fprintln(w, "\nSTATE\tLOANS\tTOTAL AMOUNT")
	for _, s := range d.States {
		fmt.Fprintf(w, "%s\t%d\t%s\n", s.State, s.Count, s.Total.StringFixed(2))
	}
}
