/*
Package app wires configuration to sources, the pipeline and the API.

PURPOSE:
  cmd/server and cmd/report both turn a config.Config into a Source and a
  build function. Keeping that wiring here means both commands read the
  same data the same way.

SEE ALSO:
  - config/config.go: DataConfig
  - source/: CSV, XLSX, SQLite and sample sources
  - api/handlers.go: BuildFunc
*/
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/warp/loan-insights/api"
	"github.com/warp/loan-insights/config"
	"github.com/warp/loan-insights/pipeline"
	"github.com/warp/loan-insights/source"
	"github.com/warp/loan-insights/source/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource returns the Source described by cfg. The closer releases the
// underlying database handle, if any.
func OpenSource(cfg config.DataConfig) (source.Source, io.Closer, error) {
	names := source.DefaultTableNames().Merge(cfg.Tables)

	switch cfg.Kind {
	case config.KindSample:
		return source.Sample(), nopCloser{}, nil
	case config.KindCSV:
		src := source.NewCSV(cfg.Path)
		src.Names = names
		return src, nopCloser{}, nil
	case config.KindXLSX:
		src := source.NewXLSX(cfg.Path)
		src.Names = names
		return src, nopCloser{}, nil
	case config.KindSQLite:
		src, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		src.Names = names
		return src, src, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown data.kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
}

// Builder returns a build function over src with the schema and date layout
// of cfg.
func Builder(cfg config.DataConfig, src source.Source, logger *zap.Logger) api.BuildFunc {
	opts := pipeline.BuildOptions{
		Schema:     cfg.Schema,
		DateLayout: cfg.DateLayout,
		Logger:     logger,
	}
	return func(ctx context.Context) (*pipeline.Base, error) {
		return pipeline.Build(ctx, src, opts)
	}
}
