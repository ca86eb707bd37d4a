/*
Package geo joins per-state aggregates with GeoJSON region boundaries.

PURPOSE:
  The choropleth needs two things the pipeline does not have: the shape of
  every region and a key that matches AmountByState. Boundaries are read
  once from a FeatureCollection whose feature ids are two-letter state
  codes; the join itself is a map lookup per state.

KEY CONCEPTS:
  - Boundaries: the parsed FeatureCollection indexed by region key
  - Choropleth: one Region per aggregated state that has a boundary, plus
    the state keys no boundary matched

SEE ALSO:
  - pipeline/aggregate.go: AmountByState and RegionKey
  - api/handlers.go: GET /api/map
*/
package geo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
)

// keyProperties are tried, in order, when a feature has no id.
var keyProperties = []string{"id", "code", "postal", "STUSPS"}

// Boundaries is an immutable, indexed FeatureCollection.
type Boundaries struct {
	Path  string
	fc    *geojson.FeatureCollection
	byKey map[string]*geojson.Feature
}

// Load reads a GeoJSON FeatureCollection from path. A missing file is a
// *loan.GeoBoundaryNotFoundError.
func Load(path string) (*Boundaries, error) {
	if path == "" {
		return nil, &loan.GeoBoundaryNotFoundError{Path: path}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &loan.GeoBoundaryNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("read boundaries %s: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries %s: %w", path, err)
	}
	b.Path = path
	return b, nil
}

// Parse indexes a FeatureCollection by region key. Features without a usable
// key are kept in the collection but cannot be joined. The first feature of a
// key wins.
func Parse(data []byte) (*Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	b := &Boundaries{fc: fc, byKey: make(map[string]*geojson.Feature, len(fc.Features))}
	for _, f := range fc.Features {
		key := FeatureKey(f)
		if key == "" {
			continue
		}
		if _, dup := b.byKey[key]; !dup {
			b.byKey[key] = f
		}
	}
	return b, nil
}

// FeatureKey returns the normalized region key of f: its id, or the first
// present key property.
func FeatureKey(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		if k := pipeline.RegionKey(id); k != "" {
			return k
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	for _, p := range keyProperties {
		if v := f.Properties.MustString(p, ""); v != "" {
			return pipeline.RegionKey(v)
		}
	}
	return ""
}

// Len returns the number of keyed regions.
func (b *Boundaries) Len() int { return len(b.byKey) }

// Keys returns the region keys in ascending order.
func (b *Boundaries) Keys() []string {
	keys := make([]string, 0, len(b.byKey))
	for k := range b.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Feature returns the boundary of key.
func (b *Boundaries) Feature(key string) (*geojson.Feature, bool) {
	f, ok := b.byKey[pipeline.RegionKey(key)]
	return f, ok
}

// Bound returns the bounding box of all regions.
func (b *Boundaries) Bound() orb.Bound {
	var bound orb.Bound
	first := true
	for _, f := range b.fc.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			bound = f.Geometry.Bound()
			first = false
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	return bound
}
