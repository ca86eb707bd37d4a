package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-insights/pipeline"
)

// =============================================================================
// CHOROPLETH - State totals joined with boundaries
// =============================================================================

// Region is one shaded area.
type Region struct {
	Key    string
	Name   string
	Value  decimal.Decimal
	Count  int
	Center orb.Point
}

// Choropleth is the map payload for one query.
type Choropleth struct {
	Regions   []Region
	Unmatched []string // state keys with data but no boundary
	Bound     orb.Bound
	features  []*geojson.Feature
}

// Join matches totals (as returned by pipeline.AmountByState) against b.
// Region order follows totals.
func Join(b *Boundaries, totals []pipeline.StateTotal) *Choropleth {
	c := &Choropleth{
		Regions:   make([]Region, 0, len(totals)),
		Unmatched: make([]string, 0),
		Bound:     b.Bound(),
	}
	for _, t := range totals {
		f, ok := b.Feature(t.State)
		if !ok {
			c.Unmatched = append(c.Unmatched, t.State)
			continue
		}
		r := Region{
			Key:   t.State,
			Name:  f.Properties.MustString("name", t.State),
			Value: t.Total,
			Count: t.Count,
		}
		if f.Geometry != nil {
			r.Center = f.Geometry.Bound().Center()
		}
		c.Regions = append(c.Regions, r)
		c.features = append(c.features, f)
	}
	return c
}

// FeatureCollection returns the matched regions as GeoJSON with the
// aggregate in the "value" and "count" properties.
func (c *Choropleth) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, r := range c.Regions {
		f := geojson.NewFeature(c.features[i].Geometry)
		f.ID = r.Key
		f.Properties["name"] = r.Name
		f.Properties["value"] = r.Value.InexactFloat64()
		f.Properties["count"] = r.Count
		fc.Append(f)
	}
	return fc
}
