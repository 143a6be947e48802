// Package zone names the sub-area of the analysed region that a map
// position falls in.
package zone

import (
	"github.com/golang/geo/r2"

	"github.com/pable/go-cs-positions/internal/config"
)

type area struct {
	name string
	rect r2.Rect
}

// Classifier maps (x, y) to a zone label. It is immutable and safe for
// concurrent use.
type Classifier struct {
	zones   []area
	bounds  r2.Rect
	region  string
	outside string
	entries map[string]bool
}

// New builds a classifier from the site configuration. Zone order is kept:
// the first rectangle containing a point wins.
func New(site config.Site) *Classifier {
	c := &Classifier{
		zones:   make([]area, 0, len(site.Zones)),
		bounds:  toRect(site.Bounds),
		region:  site.RegionLabel,
		outside: site.OutsideLabel,
		entries: make(map[string]bool, len(site.EntryZones)),
	}
	for _, z := range site.Zones {
		c.zones = append(c.zones, area{name: z.Name, rect: toRect(z)})
	}
	for _, e := range site.EntryZones {
		c.entries[e] = true
	}
	return c
}

func toRect(r config.Rect) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: r.MinX, Y: r.MinY}, r2.Point{X: r.MaxX, Y: r.MaxY})
}

// Classify returns the first matching zone, the region label when the point
// is only inside the outer bounds, and the outside label otherwise.
func (c *Classifier) Classify(x, y float64) string {
	p := r2.Point{X: x, Y: y}
	for _, z := range c.zones {
		if z.rect.ContainsPoint(p) {
			return z.name
		}
	}
	if c.bounds.ContainsPoint(p) {
		return c.region
	}
	return c.outside
}

// InBounds reports whether the point lies inside the outer region box.
func (c *Classifier) InBounds(x, y float64) bool {
	return c.bounds.ContainsPoint(r2.Point{X: x, Y: y})
}

// IsEntry reports whether zone is one of the configured entry zones.
func (c *Classifier) IsEntry(zone string) bool { return c.entries[zone] }

// Outside is the label returned for points outside the region.
func (c *Classifier) Outside() string { return c.outside }

// Names lists the zone names in priority order.
func (c *Classifier) Names() []string {
	out := make([]string, len(c.zones))
	for i, z := range c.zones {
		out[i] = z.name
	}
	return out
}
