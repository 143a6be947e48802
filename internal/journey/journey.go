// Package journey turns a player's tick records for one round into a
// sampled path through the analysed region.
package journey

import (
	"math"
	"sort"

	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/zone"
)

// UnknownEntry is the entry point of a journey that did not start in an
// entry zone.
const UnknownEntry = "unknown"

// Tracker samples tick records at a fixed stride.
type Tracker struct {
	cls      *zone.Classifier
	stride   int
	tickRate float64
}

// New returns a Tracker. Stride and tick rate must be positive.
func New(cls *zone.Classifier, stride int, tickRate float64) *Tracker {
	if stride < 1 {
		stride = 1
	}
	return &Tracker{cls: cls, stride: stride, tickRate: tickRate}
}

// Time converts a tick to seconds, rounded to 0.01.
func (t *Tracker) Time(tick int) float64 {
	if t.tickRate <= 0 {
		return 0
	}
	return Round(float64(tick)/t.tickRate, 2)
}

// Track returns the in-region path for one player-round. Only alive ticks
// are sampled; every stride-th one is kept, ordered by tick. The first
// point is the entry and the flag is never set again in the same round.
func (t *Tracker) Track(ticks []*model.TickRecord) []model.JourneyPoint {
	alive := make([]*model.TickRecord, 0, len(ticks))
	for _, r := range ticks {
		if r.Alive() {
			alive = append(alive, r)
		}
	}
	sort.SliceStable(alive, func(i, j int) bool { return alive[i].Tick < alive[j].Tick })

	var (
		out     []model.JourneyPoint
		entered bool
	)
	for i := 0; i < len(alive); i += t.stride {
		r := alive[i]
		if r.Pos.IsZero() || !t.cls.InBounds(r.Pos.X, r.Pos.Y) {
			continue
		}
		out = append(out, model.JourneyPoint{
			Tick:    r.Tick,
			Time:    t.Time(r.Tick),
			X:       Round(r.Pos.X, 1),
			Y:       Round(r.Pos.Y, 1),
			Area:    t.cls.Classify(r.Pos.X, r.Pos.Y),
			IsEntry: !entered,
		})
		entered = true
	}
	return out
}

// PrimaryPosition is the most visited area. Ties go to the area reached
// first. Empty journeys return "".
func PrimaryPosition(points []model.JourneyPoint) string {
	counts := make(map[string]int)
	var order []string
	for _, p := range points {
		if counts[p.Area] == 0 {
			order = append(order, p.Area)
		}
		counts[p.Area]++
	}
	best, n := "", 0
	for _, a := range order {
		if counts[a] > n {
			best, n = a, counts[a]
		}
	}
	return best
}

// EntryPoint is the first area of the journey when it is an entry zone.
func EntryPoint(points []model.JourneyPoint, cls *zone.Classifier) string {
	if len(points) == 0 || !cls.IsEntry(points[0].Area) {
		return UnknownEntry
	}
	return points[0].Area
}

// TimeInSite is the time between the first and last point, in seconds.
func TimeInSite(points []model.JourneyPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	return Round(points[len(points)-1].Time-points[0].Time, 2)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
