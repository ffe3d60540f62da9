package elevation

import (
	"math"
	"sort"

	"github.com/lehigh-university-libraries/cadfeat/pkg/geom"
)

// Lane is a column of elevation markers stacked over one another, ordered from the
// highest value down. Diffs[k] is Values[k]-Values[k+1] rounded to two decimals.
type Lane struct {
	Markers []geom.ElevationMarker `json:"markers" yaml:"markers"`
	Values  []float64              `json:"values" yaml:"values"`
	Diffs   []float64              `json:"diffs" yaml:"diffs"`
}

// GroupByLane groups labelled markers whose poles line up vertically.
//
// Each marker not yet grouped seeds a lane, which collects every other ungrouped marker
// whose pole center lies within the seed pole's x-range. Markers whose pole repeats the
// envelope of a pole already grouped are skipped. Lanes with fewer than two markers are
// dropped.
func GroupByLane(markers []geom.ElevationMarker) []Lane {
	var labelled []geom.ElevationMarker
	for _, m := range markers {
		if m.Label != nil {
			labelled = append(labelled, m)
		}
	}

	grouped := make([]bool, len(labelled))
	seenPoles := make(map[geom.Envelope]bool)
	var lanes []Lane

	for i, seed := range labelled {
		if grouped[i] || seenPoles[seed.Pole.Envelope] {
			continue
		}
		grouped[i] = true
		seenPoles[seed.Pole.Envelope] = true
		pole := seed.Pole.Envelope

		members := []geom.ElevationMarker{seed}
		for j, m := range labelled {
			if grouped[j] || seenPoles[m.Pole.Envelope] {
				continue
			}
			cx := m.Pole.Envelope.Center().X
			if cx < pole.MinX || cx > pole.MaxX {
				continue
			}
			grouped[j] = true
			seenPoles[m.Pole.Envelope] = true
			members = append(members, m)
		}
		if len(members) < 2 {
			continue
		}

		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Value > members[b].Value
		})
		lane := Lane{Markers: members, Values: make([]float64, len(members))}
		for k, m := range members {
			lane.Values[k] = m.Value
		}
		for k := 0; k+1 < len(lane.Values); k++ {
			lane.Diffs = append(lane.Diffs, round2(lane.Values[k]-lane.Values[k+1]))
		}
		lanes = append(lanes, lane)
	}
	return lanes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildingHeight is the highest elevation over all lanes, or for a below-grade view the
// depth of the lowest one
func BuildingHeight(lanes []Lane, belowGrade bool) (float64, bool) {
	var values []float64
	for _, l := range lanes {
		values = append(values, l.Values...)
	}
	if len(values) == 0 {
		return 0, false
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if belowGrade {
		return math.Abs(lo), true
	}
	return hi, true
}

// StandardFloorHeight is the most frequent non-zero storey difference over all lanes, ties
// going to the difference seen first. For a below-grade view it is the smallest non-zero
// difference.
func StandardFloorHeight(lanes []Lane, belowGrade bool) (float64, bool) {
	var diffs []float64
	for _, l := range lanes {
		for _, d := range l.Diffs {
			if d != 0 {
				diffs = append(diffs, d)
			}
		}
	}
	if len(diffs) == 0 {
		return 0, false
	}

	if belowGrade {
		lo := diffs[0]
		for _, d := range diffs[1:] {
			lo = math.Min(lo, d)
		}
		return lo, true
	}

	counts := make(map[float64]int)
	best, bestCount := diffs[0], 0
	for _, d := range diffs {
		counts[d]++
	}
	for _, d := range diffs {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best, true
}
