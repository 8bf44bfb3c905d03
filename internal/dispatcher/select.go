package dispatcher

import "github.com/fathomworks/multicar-elevator/internal/floor"

// selectCar implements §4.5's car-selection rule: a connected car whose
// range covers both src and dst, lowest ETA wins, ties broken by the
// lexicographically smaller name. Returns nil if no car qualifies.
func selectCar(cars map[string]*carRecord, src, dst floor.Label) *carRecord {
	var best *carRecord
	var bestETA int

	for _, rec := range cars {
		if !rec.Connected || !rec.inRange(src) || !rec.inRange(dst) {
			continue
		}
		eta := callETA(rec, src)
		if best == nil || eta < bestETA || (eta == bestETA && rec.Name < best.Name) {
			best = rec
			bestETA = eta
		}
	}
	return best
}

// callETA is §4.5's formula: |target - effective_position| + queue_length,
// where target is the call's source floor (the pickup the car must reach
// before it can serve the call at all).
func callETA(rec *carRecord, target floor.Label) int {
	p := effectivePosition(rec)
	diff := target.Numeric() - p.Numeric()
	if diff < 0 {
		diff = -diff
	}
	return diff + len(rec.Queue)
}
