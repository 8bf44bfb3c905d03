package dispatcher

import (
	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

// direction is a car's current sweep direction, used only for SCAN
// insertion ordering — it never filters candidate selection (§9's open
// question: the source's direction-compatibility check is commented
// out, so none is added here).
type direction int

const (
	sweepUp direction = iota
	sweepDown
)

// effectivePosition is §4.5's adjustment: a car mid-transit is treated
// as one step past its reported current floor, in the direction of
// travel, so a newly inserted floor is never placed "just behind" a car
// that has effectively already passed it.
func effectivePosition(rec *carRecord) floor.Label {
	if (rec.Status == state.Closing || rec.Status == state.Between) && floor.Compare(rec.Current, rec.Destination) != 0 {
		if next, err := floor.NextToward(rec.Current, rec.Destination, rec.Lowest, rec.Highest); err == nil {
			return next
		}
	}
	return rec.Current
}

// sweepDirection infers D for inserting floor f: from current vs
// destination if the car is moving, else from the queue head, else from
// f itself relative to the car's current floor.
func sweepDirection(rec *carRecord, f floor.Label) direction {
	if floor.Compare(rec.Current, rec.Destination) != 0 {
		return directionOf(rec.Current, rec.Destination)
	}
	if len(rec.Queue) > 0 {
		return directionOf(rec.Current, rec.Queue[0])
	}
	return directionOf(rec.Current, f)
}

func directionOf(from, to floor.Label) direction {
	if floor.Compare(to, from) < 0 {
		return sweepDown
	}
	return sweepUp
}

// insertSCAN inserts f into queue, re-derived from §4.5's stated
// invariants (sweep membership, monotone order within a sweep, head
// stability) rather than copied from any nested-conditional reference
// implementation, per the spec's explicit instruction.
//
// queue[0], when present, is the head: the floor already committed as
// the car's outstanding FLOOR target. It never moves as a result of a
// later insertion. The remainder is kept in two monotone runs relative
// to the head: floors ahead of the head in the sweep direction (visited
// continuing the sweep, ordered toward the sweep's far end) then floors
// behind the head but still in this sweep (visited after reversing at
// the head, ordered nearest-to-head first). A floor already in the queue
// is not inserted a second time.
func insertSCAN(queue []floor.Label, f, p floor.Label, dir direction) []floor.Label {
	if len(queue) == 0 {
		return []floor.Label{f}
	}
	for _, q := range queue {
		if floor.Compare(q, f) == 0 {
			return queue
		}
	}

	inSweep := func(q floor.Label) bool {
		if dir == sweepUp {
			return floor.Compare(q, p) > 0
		}
		return floor.Compare(q, p) <= 0
	}

	belongsThisSweep := inSweep(f)
	if !belongsThisSweep {
		return appendTail(queue, f)
	}

	rest := queue[1:]
	for _, q := range rest {
		if !inSweep(q) {
			continue
		}
		// A same-sweep floor already queued "further out" than f
		// defers f to the next sweep: the car is committed to
		// reaching that farther floor first, so f cannot be spliced
		// in ahead of it without reordering an already-committed stop.
		if (dir == sweepUp && floor.Compare(f, q) < 0) || (dir == sweepDown && floor.Compare(f, q) > 0) {
			return appendTail(queue, f)
		}
	}

	head := queue[0]
	return append([]floor.Label{head}, mergeAroundHead(rest, head, f, dir)...)
}

func appendTail(queue []floor.Label, f floor.Label) []floor.Label {
	out := make([]floor.Label, len(queue), len(queue)+1)
	copy(out, queue)
	return append(out, f)
}

// mergeAroundHead rebuilds the post-head portion of the queue with f
// inserted: floors beyond the head in the sweep direction stay sorted
// toward the sweep's far end, floors between p and the head stay sorted
// nearest-to-head first.
func mergeAroundHead(rest []floor.Label, head, f floor.Label, dir direction) []floor.Label {
	var ahead, behind []floor.Label // ahead: past the head, same direction; behind: this sweep, short of the head
	beyondHead := func(q floor.Label) bool {
		if dir == sweepUp {
			return floor.Compare(q, head) > 0
		}
		return floor.Compare(q, head) < 0
	}

	for _, q := range rest {
		if beyondHead(q) {
			ahead = append(ahead, q)
		} else {
			behind = append(behind, q)
		}
	}
	if beyondHead(f) {
		ahead = append(ahead, f)
	} else {
		behind = append(behind, f)
	}

	sortToward(ahead, dir)       // continuing the sweep: ascending (up) / descending (down)
	sortToward(behind, oppositeDirection(dir)) // after reversing at the head: nearest-to-head first

	return append(ahead, behind...)
}

func oppositeDirection(dir direction) direction {
	if dir == sweepUp {
		return sweepDown
	}
	return sweepUp
}

// sortToward sorts labels ascending for sweepUp, descending for sweepDown.
func sortToward(labels []floor.Label, dir direction) {
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0; j-- {
			less := floor.Compare(labels[j], labels[j-1]) < 0
			if dir == sweepDown {
				less = !less
			}
			if !less {
				break
			}
			labels[j], labels[j-1] = labels[j-1], labels[j]
		}
	}
}
