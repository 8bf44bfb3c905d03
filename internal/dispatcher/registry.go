// Package dispatcher implements the controller process: the TCP accept
// loop, car bookkeeping, and SCAN-based call routing of §4.4/§4.5. It
// plays the role the teacher's internal/manager plays for a single
// in-process elevator pool, generalized to a table of remote car
// connections instead of in-memory elevator values.
package dispatcher

import (
	"net"
	"sort"
	"sync"

	"github.com/fathomworks/multicar-elevator/internal/floor"
	"github.com/fathomworks/multicar-elevator/internal/state"
)

// carRecord is the dispatcher's view of one car: its last reported
// position/status and the SCAN queue of floors still owed to it. The
// conn field is non-owning — the accept loop's per-connection goroutine
// is what reads and writes it; the record only holds it so the call
// handler can send FLOOR messages.
type carRecord struct {
	Name            string
	Lowest, Highest floor.Label

	Connected   bool
	Conn        net.Conn
	Status      state.Status
	Current     floor.Label
	Destination floor.Label

	Queue []floor.Label
}

// inRange reports whether f lies within the car's serviceable range.
func (c *carRecord) inRange(f floor.Label) bool {
	return floor.Compare(f, c.Lowest) >= 0 && floor.Compare(f, c.Highest) <= 0
}

// Registry is the dispatcher-wide table of known cars, guarded by a
// single mutex exactly as §4.4/§5 specify ("a single dispatcher-wide
// mutex serialises all updates to car records and queues").
type Registry struct {
	mu   sync.Mutex
	cars map[string]*carRecord
}

// NewRegistry creates an empty car table.
func NewRegistry() *Registry {
	return &Registry{cars: make(map[string]*carRecord)}
}

// Register records a car's first CAR message, creating or reconnecting
// its record and flushing any stale queue from a prior connection
// (§4.4: "register or reconnect; flush the car's queue").
func (r *Registry) Register(name string, lowest, highest floor.Label, conn net.Conn) *carRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.cars[name]
	if !ok {
		rec = &carRecord{Name: name}
		r.cars[name] = rec
	}
	rec.Lowest = lowest
	rec.Highest = highest
	rec.Current = lowest
	rec.Destination = lowest
	rec.Status = state.Closed
	rec.Conn = conn
	rec.Connected = true
	rec.Queue = nil
	return rec
}

// Disconnect marks a car unreachable and frees its queue, used on
// EMERGENCY, INDIVIDUAL SERVICE, and connection loss.
func (r *Registry) Disconnect(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.cars[name]
	if !ok {
		return
	}
	rec.Connected = false
	rec.Conn = nil
	rec.Queue = nil
}

// UpdateStatus applies a car's STATUS report and, if the car just
// started Opening at the head of its queue, pops that head and reports
// the new head (if any) back to the caller so it can send FLOOR.
func (r *Registry) UpdateStatus(name string, status state.Status, current, destination floor.Label) (newHead floor.Label, hasNewHead bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.cars[name]
	if !ok {
		return floor.Label{}, false
	}
	rec.Status = status
	rec.Current = current
	rec.Destination = destination

	if status == state.Opening && len(rec.Queue) > 0 && floor.Compare(current, rec.Queue[0]) == 0 {
		rec.Queue = rec.Queue[1:]
		if len(rec.Queue) > 0 {
			return rec.Queue[0], true
		}
	}
	return floor.Label{}, false
}

// HandleCall performs the whole of §4.4's call-handling sequence under
// one lock acquisition: select the best car (§4.5), then enqueue src and
// dst into it via SCAN insertion. Doing selection and enqueueing inside
// one critical section is what guarantees the selection never races a
// concurrent call's insertion into the same car's queue.
func (r *Registry) HandleCall(src, dst floor.Label) (carName string, newHead floor.Label, headChanged bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := selectCar(r.cars, src, dst)
	if rec == nil {
		return "", floor.Label{}, false, false
	}

	before := headOf(rec.Queue)
	rec.Queue = insertSCAN(rec.Queue, src, effectivePosition(rec), sweepDirection(rec, src))
	rec.Queue = insertSCAN(rec.Queue, dst, effectivePosition(rec), sweepDirection(rec, dst))
	after := headOf(rec.Queue)

	headChanged = after.hasValue && (!before.hasValue || floor.Compare(before.label, after.label) != 0)
	if headChanged {
		newHead = after.label
	}
	return rec.Name, newHead, headChanged, true
}

// CarSnapshot is one car's entry in Registry.Snapshot: its name, range,
// connectivity, last reported status, and queue length.
type CarSnapshot struct {
	Name            string
	Lowest, Highest floor.Label
	Connected       bool
	Status          state.Status
	Current         floor.Label
	Destination     floor.Label
	QueueLen        int
}

// Snapshot copies every car record under the lock, sorted by name for
// deterministic dashboard output.
func (r *Registry) Snapshot() []CarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CarSnapshot, 0, len(r.cars))
	for _, rec := range r.cars {
		out = append(out, CarSnapshot{
			Name: rec.Name, Lowest: rec.Lowest, Highest: rec.Highest,
			Connected: rec.Connected, Status: rec.Status,
			Current: rec.Current, Destination: rec.Destination,
			QueueLen: len(rec.Queue),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// connOf returns the live connection for a car, or nil if it is unknown
// or disconnected.
func (r *Registry) connOf(name string) net.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.cars[name]
	if !ok || !rec.Connected {
		return nil
	}
	return rec.Conn
}

type optionalFloor struct {
	label    floor.Label
	hasValue bool
}

func headOf(queue []floor.Label) optionalFloor {
	if len(queue) == 0 {
		return optionalFloor{}
	}
	return optionalFloor{label: queue[0], hasValue: true}
}
