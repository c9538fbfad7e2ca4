// Package toolaccum reassembles streamed tool-call deltas — which arrive
// sparsely, out of order across fields, and split across many frames —
// into completed {id, name, arguments} tuples, one per tool index.
package toolaccum

import (
	"errors"

	"github.com/corellm/llmclient/internal/buffer"
)

// ErrFrozen is returned when Feed is called on an accumulator that has
// already been frozen.
var ErrFrozen = errors.New("toolaccum: accumulator is frozen")

// ErrArgsOverflow is returned when an arguments fragment would push an
// accumulator's argument buffer past its per-call cap. The delta is
// rejected and the accumulator is marked corrupt; it still accepts later
// deltas for id/name but no further argument bytes will be written.
var ErrArgsOverflow = errors.New("toolaccum: arguments exceed per-call cap")

// Delta is one observation about an in-progress tool call, as streamed
// from the server. Index identifies which tool call the delta belongs to;
// all fields besides Index are optional.
type Delta struct {
	Index             int
	ID                string
	HasID             bool
	Name              string
	HasName           bool
	ArgumentsFragment string
	HasArguments      bool
}

// Accumulator holds the per-index state for one in-progress tool call.
type Accumulator struct {
	id       string
	hasID    bool
	name     string
	hasName  bool
	args     *buffer.Buffer
	active   bool
	sawArgs  bool
	frozen   bool
	corrupt  bool
}

// Registry is a sparse map<index, *Accumulator> holding one entry per
// index that has been fed or frozen. Entries are never removed; indices
// that were never touched have no entry.
type Registry struct {
	maxArgsBytesPerCall int
	entries             map[int]*Accumulator
}

// NewRegistry returns an empty registry enforcing maxArgsBytesPerCall on
// every accumulator's arguments buffer (0 = unbounded).
func NewRegistry(maxArgsBytesPerCall int) *Registry {
	return &Registry{
		maxArgsBytesPerCall: maxArgsBytesPerCall,
		entries:             make(map[int]*Accumulator),
	}
}

func (r *Registry) get(index int) *Accumulator {
	a, ok := r.entries[index]
	if !ok {
		a = &Accumulator{args: buffer.New(r.maxArgsBytesPerCall)}
		r.entries[index] = a
	}
	return a
}

// Feed applies a delta to the accumulator at d.Index, creating it if
// necessary. It returns ErrFrozen if the accumulator was already frozen,
// or ErrArgsOverflow if the fragment would exceed the per-call cap.
func (r *Registry) Feed(d Delta) error {
	a := r.get(d.Index)
	if a.frozen {
		return ErrFrozen
	}
	a.active = true

	if d.HasID && !a.hasID {
		a.id = d.ID
		a.hasID = true
	}
	if d.HasName && !a.hasName {
		a.name = d.Name
		a.hasName = true
	}
	if d.HasArguments {
		a.sawArgs = true
		if err := a.args.Append([]byte(d.ArgumentsFragment)); err != nil {
			a.corrupt = true
			return ErrArgsOverflow
		}
	}
	return nil
}

// Freeze marks the accumulator at index as frozen: it refuses further
// deltas from this point on. Freezing an index with no prior deltas is a
// no-op that still marks it frozen.
func (r *Registry) Freeze(index int) {
	a := r.get(index)
	a.frozen = true
}

// Result is the completed view of one tool call's accumulated state.
type Result struct {
	ID        string
	Name      string
	Arguments string
	Active    bool
	SawArgs   bool
	Frozen    bool
	Corrupt   bool
}

// Get returns the current state of the accumulator at index. ok is false
// if the index has never been fed or frozen.
func (r *Registry) Get(index int) (Result, bool) {
	a, ok := r.entries[index]
	if !ok {
		return Result{}, false
	}
	return Result{
		ID:        a.id,
		Name:      a.name,
		Arguments: string(a.args.Bytes()),
		Active:    a.active,
		SawArgs:   a.sawArgs,
		Frozen:    a.frozen,
		Corrupt:   a.corrupt,
	}, true
}

// Len returns the number of distinct indices observed so far.
func (r *Registry) Len() int { return len(r.entries) }

// Indices returns the observed tool-call indices. Order is not
// guaranteed; callers that need turn order should sort.
func (r *Registry) Indices() []int {
	out := make([]int, 0, len(r.entries))
	for idx := range r.entries {
		out = append(out, idx)
	}
	return out
}
