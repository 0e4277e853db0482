// Package ladder defines the program data model described in spec.md §3:
// elements, rungs and programs, plus the load-time validation the core is
// responsible for (the single-driver invariant; schema validation itself is
// the external loader's job).
package ladder

import "fmt"

// Kind identifies what an Element does on a rung.
type Kind int

const (
	// Input is a pass-through element carried for diagram fidelity; it does
	// not affect rung power.
	Input Kind = iota
	// Output writes the rung's current power value to ID.
	Output
	// Contact reads SourceID and ANDs it (inverted if NormallyOpen is
	// false) into the rung's power.
	Contact
	// Coil writes the rung's current power value to TargetID.
	Coil
	// Timer invokes the fb timer block identified by ID.
	Timer
	// Counter invokes the fb counter block identified by ID.
	Counter
	// FBInstance invokes an RS/SR latch instance identified by ID.
	FBInstance
)

// Geometry is opaque positioning data preserved only for the external
// editor/visualizer; the core never reads it.
type Geometry struct {
	X, Y, W, H int
}

// TimerMode mirrors fb.TimerMode without importing fb, so ladder has no
// dependency on the evaluation packages it is evaluated by.
type TimerMode int

const (
	TON TimerMode = iota
	TOF
	TP
)

// CounterMode mirrors fb.CounterMode for the same reason.
type CounterMode int

const (
	CTU CounterMode = iota
	CTD
	CTUD
)

// Element is one addressable node on a Rung. Which fields are meaningful
// depends on Kind; see spec.md §3 for the per-kind attribute list.
type Element struct {
	ID       string
	Kind     Kind
	Geometry Geometry

	// Contact
	SourceID     string
	NormallyOpen bool

	// Coil
	TargetID string

	// FBInstance: true selects an SR (set-dominant) latch, false an RS
	// (reset-dominant) latch.
	SetDominant bool

	// Timer
	TimerMode TimerMode
	Preset    float64 // seconds

	// Counter. CU/CD are both driven by this element's rung power (see
	// DESIGN.md for why); ResetID/LoadID are read directly from the image
	// rather than via another rung's power, since the series-rung model
	// gives a counter only one power input to work with.
	CounterMode CounterMode
	CountPreset int32
	ResetID     string
	LoadID      string
}

// Rung is an ordered, left-to-right series chain of elements.
type Rung struct {
	Elements []Element
}

// Program is an ordered sequence of rungs.
type Program struct {
	Rungs []Rung
}

// MultipleDriversError reports that an id is driven by more than one coil
// across the program, per spec.md §3's single-driver invariant and §7's
// MultipleDrivers(id) error kind.
type MultipleDriversError struct {
	ID string
}

func (e MultipleDriversError) Error() string {
	return fmt.Sprintf("ladder: id %q is driven by more than one coil", e.ID)
}

// Validate re-checks the single-driver invariant: a given id must be the
// TargetID of at most one coil across the entire program. Schema validation
// (element shapes, required fields) is the external loader's responsibility
// and is not repeated here.
func Validate(p Program) error {
	drivenBy := make(map[string]bool)
	for _, r := range p.Rungs {
		for _, e := range r.Elements {
			if e.Kind != Coil {
				continue
			}
			if drivenBy[e.TargetID] {
				return MultipleDriversError{ID: e.TargetID}
			}
			drivenBy[e.TargetID] = true
		}
	}
	return nil
}
