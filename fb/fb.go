// Package fb implements the IEC 61131-3 standard function blocks used by
// rung evaluation: RS/SR latches, TON/TOF/TP timers and CTU/CTD/CTUD
// counters. Each block is a pure function of (previous instance state,
// inputs, delta time) -> (outputs, next instance state); persistence across
// scans is the caller's responsibility via the Bank side-tables below.
package fb

// TimerMode selects which of the three IEC timer behaviors to run.
type TimerMode int

const (
	// TON is the on-delay timer: Q follows In after Preset has elapsed.
	TON TimerMode = iota
	// TOF is the off-delay timer: Q drops after In has been false for Preset.
	TOF
	// TP is the non-retriggerable pulse timer: Q is true for exactly Preset
	// once triggered, regardless of In afterward.
	TP
)

// CounterMode selects which of the three IEC counter behaviors to run.
type CounterMode int

const (
	// CTU counts up on a CU rising edge; R forces Count back to zero.
	CTU CounterMode = iota
	// CTD counts down on a CD rising edge; LD forces Count to Preset.
	CTD
	// CTUD combines CTU and CTD behavior on one instance.
	CTUD
)

// TimerState is the persistent state of one timer instance, keyed by
// element id in a Bank so that multiple rung occurrences of the same id
// observe the same accumulator.
type TimerState struct {
	Mode        TimerMode
	Preset      float64 // seconds
	Accumulated float64 // seconds
	PrevIn      bool    // In at the last evaluation, for TP's rising-edge trigger
}

// TimerOutputs is the result of evaluating a timer for one scan.
type TimerOutputs struct {
	Q  bool
	ET float64 // elapsed time, seconds
}

// EvalTimer advances a timer instance by dt seconds given the current In
// signal, per spec.md §4.B. dt must be non-negative; a negative dt is
// treated as zero rather than winding the accumulator backwards.
func EvalTimer(s TimerState, in bool, dt float64) (TimerState, TimerOutputs) {
	if dt < 0 {
		dt = 0
	}
	next := s
	switch s.Mode {
	case TON:
		if in {
			next.Accumulated = s.Accumulated + dt
		} else {
			next.Accumulated = 0
		}
	case TOF:
		switch {
		case in:
			next.Accumulated = s.Preset
		case s.Accumulated > 0:
			next.Accumulated = s.Accumulated - dt
			if next.Accumulated < 0 {
				next.Accumulated = 0
			}
		default:
			next.Accumulated = 0
		}
	case TP:
		switch {
		case in && !s.PrevIn && s.Accumulated == 0:
			next.Accumulated = dt
		case s.Accumulated > 0 && s.Accumulated < s.Preset:
			next.Accumulated = s.Accumulated + dt
		default:
			next.Accumulated = 0
		}
	}
	next.PrevIn = in

	var q bool
	switch s.Mode {
	case TON:
		q = next.Accumulated >= s.Preset
	case TOF:
		q = next.Accumulated > 0
	case TP:
		q = next.Accumulated > 0
	}
	return next, TimerOutputs{Q: q, ET: next.Accumulated}
}

// CounterState is the persistent state of one counter instance.
type CounterState struct {
	Mode    CounterMode
	Preset  int32
	Count   int32
	PrevCU  bool
	PrevCD  bool
}

// CounterOutputs is the result of evaluating a counter for one scan. Q
// mirrors the single-output CTU/CTD block; QU/QD are populated for CTUD.
type CounterOutputs struct {
	Q  bool
	QU bool
	QD bool
}

// EvalCounter advances a counter instance given the CU/CD trigger lines and
// the R (reset) / LD (load) control lines, per spec.md §4.B. Reset and load
// take effect after the edge-triggered count change; for CTUD, reset
// dominates load.
func EvalCounter(s CounterState, cu, cd, r, ld bool) (CounterState, CounterOutputs) {
	next := s
	cuEdge := cu && !s.PrevCU
	cdEdge := cd && !s.PrevCD

	switch s.Mode {
	case CTU:
		if cuEdge {
			next.Count = s.Count + 1
		}
		if r {
			next.Count = 0
		}
	case CTD:
		if cdEdge {
			next.Count = s.Count - 1
		}
		if ld {
			next.Count = s.Preset
		}
	case CTUD:
		next.Count = s.Count
		if cuEdge {
			next.Count++
		}
		if cdEdge {
			next.Count--
		}
		switch {
		case r:
			next.Count = 0
		case ld:
			next.Count = s.Preset
		}
	}

	next.PrevCU = cu
	next.PrevCD = cd

	out := CounterOutputs{}
	switch s.Mode {
	case CTU:
		out.Q = next.Count >= s.Preset
	case CTD:
		out.Q = next.Count <= 0
	case CTUD:
		out.QU = next.Count >= s.Preset
		out.QD = next.Count <= 0
	}
	return next, out
}

// LatchState is the persistent state of one RS/SR latch instance.
type LatchState struct {
	Q bool
}

// LatchOutputs is the result of evaluating a latch for one scan.
type LatchOutputs struct {
	Q    bool
	NotQ bool
}

// EvalRS evaluates a reset-dominant latch: reset wins over set.
func EvalRS(s LatchState, set, reset bool) (LatchState, LatchOutputs) {
	q := s.Q || set
	if reset {
		q = false
	}
	return LatchState{Q: q}, LatchOutputs{Q: q, NotQ: !q}
}

// EvalSR evaluates a set-dominant latch: set wins over reset.
func EvalSR(s LatchState, set, reset bool) (LatchState, LatchOutputs) {
	q := s.Q && !reset
	if set {
		q = true
	}
	return LatchState{Q: q}, LatchOutputs{Q: q, NotQ: !q}
}
