// Package eval implements the rung evaluator and program evaluator from
// spec.md §4.C and §4.E: deterministic left-to-right series evaluation of
// one rung, and running every rung of a program in resolved order against
// one working image for a scan.
//
// The tick-local dispatch loop here (walk elements, accumulate into a
// handful of per-cycle values, return) is grounded on cpu.Chip.Tick's
// opcode dispatch, and the outer per-scan orchestration on
// atari2600.VCS.Tick's pattern of driving several sub-components' Tick in
// sequence against one shared memory view.
package eval

import (
	"github.com/oakfield/rungine/fb"
	"github.com/oakfield/rungine/ioimage"
	"github.com/oakfield/rungine/ladder"
)

// RungResult is what EvalRung produces for one rung in one scan.
type RungResult struct {
	Power       bool
	Delta       *ioimage.Image
	SoftErrors  int // UnknownElementKind count for this rung
}

// EvalRung evaluates rung left-to-right against imageIn (the current
// working image for this scan), advancing bank in place for any
// timer/counter/latch elements encountered; edge detection for counters
// reads its previous-trigger state from bank rather than from a separate
// previous-scan image (see DESIGN.md). dt is the scan period in seconds.
//
// Per spec.md §4.C/§9, a coil does not alter power for elements after it on
// the same rung: each coil latches the current power value at its position,
// so two adjacent coils (or two coils with only coils between them) latch
// the same value. This is the documented semantics, not a bug.
func EvalRung(r ladder.Rung, imageIn *ioimage.Image, dt float64, bank *fb.Bank) RungResult {
	power := true
	delta := ioimage.New()
	soft := 0

	for _, e := range r.Elements {
		switch e.Kind {
		case ladder.Input:
			// Pass-through; carried for diagram fidelity only.

		case ladder.Contact:
			bit := imageIn.GetBit(e.SourceID)
			effective := bit
			if !e.NormallyOpen {
				effective = !bit
			}
			power = power && effective

		case ladder.Timer:
			st := bank.Timer(e.ID, toFBTimerMode(e.TimerMode), e.Preset)
			next, out := fb.EvalTimer(st, power, dt)
			bank.SetTimer(e.ID, next)
			power = power && out.Q

		case ladder.Counter:
			st := bank.Counter(e.ID, toFBCounterMode(e.CounterMode), e.CountPreset)
			var r, ld bool
			if e.ResetID != "" {
				r = imageIn.GetBit(e.ResetID)
			}
			if e.LoadID != "" {
				ld = imageIn.GetBit(e.LoadID)
			}
			next, out := fb.EvalCounter(st, power, power, r, ld)
			bank.SetCounter(e.ID, next)
			if st.Mode == fb.CTUD {
				// CTUD exposes two independent flags; publish both so
				// other rungs can reference them as "<id>.QU"/"<id>.QD"
				// contacts, and continue this rung's chain on QU by
				// convention (documented in DESIGN.md).
				delta.SetBit(e.ID+".QU", out.QU)
				delta.SetBit(e.ID+".QD", out.QD)
				power = power && out.QU
			} else {
				power = power && out.Q
			}

		case ladder.FBInstance:
			// Set is this element's rung power; Reset is read directly
			// from ResetID (the series-rung model gives the element only
			// one power input, same reasoning as Counter's ResetID/LoadID
			// above).
			st := bank.Latch(e.ID)
			var reset bool
			if e.ResetID != "" {
				reset = imageIn.GetBit(e.ResetID)
			}
			var next fb.LatchState
			var out fb.LatchOutputs
			if e.SetDominant {
				next, out = fb.EvalSR(st, power, reset)
			} else {
				next, out = fb.EvalRS(st, power, reset)
			}
			bank.SetLatch(e.ID, next)
			// Unlike Timer/Counter, a latch's Q replaces power rather
			// than ANDing with it: otherwise the latch could never stay
			// energized once its upstream contact chain (Set) drops,
			// which would defeat its entire purpose as a sustaining
			// memory element. See DESIGN.md.
			power = out.Q

		case ladder.Coil:
			delta.SetBit(e.TargetID, power)

		case ladder.Output:
			delta.SetBit(e.ID, power)

		default:
			// Unknown kind: pass-through, per spec.md §7's
			// UnknownElementKind policy.
			soft++
		}
	}

	return RungResult{Power: power, Delta: delta, SoftErrors: soft}
}

func toFBTimerMode(m ladder.TimerMode) fb.TimerMode {
	switch m {
	case ladder.TOF:
		return fb.TOF
	case ladder.TP:
		return fb.TP
	default:
		return fb.TON
	}
}

func toFBCounterMode(m ladder.CounterMode) fb.CounterMode {
	switch m {
	case ladder.CTD:
		return fb.CTD
	case ladder.CTUD:
		return fb.CTUD
	default:
		return fb.CTU
	}
}
