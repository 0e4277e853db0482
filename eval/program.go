package eval

import (
	"github.com/oakfield/rungine/fb"
	"github.com/oakfield/rungine/ioimage"
	"github.com/oakfield/rungine/ladder"
)

// ProgramResult is what Run produces for one scan. The two soft-error
// counts are named per spec.md §7's error table (UnknownElementKind,
// ImageTypeMismatch) so callers can surface them as distinct telemetry
// rather than one opaque total.
type ProgramResult struct {
	ImageOut                *ioimage.Image
	Bank                    *fb.Bank
	UnknownElementKindCount int
	ImageTypeMismatchCount  uint64
}

// Run evaluates every rung of p in order against a working image seeded
// from imageIn, per spec.md §4.E. Each rung sees the current working image
// (so later rungs in order observe earlier rungs' writes within the same
// scan); bank accumulates function-block state updates and is returned
// alongside the resulting image. dt is the scan period in seconds.
//
// bank is not mutated in place: Run clones it up front so the caller
// retains the pre-scan state until it chooses to adopt ProgramResult.Bank,
// matching spec.md §3's "element state is mutated only by the program
// evaluator and only during a scan" together with §5's single-writer rule.
func Run(p ladder.Program, order []int, imageIn *ioimage.Image, dt float64, bank *fb.Bank) ProgramResult {
	working := bank.Clone()
	imageOut := imageIn.Snapshot()

	var unknownKind int
	for _, idx := range order {
		res := EvalRung(p.Rungs[idx], imageOut, dt, working)
		imageOut.Commit(res.Delta)
		unknownKind += res.SoftErrors
	}

	// imageOut is the same Image every rung in this scan read and wrote
	// through, so its own soft-error counter (ImageTypeMismatch, bumped by
	// GetBit/GetWord on a kind mismatch) reflects this scan's total; it
	// would otherwise be lost along with the transient snapshot once the
	// caller commits only its values onward.
	return ProgramResult{
		ImageOut:                imageOut,
		Bank:                    working,
		UnknownElementKindCount: unknownKind,
		ImageTypeMismatchCount:  imageOut.SoftErrorCount(),
	}
}
