// Package scheduler implements the scan scheduler from spec.md §4.F: a
// single dedicated worker goroutine that runs a program against an I/O
// image on a fixed scan period, driven by a control channel rather than by
// the caller calling Tick in its own loop.
//
// Grounded on atari2600.VCS.Tick's fixed clock-division loop (several
// sub-components' Tick/TickDone orchestrated within one outer tick) and
// vcs/vcs_main.go's run loop, generalized per spec.md §9 from "caller drives
// Tick() in its own for loop" to "the Scheduler owns its worker, its
// channels and its stop flag; no process-wide singletons".
package scheduler

import (
	"sync"
	"time"

	"github.com/oakfield/rungine/eval"
	"github.com/oakfield/rungine/fb"
	"github.com/oakfield/rungine/ioimage"
	"github.com/oakfield/rungine/ladder"
	"github.com/oakfield/rungine/resolver"
)

// State is the scheduler's run mode.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateSingleStep
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateSingleStep:
		return "SINGLE_STEP"
	default:
		return "STOPPED"
	}
}

// CommandKind identifies a control-channel message per spec.md §6's control
// interface: {Run, Stop, Step, Reset, LoadProgram(p)}.
type CommandKind int

const (
	CmdRun CommandKind = iota
	CmdStop
	CmdStep
	CmdReset
	CmdLoadProgram
)

// Command is one message sent over the scheduler's control channel. Program
// is only meaningful for CmdLoadProgram.
type Command struct {
	Kind    CommandKind
	Program ladder.Program
}

// DefaultScanPeriod is applied when New is given a non-positive period.
const DefaultScanPeriod = 100 * time.Millisecond

// Telemetry is the read-only state exposed per spec.md §6: scan_count,
// scan_overrun_count, current_scan_period_actual, run_mode, plus the §7
// soft-error counters (UnknownElementKind, ImageTypeMismatch) accumulated
// across every scan run so far.
type Telemetry struct {
	ScanCount               uint64
	ScanOverrunCount        uint64
	CurrentScanPeriodActual time.Duration
	RunMode                 State
	UnknownElementKindCount uint64
	ImageTypeMismatchCount  uint64
}

// Scheduler owns one program's scan loop: its worker goroutine, its control
// channel and its telemetry. There is no package-level scheduler state; a
// caller running several programs runs several Schedulers.
type Scheduler struct {
	image *ioimage.Image

	mu                 sync.Mutex
	program            ladder.Program
	order              []int
	bank               *fb.Bank
	scanPeriod         time.Duration
	state              State
	scanCount          uint64
	overrunCount       uint64
	actualPeriod       time.Duration
	unknownKindCount   uint64
	imageMismatchCount uint64

	control chan Command
	quit    chan struct{}
	done    chan struct{}
}

// New validates program, resolves its execution order and starts the
// scheduler's worker goroutine in the STOPPED state. The caller must send
// CmdRun (or call Run) to begin scanning.
func New(image *ioimage.Image, program ladder.Program, scanPeriod time.Duration) (*Scheduler, error) {
	if err := ladder.Validate(program); err != nil {
		return nil, err
	}
	if scanPeriod <= 0 {
		scanPeriod = DefaultScanPeriod
	}
	s := &Scheduler{
		image:      image,
		program:    program,
		order:      resolver.Order(program),
		bank:       fb.NewBank(),
		scanPeriod: scanPeriod,
		state:      StateStopped,
		control:    make(chan Command, 8),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Send enqueues a control-channel command. The channel is buffered (8
// commands) and drained once per scan boundary (or immediately, while
// STOPPED); Send blocks only while that buffer is full.
func (s *Scheduler) Send(cmd Command) {
	s.control <- cmd
}

// Run is shorthand for Send(Command{Kind: CmdRun}).
func (s *Scheduler) Run() { s.Send(Command{Kind: CmdRun}) }

// Stop is shorthand for Send(Command{Kind: CmdStop}).
func (s *Scheduler) Stop() { s.Send(Command{Kind: CmdStop}) }

// Step is shorthand for Send(Command{Kind: CmdStep}): run exactly one scan,
// then return to STOPPED.
func (s *Scheduler) Step() { s.Send(Command{Kind: CmdStep}) }

// Reset is shorthand for Send(Command{Kind: CmdReset}).
func (s *Scheduler) Reset() { s.Send(Command{Kind: CmdReset}) }

// LoadProgram validates p synchronously and, only if it passes, enqueues a
// CmdLoadProgram command. Per spec.md §7's MultipleDrivers policy, a
// rejected program never reaches the worker: the scheduler keeps running
// its previous program and the caller gets the error immediately rather
// than discovering it from telemetry on some later scan.
func (s *Scheduler) LoadProgram(p ladder.Program) error {
	if err := ladder.Validate(p); err != nil {
		return err
	}
	s.Send(Command{Kind: CmdLoadProgram, Program: p})
	return nil
}

// Shutdown stops the worker goroutine permanently. The Scheduler must not be
// used afterward.
func (s *Scheduler) Shutdown() {
	close(s.quit)
	<-s.done
}

// Telemetry returns a snapshot of the scheduler's observable state.
func (s *Scheduler) Telemetry() Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Telemetry{
		ScanCount:               s.scanCount,
		ScanOverrunCount:        s.overrunCount,
		CurrentScanPeriodActual: s.actualPeriod,
		RunMode:                 s.state,
		UnknownElementKindCount: s.unknownKindCount,
		ImageTypeMismatchCount:  s.imageMismatchCount,
	}
}

func (s *Scheduler) run() {
	for {
		select {
		case <-s.quit:
			close(s.done)
			return
		default:
		}

		s.mu.Lock()
		state := s.state
		s.mu.Unlock()

		if state == StateStopped {
			select {
			case cmd := <-s.control:
				s.apply(cmd)
			case <-s.quit:
				close(s.done)
				return
			}
			continue
		}

		s.runScan()
	}
}

// runScan executes steps 1-7 of spec.md §4.F's loop for one scan. The scan
// itself (steps 2-4) never suspends; the control channel is drained and the
// tick slept out only at the boundary afterward (step 7), matching §5's
// "the worker suspends only between scans" rule.
func (s *Scheduler) runScan() {
	tickStart := time.Now()

	s.mu.Lock()
	imageIn := s.image.Snapshot()
	prog := s.program
	order := s.order
	bank := s.bank
	period := s.scanPeriod
	wasSingleStep := s.state == StateSingleStep
	s.mu.Unlock()

	res := eval.Run(prog, order, imageIn, period.Seconds(), bank)
	s.image.Commit(res.ImageOut)

	s.mu.Lock()
	s.bank = res.Bank
	s.scanCount++
	s.unknownKindCount += uint64(res.UnknownElementKindCount)
	s.imageMismatchCount += res.ImageTypeMismatchCount
	if wasSingleStep {
		s.state = StateStopped
	}
	s.mu.Unlock()

	s.drainControl()

	elapsed := time.Since(tickStart)
	s.mu.Lock()
	s.actualPeriod = elapsed
	s.mu.Unlock()

	if remaining := period - elapsed; remaining > 0 {
		time.Sleep(remaining)
	} else {
		s.mu.Lock()
		s.overrunCount++
		s.mu.Unlock()
	}
}

// drainControl applies every command already queued without blocking, per
// spec.md §4.F step 7.
func (s *Scheduler) drainControl() {
	for {
		select {
		case cmd := <-s.control:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *Scheduler) apply(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cmd.Kind {
	case CmdRun:
		s.state = StateRunning
	case CmdStop:
		s.state = StateStopped
	case CmdStep:
		s.state = StateSingleStep
	case CmdReset:
		s.image.Reset()
		s.bank = fb.NewBank()
		s.scanCount = 0
		s.overrunCount = 0
		s.actualPeriod = 0
		s.unknownKindCount = 0
		s.imageMismatchCount = 0
		s.state = StateStopped
	case CmdLoadProgram:
		// Already validated by the public LoadProgram method; re-validate
		// defensively in case a caller constructed the command directly.
		if err := ladder.Validate(cmd.Program); err != nil {
			return
		}
		s.program = cmd.Program
		s.order = resolver.Order(cmd.Program)
	}
}
