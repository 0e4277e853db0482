package fb

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestTONReachesPresetAfterFiveScans(t *testing.T) {
	s := TimerState{Mode: TON, Preset: 0.5}
	var out TimerOutputs
	for i := 0; i < 4; i++ {
		s, out = EvalTimer(s, true, 0.1)
	}
	if out.Q {
		t.Fatalf("Q true after 4 scans, want false (ET=%v)", out.ET)
	}
	s, out = EvalTimer(s, true, 0.1)
	if !out.Q {
		t.Fatalf("Q false after 5 scans, want true (ET=%v)", out.ET)
	}

	// Releasing In resets the accumulator and drops Q on the very next scan.
	s, out = EvalTimer(s, false, 0.1)
	if out.Q {
		t.Fatal("Q still true after In released")
	}
	if s.Accumulated != 0 {
		t.Fatalf("Accumulated = %v, want 0 after In released", s.Accumulated)
	}
}

func TestTONMonotonicUntilSaturation(t *testing.T) {
	s := TimerState{Mode: TON, Preset: 1.0}
	var out TimerOutputs
	prev := -1.0
	seenTrue := false
	for i := 0; i < 50; i++ {
		s, out = EvalTimer(s, true, 0.1)
		if out.ET < prev {
			t.Fatalf("ET decreased: %v -> %v at scan %d", prev, out.ET, i)
		}
		prev = out.ET
		if out.Q {
			if !seenTrue {
				seenTrue = true
			}
		} else if seenTrue {
			t.Fatal("Q went false->true->false while In held")
		}
	}
	if !seenTrue {
		t.Fatal("Q never went true")
	}
}

func TestTOFHoldsThenDecaysAfterInFalse(t *testing.T) {
	s := TimerState{Mode: TOF, Preset: 0.3}
	s, out := EvalTimer(s, true, 0.1)
	if !out.Q {
		t.Fatal("TOF Q should be true immediately when In is true")
	}
	for i := 0; i < 2; i++ {
		s, out = EvalTimer(s, false, 0.1)
		if !out.Q {
			t.Fatalf("TOF Q dropped too early at scan %d", i)
		}
	}
	s, out = EvalTimer(s, false, 0.1)
	if out.Q {
		t.Fatal("TOF Q should have dropped after preset elapsed with In false")
	}
	_ = s
}

func TestTPIsNonRetriggerable(t *testing.T) {
	s := TimerState{Mode: TP, Preset: 0.2}
	s, out := EvalTimer(s, true, 0.1)
	if !out.Q {
		t.Fatal("TP should seed on rising edge with In true")
	}
	// Hold In true through the pulse; it should complete and drop even
	// though In never went false.
	s, out = EvalTimer(s, true, 0.1)
	if !out.Q {
		t.Fatal("TP should still be high mid-pulse")
	}
	s, out = EvalTimer(s, true, 0.1)
	if out.Q {
		t.Fatal("TP should have completed and dropped")
	}
}

func TestCTUCountsOnceForSustainedEdge(t *testing.T) {
	s := CounterState{Mode: CTU, Preset: 3}
	var out CounterOutputs
	for i := 0; i < 10; i++ {
		s, out = EvalCounter(s, true, false, false, false)
	}
	if s.Count != 1 {
		t.Fatalf("Count = %d after sustained cu, want 1 (edge idempotence)", s.Count)
	}
	if out.Q {
		t.Fatal("Q should be false, count below preset")
	}
}

func TestCTUReachesPresetOnThirdRisingEdgeThenReset(t *testing.T) {
	s := CounterState{Mode: CTU, Preset: 3}
	var out CounterOutputs
	edges := []bool{true, false, true, false, true, false, true}
	for i, cu := range edges {
		s, out = EvalCounter(s, cu, false, false, false)
		if i == 4 && (!out.Q || s.Count != 3) {
			t.Fatalf("after 3rd rising edge got count=%d q=%v, want 3/true", s.Count, out.Q)
		}
	}
	if !out.Q || s.Count != 4 {
		t.Fatalf("after 4 rising edges got count=%d q=%v", s.Count, out.Q)
	}

	s, out = EvalCounter(s, false, false, true, false)
	if out.Q || s.Count != 0 {
		t.Fatalf("after reset got count=%d q=%v, want 0/false\nstate: %s", s.Count, out.Q, spew.Sdump(s))
	}
}

func TestCTDCountsDownToZero(t *testing.T) {
	s := CounterState{Mode: CTD, Preset: 2, Count: 2}
	s, out := EvalCounter(s, false, true, false, false)
	if out.Q {
		t.Fatal("Q true too early")
	}
	s, out = EvalCounter(s, false, false, false, false)
	s, out = EvalCounter(s, false, true, false, false)
	if !out.Q || s.Count != 0 {
		t.Fatalf("count=%d q=%v, want 0/true", s.Count, out.Q)
	}
}

func TestCTUDLoadAndResetDominance(t *testing.T) {
	s := CounterState{Mode: CTUD, Preset: 5}
	s, _ = EvalCounter(s, false, false, false, true)
	if s.Count != 5 {
		t.Fatalf("load did not set count to preset: got %d", s.Count)
	}
	s, out := EvalCounter(s, false, false, true, true)
	if s.Count != 0 || !out.QD {
		t.Fatalf("reset should dominate load: count=%d qd=%v\nstate: %s", s.Count, out.QD, spew.Sdump(s))
	}
}

func TestRSLatchResetDominant(t *testing.T) {
	s := LatchState{}
	s, out := EvalRS(s, true, false)
	if !out.Q {
		t.Fatal("set should raise Q")
	}
	s, out = EvalRS(s, true, true)
	if out.Q {
		t.Fatal("reset should dominate set in RS latch")
	}
}

func TestSRLatchSetDominant(t *testing.T) {
	s := LatchState{}
	s, out := EvalSR(s, false, true)
	if out.Q {
		t.Fatal("reset with no prior set should leave Q false")
	}
	s, out = EvalSR(s, true, true)
	if !out.Q {
		t.Fatal("set should dominate reset in SR latch")
	}
}

func TestBankSharesStateAcrossSameID(t *testing.T) {
	b := NewBank()
	s := b.Timer("T1", TON, 0.5)
	s, out := EvalTimer(s, true, 0.1)
	b.SetTimer("T1", s)

	again := b.Timer("T1", TON, 0.5)
	if again.Accumulated != s.Accumulated {
		t.Fatalf("second reference to T1 did not see shared state: %v vs %v", again.Accumulated, s.Accumulated)
	}
	_ = out
}

func TestBankCloneIsIndependent(t *testing.T) {
	b := NewBank()
	b.SetCounter("C1", CounterState{Mode: CTU, Preset: 1, Count: 1})
	clone := b.Clone()
	clone.SetCounter("C1", CounterState{Mode: CTU, Preset: 1, Count: 99})

	if got := b.Counter("C1", CTU, 1).Count; got != 1 {
		t.Fatalf("original bank mutated by clone: got %d", got)
	}
}
