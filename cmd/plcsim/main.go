// plcsim runs a ladder program against a fresh I/O image on a fixed scan
// period and logs telemetry, demonstrating the engine end to end.
//
// The program file is a simple JSON rendering of spec.md §3's data model;
// real persistence formats are the external loader's responsibility (see
// spec.md §6) and are not implemented here. This is a demo loader only.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/oakfield/rungine/ioimage"
	"github.com/oakfield/rungine/ladder"
	"github.com/oakfield/rungine/scheduler"
)

var (
	programPath = flag.String("program", "", "Path to a JSON-encoded ladder program")
	scanPeriod  = flag.Duration("scan_period", scheduler.DefaultScanPeriod, "Scan period")
	runFor      = flag.Duration("run_for", 0, "How long to run before stopping; 0 means run until killed")
	port        = flag.Int("port", 6060, "Port to run HTTP server for pprof")
	logEvery    = flag.Duration("log_every", time.Second, "How often to log telemetry")
)

// jsonElement is the on-disk shape of a ladder.Element. Every field maps
// 1:1 onto ladder.Element; kind is the lower-case Kind name.
type jsonElement struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	SourceID     string  `json:"source_id,omitempty"`
	NormallyOpen bool    `json:"normally_open,omitempty"`
	TargetID     string  `json:"target_id,omitempty"`
	SetDominant  bool    `json:"set_dominant,omitempty"`
	TimerMode    string  `json:"timer_mode,omitempty"`
	Preset       float64 `json:"preset,omitempty"`
	CounterMode  string  `json:"counter_mode,omitempty"`
	CountPreset  int32   `json:"count_preset,omitempty"`
	ResetID      string  `json:"reset_id,omitempty"`
	LoadID       string  `json:"load_id,omitempty"`
}

type jsonRung struct {
	Elements []jsonElement `json:"elements"`
}

type jsonProgram struct {
	Rungs []jsonRung `json:"rungs"`
}

var kindNames = map[string]ladder.Kind{
	"input":       ladder.Input,
	"output":      ladder.Output,
	"contact":     ladder.Contact,
	"coil":        ladder.Coil,
	"timer":       ladder.Timer,
	"counter":     ladder.Counter,
	"fb_instance": ladder.FBInstance,
}

var timerModeNames = map[string]ladder.TimerMode{
	"ton": ladder.TON,
	"tof": ladder.TOF,
	"tp":  ladder.TP,
}

var counterModeNames = map[string]ladder.CounterMode{
	"ctu":  ladder.CTU,
	"ctd":  ladder.CTD,
	"ctud": ladder.CTUD,
}

func loadProgram(path string) (ladder.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return ladder.Program{}, fmt.Errorf("can't open %s: %w", path, err)
	}
	defer f.Close()

	var jp jsonProgram
	if err := json.NewDecoder(f).Decode(&jp); err != nil {
		return ladder.Program{}, fmt.Errorf("can't parse %s: %w", path, err)
	}

	p := ladder.Program{Rungs: make([]ladder.Rung, len(jp.Rungs))}
	for i, jr := range jp.Rungs {
		r := ladder.Rung{Elements: make([]ladder.Element, len(jr.Elements))}
		for j, je := range jr.Elements {
			kind, ok := kindNames[je.Kind]
			if !ok {
				return ladder.Program{}, fmt.Errorf("rung %d element %d: unknown kind %q", i, j, je.Kind)
			}
			r.Elements[j] = ladder.Element{
				ID:           je.ID,
				Kind:         kind,
				SourceID:     je.SourceID,
				NormallyOpen: je.NormallyOpen,
				TargetID:     je.TargetID,
				SetDominant:  je.SetDominant,
				TimerMode:    timerModeNames[je.TimerMode],
				Preset:       je.Preset,
				CounterMode:  counterModeNames[je.CounterMode],
				CountPreset:  je.CountPreset,
				ResetID:      je.ResetID,
				LoadID:       je.LoadID,
			}
		}
		p.Rungs[i] = r
	}
	return p, nil
}

func main() {
	flag.Parse()
	if *programPath == "" {
		log.Fatalf("Usage: %s --program=<path to JSON program>", os.Args[0])
	}

	prog, err := loadProgram(*programPath)
	if err != nil {
		log.Fatalf("Can't load program: %v", err)
	}

	go func() {
		log.Println(http.ListenAndServe(fmt.Sprintf("localhost:%d", *port), nil))
	}()

	img := ioimage.New()
	s, err := scheduler.New(img, prog, *scanPeriod)
	if err != nil {
		log.Fatalf("Can't start scheduler: %v", err)
	}
	defer s.Shutdown()

	s.Run()
	log.Printf("Scanning %d rung(s) every %s (pprof on :%d)", len(prog.Rungs), *scanPeriod, *port)

	ticker := time.NewTicker(*logEvery)
	defer ticker.Stop()

	var stop <-chan time.Time
	if *runFor > 0 {
		timer := time.NewTimer(*runFor)
		defer timer.Stop()
		stop = timer.C
	}

	for {
		select {
		case <-ticker.C:
			tel := s.Telemetry()
			log.Printf("scan_count=%d overruns=%d actual_period=%s mode=%s",
				tel.ScanCount, tel.ScanOverrunCount, tel.CurrentScanPeriodActual, tel.RunMode)
		case <-stop:
			s.Stop()
			log.Printf("run_for elapsed, stopped after %d scans", s.Telemetry().ScanCount)
			return
		}
	}
}
