// Command cpurunner is a headless test-ROM harness: it runs a ROM
// against the core with no window, watches serial output for a Blargg
// test ROM's pass/fail marker, and exits 0/1/2 accordingly.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fmnoll/gogbcore/internal/cartridge"
	"github.com/fmnoll/gogbcore/internal/machine"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int("steps", 5_000_000, "max CPU steps to run")
	trace := flag.Bool("trace", false, "print PC/opcode per step")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, print a recent trace window")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in a traceOnFail dump")
	serialWindow := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		if b, err := os.ReadFile(*bootPath); err == nil {
			boot = b
		} else {
			log.Fatalf("read bootrom: %v", err)
		}
	}

	cart, err := cartridge.New(rom)
	if err != nil {
		log.Fatalf("load cartridge: %v", err)
	}
	m := machine.New(cart)
	if len(boot) >= 0x100 {
		m.SetBootROM(boot)
	} else {
		m.ResetFastBoot()
	}

	var serial []byte
	ring := make([]byte, *serialWindow)
	ringIdx, ringFill := 0, 0

	type traceEntry struct {
		pc  uint16
		op  byte
		cyc int
	}
	trcRing := make([]traceEntry, *traceWindow)
	trcIdx, trcFill := 0, 0

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	lastStage := ""

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	var cycles int
	for i := 0; i < *steps; i++ {
		pc := m.CPU.PC
		cyc, err := m.CPU.Step()
		cycles += cyc
		if *trace {
			fmt.Printf("PC=%04X cyc=%d A=%02X F=%02X SP=%04X IME=%t\n", pc, cyc, m.CPU.A, m.CPU.F, m.CPU.SP, m.CPU.IME)
		}
		if *traceOnFail {
			trcRing[trcIdx] = traceEntry{pc: pc, op: 0, cyc: cyc}
			trcIdx = (trcIdx + 1) % *traceWindow
			if trcFill < *traceWindow {
				trcFill++
			}
		}
		if err != nil {
			fmt.Printf("\nCPU halted: %v\n", err)
			os.Exit(2)
		}

		if out := m.Serial().DrainOutput(); len(out) > 0 {
			os.Stdout.Write(out)
			serial = append(serial, out...)
			for _, ch := range out {
				ring[ringIdx] = ch
				ringIdx = (ringIdx + 1) % *serialWindow
				if ringFill < *serialWindow {
					ringFill++
				}
			}
		}

		if *auto {
			s := string(serial)
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\n")
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if mm := failRe.FindStringSubmatch(s); mm != nil {
				fmt.Printf("\nDetected %s in serial output.\n", mm[0])
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				if *traceOnFail && trcFill > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", trcFill)
					startIdx := (trcIdx - trcFill + *traceWindow) % *traceWindow
					for j := 0; j < trcFill; j++ {
						te := trcRing[(startIdx+j)%(*traceWindow)]
						fmt.Printf("PC=%04X cyc=%d\n", te.pc, te.cyc)
					}
					fmt.Printf("--- end trace ---\n")
				}
				if ringFill > 0 {
					fmt.Printf("\n--- recent serial (last %d bytes) ---\n", ringFill)
					startIdx := (ringIdx - ringFill + *serialWindow) % *serialWindow
					for j := 0; j < ringFill; j++ {
						fmt.Printf("%c", ring[(startIdx+j)%(*serialWindow)])
					}
					fmt.Printf("\n--- end serial ---\n")
				}
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				os.Exit(1)
			}
		} else if *until != "" {
			if strings.Contains(strings.ToLower(string(serial)), strings.ToLower(*until)) {
				fmt.Printf("\nDetected '%s' in serial output.\n", *until)
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				return
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", *steps, cycles, time.Since(start).Truncate(time.Millisecond))
}
