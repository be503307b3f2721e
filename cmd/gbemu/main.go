// Command gbemu is the reference host for the emulator core: it loads a
// ROM, optionally opens a window, and persists battery-backed cartridge
// RAM next to the ROM file on exit.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fmnoll/gogbcore/internal/emulator"
	"github.com/fmnoll/gogbcore/internal/frontend"
	"github.com/fmnoll/gogbcore/internal/gberr"
	"github.com/fmnoll/gogbcore/internal/hostloop"
)

// CLI is the flat flag surface: a single `gbemu -r rom.gb [flags]`
// invocation, so it uses kong's struct-tag parsing without a `cmd:""`
// subcommand layer.
type CLI struct {
	ROM         string           `short:"r" help:"load this ROM on start."`
	Debug       bool             `short:"d" help:"open the debugger."`
	FastBoot    bool             `short:"f" name:"fastboot" help:"skip boot ROM."`
	PrintSerial bool             `short:"p" name:"print-serial" help:"mirror serial writes to stdout."`
	Headless    bool             `help:"run without a window."`
	BootROM     string           `help:"path to a DMG boot ROM, used unless --fastboot is set."`
	Scale       int              `default:"3" help:"window scale."`
	NoSaveRAM   bool             `name:"no-save" help:"don't persist battery RAM to a .sav file on exit."`
	Version     kong.VersionFlag `short:"V" help:"print version and exit."`
}

func main() {
	cli := CLI{}
	kong.Parse(&cli,
		kong.Name("gbemu"),
		kong.Description("A DMG Game Boy emulator."),
		kong.Vars{"version": "gbemu 1.0.0"},
		kong.UsageOnError(),
	)

	if cli.ROM == "" {
		fmt.Fprintln(os.Stderr, "gbemu: -r/--rom is required")
		os.Exit(1)
	}

	os.Exit(run(cli))
}

func run(cli CLI) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic: %v", r)
			code = 2
		}
	}()

	rom, err := os.ReadFile(cli.ROM)
	if err != nil {
		log.Printf("read ROM: %v", err)
		return 1
	}

	var boot []byte
	if cli.BootROM != "" {
		boot, err = os.ReadFile(cli.BootROM)
		if err != nil {
			log.Printf("read boot ROM: %v", err)
			return 1
		}
	}

	savPath := savePathFor(cli.ROM)

	if cli.Headless {
		return runHeadless(cli, rom, boot, savPath)
	}
	return runWindowed(cli, rom, boot, savPath)
}

func savePathFor(romPath string) string {
	if strings.HasSuffix(strings.ToLower(romPath), ".gb") {
		return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
	}
	return romPath + ".sav"
}

func loadSaveRAM(m *emulator.Machine, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	m.LoadBatteryRAM(data)
}

func persistSaveRAM(m *emulator.Machine, path string, enabled bool) {
	if !enabled {
		return
	}
	data := m.SaveBatteryRAM()
	if data == nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("write %s: %v", path, err)
	}
}

// runHeadless drives the emulator directly with no scheduler goroutine
// and no window, for scripted use (test ROM runners, CI).
func runHeadless(cli CLI, rom, boot []byte, savPath string) int {
	m := emulator.New()
	if err := m.Load(rom); err != nil {
		logLoadError(err)
		return 1
	}
	if len(boot) > 0 {
		m.SetBootROM(boot)
	}
	m.Reset(cli.FastBoot)
	if !cli.NoSaveRAM {
		loadSaveRAM(m, savPath)
	}

	if cli.Debug {
		log.Printf("debug: headless mode ignores -d (no window to attach a debugger to)")
	}

	var lastRTC time.Time
	for !m.Halted() {
		now := time.Now()
		if lastRTC.IsZero() {
			lastRTC = now
		}
		if elapsed := now.Sub(lastRTC); elapsed >= time.Second {
			m.AdvanceWallClock(int64(elapsed / time.Second))
			lastRTC = now
		}
		fr := m.StepFrame()
		if cli.PrintSerial && len(fr.SerialOut) > 0 {
			os.Stdout.Write(fr.SerialOut)
		}
	}

	persistSaveRAM(m, savPath, !cli.NoSaveRAM)

	if err := m.LastError(); err != nil {
		var rerr *gberr.RuntimeError
		if errors.As(err, &rerr) {
			log.Printf("halted: %v", rerr)
		}
		return 2
	}
	return 0
}

func runWindowed(cli CLI, rom, boot []byte, savPath string) int {
	loop := hostloop.New()

	if len(boot) > 0 {
		loop.Machine().SetBootROM(boot)
	}
	if err := loop.Machine().Load(rom); err != nil {
		logLoadError(err)
		return 1
	}
	loop.Machine().Reset(cli.FastBoot)
	if !cli.NoSaveRAM {
		loadSaveRAM(loop.Machine(), savPath)
	}

	if cli.Debug {
		log.Printf("debug: -d requested; no in-process debugger UI is wired up yet, see DESIGN.md")
	}

	fe := frontend.NewApp(frontend.Config{
		Scale:       cli.Scale,
		Title:       "gbemu",
		PrintSerial: cli.PrintSerial,
	}, loop)

	err := fe.Run()
	persistSaveRAM(loop.Machine(), savPath, !cli.NoSaveRAM)
	if err != nil {
		log.Printf("frontend: %v", err)
		return 2
	}
	return 0
}

func logLoadError(err error) {
	var lerr *gberr.LoadError
	if errors.As(err, &lerr) {
		log.Printf("load ROM: %v", lerr)
		return
	}
	log.Printf("load ROM: %v", err)
}
