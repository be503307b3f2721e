// Package emulator is the host-facing surface: load a ROM, reset with or
// without the boot ROM, step one frame at a time, feed in buttons, and
// snapshot/restore for debugging. It owns no goroutines or pacing of its
// own (internal/hostloop drives it) and it is the only package outside
// internal/machine that a frontend needs to import.
package emulator

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/fmnoll/gogbcore/internal/cartridge"
	"github.com/fmnoll/gogbcore/internal/gberr"
	"github.com/fmnoll/gogbcore/internal/joypad"
	"github.com/fmnoll/gogbcore/internal/machine"
)

// framesPerSecond is the DMG's documented refresh rate; internal/hostloop
// paces step_frame calls against it.
const FramesPerSecond = 59.7275

const cyclesPerFrame = 70224

// samplesPerFrame is the sample count at the standard 44.1kHz output rate
// for one 59.7275Hz frame, rounded to the nearest sample.
const samplesPerFrame = 738

// FrameResult is everything a step_frame call hands back to the host.
type FrameResult struct {
	Framebuffer []byte // 160*144 bytes, 2-bit shade per pixel
	Audio       []int16
	SerialOut   []byte
	// Halted is set once a RuntimeError has stopped the CPU; the machine
	// can still be inspected via Snapshot but further StepFrame calls are
	// no-ops until Reset.
	Halted bool
	Err    error
}

// Machine is the host-facing emulator instance. The zero value is not
// usable; construct with New.
type Machine struct {
	m       *machine.Machine
	rom     []byte
	bootROM []byte
	halted  bool
	lastErr error
}

func New() *Machine { return &Machine{} }

// Load parses and installs a ROM, replacing whatever was previously
// loaded. It does not reset register state; callers call Reset next.
func (e *Machine) Load(rom []byte) error {
	if len(rom) < 0x8000 {
		return gberr.NewLoadError(gberr.TooSmall, 0, fmt.Sprintf("ROM is %d bytes, minimum is 32768", len(rom)))
	}
	if !isPowerOfTwo(len(rom)) {
		return gberr.NewLoadError(gberr.NotPowerOfTwo, 0, fmt.Sprintf("ROM size %d is not a power of two", len(rom)))
	}
	if !cartridge.HeaderChecksumOK(rom) {
		// Warn-only: many legitimate homebrew/test ROMs fail this.
	}
	cart, err := cartridge.New(rom)
	if err != nil {
		return gberr.NewLoadError(gberr.UnsupportedController, rom[0x147], err.Error())
	}
	e.rom = rom
	e.m = machine.New(cart)
	e.halted = false
	e.lastErr = nil
	return nil
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// SetBootROM installs a 256-byte DMG boot ROM used by the next Reset call
// that does not request fast_boot.
func (e *Machine) SetBootROM(rom []byte) { e.bootROM = rom }

// Reset reinitializes CPU and component state. With fastBoot, the CPU
// starts at $0100 in the documented post-boot state and the boot ROM is
// never mapped in; without it, the boot ROM (if one was installed via
// SetBootROM) is mapped over $0000-$00FF until the program writes $FF50.
func (e *Machine) Reset(fastBoot bool) {
	if e.m == nil {
		return
	}
	if fastBoot || len(e.bootROM) < 0x100 {
		e.m.ResetFastBoot()
	} else {
		e.m.SetBootROM(e.bootROM)
	}
	e.halted = false
	e.lastErr = nil
}

// LoadBatteryRAM restores previously saved cartridge RAM; a no-op if the
// current cartridge has no battery.
func (e *Machine) LoadBatteryRAM(data []byte) {
	if bb, ok := e.m.Cartridge().(cartridge.BatteryBacked); ok && bb.HasBattery() {
		bb.LoadRAM(data)
	}
}

// SaveBatteryRAM returns the current cartridge RAM for persistence, or nil
// if the cartridge has no battery.
func (e *Machine) SaveBatteryRAM() []byte {
	if bb, ok := e.m.Cartridge().(cartridge.BatteryBacked); ok && bb.HasBattery() {
		return bb.RAM()
	}
	return nil
}

// SetButtons forwards the host's current button mask (bit layout per
// internal/joypad) to the joypad.
func (e *Machine) SetButtons(mask byte) { e.m.SetButtons(mask) }

// ButtonBit re-exports the joypad package's button constants so a
// frontend need not import internal/joypad directly.
const (
	ButtonA      = joypad.A
	ButtonB      = joypad.B
	ButtonSelect = joypad.SelectBtn
	ButtonStart  = joypad.Start
	ButtonRight  = joypad.Right
	ButtonLeft   = joypad.Left
	ButtonUp     = joypad.Up
	ButtonDown   = joypad.Down
)

// StepFrame runs the machine for one frame (70224 T-cycles, adjusted for
// whatever partial instruction overran the boundary) and returns the
// framebuffer, audio samples, and any buffered serial output. If the CPU
// has already halted on a RuntimeError, StepFrame returns immediately
// with Halted set and produces no further side effects.
func (e *Machine) StepFrame() FrameResult {
	if e.halted {
		return FrameResult{Halted: true, Err: e.lastErr}
	}
	budget := cyclesPerFrame
	for budget > 0 {
		cycles, err := e.m.CPU.Step()
		budget -= cycles
		if err != nil {
			e.halted = true
			e.lastErr = err
			return FrameResult{
				Framebuffer: e.m.PPU().Framebuffer(),
				SerialOut:   e.m.Serial().DrainOutput(),
				Halted:      true,
				Err:         err,
			}
		}
	}
	return FrameResult{
		Framebuffer: e.m.PPU().Framebuffer(),
		Audio:       e.m.APU().Samples(samplesPerFrame),
		SerialOut:   e.m.Serial().DrainOutput(),
	}
}

// AdvanceWallClock feeds real elapsed seconds to an MBC3 cartridge's RTC;
// a no-op for every other controller. internal/hostloop calls this once
// per second of wall-clock time, independent of frame stepping.
func (e *Machine) AdvanceWallClock(seconds int64) {
	if e.m != nil {
		e.m.AdvanceRTC(seconds)
	}
}

// Halted reports whether a RuntimeError has stopped the CPU.
func (e *Machine) Halted() bool { return e.halted }

// LastError returns the error that halted the machine, if any.
func (e *Machine) LastError() error { return e.lastErr }

// State is the gob-encodable snapshot used by Snapshot/Restore.
type State struct {
	Machine machine.State
	Halted  bool
}

func (e *Machine) Snapshot() State {
	return State{Machine: e.m.Snapshot(), Halted: e.halted}
}

func (e *Machine) Restore(s State) {
	e.m.Restore(s.Machine)
	e.halted = s.Halted
}

// SnapshotBytes and RestoreBytes gob-encode/decode the snapshot, the form
// a debugger UI or a file-backed save state actually persists.
func (e *Machine) SnapshotBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e.Snapshot()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Machine) RestoreBytes(data []byte) error {
	var s State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	e.Restore(s)
	return nil
}
