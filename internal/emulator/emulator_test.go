package emulator

import "testing"

// blankROM builds a valid, power-of-two ROM-only cartridge image full of
// NOPs, so the CPU can run indefinitely without hitting an illegal opcode.
func blankROM(size int, cartType byte) []byte {
	rom := make([]byte, size)
	var romSizeCode byte
	switch size {
	case 32 * 1024:
		romSizeCode = 0x00
	case 64 * 1024:
		romSizeCode = 0x01
	default:
		romSizeCode = 0x00
	}
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = 0x02 // 8KB RAM, so battery-backed controllers have something to save
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	return rom
}

func TestLoadRejectsTooSmallROM(t *testing.T) {
	e := New()
	if err := e.Load(make([]byte, 0x1000)); err == nil {
		t.Fatal("expected an error loading a ROM smaller than 32KB")
	}
}

func TestLoadRejectsNonPowerOfTwoSize(t *testing.T) {
	e := New()
	rom := make([]byte, 0x8000+0x100)
	if err := e.Load(rom); err == nil {
		t.Fatal("expected an error loading a non-power-of-two-sized ROM")
	}
}

func TestLoadRejectsUnsupportedController(t *testing.T) {
	e := New()
	rom := blankROM(32*1024, 0xFC) // POCKET CAMERA, unimplemented
	if err := e.Load(rom); err == nil {
		t.Fatal("expected an error loading an unsupported cartridge type")
	}
}

func TestLoadThenResetFastBootStartsAtDocumentedState(t *testing.T) {
	e := New()
	if err := e.Load(blankROM(32*1024, 0x00)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Reset(true)
	if e.Halted() {
		t.Fatal("expected a freshly reset machine not to be halted")
	}
}

func TestStepFrameProducesAFullFramebuffer(t *testing.T) {
	e := New()
	if err := e.Load(blankROM(32*1024, 0x00)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Reset(true)
	res := e.StepFrame()
	if res.Halted {
		t.Fatalf("expected the machine to keep running through a frame of NOPs, err=%v", res.Err)
	}
	if len(res.Framebuffer) != 160*144 {
		t.Fatalf("expected a 160x144 framebuffer, got %d bytes", len(res.Framebuffer))
	}
	if len(res.Audio) != samplesPerFrame*2 {
		t.Fatalf("expected %d stereo samples, got %d", samplesPerFrame, len(res.Audio))
	}
}

func TestStepFrameAfterHaltIsANoOp(t *testing.T) {
	e := New()
	if err := e.Load(blankROM(32*1024, 0x00)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Reset(true)
	e.halted = true // simulate a prior RuntimeError without needing an illegal opcode
	res := e.StepFrame()
	if !res.Halted {
		t.Fatal("expected StepFrame to report halted immediately")
	}
}

func TestBatteryRAMRoundTrip(t *testing.T) {
	e := New()
	if err := e.Load(blankROM(32*1024, 0x03)); err != nil { // MBC1+RAM+BATTERY
		t.Fatalf("Load: %v", err)
	}
	e.Reset(true)
	if got := e.SaveBatteryRAM(); got == nil {
		t.Fatal("expected non-nil RAM for a battery-backed cartridge")
	}

	e2 := New()
	if err := e2.Load(blankROM(32*1024, 0x03)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e2.Reset(true)
	e2.LoadBatteryRAM([]byte{0x42})
	if got := e2.SaveBatteryRAM(); len(got) == 0 || got[0] != 0x42 {
		t.Fatalf("expected the loaded RAM byte to round-trip, got %v", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := New()
	if err := e.Load(blankROM(32*1024, 0x00)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Reset(true)
	e.StepFrame()
	data, err := e.SnapshotBytes()
	if err != nil {
		t.Fatalf("SnapshotBytes: %v", err)
	}

	e2 := New()
	if err := e2.Load(blankROM(32*1024, 0x00)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e2.Reset(true)
	if err := e2.RestoreBytes(data); err != nil {
		t.Fatalf("RestoreBytes: %v", err)
	}
	if e2.Halted() != e.Halted() {
		t.Fatal("restored machine's halted flag should match the snapshot")
	}
}
