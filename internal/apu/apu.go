// Package apu models the DMG audio registers (NR10-NR52 and wave RAM)
// without synthesizing sound: every register is addressable and reads
// back the bits real hardware keeps, but the channel outputs are always
// silent. Audio synthesis is explicitly out of scope; see DESIGN.md.
package apu

// readMask documents which bits of each register are actually stored;
// unimplemented bits read back as 1.
var readMask = map[uint16]byte{
	0xFF10: 0x80, 0xFF11: 0x3F, 0xFF12: 0x00, 0xFF13: 0xFF, 0xFF14: 0xBF,
	0xFF16: 0x3F, 0xFF17: 0x00, 0xFF18: 0xFF, 0xFF19: 0xBF,
	0xFF1A: 0x7F, 0xFF1B: 0xFF, 0xFF1C: 0x9F, 0xFF1D: 0xFF, 0xFF1E: 0xBF,
	0xFF20: 0xFF, 0xFF21: 0x00, 0xFF22: 0x00, 0xFF23: 0xBF,
	0xFF24: 0x00, 0xFF25: 0x00, 0xFF26: 0x70,
}

type APU struct {
	enabled bool
	regs    map[uint16]byte
	wave    [16]byte
}

func New() *APU {
	return &APU{enabled: true, regs: make(map[uint16]byte, 32)}
}

// Read returns the raw stored value for a register in $FF10-$FF26, with
// unimplemented bits forced to 1 per readMask.
func (a *APU) Read(addr uint16) byte {
	v := a.regs[addr]
	if mask, ok := readMask[addr]; ok {
		return v | ^mask
	}
	return v | 0xFF
}

// Write stores a register value. Writes to any register while the APU is
// powered off (NR52 bit 7 clear) are ignored, except to NR52 itself and to
// length-counter bits, matching documented DMG behavior.
func (a *APU) Write(addr uint16, v byte) {
	if !a.enabled && addr != 0xFF26 {
		return
	}
	a.regs[addr] = v
	if addr == 0xFF26 {
		a.enabled = v&0x80 != 0
		if !a.enabled {
			for r := uint16(0xFF10); r <= 0xFF25; r++ {
				a.regs[r] = 0
			}
		}
	}
}

// ReadWave/WriteWave access FF30-FF3F; the wave pattern is stored but
// never played back.
func (a *APU) ReadWave(index int) byte     { return a.wave[index] }
func (a *APU) WriteWave(index int, v byte) { a.wave[index] = v }

// Tick advances the frame sequencer. With no synthesis running this is a
// no-op kept for symmetry with the other components' Tick(n) contract and
// so a future synthesizer has a place to attach.
func (a *APU) Tick(n int) {}

// Samples always returns silence; a frontend's audio stream can read this
// to keep an ebiten/oto player alive without producing sound.
func (a *APU) Samples(n int) []int16 {
	return make([]int16, n*2)
}

type State struct {
	Enabled bool
	Regs    map[uint16]byte
	Wave    [16]byte
}

func (a *APU) Snapshot() State {
	regs := make(map[uint16]byte, len(a.regs))
	for k, v := range a.regs {
		regs[k] = v
	}
	return State{Enabled: a.enabled, Regs: regs, Wave: a.wave}
}

func (a *APU) Restore(s State) {
	a.enabled = s.Enabled
	a.regs = make(map[uint16]byte, len(s.Regs))
	for k, v := range s.Regs {
		a.regs[k] = v
	}
	a.wave = s.Wave
}
