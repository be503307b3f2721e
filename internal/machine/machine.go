// Package machine is the single memory-mapped bus that owns every DMG
// component: CPU, PPU, APU, timer, joypad, serial port, OAM DMA engine,
// interrupt controller, and the loaded cartridge. It is the one place
// that knows the address-decode table, so no leaf component needs to
// know about any other. Every memory region goes through its own named
// handler, decoded by a range switch over the address.
package machine

import (
	"github.com/fmnoll/gogbcore/internal/apu"
	"github.com/fmnoll/gogbcore/internal/cartridge"
	"github.com/fmnoll/gogbcore/internal/cpu"
	"github.com/fmnoll/gogbcore/internal/dma"
	"github.com/fmnoll/gogbcore/internal/interrupt"
	"github.com/fmnoll/gogbcore/internal/joypad"
	"github.com/fmnoll/gogbcore/internal/ppu"
	"github.com/fmnoll/gogbcore/internal/serial"
	"github.com/fmnoll/gogbcore/internal/timer"
)

// rtcTicker is implemented by cartridges with a real-time clock (MBC3);
// Machine type-asserts for it rather than widening the Cartridge
// interface every other controller would have to satisfy with a no-op.
type rtcTicker interface {
	Tick(seconds int64)
}

// Machine is the DMG memory bus and the owner of every hardware block.
// CPU, PPU, APU, timer, joypad, serial, and DMA never reference each
// other directly; they only see the small interfaces (IRQRequester,
// dma.Source/Dest) that Machine itself satisfies.
type Machine struct {
	CPU *cpu.CPU

	cart cartridge.Cartridge
	irq  *interrupt.Controller
	tmr  *timer.Timer
	ppu  *ppu.PPU
	apu  *apu.APU
	ser  *serial.Serial
	pad  *joypad.Joypad
	dma  *dma.DMA

	wram [0x2000]byte
	hram [0x7F]byte

	bootROM    []byte
	bootMapped bool
}

// New builds a Machine with a cartridge already loaded; callers get the
// cartridge (and therefore ROM-validation errors) from cartridge.New
// before constructing the Machine.
func New(cart cartridge.Cartridge) *Machine {
	m := &Machine{cart: cart}
	m.irq = interrupt.New()
	m.tmr = timer.New(m.irq)
	m.ppu = ppu.New(m.irq)
	m.apu = apu.New()
	m.ser = serial.New(m.irq)
	m.pad = joypad.New(m.irq)
	m.dma = dma.New()
	m.CPU = cpu.New(m)
	return m
}

// SetBootROM installs a 256-byte DMG boot ROM, mapped over $0000-$00FF
// until the program writes to $FF50. With no boot ROM, callers should
// call ResetFastBoot instead of running the CPU from PC=0.
func (m *Machine) SetBootROM(rom []byte) {
	if len(rom) < 0x100 {
		return
	}
	m.bootROM = make([]byte, 0x100)
	copy(m.bootROM, rom[:0x100])
	m.bootMapped = true
	m.CPU.SetPC(0x0000)
}

// ResetFastBoot skips the boot ROM: the CPU starts at $0100 with the
// documented DMG post-boot register and I/O state.
func (m *Machine) ResetFastBoot() {
	m.bootMapped = false
	m.CPU.ResetNoBoot()
	m.applyPostBootIO()
}

// applyPostBootIO sets the I/O registers the boot ROM would have left
// behind.
func (m *Machine) applyPostBootIO() {
	m.tmr.WriteTAC(0xF8)
	m.pad.Write(0xCF)
	m.ppu.WriteLCDC(0x91)
	m.ppu.WriteBGP(0xFC)
	m.irq.WriteIF(0xE1)
}

// PPU, APU, Joypad, Serial, Cartridge expose the leaf components to
// internal/emulator for framebuffer/sample/save-RAM/button access.
func (m *Machine) PPU() *ppu.PPU               { return m.ppu }
func (m *Machine) APU() *apu.APU               { return m.apu }
func (m *Machine) Joypad() *joypad.Joypad      { return m.pad }
func (m *Machine) Serial() *serial.Serial      { return m.ser }
func (m *Machine) Cartridge() cartridge.Cartridge { return m.cart }

// Interrupts gives the CPU a DMA-lockout-free path to IE/IF arbitration:
// interrupt vector dispatch must still work correctly while an OAM DMA
// transfer has the rest of the bus locked out.
func (m *Machine) Interrupts() cpu.InterruptSource { return m.irq }

// SetButtons forwards the host's current button mask to the joypad.
func (m *Machine) SetButtons(mask byte) { m.pad.SetButtons(mask) }

// AdvanceRTC feeds wall-clock seconds to an MBC3 cartridge's real-time
// clock; cartridges without one ignore the call.
func (m *Machine) AdvanceRTC(seconds int64) {
	if t, ok := m.cart.(rtcTicker); ok {
		t.Tick(seconds)
	}
}

// Tick drives every component forward by n T-cycles in the fixed order
// the hardware's shared clock implies: the timer and DMA engine run
// first since their edges can raise interrupts the same tick, then the
// PPU (which consumes the freshly-DMA'd OAM), then serial and APU, which
// have no dependency on this tick's ordering.
func (m *Machine) Tick(n int) {
	m.tmr.Tick(n)
	m.dma.Tick(n, m, m.ppu)
	m.ppu.Tick(n)
	m.ser.Tick(n)
	m.apu.Tick(n)
}

// Read is the CPU-facing read: OAM DMA locks the bus to everything but
// HRAM while active.
func (m *Machine) Read(addr uint16) byte {
	if m.dma.Active() && !inHRAM(addr) {
		return 0xFF
	}
	return m.read(addr)
}

// Write is the CPU-facing write, subject to the same DMA lockout as Read.
func (m *Machine) Write(addr uint16, v byte) {
	if m.dma.Active() && !inHRAM(addr) {
		return
	}
	m.write(addr, v)
}

// ReadDMA lets the DMA engine itself read source bytes, bypassing the
// lockout that blocks the CPU during an active transfer.
func (m *Machine) ReadDMA(addr uint16) byte { return m.read(addr) }

func inHRAM(addr uint16) bool { return addr >= 0xFF80 && addr <= 0xFFFE }

func (m *Machine) read(addr uint16) byte {
	switch {
	case addr < 0x0100 && m.bootMapped:
		return m.bootROM[addr]
	case addr < 0x8000:
		return m.cart.Read(addr)
	case addr < 0xA000:
		if m.vramBlocked() {
			return 0xFF
		}
		return m.ppu.ReadVRAM(addr)
	case addr < 0xC000:
		return m.cart.Read(addr)
	case addr < 0xE000:
		return m.wram[addr-0xC000]
	case addr < 0xFE00:
		return m.wram[addr-0xE000] // echo RAM
	case addr < 0xFEA0:
		if m.oamBlocked() {
			return 0xFF
		}
		return m.ppu.ReadOAM(addr)
	case addr < 0xFF00:
		return 0xFF // unusable region
	case addr < 0xFF80:
		return m.readIO(addr)
	case addr < 0xFFFF:
		return m.hram[addr-0xFF80]
	default:
		return m.irq.ReadIE()
	}
}

func (m *Machine) write(addr uint16, v byte) {
	switch {
	case addr < 0x0100 && m.bootMapped:
		// Boot ROM is read-only.
	case addr < 0x8000:
		m.cart.Write(addr, v)
	case addr < 0xA000:
		if !m.vramBlocked() {
			m.ppu.WriteVRAM(addr, v)
		}
	case addr < 0xC000:
		m.cart.Write(addr, v)
	case addr < 0xE000:
		m.wram[addr-0xC000] = v
	case addr < 0xFE00:
		m.wram[addr-0xE000] = v
	case addr < 0xFEA0:
		if !m.oamBlocked() {
			m.ppu.WriteOAM(addr, v)
		}
	case addr < 0xFF00:
		// unusable region, writes dropped
	case addr < 0xFF80:
		m.writeIO(addr, v)
	case addr < 0xFFFF:
		m.hram[addr-0xFF80] = v
	default:
		m.irq.WriteIE(v)
	}
}

// vramBlocked reports whether VRAM is off-limits to the CPU: LCD on and
// the PPU is in mode 3 (Draw).
func (m *Machine) vramBlocked() bool {
	return m.ppu.ReadLCDC()&0x80 != 0 && m.ppu.Mode() == ppu.ModeDraw
}

// oamBlocked reports whether OAM is off-limits to the CPU: LCD on and
// the PPU is scanning or drawing (modes 2 or 3), or a DMA transfer owns it.
func (m *Machine) oamBlocked() bool {
	if m.dma.Active() {
		return true
	}
	if m.ppu.ReadLCDC()&0x80 == 0 {
		return false
	}
	mode := m.ppu.Mode()
	return mode == ppu.ModeOAM || mode == ppu.ModeDraw
}

func (m *Machine) readIO(addr uint16) byte {
	switch {
	case addr == 0xFF00:
		return m.pad.Read()
	case addr == 0xFF01:
		return m.ser.ReadSB()
	case addr == 0xFF02:
		return m.ser.ReadSC()
	case addr == 0xFF04:
		return m.tmr.ReadDIV()
	case addr == 0xFF05:
		return m.tmr.ReadTIMA()
	case addr == 0xFF06:
		return m.tmr.ReadTMA()
	case addr == 0xFF07:
		return m.tmr.ReadTAC()
	case addr == 0xFF0F:
		return m.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF26:
		return m.apu.Read(addr)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return m.apu.ReadWave(int(addr - 0xFF30))
	case addr == 0xFF40:
		return m.ppu.ReadLCDC()
	case addr == 0xFF41:
		return m.ppu.ReadSTAT()
	case addr == 0xFF42:
		return m.ppu.ReadSCY()
	case addr == 0xFF43:
		return m.ppu.ReadSCX()
	case addr == 0xFF44:
		return m.ppu.ReadLY()
	case addr == 0xFF45:
		return m.ppu.ReadLYC()
	case addr == 0xFF46:
		return 0xFF // DMA register is write-only
	case addr == 0xFF47:
		return m.ppu.ReadBGP()
	case addr == 0xFF48:
		return m.ppu.ReadOBP0()
	case addr == 0xFF49:
		return m.ppu.ReadOBP1()
	case addr == 0xFF4A:
		return m.ppu.ReadWY()
	case addr == 0xFF4B:
		return m.ppu.ReadWX()
	case addr == 0xFF50:
		if m.bootMapped {
			return 0x00
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *Machine) writeIO(addr uint16, v byte) {
	switch {
	case addr == 0xFF00:
		m.pad.Write(v)
	case addr == 0xFF01:
		m.ser.WriteSB(v)
	case addr == 0xFF02:
		m.ser.WriteSC(v)
	case addr == 0xFF04:
		m.tmr.WriteDIV()
	case addr == 0xFF05:
		m.tmr.WriteTIMA(v)
	case addr == 0xFF06:
		m.tmr.WriteTMA(v)
	case addr == 0xFF07:
		m.tmr.WriteTAC(v)
	case addr == 0xFF0F:
		m.irq.WriteIF(v)
	case addr >= 0xFF10 && addr <= 0xFF26:
		m.apu.Write(addr, v)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		m.apu.WriteWave(int(addr-0xFF30), v)
	case addr == 0xFF40:
		m.ppu.WriteLCDC(v)
	case addr == 0xFF41:
		m.ppu.WriteSTAT(v)
	case addr == 0xFF42:
		m.ppu.WriteSCY(v)
	case addr == 0xFF43:
		m.ppu.WriteSCX(v)
	case addr == 0xFF45:
		m.ppu.WriteLYC(v)
	case addr == 0xFF46:
		m.dma.Start(uint16(v) << 8)
	case addr == 0xFF47:
		m.ppu.WriteBGP(v)
	case addr == 0xFF48:
		m.ppu.WriteOBP0(v)
	case addr == 0xFF49:
		m.ppu.WriteOBP1(v)
	case addr == 0xFF4A:
		m.ppu.WriteWY(v)
	case addr == 0xFF4B:
		m.ppu.WriteWX(v)
	case addr == 0xFF50:
		if v != 0 {
			m.bootMapped = false
		}
	}
}

// State is the gob-encodable snapshot of every owned component, used by
// internal/emulator to implement save states.
type State struct {
	CPU        cpu.State
	Cart       cartridge.State
	IRQ        interrupt.State
	Timer      timer.State
	PPU        ppu.State
	APU        apu.State
	Serial     serial.State
	Joypad     joypad.State
	DMA        dma.State
	WRAM       [0x2000]byte
	HRAM       [0x7F]byte
	BootMapped bool
}

func (m *Machine) Snapshot() State {
	return State{
		CPU: m.CPU.Snapshot(), Cart: m.cart.Snapshot(), IRQ: m.irq.Snapshot(),
		Timer: m.tmr.Snapshot(), PPU: m.ppu.Snapshot(), APU: m.apu.Snapshot(),
		Serial: m.ser.Snapshot(), Joypad: m.pad.Snapshot(), DMA: m.dma.Snapshot(),
		WRAM: m.wram, HRAM: m.hram, BootMapped: m.bootMapped,
	}
}

func (m *Machine) Restore(s State) {
	m.CPU.Restore(s.CPU)
	m.cart.Restore(s.Cart)
	m.irq.Restore(s.IRQ)
	m.tmr.Restore(s.Timer)
	m.ppu.Restore(s.PPU)
	m.apu.Restore(s.APU)
	m.ser.Restore(s.Serial)
	m.pad.Restore(s.Joypad)
	m.dma.Restore(s.DMA)
	m.wram, m.hram, m.bootMapped = s.WRAM, s.HRAM, s.BootMapped
}
