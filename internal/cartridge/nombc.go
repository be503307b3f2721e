package cartridge

// noMBC is a ROM that is not bank-switched at all, optionally with a
// single fixed RAM bank at $A000-$BFFF.
type noMBC struct {
	rom        []byte
	ram        []byte
	hasBattery bool
}

func newNoMBC(rom []byte, ramSize int, hasBattery bool) *noMBC {
	m := &noMBC{rom: rom, hasBattery: hasBattery}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *noMBC) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *noMBC) Write(addr uint16, v byte) {
	if addr >= 0xA000 && addr <= 0xBFFF {
		off := int(addr - 0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

func (m *noMBC) RAM() []byte       { return append([]byte(nil), m.ram...) }
func (m *noMBC) LoadRAM(d []byte)  { copy(m.ram, d) }
func (m *noMBC) HasBattery() bool  { return m.hasBattery }

func (m *noMBC) Snapshot() State {
	return State{RAM: append([]byte(nil), m.ram...)}
}

func (m *noMBC) Restore(s State) {
	if len(s.RAM) > 0 {
		copy(m.ram, s.RAM)
	}
}
