package cartridge

// mbc5 supports up to 8MB ROM (9-bit bank, split across two write
// registers) and 128KB RAM (4-bit bank), with no special-cased bank-0
// remapping unlike MBC1/MBC3.
type mbc5 struct {
	rom []byte
	ram []byte

	romBank    uint16
	ramBank    byte
	ramEnabled bool
	hasBattery bool
}

func newMBC5(rom []byte, ramSize int, hasBattery bool) *mbc5 {
	m := &mbc5{rom: rom, romBank: 1, hasBattery: hasBattery}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *mbc5) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := int(m.romBank)*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc5) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = (m.romBank & 0x100) | uint16(v)
	case addr < 0x4000:
		if v&0x01 != 0 {
			m.romBank |= 0x100
		} else {
			m.romBank &^= 0x100
		}
	case addr < 0x6000:
		m.ramBank = v & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x0F)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

func (m *mbc5) RAM() []byte      { return append([]byte(nil), m.ram...) }
func (m *mbc5) LoadRAM(d []byte) { copy(m.ram, d) }
func (m *mbc5) HasBattery() bool { return m.hasBattery }

func (m *mbc5) Snapshot() State {
	return State{
		RAM:        append([]byte(nil), m.ram...),
		ROMBank16:  m.romBank,
		RAMBank:    m.ramBank,
		RAMEnabled: m.ramEnabled,
	}
}

func (m *mbc5) Restore(s State) {
	if len(s.RAM) > 0 {
		copy(m.ram, s.RAM)
	}
	m.romBank, m.ramBank, m.ramEnabled = s.ROMBank16, s.RAMBank, s.RAMEnabled
}
