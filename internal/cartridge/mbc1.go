package cartridge

// mbc1 implements the MBC1 banking scheme: a 5-bit ROM bank register and a
// shared 2-bit register that is either RAM bank or the high ROM bank bits,
// selected by the mode flag.
type mbc1 struct {
	rom []byte
	ram []byte

	romBankLow5       byte
	ramBankOrRomHigh2 byte
	ramEnabled        bool
	modeSelect        byte
	hasBattery        bool
}

func newMBC1(rom []byte, ramSize int, hasBattery bool) *mbc1 {
	m := &mbc1{rom: rom, romBankLow5: 1, hasBattery: hasBattery}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *mbc1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.modeSelect == 0 {
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		}
		bank := int(m.ramBankOrRomHigh2&0x03) << 5
		off := bank*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.effectiveROMBank())
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *mbc1) Write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		m.romBankLow5 = v & 0x1F
		if m.romBankLow5 == 0 {
			m.romBankLow5 = 1
		}
	case addr < 0x6000:
		m.ramBankOrRomHigh2 = v & 0x03
	case addr < 0x8000:
		m.modeSelect = v & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			m.ram[off] = v
		}
	}
}

func (m *mbc1) ramOffset(addr uint16) int {
	bank := 0
	if m.modeSelect == 1 {
		bank = int(m.ramBankOrRomHigh2 & 0x03)
	}
	return bank*0x2000 + int(addr-0xA000)
}

func (m *mbc1) effectiveROMBank() byte {
	high := m.ramBankOrRomHigh2 & 0x03
	return m.romBankLow5 | (high << 5)
}

func (m *mbc1) RAM() []byte      { return append([]byte(nil), m.ram...) }
func (m *mbc1) LoadRAM(d []byte) { copy(m.ram, d) }
func (m *mbc1) HasBattery() bool { return m.hasBattery }

func (m *mbc1) Snapshot() State {
	return State{
		RAM:        append([]byte(nil), m.ram...),
		ROMBankLo:  m.romBankLow5,
		RAMBank:    m.ramBankOrRomHigh2,
		RAMEnabled: m.ramEnabled,
		ModeSelect: m.modeSelect,
	}
}

func (m *mbc1) Restore(s State) {
	if len(s.RAM) > 0 {
		copy(m.ram, s.RAM)
	}
	m.romBankLow5, m.ramBankOrRomHigh2 = s.ROMBankLo, s.RAMBank
	m.ramEnabled, m.modeSelect = s.RAMEnabled, s.ModeSelect
}
