package cartridge

import "testing"

func TestMBC3SelectsROMBankUpTo7Bits(t *testing.T) {
	m := newMBC3(bankedROM(128), 0, false, false)
	m.Write(0x2000, 0x7F)
	if got := m.Read(0x4000); got != 0x7F {
		t.Fatalf("expected bank 127 at $4000, got %d", got)
	}
}

func TestMBC3WritingBank0ToROMRegisterSelectsBank1(t *testing.T) {
	m := newMBC3(bankedROM(4), 0, false, false)
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("MBC3 also remaps bank 0 to bank 1, got %d", got)
	}
}

func TestMBC3SelectsRAMBankBelow08(t *testing.T) {
	m := newMBC3(bankedROM(2), 4*0x2000, true, true)
	m.Write(0x0000, 0x0A) // RAM enable
	m.Write(0x4000, 0x02) // RAM bank 2
	m.Write(0xA000, 0x55)
	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x55 {
		t.Fatalf("bank 0 must not see bank 2's data")
	}
	m.Write(0x4000, 0x02)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("expected bank 2's data, got %#02x", got)
	}
}

func TestMBC3RTCLatchRequiresZeroThenOne(t *testing.T) {
	m := newMBC3(bankedROM(2), 0x2000, true, false)
	m.Write(0x0000, 0x0A)
	m.rtc.seconds = 30

	m.Write(0x4000, 0x08) // select seconds register
	m.Write(0x6000, 0x01) // latch write without a preceding 0x00: must be ignored
	if got := m.Read(0xA000); got == 30 {
		t.Fatalf("latch must not take effect without a 0x00 write first")
	}

	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	if got := m.Read(0xA000); got != 30 {
		t.Fatalf("expected the latched seconds value 30, got %d", got)
	}
}

func TestMBC3RTCAdvancesAndRolls(t *testing.T) {
	m := newMBC3(bankedROM(2), 0x2000, true, false)
	m.rtc.seconds = 58
	m.Tick(3) // 58 -> 59 -> 0 (minutes+1) -> 1
	if m.rtc.seconds != 1 {
		t.Fatalf("expected seconds to roll over into minutes, got seconds=%d", m.rtc.seconds)
	}
	if m.rtc.minutes != 1 {
		t.Fatalf("expected minutes to have incremented once, got %d", m.rtc.minutes)
	}
}

func TestMBC3RTCHaltStopsAdvance(t *testing.T) {
	m := newMBC3(bankedROM(2), 0x2000, true, false)
	m.rtc.dayHigh = 0x40 // halt bit set
	m.rtc.seconds = 10
	m.Tick(5)
	if m.rtc.seconds != 10 {
		t.Fatalf("RTC must not advance while halted, got seconds=%d", m.rtc.seconds)
	}
}

func TestMBC3SnapshotRestoreRoundTrip(t *testing.T) {
	m := newMBC3(bankedROM(4), 0x2000, true, true)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x03)
	m.rtc.hours = 5
	m.Write(0x4000, 0x0A) // select hours register
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01) // latch it

	s := m.Snapshot()
	m2 := newMBC3(bankedROM(4), 0x2000, true, true)
	m2.Restore(s)

	if got := m2.Read(0x4000); got != 3 {
		t.Fatalf("restored ROM bank: got %d want 3", got)
	}
	if got := m2.Read(0xA000); got != 5 {
		t.Fatalf("restored latched hours: got %d want 5", got)
	}
}
