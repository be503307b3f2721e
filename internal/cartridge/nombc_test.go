package cartridge

import "testing"

func TestNoMBCReadsROMDirectly(t *testing.T) {
	rom := bankedROM(2)
	m := newNoMBC(rom, 0x2000, false)
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("expected the fixed second bank to be visible at $4000, got %d", got)
	}
}

func TestNoMBCIgnoresBankSelectWrites(t *testing.T) {
	rom := bankedROM(2)
	m := newNoMBC(rom, 0, false)
	m.Write(0x2000, 0xFF) // no banking registers exist; must be a no-op
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("bank-select writes must have no effect on a plain ROM, got %d", got)
	}
}

func TestNoMBCRAMReadWrite(t *testing.T) {
	m := newNoMBC(bankedROM(1), 0x2000, false)
	m.Write(0xA123, 0x9A)
	if got := m.Read(0xA123); got != 0x9A {
		t.Fatalf("expected the written byte back, got %#02x", got)
	}
}

func TestNoMBCSnapshotRestoreRoundTrip(t *testing.T) {
	m := newNoMBC(bankedROM(1), 0x2000, false)
	m.Write(0xA000, 0x42)
	s := m.Snapshot()

	m2 := newNoMBC(bankedROM(1), 0x2000, false)
	m2.Restore(s)
	if got := m2.Read(0xA000); got != 0x42 {
		t.Fatalf("restored RAM: got %#02x want 0x42", got)
	}
}
