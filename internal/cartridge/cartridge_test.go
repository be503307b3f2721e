package cartridge

import "testing"

func TestNewDispatchesROMOnly(t *testing.T) {
	rom := makeROM(32*1024, 0x00, 0x00, 0x00)
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(*noMBC); !ok {
		t.Fatalf("cart type 0x00 should dispatch to noMBC, got %T", c)
	}
}

func TestNewDispatchesMBC1(t *testing.T) {
	rom := makeROM(32*1024, 0x03, 0x00, 0x02) // MBC1+RAM+BATTERY
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, ok := c.(*mbc1)
	if !ok {
		t.Fatalf("cart type 0x03 should dispatch to mbc1, got %T", c)
	}
	if !m.hasBattery {
		t.Fatal("cart type 0x03 should be battery-backed")
	}
}

func TestNewDispatchesMBC3WithRTC(t *testing.T) {
	rom := makeROM(32*1024, 0x10, 0x00, 0x02) // MBC3+TIMER+RAM+BATTERY
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, ok := c.(*mbc3)
	if !ok {
		t.Fatalf("cart type 0x10 should dispatch to mbc3, got %T", c)
	}
	if !m.hasRTC || !m.hasBattery {
		t.Fatalf("cart type 0x10 should have both RTC and battery, got hasRTC=%v hasBattery=%v", m.hasRTC, m.hasBattery)
	}
}

func TestNewDispatchesMBC5(t *testing.T) {
	rom := makeROM(32*1024, 0x1B, 0x00, 0x02) // MBC5+RAM+BATTERY
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(*mbc5); !ok {
		t.Fatalf("cart type 0x1B should dispatch to mbc5, got %T", c)
	}
}

func TestNewRejectsUnsupportedCartType(t *testing.T) {
	rom := makeROM(32*1024, 0xFC, 0x00, 0x00) // POCKET CAMERA, not implemented
	if _, err := New(rom); err == nil {
		t.Fatal("expected an error for an unsupported cartridge type")
	}
}

func TestBatteryRAMRoundTripsThroughSaveLoad(t *testing.T) {
	rom := makeROM(32*1024, 0x03, 0x00, 0x02)
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Write(0x0000, 0x0A) // enable RAM
	c.Write(0xA010, 0x64)

	bb, ok := c.(BatteryBacked)
	if !ok {
		t.Fatal("MBC1+RAM+BATTERY must implement BatteryBacked")
	}
	if !bb.HasBattery() {
		t.Fatal("expected HasBattery() to be true")
	}
	saved := bb.RAM()

	c2, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c2.Write(0x0000, 0x0A)
	bb2 := c2.(BatteryBacked)
	bb2.LoadRAM(saved)
	if got := c2.Read(0xA010); got != 0x64 {
		t.Fatalf("expected loaded RAM to restore the saved byte, got %#02x", got)
	}
}
