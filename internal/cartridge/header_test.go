package cartridge

import "testing"

// makeROM builds a minimal ROM image of the given size with a valid-length
// header. cartType, romSizeCode, ramSizeCode land at their documented
// offsets; the rest of the header is zeroed.
func makeROM(size int, cartType, romSizeCode, ramSizeCode byte) []byte {
	rom := make([]byte, size)
	copy(rom[0x0134:0x0144], "TESTGAME")
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	fixupHeaderChecksum(rom)
	return rom
}

func fixupHeaderChecksum(rom []byte) {
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
}

func TestParseHeaderDecodesFields(t *testing.T) {
	rom := makeROM(32*1024, 0x01, 0x00, 0x02)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "TESTGAME" {
		t.Fatalf("title: got %q", h.Title)
	}
	if h.CartType != 0x01 {
		t.Fatalf("cart type: got %#02x", h.CartType)
	}
	if h.ROMSizeBytes != 32*1024 || h.ROMBanks != 2 {
		t.Fatalf("rom size: got %d bytes / %d banks", h.ROMSizeBytes, h.ROMBanks)
	}
	if h.RAMSizeBytes != 8*1024 {
		t.Fatalf("ram size: got %d", h.RAMSizeBytes)
	}
}

func TestParseHeaderRejectsTruncatedROM(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x100)); err == nil {
		t.Fatal("expected an error for a ROM too small to hold a header")
	}
}

func TestHeaderChecksumOK(t *testing.T) {
	rom := makeROM(32*1024, 0x00, 0x00, 0x00)
	if !HeaderChecksumOK(rom) {
		t.Fatal("expected a freshly computed checksum to validate")
	}
	rom[0x014D] ^= 0xFF
	if HeaderChecksumOK(rom) {
		t.Fatal("expected a corrupted checksum to fail validation")
	}
}
