package ppu

import "testing"

func TestFIFOPushPopOrder(t *testing.T) {
	var q fifo
	if q.Len() != 0 {
		t.Fatal("new fifo should be empty")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty fifo should fail")
	}
	for i := 0; i < 16; i++ {
		if !q.Push(byte(i)) {
			t.Fatalf("push %d should have succeeded, fifo has capacity 16", i)
		}
	}
	if q.Push(0) {
		t.Fatal("fifo should be full at 16 entries")
	}
	for i := 0; i < 16; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d should have succeeded", i)
		}
		if want := byte(i) & 0x03; v != want {
			t.Fatalf("pop %d: got %d want %d (color index masked to 2 bits)", i, v, want)
		}
	}
}

func TestObjFIFOLowerXWinsOnOverlap(t *testing.T) {
	var o objFIFO
	p := &PPU{}
	// Fully opaque 8x8 tile (every pixel color index 1).
	p.WriteVRAM(0x8000, 0xFF)
	p.WriteVRAM(0x8001, 0x00)
	sprites := []spriteEntry{
		{oamIndex: 1, y: 16, x: 20, tile: 0, attr: 0x10}, // higher X, OBP1
		{oamIndex: 0, y: 16, x: 16, tile: 0, attr: 0x00}, // lower X, OBP0, overlaps columns 12-15
	}
	o.compose(p, sprites, 0)

	// Sprite A (x=16) covers columns 8..15; sprite B (x=20) covers 12..19.
	// The overlap at columns 12..15 must show sprite A (lower X wins).
	_, pal, _, present := o.peekAt(12)
	if !present || pal != 0 {
		t.Fatalf("expected the lower-X sprite (palette 0) to win the overlapped column, got present=%v pal=%d", present, pal)
	}
	// Columns 16-19, only covered by sprite B, show its palette.
	_, pal, _, present = o.peekAt(18)
	if !present || pal != 1 {
		t.Fatalf("expected the non-overlapped column to show the higher-X sprite, got present=%v pal=%d", present, pal)
	}
}

func TestObjFIFOTransparentPixelLetsLaterSpriteShow(t *testing.T) {
	var o objFIFO
	p := &PPU{}
	// Sprite A: fully transparent tile (all zero bits).
	p.WriteVRAM(0x8000, 0x00)
	p.WriteVRAM(0x8001, 0x00)
	// Sprite B: opaque at the same column, tile 1.
	p.WriteVRAM(0x8010, 0x80)
	p.WriteVRAM(0x8011, 0x00)

	sprites := []spriteEntry{
		{oamIndex: 0, y: 16, x: 20, tile: 0, attr: 0}, // transparent, lower X
		{oamIndex: 1, y: 16, x: 20, tile: 1, attr: 0}, // opaque, same X
	}
	o.compose(p, sprites, 0)
	ci, _, _, present := o.peekAt(12)
	if !present || ci == 0 {
		t.Fatalf("expected the opaque sprite to show through a fully transparent one at the same column")
	}
}

func TestObjFIFOBehindBGYieldsToNonZeroBackground(t *testing.T) {
	p := &PPU{irq: &fakeIRQ{}}
	p.bgp = 0xE4  // identity palette: shade == color index
	p.obp0 = 0x1B // distinct palette so an OBJ pixel would look different
	p.WriteVRAM(0x8000, 0x80)
	p.WriteVRAM(0x8001, 0x00)
	var o objFIFO
	o.compose(p, []spriteEntry{{oamIndex: 0, y: 16, x: 16, tile: 0, attr: 0x80}}, 0)

	objIdx, objPal, behind, present := o.peekAt(8)
	if !present || !behind {
		t.Fatalf("expected an OBJ-behind-BG sprite pixel to be present with behindBG set")
	}
	const bgIdx = 1
	shade := p.shadeFor(bgIdx, objIdx, objPal, behind, present)
	if want := applyPalette(p.bgp, bgIdx); shade != want {
		t.Fatalf("a non-zero background pixel must win over a behind-BG sprite: got %d want %d", shade, want)
	}
}
