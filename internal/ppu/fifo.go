package ppu

// fifo is a ring buffer of background/window color indices (0..3).
type fifo struct {
	buf  [16]byte
	head int
	tail int
	size int
}

func (q *fifo) Clear() { q.head, q.tail, q.size = 0, 0, 0 }
func (q *fifo) Len() int { return q.size }

func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = ci & 0x03
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}

func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// objPixel is one composited sprite pixel, precomputed for an entire
// scanline at the start of mode 3 rather than fetched lockstep with the
// BG fifo; sprite-fetch stall penalties are not modeled (see DESIGN.md).
type objPixel struct {
	colorIdx  byte
	palette   byte // 0 or 1, selects OBP0/OBP1
	behindBG  bool // OBJ-to-BG priority attribute bit
	present   bool
}

// objFIFO holds one composited pixel per screen column for the current
// scanline. Despite the name it is not a ring buffer: DMG sprite
// compositing is resolved by X-priority across up to 10 sprites, which is
// naturally expressed as a per-column array built once per line.
type objFIFO struct {
	pixels [screenWidth]objPixel
}

func (o *objFIFO) clear() {
	for i := range o.pixels {
		o.pixels[i] = objPixel{}
	}
}

func (o *objFIFO) peekAt(x int) (colorIdx, palette byte, behindBG, present bool) {
	if x < 0 || x >= screenWidth {
		return 0, 0, false, false
	}
	p := o.pixels[x]
	return p.colorIdx, p.palette, p.behindBG, p.present
}

// compose fills the per-column sprite buffer for the scanline ly from the
// sprites already selected by scanOAM, honoring "lower X wins, OAM order
// breaks ties" by processing sprites in a stable ascending-X order and
// never overwriting a column that already has a sprite pixel.
func (o *objFIFO) compose(p *PPU, sprites []spriteEntry, ly byte) {
	o.clear()
	ordered := make([]spriteEntry, len(sprites))
	copy(ordered, sprites)
	// Stable insertion sort by X: preserves OAM order (already present in
	// `sprites`) for equal X values.
	for i := 1; i < len(ordered); i++ {
		j := i
		for j > 0 && ordered[j-1].x > ordered[j].x {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			j--
		}
	}

	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}

	for _, s := range ordered {
		screenY := int(s.y) - 16
		row := int(ly) - screenY
		if s.attr&0x40 != 0 { // Y-flip
			row = height - 1 - row
		}
		tile := s.tile
		if height == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}
		base := 0x8000 + uint16(tile)*16 + uint16(row)*2
		lo := p.ReadVRAM(base)
		hi := p.ReadVRAM(base + 1)

		screenX := int(s.x) - 8
		for px := 0; px < 8; px++ {
			col := screenX + px
			if col < 0 || col >= screenWidth || o.pixels[col].present {
				continue
			}
			bit := px
			if s.attr&0x20 == 0 { // no X-flip: leftmost pixel is bit7
				bit = 7 - px
			}
			ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if ci == 0 {
				// Transparent sprite pixel; still occupies the column per
				// hardware (lower-X sprite wins even if it shows nothing)
				// once any sprite has claimed it, but an all-zero sprite
				// lets a later, higher-X sprite show through, so mark
				// present only when opaque.
				continue
			}
			o.pixels[col] = objPixel{
				colorIdx: ci,
				palette:  (s.attr >> 4) & 0x01,
				behindBG: s.attr&0x80 != 0,
				present:  true,
			}
		}
	}
}
