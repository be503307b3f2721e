package ppu

// fetchState names the four phases of one BG/window tile fetch, kept as
// explicit named states rather than a single step counter per the design
// note that the fetcher's sub-state should be directly inspectable.
type fetchState int

const (
	stFetchTileNumber fetchState = iota
	stFetchDataLow
	stFetchDataHigh
	stPush
)

// fetcher drives the background/window pixel pipeline: two dots per
// sub-state to fetch a tile row, then it stalls in stPush until the BG
// FIFO is empty before pushing eight fresh pixels.
type fetcher struct {
	state       fetchState
	dotsInState int

	usingWindow bool
	tileCol     int // 0..31, column within the active tile map row
	fineY       byte

	// discard marks the very first tile fetch of the scanline: real
	// hardware throws away that fetch's result and starts over before any
	// pixel reaches the LCD, which is what pads mode 3 out to its 172-dot
	// minimum.
	discard bool

	tileNum byte
	lo, hi  byte
}

func (f *fetcher) start(p *PPU, ly byte) {
	f.usingWindow = false
	f.state = stFetchTileNumber
	f.dotsInState = 0
	f.tileCol = (int(p.scx) / 8) & 0x1F
	f.fineY = byte((int(ly) + int(p.scy)) % 8)
	f.discard = true

	p.objFIFO.compose(p, p.scanlineSprites, ly)
}

// windowShouldStart reports whether the window should take over the BG
// fetch at the current pixel: window display enabled, WY has matched LY
// at some point this frame, and the LCD has reached WX-7.
func (p *PPU) windowShouldStart() bool {
	if p.lcdc&0x20 == 0 {
		return false
	}
	if !p.windowActive {
		if p.ly != p.wy {
			return false
		}
		p.windowActive = true
	}
	return p.pixelX+7 >= int(p.wx) && p.wx <= 166
}

func (f *fetcher) needsWindowSwitch(p *PPU) bool {
	return !f.usingWindow && p.windowShouldStart()
}

func (f *fetcher) switchToWindow(p *PPU) {
	f.usingWindow = true
	f.tileCol = 0
	f.fineY = byte(p.windowLine % 8)
	f.state = stFetchTileNumber
	f.dotsInState = 0
	p.bgFIFO.Clear()
	p.windowUsedThisLine = true
}

func (f *fetcher) step(p *PPU) {
	f.dotsInState++
	switch f.state {
	case stFetchTileNumber:
		if f.dotsInState >= 2 {
			f.tileNum = f.readTileNumber(p)
			f.state = stFetchDataLow
			f.dotsInState = 0
		}
	case stFetchDataLow:
		if f.dotsInState >= 2 {
			f.lo = f.readTileData(p, false)
			f.state = stFetchDataHigh
			f.dotsInState = 0
		}
	case stFetchDataHigh:
		if f.dotsInState >= 2 {
			f.hi = f.readTileData(p, true)
			f.state = stPush
			f.dotsInState = 0
		}
	case stPush:
		if p.bgFIFO.Len() == 0 {
			if f.discard {
				f.discard = false
				f.state = stFetchTileNumber
				f.dotsInState = 0
				return
			}
			for px := 0; px < 8; px++ {
				bit := 7 - px
				ci := ((f.hi>>bit)&1)<<1 | ((f.lo >> bit) & 1)
				p.bgFIFO.Push(ci)
			}
			f.tileCol = (f.tileCol + 1) & 0x1F
			f.state = stFetchTileNumber
		}
	}
}

func (f *fetcher) tileMapBase(p *PPU) uint16 {
	if f.usingWindow {
		if p.lcdc&0x40 != 0 {
			return 0x9C00
		}
		return 0x9800
	}
	if p.lcdc&0x08 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func (f *fetcher) tileRow(p *PPU) int {
	if f.usingWindow {
		return (p.windowLine / 8) & 0x1F
	}
	return ((int(p.ly) + int(p.scy)) & 0xFF) / 8
}

func (f *fetcher) readTileNumber(p *PPU) byte {
	addr := f.tileMapBase(p) + uint16(f.tileRow(p)*32+f.tileCol)
	return p.ReadVRAM(addr)
}

func (f *fetcher) readTileData(p *PPU, high bool) byte {
	var base uint16
	if p.lcdc&0x10 != 0 {
		base = 0x8000 + uint16(f.tileNum)*16
	} else {
		base = 0x9000 + uint16(int8(f.tileNum))*16
	}
	base += uint16(f.fineY) * 2
	if high {
		return p.ReadVRAM(base + 1)
	}
	return p.ReadVRAM(base)
}
