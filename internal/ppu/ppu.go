// Package ppu implements the DMG pixel-processing unit: a dot-clocked
// per-scanline state machine driving a background/window fetcher and a
// sprite fetcher into two pixel FIFOs, composited into a 160x144
// framebuffer of 2-bit shades. There is no CGB register state (no VRAM
// bank 1, no BCPS/OCPS color palettes); VRAM/OAM access-blocking is
// decided by internal/machine, which owns the memory bus's address-decode
// table.
package ppu

const (
	ModeHBlank = 0
	ModeVBlank = 1
	ModeOAM    = 2
	ModeDraw   = 3

	dotsPerLine  = 456
	visibleLines = 144
	totalLines   = 154
	oamScanDots  = 80
	screenWidth  = 160
	screenHeight = 144
)

// IRQRequester requests VBlank/STAT interrupts.
type IRQRequester interface {
	Request(bit int)
}

const (
	irqVBlank = 0
	irqStat   = 1
)

type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat byte
	scy, scx   byte
	ly, lyc    byte
	wy, wx     byte
	bgp        byte
	obp0, obp1 byte

	dot  int
	mode byte

	statLineHigh bool

	windowLine   int
	windowActive bool

	fb [screenWidth * screenHeight]byte

	fetcher fetcher
	bgFIFO  fifo
	objFIFO objFIFO

	scanlineSprites []spriteEntry
	spriteBuf       [10]spriteEntry

	pixelX          int
	discardLeft     int
	frameReady      bool
	windowUsedThisLine bool

	irq IRQRequester
}

func New(irq IRQRequester) *PPU {
	p := &PPU{irq: irq}
	p.scanlineSprites = p.spriteBuf[:0]
	return p
}

func (p *PPU) enabled() bool { return p.lcdc&0x80 != 0 }

// Mode reports the current PPU mode, which internal/machine consults to
// decide whether VRAM/OAM reads are blocked.
func (p *PPU) Mode() byte { return p.mode }

// FrameReady reports and clears whether a full frame has just completed.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

// Framebuffer returns the 160x144 buffer of 2-bit shades for the frame
// just completed.
func (p *PPU) Framebuffer() []byte { return p.fb[:] }

func (p *PPU) ReadVRAM(addr uint16) byte     { return p.vram[addr&0x1FFF] }
func (p *PPU) WriteVRAM(addr uint16, v byte) { p.vram[addr&0x1FFF] = v }

func (p *PPU) ReadOAM(addr uint16) byte     { return p.oam[addr&0xFF] }
func (p *PPU) WriteOAM(addr uint16, v byte) { p.oam[addr&0xFF] = v }

// WriteOAMByte is used by internal/dma during OAM DMA transfers.
func (p *PPU) WriteOAMByte(index int, v byte) { p.oam[index] = v }

func (p *PPU) ReadLCDC() byte { return p.lcdc }
func (p *PPU) ReadSTAT() byte { return p.stat | 0x80 }
func (p *PPU) ReadSCY() byte  { return p.scy }
func (p *PPU) ReadSCX() byte  { return p.scx }
func (p *PPU) ReadLY() byte   { return p.ly }
func (p *PPU) ReadLYC() byte  { return p.lyc }
func (p *PPU) ReadWY() byte   { return p.wy }
func (p *PPU) ReadWX() byte   { return p.wx }
func (p *PPU) ReadBGP() byte  { return p.bgp }
func (p *PPU) ReadOBP0() byte { return p.obp0 }
func (p *PPU) ReadOBP1() byte { return p.obp1 }

func (p *PPU) WriteLCDC(v byte) {
	wasOn := p.enabled()
	p.lcdc = v
	if wasOn && !p.enabled() {
		p.ly = 0
		p.dot = 0
		p.mode = ModeHBlank
	} else if !wasOn && p.enabled() {
		p.ly = 0
		p.dot = 0
		p.mode = ModeOAM
		p.windowLine = 0
		p.windowActive = false
	}
}

func (p *PPU) WriteSTAT(v byte) { p.stat = (p.stat & 0x07) | (v & 0x78) }
func (p *PPU) WriteSCY(v byte)  { p.scy = v }
func (p *PPU) WriteSCX(v byte)  { p.scx = v }
func (p *PPU) WriteLYC(v byte)  { p.lyc = v; p.updateLYC() }
func (p *PPU) WriteWY(v byte)   { p.wy = v }
func (p *PPU) WriteWX(v byte)   { p.wx = v }
func (p *PPU) WriteBGP(v byte)  { p.bgp = v }
func (p *PPU) WriteOBP0(v byte) { p.obp0 = v }
func (p *PPU) WriteOBP1(v byte) { p.obp1 = v }

func (p *PPU) setMode(m byte) {
	p.mode = m
	p.stat = (p.stat &^ 0x03) | m
	p.evaluateSTAT()
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}
	p.evaluateSTAT()
}

// evaluateSTAT recomputes the OR of enabled STAT sources and fires the
// interrupt only on a low-to-high edge ("STAT blocking").
func (p *PPU) evaluateSTAT() {
	lycMatch := p.stat&0x04 != 0 && p.stat&0x40 != 0
	m0 := p.mode == ModeHBlank && p.stat&0x08 != 0
	m1 := p.mode == ModeVBlank && p.stat&0x10 != 0
	m2 := p.mode == ModeOAM && p.stat&0x20 != 0
	high := lycMatch || m0 || m1 || m2
	if high && !p.statLineHigh {
		p.irq.Request(irqStat)
	}
	p.statLineHigh = high
}

// Tick advances the PPU by n T-cycles (dots), one at a time so mode
// transitions and STAT edges land exactly.
func (p *PPU) Tick(n int) {
	if !p.enabled() {
		return
	}
	for i := 0; i < n; i++ {
		p.tickOne()
	}
}

func (p *PPU) tickOne() {
	switch p.mode {
	case ModeOAM:
		if p.dot == 0 {
			p.scanOAM()
		}
		p.dot++
		if p.dot >= oamScanDots {
			p.beginDrawing()
		}
	case ModeDraw:
		p.drawPixel()
		p.dot++
		if p.pixelX >= screenWidth {
			p.setMode(ModeHBlank)
		}
	case ModeHBlank, ModeVBlank:
		p.dot++
		if p.dot >= dotsPerLine {
			p.endLine()
		}
	}
}

func (p *PPU) beginDrawing() {
	p.setMode(ModeDraw)
	p.pixelX = 0
	p.discardLeft = int(p.scx) % 8
	p.bgFIFO.Clear()
	p.objFIFO.clear()
	p.fetcher.start(p, p.ly)
}

func (p *PPU) endLine() {
	p.dot = 0
	p.ly++
	if p.windowUsedThisLine {
		p.windowLine++
		p.windowUsedThisLine = false
	}
	switch {
	case int(p.ly) == visibleLines:
		p.setMode(ModeVBlank)
		p.irq.Request(irqVBlank)
		p.frameReady = true
	case int(p.ly) >= totalLines:
		p.ly = 0
		p.windowLine = 0
		p.windowActive = false
		p.setMode(ModeOAM)
	case p.mode == ModeVBlank:
		// stay in VBlank through lines 144..153
	default:
		p.setMode(ModeOAM)
	}
	p.updateLYC()
}

func (p *PPU) scanOAM() {
	p.scanlineSprites = p.spriteBuf[:0]
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	for i := 0; i < 40 && len(p.scanlineSprites) < 10; i++ {
		y := p.oam[i*4]
		screenY := int(y) - 16
		if int(p.ly) >= screenY && int(p.ly) < screenY+height {
			p.scanlineSprites = append(p.scanlineSprites, spriteEntry{
				oamIndex: i,
				y:        y,
				x:        p.oam[i*4+1],
				tile:     p.oam[i*4+2],
				attr:     p.oam[i*4+3],
			})
		}
	}
}

func (p *PPU) drawPixel() {
	if p.fetcher.needsWindowSwitch(p) {
		p.fetcher.switchToWindow(p)
	}
	p.fetcher.step(p)

	if p.bgFIFO.Len() == 0 {
		return
	}
	bgColorIdx, _ := p.bgFIFO.Pop()

	if p.discardLeft > 0 {
		p.discardLeft--
		return
	}

	objColorIdx, objPalette, objBehindBG, objPresent := p.objFIFO.peekAt(p.pixelX)

	shade := p.shadeFor(bgColorIdx, objColorIdx, objPalette, objBehindBG, objPresent)
	if p.pixelX < screenWidth {
		p.fb[int(p.ly)*screenWidth+p.pixelX] = shade
	}
	p.pixelX++
}

// shadeFor applies sprite-over-background priority: a transparent sprite
// pixel (color index 0) never shows, and a sprite with the BG-over-OBJ
// attribute bit set yields to a non-zero background pixel.
func (p *PPU) shadeFor(bgIdx, objIdx, objPal byte, objBehindBG, objPresent bool) byte {
	useObj := objPresent && objIdx != 0 && !(objBehindBG && bgIdx != 0)
	if useObj {
		pal := p.obp0
		if objPal == 1 {
			pal = p.obp1
		}
		return applyPalette(pal, objIdx)
	}
	return applyPalette(p.bgp, bgIdx)
}

func applyPalette(pal, colorIdx byte) byte {
	return (pal >> (colorIdx * 2)) & 0x03
}

type spriteEntry struct {
	oamIndex int
	y, x     byte
	tile     byte
	attr     byte
}

type State struct {
	LCDC, STAT        byte
	SCY, SCX, LY, LYC byte
	WY, WX            byte
	BGP, OBP0, OBP1   byte
	VRAM              [0x2000]byte
	OAM               [0xA0]byte
	Dot               int
	Mode              byte
	StatLineHigh      bool
	WindowLine        int
	WindowActive      bool
}

func (p *PPU) Snapshot() State {
	return State{
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		WY: p.wy, WX: p.wx, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		VRAM: p.vram, OAM: p.oam, Dot: p.dot, Mode: p.mode,
		StatLineHigh: p.statLineHigh, WindowLine: p.windowLine, WindowActive: p.windowActive,
	}
}

func (p *PPU) Restore(s State) {
	p.lcdc, p.stat = s.LCDC, s.STAT
	p.scy, p.scx, p.ly, p.lyc = s.SCY, s.SCX, s.LY, s.LYC
	p.wy, p.wx = s.WY, s.WX
	p.bgp, p.obp0, p.obp1 = s.BGP, s.OBP0, s.OBP1
	p.vram, p.oam = s.VRAM, s.OAM
	p.dot, p.mode = s.Dot, s.Mode
	p.statLineHigh, p.windowLine, p.windowActive = s.StatLineHigh, s.WindowLine, s.WindowActive
}
