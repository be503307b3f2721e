// Package frontend is the ebiten-based window: key-to-button mapping,
// framebuffer blit, and audio playback of the core's (currently silent)
// sample stream. The tested core never imports it; it stays a thin
// consumer of internal/hostloop's channels.
package frontend

import (
	"context"
	"image/color"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/sync/errgroup"

	"github.com/fmnoll/gogbcore/internal/emulator"
	"github.com/fmnoll/gogbcore/internal/hostloop"
)

// shadePalette maps the DMG's four 2-bit shades to an RGBA approximation
// of the original green-tinted LCD.
var shadePalette = [4]color.RGBA{
	{224, 248, 208, 255},
	{136, 192, 112, 255},
	{52, 104, 86, 255},
	{8, 24, 32, 255},
}

// Config is the handful of display options this frontend exposes; there
// is no audio buffer size or CGB palette setting, since there is no CGB
// rendering path.
type Config struct {
	Scale       int
	Title       string
	PrintSerial bool // mirror completed serial transfers to stdout
}

// App is the ebiten Game implementation. It owns no emulator state itself
// (everything lives behind the hostloop channels), so Update and Draw
// never block on the scheduler goroutine for more than a channel
// send/receive.
type App struct {
	cfg Config

	loop   *hostloop.Loop
	cancel context.CancelFunc

	tex    *ebiten.Image
	latest emulator.FrameResult
	paused bool

	audioMu  sync.Mutex
	audioBuf []int16
}

// NewApp starts the scheduler goroutine (via an errgroup so a future
// fatal error tears both down together) and returns a ready-to-run Game.
func NewApp(cfg Config, loop *hostloop.Loop) *App {
	if cfg.Scale <= 0 {
		cfg.Scale = 3
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	hostloop.RunInGroup(ctx, g, loop)

	return &App{cfg: cfg, loop: loop, cancel: cancel}
}

func (a *App) Run() error {
	defer a.cancel()
	return ebiten.RunGame(a)
}

func (a *App) currentButtons() byte {
	var mask byte
	press := func(cond bool, bit byte) {
		if cond {
			mask |= bit
		}
	}
	press(ebiten.IsKeyPressed(ebiten.KeyRight), emulator.ButtonRight)
	press(ebiten.IsKeyPressed(ebiten.KeyLeft), emulator.ButtonLeft)
	press(ebiten.IsKeyPressed(ebiten.KeyUp), emulator.ButtonUp)
	press(ebiten.IsKeyPressed(ebiten.KeyDown), emulator.ButtonDown)
	press(ebiten.IsKeyPressed(ebiten.KeyZ), emulator.ButtonA)
	press(ebiten.IsKeyPressed(ebiten.KeyX), emulator.ButtonB)
	press(ebiten.IsKeyPressed(ebiten.KeyEnter), emulator.ButtonStart)
	press(ebiten.IsKeyPressed(ebiten.KeyShiftRight), emulator.ButtonSelect)
	return mask
}

func (a *App) Update() error {
	a.loop.Commands() <- hostloop.Command{Kind: hostloop.CmdSetButtons, Buttons: a.currentButtons()}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
		kind := hostloop.CmdPause
		if !a.paused {
			kind = hostloop.CmdResume
		}
		a.loop.Commands() <- hostloop.Command{Kind: kind}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.loop.Commands() <- hostloop.Command{Kind: hostloop.CmdReset, FastBoot: true}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		a.loop.Commands() <- hostloop.Command{Kind: hostloop.CmdReset, FastBoot: false}
	}

	select {
	case fr := <-a.loop.Frames():
		a.latest = fr
		if len(fr.Audio) > 0 {
			a.audioMu.Lock()
			a.audioBuf = append(a.audioBuf, fr.Audio...)
			a.audioMu.Unlock()
		}
		if a.cfg.PrintSerial && len(fr.SerialOut) > 0 {
			os.Stdout.Write(fr.SerialOut)
		}
	default:
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	if a.latest.Framebuffer != nil {
		rgba := make([]byte, 160*144*4)
		for i, shade := range a.latest.Framebuffer {
			c := shadePalette[shade&0x03]
			rgba[i*4+0], rgba[i*4+1], rgba[i*4+2], rgba[i*4+3] = c.R, c.G, c.B, c.A
		}
		a.tex.WritePixels(rgba)
	}
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outW, outH int) (int, int) { return 160, 144 }
