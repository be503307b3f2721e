// Package hostloop runs an emulator.Machine on its own goroutine, paced
// to the DMG's 59.7275Hz refresh rate, and exposes it to a frontend over
// two channels: commands in, frame results out. No shared mutable state
// crosses the channel boundary. Uses golang.org/x/sync/errgroup for
// structured start/stop of that goroutine.
package hostloop

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fmnoll/gogbcore/internal/emulator"
)

// CommandKind distinguishes the handful of control messages a frontend
// can send; there is no general RPC surface, just load/reset/input/
// pause/resume/snapshot/restore.
type CommandKind int

const (
	CmdLoadROM CommandKind = iota
	CmdReset
	CmdSetButtons
	CmdPause
	CmdResume
	CmdSnapshot
	CmdRestore
)

// Command is one message from the frontend to the running loop.
type Command struct {
	Kind      CommandKind
	ROM       []byte
	FastBoot  bool
	Buttons   byte
	Snapshot  []byte // for CmdRestore
	Result    chan<- []byte // for CmdSnapshot, receives the gob-encoded state
}

// Loop owns the emulator and the goroutine driving it.
type Loop struct {
	machine *emulator.Machine

	commands chan Command
	frames   chan emulator.FrameResult

	paused bool
}

// New builds a Loop around a freshly constructed emulator.Machine. Call
// Run to start driving it; Commands/Frames give the frontend its ends of
// the channels.
func New() *Loop {
	return &Loop{
		machine:  emulator.New(),
		commands: make(chan Command, 8),
		frames:   make(chan emulator.FrameResult, 2),
	}
}

func (l *Loop) Commands() chan<- Command           { return l.commands }
func (l *Loop) Frames() <-chan emulator.FrameResult { return l.frames }

// Machine exposes the underlying emulator instance for operations that
// don't fit the command/frame channel shape, such as battery-RAM
// persistence on shutdown after the frontend's Run call returns.
func (l *Loop) Machine() *emulator.Machine { return l.machine }

// frameInterval is one DMG frame period at the documented 59.7275Hz.
var frameInterval = time.Duration(math.Round(float64(time.Second) / 59.7275))

// Run drives the scheduler until ctx is canceled or the frontend closes
// the command channel. It is meant to be the sole goroutine run by an
// errgroup.Group so a fatal error (there are none today; StepFrame halts
// gracefully instead) propagates through the group's error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	var lastRTCSecond time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-l.commands:
			if !ok {
				return nil
			}
			l.handleCommand(cmd)
		case now := <-ticker.C:
			if l.paused {
				continue
			}
			if lastRTCSecond.IsZero() {
				lastRTCSecond = now
			}
			if elapsed := now.Sub(lastRTCSecond); elapsed >= time.Second {
				l.machine.AdvanceWallClock(int64(elapsed / time.Second))
				lastRTCSecond = now
			}
			result := l.machine.StepFrame()
			select {
			case l.frames <- result:
			default:
				// Frontend is behind; drop this frame's delivery rather than
				// block the scheduler. A dropped channel send here means the
				// frontend missed a paint, not that the emulator skipped a
				// step: it drops paints, never simulation steps.
			}
		}
	}
}

func (l *Loop) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdLoadROM:
		if err := l.machine.Load(cmd.ROM); err == nil {
			l.machine.Reset(cmd.FastBoot)
		}
	case CmdReset:
		l.machine.Reset(cmd.FastBoot)
	case CmdSetButtons:
		l.machine.SetButtons(cmd.Buttons)
	case CmdPause:
		l.paused = true
	case CmdResume:
		l.paused = false
	case CmdSnapshot:
		if cmd.Result != nil {
			data, _ := l.machine.SnapshotBytes()
			cmd.Result <- data
		}
	case CmdRestore:
		_ = l.machine.RestoreBytes(cmd.Snapshot)
	}
}

// RunInGroup starts Run under an errgroup so the caller can wait on it
// alongside other goroutines (e.g. the frontend's own render loop) and
// have a panic or cancellation in one tear down the other.
func RunInGroup(ctx context.Context, g *errgroup.Group, l *Loop) {
	g.Go(func() error { return l.Run(ctx) })
}
