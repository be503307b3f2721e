package frontend

import (
	"encoding/binary"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const sampleRate = 44100

// apuStream implements io.Reader by draining the int16 stereo samples
// Update() appends from each FrameResult, converting them to the
// little-endian byte stream ebiten's audio.Player expects. Today the APU
// produces silence (see internal/apu), so this exists to keep the
// playback pipeline wired for when channel synthesis lands.
type apuStream struct {
	app *App
}

func (s *apuStream) Read(p []byte) (int, error) {
	want := len(p) / 2
	s.app.audioMu.Lock()
	n := want
	if n > len(s.app.audioBuf) {
		n = len(s.app.audioBuf)
	}
	samples := append([]int16(nil), s.app.audioBuf[:n]...)
	s.app.audioBuf = s.app.audioBuf[n:]
	s.app.audioMu.Unlock()

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(samples[i]))
	}
	for i := n; i < want; i++ {
		binary.LittleEndian.PutUint16(p[i*2:], 0)
	}
	return want * 2, nil
}

// NewAudioPlayer wires an ebiten audio.Player to the App's sample stream.
// Callers run this once after NewApp; it is optional, since a headless
// run never needs it.
func NewAudioPlayer(a *App) (*audio.Player, error) {
	ctx := audio.NewContext(sampleRate)
	return ctx.NewPlayer(&apuStream{app: a})
}
