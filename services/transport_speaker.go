//go:build (linux && cgo) || windows || darwin

package services

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// AudioAvailable indicates whether local audio playback is supported in this build
const AudioAvailable = true

// speakerTransport plays local files through the system audio device
type speakerTransport struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	muted    bool
	loaded   bool
	started  bool

	// incremented on every Load so callbacks of replaced streams are ignored.
	// Read from the speaker goroutine, which must never take mu.
	generation atomic.Uint64
	onEnded    atomic.Pointer[func()]
	onLoaded   atomic.Pointer[func(uri string, duration float64)]
}

// NewSpeakerTransport creates a MediaElement backed by beep's speaker
func NewSpeakerTransport() MediaElement {
	return &speakerTransport{
		sampleRate: beep.SampleRate(44100),
		level:      1,
	}
}

func (s *speakerTransport) OnEnded(fn func()) {
	s.onEnded.Store(&fn)
}

func (s *speakerTransport) OnLoadedMetadata(fn func(uri string, duration float64)) {
	s.onLoaded.Store(&fn)
}

func (s *speakerTransport) initSpeakerLocked() error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Load opens uri (file://path) and prepares it paused
func (s *speakerTransport) Load(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	path := strings.TrimPrefix(uri, "file://")
	file, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	default:
		err = fmt.Errorf("playback of %s files is not supported", filepath.Ext(path))
	}
	if err != nil {
		file.Close()
		return err
	}

	if err := s.initSpeakerLocked(); err != nil {
		streamer.Close()
		return err
	}

	s.streamer = streamer
	s.format = format
	resampled := beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	s.volume = &effects.Volume{Streamer: resampled, Base: 2}
	s.applyVolumeLocked()
	s.ctrl = &beep.Ctrl{Streamer: s.volume, Paused: true}
	s.loaded = true
	s.started = false

	// the player holds its own lock while loading, so report afterwards
	if fn := s.onLoaded.Load(); fn != nil {
		duration := format.SampleRate.D(streamer.Len()).Seconds()
		go (*fn)(uri, duration)
	}
	return nil
}

func (s *speakerTransport) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return fmt.Errorf("nothing loaded")
	}

	if !s.started {
		gen := s.generation.Load()
		speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
			s.ended(gen)
		})))
		s.started = true
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (s *speakerTransport) ended(gen uint64) {
	fn := s.onEnded.Load()
	if gen != s.generation.Load() || fn == nil {
		return
	}
	// Run callback in separate goroutine to avoid deadlock
	// when the callback loads the next track
	go (*fn)()
}

func (s *speakerTransport) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

func (s *speakerTransport) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := s.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if samples >= s.streamer.Len() {
		samples = s.streamer.Len() - 1
	}
	if samples < 0 {
		samples = 0
	}
	return s.streamer.Seek(samples)
}

// Position reports how far into the loaded track playback is, in seconds
func (s *speakerTransport) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos).Seconds()
}

func (s *speakerTransport) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = volume
	s.applyVolumeLocked()
	return nil
}

func (s *speakerTransport) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muted
	s.applyVolumeLocked()
	return nil
}

// applyVolumeLocked maps the linear 0..1 level onto beep's exponential gain
func (s *speakerTransport) applyVolumeLocked() {
	if s.volume == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()

	s.volume.Silent = s.muted || s.level <= 0
	if s.level > 0 {
		s.volume.Volume = math.Log2(s.level)
	}
}

func (s *speakerTransport) stopLocked() {
	s.generation.Add(1)
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.volume = nil
	s.loaded = false
	s.started = false
}
