package services

import (
	"fmt"
	"math"
	"math/rand"
	"resonance/types"
	"slices"
	"sync"
	"time"
)

// MediaElement is the playback transport. It plays one source at a time.
type MediaElement interface {
	Load(uri string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
}

// EndNotifier is implemented by transports that report the end of a track
type EndNotifier interface {
	OnEnded(fn func())
}

// MetadataNotifier is implemented by transports that learn a track's length
// once it is decoded. fn receives the loaded uri and its duration in seconds.
type MetadataNotifier interface {
	OnLoadedMetadata(fn func(uri string, duration float64))
}

// Positioner is implemented by transports that can report the playback position
type Positioner interface {
	Position() float64
}

// PlayerStatus is a snapshot of the playback state
type PlayerStatus struct {
	Current     *types.Track     `json:"current"`
	Index       int              `json:"index"`
	QueueLength int              `json:"queueLength"`
	Playing     bool             `json:"playing"`
	Shuffle     bool             `json:"shuffle"`
	Repeat      types.RepeatMode `json:"repeat"`
	Volume      float64          `json:"volume"`
	Muted       bool             `json:"muted"`
	Position    float64          `json:"position"`
	Duration    float64          `json:"duration"`
	Elapsed     string           `json:"elapsed"`
	Total       string           `json:"total"`
}

// volumeStep is the change applied by VolumeUp and VolumeDown
const volumeStep = 0.1

// Player drives a MediaElement through a queue of tracks
type Player struct {
	mu sync.Mutex

	media MediaElement
	rng   *rand.Rand

	queue   []types.Track
	index   int // -1 when nothing is selected
	current *types.Track

	playing  bool
	shuffle  bool
	repeat   types.RepeatMode
	volume   float64
	muted    bool
	position float64
	duration float64
}

// NewPlayer creates a player that restores volume, shuffle and repeat from settings
func NewPlayer(media MediaElement, settings types.Settings) *Player {
	p := &Player{
		media:   media,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		queue:   []types.Track{},
		index:   -1,
		shuffle: settings.Shuffle,
		repeat:  settings.Repeat,
		volume:  clampVolume(settings.Volume),
	}
	if !p.repeat.Valid() {
		p.repeat = types.RepeatNone
	}

	_ = media.SetVolume(p.volume)
	if n, ok := media.(EndNotifier); ok {
		n.OnEnded(p.HandleEnded)
	}
	if n, ok := media.(MetadataNotifier); ok {
		n.OnLoadedMetadata(p.HandleLoadedMetadata)
	}
	return p
}

// SetRandSource replaces the shuffle randomness, for deterministic tests
func (p *Player) SetRandSource(src rand.Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng = rand.New(src)
}

// SetQueue replaces the current playlist. The selected track keeps playing and
// its index follows it into the new queue.
func (p *Player) SetQueue(tracks []types.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = slices.Clone(tracks)
	p.index = -1
	if p.current != nil {
		p.index = slices.IndexFunc(p.queue, func(t types.Track) bool { return t.ID == p.current.ID })
	}
}

// PlayIndex loads the queue entry at index and starts it
func (p *Player) PlayIndex(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.queue) {
		return ErrIndexOutOfRange
	}
	return p.loadLocked(index, true)
}

// PlayTrack starts the queue entry with the given track id
func (p *Player) PlayTrack(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := slices.IndexFunc(p.queue, func(t types.Track) bool { return t.ID == id })
	if index < 0 {
		return ErrTrackNotFound
	}
	return p.loadLocked(index, true)
}

// TogglePlayPause pauses a playing track or resumes a paused one
func (p *Player) TogglePlayPause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoTrackSelected
	}
	if p.playing {
		return p.pauseLocked()
	}
	return p.playLocked()
}

// Play resumes the selected track
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoTrackSelected
	}
	return p.playLocked()
}

// Pause pauses playback
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoTrackSelected
	}
	return p.pauseLocked()
}

// Next moves to the following track, or a random one in shuffle mode
func (p *Player) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextLocked()
}

// Previous moves to the preceding track, or a random one in shuffle mode
func (p *Player) Previous() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return ErrQueueEmpty
	}

	var index int
	if p.shuffle {
		index = p.rng.Intn(len(p.queue))
	} else if p.index > 0 {
		index = p.index - 1
	} else {
		index = len(p.queue) - 1
	}
	return p.loadLocked(index, true)
}

// HandleEnded reacts to the transport finishing the current track
func (p *Player) HandleEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}

	switch p.repeat {
	case types.RepeatOne:
		p.position = 0
		_ = p.media.Seek(0)
		_ = p.playLocked()
	case types.RepeatAll:
		if len(p.queue) == 0 {
			p.playing = false
			return
		}
		index := p.index + 1
		if index >= len(p.queue) {
			index = 0
		}
		_ = p.loadLocked(index, true)
	default:
		if p.index >= 0 && p.index < len(p.queue)-1 {
			_ = p.nextLocked()
		} else {
			// Stop playing at the end
			p.playing = false
		}
	}
}

// HandleLoadedMetadata records the decoded duration of uri. Reports for a
// track that is no longer current are ignored.
func (p *Player) HandleLoadedMetadata(uri string, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || trackURI(*p.current) != uri || duration <= 0 {
		return
	}
	p.duration = duration
}

// Seek jumps to seconds, clamped to the current track. Without a known
// duration it does nothing.
func (p *Player) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoTrackSelected
	}
	if p.duration <= 0 {
		return nil
	}

	seconds = math.Max(0, math.Min(seconds, p.duration))
	if err := p.media.Seek(seconds); err != nil {
		return err
	}
	p.position = seconds
	return nil
}

// SeekPercent jumps to a fraction (0..1) of the current track
func (p *Player) SeekPercent(fraction float64) error {
	p.mu.Lock()
	duration := p.duration
	p.mu.Unlock()

	fraction = math.Max(0, math.Min(1, fraction))
	return p.Seek(fraction * duration)
}

// SetShuffle turns shuffle mode on or off
func (p *Player) SetShuffle(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffle = on
}

// SetRepeat switches to mode; unknown modes are rejected
func (p *Player) SetRepeat(mode types.RepeatMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown repeat mode %q", mode)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
	return nil
}

// ToggleShuffle flips shuffle mode and returns the new state
func (p *Player) ToggleShuffle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffle = !p.shuffle
	return p.shuffle
}

// ToggleRepeat cycles none -> all -> one and returns the new mode
func (p *Player) ToggleRepeat() types.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = p.repeat.Next()
	return p.repeat
}

// SetVolume sets the volume (clamped to 0..1) and unmutes
func (p *Player) SetVolume(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(volume)
	p.muted = false
	if err := p.media.SetVolume(p.volume); err != nil {
		return err
	}
	return p.media.SetMuted(false)
}

// AdjustVolume changes the volume by delta, clamped to 0..1
func (p *Player) AdjustVolume(delta float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(p.volume + delta)
	return p.media.SetVolume(p.volume)
}

// VolumeUp raises the volume by one step
func (p *Player) VolumeUp() error {
	return p.AdjustVolume(volumeStep)
}

// VolumeDown lowers the volume by one step
func (p *Player) VolumeDown() error {
	return p.AdjustVolume(-volumeStep)
}

// ToggleMute flips the mute flag and returns the new state
func (p *Player) ToggleMute() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = !p.muted
	return p.muted, p.media.SetMuted(p.muted)
}

// Status returns a snapshot of the playback state
func (p *Player) Status() PlayerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pos, ok := p.media.(Positioner); ok && p.current != nil {
		p.position = pos.Position()
	}

	status := PlayerStatus{
		Index:       p.index,
		QueueLength: len(p.queue),
		Playing:     p.playing,
		Shuffle:     p.shuffle,
		Repeat:      p.repeat,
		Volume:      p.volume,
		Muted:       p.muted,
		Position:    p.position,
		Duration:    p.duration,
		Elapsed:     FormatTime(p.position),
		Total:       FormatTime(p.duration),
	}
	if p.current != nil {
		current := *p.current
		status.Current = &current
	}
	return status
}

// Stop halts playback and forgets the queue and the current track
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.media.Pause()
	p.queue = []types.Track{}
	p.index = -1
	p.current = nil
	p.playing = false
	p.position = 0
	p.duration = 0
	return err
}

func (p *Player) nextLocked() error {
	if len(p.queue) == 0 {
		return ErrQueueEmpty
	}

	var index int
	if p.shuffle {
		index = p.rng.Intn(len(p.queue))
	} else {
		index = (p.index + 1) % len(p.queue)
	}
	return p.loadLocked(index, true)
}

// loadLocked selects queue[index], hands it to the transport and optionally plays it
func (p *Player) loadLocked(index int, autoPlay bool) error {
	track := p.queue[index]
	p.index = index
	p.current = &track
	p.position = 0
	p.duration = track.Duration

	if err := p.media.Load(trackURI(track)); err != nil {
		p.playing = false
		return err
	}
	if autoPlay {
		return p.playLocked()
	}
	return nil
}

func (p *Player) playLocked() error {
	if err := p.media.Play(); err != nil {
		p.playing = false
		return err
	}
	p.playing = true
	return nil
}

func (p *Player) pauseLocked() error {
	if err := p.media.Pause(); err != nil {
		return err
	}
	p.playing = false
	return nil
}

func trackURI(track types.Track) string {
	return "file://" + track.Path
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return types.DefaultVolume
	}
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}
