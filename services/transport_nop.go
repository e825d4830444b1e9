//go:build !((linux && cgo) || windows || darwin)

package services

// AudioAvailable indicates whether local audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// nopTransport accepts every command and produces no sound
type nopTransport struct{}

// NewSpeakerTransport returns a silent MediaElement on builds without audio support
func NewSpeakerTransport() MediaElement {
	return nopTransport{}
}

func (nopTransport) Load(uri string) error          { return nil }
func (nopTransport) Play() error                    { return nil }
func (nopTransport) Pause() error                   { return nil }
func (nopTransport) Seek(seconds float64) error     { return nil }
func (nopTransport) SetVolume(volume float64) error { return nil }
func (nopTransport) SetMuted(muted bool) error      { return nil }
