package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

type audioProps struct {
	duration   float64 // seconds
	sampleRate int
}

// probeAudio decodes just enough of the stream to learn its length.
// Only formats with a pure-Go beep decoder are supported.
func probeAudio(filePath string) (audioProps, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return audioProps{}, err
	}
	defer file.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	default:
		return audioProps{}, fmt.Errorf("no decoder for %s", filepath.Ext(filePath))
	}
	if err != nil {
		return audioProps{}, err
	}
	defer streamer.Close()

	length := streamer.Len()
	if length <= 0 || format.SampleRate <= 0 {
		return audioProps{}, fmt.Errorf("stream length unknown")
	}

	return audioProps{
		duration:   format.SampleRate.D(length).Seconds(),
		sampleRate: int(format.SampleRate),
	}, nil
}
