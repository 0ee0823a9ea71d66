// Package mixdown renders a story's clips into a single WAV file. Only the
// local store uses it; the voice server exports on its own.
package mixdown

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// Format is the export format: 44.1kHz stereo 16-bit.
var Format = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// Clip is one audio file placed on the story clock.
type Clip struct {
	Path    string
	StartMs int64
}

// Render mixes clips at their start offsets and encodes the result to w.
// Overlapping clips are summed.
func Render(w io.WriteSeeker, clips []Clip) error {
	var (
		streams []beep.Streamer
		total   int
	)
	for _, c := range clips {
		s, format, err := decode(c.Path)
		if err != nil {
			return fmt.Errorf("decode %s: %w", filepath.Base(c.Path), err)
		}
		defer s.Close()

		offset := Format.SampleRate.N(time.Duration(c.StartMs) * time.Millisecond)
		length := int(float64(s.Len()) * float64(Format.SampleRate) / float64(format.SampleRate))
		total = max(total, offset+length)

		var src beep.Streamer = s
		if format.SampleRate != Format.SampleRate {
			src = beep.Resample(3, format.SampleRate, Format.SampleRate, s)
		}
		streams = append(streams, beep.Seq(beep.Silence(offset), src))
	}

	slog.Debug("Rendering mixdown", "clips", len(clips), "samples", total)
	mixed := beep.Take(total, beep.Seq(beep.Mix(streams...), beep.Silence(-1)))
	if err := wav.Encode(w, mixed, Format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// Duration returns the playing time of an audio file in seconds.
func Duration(path string) (float64, error) {
	s, format, err := decode(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()).Seconds(), nil
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return decodeStream(f, strings.EqualFold(filepath.Ext(path), ".mp3"))
}

// decodeStream takes ownership of rc.
func decodeStream(rc io.ReadCloser, isMP3 bool) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	if isMP3 {
		s, format, err = mp3.Decode(rc)
	} else {
		s, format, err = wav.Decode(rc)
	}
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, err
	}
	return s, format, nil
}
