package mixdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
)

// Peaks reduces the audio file at path to buckets levels in [0, 1], scaled
// so the loudest bucket is 1.
func Peaks(path string, buckets int) ([]float64, error) {
	s, _, err := decode(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return peaks(s, buckets), nil
}

// FetchPeaks is Peaks for an audio locator: a file:// URL from the local
// store or an http(s) URL served by the voice server.
func FetchPeaks(ctx context.Context, locator string, buckets int) ([]float64, error) {
	if locator == "" {
		return nil, errors.New("no audio for generation")
	}
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parse audio url: %w", err)
	}
	switch u.Scheme {
	case "file", "":
		return Peaks(u.Path, buckets)
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported audio url %q", locator)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch audio: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	isMP3 := strings.EqualFold(path.Ext(u.Path), ".mp3") ||
		strings.Contains(resp.Header.Get("Content-Type"), "mpeg")
	s, _, err := decodeStream(io.NopCloser(bytes.NewReader(data)), isMP3)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	defer s.Close()
	return peaks(s, buckets), nil
}

func peaks(s beep.StreamSeeker, buckets int) []float64 {
	total := s.Len()
	if buckets <= 0 || total <= 0 {
		return nil
	}
	out := make([]float64, buckets)
	buf := make([][2]float64, 512)
	pos := 0
	for {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			b := min(buckets-1, pos*buckets/total)
			out[b] = max(out[b], math.Abs(smp[0]), math.Abs(smp[1]))
			pos++
		}
		if !ok || n == 0 {
			break
		}
	}

	var top float64
	for _, v := range out {
		top = max(top, v)
	}
	if top > 0 {
		for i := range out {
			out[i] /= top
		}
	}
	return out
}
