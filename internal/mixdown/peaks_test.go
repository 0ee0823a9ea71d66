package mixdown

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

// writeSteps writes a mono WAV that plays n samples at 0.25, then n at 0.5.
func writeSteps(t *testing.T, dir string, n int) string {
	t.Helper()
	path := filepath.Join(dir, "steps.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Seq(beep.Take(n, level(0.25)), beep.Take(n, level(0.5))), format))
	return path
}

func TestPeaksScalesToLoudestBucket(t *testing.T) {
	path := writeSteps(t, t.TempDir(), 4000)

	got, err := Peaks(path, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 0.5, got[0], 0.01)
	assert.InDelta(t, 0.5, got[1], 0.01)
	assert.InDelta(t, 1.0, got[2], 0.01)
	assert.InDelta(t, 1.0, got[3], 0.01)
}

func TestPeaksMoreBucketsThanSamples(t *testing.T) {
	path := writeSteps(t, t.TempDir(), 2)

	got, err := Peaks(path, 16)
	require.NoError(t, err)
	require.Len(t, got, 16)
	assert.InDelta(t, 0.5, got[0], 0.01)
	assert.InDelta(t, 1.0, got[12], 0.01)
	assert.Zero(t, got[15], "buckets past the last sample stay empty")
}

func TestFetchPeaksFileURL(t *testing.T) {
	path := writeSteps(t, t.TempDir(), 1000)

	got, err := FetchPeaks(t.Context(), "file://"+path, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got[0], 0.01)
	assert.InDelta(t, 1.0, got[1], 0.01)
}

func TestFetchPeaksHTTP(t *testing.T) {
	path := writeSteps(t, t.TempDir(), 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/gen-1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		http.ServeFile(w, r, path)
	}))
	defer srv.Close()

	got, err := FetchPeaks(t.Context(), srv.URL+"/audio/gen-1", 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[1], 0.01)

	_, err = FetchPeaks(t.Context(), srv.URL+"/audio/missing", 2)
	assert.ErrorContains(t, err, "status 404")
}

func TestFetchPeaksRejectsUnknownLocators(t *testing.T) {
	_, err := FetchPeaks(t.Context(), "", 8)
	assert.Error(t, err)
	_, err = FetchPeaks(t.Context(), "ftp://host/a.wav", 8)
	assert.ErrorContains(t, err, "unsupported audio url")
}
