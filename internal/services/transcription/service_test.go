package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeRunner records commands and writes the transcript file whisper
// would have produced.
type fakeRunner struct {
	tempDir    string
	transcript string
	calls      [][]string
	failOn     string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	if f.failOn != "" && strings.Contains(name, f.failOn) {
		return []byte("tool exploded"), errors.New("exit status 1")
	}

	if strings.Contains(name, "ffmpeg") {
		// output path is the second to last argument (before -y)
		out := args[len(args)-2]
		return nil, os.WriteFile(out, []byte("sampled"), 0o600)
	}

	// whisper: write <base>.txt next to the configured output dir
	audioPath := args[0]
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	path := filepath.Join(f.tempDir, base+".txt")
	return nil, os.WriteFile(path, []byte(f.transcript+"\n"), 0o600)
}

func newTestServer(t *testing.T, status int, contentType string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("fake audio bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribeURLFullFile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{tempDir: dir, transcript: "hello from the song"}
	srv := newTestServer(t, http.StatusOK, "audio/mpeg")

	svc := NewService(Config{Model: "base"}, zap.NewNop(),
		WithRunner(runner),
		WithTempDir(dir),
	)

	res, err := svc.TranscribeURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("TranscribeURL: %v", err)
	}
	if res.Text != "hello from the song" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.IsSampled {
		t.Error("IsSampled = true for full-file run")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("calls = %d, want 1 (whisper only)", len(runner.calls))
	}
	if runner.calls[0][0] != "whisper" {
		t.Errorf("first call = %v, want whisper", runner.calls[0])
	}
}

func TestTranscribeURLSampleOnly(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{tempDir: dir, transcript: "sampled text"}
	srv := newTestServer(t, http.StatusOK, "audio/wav")

	svc := NewService(Config{
		Model:             "base",
		SampleOnly:        true,
		MaxSampleDuration: 90 * time.Second,
	}, zap.NewNop(), WithRunner(runner), WithTempDir(dir))

	res, err := svc.TranscribeURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("TranscribeURL: %v", err)
	}
	if !res.IsSampled {
		t.Error("IsSampled = false, want true")
	}
	if len(runner.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (ffmpeg then whisper)", len(runner.calls))
	}
	ffmpeg := runner.calls[0]
	if ffmpeg[0] != "ffmpeg" {
		t.Errorf("first call = %v, want ffmpeg", ffmpeg)
	}
	found := false
	for i, arg := range ffmpeg {
		if arg == "-t" && i+1 < len(ffmpeg) && ffmpeg[i+1] == "90" {
			found = true
		}
	}
	if !found {
		t.Errorf("ffmpeg args missing -t 90: %v", ffmpeg)
	}
	if runner.calls[1][0] != "whisper" {
		t.Errorf("second call = %v, want whisper", runner.calls[1])
	}
}

func TestTranscribeURLDownloadError(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{tempDir: dir}
	srv := newTestServer(t, http.StatusNotFound, "audio/mpeg")

	svc := NewService(Config{}, zap.NewNop(), WithRunner(runner), WithTempDir(dir))

	_, err := svc.TranscribeURL(context.Background(), srv.URL)
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("error = %v, want ErrDownload", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("no tool should run after a failed download, got %v", runner.calls)
	}
}

func TestTranscribeURLWhisperFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{tempDir: dir, failOn: "whisper"}
	srv := newTestServer(t, http.StatusOK, "audio/mpeg")

	svc := NewService(Config{}, zap.NewNop(), WithRunner(runner), WithTempDir(dir))

	_, err := svc.TranscribeURL(context.Background(), srv.URL)
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("error = %v, want ErrTranscription", err)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"audio/wav":   ".wav",
		"audio/x-m4a": ".m4a",
		"audio/ogg":   ".ogg",
		"audio/flac":  ".flac",
		"audio/mpeg":  ".mp3",
		"":            ".mp3",
	}
	for contentType, want := range cases {
		if got := extensionFor(contentType); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", contentType, got, want)
		}
	}
}
