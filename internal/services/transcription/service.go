package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrDownload marks failures fetching the audio before any tool
	// ran; callers treat it like any other transcription failure but
	// it keeps retry decisions readable.
	ErrDownload = errors.New("audio download failed")

	ErrTranscription = errors.New("transcription failed")
)

type Config struct {
	WhisperBinary     string
	FFmpegBinary      string
	Model             string
	SampleOnly        bool
	MaxSampleDuration time.Duration
}

type Result struct {
	Text      string
	Model     string
	IsSampled bool
	Elapsed   time.Duration
}

// CommandRunner shells out to an external tool and returns its combined
// output. Swapped for a fake in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Service struct {
	cfg     Config
	client  httpDoer
	runner  CommandRunner
	logger  *zap.Logger
	tempDir string
	now     func() time.Time
}

type Option func(*Service)

func WithHTTPClient(client httpDoer) Option {
	return func(s *Service) { s.client = client }
}

func WithRunner(runner CommandRunner) Option {
	return func(s *Service) { s.runner = runner }
}

func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

func NewService(cfg Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WhisperBinary == "" {
		cfg.WhisperBinary = "whisper"
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	if cfg.MaxSampleDuration <= 0 {
		cfg.MaxSampleDuration = 120 * time.Second
	}

	s := &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: 2 * time.Minute},
		runner:  execRunner{},
		logger:  logger,
		tempDir: os.TempDir(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranscribeURL downloads the audio to a temp file, optionally trims it
// to a leading sample with ffmpeg, runs whisper over it and returns the
// transcript text. All temp files are removed before returning.
func (s *Service) TranscribeURL(ctx context.Context, audioURL string) (Result, error) {
	if strings.TrimSpace(audioURL) == "" {
		return Result{}, fmt.Errorf("%w: empty audio url", ErrDownload)
	}

	start := s.now()

	audioPath, err := s.download(ctx, audioURL)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = os.Remove(audioPath)
	}()

	fileToTranscribe := audioPath
	sampled := false
	if s.cfg.SampleOnly {
		samplePath, err := s.extractSample(ctx, audioPath)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			_ = os.Remove(samplePath)
		}()
		fileToTranscribe = samplePath
		sampled = true
	}

	text, err := s.runWhisper(ctx, fileToTranscribe)
	if err != nil {
		return Result{}, err
	}

	elapsed := s.now().Sub(start)
	s.logger.Info("transcription complete",
		zap.String("model", s.cfg.Model),
		zap.Bool("sampled", sampled),
		zap.Duration("elapsed", elapsed),
	)

	return Result{
		Text:      text,
		Model:     s.cfg.Model,
		IsSampled: sampled,
		Elapsed:   elapsed,
	}, nil
}

func (s *Service) download(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrDownload, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %s", ErrDownload, resp.Status)
	}

	path := filepath.Join(s.tempDir, "whisper-download-"+uuid.NewString()+extensionFor(resp.Header.Get("Content-Type")))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrDownload, err)
	}

	if _, err := out.ReadFrom(resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: write temp file: %v", ErrDownload, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: close temp file: %v", ErrDownload, err)
	}

	return path, nil
}

func (s *Service) extractSample(ctx context.Context, audioPath string) (string, error) {
	samplePath := filepath.Join(s.tempDir, "whisper-sample-"+uuid.NewString()+filepath.Ext(audioPath))
	seconds := strconv.Itoa(int(s.cfg.MaxSampleDuration / time.Second))

	out, err := s.runner.Run(ctx, s.cfg.FFmpegBinary,
		"-i", audioPath,
		"-t", seconds,
		"-c", "copy",
		samplePath,
		"-y",
	)
	if err != nil {
		return "", fmt.Errorf("%w: extract sample: %v: %s", ErrTranscription, err, truncateOutput(out))
	}

	return samplePath, nil
}

func (s *Service) runWhisper(ctx context.Context, audioPath string) (string, error) {
	out, err := s.runner.Run(ctx, s.cfg.WhisperBinary,
		audioPath,
		"--model", s.cfg.Model,
		"--temperature", "0",
		"--output_dir", s.tempDir,
		"--output_format", "txt",
		"--suppress_blank", "True",
	)
	if err != nil {
		return "", fmt.Errorf("%w: run whisper: %v: %s", ErrTranscription, err, truncateOutput(out))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	transcriptPath := filepath.Join(s.tempDir, base+".txt")

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("%w: read transcript output: %v", ErrTranscription, err)
	}
	_ = os.Remove(transcriptPath)

	return strings.TrimSpace(string(data)), nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "m4a"):
		return ".m4a"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "flac"):
		return ".flac"
	default:
		return ".mp3"
	}
}

func truncateOutput(out []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(out))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
