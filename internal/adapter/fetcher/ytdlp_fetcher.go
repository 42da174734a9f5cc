package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"video-quiz/internal/config"
	"video-quiz/internal/domain"
	"video-quiz/internal/logger"

	"go.uber.org/zap"
)

const defaultFilePrefix = "quiz"

var unsafeHintChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// downloadReport is the subset of the yt-dlp JSON report we read
type downloadReport struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Filename           string `json:"filename"`
	LegacyFilename     string `json:"_filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// finalPath returns the path of the file left on disk after post-processing
func (r *downloadReport) finalPath() string {
	for _, d := range r.RequestedDownloads {
		if d.Filepath != "" {
			return d.Filepath
		}
	}
	if r.LegacyFilename != "" {
		return r.LegacyFilename
	}
	return r.Filename
}

// YtDlpFetcher implements domain.AudioFetcher by running yt-dlp
type YtDlpFetcher struct {
	cfg     config.FetcherConfig
	timeout time.Duration
	runner  CommandRunner
}

// NewYtDlpFetcher creates a fetcher writing into cfg.WorkDir. A zero timeout
// leaves the download bounded only by the caller's context.
func NewYtDlpFetcher(cfg config.FetcherConfig, timeout time.Duration, runner CommandRunner) *YtDlpFetcher {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &YtDlpFetcher{cfg: cfg, timeout: timeout, runner: runner}
}

// Fetch downloads the audio track of sourceURL into the working directory.
// The file name is prefixed with hintID and carries the source's own id, so
// concurrent fetches never write to the same path.
func (f *YtDlpFetcher) Fetch(ctx context.Context, sourceURL string, hintID string) (*domain.AudioFile, error) {
	l := logger.Get()

	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, domain.NewInvalidInputError("no URL provided")
	}

	if err := os.MkdirAll(f.cfg.WorkDir, 0o755); err != nil {
		return nil, domain.NewDownloadError("could not create working directory", err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := f.buildArgs(sourceURL, hintID)
	l.Debug("Running media download backend", zap.String("binary", f.cfg.Binary), zap.Strings("args", args))

	started := time.Now()
	stdout, stderr, err := f.runner.Run(ctx, f.cfg.Binary, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("download timed out after %s", f.timeout)
		}
		if msg == "" {
			msg = err.Error()
		}
		l.Warn("Media download failed", zap.String("url", sourceURL), zap.String("stderr", msg), zap.Error(err))
		return nil, domain.NewDownloadError(msg, err)
	}

	var report downloadReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, domain.NewDownloadError("could not parse download report", err)
	}

	path := report.finalPath()
	if path == "" {
		return nil, domain.NewDownloadError("download report did not name an output file", nil)
	}
	path, err = filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, domain.NewDownloadError("could not resolve output path", err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewDownloadError(fmt.Sprintf("downloaded file is missing: %s", path), err)
	}

	l.Info("Media downloaded",
		zap.String("url", sourceURL),
		zap.String("path", path),
		zap.String("title", report.Title),
		zap.Duration("elapsed", time.Since(started)))

	return &domain.AudioFile{Path: path, Title: report.Title}, nil
}

func (f *YtDlpFetcher) buildArgs(sourceURL, hintID string) []string {
	prefix := unsafeHintChars.ReplaceAllString(hintID, "")
	if prefix == "" {
		prefix = defaultFilePrefix
	}
	outputTemplate := filepath.Join(f.cfg.WorkDir, prefix+"_%(id)s.%(ext)s")

	args := []string{
		"--no-playlist",
		"--no-progress",
		"--dump-single-json",
		"--no-simulate",
		"-f", "bestaudio/best",
		"-o", outputTemplate,
	}
	if f.cfg.AudioFormat != "" {
		args = append(args, "-x", "--audio-format", f.cfg.AudioFormat)
	}
	args = append(args, f.cfg.ExtraArgs...)
	// "--" keeps a URL starting with "-" from being read as an option
	return append(args, "--", sourceURL)
}
