package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/models"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

const maxDiagnosticLength = 2048

// CommandRunner runs an external process and returns its captured streams.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// YtDlp drives the yt-dlp binary in metadata-only mode.
type YtDlp struct {
	path    string
	timeout time.Duration
	runner  CommandRunner
}

var _ Extractor = (*YtDlp)(nil)

type Option func(*YtDlp)

// WithRunner swaps the process runner, used by tests.
func WithRunner(runner CommandRunner) Option {
	return func(y *YtDlp) {
		y.runner = runner
	}
}

func NewYtDlp(cfg *config.ResolverConfig, opts ...Option) *YtDlp {
	y := &YtDlp{
		path:    cfg.ExtractorPath,
		timeout: cfg.ExtractTimeout,
		runner:  execRunner{},
	}
	if y.path == "" {
		y.path = "yt-dlp"
	}
	if y.timeout <= 0 {
		y.timeout = 30 * time.Second
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Available checks that the binary can be found on PATH.
func (y *YtDlp) Available() error {
	if _, err := exec.LookPath(y.path); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", y.path, err)
	}
	return nil
}

// Args returns the command line used for target.
func (y *YtDlp) Args(target Target) []string {
	args := []string{"--no-warnings", "-j", target.CanonicalURL}
	if target.CookiesPath != "" {
		args = append(args, "--cookies", target.CookiesPath)
	}
	return args
}

func (y *YtDlp) Extract(ctx context.Context, target Target) (*models.RawMetadata, error) {
	runCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := y.runner.Run(runCtx, y.path, y.Args(target)...)
	elapsed := time.Since(start)

	if err != nil {
		diagnostic := truncate(strings.TrimSpace(string(stderr)), maxDiagnosticLength)
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, utils.NewResolutionError(
				utils.KindToolExecution,
				fmt.Sprintf("extraction timed out after %s", y.timeout),
				runCtx.Err(),
			)
		case errors.Is(runCtx.Err(), context.Canceled):
			return nil, utils.NewResolutionError(utils.KindToolExecution, "extraction was cancelled", runCtx.Err())
		default:
			return nil, utils.NewResolutionError(
				utils.KindToolExecution,
				"extraction tool failed",
				fmt.Errorf("%w: %s", err, diagnostic),
			)
		}
	}

	utils.LogDebug(ctx, "Extraction tool finished", utils.Fields{
		"tool":     y.path,
		"duration": elapsed.String(),
		"bytes":    len(stdout),
	})

	return parseMetadata(stdout)
}

type ytdlpDocument struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Extractor string          `json:"extractor"`
	Duration  float64         `json:"duration"`
	Formats   json.RawMessage `json:"formats"`
}

// ytdlpFormat uses pointers because every field may be absent or null.
type ytdlpFormat struct {
	FormatID string   `json:"format_id"`
	VCodec   *string  `json:"vcodec"`
	ACodec   *string  `json:"acodec"`
	Height   *float64 `json:"height"`
	ABR      *float64 `json:"abr"`
	URL      *string  `json:"url"`
}

// parseMetadata reads the first JSON document on stdout. Multi-entry posts
// print one document per line; the first entry is the one resolved.
func parseMetadata(stdout []byte) (*models.RawMetadata, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, malformed(ErrEmptyOutput)
	}

	var doc ytdlpDocument
	if err := json.NewDecoder(bytes.NewReader(trimmed)).Decode(&doc); err != nil {
		return nil, malformed(fmt.Errorf("%w: %v", ErrMalformedOutput, err))
	}

	if len(doc.Formats) == 0 || string(doc.Formats) == "null" {
		return nil, malformed(ErrMissingFormats)
	}

	var formats []ytdlpFormat
	if err := json.Unmarshal(doc.Formats, &formats); err != nil {
		return nil, malformed(fmt.Errorf("%w: %v", ErrMissingFormats, err))
	}

	meta := &models.RawMetadata{
		ID:        doc.ID,
		Title:     doc.Title,
		Extractor: doc.Extractor,
		Duration:  doc.Duration,
		Formats:   make([]models.FormatDescriptor, 0, len(formats)),
	}
	for _, f := range formats {
		meta.Formats = append(meta.Formats, f.descriptor())
	}

	return meta, nil
}

func (f ytdlpFormat) descriptor() models.FormatDescriptor {
	d := models.FormatDescriptor{
		FormatID: f.FormatID,
		HasVideo: codecPresent(f.VCodec),
		HasAudio: codecPresent(f.ACodec),
	}
	if f.URL != nil {
		d.URL = *f.URL
	}
	if f.Height != nil {
		d.Height = mo.Some(int(*f.Height))
	}
	if f.ABR != nil {
		d.AudioBitrate = mo.Some(*f.ABR)
	}
	return d
}

// codecPresent treats absent, null and yt-dlp's "none" sentinel alike.
func codecPresent(codec *string) bool {
	return codec != nil && *codec != "" && *codec != "none"
}

func malformed(err error) error {
	return utils.NewResolutionError(utils.KindMalformedMetadata, "extraction tool returned unusable metadata", err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
