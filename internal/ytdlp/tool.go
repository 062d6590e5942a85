// Package ytdlp wraps the external yt-dlp binary: locating it, building
// commands against it, and running the short read-only probes (version,
// metadata, playlist enumeration) the API exposes. The binary is a black box;
// this package only frames its argument and output conventions.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrLaunch wraps failures to start the external binary (missing, not
// executable, bad path override).
var ErrLaunch = errors.New("cannot spawn yt-dlp")

// EnvPath is the environment variable that overrides binary discovery.
const EnvPath = "YTDLP_PATH"

// candidateNames are tried with exec.LookPath when no override is given.
var candidateNames = []string{"yt-dlp", "yt-dlp_macos", "yt-dlp.exe", "youtube-dl"}

// Tool runs the external downloader binary.
type Tool struct {
	Bin    string
	logger *slog.Logger
}

// New creates a Tool around a resolved binary path. The path is not verified
// here; Version / the doctor endpoint report whether it actually runs.
func New(bin string, logger *slog.Logger) *Tool {
	return &Tool{Bin: bin, logger: logger}
}

// Resolve picks the binary path: the override if non-empty, else the first
// candidate name found on PATH, else the plain default name (which will fail
// at spawn time and be reported by the doctor probe).
func Resolve(override string) string {
	if override != "" {
		return override
	}
	for _, name := range candidateNames {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return candidateNames[0]
}

// Command builds an exec.Cmd for the binary with the given arguments.
func (t *Tool) Command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, t.Bin, args...)
}

// run executes the binary and captures both streams separately.
func (t *Tool) run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	cmd := t.Command(ctx, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	t.logger.Debug("Running yt-dlp",
		slog.String("bin", t.Bin),
		slog.String("args", strings.Join(args, " ")),
	)

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Version runs `--version` as a health probe and returns the reported
// version string.
func (t *Tool) Version(ctx context.Context) (string, error) {
	out, _, err := t.run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrLaunch, t.Bin, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Info fetches metadata for a single URL: title, id, the distinct available
// video heights (descending), and the audio-extraction capability flag.
func (t *Tool) Info(ctx context.Context, url string) (*VideoInfo, error) {
	out, stderr, err := t.run(ctx, "-J", "--no-warnings", "--no-playlist", url)
	if err != nil {
		if len(stderr) > 0 {
			return nil, fmt.Errorf("yt-dlp info failed: %s", firstLine(stderr))
		}
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return parseInfo(out)
}

// List enumerates a playlist or channel without downloading. Each stdout line
// is one JSON object; malformed lines and entries without a valid 11-character
// video id are skipped.
func (t *Tool) List(ctx context.Context, url string) ([]PlaylistEntry, error) {
	out, stderr, err := t.run(ctx, "--flat-playlist", "--dump-json", "--no-warnings", url)
	if err != nil && len(out) == 0 {
		if len(stderr) > 0 {
			return nil, fmt.Errorf("yt-dlp list failed: %s", firstLine(stderr))
		}
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return ParsePlaylistLines(strings.Split(string(out), "\n")), nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
