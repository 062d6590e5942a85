package download

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytgrab/ytgrab/internal/job"
	"github.com/ytgrab/ytgrab/internal/ytdlp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "url only",
			req:     Request{URL: "https://www.youtube.com/watch?v=f4g1xtyY3uo"},
			wantErr: nil,
		},
		{
			name:    "valid ids only",
			req:     Request{IDs: []string{"f4g1xtyY3uo"}},
			wantErr: nil,
		},
		{
			name:    "neither url nor ids",
			req:     Request{},
			wantErr: ErrMissingURL,
		},
		{
			name:    "only malformed ids",
			req:     Request{IDs: []string{"short", "way-too-long-for-an-id"}},
			wantErr: ErrMissingURL,
		},
		{
			name:    "known cookie browser",
			req:     Request{URL: "https://example.com/v", CookiesFromBrowser: "firefox"},
			wantErr: nil,
		},
		{
			name:    "unknown cookie browser",
			req:     Request{URL: "https://example.com/v", CookiesFromBrowser: "netscape"},
			wantErr: ErrBadCookieSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	const (
		outDir  = "/dl/ytgrab/job1"
		archive = "/dl/ytgrab/archive.txt"
	)

	tests := []struct {
		name        string
		req         Request
		listFile    string
		wantPairs   [][2]string
		wantArgs    []string
		rejectedArg string
	}{
		{
			name: "defaults merge into mp4",
			req:  Request{URL: "https://example.com/v"},
			wantPairs: [][2]string{
				{"--download-archive", archive},
				{"-P", outDir},
				{"-o", outputTemplate},
				{"--merge-output-format", "mp4"},
			},
			wantArgs: []string{"--yes-playlist", "--newline", "--no-warnings", "https://example.com/v"},
		},
		{
			name: "audio extraction",
			req:  Request{URL: "https://example.com/v", MP3: true},
			wantPairs: [][2]string{
				{"--audio-format", "mp3"},
			},
			wantArgs:    []string{"-x"},
			rejectedArg: "--merge-output-format",
		},
		{
			name: "quality ceiling with audio fallback selector",
			req:  Request{URL: "https://example.com/v", Quality: 1080},
			wantPairs: [][2]string{
				{"-f", "bestvideo[height<=1080]+bestaudio/best[height<=1080]"},
				{"--merge-output-format", "mp4"},
			},
		},
		{
			name: "video only with quality",
			req:  Request{URL: "https://example.com/v", VideoOnly: true, Quality: 720},
			wantPairs: [][2]string{
				{"-f", "bestvideo[height<=720]"},
				{"--remux-video", "mp4"},
			},
			rejectedArg: "+bestaudio",
		},
		{
			name: "video only without quality",
			req:  Request{URL: "https://example.com/v", VideoOnly: true},
			wantPairs: [][2]string{
				{"-f", "bestvideo"},
				{"--remux-video", "mp4"},
			},
			rejectedArg: "+bestaudio",
		},
		{
			name:     "bulk mode passes list file instead of url",
			req:      Request{IDs: []string{"f4g1xtyY3uo"}},
			listFile: "/tmp/ids.txt",
			wantPairs: [][2]string{
				{"-a", "/tmp/ids.txt"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := buildArgs(tt.req, outDir, archive, tt.listFile)
			joined := " " + strings.Join(args, " ") + " "

			for _, pair := range tt.wantPairs {
				assert.Contains(t, joined, " "+pair[0]+" "+pair[1]+" ")
			}
			for _, want := range tt.wantArgs {
				assert.Contains(t, args, want)
			}
			if tt.rejectedArg != "" {
				assert.NotContains(t, joined, tt.rejectedArg)
			}
			if tt.listFile != "" {
				assert.NotContains(t, args, tt.req.URL)
			}
		})
	}
}

func TestBuildArgsCookiesArePrepended(t *testing.T) {
	req := Request{URL: "https://example.com/v", CookiesFromBrowser: "chrome"}
	args := buildArgs(req, "/out", "/archive.txt", "")

	require.GreaterOrEqual(t, len(args), 2)
	assert.Equal(t, "--cookies-from-browser", args[0])
	assert.Equal(t, "chrome", args[1])
}

func TestWriteIDListFile(t *testing.T) {
	path, err := writeIDListFile([]string{"f4g1xtyY3uo", "gAnS4WTgeIE"})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"https://www.youtube.com/watch?v=f4g1xtyY3uo\nhttps://www.youtube.com/watch?v=gAnS4WTgeIE\n",
		string(data),
	)
}

// waitTerminal blocks until the job completes or the timeout elapses.
func waitTerminal(t *testing.T, jobs *job.Registry, id string) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if code, done := jobs.Terminal(id); done {
			return code
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach terminal state")
	return 0
}

func TestStartMissingURLFailsWithoutJob(t *testing.T) {
	jobs := job.NewRegistry(discardLogger())
	o := NewOrchestrator(ytdlp.New("yt-dlp", discardLogger()), jobs, t.TempDir(), discardLogger())

	_, err := o.Start(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingURL)
}

func TestStartLaunchFailureIsObservableViaJob(t *testing.T) {
	jobs := job.NewRegistry(discardLogger())
	tool := ytdlp.New(filepath.Join(t.TempDir(), "no-such-binary"), discardLogger())
	o := NewOrchestrator(tool, jobs, t.TempDir(), discardLogger())

	res, err := o.Start(context.Background(), Request{URL: "https://example.com/v"})
	require.NoError(t, err, "launch failure must still return the job")
	require.NotEmpty(t, res.JobID)
	assert.Equal(t, 1, res.Count)

	code := waitTerminal(t, jobs, res.JobID)
	assert.Equal(t, job.ExitFailedToStart, code)

	lines := jobs.Lines(res.JobID)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "failed to start")
}

func TestStartBulkModeReportsCountAndCleansUp(t *testing.T) {
	jobs := job.NewRegistry(discardLogger())
	tool := ytdlp.New(filepath.Join(t.TempDir(), "no-such-binary"), discardLogger())
	base := t.TempDir()
	o := NewOrchestrator(tool, jobs, base, discardLogger())

	res, err := o.Start(context.Background(), Request{
		IDs: []string{"f4g1xtyY3uo", "gAnS4WTgeIE", "bad-id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count, "only valid ids counted")
	assert.Equal(t, filepath.Join(base, Namespace, res.JobID), res.DownloadsDir)

	waitTerminal(t, jobs, res.JobID)

	// The launch failed, so the id list temp file must already be removed.
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "ytgrab-ids-*.txt"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStartRunsProcessAndStreamsOutput(t *testing.T) {
	jobs := job.NewRegistry(discardLogger())
	// Any line-producing executable exercises the pipeline; /bin/echo ignores
	// the yt-dlp flags and exits zero.
	tool := ytdlp.New("/bin/echo", discardLogger())
	o := NewOrchestrator(tool, jobs, t.TempDir(), discardLogger())

	res, err := o.Start(context.Background(), Request{URL: "https://example.com/v"})
	require.NoError(t, err)

	code := waitTerminal(t, jobs, res.JobID)
	assert.Equal(t, 0, code)

	lines := jobs.Lines(res.JobID)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "https://example.com/v")
}

func TestArchivePathScopedToBaseDir(t *testing.T) {
	o := NewOrchestrator(nil, nil, "/media", discardLogger())
	assert.Equal(t, filepath.Join("/media", Namespace, "archive.txt"), o.ArchivePath())
}
