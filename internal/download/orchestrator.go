// Package download turns an accepted download request into a running yt-dlp
// process wired into the job registry: argument construction, bulk id-list
// temp files, output stream framing, and guaranteed cleanup on every exit
// path.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/ytgrab/ytgrab/internal/job"
	"github.com/ytgrab/ytgrab/internal/ytdlp"
)

// Namespace is the directory segment under the base downloads location that
// holds per-job output directories and the download archive.
const Namespace = "ytgrab"

// outputTemplate encodes upload date, title, and video id into the artifact
// filename.
const outputTemplate = "%(upload_date)s - %(title)s [%(id)s].%(ext)s"

var (
	// ErrMissingURL is returned when a request carries neither a URL nor any
	// valid video id.
	ErrMissingURL = errors.New("missing url")

	// ErrBadCookieSource is returned for a cookie browser outside the
	// supported set.
	ErrBadCookieSource = errors.New("unsupported cookiesFromBrowser value")
)

// cookieBrowsers is the fixed set of browsers yt-dlp can extract cookies from.
var cookieBrowsers = map[string]struct{}{
	"brave":    {},
	"chrome":   {},
	"chromium": {},
	"edge":     {},
	"firefox":  {},
	"opera":    {},
	"safari":   {},
	"vivaldi":  {},
}

// Request describes one download job. IDs take precedence over URL when both
// are present and at least one id is valid.
type Request struct {
	URL                string
	IDs                []string
	Quality            int
	MP3                bool
	VideoOnly          bool
	CookiesFromBrowser string
}

// Result is the accept response for a started job.
type Result struct {
	JobID        string
	Count        int
	DownloadsDir string
}

// Orchestrator builds and launches download processes against the registry.
type Orchestrator struct {
	tool    *ytdlp.Tool
	jobs    *job.Registry
	baseDir string
	logger  *slog.Logger
}

// NewOrchestrator wires the orchestrator to its collaborators. baseDir is the
// configured base downloads location.
func NewOrchestrator(tool *ytdlp.Tool, jobs *job.Registry, baseDir string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{tool: tool, jobs: jobs, baseDir: baseDir, logger: logger}
}

// ArchivePath is where the de-duplication archive file lives.
func (o *Orchestrator) ArchivePath() string {
	return filepath.Join(o.baseDir, Namespace, "archive.txt")
}

// jobDir is the per-job output directory.
func (o *Orchestrator) jobDir(jobID string) string {
	return filepath.Join(o.baseDir, Namespace, jobID)
}

// validIDs filters the request's id list down to well-formed video ids.
func validIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if ytdlp.IsVideoID(id) {
			out = append(out, id)
		}
	}
	return out
}

// Validate checks the request without side effects.
func (r Request) Validate() error {
	if r.URL == "" && len(validIDs(r.IDs)) == 0 {
		return ErrMissingURL
	}
	if r.CookiesFromBrowser != "" {
		if _, ok := cookieBrowsers[r.CookiesFromBrowser]; !ok {
			return fmt.Errorf("%w: %q", ErrBadCookieSource, r.CookiesFromBrowser)
		}
	}
	return nil
}

// buildArgs constructs the yt-dlp argument list for a request. listFile is
// the bulk id-list file ("" for single-URL mode).
func buildArgs(req Request, outDir, archivePath, listFile string) []string {
	var args []string

	if req.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", req.CookiesFromBrowser)
	}

	args = append(args,
		"--yes-playlist",
		"--newline",
		"--no-warnings",
		"--download-archive", archivePath,
		"-P", outDir,
		"-o", outputTemplate,
	)

	switch {
	case req.MP3:
		args = append(args, "-x", "--audio-format", "mp3")
	case req.VideoOnly:
		selector := "bestvideo"
		if req.Quality > 0 {
			selector = fmt.Sprintf("bestvideo[height<=%d]", req.Quality)
		}
		args = append(args, "-f", selector, "--remux-video", "mp4")
	case req.Quality > 0:
		selector := fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]",
			req.Quality, req.Quality)
		args = append(args, "-f", selector, "--merge-output-format", "mp4")
	default:
		args = append(args, "--merge-output-format", "mp4")
	}

	if listFile != "" {
		args = append(args, "-a", listFile)
	} else {
		args = append(args, req.URL)
	}
	return args
}

// writeIDListFile writes one canonical watch URL per id to a private temp
// file and returns its path. The caller owns removal.
func writeIDListFile(ids []string) (string, error) {
	f, err := os.CreateTemp("", "ytgrab-ids-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create id list file: %w", err)
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(f, ytdlp.WatchURL(id)); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to write id list file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write id list file: %w", err)
	}
	return f.Name(), nil
}

// Start validates the request, creates a job, launches the process, and wires
// its output into the registry. A launch failure is not an error here: the
// job is returned with the failure recorded in its log and the terminal
// sentinel set, so the caller can observe it over the event stream.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := validIDs(req.IDs)
	count := 1
	if len(ids) > 0 {
		count = len(ids)
	}

	jobID := o.jobs.Create()
	outDir := o.jobDir(jobID)
	// Best-effort: a failure here surfaces later through the process's own
	// output and exit code.
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		o.logger.Warn("Failed to create job output directory",
			slog.String("job_id", jobID),
			slog.String("dir", outDir),
			slog.String("error", err.Error()),
		)
	}
	o.jobs.SetOutputDir(jobID, outDir)

	listFile := ""
	if len(ids) > 0 {
		var err error
		listFile, err = writeIDListFile(ids)
		if err != nil {
			o.jobs.AppendLine(jobID, "failed to prepare id list: "+err.Error())
			o.jobs.Complete(jobID, job.ExitFailedToStart)
			return &Result{JobID: jobID, Count: count, DownloadsDir: outDir}, nil
		}
	}

	// The temp file must go away exactly once, on every exit path.
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if listFile != "" {
				if err := os.Remove(listFile); err != nil {
					o.logger.Warn("Failed to remove id list file",
						slog.String("file", listFile),
						slog.String("error", err.Error()),
					)
				}
			}
		})
	}

	args := buildArgs(req, outDir, o.ArchivePath(), listFile)
	o.launch(jobID, args, cleanup)

	return &Result{JobID: jobID, Count: count, DownloadsDir: outDir}, nil
}

// launch starts the process and supervises it: both pipes are framed into the
// job log, and exit (or failure to start) transitions the job to terminal.
func (o *Orchestrator) launch(jobID string, args []string, cleanup func()) {
	// Detached from the request context: a job runs to natural completion
	// after the accept response is sent.
	cmd := o.tool.Command(context.Background(), args...)

	failStart := func(err error) {
		o.jobs.AppendLine(jobID, "failed to start yt-dlp: "+err.Error())
		cleanup()
		o.jobs.Complete(jobID, job.ExitFailedToStart)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		failStart(err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		failStart(err)
		return
	}

	if err := cmd.Start(); err != nil {
		failStart(err)
		return
	}

	o.logger.Info("Download process started",
		slog.String("job_id", jobID),
		slog.Int("pid", cmd.Process.Pid),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go o.pump(jobID, stdout, &wg)
	go o.pump(jobID, stderr, &wg)

	go func() {
		// Both pipes must drain before Wait closes them.
		wg.Wait()
		err := cmd.Wait()
		code := 0
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				o.jobs.AppendLine(jobID, "yt-dlp error: "+err.Error())
				code = job.ExitFailedToStart
			}
		}
		cleanup()
		o.jobs.Complete(jobID, code)
	}()
}

// pump reads one process stream chunk by chunk, framing it into lines that
// are appended (and broadcast) in arrival order.
func (o *Orchestrator) pump(jobID string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	framer := job.NewLineFramer()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, line := range framer.Push(string(buf[:n])) {
				o.jobs.AppendLine(jobID, line)
			}
		}
		if err != nil {
			if line, ok := framer.Flush(); ok {
				o.jobs.AppendLine(jobID, line)
			}
			return
		}
	}
}
