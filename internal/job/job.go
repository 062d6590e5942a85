// Package job tracks invocations of the external download process: each job
// holds a bounded log of output lines, a set of live listeners, and a terminal
// exit result. The registry is the process-wide owner of all jobs; jobs are
// never evicted while the server runs.
package job

import (
	"time"
)

const (
	// MaxLogLines bounds the per-job log; older lines are evicted so the log
	// always holds the most recent MaxLogLines appended.
	MaxLogLines = 2000

	// ReplayLines is how much recent history a newly attached listener gets
	// before live broadcasts begin.
	ReplayLines = 250

	// listenerBuffer sizes a listener's event channel. It must hold a full
	// replay window plus headroom for live lines; the last slot is reserved
	// for the terminal event so completion is never lost to a slow reader.
	listenerBuffer = 512

	// ExitFailedToStart is the sentinel exit code recorded when the external
	// process never started (or died abnormally without an exit status).
	ExitFailedToStart = -1
)

// Event is a single notification delivered to a listener: either one log line
// or the terminal event. Terminal is always the last event a listener receives.
type Event struct {
	Line     string
	Terminal bool
	ExitCode int
}

// Listener receives a job's events. The channel is closed by the registry
// after the terminal event is delivered.
type Listener chan Event

// NewListener returns a listener channel sized for a full replay window.
func NewListener() Listener {
	return make(Listener, listenerBuffer)
}

// Job is a tracked invocation of the external download process.
type Job struct {
	ID        string
	CreatedAt time.Time
	OutputDir string

	lines     []string
	listeners map[Listener]struct{}
	done      bool
	exitCode  int
}

// Terminal reports whether the job has completed and, if so, its exit code.
func (j *Job) Terminal() (exitCode int, done bool) {
	return j.exitCode, j.done
}

// appendLine adds a line to the bounded log, evicting the oldest entries once
// the cap is exceeded. Caller holds the registry lock.
func (j *Job) appendLine(line string) {
	j.lines = append(j.lines, line)
	if len(j.lines) > MaxLogLines {
		// Compact in place so the backing array does not grow without bound.
		n := copy(j.lines, j.lines[len(j.lines)-MaxLogLines:])
		j.lines = j.lines[:n]
	}
}

// recentLines returns up to n of the most recent retained lines, oldest first.
// Caller holds the registry lock.
func (j *Job) recentLines(n int) []string {
	if len(j.lines) <= n {
		return j.lines
	}
	return j.lines[len(j.lines)-n:]
}
