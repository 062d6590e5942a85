package job

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownJob is returned when an operation references a job id that was
// never created by this registry.
var ErrUnknownJob = errors.New("unknown job")

// Registry is the in-memory job table. All job-state mutation (line appends,
// listener attach/detach, terminal transition) is serialized through its lock,
// so broadcast order matches append order and the terminal event is always
// delivered last.
type Registry struct {
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// Create allocates a fresh job and returns its id. Never fails; ids are
// random UUIDs and are not reused within the process lifetime.
func (r *Registry) Create() string {
	j := &Job{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		listeners: make(map[Listener]struct{}),
	}

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()

	r.logger.Info("Job created", slog.String("job_id", j.ID))
	return j.ID
}

// SetOutputDir records where the job's process writes its artifacts.
func (r *Registry) SetOutputDir(id, dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.OutputDir = dir
	}
}

// OutputDir returns the job's output directory, or ok=false for an unknown id.
func (r *Registry) OutputDir(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return "", false
	}
	return j.OutputDir, true
}

// AppendLine appends one output line to the job's log and broadcasts it to
// every attached listener. Unknown ids are ignored: process pipe callbacks can
// race job cleanup and must not fail.
func (r *Registry) AppendLine(id, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.done {
		return
	}

	j.appendLine(line)
	for l := range j.listeners {
		sendLine(l, line)
	}
}

// Complete marks the job terminal with the given exit code, delivers the
// terminal event to every attached listener, and detaches them all. The
// transition happens at most once; later calls are ignored, as are unknown ids.
func (r *Registry) Complete(id string, exitCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.done {
		return
	}

	j.done = true
	j.exitCode = exitCode
	for l := range j.listeners {
		sendTerminal(l, exitCode)
		delete(j.listeners, l)
	}

	r.logger.Info("Job completed",
		slog.String("job_id", id),
		slog.Int("exit_code", exitCode),
	)
}

// Attach subscribes a listener to the job's event stream. If the job is
// already terminal the listener synchronously receives only the terminal
// event and is not registered. Otherwise the most recent ReplayLines retained
// lines are replayed, in order, before the listener joins live broadcasts.
func (r *Registry) Attach(id string, l Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ErrUnknownJob
	}

	if j.done {
		sendTerminal(l, j.exitCode)
		return nil
	}

	for _, line := range j.recentLines(ReplayLines) {
		sendLine(l, line)
	}
	j.listeners[l] = struct{}{}
	return nil
}

// Detach removes a listener. Idempotent; safe after completion or for ids
// that were never created.
func (r *Registry) Detach(id string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		delete(j.listeners, l)
	}
}

// Lines returns a copy of the job's retained log, oldest first.
func (r *Registry) Lines(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	out := make([]string, len(j.lines))
	copy(out, j.lines)
	return out
}

// Terminal reports the job's exit code and whether it has completed.
func (r *Registry) Terminal(id string) (exitCode int, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return 0, false
	}
	return j.Terminal()
}

// sendLine delivers a log line without blocking the registry. The last buffer
// slot is reserved for the terminal event; a listener that cannot keep up
// loses lines rather than stalling every other subscriber. Intentional
// best-effort drop.
func sendLine(l Listener, line string) {
	if len(l) >= cap(l)-1 {
		return
	}
	select {
	case l <- Event{Line: line}:
	default:
	}
}

// sendTerminal delivers the terminal event and closes the channel. The
// reserved buffer slot guarantees the send never blocks or drops.
func sendTerminal(l Listener, exitCode int) {
	select {
	case l <- Event{Terminal: true, ExitCode: exitCode}:
	default:
		// Unreachable while senders respect the reserved slot.
	}
	close(l)
}
