package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ytgrab/ytgrab/internal/job"
)

// Events handles GET /api/events/:job_id
// Streams the job's log as server-sent events: recent history first, then
// live lines as they arrive, then exactly one `done` event with the exit
// code. A client attaching after completion receives only the `done` event.
func (h *APIHandler) Events(c *gin.Context) {
	jobID := c.Param("job_id")

	listener := job.NewListener()
	if err := h.jobs.Attach(jobID, listener); err != nil {
		if errors.Is(err, job.ErrUnknownJob) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer h.jobs.Detach(jobID, listener)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-listener:
			if !ok {
				return false
			}
			if ev.Terminal {
				c.SSEvent("done", gin.H{"exitCode": ev.ExitCode})
				return false
			}
			c.SSEvent("log", gin.H{"line": ev.Line})
			return true
		case <-clientGone:
			return false
		}
	})
}
