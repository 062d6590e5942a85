package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ytgrab/ytgrab/internal/api/dto"
	"github.com/ytgrab/ytgrab/internal/download"
)

// Download handles POST /api/download
// Starts a download job and returns its id; launch failures are observable
// over the job's event stream, not in this response.
func (h *APIHandler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.orchestrator.Start(c.Request.Context(), download.Request{
		URL:                req.URL,
		IDs:                req.IDs,
		Quality:            req.Quality,
		MP3:                req.MP3,
		VideoOnly:          req.VideoOnly,
		CookiesFromBrowser: req.CookiesFromBrowser,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, download.ErrMissingURL) || errors.Is(err, download.ErrBadCookieSource) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Failed to start download", slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Download job accepted",
		slog.String("job_id", res.JobID),
		slog.Int("count", res.Count),
		slog.String("downloads_dir", res.DownloadsDir),
	)

	c.JSON(http.StatusOK, dto.DownloadResponse{
		JobID:        res.JobID,
		Count:        res.Count,
		DownloadsDir: res.DownloadsDir,
	})
}
