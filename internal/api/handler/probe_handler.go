package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ytgrab/ytgrab/internal/api/dto"
	"github.com/ytgrab/ytgrab/internal/ytdlp"
)

// infoFailureMessage is the collapsed user-facing message for every metadata
// failure, whatever the actual cause. Kept for UI compatibility.
const infoFailureMessage = "not allowed to download this video by the creator"

// Doctor handles GET /api/doctor
// A non-runnable binary is a normal outcome, reported with ok=false and 200.
func (h *APIHandler) Doctor(c *gin.Context) {
	version, err := h.tool.Version(c.Request.Context())
	if err != nil {
		h.logger.Warn("Doctor probe failed", slog.String("error", err.Error()))
		c.JSON(http.StatusOK, dto.DoctorResponse{
			OK:      false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.DoctorResponse{
		OK:      true,
		Message: "yt-dlp " + version,
	})
}

// Info handles GET /api/info?url=
// Fetches metadata and the available quality heights for one URL.
func (h *APIHandler) Info(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	info, err := h.tool.Info(c.Request.Context(), url)
	if err != nil {
		h.logger.Warn("Info probe failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusOK, dto.InfoResponse{
			OK:      false,
			Message: infoFailureMessage,
		})
		return
	}

	c.JSON(http.StatusOK, dto.InfoResponse{
		OK:        true,
		Title:     info.Title,
		ID:        info.ID,
		Qualities: info.Qualities,
		MP3:       true,
	})
}

// List handles GET /api/list?url= (alias /api/playlist)
// Enumerates playlist or channel entries with valid video ids.
func (h *APIHandler) List(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	entries, err := h.tool.List(c.Request.Context(), url)
	if err != nil {
		h.logger.Error("Playlist enumeration failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list playlist: " + err.Error() +
				" (set " + ytdlp.EnvPath + " to the yt-dlp binary if it is not on PATH)",
		})
		return
	}

	videos := make([]dto.VideoEntry, 0, len(entries))
	for _, e := range entries {
		videos = append(videos, dto.VideoEntry{ID: e.ID, Title: e.Title, URL: e.URL})
	}
	c.JSON(http.StatusOK, dto.ListResponse{Videos: videos})
}
