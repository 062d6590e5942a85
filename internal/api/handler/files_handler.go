package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ytgrab/ytgrab/internal/api/dto"
)

// Files handles GET /api/files/:job_id
// Lists the plain files currently present in the job's output directory.
// Unknown jobs and unreadable directories yield empty arrays, never an error.
func (h *APIHandler) Files(c *gin.Context) {
	resp := dto.FilesResponse{
		Files:        []string{},
		DownloadURLs: []string{},
	}

	jobID := c.Param("job_id")
	dir, ok := h.jobs.OutputDir(jobID)
	if !ok || dir == "" {
		c.JSON(http.StatusOK, resp)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Best-effort listing: the directory may not exist yet.
		c.JSON(http.StatusOK, resp)
		return
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		resp.Files = append(resp.Files, e.Name())
		resp.DownloadURLs = append(resp.DownloadURLs, "/api/file/"+jobID+"/"+e.Name())
	}
	c.JSON(http.StatusOK, resp)
}

// File handles GET /api/file/:job_id/:name
// Streams one artifact as an attachment. The requested name is sanitized to a
// bare file name before resolution; traversal outside the job directory is
// impossible.
func (h *APIHandler) File(c *gin.Context) {
	jobID := c.Param("job_id")
	dir, ok := h.jobs.OutputDir(jobID)
	if !ok || dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job"})
		return
	}

	name := SanitizeFilename(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	c.FileAttachment(path, name)
}

// SanitizeFilename collapses a requested name to a bare file name: path
// separators and control characters are stripped, and the dot-only names that
// would still resolve upward are rejected. Security boundary for File.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f || r == '/' || r == '\\' {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := filepath.Base(b.String())
	if cleaned == "." || cleaned == ".." {
		return ""
	}
	return cleaned
}
