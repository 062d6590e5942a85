// Package dto holds the request and response shapes of the HTTP API.
package dto

// DownloadRequest is the body of POST /api/download. IDs take precedence over
// URL when both are supplied.
type DownloadRequest struct {
	URL                string   `json:"url"`
	IDs                []string `json:"ids"`
	Quality            int      `json:"quality"`
	MP3                bool     `json:"mp3"`
	VideoOnly          bool     `json:"videoOnly"`
	CookiesFromBrowser string   `json:"cookiesFromBrowser"`
}

// DownloadResponse acknowledges an accepted download job.
type DownloadResponse struct {
	JobID        string `json:"jobId"`
	Count        int    `json:"count"`
	DownloadsDir string `json:"downloadsDir"`
}

// InfoResponse carries metadata for one URL. OK=false with a friendly message
// is a normal outcome, not a transport error.
type InfoResponse struct {
	OK        bool   `json:"ok"`
	Title     string `json:"title,omitempty"`
	ID        string `json:"id,omitempty"`
	Qualities []int  `json:"qualities,omitempty"`
	MP3       bool   `json:"mp3,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DoctorResponse reports whether the external tool is runnable.
type DoctorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// VideoEntry is one playlist/channel item.
type VideoEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ListResponse enumerates a playlist.
type ListResponse struct {
	Videos []VideoEntry `json:"videos"`
}

// FilesResponse lists the artifacts a job has produced so far.
type FilesResponse struct {
	Files        []string `json:"files"`
	DownloadURLs []string `json:"downloadUrls"`
}
