package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/hearth/internal/api/middleware"
	"github.com/timmy/hearth/internal/manager"
)

// ArchiveHandler exposes the archive job surface: start, progress, download,
// cleanup. Every route is keyed by (subdomain, token).
type ArchiveHandler struct {
	manager *manager.Manager
}

// NewArchiveHandler creates a new archive handler.
// Parameters:
//   - m: job manager backing the routes.
// Returns:
//   - *ArchiveHandler: handler instance bound to m.
func NewArchiveHandler(m *manager.Manager) *ArchiveHandler {
	return &ArchiveHandler{manager: m}
}

// Go starts an archive run for the subdomain. The response states mirror the
// registry outcome: "new", "alreadyRunning", or "badToken".
func (h *ArchiveHandler) Go(c *gin.Context) {
	subdomain := c.Param("subdomain")
	token := c.Param("token")

	err := h.manager.Start(c.Request.Context(), subdomain, token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"state": "new"})
	case errors.Is(err, manager.ErrAlreadyRunning):
		c.JSON(http.StatusOK, gin.H{"state": "alreadyRunning"})
	case errors.Is(err, manager.ErrTokenMismatch):
		c.JSON(http.StatusOK, gin.H{"state": "badToken"})
	default:
		middleware.GetLogger(c).WithError(err).Error("Failed to start archive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start archive"})
	}
}

// Progress returns the job's stage tuples while it runs. Once the job has
// finished, the list is replaced by a bare terminal {"done": true} object,
// which is what the polling front-end keys off.
func (h *ArchiveHandler) Progress(c *gin.Context) {
	status, err := h.manager.Progress(c.Param("subdomain"), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"nope": "notfound"})
		return
	}
	if status.Finished {
		c.JSON(http.StatusOK, gin.H{"done": true})
		return
	}

	out := make([]gin.H, 0, len(status.Stages)+1)
	for _, s := range status.Stages {
		out = append(out, gin.H{
			"title":      s.Title,
			"totalUnits": s.TotalUnits,
			"doneUnits":  s.DoneUnits,
			"done":       s.Done,
		})
	}
	if status.Err != nil {
		out = append(out, gin.H{"error": status.Err.Error()})
	}

	c.JSON(http.StatusOK, out)
}

// Download serves the finished zip, redirecting to the artifact store when
// the archive was uploaded there.
func (h *ArchiveHandler) Download(c *gin.Context) {
	subdomain := c.Param("subdomain")
	token := c.Param("token")

	status, err := h.manager.Progress(subdomain, token)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if status.ArtifactURL != "" {
		c.Redirect(http.StatusFound, status.ArtifactURL)
		return
	}

	path, err := h.manager.ArtifactPath(subdomain, token)
	if err != nil {
		if errors.Is(err, manager.ErrUnknownJob) {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(path, subdomain+".zip")
}

// Cleanup deletes the job's working directory and forgets the job.
func (h *ArchiveHandler) Cleanup(c *gin.Context) {
	err := h.manager.Cleanup(c.Param("subdomain"), c.Param("token"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"done": true})
	case errors.Is(err, manager.ErrUnknownJob):
		c.Status(http.StatusNotFound)
	default:
		middleware.GetLogger(c).WithError(err).Error("Cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
	}
}
