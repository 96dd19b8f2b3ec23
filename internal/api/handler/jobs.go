package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/hearth/internal/api/middleware"
	"github.com/timmy/hearth/internal/repository"
)

// JobsHandler serves the archive job ledger.
type JobsHandler struct {
	repo *repository.JobRepository
}

// NewJobsHandler creates a new jobs handler.
// Parameters:
//   - repo: job ledger repository.
// Returns:
//   - *JobsHandler: handler instance bound to repo.
func NewJobsHandler(repo *repository.JobRepository) *JobsHandler {
	return &JobsHandler{repo: repo}
}

// List returns recent jobs, newest first. Supports limit and offset query
// parameters; limit defaults to 50 and is capped at 200.
func (h *JobsHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	jobs, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

// Get returns one job by ID.
func (h *JobsHandler) Get(c *gin.Context) {
	job, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, job)
}
