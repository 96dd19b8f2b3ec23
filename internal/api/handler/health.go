package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers liveness probes. It carries no state: a reachable
// process is a healthy one, and archive jobs report their own condition
// through the progress routes.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
// Returns:
//   - *HealthHandler: handler instance.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health reports the service as up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
