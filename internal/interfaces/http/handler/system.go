package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/dto"
)

// SystemHandler handles health and liveness endpoints
type SystemHandler struct {
	startTime time.Time
	readiness func() error
}

// NewSystemHandler creates a new SystemHandler. The readiness probe
// is optional; typically it pings the database.
func NewSystemHandler(readiness func() error) *SystemHandler {
	return &SystemHandler{startTime: time.Now(), readiness: readiness}
}

// HealthResponse represents the health endpoint payload
type HealthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports liveness and readiness
func (h *SystemHandler) Health(c *gin.Context) {
	if h.readiness != nil {
		if err := h.readiness(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("NOT_READY", err.Error()))
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
