package handlers

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe reports whether a dependency can serve traffic.
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

type HealthHandler struct {
	probes map[string]Probe
}

func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: maps.Clone(probes)}
}

// HealthCheck is liveness only.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every probe and answers 503 when any of them fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	status, checks := http.StatusOK, gin.H{}
	for _, name := range slices.Sorted(maps.Keys(h.probes)) {
		if err := h.probes[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = "unavailable"
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": checks})
}
