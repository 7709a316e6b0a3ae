package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"vidtrack/logger"
)

// handleHealth reports liveness, the controller phase and host load.
// Host stats are best effort and omitted when unavailable.
func (h *Handler) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"phase":  h.tracker.State().Phase,
	}

	if p, err := cpu.Percent(0, false); err != nil {
		logger.Named("api").Warnw("Could not get CPU usage", logger.FieldError, err)
	} else if len(p) > 0 {
		resp["cpu_percent"] = p[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		logger.Named("api").Warnw("Could not get memory usage", logger.FieldError, err)
	} else {
		resp["mem_available"] = vm.Available
	}

	c.JSON(http.StatusOK, resp)
}
