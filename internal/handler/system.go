package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Alertify/pkg/response"
)

var startedAt = time.Now()

// Health reports process liveness plus database reachability.
func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status = "degraded"
	}

	body := gin.H{
		"status":    status,
		"uptime":    time.Since(startedAt).Truncate(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response.Body{Code: 1, Message: "degraded", Data: body})
		return
	}
	response.Success(c, "ok", body)
}
