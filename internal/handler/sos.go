package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Alertify/internal/dispatch"
	"Alertify/internal/models"
	"Alertify/internal/store"
	apperrors "Alertify/pkg/errors"
	"Alertify/pkg/middleware"
	"Alertify/pkg/response"
)

type triggerSOSRequest struct {
	Latitude     float64  `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude    float64  `json:"longitude" binding:"required,min=-180,max=180"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	LocationName string   `json:"location_name"`
	TriggerType  string   `json:"trigger_type"`
}

type locationUpdateRequest struct {
	Latitude  float64  `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude float64  `json:"longitude" binding:"required,min=-180,max=180"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// TriggerSOS opens an emergency alert and starts repeating dispatch.
func (h *Handlers) TriggerSOS(c *gin.Context) {
	var req triggerSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	trigger := models.TriggerType(req.TriggerType)
	switch trigger {
	case "":
		trigger = models.TriggerManual
	case models.TriggerManual, models.TriggerAutoMotion, models.TriggerAutoDeviation, models.TriggerAutoStop:
	default:
		response.Fail(c, "unknown trigger type", nil)
		return
	}

	alert, err := h.dispatcher.StartAlert(c.Request.Context(), dispatch.StartCommand{
		Owner:       middleware.CurrentOwner(c),
		TriggerType: trigger,
		Location: models.Location{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Accuracy:  req.Accuracy,
			Timestamp: time.Now(),
		},
		LocationName: req.LocationName,
	})
	if err != nil {
		h.log.Error("trigger sos", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, apperrors.Wrap(err, "could not start alert"))
		return
	}
	response.Success(c, "alert started", alert)
}

// MarkSafe resolves the alert; dispatch ceases after at most one more
// cycle, which delivers the courtesy safe message.
func (h *Handlers) MarkSafe(c *gin.Context) {
	h.closeAlert(c, h.dispatcher.MarkSafe, "marked safe")
}

// MarkFalseAlarm closes the alert as a false alarm.
func (h *Handlers) MarkFalseAlarm(c *gin.Context) {
	h.closeAlert(c, h.dispatcher.MarkFalseAlarm, "marked false alarm")
}

func (h *Handlers) closeAlert(c *gin.Context, fn func(ctx context.Context, id, owner string) (*models.Alert, error), msg string) {
	alert, err := fn(c.Request.Context(), c.Param("id"), middleware.CurrentOwner(c))
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "alert not found")
	case errors.Is(err, store.ErrConflict):
		response.FailWithStatus(c, http.StatusConflict, "alert already closed")
	case err != nil:
		h.log.Error("close alert", zap.String("alert_id", c.Param("id")), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, apperrors.Wrap(err, "could not update alert"))
	default:
		response.Success(c, msg, alert)
	}
}

// ActiveAlerts lists the caller's currently active alerts.
func (h *Handlers) ActiveAlerts(c *gin.Context) {
	alerts, err := h.stores.Alerts.ListActiveForOwner(c.Request.Context(), middleware.CurrentOwner(c))
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not list alerts")
		return
	}
	response.Success(c, "ok", alerts)
}

// AlertStatus returns the stored alert plus the live repeater snapshot
// when dispatch is running.
func (h *Handlers) AlertStatus(c *gin.Context) {
	alert, err := h.stores.Alerts.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "alert not found")
		return
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not load alert")
		return
	}
	if alert.CreatedBy != middleware.CurrentOwner(c) {
		response.NotFound(c, "alert not found")
		return
	}

	body := gin.H{"alert": alert}
	if st, ok := h.dispatcher.Status(alert.ID); ok {
		body["dispatch"] = st
	}
	response.Success(c, "ok", body)
}

// PushLocation ingests a device position for an active alert.
func (h *Handlers) PushLocation(c *gin.Context) {
	var req locationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	err := h.dispatcher.Ingest(c.Request.Context(), c.Param("id"), middleware.CurrentOwner(c), models.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Speed:     req.Speed,
		Heading:   req.Heading,
		Timestamp: time.Now(),
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "alert not found")
	case errors.Is(err, store.ErrConflict):
		response.FailWithStatus(c, http.StatusConflict, "alert already closed")
	case err != nil:
		response.FailWithStatus(c, http.StatusInternalServerError, "could not record location")
	default:
		response.Success(c, "location recorded", nil)
	}
}
