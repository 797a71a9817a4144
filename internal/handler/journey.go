package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Alertify/internal/journey"
	"Alertify/internal/models"
	"Alertify/internal/store"
	apperrors "Alertify/pkg/errors"
	"Alertify/pkg/middleware"
	"Alertify/pkg/response"
)

type startJourneyRequest struct {
	DestinationName   string   `json:"destination_name" binding:"required,max=255"`
	DestinationLat    float64  `json:"destination_lat" binding:"min=-90,max=90"`
	DestinationLng    float64  `json:"destination_lng" binding:"min=-180,max=180"`
	StartLat          *float64 `json:"start_lat,omitempty"`
	StartLng          *float64 `json:"start_lng,omitempty"`
	EstimatedDuration int      `json:"estimated_duration" binding:"min=0"`
}

type journeyPositionRequest struct {
	Latitude  float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

func (h *Handlers) StartJourney(c *gin.Context) {
	var req startJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	j, err := h.journeys.Start(c.Request.Context(), journey.StartCommand{
		Owner:             middleware.CurrentOwner(c),
		DestinationName:   req.DestinationName,
		DestinationLat:    req.DestinationLat,
		DestinationLng:    req.DestinationLng,
		StartLat:          req.StartLat,
		StartLng:          req.StartLng,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		h.log.Error("start journey", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, apperrors.Wrap(err, "could not start journey"))
		return
	}
	response.Success(c, "journey started", j)
}

func (h *Handlers) ActiveJourneys(c *gin.Context) {
	journeys, err := h.journeys.ListActive(c.Request.Context(), middleware.CurrentOwner(c))
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not list journeys")
		return
	}
	response.Success(c, "ok", journeys)
}

func (h *Handlers) CompleteJourney(c *gin.Context) {
	h.finishJourney(c, h.journeys.Complete, "journey completed")
}

func (h *Handlers) CancelJourney(c *gin.Context) {
	h.finishJourney(c, h.journeys.Cancel, "journey cancelled")
}

func (h *Handlers) finishJourney(c *gin.Context, fn func(ctx context.Context, id, owner string) (*models.Journey, error), msg string) {
	j, err := fn(c.Request.Context(), c.Param("id"), middleware.CurrentOwner(c))
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "journey not found")
	case errors.Is(err, store.ErrConflict):
		response.FailWithStatus(c, http.StatusConflict, "journey already ended")
	case err != nil:
		response.FailWithStatus(c, http.StatusInternalServerError, "could not update journey")
	default:
		response.Success(c, msg, j)
	}
}

// JourneySOS escalates an active journey into an emergency alert.
func (h *Handlers) JourneySOS(c *gin.Context) {
	alert, err := h.journeys.Escalate(c.Request.Context(), c.Param("id"), middleware.CurrentOwner(c), models.TriggerManual)
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "journey not found")
	case errors.Is(err, store.ErrConflict):
		response.FailWithStatus(c, http.StatusConflict, "journey already ended")
	case err != nil:
		h.log.Error("journey sos", zap.String("journey_id", c.Param("id")), zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "could not trigger alert")
	default:
		response.Success(c, "alert started", alert)
	}
}

func (h *Handlers) JourneyLocation(c *gin.Context) {
	var req journeyPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	err := h.journeys.UpdatePosition(c.Request.Context(), c.Param("id"), middleware.CurrentOwner(c), req.Latitude, req.Longitude)
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "journey not found")
	case err != nil:
		response.FailWithStatus(c, http.StatusInternalServerError, "could not record position")
	default:
		response.Success(c, "position recorded", nil)
	}
}
