package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/response"
)

const trackSnapshotTTL = 2 * time.Second

// trackSnapshot is the public view of an alert. It deliberately omits the
// owner identity and contact list.
type trackSnapshot struct {
	AlertID            string           `json:"alert_id"`
	Status             string           `json:"status"`
	TriggerType        string           `json:"trigger_type"`
	Location           *models.Location `json:"location,omitempty"`
	LocationName       string           `json:"location_name,omitempty"`
	GoogleMapsURL      string           `json:"google_maps_url"`
	AlertCount         int              `json:"alert_count"`
	LastAlertSent      *time.Time       `json:"last_alert_sent,omitempty"`
	SecondsSinceUpdate *int64           `json:"seconds_since_update,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	ResolvedAt         *time.Time       `json:"resolved_at,omitempty"`
	Watchers           int              `json:"watchers"`
}

// TrackSnapshot serves the shared tracking page. Snapshots are cached for
// a couple of seconds; contacts tend to refresh in bursts right after an
// alert lands.
func (h *Handlers) TrackSnapshot(c *gin.Context) {
	id := c.Param("id")
	cacheKey := "track:" + id

	if h.cache != nil {
		if b, ok := h.cache.Get(c.Request.Context(), cacheKey); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	alert, err := h.stores.Alerts.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "tracking link not found")
		return
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not load alert")
		return
	}

	snap := trackSnapshot{
		AlertID:       alert.ID,
		Status:        string(alert.Status),
		TriggerType:   string(alert.TriggerType),
		LocationName:  alert.LocationName,
		GoogleMapsURL: alert.GoogleMapsURL,
		AlertCount:    alert.AlertCount,
		LastAlertSent: alert.LastAlertSent,
		CreatedAt:     alert.CreatedAt,
		ResolvedAt:    alert.ResolvedAt,
		Watchers:      h.hub.GroupSize("alert:" + alert.ID),
	}
	loc := alert.Location
	snap.Location = &loc

	// Prefer the newest persisted sample over the location frozen on the
	// alert row.
	updates, err := h.stores.Locations.ListForAlert(c.Request.Context(), alert.ID, 1)
	if err == nil && len(updates) > 0 {
		latest := updates[0].Location()
		snap.Location = &latest
	}
	if snap.Location != nil && !snap.Location.Timestamp.IsZero() {
		secs := int64(time.Since(snap.Location.Timestamp).Seconds())
		if secs < 0 {
			secs = 0
		}
		snap.SecondsSinceUpdate = &secs
	}

	body := response.Body{Code: 0, Message: "ok", Data: snap}
	b, err := json.Marshal(body)
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not render snapshot")
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(c.Request.Context(), cacheKey, b, trackSnapshotTTL)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

// TrackStream pushes live location updates over SSE to anyone holding the
// tracking link.
func (h *Handlers) TrackStream(c *gin.Context) {
	id := c.Param("id")
	alert, err := h.stores.Alerts.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "tracking link not found")
		return
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not load alert")
		return
	}

	clientID := uuid.NewString()
	client := h.hub.AddClient(clientID)
	defer h.hub.RemoveClient(clientID)
	h.hub.Join(clientID, "alert:"+alert.ID)
	h.hub.Serve(c, client)
}

// TrackLocations returns the recent location trail, newest first.
func (h *Handlers) TrackLocations(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.stores.Alerts.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "tracking link not found")
			return
		}
		response.FailWithStatus(c, http.StatusInternalServerError, "could not load alert")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	updates, err := h.stores.Locations.ListForAlert(c.Request.Context(), id, limit)
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not list locations")
		return
	}
	response.Success(c, "ok", updates)
}
