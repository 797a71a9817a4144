package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Alertify/internal/dispatch"
	"Alertify/internal/journey"
	"Alertify/internal/store"
	"Alertify/pkg/cache"
	"Alertify/pkg/middleware"
	"Alertify/pkg/sse"
)

// Handlers carries every dependency the HTTP layer needs. One instance is
// built in main and registered on the gin engine.
type Handlers struct {
	db         *gorm.DB
	stores     *store.Stores
	dispatcher *dispatch.Dispatcher
	journeys   *journey.Service
	hub        *sse.Hub
	cache      cache.Cache
	log        *zap.Logger
}

func New(db *gorm.DB, stores *store.Stores, dispatcher *dispatch.Dispatcher, journeys *journey.Service, hub *sse.Hub, c cache.Cache, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		db:         db,
		stores:     stores,
		dispatcher: dispatcher,
		journeys:   journeys,
		hub:        hub,
		cache:      c,
		log:        log,
	}
}

// Register mounts all routes under the API prefix. Tracking routes skip
// the owner middleware: the link is shared with contacts who have no account.
func (h *Handlers) Register(r *gin.Engine, prefix string) {
	api := r.Group(prefix)

	api.GET("/health", h.Health)

	api.GET("/track/:id", h.TrackSnapshot)
	api.GET("/track/:id/stream", h.TrackStream)
	api.GET("/track/:id/locations", h.TrackLocations)

	owned := api.Group("", middleware.OwnerRequired())
	{
		owned.POST("/sos", h.TriggerSOS)
		owned.GET("/sos/active", h.ActiveAlerts)
		owned.GET("/sos/:id/status", h.AlertStatus)
		owned.POST("/sos/:id/safe", h.MarkSafe)
		owned.POST("/sos/:id/false-alarm", h.MarkFalseAlarm)
		owned.POST("/sos/:id/location", h.PushLocation)

		owned.GET("/contacts", h.ListContacts)
		owned.POST("/contacts", h.CreateContact)
		owned.PUT("/contacts/:id", h.UpdateContact)
		owned.DELETE("/contacts/:id", h.DeleteContact)

		owned.POST("/journeys", h.StartJourney)
		owned.GET("/journeys/active", h.ActiveJourneys)
		owned.POST("/journeys/:id/complete", h.CompleteJourney)
		owned.POST("/journeys/:id/cancel", h.CancelJourney)
		owned.POST("/journeys/:id/sos", h.JourneySOS)
		owned.POST("/journeys/:id/location", h.JourneyLocation)
	}
}
