package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Alertify/internal/models"
	"Alertify/internal/store"
	"Alertify/pkg/middleware"
	"Alertify/pkg/notification"
	"Alertify/pkg/response"
)

type contactRequest struct {
	Name            string `json:"name" binding:"required,max=128"`
	Phone           string `json:"phone" binding:"required"`
	Email           string `json:"email"`
	Relationship    string `json:"relationship"`
	IsPrimary       bool   `json:"is_primary"`
	NotifyOnJourney *bool  `json:"notify_on_journey,omitempty"`
	AvatarColor     string `json:"avatar_color"`
}

func (r *contactRequest) validate() string {
	if !notification.ValidPhone(r.Phone) {
		return "invalid phone number"
	}
	if r.Email != "" && !notification.ValidEmail(r.Email) {
		return "invalid email address"
	}
	if r.Relationship != "" && !models.Relationship(r.Relationship).Valid() {
		return "unknown relationship"
	}
	return ""
}

func (h *Handlers) ListContacts(c *gin.Context) {
	contacts, err := h.stores.Contacts.ListForOwner(c.Request.Context(), middleware.CurrentOwner(c))
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not list contacts")
		return
	}
	response.Success(c, "ok", contacts)
}

func (h *Handlers) CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.Fail(c, msg, nil)
		return
	}

	contact := &models.TrustedContact{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		IsPrimary:   req.IsPrimary,
		AvatarColor: req.AvatarColor,
		CreatedBy:   middleware.CurrentOwner(c),
	}
	if req.Relationship != "" {
		contact.Relationship = models.Relationship(req.Relationship)
	}
	if req.NotifyOnJourney != nil {
		contact.NotifyOnJourney = *req.NotifyOnJourney
	} else {
		contact.NotifyOnJourney = true
	}
	if err := h.stores.Contacts.Create(c.Request.Context(), contact); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not save contact")
		return
	}
	response.Success(c, "contact created", contact)
}

func (h *Handlers) UpdateContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.Fail(c, msg, nil)
		return
	}

	owner := middleware.CurrentOwner(c)
	contact, err := h.stores.Contacts.Get(c.Request.Context(), owner, id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "contact not found")
		return
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not load contact")
		return
	}

	contact.Name = req.Name
	contact.Phone = req.Phone
	contact.Email = req.Email
	contact.IsPrimary = req.IsPrimary
	contact.AvatarColor = req.AvatarColor
	if req.Relationship != "" {
		contact.Relationship = models.Relationship(req.Relationship)
	}
	if req.NotifyOnJourney != nil {
		contact.NotifyOnJourney = *req.NotifyOnJourney
	}
	if err := h.stores.Contacts.Update(c.Request.Context(), contact); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not save contact")
		return
	}
	response.Success(c, "contact updated", contact)
}

func (h *Handlers) DeleteContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	err := h.stores.Contacts.Delete(c.Request.Context(), middleware.CurrentOwner(c), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "contact not found")
		return
	}
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "could not delete contact")
		return
	}
	response.Success(c, "contact deleted", nil)
}

func contactID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, "invalid contact id", nil)
		return 0, false
	}
	return uint(id), true
}
