package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/monitoring"
	"github.com/themancarve/tickets/internal/store"
	"github.com/themancarve/tickets/internal/yoco"
)

// WebhookHandler is the authoritative assignment path: a successful payment
// event claims one available ticket for the buyer named in the checkout
// metadata. The poll-then-self-assign flow only covers webhooks that never
// arrive.
type WebhookHandler struct {
	store *store.Store
}

func NewWebhookHandler(s *store.Store) *WebhookHandler {
	return &WebhookHandler{store: s}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	var event yoco.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}

	if event.Type != yoco.EventCheckoutSucceeded {
		// Acknowledge everything else so the gateway stops redelivering.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ticketType := event.Data.Metadata["ticketType"]
	userID := event.Data.Metadata["userId"]
	if ticketType == "" || userID == "" {
		monitoring.TrackWebhook(event.Type, "bad_metadata")
		helpers.RespondWithError(c, http.StatusBadRequest, "Webhook metadata is missing ticketType or userId.")
		return
	}

	assignment := store.Assignment{
		UserID:        userID,
		UserName:      event.Data.Metadata["customerName"],
		UserEmail:     event.Data.Metadata["customerEmail"],
		Phone:         event.Data.Metadata["customerPhone"],
		PaymentID:     event.Data.ID,
		PaymentMethod: "yoco",
		Price:         int(event.Data.Amount / 100),
	}

	ticket, err := h.store.ClaimAvailable(c.Request.Context(), ticketType, assignment)
	if errors.Is(err, store.ErrNoneAvailable) {
		monitoring.TrackWebhook(event.Type, "sold_out")
		helpers.RespondWithError(c, http.StatusConflict, "Payment received but no ticket is available to assign.")
		return
	}
	if err != nil {
		monitoring.TrackWebhook(event.Type, "error")
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to assign ticket.")
		return
	}

	monitoring.TrackWebhook(event.Type, "assigned")
	monitoring.TrackAssignment("webhook", "assigned")
	c.JSON(http.StatusOK, gin.H{"success": true, "ticketId": ticket.ID})
}
