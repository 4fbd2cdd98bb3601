package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/services"
	"github.com/themancarve/tickets/internal/store"
)

// StaffHandler serves the door crew: the attendee list, the scan action and a
// live feed of ticket changes.
type StaffHandler struct {
	store  *store.Store
	scans  *services.ScanService
	events *store.Events
}

func NewStaffHandler(s *store.Store, scans *services.ScanService, events *store.Events) *StaffHandler {
	return &StaffHandler{store: s, scans: scans, events: events}
}

// Attendees lists confirmed tickets, the population the door works from.
func (h *StaffHandler) Attendees(c *gin.Context) {
	tickets, err := h.store.ListTickets(c.Request.Context(), store.TicketFilter{Status: models.StatusConfirmed})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch attendees.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

// Scan validates a decoded QR payload and grants entry once.
func (h *StaffHandler) Scan(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.scans.Scan(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Entry granted.", "ticket": ticket})
	case errors.Is(err, store.ErrNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
	case errors.Is(err, services.ErrAlreadyScanned):
		helpers.RespondWithError(c, http.StatusConflict, "Ticket has already been scanned.")
	case errors.Is(err, services.ErrNotConfirmed):
		helpers.RespondWithError(c, http.StatusConflict, "Ticket is not confirmed.")
	case errors.Is(err, services.ErrScanInFlight):
		helpers.RespondWithError(c, http.StatusConflict, "This ticket is being scanned on another device.")
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to scan ticket.")
	}
}

// Live streams ticket change events as server-sent events until the client
// disconnects.
func (h *StaffHandler) Live(c *gin.Context) {
	feed, cancel := h.events.SubscribeTickets(c.Request.Context())
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-feed:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event.Ticket)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
