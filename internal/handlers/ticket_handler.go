package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/services"
	"github.com/themancarve/tickets/internal/store"
)

// TicketHandler serves the buyer-facing ticket surfaces: lookup, the buyer's
// own tickets, the QR image and the PDF receipt.
type TicketHandler struct {
	store *store.Store
	event services.EventInfo
}

func NewTicketHandler(s *store.Store, event services.EventInfo) *TicketHandler {
	return &TicketHandler{store: s, event: event}
}

func parseTicketID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return uuid.Nil, false
	}
	return id, true
}

// Get returns one ticket by id. Public: the id is the QR payload and knowing
// it already implies holding the ticket.
func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.store.GetTicket(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch ticket.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// allowed columns for the generic ticket update.
var ticketPatchColumns = map[string]string{
	"ticketType":    "ticket_type",
	"price":         "price",
	"status":        "status",
	"userName":      "user_name",
	"userEmail":     "user_email",
	"phone":         "phone",
	"paymentMethod": "payment_method",
}

// Update applies a partial edit to a ticket. Admin only; unknown fields are
// dropped rather than rejected.
func (h *TicketHandler) Update(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	patch := store.Patch{}
	for field, column := range ticketPatchColumns {
		if value, present := body[field]; present {
			patch[column] = value
		}
	}
	if raw, present := body["scanned"]; present {
		flag, ok := raw.(bool)
		if !ok {
			helpers.RespondWithError(c, http.StatusBadRequest, "scanned must be a boolean.")
			return
		}
		patch["scanned"] = flag
		if flag {
			patch["scanned_at"] = time.Now()
		} else {
			patch["scanned_at"] = nil
		}
	}
	if len(patch) == 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "No updatable fields provided.")
		return
	}
	if status, present := patch["status"]; present {
		s, _ := status.(string)
		if s != models.StatusAvailable && s != models.StatusPending && s != models.StatusConfirmed {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket status.")
			return
		}
	}

	// Only confirmed tickets can carry the scanned flag; the check uses
	// the status the ticket will have after this edit.
	if flag, ok := patch["scanned"].(bool); ok && flag {
		status, statusPatched := patch["status"].(string)
		if !statusPatched {
			current, err := h.store.GetTicket(c.Request.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
				return
			}
			if err != nil {
				helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch ticket.")
				return
			}
			status = current.Status
		}
		if status != models.StatusConfirmed {
			helpers.RespondWithError(c, http.StatusBadRequest, "Only confirmed tickets can be marked scanned.")
			return
		}
	}

	ticket, err := h.store.UpdateTicket(c.Request.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Mine lists the authenticated user's confirmed tickets, merging those
// assigned to their user id with those assigned to their email, since guest
// purchases only carry the latter.
func (h *TicketHandler) Mine(c *gin.Context) {
	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	byID, err := h.store.ListTickets(ctx, store.TicketFilter{UserID: userID, Status: models.StatusConfirmed})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch tickets.")
		return
	}

	seen := make(map[uuid.UUID]bool, len(byID))
	for _, t := range byID {
		seen[t.ID] = true
	}

	if uid, err := uuid.Parse(userID); err == nil {
		if user, err := h.store.GetUser(ctx, uid); err == nil && user.Email != "" {
			byEmail, err := h.store.ListTickets(ctx, store.TicketFilter{UserEmail: user.Email, Status: models.StatusConfirmed})
			if err != nil {
				helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch tickets.")
				return
			}
			for _, t := range byEmail {
				if !seen[t.ID] {
					seen[t.ID] = true
					byID = append(byID, t)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"tickets": byID})
}

// QRImage renders the ticket's QR code as a PNG. The payload is the ticket id
// itself.
func (h *TicketHandler) QRImage(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.store.GetTicket(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch ticket.")
		return
	}

	png, err := qrcode.Encode(ticket.ID.String(), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to render QR code.")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Receipt renders the PDF receipt for a confirmed ticket. Owners and admins
// only.
func (h *TicketHandler) Receipt(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.store.GetTicket(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch ticket.")
		return
	}

	if ticket.Status != models.StatusConfirmed {
		helpers.RespondWithError(c, http.StatusConflict, "Receipts are only available for confirmed tickets.")
		return
	}
	if c.GetString("role") != models.RoleAdmin && ticket.UserID != c.GetString("user_id") {
		helpers.RespondWithError(c, http.StatusForbidden, "You can only download your own receipts.")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ticket-`+ticket.ID.String()+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if err := services.RenderReceiptPDF(c.Writer, ticket, h.event); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to render receipt.")
	}
}
