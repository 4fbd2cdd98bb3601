package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/store"
)

// AdminHandler serves the inventory-management surface: bulk provisioning,
// listing, deletion, the QR issuance log and sales stats.
type AdminHandler struct {
	store *store.Store
}

func NewAdminHandler(s *store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

type CreateTicketsRequest struct {
	TicketType string `json:"ticketType" binding:"required"`
	Price      int    `json:"price" binding:"required,gt=0"`
	Quantity   int    `json:"quantity" binding:"required,min=1,max=100"`
}

// CreateTickets provisions a batch of identical tickets, each with its QR
// code generated up front.
func (h *AdminHandler) CreateTickets(c *gin.Context) {
	var req CreateTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input: ticketType, a positive price and a quantity between 1 and 100 are required.")
		return
	}

	tickets, err := h.store.CreateTicketBatch(c.Request.Context(), req.TicketType, req.Price, req.Quantity)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create tickets.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tickets created successfully.",
		"count":   len(tickets),
		"tickets": tickets,
	})
}

// ListTickets returns all tickets, optionally filtered by type and status
// query parameters.
func (h *AdminHandler) ListTickets(c *gin.Context) {
	filter := store.TicketFilter{
		TicketType: c.Query("ticketType"),
		Status:     c.Query("status"),
	}
	if scanned := c.Query("scanned"); scanned == "true" || scanned == "false" {
		value := scanned == "true"
		filter.Scanned = &value
	}

	tickets, err := h.store.ListTickets(c.Request.Context(), filter)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch tickets.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

func (h *AdminHandler) DeleteTicket(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	err := h.store.DeleteTicket(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete ticket.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted."})
}

// DeleteAllTickets wipes the inventory. Destructive; confirm=yes is required.
func (h *AdminHandler) DeleteAllTickets(c *gin.Context) {
	if c.Query("confirm") != "yes" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Pass confirm=yes to delete all tickets.")
		return
	}

	if err := h.store.DeleteAllTickets(c.Request.Context()); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete tickets.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All tickets deleted."})
}

func (h *AdminHandler) QRLogs(c *gin.Context) {
	logs, err := h.store.ListQRLogs(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch QR logs.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// Stats reports the dashboard counters, computed from the tickets themselves
// rather than kept as running totals.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.store.TicketStatsSummary(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to compute stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DebugAvailable groups unsold tickets by type. Mounted outside production
// builds only.
func (h *AdminHandler) DebugAvailable(c *gin.Context) {
	tickets, err := h.store.ListTickets(c.Request.Context(), store.TicketFilter{Status: models.StatusAvailable})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch tickets.")
		return
	}

	byType := make(map[string][]models.Ticket)
	for _, t := range tickets {
		byType[t.TicketType] = append(byType[t.TicketType], t)
	}
	c.JSON(http.StatusOK, gin.H{"available": byType, "count": len(tickets)})
}

func (h *AdminHandler) DebugAllTickets(c *gin.Context) {
	tickets, err := h.store.ListTickets(c.Request.Context(), store.TicketFilter{})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch tickets.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}
