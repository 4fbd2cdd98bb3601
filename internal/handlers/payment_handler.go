package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/services"
	"github.com/themancarve/tickets/internal/store"
)

// PaymentHandler drives the purchase flow around the hosted payment page:
// starting a checkout session and resolving the outcome when the browser
// returns.
type PaymentHandler struct {
	checkout  *services.CheckoutService
	reconcile *services.ReconcileService
}

func NewPaymentHandler(checkout *services.CheckoutService, reconcile *services.ReconcileService) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, reconcile: reconcile}
}

type BeginCheckoutRequest struct {
	TicketType string `json:"ticketType" binding:"required"`
	FullName   string `json:"fullName" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
}

func (h *PaymentHandler) BeginCheckout(c *gin.Context) {
	var req BeginCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	session, err := h.checkout.Begin(c.Request.Context(), services.BeginCheckoutInput{
		UserID:     c.GetString("user_id"),
		TicketType: req.TicketType,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, session)
	case errors.Is(err, services.ErrMissingFields):
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
	case errors.Is(err, services.ErrSoldOut):
		helpers.RespondWithError(c, http.StatusConflict, "Tickets of this type are sold out.")
	default:
		var gatewayErr *services.GatewayError
		if errors.As(err, &gatewayErr) {
			helpers.RespondWithError(c, http.StatusBadGateway, gatewayErr.Message)
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to start checkout.")
	}
}

// PaymentReturn handles the browser landing back from the gateway. Failed and
// cancelled outcomes are answered from the query parameter alone; success runs
// the reconciliation state machine and returns the assigned ticket.
func (h *PaymentHandler) PaymentReturn(c *gin.Context) {
	outcome := c.Query("payment")
	switch outcome {
	case "failed":
		c.JSON(http.StatusOK, gin.H{"status": "failed", "message": "Payment failed. You have not been charged."})
		return
	case "cancelled":
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "message": "Payment cancelled."})
		return
	case "success":
	default:
		helpers.RespondWithError(c, http.StatusBadRequest, "Unknown payment outcome.")
		return
	}

	// Signed-in buyers reconcile under their user id; anonymous buyers
	// echo the reference issued at checkout, which carries their
	// per-attempt guest identity.
	userID := c.GetString("user_id")
	if userID == "" {
		userID = c.Query("ref")
	}
	if userID == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing checkout reference.")
		return
	}

	ticket, err := h.reconcile.Resolve(c.Request.Context(), userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "success", "ticket": ticket})
	case errors.Is(err, store.ErrNoPendingCheckout):
		helpers.RespondWithError(c, http.StatusNotFound, "No pending checkout found for this user.")
	case errors.Is(err, services.ErrAssignmentFailure):
		helpers.RespondWithError(c, http.StatusConflict, "Payment received but no ticket could be assigned. Please contact support.")
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve payment.")
	}
}
