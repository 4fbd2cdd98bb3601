package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themancarve/tickets/internal/helpers"
	"github.com/themancarve/tickets/internal/yoco"
)

// CheckoutProxyHandler relays checkout requests to the payment gateway so the
// secret key never reaches the browser. Gateway responses pass through with
// their status and body untouched.
type CheckoutProxyHandler struct {
	client      *yoco.Client
	secretKey   string
	environment string
}

func NewCheckoutProxyHandler(client *yoco.Client, secretKey, environment string) *CheckoutProxyHandler {
	return &CheckoutProxyHandler{client: client, secretKey: secretKey, environment: environment}
}

// Create handles any method on the checkout endpoint so non-POST requests get
// a 405 with an Allow header instead of a 404.
func (h *CheckoutProxyHandler) Create(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		helpers.RespondWithError(c, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	// Refuse before any outbound call: production must not create
	// checkouts against a test credential or none at all.
	if h.secretKey == "" || (h.environment == "production" && !yoco.LiveKey(h.secretKey)) {
		helpers.RespondWithError(c, http.StatusForbidden, "Payment gateway is not configured for live payments.")
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	resp, err := h.client.CreateCheckout(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// Get relays a checkout-session lookup by id.
func (h *CheckoutProxyHandler) Get(c *gin.Context) {
	if h.secretKey == "" {
		helpers.RespondWithError(c, http.StatusForbidden, "Payment gateway is not configured.")
		return
	}

	resp, err := h.client.GetCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}
