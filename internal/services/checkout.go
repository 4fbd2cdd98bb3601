package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/monitoring"
	"github.com/themancarve/tickets/internal/store"
	"github.com/themancarve/tickets/internal/yoco"
)

// GuestIDPrefix marks the generated identity a buyer gets when checking out
// without signing in. Each anonymous attempt gets its own id, so two guests
// never share a pending-checkout slot; the client echoes the id back when the
// gateway returns the browser.
const GuestIDPrefix = "guest_"

// NewGuestID mints an identity for one anonymous checkout attempt.
func NewGuestID() string {
	return GuestIDPrefix + uuid.NewString()
}

type TicketLister interface {
	ListTickets(ctx context.Context, filter store.TicketFilter) ([]models.Ticket, error)
}

type PendingSaver interface {
	Save(ctx context.Context, pc models.PendingCheckout) error
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, payload map[string]interface{}) (yoco.Response, error)
}

type CheckoutConfig struct {
	// BaseURL is the app origin all three callback URLs point back at.
	BaseURL   string
	Currency  string
	EventName string
	EventDate string
}

// CheckoutService starts a purchase: it re-checks inventory, parks the
// buyer's details so they survive the redirect to the hosted payment page,
// and creates the checkout session.
type CheckoutService struct {
	tickets TicketLister
	pending PendingSaver
	gateway PaymentGateway
	cfg     CheckoutConfig
}

func NewCheckoutService(tickets TicketLister, pending PendingSaver, gateway PaymentGateway, cfg CheckoutConfig) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "ZAR"
	}
	return &CheckoutService{tickets: tickets, pending: pending, gateway: gateway, cfg: cfg}
}

type BeginCheckoutInput struct {
	UserID     string
	TicketType string
	FullName   string
	Email      string
	Phone      string
}

type CheckoutSession struct {
	CheckoutID  string `json:"checkoutId"`
	RedirectURL string `json:"redirectUrl"`
	Amount      int64  `json:"amount"`
	// Reference is the identity reconciliation will look the pending
	// checkout up under. Anonymous buyers must echo it on the return
	// trip; signed-in buyers get their own user id back.
	Reference string `json:"reference"`
}

// Begin validates the order, re-checks availability, persists the pending
// checkout, and asks the gateway for a hosted payment page. Inventory is
// checked here a second time (the first was at selection) to narrow, not
// eliminate, the last-ticket race.
func (s *CheckoutService) Begin(ctx context.Context, in BeginCheckoutInput) (CheckoutSession, error) {
	if in.TicketType == "" || in.FullName == "" || in.Email == "" || in.Phone == "" {
		return CheckoutSession{}, ErrMissingFields
	}

	available, err := s.tickets.ListTickets(ctx, store.TicketFilter{
		TicketType: in.TicketType,
		Status:     models.StatusAvailable,
		PricedOnly: true,
	})
	if err != nil {
		return CheckoutSession{}, err
	}
	if len(available) == 0 {
		monitoring.TrackCheckout("sold_out")
		return CheckoutSession{}, ErrSoldOut
	}
	price := available[0].Price

	userID := in.UserID
	if userID == "" {
		userID = NewGuestID()
	}

	pc := models.PendingCheckout{
		UserID:     userID,
		TicketType: in.TicketType,
		FullName:   in.FullName,
		Email:      in.Email,
		Phone:      in.Phone,
		Price:      price,
		CreatedAt:  time.Now(),
	}
	// Written before the gateway call: the redirect destroys all in-memory
	// state, this slot is what reconciliation restores from.
	if err := s.pending.Save(ctx, pc); err != nil {
		return CheckoutSession{}, err
	}

	amount := int64(price) * 100
	payload := map[string]interface{}{
		"amount":   amount,
		"currency": s.cfg.Currency,
		"metadata": map[string]interface{}{
			"ticketType":    in.TicketType,
			"customerName":  in.FullName,
			"customerEmail": in.Email,
			"customerPhone": in.Phone,
			"eventName":     s.cfg.EventName,
			"eventDate":     s.cfg.EventDate,
			"userId":        userID,
		},
		"successUrl": s.cfg.BaseURL + "?payment=success",
		"cancelUrl":  s.cfg.BaseURL + "?payment=cancelled",
		"failureUrl": s.cfg.BaseURL + "?payment=failed",
	}

	resp, err := s.gateway.CreateCheckout(ctx, payload)
	if err != nil {
		monitoring.TrackCheckout("gateway_error")
		return CheckoutSession{}, &GatewayError{StatusCode: 0, Message: err.Error()}
	}
	if !resp.OK() {
		monitoring.TrackCheckout("gateway_error")
		return CheckoutSession{}, &GatewayError{StatusCode: resp.StatusCode, Message: resp.ErrorMessage()}
	}

	var result yoco.CheckoutResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return CheckoutSession{}, &GatewayError{StatusCode: resp.StatusCode, Message: "malformed checkout response"}
	}

	pc.CheckoutID = result.ID
	if err := s.pending.Save(ctx, pc); err != nil {
		return CheckoutSession{}, err
	}

	monitoring.TrackCheckout("created")
	return CheckoutSession{
		CheckoutID:  result.ID,
		RedirectURL: result.RedirectURL,
		Amount:      amount,
		Reference:   userID,
	}, nil
}
