package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/monitoring"
	"github.com/themancarve/tickets/internal/store"
)

type TicketClaimer interface {
	ListTickets(ctx context.Context, filter store.TicketFilter) ([]models.Ticket, error)
	ClaimAvailable(ctx context.Context, ticketType string, a store.Assignment) (models.Ticket, error)
}

type PendingLoader interface {
	Load(ctx context.Context, userID string) (models.PendingCheckout, error)
	Clear(ctx context.Context, userID string) error
}

type QRLogAppender interface {
	AppendQRLog(ctx context.Context, entry *models.QRLog) error
}

// ReconcileService associates a completed external payment with a specific
// ticket. The gateway redirect carries nothing but payment=success, so the
// order is restored from the pending-checkout slot, the store is polled for a
// webhook-assigned ticket, and only if that window closes does the service
// claim a ticket itself.
type ReconcileService struct {
	tickets TicketClaimer
	pending PendingLoader
	logs    QRLogAppender

	attempts int
	interval time.Duration
}

func NewReconcileService(tickets TicketClaimer, pending PendingLoader, logs QRLogAppender, attempts int, interval time.Duration) *ReconcileService {
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ReconcileService{tickets: tickets, pending: pending, logs: logs, attempts: attempts, interval: interval}
}

// Resolve runs the post-payment state machine for one buyer and returns the
// ticket that ended up theirs.
func (s *ReconcileService) Resolve(ctx context.Context, userID string) (models.Ticket, error) {
	pc, err := s.pending.Load(ctx, userID)
	if err != nil {
		return models.Ticket{}, err
	}

	ticket, err := s.pollForConfirmed(ctx, userID, pc.TicketType)
	switch {
	case err == nil:
		monitoring.TrackAssignment("webhook", "confirmed")
	case errors.Is(err, ErrAssignmentTimeout):
		log.Printf("reconcile: no confirmed %s ticket for user %s after %d attempts, self-assigning", pc.TicketType, userID, s.attempts)
		ticket, err = s.selfAssign(ctx, pc)
		if err != nil {
			monitoring.TrackAssignment("self_assign", "failed")
			return models.Ticket{}, err
		}
		monitoring.TrackAssignment("self_assign", "confirmed")
	default:
		return models.Ticket{}, err
	}

	return s.resolved(ctx, ticket, pc)
}

// pollForConfirmed waits, bounded, for the webhook to win the race and assign
// a ticket server-side.
func (s *ReconcileService) pollForConfirmed(ctx context.Context, userID, ticketType string) (models.Ticket, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		confirmed, err := s.tickets.ListTickets(ctx, store.TicketFilter{
			TicketType: ticketType,
			UserID:     userID,
			Status:     models.StatusConfirmed,
		})
		if err != nil {
			return models.Ticket{}, err
		}
		if len(confirmed) > 0 {
			return confirmed[0], nil
		}
		// No wait after the final query; the fallback takes over
		// immediately.
		if attempt == s.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return models.Ticket{}, ctx.Err()
		case <-time.After(s.interval):
		}
	}
	return models.Ticket{}, ErrAssignmentTimeout
}

// selfAssign is the compensating action: claim one available ticket of the
// requested type with the restored buyer fields. Finding none is terminal and
// writes nothing.
func (s *ReconcileService) selfAssign(ctx context.Context, pc models.PendingCheckout) (models.Ticket, error) {
	paymentID := pc.CheckoutID
	if paymentID == "" {
		paymentID = fmt.Sprintf("manual_%d", time.Now().UnixMilli())
	}

	ticket, err := s.tickets.ClaimAvailable(ctx, pc.TicketType, store.Assignment{
		UserID:        pc.UserID,
		UserName:      pc.FullName,
		UserEmail:     pc.Email,
		Phone:         pc.Phone,
		PaymentID:     paymentID,
		PaymentMethod: "yoco",
	})
	if errors.Is(err, store.ErrNoneAvailable) {
		return models.Ticket{}, ErrAssignmentFailure
	}
	if err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

// resolved finishes the flow: append the assignment's QR issuance record and
// release the pending slot. Both are best-effort relative to the assignment
// itself, which already happened.
func (s *ReconcileService) resolved(ctx context.Context, ticket models.Ticket, pc models.PendingCheckout) (models.Ticket, error) {
	entry := &models.QRLog{
		TicketID:    ticket.ID,
		TicketType:  ticket.TicketType,
		UserName:    pc.FullName,
		UserEmail:   pc.Email,
		QRData:      ticket.ID.String(),
		GeneratedAt: time.Now(),
	}
	if err := s.logs.AppendQRLog(ctx, entry); err != nil {
		log.Printf("reconcile: qr log append failed for ticket %s: %v", ticket.ID, err)
	}

	if err := s.pending.Clear(ctx, pc.UserID); err != nil {
		log.Printf("reconcile: pending checkout clear failed for user %s: %v", pc.UserID, err)
	}
	return ticket, nil
}
