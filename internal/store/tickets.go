package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/themancarve/tickets/internal/models"
)

// Patch is a partial-field update keyed by column name.
type Patch map[string]interface{}

// TicketFilter narrows List to equality predicates, mirroring the queries the
// dashboards and the assignment flow issue.
type TicketFilter struct {
	TicketType string
	Status     string
	UserID     string
	UserEmail  string
	Scanned    *bool
	// PricedOnly excludes zero-priced records, the guard the webhook
	// assignment query applies so broken inventory is never sold.
	PricedOnly bool
}

// Assignment is the buyer state written onto a ticket when it moves from
// available to confirmed.
type Assignment struct {
	UserID        string
	UserName      string
	UserEmail     string
	Phone         string
	PaymentID     string
	PaymentMethod string
	// Price overrides the ticket's provisioned price when non-zero; the
	// webhook path reports the amount actually charged.
	Price int
}

func (a Assignment) patch(now time.Time) Patch {
	p := Patch{
		"status":            models.StatusConfirmed,
		"user_id":           a.UserID,
		"user_name":         a.UserName,
		"user_email":        a.UserEmail,
		"phone":             a.Phone,
		"purchase_date":     now,
		"scanned":           false,
		"qr_code_generated": true,
		"qr_generated_at":   now,
		"payment_id":        a.PaymentID,
		"payment_method":    a.PaymentMethod,
	}
	if a.Price > 0 {
		p["price"] = a.Price
	}
	return p
}

func (s *Store) ListTickets(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	q := s.db.WithContext(ctx).Model(&models.Ticket{})
	if filter.TicketType != "" {
		q = q.Where("ticket_type = ?", filter.TicketType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.UserEmail != "" {
		q = q.Where("user_email = ?", filter.UserEmail)
	}
	if filter.Scanned != nil {
		q = q.Where("scanned = ?", *filter.Scanned)
	}
	if filter.PricedOnly {
		q = q.Where("price > 0")
	}

	var tickets []models.Ticket
	if err := q.Order("ticket_type, created_at").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *Store) GetTicket(ctx context.Context, id uuid.UUID) (models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).First(&ticket, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Ticket{}, ErrNotFound
	}
	if err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

// CreateTicketBatch provisions count identical tickets of one type. Each gets
// a freshly generated id, a QR payload equal to that id, and an issuance row
// in the QR log with blank buyer fields.
func (s *Store) CreateTicketBatch(ctx context.Context, ticketType string, price, count int) ([]models.Ticket, error) {
	created := make([]models.Ticket, 0, count)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for i := 0; i < count; i++ {
			ticket := models.Ticket{
				ID:         uuid.New(),
				TicketType: ticketType,
				Price:      price,
				Status:     models.StatusAvailable,
			}
			png, err := qrcode.Encode(ticket.ID.String(), qrcode.Medium, 256)
			if err != nil {
				return err
			}
			ticket.QRData = ticket.ID.String()
			ticket.QRCodeURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
			ticket.QRCodeGenerated = true
			ticket.QRGeneratedAt = &now

			if err := tx.Create(&ticket).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.QRLog{
				TicketID:    ticket.ID,
				TicketType:  ticketType,
				QRData:      ticket.QRData,
				GeneratedAt: now,
			}).Error; err != nil {
				return err
			}
			created = append(created, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range created {
		s.events.PublishTicketChange(ctx, EventCreated, t)
	}
	return created, nil
}

// UpdateTicket applies a partial-field update, last write wins.
func (s *Store) UpdateTicket(ctx context.Context, id uuid.UUID, patch Patch) (models.Ticket, error) {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(map[string]interface{}(patch))
	if res.Error != nil {
		return models.Ticket{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Ticket{}, ErrNotFound
	}
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	s.events.PublishTicketChange(ctx, EventUpdated, ticket)
	return ticket, nil
}

// ClaimAvailable confirms one available ticket of the requested type for the
// buyer. The write carries a status precondition, so two concurrent claims for
// the last unit cannot both succeed; the loser moves on to the next candidate
// or reports ErrNoneAvailable.
func (s *Store) ClaimAvailable(ctx context.Context, ticketType string, a Assignment) (models.Ticket, error) {
	now := time.Now()
	patch := map[string]interface{}(a.patch(now))

	for attempt := 0; attempt < 3; attempt++ {
		var candidate models.Ticket
		err := s.db.WithContext(ctx).
			Where("ticket_type = ? AND status = ? AND price > 0", ticketType, models.StatusAvailable).
			Order("created_at").
			First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ticket{}, ErrNoneAvailable
		}
		if err != nil {
			return models.Ticket{}, err
		}

		res := s.db.WithContext(ctx).Model(&models.Ticket{}).
			Where("id = ? AND status = ?", candidate.ID, models.StatusAvailable).
			Updates(patch)
		if res.Error != nil {
			return models.Ticket{}, res.Error
		}
		if res.RowsAffected == 0 {
			// Another writer claimed this one between the read and the
			// write; try the next candidate.
			continue
		}

		ticket, err := s.GetTicket(ctx, candidate.ID)
		if err != nil {
			return models.Ticket{}, err
		}
		s.events.PublishTicketChange(ctx, EventConfirmed, ticket)
		return ticket, nil
	}

	return models.Ticket{}, ErrNoneAvailable
}

// MarkScanned flips the entry-used flag, only ever false to true and only on
// confirmed tickets. Callers are expected to have checked the current state;
// the status precondition here keeps a stale read from granting entry twice.
func (s *Store) MarkScanned(ctx context.Context, id uuid.UUID) (models.Ticket, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ? AND scanned = ?", id, models.StatusConfirmed, false).
		Updates(map[string]interface{}{"scanned": true, "scanned_at": now})
	if res.Error != nil {
		return models.Ticket{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Ticket{}, ErrNotFound
	}
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	s.events.PublishTicketChange(ctx, EventScanned, ticket)
	return ticket, nil
}

func (s *Store) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Ticket{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.events.PublishTicketChange(ctx, EventDeleted, ticket)
	return nil
}

func (s *Store) DeleteAllTickets(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Ticket{}).Error
}
