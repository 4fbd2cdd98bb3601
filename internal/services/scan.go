package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/themancarve/tickets/internal/models"
	"github.com/themancarve/tickets/internal/monitoring"
)

type TicketScanner interface {
	GetTicket(ctx context.Context, id uuid.UUID) (models.Ticket, error)
	MarkScanned(ctx context.Context, id uuid.UUID) (models.Ticket, error)
}

// ScanService marks tickets as used at the door. A short-lived Redis lock per
// ticket keeps two staff devices decoding the same QR code from racing each
// other.
type ScanService struct {
	tickets TicketScanner
	redis   *redis.Client
}

func NewScanService(tickets TicketScanner, redisClient *redis.Client) *ScanService {
	return &ScanService{tickets: tickets, redis: redisClient}
}

const scanLockTTL = 5 * time.Second

func scanLockKey(id uuid.UUID) string {
	return "scan_lock:" + id.String()
}

// Scan grants entry for a confirmed, unscanned ticket. Unknown, unconfirmed
// and already-scanned tickets are rejected with no fields changed.
func (s *ScanService) Scan(ctx context.Context, id uuid.UUID) (models.Ticket, error) {
	acquired, err := s.redis.SetNX(ctx, scanLockKey(id), 1, scanLockTTL).Result()
	if err != nil {
		return models.Ticket{}, err
	}
	if !acquired {
		return models.Ticket{}, ErrScanInFlight
	}
	defer s.redis.Del(ctx, scanLockKey(id))

	ticket, err := s.tickets.GetTicket(ctx, id)
	if err != nil {
		monitoring.TrackScan("not_found")
		return models.Ticket{}, err
	}
	if ticket.Scanned {
		monitoring.TrackScan("already_scanned")
		return ticket, ErrAlreadyScanned
	}
	if ticket.Status != models.StatusConfirmed {
		monitoring.TrackScan("not_confirmed")
		return ticket, ErrNotConfirmed
	}

	scanned, err := s.tickets.MarkScanned(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	monitoring.TrackScan("granted")
	return scanned, nil
}
