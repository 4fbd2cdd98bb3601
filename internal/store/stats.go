package store

import (
	"context"

	"github.com/themancarve/tickets/internal/models"
)

type TicketStats struct {
	TotalTickets   int64 `json:"totalTickets"`
	SoldTickets    int64 `json:"soldTickets"`
	ScannedTickets int64 `json:"scannedTickets"`
	QRGenerated    int64 `json:"qrGenerated"`
	Revenue        int64 `json:"revenue"`
}

func (s *Store) TicketStatsSummary(ctx context.Context) (TicketStats, error) {
	var stats TicketStats

	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).Count(&stats.TotalTickets).Error; err != nil {
		return TicketStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ?", models.StatusConfirmed).Count(&stats.SoldTickets).Error; err != nil {
		return TicketStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("scanned = ?", true).Count(&stats.ScannedTickets).Error; err != nil {
		return TicketStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("qr_code_generated = ?", true).Count(&stats.QRGenerated).Error; err != nil {
		return TicketStats{}, err
	}

	row := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ?", models.StatusConfirmed).
		Select("COALESCE(SUM(price), 0)").Row()
	if err := row.Scan(&stats.Revenue); err != nil {
		return TicketStats{}, err
	}

	return stats, nil
}

// AvailableByType counts unsold inventory per ticket type, feeding the
// availability gauges.
func (s *Store) AvailableByType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ?", models.StatusAvailable).
		Select("ticket_type, COUNT(*)").
		Group("ticket_type").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var ticketType string
		var count int64
		if err := rows.Scan(&ticketType, &count); err != nil {
			return nil, err
		}
		counts[ticketType] = count
	}
	return counts, rows.Err()
}
