package store

import (
	"context"

	"github.com/themancarve/tickets/internal/models"
)

// AppendQRLog records one QR issuance. The log is append-only; nothing in the
// system updates a row after it is written.
func (s *Store) AppendQRLog(ctx context.Context, entry *models.QRLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) ListQRLogs(ctx context.Context) ([]models.QRLog, error) {
	var logs []models.QRLog
	if err := s.db.WithContext(ctx).Order("generated_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
