package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRLog is an append-only audit record of QR issuance. One row is written per
// ticket at bulk-create time (blank buyer fields) and another at assignment
// time. The scan action never touches this table; scan state lives on the
// Ticket itself.
type QRLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null;index" json:"ticketId"`
	TicketType  string    `gorm:"not null" json:"ticketType"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	QRData      string    `gorm:"not null" json:"qrData"`
	GeneratedAt time.Time `gorm:"not null" json:"generatedAt"`
	Scanned     bool      `gorm:"not null;default:false" json:"scanned"`
}

func (log *QRLog) BeforeCreate(tx *gorm.DB) (err error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return
}
