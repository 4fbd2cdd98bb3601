package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Ticket is one admission unit. Tickets are pre-provisioned by an admin in
// bulk and assigned to a buyer on payment; the document id doubles as the QR
// payload printed on the receipt.
type Ticket struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TicketType      string     `gorm:"not null;index" json:"ticketType"`
	Price           int        `gorm:"not null" json:"price"`
	Status          string     `gorm:"not null;default:'available';index" json:"status"`
	UserID          string     `gorm:"index" json:"userId"`
	UserName        string     `json:"userName"`
	UserEmail       string     `gorm:"index" json:"userEmail"`
	Phone           string     `json:"phone"`
	PurchaseDate    *time.Time `json:"purchaseDate,omitempty"`
	Scanned         bool       `gorm:"not null;default:false" json:"scanned"`
	ScannedAt       *time.Time `json:"scannedAt,omitempty"`
	QRCodeGenerated bool       `gorm:"not null;default:false" json:"qrCodeGenerated"`
	QRGeneratedAt   *time.Time `json:"qrGeneratedAt,omitempty"`
	QRData          string     `json:"qrData"`
	QRCodeURL       string     `json:"qrCodeUrl"`
	PaymentID       string     `json:"paymentId"`
	PaymentMethod   string     `json:"paymentMethod"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
