package services

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/themancarve/tickets/internal/models"
)

type EventInfo struct {
	Name  string
	Date  string
	Venue string
}

// RenderReceiptPDF writes a one-page ticket receipt: event block, ticket
// block, scan QR code, and entry status.
func RenderReceiptPDF(w io.Writer, ticket models.Ticket, event EventInfo) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, event.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Official Ticket Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Event Information", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	writeField(pdf, "Date", event.Date)
	writeField(pdf, "Venue", event.Venue)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Ticket Details", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	writeField(pdf, "Ticket Type", ticket.TicketType+" Admission")
	writeField(pdf, "Price", fmt.Sprintf("R%d.00", ticket.Price))
	writeField(pdf, "Customer", ticket.UserName)
	writeField(pdf, "Email", ticket.UserEmail)
	if ticket.PurchaseDate != nil {
		writeField(pdf, "Purchase Date", ticket.PurchaseDate.Format(time.DateOnly))
	}
	writeField(pdf, "Ticket ID", ticket.ID.String())
	if ticket.Scanned {
		writeField(pdf, "Status", "USED - Entry Granted")
	} else {
		writeField(pdf, "Status", "VALID - Ready for Entry")
	}

	png, err := qrcode.Encode(ticket.ID.String(), qrcode.Medium, 256)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("ticket-qr", 150, 60, 40, 40, false, opts, 0, "")
	pdf.SetXY(150, 102)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(40, 4, "Scan for Entry", "", 1, "C", false, 0, "")

	pdf.SetY(200)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Present this ticket (digital or printed) at the event entrance. "+
		"Valid for one entry only. All sales are final.", "", "L", false)

	return pdf.Output(w)
}

func writeField(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 7, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}
