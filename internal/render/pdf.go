// Package render lays out printable ticket documents.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/olympic-ticketing/internal/service"
)

// ContentTypePDF is the MIME type of documents produced by PDFRenderer.
const ContentTypePDF = "application/pdf"

const qrImageName = "ticket-qr"

// PDFRenderer renders a ticket as a single A4 page: a header band, the
// event and purchase details, and a QR code of the stored payload.
type PDFRenderer struct {
	qrPixels int
}

// NewPDFRenderer returns a renderer producing 512px QR codes.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{qrPixels: 512} }

var _ service.DocumentRenderer = (*PDFRenderer)(nil)

// Render implements service.DocumentRenderer.
func (r *PDFRenderer) Render(ctx context.Context, doc service.TicketDocument) (service.Document, error) {
	if err := ctx.Err(); err != nil {
		return service.Document{}, err
	}
	if doc.QRPayload == "" {
		return service.Document{}, errors.New("render: ticket has no QR payload")
	}
	png, err := qrcode.Encode(doc.QRPayload, qrcode.Medium, r.qrPixels)
	if err != nil {
		return service.Document{}, fmt.Errorf("render: qr code: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Billet Paris 2024 "+doc.PurchaseKey, true)
	pdf.SetCreator("olympic-ticketing", true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	// Core fonts are cp1252; accents in names need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFillColor(0, 85, 164)
	pdf.Rect(0, 0, 210, 38, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(20, 10)
	pdf.CellFormat(170, 12, tr("Jeux Olympiques Paris 2024"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetX(20)
	pdf.CellFormat(170, 8, tr("Billet électronique"), "", 1, "L", false, 0, "")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetY(50)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(170, 9, tr(doc.EventName), "", "L", false)
	pdf.Ln(3)

	rows := [][2]string{
		{"Sport", doc.SportName},
		{"Lieu", doc.Venue},
		{"Date", doc.Date},
		{"Heure", doc.Time},
		{"Offre", doc.OfferName},
		{"Quantité", fmt.Sprintf("%d", doc.Quantity)},
		{"Places", fmt.Sprintf("%d", doc.Seats)},
		{"Prix total", doc.TotalPrice.StringFixed(2) + " EUR"},
		{"Titulaire", doc.HolderName},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 8, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(130, 8, tr(row[1]), "", 1, "L", false, 0, "")
	}

	qrTop := pdf.GetY() + 10
	pdf.RegisterImageOptionsReader(qrImageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(qrImageName, 65, qrTop, 80, 80, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetY(qrTop + 84)
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(170, 6, "Clef d'achat : "+doc.PurchaseKey, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.MultiCell(170, 5, tr("Présentez ce QR code à l'entrée du site. Billet nominatif, non revendable."), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return service.Document{}, fmt.Errorf("render: pdf: %w", err)
	}
	return service.Document{Content: buf.Bytes(), ContentType: ContentTypePDF}, nil
}
