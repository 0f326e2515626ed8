package tickets

import (
	"bytes"
	"fmt"

	"github.com/signintech/gopdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
)

const (
	pdfMarginX = 40.0
	qrSize     = 150.0
)

// renderPDF builds the printable ticket. A QR rendering failure degrades to a
// printed placeholder (the code itself is still on the page); a missing font
// makes the whole artifact unbuildable and is fatal.
func renderPDF(cfg config.TicketConfig, order *models.Order, code, verifyURL string) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont("ticket", cfg.FontPath); err != nil {
		return nil, fmt.Errorf("load ticket font: %w", err)
	}

	if err := pdf.SetFont("ticket", "", 20); err != nil {
		return nil, fmt.Errorf("set ticket font: %w", err)
	}
	pdf.SetXY(pdfMarginX, 40)
	title := "E-TICKET"
	if cfg.VenueName != "" {
		title = cfg.VenueName + " / E-TICKET"
	}
	pdf.Cell(nil, title)

	if err := pdf.SetFont("ticket", "", 12); err != nil {
		return nil, fmt.Errorf("set ticket font: %w", err)
	}

	lines := []struct {
		label string
		value string
	}{
		{"Order", order.ID},
		{"Show", order.ShowID},
		{"Event", order.EventID},
		{"Name", order.BuyerName},
		{"Tickets", fmt.Sprintf("%d", order.Qty)},
		{"Paid", fmt.Sprintf("%s %s", order.Amount.StringFixed(2), order.Currency)},
		{"Code", code},
	}
	y := 90.0
	for _, line := range lines {
		pdf.SetXY(pdfMarginX, y)
		pdf.Cell(nil, fmt.Sprintf("%s: %s", line.label, line.value))
		y += 22
	}

	y += 20
	drawQR(pdf, verifyURL, code, y)

	pdf.SetXY(pdfMarginX, y+qrSize+30)
	pdf.Cell(nil, "Present this ticket at the entrance. Valid for one admission.")

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("write ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawQR(pdf *gopdf.GoPdf, verifyURL, code string, y float64) {
	png, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err == nil {
		if holder, herr := gopdf.ImageHolderByBytes(png); herr == nil {
			if ierr := pdf.ImageByHolder(holder, pdfMarginX, y, &gopdf.Rect{W: qrSize, H: qrSize}); ierr == nil {
				return
			}
		}
	}

	// Placeholder keeps the ticket usable: the door can type the code in.
	pdf.SetXY(pdfMarginX, y)
	pdf.Cell(nil, "[QR unavailable]")
	pdf.SetXY(pdfMarginX, y+20)
	pdf.Cell(nil, "Verification code: "+code)
}
