package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"landfolio/server/internal/aggregate"
	"landfolio/server/internal/models"
)

const (
	checklistNameWidth  = 60
	checklistLabelWidth = 18
	checklistLineHeight = 6
)

// Checklist renders the missing-information checklist: letter portrait,
// grouped status -> state -> county -> property, with a three-column
// checkbox grid of each property's missing field labels. Records with
// nothing missing are not listed.
func Checklist(properties []models.DerivedProperty, generatedAt time.Time) ([]byte, error) {
	var incomplete []models.DerivedProperty
	for _, p := range properties {
		if !p.Complete() {
			incomplete = append(incomplete, p)
		}
	}
	aggregate.SortProperties(incomplete)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Missing Information Checklist", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s  |  %d of %d properties incomplete",
		generatedAt.Format("January 2, 2006 3:04 PM"), len(incomplete), len(properties)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(incomplete) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, "All properties have complete information.", "", 1, "L", false, 0, "")
	} else {
		writeChecklistBody(pdf, incomplete)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render checklist PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeChecklistBody(pdf *fpdf.Fpdf, properties []models.DerivedProperty) {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / 3

	var lastStatus, lastState, lastCounty string
	for _, p := range properties {
		if p.Status != lastStatus {
			lastStatus, lastState, lastCounty = p.Status, "", ""
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.SetFillColor(230, 230, 230)
			pdf.CellFormat(0, 8, orNA(p.Status), "", 1, "L", true, 0, "")
		}
		if p.State != lastState {
			lastState, lastCounty = p.State, ""
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 7, "  "+orNA(p.State), "", 1, "L", false, 0, "")
		}
		if p.County != lastCounty {
			lastCounty = p.County
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, "    "+p.County, "", 1, "L", false, 0, "")
		}

		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, checklistLineHeight,
			fmt.Sprintf("      %s  (%d missing)", truncate(name, checklistNameWidth), len(p.MissingFields)),
			"", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for i, label := range p.MissingFields {
			ln := 0
			if i%3 == 2 || i == len(p.MissingFields)-1 {
				ln = 1
			}
			pdf.CellFormat(colW, checklistLineHeight, "[  ] "+clip(label, checklistLabelWidth), "", ln, "L", false, 0, "")
		}
		pdf.Ln(1)
	}
}
