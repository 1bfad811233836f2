package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"landfolio/server/internal/aggregate"
	"landfolio/server/internal/models"
)

// InventoryOptions controls the inventory report layout.
type InventoryOptions struct {
	GeneratedAt time.Time

	// PageBreakSections starts every status section on a fresh page.
	PageBreakSections bool
}

type inventoryColumn struct {
	header string
	width  float64
	align  string
	wrap   bool
	value  func(*models.DerivedProperty) string
}

// inventoryColumns is the fixed 16-column layout of the main tables. Name,
// owner and county wrap onto extra lines instead of truncating.
var inventoryColumns = []inventoryColumn{
	{"Property", 42, "L", true, func(d *models.DerivedProperty) string {
		if d.DisplayName == "" {
			return d.ID
		}
		return d.DisplayName
	}},
	{"Owner", 30, "L", true, func(d *models.DerivedProperty) string { return orNA(d.Owner) }},
	{"State", 9, "C", false, func(d *models.DerivedProperty) string { return orNA(d.State) }},
	{"County", 24, "L", true, func(d *models.DerivedProperty) string { return d.County }},
	{"Acres", 14, "R", false, func(d *models.DerivedProperty) string { return fmtAcres(d.SurveyedAcres) }},
	{"Purchased", 19, "C", false, func(d *models.DerivedProperty) string { return fmtDate(d.DatePurchased) }},
	{"Cost Basis", 21, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.CostBasis) }},
	{"Cur. Price", 21, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.AskingPrice) }},
	{"Margin", 21, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.CurrentMargin) }},
	{"Margin %", 14, "R", false, func(d *models.DerivedProperty) string { return fmtPct(d.CurrentMarginPct) }},
	{"Markup %", 14, "R", false, func(d *models.DerivedProperty) string { return fmtPct(d.MarkupPct) }},
	{"$/Acre", 18, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.PricePerAcre) }},
	{"Cost/Acre", 18, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.CostBasisPerAcre) }},
	{"Orig. Price", 21, "R", false, func(d *models.DerivedProperty) string { return fmtMoney(d.OriginalListingPrice) }},
	{"%OLP", 13, "R", false, func(d *models.DerivedProperty) string { return fmtPct(d.PercentOfInitial) }},
	{"Days", 12, "R", false, func(d *models.DerivedProperty) string { return fmtDays(d.DaysHeld) }},
}

const inventoryLineHeight = 4.5

// Inventory renders the full inventory report: legal landscape, one table
// per status x listing-type section with Primary sections first, a
// portfolio summary block between the listing types, and a closing
// definitions page. Sections with no matching records are omitted.
func Inventory(properties []models.DerivedProperty, opts InventoryOptions) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "Legal", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 6, fmt.Sprintf("Land Inventory Report  |  Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 11, "Land Inventory Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s  |  %d properties",
		opts.GeneratedAt.Format("January 2, 2006 3:04 PM"), len(properties)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	primary, secondary := splitByListingType(properties)

	writeListingSections(pdf, primary, "Primary", opts.PageBreakSections)
	writePortfolioSummary(pdf, properties)
	writeListingSections(pdf, secondary, "Secondary", opts.PageBreakSections)
	writeGlossary(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render inventory PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func splitByListingType(properties []models.DerivedProperty) (primary, secondary []models.DerivedProperty) {
	for _, p := range properties {
		if p.IsSecondary() {
			secondary = append(secondary, p)
		} else {
			primary = append(primary, p)
		}
	}
	return primary, secondary
}

func writeListingSections(pdf *fpdf.Fpdf, properties []models.DerivedProperty, listingType string, pageBreak bool) {
	for _, status := range aggregate.StatusOrder(properties) {
		var section []models.DerivedProperty
		for _, p := range properties {
			if p.Status == status {
				section = append(section, p)
			}
		}
		// Empty sections never render, not even as a bare heading.
		if len(section) == 0 {
			continue
		}
		aggregate.SortProperties(section)

		if pageBreak {
			pdf.AddPage()
		}
		writeSection(pdf, fmt.Sprintf("%s - %s Listings", orNA(status), listingType), section)
	}
}

func writeSection(pdf *fpdf.Fpdf, title string, section []models.DerivedProperty) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	writeTableHeader(pdf)
	for i := range section {
		writeTableRow(pdf, &section[i])
	}
	writeSubtotals(pdf, "Section Subtotals", aggregate.Summarize(section))
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(60, 60, 60)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range inventoryColumns {
		pdf.CellFormat(col.width, 6, col.header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

func writeTableRow(pdf *fpdf.Fpdf, d *models.DerivedProperty) {
	pdf.SetFont("Helvetica", "", 7)

	// Row height follows the tallest wrapped cell.
	lines := 1
	values := make([]string, len(inventoryColumns))
	for i, col := range inventoryColumns {
		values[i] = col.value(d)
		if col.wrap {
			if n := len(pdf.SplitText(values[i], col.width-2)); n > lines {
				lines = n
			}
		}
	}
	rowH := float64(lines) * inventoryLineHeight

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+rowH > pageH-bottom-10 {
		pdf.AddPage()
		writeTableHeader(pdf)
		pdf.SetFont("Helvetica", "", 7)
	}

	x := pdf.GetX()
	y := pdf.GetY()
	for i, col := range inventoryColumns {
		pdf.Rect(x, y, col.width, rowH, "D")
		if col.wrap {
			pdf.SetXY(x+1, y)
			pdf.MultiCell(col.width-2, inventoryLineHeight, values[i], "", col.align, false)
		} else {
			pdf.SetXY(x, y)
			pdf.CellFormat(col.width, rowH, values[i], "", 0, col.align, false, 0, "")
		}
		x += col.width
	}
	left, _, _, _ := pdf.GetMargins()
	pdf.SetXY(left, y+rowH)
}

func writeSubtotals(pdf *fpdf.Fpdf, title string, s aggregate.Summary) {
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 8)

	avgDays := "N/A"
	if s.AvgDaysHeld != nil {
		avgDays = fmt.Sprintf("%.0f", *s.AvgDaysHeld)
	}
	line := fmt.Sprintf("%s:  %d properties  |  Acres: %s  |  Cost Basis: %s  |  Value: %s  |  Margin: %s  |  Avg Days Held: %s  |  Complete: %d/%d",
		title,
		s.Properties,
		fmtAcres(s.TotalAcres),
		fmtMoney(s.TotalCostBasis),
		fmtMoney(s.TotalValue),
		fmtMoney(s.TotalMargin),
		avgDays,
		s.CompleteCount,
		s.Properties,
	)
	pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func writePortfolioSummary(pdf *fpdf.Fpdf, properties []models.DerivedProperty) {
	s := aggregate.Summarize(properties)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 9, "Portfolio Summary", "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	rows := [][2]string{
		{"Total Properties", fmt.Sprintf("%d", s.Properties)},
		{"Total Acres", fmtAcres(s.TotalAcres)},
		{"Total Cost Basis", fmtMoney(s.TotalCostBasis)},
		{"Total Portfolio Value", fmtMoney(s.TotalValue)},
		{"Total Margin", fmtMoney(s.TotalMargin)},
		{"Avg Price Reductions", humanize.CommafWithDigits(s.AvgPriceReductions, 1)},
		{"Complete Records", fmt.Sprintf("%d of %d", s.CompleteCount, s.Properties)},
	}
	if s.AvgDaysHeld != nil {
		rows = append(rows, [2]string{"Avg Days Held", fmt.Sprintf("%.0f", *s.AvgDaysHeld)})
	}

	for _, row := range rows {
		pdf.CellFormat(55, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, row[1], "", 1, "R", false, 0, "")
	}
}

// glossary maps the report's column shorthand to plain definitions; the
// fixed disclaimer closes the report.
var glossary = [][2]string{
	{"Cost Basis", "Total acquisition cost of the property, including closing costs."},
	{"Cur. Price", "Current asking price of the active listing."},
	{"Margin", "Current asking price minus cost basis."},
	{"Margin %", "Margin as a percentage of the current asking price."},
	{"Markup %", "Margin as a percentage of the cost basis."},
	{"$/Acre", "Current asking price divided by surveyed acres."},
	{"Cost/Acre", "Cost basis divided by surveyed acres."},
	{"Orig. Price", "Price at which the property was originally listed."},
	{"%OLP", "Current asking price as a percentage of the original listing price."},
	{"Days", "Days held: elapsed days since the purchase date."},
	{"Listing Type", "Primary is the main record; Secondary is an alternate MLS or acreage listing of the same asset."},
}

const disclaimer = "This report is provided for internal portfolio review only; values are unaudited estimates and do not constitute an appraisal, an offer to sell, or a guarantee of sale proceeds."

func writeGlossary(pdf *fpdf.Fpdf) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Definitions", "", 1, "L", false, 0, "")

	for _, entry := range glossary {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(32, 6, entry[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 6, entry[1], "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 5, disclaimer, "", "L", false)
}
