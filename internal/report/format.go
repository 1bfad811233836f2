// Package report renders the two printable artifacts: the missing-
// information checklist and the full inventory report.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Printed reports distinguish "not applicable" from a zero value: absent or
// non-positive numerics render as the literal "N/A", never as $0 or blank.

func fmtMoney(d decimal.Decimal) string {
	if d.Sign() <= 0 {
		return "N/A"
	}
	f, _ := d.Float64()
	return "$" + humanize.CommafWithDigits(f, 0)
}

func fmtPct(d decimal.Decimal) string {
	if d.Sign() <= 0 {
		return "N/A"
	}
	f, _ := d.Float64()
	return fmt.Sprintf("%.1f%%", f)
}

func fmtAcres(d decimal.Decimal) string {
	if d.Sign() <= 0 {
		return "N/A"
	}
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 1)
}

func fmtDays(days *int) string {
	if days == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *days)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("01/02/2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// truncate hard-truncates with an ellipsis; used for checklist names where
// wrapping would break the grid.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// clip cuts a checklist label to the checkbox column width.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// timestampedFilename embeds the generation time so successive downloads
// never collide.
func timestampedFilename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", prefix, t.Format("20060102_150405"))
}

// ChecklistFilename is the download name for the checklist report.
func ChecklistFilename(t time.Time) string {
	return timestampedFilename("missing_info_checklist", t)
}

// InventoryFilename is the download name for the inventory report.
func InventoryFilename(t time.Time) string {
	return timestampedFilename("land_inventory_report", t)
}
