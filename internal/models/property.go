package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity status values recognized by the grouping order. Anything else
// is a data-quality defect in the export and sorts after the known set.
const (
	StatusPurchased     = "Purchased"
	StatusListed        = "Listed"
	StatusUnderContract = "Under Contract"
	StatusOffMarket     = "Off Market"
)

// Listing types. A Secondary record is an alternate MLS/acreage listing of
// the same underlying asset as a Primary record.
const (
	ListingTypePrimary   = "Primary"
	ListingTypeSecondary = "Secondary"
)

// UnknownCounty is the sentinel used when the export has no county value.
const UnknownCounty = "Unknown County"

// statusPriority drives the fixed display order of status groups.
var statusPriority = map[string]int{
	StatusPurchased:     0,
	StatusListed:        1,
	StatusUnderContract: 2,
	StatusOffMarket:     3,
}

// StatusPriority returns the display rank of a status. Unrecognized statuses
// get a rank after all known ones; ties between them are broken by encounter
// order at aggregation time.
func StatusPriority(status string) int {
	if p, ok := statusPriority[status]; ok {
		return p
	}
	return len(statusPriority)
}

// KnownStatus reports whether the status is part of the fixed display order.
func KnownStatus(status string) bool {
	_, ok := statusPriority[status]
	return ok
}

// Property is one row of the CRM export. String fields keep the raw cell
// value; numeric fields are coerced at ingest (unparseable -> 0) and dates
// are nil when missing or unparseable. Raw holds every cell by column name
// for the completeness check, which works on the export's own vocabulary.
type Property struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Status        string `json:"status"`
	State         string `json:"state"`
	County        string `json:"county"`
	StreetAddress string `json:"street_address"`
	Owner         string `json:"owner"`
	ListingType   string `json:"listing_type"`
	ParcelNumber  string `json:"parcel_number"`
	ListingNumber string `json:"listing_number"`

	CostBasis            decimal.Decimal `json:"cost_basis"`
	AskingPrice          decimal.Decimal `json:"asking_price"`
	OriginalListingPrice decimal.Decimal `json:"original_listing_price"`
	SurveyedAcres        decimal.Decimal `json:"surveyed_acres"`

	DatePurchased  *time.Time `json:"date_purchased"`
	MLSListingDate *time.Time `json:"mls_listing_date"`

	Raw map[string]string `json:"-"`
}

// IsSecondary reports whether the record is an alternate listing of a
// primary asset. Records without an explicit listing type count as Primary.
func (p *Property) IsSecondary() bool {
	return p.ListingType == ListingTypeSecondary
}

// DerivedProperty is a Property plus the metrics computed once per row right
// after ingestion. Derived values are pure functions of the raw row (days
// held being anchored at derivation time) and are never written back.
type DerivedProperty struct {
	Property

	PriceReductions  int             `json:"price_reductions"`
	DaysHeld         *int            `json:"days_held"`
	CurrentMargin    decimal.Decimal `json:"current_margin"`
	CurrentMarginPct decimal.Decimal `json:"current_margin_pct"`
	PricePerAcre     decimal.Decimal `json:"price_per_acre"`
	CostBasisPerAcre decimal.Decimal `json:"cost_basis_per_acre"`
	MarkupPct        decimal.Decimal `json:"markup_percentage"`
	PercentOfInitial decimal.Decimal `json:"percent_of_initial_listing"`

	// MissingFields holds the checklist labels of unpopulated required
	// fields, in registry order; empty means the record is complete.
	MissingFields []string `json:"missing_fields"`

	// Lead enrichment, populated only by an explicit refresh pass.
	LeadCount  int    `json:"lead_count"`
	LeadStatus string `json:"lead_status,omitempty"`
}

// Complete reports whether every required field is populated.
func (d *DerivedProperty) Complete() bool {
	return len(d.MissingFields) == 0
}

// MissingInformation renders the completeness status for display: the
// literal "Complete", or the missing labels joined in registry order.
func (d *DerivedProperty) MissingInformation() string {
	if d.Complete() {
		return "Complete"
	}
	out := d.MissingFields[0]
	for _, label := range d.MissingFields[1:] {
		out += ", " + label
	}
	return out
}

// Lead enrichment status values.
const (
	LeadStatusOK    = "ok"
	LeadStatusError = "error"
)
