// Package ingest parses a CRM CSV export into property records.
//
// The export schema is not enforced: absent columns simply disable the
// derivations and checks that depend on them. The only hard requirement is a
// readable header row.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"landfolio/server/config"
	"landfolio/server/internal/models"
)

// Result is the parsed upload: the raw records plus the set of columns the
// file actually carried, which gates column-dependent derivations.
type Result struct {
	Properties []models.Property
	Columns    map[string]bool
	RowCount   int
}

// HasColumns reports whether every named column was present in the upload.
func (r *Result) HasColumns(names ...string) bool {
	for _, name := range names {
		if !r.Columns[name] {
			return false
		}
	}
	return true
}

// AvailableKeyFields splits config.KeyFields into the columns the upload
// carried and the ones it is missing, for the upload response.
func (r *Result) AvailableKeyFields() (available, missing []string) {
	for _, name := range config.KeyFields {
		if r.Columns[name] {
			available = append(available, name)
		} else {
			missing = append(missing, name)
		}
	}
	return available, missing
}

// ParseCSV reads a CSV export with a header row. A file whose header cannot
// be read is a whole-file error; anything row-level degrades per the
// coercion rules (unparseable numerics -> 0, unparseable dates -> nil).
func ParseCSV(r io.Reader, logger *logrus.Logger) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]bool, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		columns[name] = true
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("CSV header contains no named columns")
	}

	result := &Result{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row is skipped, not fatal.
			logger.WithError(err).Warn("Skipping unreadable CSV row")
			continue
		}

		raw := make(map[string]string, len(index))
		for name, i := range index {
			if i < len(record) {
				raw[name] = strings.TrimSpace(record[i])
			}
		}
		result.Properties = append(result.Properties, buildProperty(raw))
		result.RowCount++
	}

	logger.WithFields(logrus.Fields{
		"rows":    result.RowCount,
		"columns": len(columns),
	}).Info("Parsed CSV upload")

	return result, nil
}

func buildProperty(raw map[string]string) models.Property {
	return models.Property{
		ID:            raw[config.FieldID],
		DisplayName:   raw[config.FieldDisplayName],
		Status:        raw[config.FieldStatus],
		State:         raw[config.FieldState],
		County:        raw[config.FieldCounty],
		StreetAddress: raw[config.FieldAddress],
		Owner:         raw[config.FieldOwner],
		ListingType:   raw[config.FieldListingType],
		ParcelNumber:  raw[config.FieldParcelNumber],
		ListingNumber: raw[config.FieldListingNumber],

		CostBasis:            ParseAmount(raw[config.FieldCostBasis]),
		AskingPrice:          ParseAmount(raw[config.FieldCurrentValue]),
		OriginalListingPrice: ParseAmount(raw[config.FieldInitialPrice]),
		SurveyedAcres:        ParseAmount(raw[config.FieldAcres]),

		DatePurchased:  ParseDate(raw[config.FieldPurchaseDate]),
		MLSListingDate: ParseDate(raw[config.FieldListingDate]),

		Raw: raw,
	}
}

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseAmount coerces a raw cell to a decimal amount. Currency formatting is
// stripped; anything unparseable becomes 0 so arithmetic never raises.
func ParseAmount(value string) decimal.Decimal {
	value = amountReplacer.Replace(strings.TrimSpace(value))
	if value == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// dateLayouts covers the formats seen in CRM exports: ISO dates, US-style
// slashed dates, and full timestamps.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate coerces a raw cell to a calendar date, or nil when the cell is
// empty or unparseable.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
