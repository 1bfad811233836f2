// Package derive computes the per-row portfolio metrics from a parsed CRM
// export. Every metric is a pure function of the raw row; the only
// time-anchored value is the days-held count, which is relative to the
// moment the derivation pass runs.
package derive

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"landfolio/server/config"
	"landfolio/server/internal/ingest"
	"landfolio/server/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Engine runs the derivation pass. The now hook exists so tests can pin the
// clock; production callers take the wall clock.
type Engine struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		logger: logger,
		now:    time.Now,
	}
}

// Process derives the full metric set for every record in the upload.
// Ratio metrics are computed only when their input columns were present in
// the file; rows never fail individually.
func (e *Engine) Process(result *ingest.Result) []models.DerivedProperty {
	now := e.now()

	hasMargin := result.HasColumns(config.FieldCurrentValue, config.FieldCostBasis)
	hasAcres := result.HasColumns(config.FieldCurrentValue, config.FieldAcres)
	hasCostAcres := result.HasColumns(config.FieldCostBasis, config.FieldAcres)
	hasInitial := result.HasColumns(config.FieldCurrentValue, config.FieldInitialPrice)

	derived := make([]models.DerivedProperty, 0, len(result.Properties))
	for _, p := range result.Properties {
		p.County = NormalizeCounty(p.County)

		d := models.DerivedProperty{Property: p}
		d.PriceReductions = PriceReductions(p.AskingPrice)
		d.DaysHeld = DaysHeld(p.DatePurchased, now)

		if hasMargin {
			d.CurrentMargin = p.AskingPrice.Sub(p.CostBasis)
			d.CurrentMarginPct = ratioPct(d.CurrentMargin, p.AskingPrice)
			d.MarkupPct = ratioPct(p.AskingPrice.Sub(p.CostBasis), p.CostBasis)
		}
		if hasAcres {
			d.PricePerAcre = safeDiv(p.AskingPrice, p.SurveyedAcres)
		}
		if hasCostAcres {
			d.CostBasisPerAcre = safeDiv(p.CostBasis, p.SurveyedAcres)
		}
		if hasInitial {
			d.PercentOfInitial = ratioPct(p.AskingPrice, p.OriginalListingPrice)
		}

		d.MissingFields = MissingFields(p.Raw, result.Columns)

		derived = append(derived, d)
	}

	e.logger.WithFields(logrus.Fields{
		"rows":      len(derived),
		"ratio_set": hasMargin && hasAcres && hasCostAcres && hasInitial,
	}).Info("Derived portfolio metrics")

	return derived
}

// PriceReductions estimates how many times a listing's price was reduced,
// from the convention that sellers end prices on successive digits counting
// down from 9: a trailing 9 means no reductions, 8 one, down to 0 meaning
// nine. A zero (or coerced-to-zero) price means no listing price, so 0.
func PriceReductions(price decimal.Decimal) int {
	if price.IsZero() {
		return 0
	}
	digit := int(price.IntPart() % 10)
	if digit < 0 {
		digit = -digit
	}
	return (9 - digit) % 10
}

// DaysHeld returns whole days between the purchase date and now, nil when
// the purchase date is missing or unparseable. Future-dated purchases clamp
// to zero rather than going negative.
func DaysHeld(purchased *time.Time, now time.Time) *int {
	if purchased == nil {
		return nil
	}
	days := int(now.Sub(*purchased).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

// NormalizeCounty maps an absent county to the "Unknown County" sentinel and
// title-cases everything else, so "travis" and "TRAVIS" group together.
func NormalizeCounty(raw string) string {
	if raw == "" {
		return models.UnknownCounty
	}
	// cases.Caser carries state, so build one per call rather than sharing.
	return cases.Title(language.AmericanEnglish).String(raw)
}

// MissingFields checks the record against the required-field registry and
// returns the labels of unpopulated fields in registry order. A field is
// missing when its column is absent from the file, its value is empty, or
// its value is a placeholder sentinel. Cost basis alone also counts a
// numeric 0 as missing: a $0 cost basis on an owned asset always means
// unset data, where for other numeric fields 0 can be a legitimate value.
func MissingFields(raw map[string]string, columns map[string]bool) []string {
	var missing []string
	for _, f := range config.RequiredFields {
		value, ok := raw[f.Key]
		if !columns[f.Key] || !ok {
			missing = append(missing, f.Label)
			continue
		}
		switch value {
		case "", "Unknown", models.UnknownCounty:
			missing = append(missing, f.Label)
			continue
		}
		if f.Key == config.FieldCostBasis && ingest.ParseAmount(value).IsZero() {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// ratioPct is num/den*100 with the uniform zero-denominator guard.
func ratioPct(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Mul(hundred)
}

// safeDiv is num/den with the uniform zero-denominator guard.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
