// Package aggregate rolls the derived table up into the status -> state ->
// county hierarchy the dashboard and the reports share. Aggregation is
// read-only and recomputed per request; the table is spreadsheet-scale.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"landfolio/server/internal/models"
)

// Summary holds the aggregates reported at every level of the hierarchy.
// Day and reduction means skip records without the underlying value.
type Summary struct {
	Properties         int             `json:"properties"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalCostBasis     decimal.Decimal `json:"total_cost_basis"`
	TotalMargin        decimal.Decimal `json:"total_margin"`
	TotalAcres         decimal.Decimal `json:"total_acres"`
	AvgDaysHeld        *float64        `json:"avg_days_held"`
	AvgPriceReductions float64         `json:"avg_price_reductions"`
	CompleteCount      int             `json:"complete_count"`
	IncompleteCount    int             `json:"incomplete_count"`
}

type CountyGroup struct {
	County  string  `json:"county"`
	Summary Summary `json:"summary"`
}

type StateGroup struct {
	State    string        `json:"state"`
	Summary  Summary       `json:"summary"`
	Counties []CountyGroup `json:"counties"`
}

type StatusGroup struct {
	Status  string       `json:"status"`
	Summary Summary      `json:"summary"`
	States  []StateGroup `json:"states"`
}

// Portfolio is the whole-table rollup plus the hierarchy.
type Portfolio struct {
	Summary  Summary       `json:"summary"`
	Statuses []StatusGroup `json:"statuses"`
}

// Build computes the full hierarchy. Statuses come out in the fixed display
// order (Purchased, Listed, Under Contract, Off Market) with unrecognized
// values appended in first-encounter order; states and counties are
// alphabetical within their parent.
func Build(properties []models.DerivedProperty) Portfolio {
	portfolio := Portfolio{Summary: Summarize(properties)}

	for _, status := range StatusOrder(properties) {
		statusProps := filterBy(properties, func(d *models.DerivedProperty) string { return d.Status }, status)

		group := StatusGroup{Status: status, Summary: Summarize(statusProps)}
		for _, state := range sortedValues(statusProps, func(d *models.DerivedProperty) string { return d.State }) {
			stateProps := filterBy(statusProps, func(d *models.DerivedProperty) string { return d.State }, state)

			stateGroup := StateGroup{State: state, Summary: Summarize(stateProps)}
			for _, county := range sortedValues(stateProps, func(d *models.DerivedProperty) string { return d.County }) {
				countyProps := filterBy(stateProps, func(d *models.DerivedProperty) string { return d.County }, county)
				stateGroup.Counties = append(stateGroup.Counties, CountyGroup{
					County:  county,
					Summary: Summarize(countyProps),
				})
			}
			group.States = append(group.States, stateGroup)
		}
		portfolio.Statuses = append(portfolio.Statuses, group)
	}

	return portfolio
}

// StatusOrder enumerates the distinct status values of the table: known
// statuses in priority order first, then unknown ones as first encountered.
func StatusOrder(properties []models.DerivedProperty) []string {
	var known, unknown []string
	seen := make(map[string]bool)
	for _, d := range properties {
		if seen[d.Status] {
			continue
		}
		seen[d.Status] = true
		if models.KnownStatus(d.Status) {
			known = append(known, d.Status)
		} else {
			unknown = append(unknown, d.Status)
		}
	}
	sort.Slice(known, func(i, j int) bool {
		return models.StatusPriority(known[i]) < models.StatusPriority(known[j])
	})
	return append(known, unknown...)
}

// SortProperties orders the detail table by status priority, then state,
// then county, then display name. Unknown statuses sort after known ones,
// alphabetically among themselves to keep the sort deterministic.
func SortProperties(properties []models.DerivedProperty) {
	sort.SliceStable(properties, func(i, j int) bool {
		a, b := &properties[i], &properties[j]
		if pa, pb := models.StatusPriority(a.Status), models.StatusPriority(b.Status); pa != pb {
			return pa < pb
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		if a.State != b.State {
			return a.State < b.State
		}
		if a.County != b.County {
			return a.County < b.County
		}
		return a.DisplayName < b.DisplayName
	})
}

// Summarize computes the aggregate block for any slice of records; the
// hierarchy and the report subtotal blocks share it.
func Summarize(properties []models.DerivedProperty) Summary {
	s := Summary{
		TotalValue:     decimal.Zero,
		TotalCostBasis: decimal.Zero,
		TotalMargin:    decimal.Zero,
		TotalAcres:     decimal.Zero,
	}

	daysTotal, daysCount := 0, 0
	reductionsTotal := 0
	for i := range properties {
		d := &properties[i]
		s.Properties++
		s.TotalValue = s.TotalValue.Add(d.AskingPrice)
		s.TotalCostBasis = s.TotalCostBasis.Add(d.CostBasis)
		s.TotalMargin = s.TotalMargin.Add(d.CurrentMargin)
		s.TotalAcres = s.TotalAcres.Add(d.SurveyedAcres)
		if d.DaysHeld != nil {
			daysTotal += *d.DaysHeld
			daysCount++
		}
		reductionsTotal += d.PriceReductions
		if d.Complete() {
			s.CompleteCount++
		} else {
			s.IncompleteCount++
		}
	}

	if daysCount > 0 {
		avg := float64(daysTotal) / float64(daysCount)
		s.AvgDaysHeld = &avg
	}
	if s.Properties > 0 {
		s.AvgPriceReductions = float64(reductionsTotal) / float64(s.Properties)
	}
	return s
}

func filterBy(properties []models.DerivedProperty, key func(*models.DerivedProperty) string, want string) []models.DerivedProperty {
	var out []models.DerivedProperty
	for i := range properties {
		if key(&properties[i]) == want {
			out = append(out, properties[i])
		}
	}
	return out
}

func sortedValues(properties []models.DerivedProperty, key func(*models.DerivedProperty) string) []string {
	seen := make(map[string]bool)
	var values []string
	for i := range properties {
		v := key(&properties[i])
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}
