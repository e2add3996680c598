package domain

// Budget aggregation. Everything here is a pure function of a slice of
// BudgetItem: the rollup is recomputed from scratch on every read and is
// never persisted, so it can't drift from the line items.

// EffectiveBudget returns the working budget for the line: the forecast
// once one exists, otherwise the underwriting estimate. A forecast of
// exactly 0 means "not yet forecast", not "forecast of zero".
func (b *BudgetItem) EffectiveBudget() float64 {
	if b.ForecastAmount > 0 {
		return b.ForecastAmount
	}
	return b.UnderwritingAmount
}

// EffectiveActual returns the recorded spend, treating "no actual yet"
// as zero for aggregation purposes.
func (b *BudgetItem) EffectiveActual() float64 {
	if b.ActualAmount == nil {
		return 0
	}
	return *b.ActualAmount
}

// ForecastVariance is forecast minus underwriting. Positive means the
// revised estimate exceeds the original one.
func (b *BudgetItem) ForecastVariance() float64 {
	return b.ForecastAmount - b.UnderwritingAmount
}

// ActualVariance is actual spend minus the effective budget. The second
// return is false when no actual has been recorded; callers must not show
// a variance for lines with no spend.
func (b *BudgetItem) ActualVariance() (float64, bool) {
	if b.ActualAmount == nil {
		return 0, false
	}
	return *b.ActualAmount - b.EffectiveBudget(), true
}

// BudgetLine is one item decorated with its derived amounts, the shape the
// budget table renders.
type BudgetLine struct {
	BudgetItem
	EffectiveBudget  float64  `json:"effective_budget"`
	EffectiveActual  float64  `json:"effective_actual"`
	ForecastVariance float64  `json:"forecast_variance"`
	ActualVariance   *float64 `json:"actual_variance,omitempty"`
}

// CategoryAggregate is one category group: its totals plus the member
// lines in their original order.
type CategoryAggregate struct {
	Category    string       `json:"category"`
	BudgetTotal float64      `json:"budget_total"`
	ActualTotal float64      `json:"actual_total"`
	Variance    float64      `json:"variance"` // actual - budget, positive = overrun
	Items       []BudgetLine `json:"items"`
}

// BudgetRollup is the full aggregation for one project.
type BudgetRollup struct {
	Categories  []CategoryAggregate `json:"categories"`
	TotalBudget float64             `json:"total_budget"`
	TotalActual float64             `json:"total_actual"`
	Variance    float64             `json:"variance"`
	ItemCount   int                 `json:"item_count"`
}

// RollupBudget groups items by category and sums effective budget and
// effective actual per group and overall. Categories appear in the order
// they are first seen in the input, and items keep their relative order
// inside each group, so the grouped view mirrors the flat table. An empty
// input yields an empty rollup, not an error.
func RollupBudget(items []BudgetItem) *BudgetRollup {
	rollup := &BudgetRollup{
		Categories: []CategoryAggregate{},
		ItemCount:  len(items),
	}
	index := make(map[string]int, len(items))

	for _, item := range items {
		line := BudgetLine{
			BudgetItem:       item,
			EffectiveBudget:  item.EffectiveBudget(),
			EffectiveActual:  item.EffectiveActual(),
			ForecastVariance: item.ForecastVariance(),
		}
		if av, ok := item.ActualVariance(); ok {
			line.ActualVariance = &av
		}

		i, seen := index[item.Category]
		if !seen {
			i = len(rollup.Categories)
			index[item.Category] = i
			rollup.Categories = append(rollup.Categories, CategoryAggregate{Category: item.Category})
		}

		cat := &rollup.Categories[i]
		cat.BudgetTotal += line.EffectiveBudget
		cat.ActualTotal += line.EffectiveActual
		cat.Items = append(cat.Items, line)

		rollup.TotalBudget += line.EffectiveBudget
		rollup.TotalActual += line.EffectiveActual
	}

	for i := range rollup.Categories {
		rollup.Categories[i].Variance = rollup.Categories[i].ActualTotal - rollup.Categories[i].BudgetTotal
	}
	rollup.Variance = rollup.TotalActual - rollup.TotalBudget
	return rollup
}

// TotalDraws sums a draw schedule by status.
func TotalDraws(draws []Draw) *DrawTotals {
	totals := &DrawTotals{Count: len(draws)}
	for _, d := range draws {
		switch d.Status {
		case DrawStatusFunded:
			totals.FundedTotal += d.Amount
		case DrawStatusRequested:
			totals.RequestedTotal += d.Amount
		default:
			totals.ScheduledTotal += d.Amount
		}
	}
	return totals
}
