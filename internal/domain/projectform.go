package domain

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// Project form validation. Hard rules reject a save and attach to a field
// path; advisories never block and are computed on whatever values are
// present, so a form can be invalid and still show its warnings.

// Advisory severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Advisory is a non-blocking heads-up about a deal's numbers.
type Advisory struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

var (
	stateRe = regexp.MustCompile(`^[A-Z]{2}$`)
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// dateOrderRule asserts earlier <= later. Each rule is checked on its own;
// a missing date on either side exempts that rule, and a violation lands
// on the later field so the message shows up under the input the user can
// still fix.
type dateOrderRule struct {
	earlier string
	later   string
	message string
}

var dateOrderRules = []dateOrderRule{
	{"contract_date", "close_date", "Close date must be after contract date"},
	{"close_date", "rehab_start_date", "Rehab start date must be after close date"},
	{"rehab_start_date", "target_complete_date", "Target completion date must be after rehab start date"},
	{"rehab_start_date", "list_date", "List date must be after rehab start date"},
	{"list_date", "sale_date", "Sale date must be after list date"},
}

// numericRule bounds one numeric form field.
type numericRule struct {
	field string
	value func(*ProjectInput) float64
	min   float64
	max   float64
	whole bool
}

var numericRules = []numericRule{
	{"bedrooms", func(p *ProjectInput) float64 { return p.Bedrooms }, 0, 50, true},
	{"bathrooms", func(p *ProjectInput) float64 { return p.Bathrooms }, 0, 50, false},
	{"sqft", func(p *ProjectInput) float64 { return p.Sqft }, 0, 100000, true},
	{"arv", func(p *ProjectInput) float64 { return p.ARV }, 0, math.MaxFloat64, false},
	{"purchase_price", func(p *ProjectInput) float64 { return p.PurchasePrice }, 0, math.MaxFloat64, false},
	{"closing_costs", func(p *ProjectInput) float64 { return p.ClosingCosts }, 0, math.MaxFloat64, false},
	{"monthly_holding_cost", func(p *ProjectInput) float64 { return p.MonthlyHoldingCost }, 0, math.MaxFloat64, false},
	{"hold_months", func(p *ProjectInput) float64 { return p.HoldMonths }, 0, 120, true},
	{"selling_cost_pct", func(p *ProjectInput) float64 { return p.SellingCostPct }, 0, 100, false},
	{"contingency_pct", func(p *ProjectInput) float64 { return p.ContingencyPct }, 0, 100, false},
}

// ValidateProjectInput runs every hard rule and returns all violations at
// once, so the form can mark every bad field in a single round trip. A nil
// return means the input is saveable.
func ValidateProjectInput(in *ProjectInput) ValidationErrors {
	var errs ValidationErrors
	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if in.Name == "" {
		add("name", "Project name is required")
	} else if len(in.Name) > 200 {
		add("name", "Project name must be 200 characters or fewer")
	}
	if len(in.Address1) > 200 {
		add("address1", "Address must be 200 characters or fewer")
	}
	if len(in.City) > 100 {
		add("city", "City must be 100 characters or fewer")
	}
	if in.State != "" && !stateRe.MatchString(in.State) {
		add("state", "State must be a two-letter code")
	}
	if in.Zip != "" && !zipRe.MatchString(in.Zip) {
		add("zip", "ZIP must be 5 digits or ZIP+4")
	}
	if len(in.Notes) > 10000 {
		add("notes", "Notes must be 10000 characters or fewer")
	}

	for _, rule := range numericRules {
		v := rule.value(in)
		if v < rule.min {
			add(rule.field, fmt.Sprintf("Must be at least %g", rule.min))
			continue
		}
		if v > rule.max {
			add(rule.field, fmt.Sprintf("Must be at most %g", rule.max))
			continue
		}
		if rule.whole && v != math.Trunc(v) {
			add(rule.field, "Must be a whole number")
		}
	}

	if in.YearBuilt != 0 && (in.YearBuilt < 1800 || in.YearBuilt > 2100) {
		add("year_built", "Year built must be between 1800 and 2100")
	} else if in.YearBuilt != math.Trunc(in.YearBuilt) {
		add("year_built", "Must be a whole number")
	}

	if in.Status != "" && !validProjectStatus(in.Status) {
		add("status", "Unknown project status")
	}

	dates := parseMilestoneDates(in, add)
	for _, rule := range dateOrderRules {
		earlier, okE := dates[rule.earlier]
		later, okL := dates[rule.later]
		if !okE || !okL {
			continue
		}
		if later.Before(earlier) {
			add(rule.later, rule.message)
		}
	}

	return errs
}

// parseMilestoneDates coerces the form's date strings. Unparseable values
// get a format error and are left out of the ordering checks.
func parseMilestoneDates(in *ProjectInput, add func(field, message string)) map[string]time.Time {
	raw := []struct {
		field string
		value string
	}{
		{"contract_date", in.ContractDate},
		{"close_date", in.CloseDate},
		{"rehab_start_date", in.RehabStartDate},
		{"target_complete_date", in.TargetCompleteDate},
		{"list_date", in.ListDate},
		{"sale_date", in.SaleDate},
	}
	dates := make(map[string]time.Time, len(raw))
	for _, d := range raw {
		if d.value == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, d.value)
		if err != nil {
			add(d.field, "Must be a date in YYYY-MM-DD format")
			continue
		}
		dates[d.field] = t
	}
	return dates
}

func validProjectStatus(s string) bool {
	for _, v := range ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ProjectAdvisories flags deal numbers an experienced flipper would side-eye.
// These are heuristics, not rules: they never block a save and they run even
// when hard validation fails, so a half-filled form still gets its warnings.
func ProjectAdvisories(in *ProjectInput) []Advisory {
	var out []Advisory
	advise := func(field, message, severity string) {
		out = append(out, Advisory{Field: field, Message: message, Severity: severity})
	}

	if in.PurchasePrice > 0 && in.ARV > 0 {
		ratio := in.ARV / in.PurchasePrice
		if ratio < 1.0 {
			advise("arv", "ARV is below purchase price; this deal loses money before rehab", SeverityWarning)
		} else if ratio < 1.1 {
			advise("arv", "ARV is less than 110% of purchase price; margin is thin", SeverityInfo)
		}
	}

	if in.ARV > 0 && in.MonthlyHoldingCost > 0 && in.HoldMonths > 0 {
		holding := in.MonthlyHoldingCost * in.HoldMonths
		if holding > 0.10*in.ARV {
			advise("monthly_holding_cost", "Projected holding costs exceed 10% of ARV", SeverityWarning)
		}
	}

	if in.YearBuilt > 0 && in.YearBuilt < 1950 {
		advise("year_built", "Pre-1950 build; budget for knob-and-tube, galvanized plumbing, and lead paint surprises", SeverityInfo)
	}

	if in.Sqft > 5000 {
		advise("sqft", "Over 5000 sqft; rehab scope and carrying costs scale quickly at this size", SeverityInfo)
	}

	if in.ContingencyPct < 5 && in.Status != ProjectStatusSold {
		advise("contingency_pct", "Contingency under 5% leaves no room for surprises", SeverityWarning)
	}

	if in.HoldMonths > 12 {
		advise("hold_months", "Hold longer than 12 months; verify your financing and season exposure", SeverityWarning)
	}

	return out
}

// ValidateProject is the one-call shape the dry-run endpoint uses: hard
// errors grouped by field plus the advisories, whether or not the input
// is valid.
func ValidateProject(in *ProjectInput) *ValidateProjectResult {
	res := &ValidateProjectResult{Valid: true, Warnings: ProjectAdvisories(in)}
	if errs := ValidateProjectInput(in); len(errs) > 0 {
		res.Valid = false
		res.Errors = errs.ByField()
	}
	return res
}

// Advisories runs the deal heuristics against a stored project, for views
// that show warnings without a form submission (the project overview).
func (p *Project) Advisories() []Advisory {
	return ProjectAdvisories(&ProjectInput{
		ARV:                p.ARV,
		PurchasePrice:      p.PurchasePrice,
		MonthlyHoldingCost: p.MonthlyHoldingCost,
		HoldMonths:         float64(p.HoldMonths),
		YearBuilt:          float64(p.YearBuilt),
		Sqft:               float64(p.Sqft),
		ContingencyPct:     p.ContingencyPct,
		Status:             p.Status,
	})
}
