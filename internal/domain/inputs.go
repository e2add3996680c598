package domain

import "time"

// Input validation for the smaller entities. Same contract as the project
// form: collect everything, never stop at the first violation.

func validBudgetItemStatus(s string) bool {
	for _, v := range BudgetItemStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func validDrawStatus(s string) bool {
	for _, v := range DrawStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidateBudgetItemInput checks a new budget line.
func ValidateBudgetItemInput(in *BudgetItemInput) ValidationErrors {
	var errs ValidationErrors
	if in.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "Category is required"})
	} else if len(in.Category) > 100 {
		errs = append(errs, FieldError{Field: "category", Message: "Category must be 100 characters or fewer"})
	}
	if len(in.Description) > 500 {
		errs = append(errs, FieldError{Field: "description", Message: "Description must be 500 characters or fewer"})
	}
	if in.UnderwritingAmount < 0 {
		errs = append(errs, FieldError{Field: "underwriting_amount", Message: "Must be at least 0"})
	}
	if in.ForecastAmount < 0 {
		errs = append(errs, FieldError{Field: "forecast_amount", Message: "Must be at least 0"})
	}
	if in.ActualAmount != nil && *in.ActualAmount < 0 {
		errs = append(errs, FieldError{Field: "actual_amount", Message: "Must be at least 0"})
	}
	if in.Status != "" && !validBudgetItemStatus(in.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "Unknown budget item status"})
	}
	return errs
}

// ValidateBudgetItemPatch checks only the fields a partial update carries.
func ValidateBudgetItemPatch(p *BudgetItemPatch) ValidationErrors {
	var errs ValidationErrors
	if p.Category != nil && *p.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "Category is required"})
	}
	if p.UnderwritingAmount != nil && *p.UnderwritingAmount < 0 {
		errs = append(errs, FieldError{Field: "underwriting_amount", Message: "Must be at least 0"})
	}
	if p.ForecastAmount != nil && *p.ForecastAmount < 0 {
		errs = append(errs, FieldError{Field: "forecast_amount", Message: "Must be at least 0"})
	}
	if p.ActualAmount != nil && *p.ActualAmount < 0 {
		errs = append(errs, FieldError{Field: "actual_amount", Message: "Must be at least 0"})
	}
	if p.Status != nil && !validBudgetItemStatus(*p.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "Unknown budget item status"})
	}
	return errs
}

// ValidateVendorInput checks a vendor payload.
func ValidateVendorInput(in *VendorInput) ValidationErrors {
	var errs ValidationErrors
	if in.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Vendor name is required"})
	} else if len(in.Name) > 200 {
		errs = append(errs, FieldError{Field: "name", Message: "Vendor name must be 200 characters or fewer"})
	}
	if len(in.Trade) > 100 {
		errs = append(errs, FieldError{Field: "trade", Message: "Trade must be 100 characters or fewer"})
	}
	if len(in.Phone) > 30 {
		errs = append(errs, FieldError{Field: "phone", Message: "Phone must be 30 characters or fewer"})
	}
	if len(in.Email) > 254 {
		errs = append(errs, FieldError{Field: "email", Message: "Email must be 254 characters or fewer"})
	}
	return errs
}

// ValidateDrawInput checks a new draw.
func ValidateDrawInput(in *DrawInput) ValidationErrors {
	var errs ValidationErrors
	if in.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Draw title is required"})
	} else if len(in.Title) > 200 {
		errs = append(errs, FieldError{Field: "title", Message: "Draw title must be 200 characters or fewer"})
	}
	if in.Amount < 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "Must be at least 0"})
	}
	if in.Status != "" && !validDrawStatus(in.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "Unknown draw status"})
	}
	return errs
}

// ValidateDrawPatch checks only the fields a partial update carries.
func ValidateDrawPatch(p *DrawPatch) ValidationErrors {
	var errs ValidationErrors
	if p.Title != nil && *p.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Draw title is required"})
	}
	if p.Amount != nil && *p.Amount < 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "Must be at least 0"})
	}
	if p.Status != nil && !validDrawStatus(*p.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "Unknown draw status"})
	}
	if p.FundedDate != nil && *p.FundedDate != "" {
		if _, err := time.Parse(time.DateOnly, *p.FundedDate); err != nil {
			errs = append(errs, FieldError{Field: "funded_date", Message: "Must be a date in YYYY-MM-DD format"})
		}
	}
	return errs
}

// ValidateJournalPageInput checks a new journal page.
func ValidateJournalPageInput(in *JournalPageInput) ValidationErrors {
	var errs ValidationErrors
	if in.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Page title is required"})
	} else if len(in.Title) > 300 {
		errs = append(errs, FieldError{Field: "title", Message: "Page title must be 300 characters or fewer"})
	}
	return errs
}
