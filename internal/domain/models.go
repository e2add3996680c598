// Package domain defines the core business entities for Flipfolio.
// These models are independent of external services and represent the
// canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Projects
// ============================================================

// Project lifecycle statuses.
const (
	ProjectStatusLead          = "lead"
	ProjectStatusAnalyzing     = "analyzing"
	ProjectStatusUnderContract = "under_contract"
	ProjectStatusInRehab       = "in_rehab"
	ProjectStatusListed        = "listed"
	ProjectStatusSold          = "sold"
	ProjectStatusDead          = "dead"
)

// ProjectStatuses lists the valid lifecycle states in pipeline order.
var ProjectStatuses = []string{
	ProjectStatusLead,
	ProjectStatusAnalyzing,
	ProjectStatusUnderContract,
	ProjectStatusInRehab,
	ProjectStatusListed,
	ProjectStatusSold,
	ProjectStatusDead,
}

// Project represents one fix & flip property with its underwriting
// assumptions and milestone dates. Rows are owner-scoped by UserID.
type Project struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Name               string     `json:"name"`
	Address1           string     `json:"address1"`
	Address2           string     `json:"address2,omitempty"`
	City               string     `json:"city"`
	State              string     `json:"state"`
	Zip                string     `json:"zip"`
	Bedrooms           int        `json:"bedrooms"`
	Bathrooms          float64    `json:"bathrooms"` // half baths allowed
	Sqft               int        `json:"sqft"`
	YearBuilt          int        `json:"year_built"`
	ARV                float64    `json:"arv"`
	PurchasePrice      float64    `json:"purchase_price"`
	ClosingCosts       float64    `json:"closing_costs"`
	MonthlyHoldingCost float64    `json:"monthly_holding_cost"`
	HoldMonths         int        `json:"hold_months"`
	SellingCostPct     float64    `json:"selling_cost_pct"`
	ContingencyPct     float64    `json:"contingency_pct"`
	Status             string     `json:"status"`
	ContractDate       *time.Time `json:"contract_date,omitempty"`
	CloseDate          *time.Time `json:"close_date,omitempty"`
	RehabStartDate     *time.Time `json:"rehab_start_date,omitempty"`
	TargetCompleteDate *time.Time `json:"target_complete_date,omitempty"`
	ListDate           *time.Time `json:"list_date,omitempty"`
	SaleDate           *time.Time `json:"sale_date,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ProjectInput is the form payload for creating or updating a project.
// Milestone dates arrive as "YYYY-MM-DD" strings exactly as the date
// inputs emit them; the validation layer parses and orders them.
type ProjectInput struct {
	Name               string  `json:"name"`
	Address1           string  `json:"address1"`
	Address2           string  `json:"address2,omitempty"`
	City               string  `json:"city"`
	State              string  `json:"state"`
	Zip                string  `json:"zip"`
	Bedrooms           float64 `json:"bedrooms"` // validated as whole number
	Bathrooms          float64 `json:"bathrooms"`
	Sqft               float64 `json:"sqft"`
	YearBuilt          float64 `json:"year_built"`
	ARV                float64 `json:"arv"`
	PurchasePrice      float64 `json:"purchase_price"`
	ClosingCosts       float64 `json:"closing_costs"`
	MonthlyHoldingCost float64 `json:"monthly_holding_cost"`
	HoldMonths         float64 `json:"hold_months"`
	SellingCostPct     float64 `json:"selling_cost_pct"`
	ContingencyPct     float64 `json:"contingency_pct"`
	Status             string  `json:"status"`
	ContractDate       string  `json:"contract_date,omitempty"`
	CloseDate          string  `json:"close_date,omitempty"`
	RehabStartDate     string  `json:"rehab_start_date,omitempty"`
	TargetCompleteDate string  `json:"target_complete_date,omitempty"`
	ListDate           string  `json:"list_date,omitempty"`
	SaleDate           string  `json:"sale_date,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

// ProjectOverview is the dashboard header for a single project: the record
// itself plus the derived numbers the summary strip renders.
type ProjectOverview struct {
	Project          *Project      `json:"project"`
	Budget           *BudgetRollup `json:"budget"`
	Draws            *DrawTotals   `json:"draws"`
	JournalPageCount int           `json:"journal_page_count"`
	Advisories       []Advisory    `json:"advisories,omitempty"`
}

// DrawTotals aggregates a project's draw schedule by status.
type DrawTotals struct {
	ScheduledTotal float64 `json:"scheduled_total"`
	RequestedTotal float64 `json:"requested_total"`
	FundedTotal    float64 `json:"funded_total"`
	Count          int     `json:"count"`
}

// ValidateProjectResult is returned by the dry-run validation endpoint.
type ValidateProjectResult struct {
	Valid    bool                `json:"valid"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Warnings []Advisory          `json:"warnings,omitempty"`
}

// ============================================================
// Budget items
// ============================================================

// Budget item work statuses.
const (
	BudgetItemNotStarted = "not_started"
	BudgetItemInProgress = "in_progress"
	BudgetItemComplete   = "complete"
	BudgetItemOnHold     = "on_hold"
	BudgetItemCancelled  = "cancelled"
)

// BudgetItemStatuses lists the valid work states for a budget line.
var BudgetItemStatuses = []string{
	BudgetItemNotStarted,
	BudgetItemInProgress,
	BudgetItemComplete,
	BudgetItemOnHold,
	BudgetItemCancelled,
}

// BudgetItem is one budget line on a project. UnderwritingAmount is the
// estimate made before purchase; ForecastAmount the revised estimate during
// rehab (0 = not yet forecast); ActualAmount the recorded spend, nil until
// money moves.
type BudgetItem struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"project_id"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	UnderwritingAmount float64   `json:"underwriting_amount"`
	ForecastAmount     float64   `json:"forecast_amount"`
	ActualAmount       *float64  `json:"actual_amount,omitempty"`
	Status             string    `json:"status"`
	VendorID           string    `json:"vendor_id,omitempty"`
	SortOrder          int       `json:"sort_order"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BudgetItemInput is the payload to create a budget line.
type BudgetItemInput struct {
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	UnderwritingAmount float64  `json:"underwriting_amount"`
	ForecastAmount     float64  `json:"forecast_amount"`
	ActualAmount       *float64 `json:"actual_amount,omitempty"`
	Status             string   `json:"status,omitempty"`
	VendorID           string   `json:"vendor_id,omitempty"`
	SortOrder          *int     `json:"sort_order,omitempty"`
}

// BudgetItemPatch carries a partial update; nil fields are left untouched
// so a PATCH never overwrites columns the client did not send.
type BudgetItemPatch struct {
	Category           *string  `json:"category,omitempty"`
	Description        *string  `json:"description,omitempty"`
	UnderwritingAmount *float64 `json:"underwriting_amount,omitempty"`
	ForecastAmount     *float64 `json:"forecast_amount,omitempty"`
	ActualAmount       *float64 `json:"actual_amount,omitempty"`
	ClearActual        bool     `json:"clear_actual,omitempty"`
	Status             *string  `json:"status,omitempty"`
	VendorID           *string  `json:"vendor_id,omitempty"`
	SortOrder          *int     `json:"sort_order,omitempty"`
}

// ============================================================
// Vendors
// ============================================================

// Vendor is a contractor or supplier contact, referenced by budget items.
type Vendor struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Trade     string    `json:"trade,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VendorInput is the payload to create or replace a vendor.
type VendorInput struct {
	Name  string `json:"name"`
	Trade string `json:"trade,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// ============================================================
// Draws
// ============================================================

// Draw statuses.
const (
	DrawStatusScheduled = "scheduled"
	DrawStatusRequested = "requested"
	DrawStatusFunded    = "funded"
)

// DrawStatuses lists the valid draw states in lifecycle order.
var DrawStatuses = []string{DrawStatusScheduled, DrawStatusRequested, DrawStatusFunded}

// Draw is one scheduled disbursement of renovation financing.
type Draw struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Title      string     `json:"title"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"`
	FundedDate *time.Time `json:"funded_date,omitempty"`
	SortOrder  int        `json:"sort_order"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DrawInput is the payload to create a draw.
type DrawInput struct {
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// DrawPatch carries a partial update to a draw. Setting Status to funded
// stamps FundedDate unless one is supplied.
type DrawPatch struct {
	Title      *string  `json:"title,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Status     *string  `json:"status,omitempty"`
	FundedDate *string  `json:"funded_date,omitempty"` // YYYY-MM-DD
	SortOrder  *int     `json:"sort_order,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// ============================================================
// Journal
// ============================================================

// JournalPage is a rich-text page edited in the client. Content is the
// serialized editor document; this layer treats it as opaque.
type JournalPage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	PageType  string    `json:"page_type,omitempty"`
	Pinned    bool      `json:"pinned"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JournalPageInput is the payload to create a journal page.
type JournalPageInput struct {
	ProjectID string `json:"project_id,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Icon      string `json:"icon,omitempty"`
	PageType  string `json:"page_type,omitempty"`
}

// JournalFilter narrows a journal listing.
type JournalFilter struct {
	ProjectID string
	Pinned    *bool
	Archived  *bool
}

// DraftUpdate buffers one edit into a page's autosave session. Fields holds
// only the columns the editor changed.
type DraftUpdate struct {
	Fields map[string]any `json:"fields"`
}

// DraftState reports an autosave session to the editor status strip.
type DraftState struct {
	PageID            string     `json:"page_id"`
	HasUnsavedChanges bool       `json:"has_unsaved_changes"`
	IsSaving          bool       `json:"is_saving"`
	LastSavedAt       *time.Time `json:"last_saved_at,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
}

// ============================================================
// Generic API response wrappers
// ============================================================

// ListResponse wraps paginated list results. HasMore is inferred from a
// full page; the client asks for the next page to find out for sure.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
