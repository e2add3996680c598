package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// supabaseProject maps the projects table. Milestone columns are DATE, so
// they arrive as bare "2006-01-02" strings rather than RFC3339 timestamps.
type supabaseProject struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"user_id"`
	Name               string  `json:"name"`
	Address1           string  `json:"address1"`
	Address2           string  `json:"address2"`
	City               string  `json:"city"`
	State              string  `json:"state"`
	Zip                string  `json:"zip"`
	Bedrooms           int     `json:"bedrooms"`
	Bathrooms          float64 `json:"bathrooms"`
	Sqft               int     `json:"sqft"`
	YearBuilt          int     `json:"year_built"`
	ARV                float64 `json:"arv"`
	PurchasePrice      float64 `json:"purchase_price"`
	ClosingCosts       float64 `json:"closing_costs"`
	MonthlyHoldingCost float64 `json:"monthly_holding_cost"`
	HoldMonths         int     `json:"hold_months"`
	SellingCostPct     float64 `json:"selling_cost_pct"`
	ContingencyPct     float64 `json:"contingency_pct"`
	Status             string  `json:"status"`
	ContractDate       *string `json:"contract_date"`
	CloseDate          *string `json:"close_date"`
	RehabStartDate     *string `json:"rehab_start_date"`
	TargetCompleteDate *string `json:"target_complete_date"`
	ListDate           *string `json:"list_date"`
	SaleDate           *string `json:"sale_date"`
	Notes              string  `json:"notes"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func (r *supabaseProject) toDomain() *domain.Project {
	return &domain.Project{
		ID:                 r.ID,
		UserID:             r.UserID,
		Name:               r.Name,
		Address1:           r.Address1,
		Address2:           r.Address2,
		City:               r.City,
		State:              r.State,
		Zip:                r.Zip,
		Bedrooms:           r.Bedrooms,
		Bathrooms:          r.Bathrooms,
		Sqft:               r.Sqft,
		YearBuilt:          r.YearBuilt,
		ARV:                r.ARV,
		PurchasePrice:      r.PurchasePrice,
		ClosingCosts:       r.ClosingCosts,
		MonthlyHoldingCost: r.MonthlyHoldingCost,
		HoldMonths:         r.HoldMonths,
		SellingCostPct:     r.SellingCostPct,
		ContingencyPct:     r.ContingencyPct,
		Status:             r.Status,
		ContractDate:       parseDatePtr(r.ContractDate),
		CloseDate:          parseDatePtr(r.CloseDate),
		RehabStartDate:     parseDatePtr(r.RehabStartDate),
		TargetCompleteDate: parseDatePtr(r.TargetCompleteDate),
		ListDate:           parseDatePtr(r.ListDate),
		SaleDate:           parseDatePtr(r.SaleDate),
		Notes:              r.Notes,
		CreatedAt:          parseTimestamp(r.CreatedAt),
		UpdatedAt:          parseTimestamp(r.UpdatedAt),
	}
}

// parseDatePtr decodes a nullable DATE column, tolerating full timestamps.
func parseDatePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.DateOnly, *s); err == nil {
		return &t
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// dateOrNil maps an empty form date to SQL NULL so clearing a milestone
// in the form actually clears the column.
func dateOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// projectColumns flattens a validated form payload into a row map. The
// caller adds id/user_id for inserts.
func projectColumns(in *domain.ProjectInput) map[string]any {
	status := in.Status
	if status == "" {
		status = domain.ProjectStatusLead
	}
	return map[string]any{
		"name":                 in.Name,
		"address1":             in.Address1,
		"address2":             in.Address2,
		"city":                 in.City,
		"state":                in.State,
		"zip":                  in.Zip,
		"bedrooms":             int(in.Bedrooms),
		"bathrooms":            in.Bathrooms,
		"sqft":                 int(in.Sqft),
		"year_built":           int(in.YearBuilt),
		"arv":                  in.ARV,
		"purchase_price":       in.PurchasePrice,
		"closing_costs":        in.ClosingCosts,
		"monthly_holding_cost": in.MonthlyHoldingCost,
		"hold_months":          int(in.HoldMonths),
		"selling_cost_pct":     in.SellingCostPct,
		"contingency_pct":      in.ContingencyPct,
		"status":               status,
		"contract_date":        dateOrNil(in.ContractDate),
		"close_date":           dateOrNil(in.CloseDate),
		"rehab_start_date":     dateOrNil(in.RehabStartDate),
		"target_complete_date": dateOrNil(in.TargetCompleteDate),
		"list_date":            dateOrNil(in.ListDate),
		"sale_date":            dateOrNil(in.SaleDate),
		"notes":                in.Notes,
	}
}

// ListProjects returns every project owned by userID, newest first.
func (c *Client) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProjects")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var projects []domain.Project
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("projects?user_id=eq.%s&order=created_at.desc", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseProject](body)
		if err != nil {
			return err
		}
		projects = make([]domain.Project, 0, len(rows))
		for i := range rows {
			projects = append(projects, *rows[i].toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/projects", err)
	}
	return projects, nil
}

// GetProject fetches a single owned project.
func (c *Client) GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	var project *domain.Project
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("projects?id=eq.%s&user_id=eq.%s&limit=1", projectID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseProject](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "project", ID: projectID}
		}
		project = rows[0].toDomain()
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/projects", err)
	}
	return project, nil
}

// CreateProject inserts a project row. The id is generated app-side so the
// single-attempt insert is deterministic.
func (c *Client) CreateProject(ctx context.Context, userID string, in *domain.ProjectInput) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProject")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := projectColumns(in)
	row["id"] = uuid.New().String()
	row["user_id"] = userID

	var project *domain.Project
	err := c.write(ctx, func() error {
		body, err := c.doPost(ctx, "projects", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseProject](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		project = rows[0].toDomain()
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/projects", err)
	}
	return project, nil
}

// UpdateProject replaces the form-editable columns of an owned project.
func (c *Client) UpdateProject(ctx context.Context, userID, projectID string, in *domain.ProjectInput) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	row := projectColumns(in)
	row["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var project *domain.Project
	err := c.write(ctx, func() error {
		path := fmt.Sprintf("projects?id=eq.%s&user_id=eq.%s", projectID, userID)
		body, err := c.doPatchReturning(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseProject](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "project", ID: projectID}
		}
		project = rows[0].toDomain()
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/projects", err)
	}
	return project, nil
}

// DeleteProject removes an owned project. Child rows (budget items, draws,
// journal links) go with it via the database's cascade rules.
func (c *Client) DeleteProject(ctx context.Context, userID, projectID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("projects?id=eq.%s&user_id=eq.%s", projectID, userID)
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return c.fail("supabase/projects", err)
	}
	return nil
}
