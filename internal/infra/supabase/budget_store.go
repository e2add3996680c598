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

// budget_items carries a denormalized user_id column (standard Supabase
// row-level-security shape), so ownership checks are a plain filter and
// never need a join through projects.

// ListBudgetItems returns a project's budget lines in table order.
func (c *Client) ListBudgetItems(ctx context.Context, userID, projectID string) ([]domain.BudgetItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgetItems")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	var items []domain.BudgetItem
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("budget_items?project_id=eq.%s&user_id=eq.%s&order=sort_order.asc,created_at.asc", projectID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.BudgetItem](body)
		if err != nil {
			return err
		}
		items = rows
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/budget_items", err)
	}
	return items, nil
}

// GetBudgetItem fetches a single owned budget line.
func (c *Client) GetBudgetItem(ctx context.Context, userID, itemID string) (*domain.BudgetItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBudgetItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	var item *domain.BudgetItem
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("budget_items?id=eq.%s&user_id=eq.%s&limit=1", itemID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.BudgetItem](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "budget item", ID: itemID}
		}
		item = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/budget_items", err)
	}
	return item, nil
}

// CreateBudgetItem inserts a budget line under a project.
func (c *Client) CreateBudgetItem(ctx context.Context, userID, projectID string, in *domain.BudgetItemInput) (*domain.BudgetItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBudgetItem")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	status := in.Status
	if status == "" {
		status = domain.BudgetItemNotStarted
	}
	row := map[string]any{
		"id":                  uuid.New().String(),
		"user_id":             userID,
		"project_id":          projectID,
		"category":            in.Category,
		"description":         in.Description,
		"underwriting_amount": in.UnderwritingAmount,
		"forecast_amount":     in.ForecastAmount,
		"status":              status,
	}
	if in.ActualAmount != nil {
		row["actual_amount"] = *in.ActualAmount
	}
	if in.VendorID != "" {
		row["vendor_id"] = in.VendorID
	}
	if in.SortOrder != nil {
		row["sort_order"] = *in.SortOrder
	}

	var item *domain.BudgetItem
	err := c.write(ctx, func() error {
		body, err := c.doPost(ctx, "budget_items", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.BudgetItem](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		item = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/budget_items", err)
	}
	return item, nil
}

// UpdateBudgetItem applies a partial update. Only the fields present in
// the patch reach the row; ClearActual nulls the recorded spend.
func (c *Client) UpdateBudgetItem(ctx context.Context, userID, itemID string, patch *domain.BudgetItemPatch) (*domain.BudgetItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBudgetItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	row := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if patch.Category != nil {
		row["category"] = *patch.Category
	}
	if patch.Description != nil {
		row["description"] = *patch.Description
	}
	if patch.UnderwritingAmount != nil {
		row["underwriting_amount"] = *patch.UnderwritingAmount
	}
	if patch.ForecastAmount != nil {
		row["forecast_amount"] = *patch.ForecastAmount
	}
	if patch.ClearActual {
		row["actual_amount"] = nil
	} else if patch.ActualAmount != nil {
		row["actual_amount"] = *patch.ActualAmount
	}
	if patch.Status != nil {
		row["status"] = *patch.Status
	}
	if patch.VendorID != nil {
		if *patch.VendorID == "" {
			row["vendor_id"] = nil
		} else {
			row["vendor_id"] = *patch.VendorID
		}
	}
	if patch.SortOrder != nil {
		row["sort_order"] = *patch.SortOrder
	}

	var item *domain.BudgetItem
	err := c.write(ctx, func() error {
		path := fmt.Sprintf("budget_items?id=eq.%s&user_id=eq.%s", itemID, userID)
		body, err := c.doPatchReturning(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.BudgetItem](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "budget item", ID: itemID}
		}
		item = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/budget_items", err)
	}
	return item, nil
}

// DeleteBudgetItem removes an owned budget line.
func (c *Client) DeleteBudgetItem(ctx context.Context, userID, itemID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBudgetItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("budget_items?id=eq.%s&user_id=eq.%s", itemID, userID)
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return c.fail("supabase/budget_items", err)
	}
	return nil
}
