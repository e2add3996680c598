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

// ListVendors returns the user's vendor book, alphabetical, paginated.
func (c *Client) ListVendors(ctx context.Context, userID string, page, pageSize int) ([]domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListVendors")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var vendors []domain.Vendor
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("vendors?user_id=eq.%s&order=name.asc&limit=%d&offset=%d",
			userID, pageSize, (page-1)*pageSize)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Vendor](body)
		if err != nil {
			return err
		}
		vendors = rows
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/vendors", err)
	}
	return vendors, nil
}

// GetVendor fetches a single owned vendor.
func (c *Client) GetVendor(ctx context.Context, userID, vendorID string) (*domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetVendor")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	var vendor *domain.Vendor
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("vendors?id=eq.%s&user_id=eq.%s&limit=1", vendorID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Vendor](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "vendor", ID: vendorID}
		}
		vendor = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/vendors", err)
	}
	return vendor, nil
}

// CreateVendor inserts a vendor row.
func (c *Client) CreateVendor(ctx context.Context, userID string, in *domain.VendorInput) (*domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateVendor")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := map[string]any{
		"id":      uuid.New().String(),
		"user_id": userID,
		"name":    in.Name,
		"trade":   in.Trade,
		"phone":   in.Phone,
		"email":   in.Email,
		"notes":   in.Notes,
	}

	var vendor *domain.Vendor
	err := c.write(ctx, func() error {
		body, err := c.doPost(ctx, "vendors", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Vendor](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		vendor = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/vendors", err)
	}
	return vendor, nil
}

// UpdateVendor replaces a vendor's editable columns.
func (c *Client) UpdateVendor(ctx context.Context, userID, vendorID string, in *domain.VendorInput) (*domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateVendor")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	row := map[string]any{
		"name":       in.Name,
		"trade":      in.Trade,
		"phone":      in.Phone,
		"email":      in.Email,
		"notes":      in.Notes,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	var vendor *domain.Vendor
	err := c.write(ctx, func() error {
		path := fmt.Sprintf("vendors?id=eq.%s&user_id=eq.%s", vendorID, userID)
		body, err := c.doPatchReturning(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.Vendor](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "vendor", ID: vendorID}
		}
		vendor = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/vendors", err)
	}
	return vendor, nil
}

// DeleteVendor removes an owned vendor. Budget items keep their vendor_id
// until edited; the database sets dangling references to NULL.
func (c *Client) DeleteVendor(ctx context.Context, userID, vendorID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteVendor")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("vendors?id=eq.%s&user_id=eq.%s", vendorID, userID)
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return c.fail("supabase/vendors", err)
	}
	return nil
}
