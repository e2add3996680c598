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

// supabaseDraw mirrors the draws table. funded_date is a DATE column and
// arrives as "2006-01-02", which time.Time refuses to unmarshal.
type supabaseDraw struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Title      string    `json:"title"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	FundedDate *string   `json:"funded_date"`
	SortOrder  int       `json:"sort_order"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *supabaseDraw) toDomain() domain.Draw {
	return domain.Draw{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		Title:      s.Title,
		Amount:     s.Amount,
		Status:     s.Status,
		FundedDate: parseDatePtr(s.FundedDate),
		SortOrder:  s.SortOrder,
		Notes:      s.Notes,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// ListDraws returns a project's draw schedule in board order.
func (c *Client) ListDraws(ctx context.Context, userID, projectID string) ([]domain.Draw, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDraws")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	var draws []domain.Draw
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("draws?project_id=eq.%s&user_id=eq.%s&order=sort_order.asc,created_at.asc",
			projectID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseDraw](body)
		if err != nil {
			return err
		}
		draws = make([]domain.Draw, 0, len(rows))
		for i := range rows {
			draws = append(draws, rows[i].toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/draws", err)
	}
	return draws, nil
}

// GetDraw fetches a single owned draw.
func (c *Client) GetDraw(ctx context.Context, userID, drawID string) (*domain.Draw, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDraw")
	defer span.End()
	span.SetAttributes(attribute.String("draw.id", drawID))

	var draw *domain.Draw
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("draws?id=eq.%s&user_id=eq.%s&limit=1", drawID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseDraw](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "draw", ID: drawID}
		}
		d := rows[0].toDomain()
		draw = &d
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/draws", err)
	}
	return draw, nil
}

// CreateDraw inserts a draw under the given project.
func (c *Client) CreateDraw(ctx context.Context, userID, projectID string, in *domain.DrawInput) (*domain.Draw, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDraw")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	status := in.Status
	if status == "" {
		status = domain.DrawStatusScheduled
	}
	row := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"project_id": projectID,
		"title":      in.Title,
		"amount":     in.Amount,
		"status":     status,
		"notes":      in.Notes,
	}
	if in.SortOrder != nil {
		row["sort_order"] = *in.SortOrder
	}
	if status == domain.DrawStatusFunded {
		row["funded_date"] = time.Now().UTC().Format(time.DateOnly)
	}

	var draw *domain.Draw
	err := c.write(ctx, func() error {
		body, err := c.doPost(ctx, "draws", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseDraw](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		d := rows[0].toDomain()
		draw = &d
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/draws", err)
	}
	return draw, nil
}

// UpdateDraw applies a partial update. Only fields present in the patch are
// written; the service layer stamps funded_date on status transitions.
func (c *Client) UpdateDraw(ctx context.Context, userID, drawID string, patch *domain.DrawPatch) (*domain.Draw, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDraw")
	defer span.End()
	span.SetAttributes(attribute.String("draw.id", drawID))

	row := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Amount != nil {
		row["amount"] = *patch.Amount
	}
	if patch.Status != nil {
		row["status"] = *patch.Status
	}
	if patch.FundedDate != nil {
		if *patch.FundedDate == "" {
			row["funded_date"] = nil
		} else {
			row["funded_date"] = *patch.FundedDate
		}
	}
	if patch.SortOrder != nil {
		row["sort_order"] = *patch.SortOrder
	}
	if patch.Notes != nil {
		row["notes"] = *patch.Notes
	}

	var draw *domain.Draw
	err := c.write(ctx, func() error {
		path := fmt.Sprintf("draws?id=eq.%s&user_id=eq.%s", drawID, userID)
		body, err := c.doPatchReturning(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[supabaseDraw](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "draw", ID: drawID}
		}
		d := rows[0].toDomain()
		draw = &d
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/draws", err)
	}
	return draw, nil
}

// DeleteDraw removes an owned draw.
func (c *Client) DeleteDraw(ctx context.Context, userID, drawID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDraw")
	defer span.End()
	span.SetAttributes(attribute.String("draw.id", drawID))

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("draws?id=eq.%s&user_id=eq.%s", drawID, userID)
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return c.fail("supabase/draws", err)
	}
	return nil
}
