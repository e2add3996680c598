package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ListJournalPages returns the user's pages, optionally narrowed to a
// project or a pin/archive state. Pinned pages sort first, then most
// recently touched.
func (c *Client) ListJournalPages(ctx context.Context, userID string, filter *domain.JournalFilter) ([]domain.JournalPage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListJournalPages")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var sb strings.Builder
	fmt.Fprintf(&sb, "journal_pages?user_id=eq.%s", userID)
	if filter != nil {
		if filter.ProjectID != "" {
			fmt.Fprintf(&sb, "&project_id=eq.%s", filter.ProjectID)
		}
		if filter.Pinned != nil {
			fmt.Fprintf(&sb, "&pinned=eq.%t", *filter.Pinned)
		}
		if filter.Archived != nil {
			fmt.Fprintf(&sb, "&archived=eq.%t", *filter.Archived)
		}
	}
	sb.WriteString("&order=pinned.desc,updated_at.desc")

	var pages []domain.JournalPage
	err := c.read(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, sb.String())
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.JournalPage](body)
		if err != nil {
			return err
		}
		pages = rows
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/journal", err)
	}
	return pages, nil
}

// GetJournalPage fetches a single owned page with its content.
func (c *Client) GetJournalPage(ctx context.Context, userID, pageID string) (*domain.JournalPage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetJournalPage")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	var page *domain.JournalPage
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("journal_pages?id=eq.%s&user_id=eq.%s&limit=1", pageID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.JournalPage](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "journal page", ID: pageID}
		}
		page = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/journal", err)
	}
	return page, nil
}

// CreateJournalPage inserts a page row.
func (c *Client) CreateJournalPage(ctx context.Context, userID string, in *domain.JournalPageInput) (*domain.JournalPage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateJournalPage")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	row := map[string]any{
		"id":      uuid.New().String(),
		"user_id": userID,
		"title":   in.Title,
		"content": in.Content,
	}
	if in.ProjectID != "" {
		row["project_id"] = in.ProjectID
	}
	if in.Icon != "" {
		row["icon"] = in.Icon
	}
	if in.PageType != "" {
		row["page_type"] = in.PageType
	}

	var page *domain.JournalPage
	err := c.write(ctx, func() error {
		body, err := c.doPost(ctx, "journal_pages", row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.JournalPage](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		page = &rows[0]
		return nil
	})
	if err != nil {
		return nil, c.fail("supabase/journal", err)
	}
	return page, nil
}

// DeleteJournalPage removes an owned page.
func (c *Client) DeleteJournalPage(ctx context.Context, userID, pageID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteJournalPage")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("journal_pages?id=eq.%s&user_id=eq.%s", pageID, userID)
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return c.fail("supabase/journal", err)
	}
	return nil
}

// CountJournalPages counts pages attached to a project. Fetching only the
// id column keeps the payload small; PostgREST count headers need a Prefer
// negotiation the client does not carry.
func (c *Client) CountJournalPages(ctx context.Context, userID, projectID string) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountJournalPages")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	var count int
	err := c.read(ctx, func() error {
		path := fmt.Sprintf("journal_pages?project_id=eq.%s&user_id=eq.%s&select=id", projectID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[struct {
			ID string `json:"id"`
		}](body)
		if err != nil {
			return err
		}
		count = len(rows)
		return nil
	})
	if err != nil {
		return 0, c.fail("supabase/journal", err)
	}
	return count, nil
}

// SaveJournalDraft flushes a buffered draft. Fields carries only the
// columns the editor changed, so an untouched title never overwrites a
// concurrent rename.
func (c *Client) SaveJournalDraft(ctx context.Context, userID, pageID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveJournalDraft")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	row := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	row["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("journal_pages?id=eq.%s&user_id=eq.%s", pageID, userID)
		return c.doPatch(ctx, path, row)
	})
	if err != nil {
		return c.fail("supabase/journal", err)
	}
	return nil
}

// SetJournalFlag flips a boolean column (pinned, archived) directly,
// outside any autosave session.
func (c *Client) SetJournalFlag(ctx context.Context, userID, pageID, flag string, value bool) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetJournalFlag")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID), attribute.String("flag", flag))

	row := map[string]any{
		flag:         value,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	err := c.write(ctx, func() error {
		path := fmt.Sprintf("journal_pages?id=eq.%s&user_id=eq.%s", pageID, userID)
		return c.doPatch(ctx, path, row)
	})
	if err != nil {
		return c.fail("supabase/journal", err)
	}
	return nil
}
