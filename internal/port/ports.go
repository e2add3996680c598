// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// DraftWriter persists a journal page's buffered draft. The autosave
// coordinator depends on nothing else, which keeps its tests to a
// single-method fake.
type DraftWriter interface {
	SaveJournalDraft(ctx context.Context, userID, pageID string, fields map[string]any) error
}

// Store defines all data operations for the tracker.
// Implemented by the Supabase adapter (or any other persistence layer).
type Store interface {
	// Connectivity
	Ping(ctx context.Context) error

	// Projects
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
	GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error)
	CreateProject(ctx context.Context, userID string, in *domain.ProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, userID, projectID string, in *domain.ProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, userID, projectID string) error

	// Budget items
	ListBudgetItems(ctx context.Context, userID, projectID string) ([]domain.BudgetItem, error)
	GetBudgetItem(ctx context.Context, userID, itemID string) (*domain.BudgetItem, error)
	CreateBudgetItem(ctx context.Context, userID, projectID string, in *domain.BudgetItemInput) (*domain.BudgetItem, error)
	UpdateBudgetItem(ctx context.Context, userID, itemID string, patch *domain.BudgetItemPatch) (*domain.BudgetItem, error)
	DeleteBudgetItem(ctx context.Context, userID, itemID string) error

	// Vendors
	ListVendors(ctx context.Context, userID string, page, pageSize int) ([]domain.Vendor, error)
	GetVendor(ctx context.Context, userID, vendorID string) (*domain.Vendor, error)
	CreateVendor(ctx context.Context, userID string, in *domain.VendorInput) (*domain.Vendor, error)
	UpdateVendor(ctx context.Context, userID, vendorID string, in *domain.VendorInput) (*domain.Vendor, error)
	DeleteVendor(ctx context.Context, userID, vendorID string) error

	// Draws
	ListDraws(ctx context.Context, userID, projectID string) ([]domain.Draw, error)
	GetDraw(ctx context.Context, userID, drawID string) (*domain.Draw, error)
	CreateDraw(ctx context.Context, userID, projectID string, in *domain.DrawInput) (*domain.Draw, error)
	UpdateDraw(ctx context.Context, userID, drawID string, patch *domain.DrawPatch) (*domain.Draw, error)
	DeleteDraw(ctx context.Context, userID, drawID string) error

	// Journal
	ListJournalPages(ctx context.Context, userID string, filter *domain.JournalFilter) ([]domain.JournalPage, error)
	GetJournalPage(ctx context.Context, userID, pageID string) (*domain.JournalPage, error)
	CreateJournalPage(ctx context.Context, userID string, in *domain.JournalPageInput) (*domain.JournalPage, error)
	DeleteJournalPage(ctx context.Context, userID, pageID string) error
	CountJournalPages(ctx context.Context, userID, projectID string) (int, error)
	SaveJournalDraft(ctx context.Context, userID, pageID string, fields map[string]any) error
	SetJournalFlag(ctx context.Context, userID, pageID, flag string, value bool) error
}
