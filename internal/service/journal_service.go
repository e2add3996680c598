package service

import (
	"context"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JournalService handles journal page CRUD and the pin/archive toggles.
// Content edits do not come through here; they flow through the Autosaver,
// which batches them. Toggles hit the store directly and never touch
// autosave session state.
type JournalService struct {
	store     port.Store
	autosaver *Autosaver
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewJournalService creates a new journal service.
func NewJournalService(store port.Store, autosaver *Autosaver, metrics *observability.Metrics, logger *zap.Logger) *JournalService {
	return &JournalService{store: store, autosaver: autosaver, metrics: metrics, logger: logger}
}

func (s *JournalService) List(ctx context.Context, userID string, filter *domain.JournalFilter) ([]domain.JournalPage, error) {
	ctx, span := trackerTracer.Start(ctx, "JournalService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListJournalPages(ctx, userID, filter)
}

func (s *JournalService) Get(ctx context.Context, userID, pageID string) (*domain.JournalPage, error) {
	ctx, span := trackerTracer.Start(ctx, "JournalService.Get")
	defer span.End()

	return s.store.GetJournalPage(ctx, userID, pageID)
}

func (s *JournalService) Create(ctx context.Context, userID string, in *domain.JournalPageInput) (*domain.JournalPage, error) {
	ctx, span := trackerTracer.Start(ctx, "JournalService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if errs := domain.ValidateJournalPageInput(in); len(errs) > 0 {
		return nil, errs
	}
	if in.ProjectID != "" {
		if _, err := s.store.GetProject(ctx, userID, in.ProjectID); err != nil {
			return nil, err
		}
	}

	page, err := s.store.CreateJournalPage(ctx, userID, in)
	if err != nil {
		s.logger.Error("failed to create journal page", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("journal page created",
		zap.String("user_id", userID),
		zap.String("page_id", page.ID),
	)
	return page, nil
}

// Delete removes a page and tears down its autosave session, if any. The
// session is dropped without a write; there is nothing left to save to.
func (s *JournalService) Delete(ctx context.Context, userID, pageID string) error {
	ctx, span := trackerTracer.Start(ctx, "JournalService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	if _, err := s.store.GetJournalPage(ctx, userID, pageID); err != nil {
		return err
	}
	if err := s.store.DeleteJournalPage(ctx, userID, pageID); err != nil {
		return err
	}
	s.autosaver.Close(userID, pageID)
	return nil
}

// SetPinned flips the pinned flag directly at the store.
func (s *JournalService) SetPinned(ctx context.Context, userID, pageID string, pinned bool) error {
	ctx, span := trackerTracer.Start(ctx, "JournalService.SetPinned")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	if _, err := s.store.GetJournalPage(ctx, userID, pageID); err != nil {
		return err
	}
	return s.store.SetJournalFlag(ctx, userID, pageID, "pinned", pinned)
}

// SetArchived flips the archived flag directly at the store.
func (s *JournalService) SetArchived(ctx context.Context, userID, pageID string, archived bool) error {
	ctx, span := trackerTracer.Start(ctx, "JournalService.SetArchived")
	defer span.End()
	span.SetAttributes(attribute.String("page.id", pageID))

	if _, err := s.store.GetJournalPage(ctx, userID, pageID); err != nil {
		return err
	}
	return s.store.SetJournalFlag(ctx, userID, pageID, "archived", archived)
}
