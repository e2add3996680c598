package service

import (
	"context"
	"fmt"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BudgetService handles budget line CRUD and the per-project rollup. The
// rollup is recomputed from scratch on demand and cached until the next
// budget mutation; it is never incrementally patched.
type BudgetService struct {
	store   port.Store
	cache   port.Cache[*domain.BudgetRollup]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBudgetService creates a new budget service.
func NewBudgetService(store port.Store, cache port.Cache[*domain.BudgetRollup], metrics *observability.Metrics, logger *zap.Logger) *BudgetService {
	return &BudgetService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// rollupKey includes the owner so a lookup against someone else's project
// can never seed a rollup the real owner would then read back.
func rollupKey(userID, projectID string) string {
	return fmt.Sprintf("rollup:%s:%s", userID, projectID)
}

func (s *BudgetService) invalidate(userID, projectID string) {
	s.cache.Delete(rollupKey(userID, projectID))
}

// ProjectRollup returns the aggregated budget for a project, grouped by
// category with variances at every level.
func (s *BudgetService) ProjectRollup(ctx context.Context, userID, projectID string) (*domain.BudgetRollup, error) {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.ProjectRollup")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	key := rollupKey(userID, projectID)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("rollup")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("rollup")

	items, err := s.store.ListBudgetItems(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	rollup := domain.RollupBudget(items)
	s.cache.Set(key, rollup)
	return rollup, nil
}

func (s *BudgetService) ListItems(ctx context.Context, userID, projectID string) ([]domain.BudgetItem, error) {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.ListItems")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	return s.store.ListBudgetItems(ctx, userID, projectID)
}

func (s *BudgetService) GetItem(ctx context.Context, userID, itemID string) (*domain.BudgetItem, error) {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.GetItem")
	defer span.End()

	return s.store.GetBudgetItem(ctx, userID, itemID)
}

func (s *BudgetService) CreateItem(ctx context.Context, userID, projectID string, in *domain.BudgetItemInput) (*domain.BudgetItem, error) {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.CreateItem")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if errs := domain.ValidateBudgetItemInput(in); len(errs) > 0 {
		return nil, errs
	}
	// The project must exist and be the caller's before rows hang off it.
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	item, err := s.store.CreateBudgetItem(ctx, userID, projectID, in)
	if err != nil {
		s.logger.Error("failed to create budget item",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return nil, err
	}
	s.invalidate(userID, projectID)

	s.logger.Info("budget item created",
		zap.String("project_id", projectID),
		zap.String("item_id", item.ID),
		zap.String("category", item.Category),
	)
	return item, nil
}

func (s *BudgetService) UpdateItem(ctx context.Context, userID, itemID string, patch *domain.BudgetItemPatch) (*domain.BudgetItem, error) {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.UpdateItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	if errs := domain.ValidateBudgetItemPatch(patch); len(errs) > 0 {
		return nil, errs
	}

	item, err := s.store.UpdateBudgetItem(ctx, userID, itemID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID, item.ProjectID)
	return item, nil
}

func (s *BudgetService) DeleteItem(ctx context.Context, userID, itemID string) error {
	ctx, span := trackerTracer.Start(ctx, "BudgetService.DeleteItem")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID))

	item, err := s.store.GetBudgetItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudgetItem(ctx, userID, itemID); err != nil {
		return err
	}
	s.invalidate(userID, item.ProjectID)
	return nil
}
