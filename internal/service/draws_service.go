package service

import (
	"context"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DrawService handles a project's financing draw schedule.
type DrawService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDrawService creates a new draw service.
func NewDrawService(store port.Store, metrics *observability.Metrics, logger *zap.Logger) *DrawService {
	return &DrawService{store: store, metrics: metrics, logger: logger}
}

func (s *DrawService) List(ctx context.Context, userID, projectID string) ([]domain.Draw, error) {
	ctx, span := trackerTracer.Start(ctx, "DrawService.List")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	return s.store.ListDraws(ctx, userID, projectID)
}

// Totals aggregates the draw schedule by status.
func (s *DrawService) Totals(ctx context.Context, userID, projectID string) (*domain.DrawTotals, error) {
	ctx, span := trackerTracer.Start(ctx, "DrawService.Totals")
	defer span.End()

	draws, err := s.store.ListDraws(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return domain.TotalDraws(draws), nil
}

func (s *DrawService) Create(ctx context.Context, userID, projectID string, in *domain.DrawInput) (*domain.Draw, error) {
	ctx, span := trackerTracer.Start(ctx, "DrawService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if errs := domain.ValidateDrawInput(in); len(errs) > 0 {
		return nil, errs
	}
	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	draw, err := s.store.CreateDraw(ctx, userID, projectID, in)
	if err != nil {
		s.logger.Error("failed to create draw", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("draw created",
		zap.String("project_id", projectID),
		zap.String("draw_id", draw.ID),
		zap.Float64("amount", draw.Amount),
	)
	return draw, nil
}

// Update applies a partial update. Moving a draw into funded stamps
// funded_date with today unless the patch carries one; moving it back out
// clears the date.
func (s *DrawService) Update(ctx context.Context, userID, drawID string, patch *domain.DrawPatch) (*domain.Draw, error) {
	ctx, span := trackerTracer.Start(ctx, "DrawService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("draw.id", drawID))

	if errs := domain.ValidateDrawPatch(patch); len(errs) > 0 {
		return nil, errs
	}

	if patch.Status != nil && patch.FundedDate == nil {
		current, err := s.store.GetDraw(ctx, userID, drawID)
		if err != nil {
			return nil, err
		}
		switch {
		case *patch.Status == domain.DrawStatusFunded && current.Status != domain.DrawStatusFunded:
			today := time.Now().UTC().Format(time.DateOnly)
			patch.FundedDate = &today
		case *patch.Status != domain.DrawStatusFunded && current.Status == domain.DrawStatusFunded:
			cleared := ""
			patch.FundedDate = &cleared
		}
	}

	return s.store.UpdateDraw(ctx, userID, drawID, patch)
}

func (s *DrawService) Delete(ctx context.Context, userID, drawID string) error {
	ctx, span := trackerTracer.Start(ctx, "DrawService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("draw.id", drawID))

	if _, err := s.store.GetDraw(ctx, userID, drawID); err != nil {
		return err
	}
	return s.store.DeleteDraw(ctx, userID, drawID)
}
