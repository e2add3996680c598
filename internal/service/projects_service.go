// Package service provides the business logic layer (use cases) for the
// flip tracker: project lifecycle, budget aggregation, vendors, draws,
// journal pages, and the autosave coordinator.
package service

import (
	"context"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var trackerTracer = otel.Tracer("service/tracker")

// ProjectService handles project CRUD, the dry-run form validator, and
// the aggregated overview.
type ProjectService struct {
	store   port.Store
	budget  *BudgetService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewProjectService creates a new project service. The budget service is
// shared so the overview reads through the same rollup cache.
func NewProjectService(store port.Store, budget *BudgetService, metrics *observability.Metrics, logger *zap.Logger) *ProjectService {
	return &ProjectService{store: store, budget: budget, metrics: metrics, logger: logger}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListProjects(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.Get")
	defer span.End()

	return s.store.GetProject(ctx, userID, projectID)
}

func (s *ProjectService) Create(ctx context.Context, userID string, in *domain.ProjectInput) (*domain.Project, error) {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if errs := domain.ValidateProjectInput(in); len(errs) > 0 {
		return nil, errs
	}

	project, err := s.store.CreateProject(ctx, userID, in)
	if err != nil {
		s.logger.Error("failed to create project", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("user_id", userID),
		zap.String("project_id", project.ID),
		zap.String("name", project.Name),
	)
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, projectID string, in *domain.ProjectInput) (*domain.Project, error) {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if errs := domain.ValidateProjectInput(in); len(errs) > 0 {
		return nil, errs
	}

	return s.store.UpdateProject(ctx, userID, projectID, in)
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, userID, projectID); err != nil {
		return err
	}
	// Budget rows cascade away with the project.
	s.budget.invalidate(userID, projectID)

	s.logger.Info("project deleted",
		zap.String("user_id", userID),
		zap.String("project_id", projectID),
	)
	return nil
}

// Validate runs the full form validation without persisting anything:
// hard errors grouped per field plus the non-blocking deal advisories.
func (s *ProjectService) Validate(ctx context.Context, in *domain.ProjectInput) *domain.ValidateProjectResult {
	_, span := trackerTracer.Start(ctx, "ProjectService.Validate")
	defer span.End()

	return domain.ValidateProject(in)
}

// Overview assembles the project dashboard header: the record, the budget
// rollup, draw totals, and the journal page count, fetched concurrently.
func (s *ProjectService) Overview(ctx context.Context, userID, projectID string) (*domain.ProjectOverview, error) {
	ctx, span := trackerTracer.Start(ctx, "ProjectService.Overview")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("project_overview", time.Since(start)) }()

	var (
		project *domain.Project
		rollup  *domain.BudgetRollup
		draws   *domain.DrawTotals
		pages   int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.store.GetProject(gCtx, userID, projectID)
		if err != nil {
			return err
		}
		project = p
		return nil
	})

	g.Go(func() error {
		r, err := s.budget.ProjectRollup(gCtx, userID, projectID)
		if err != nil {
			return err
		}
		rollup = r
		return nil
	})

	g.Go(func() error {
		list, err := s.store.ListDraws(gCtx, userID, projectID)
		if err != nil {
			return err
		}
		draws = domain.TotalDraws(list)
		return nil
	})

	g.Go(func() error {
		n, err := s.store.CountJournalPages(gCtx, userID, projectID)
		if err != nil {
			return err
		}
		pages = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.ProjectOverview{
		Project:          project,
		Budget:           rollup,
		Draws:            draws,
		JournalPageCount: pages,
		Advisories:       project.Advisories(),
	}, nil
}
