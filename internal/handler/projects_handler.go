package handler

import (
	"encoding/json"
	"net/http"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Projects: /v1/projects
// ============================================================

func listProjectsHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects")
		defer span.End()

		projects, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	}
}

func createProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects")
		defer span.End()

		var in domain.ProjectInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		project, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	}
}

// validateProjectHandler is the dry-run form check: it always answers 200,
// carrying hard errors per field plus the non-blocking advisories.
func validateProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects/validate")
		defer span.End()

		var in domain.ProjectInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		writeJSON(w, http.StatusOK, svc.Validate(ctx, &in))
	}
}

func getProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectID}")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		span.SetAttributes(attribute.String("project.id", projectID))

		project, err := svc.Get(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

func updateProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/projects/{projectID}")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")

		var in domain.ProjectInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		project, err := svc.Update(ctx, UserIDFromContext(ctx), projectID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

func deleteProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{projectID}")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), projectID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func projectOverviewHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectID}/overview")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		span.SetAttributes(attribute.String("project.id", projectID))

		overview, err := svc.Overview(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}
