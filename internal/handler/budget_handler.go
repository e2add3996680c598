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
// Budget: /v1/projects/{projectID}/budget, /v1/budget-items
// ============================================================

func listBudgetItemsHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectID}/budget")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		items, err := svc.ListItems(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// budgetSummaryHandler serves the grouped rollup the budget table renders:
// category subtotals in first-seen order plus grand totals.
func budgetSummaryHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectID}/budget/summary")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		span.SetAttributes(attribute.String("project.id", projectID))

		rollup, err := svc.ProjectRollup(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rollup)
	}
}

func createBudgetItemHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects/{projectID}/budget")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")

		var in domain.BudgetItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		item, err := svc.CreateItem(ctx, UserIDFromContext(ctx), projectID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func patchBudgetItemHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/budget-items/{itemID}")
		defer span.End()

		itemID := chi.URLParam(r, "itemID")

		var patch domain.BudgetItemPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		item, err := svc.UpdateItem(ctx, UserIDFromContext(ctx), itemID, &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteBudgetItemHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/budget-items/{itemID}")
		defer span.End()

		itemID := chi.URLParam(r, "itemID")
		if err := svc.DeleteItem(ctx, UserIDFromContext(ctx), itemID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
