package handler

import (
	"encoding/json"
	"net/http"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Draw schedule: /v1/projects/{projectID}/draws, /v1/draws
// ============================================================

func listDrawsHandler(svc *service.DrawService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectID}/draws")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")
		draws, err := svc.List(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		totals, err := svc.Totals(ctx, UserIDFromContext(ctx), projectID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"draws":  draws,
			"totals": totals,
		})
	}
}

func createDrawHandler(svc *service.DrawService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects/{projectID}/draws")
		defer span.End()

		projectID := chi.URLParam(r, "projectID")

		var in domain.DrawInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		draw, err := svc.Create(ctx, UserIDFromContext(ctx), projectID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, draw)
	}
}

func patchDrawHandler(svc *service.DrawService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/draws/{drawID}")
		defer span.End()

		drawID := chi.URLParam(r, "drawID")

		var patch domain.DrawPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		draw, err := svc.Update(ctx, UserIDFromContext(ctx), drawID, &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, draw)
	}
}

func deleteDrawHandler(svc *service.DrawService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/draws/{drawID}")
		defer span.End()

		drawID := chi.URLParam(r, "drawID")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), drawID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
