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
// Journal pages: /v1/journal
// ============================================================

func listJournalHandler(svc *service.JournalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/journal")
		defer span.End()

		filter := &domain.JournalFilter{
			ProjectID: r.URL.Query().Get("project"),
		}
		if v := r.URL.Query().Get("pinned"); v != "" {
			b := v == "true"
			filter.Pinned = &b
		}
		if v := r.URL.Query().Get("archived"); v != "" {
			b := v == "true"
			filter.Archived = &b
		}

		pages, err := svc.List(ctx, UserIDFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
	}
}

func createJournalPageHandler(svc *service.JournalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/journal")
		defer span.End()

		var in domain.JournalPageInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		page, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, page)
	}
}

func getJournalPageHandler(svc *service.JournalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/journal/{pageID}")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		page, err := svc.Get(ctx, UserIDFromContext(ctx), pageID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func deleteJournalPageHandler(svc *service.JournalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/journal/{pageID}")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), pageID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Autosave drafts: /v1/journal/{pageID}/draft
// ============================================================

// putDraftHandler buffers one edit into the page's session and answers with
// the session state. The write itself happens after the debounce quiet
// period, so this path must stay cheap; it never touches the store.
func putDraftHandler(saver *service.Autosaver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/journal/{pageID}/draft")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		span.SetAttributes(attribute.String("page.id", pageID))

		var update domain.DraftUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state := saver.Update(UserIDFromContext(ctx), pageID, update.Fields)
		writeJSON(w, http.StatusOK, state)
	}
}

// flushDraftHandler forces the pending draft out now (the editor losing
// focus), collapsing the debounce wait.
func flushDraftHandler(saver *service.Autosaver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/journal/{pageID}/draft/flush")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		span.SetAttributes(attribute.String("page.id", pageID))

		state, err := saver.Flush(ctx, UserIDFromContext(ctx), pageID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func getDraftHandler(saver *service.Autosaver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/journal/{pageID}/draft")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		writeJSON(w, http.StatusOK, saver.State(UserIDFromContext(ctx), pageID))
	}
}

// closeDraftHandler tears the session down without writing anything; the
// editor navigated away and whatever was pending is abandoned.
func closeDraftHandler(saver *service.Autosaver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/journal/{pageID}/draft")
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		saver.Close(UserIDFromContext(ctx), pageID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Pin / archive toggles
// ============================================================

// setJournalFlagHandler serves the four toggle routes. Toggles write the
// flag column directly and leave any open draft session alone.
func setJournalFlagHandler(svc *service.JournalService, logger *zap.Logger, flag string, value bool) http.HandlerFunc {
	spanName := "POST /v1/journal/{pageID}/" + toggleRoute(flag, value)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), spanName)
		defer span.End()

		pageID := chi.URLParam(r, "pageID")
		userID := UserIDFromContext(ctx)

		var err error
		if flag == "pinned" {
			err = svc.SetPinned(ctx, userID, pageID, value)
		} else {
			err = svc.SetArchived(ctx, userID, pageID, value)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleRoute(flag string, value bool) string {
	switch {
	case flag == "pinned" && value:
		return "pin"
	case flag == "pinned":
		return "unpin"
	case value:
		return "archive"
	default:
		return "unarchive"
	}
}
