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
// Vendors: /v1/vendors
// ============================================================

func listVendorsHandler(svc *service.VendorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendors")
		defer span.End()

		page, pageSize := parsePagination(r)
		vendors, err := svc.List(ctx, UserIDFromContext(ctx), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Vendor]{
			Data:     vendors,
			Page:     page,
			PageSize: pageSize,
			HasMore:  len(vendors) == pageSize,
		})
	}
}

func createVendorHandler(svc *service.VendorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vendors")
		defer span.End()

		var in domain.VendorInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		vendor, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, vendor)
	}
}

func getVendorHandler(svc *service.VendorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendors/{vendorID}")
		defer span.End()

		vendorID := chi.URLParam(r, "vendorID")
		vendor, err := svc.Get(ctx, UserIDFromContext(ctx), vendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vendor)
	}
}

func updateVendorHandler(svc *service.VendorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/vendors/{vendorID}")
		defer span.End()

		vendorID := chi.URLParam(r, "vendorID")

		var in domain.VendorInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		vendor, err := svc.Update(ctx, UserIDFromContext(ctx), vendorID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, vendor)
	}
}

func deleteVendorHandler(svc *service.VendorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/vendors/{vendorID}")
		defer span.End()

		vendorID := chi.URLParam(r, "vendorID")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), vendorID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
