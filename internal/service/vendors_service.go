package service

import (
	"context"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VendorService handles the user's contractor book. Vendors are flat,
// owner-scoped rows referenced from budget lines.
type VendorService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewVendorService creates a new vendor service.
func NewVendorService(store port.Store, metrics *observability.Metrics, logger *zap.Logger) *VendorService {
	return &VendorService{store: store, metrics: metrics, logger: logger}
}

func (s *VendorService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Vendor, error) {
	ctx, span := trackerTracer.Start(ctx, "VendorService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListVendors(ctx, userID, page, pageSize)
}

func (s *VendorService) Get(ctx context.Context, userID, vendorID string) (*domain.Vendor, error) {
	ctx, span := trackerTracer.Start(ctx, "VendorService.Get")
	defer span.End()

	return s.store.GetVendor(ctx, userID, vendorID)
}

func (s *VendorService) Create(ctx context.Context, userID string, in *domain.VendorInput) (*domain.Vendor, error) {
	ctx, span := trackerTracer.Start(ctx, "VendorService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if errs := domain.ValidateVendorInput(in); len(errs) > 0 {
		return nil, errs
	}

	vendor, err := s.store.CreateVendor(ctx, userID, in)
	if err != nil {
		s.logger.Error("failed to create vendor", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("vendor created",
		zap.String("user_id", userID),
		zap.String("vendor_id", vendor.ID),
		zap.String("trade", vendor.Trade),
	)
	return vendor, nil
}

func (s *VendorService) Update(ctx context.Context, userID, vendorID string, in *domain.VendorInput) (*domain.Vendor, error) {
	ctx, span := trackerTracer.Start(ctx, "VendorService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	if errs := domain.ValidateVendorInput(in); len(errs) > 0 {
		return nil, errs
	}

	return s.store.UpdateVendor(ctx, userID, vendorID, in)
}

func (s *VendorService) Delete(ctx context.Context, userID, vendorID string) error {
	ctx, span := trackerTracer.Start(ctx, "VendorService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	if _, err := s.store.GetVendor(ctx, userID, vendorID); err != nil {
		return err
	}
	return s.store.DeleteVendor(ctx, userID, vendorID)
}
