package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"go.uber.org/zap"
)

func newVendorService(store *mockStore) *service.VendorService {
	return service.NewVendorService(store, observability.NewMetrics(), zap.NewNop())
}

func TestVendorCreateRejectsInvalidInput(t *testing.T) {
	store := newMockStore()
	svc := newVendorService(store)

	_, err := svc.Create(context.Background(), "user-1", &domain.VendorInput{
		Trade: strings.Repeat("x", 101),
	})
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	fields := verrs.ByField()
	if len(fields["name"]) == 0 || len(fields["trade"]) == 0 {
		t.Errorf("expected errors on name and trade, got %v", fields)
	}
	if store.createCalls != 0 {
		t.Errorf("store must not be called for invalid input, got %d calls", store.createCalls)
	}
}

func TestVendorListScopedToUser(t *testing.T) {
	store := newMockStore()
	svc := newVendorService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "user-1", &domain.VendorInput{Name: "Hart Plumbing", Trade: "plumbing"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "user-2", &domain.VendorInput{Name: "Keystone Electric", Trade: "electrical"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.List(ctx, "user-1", 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Hart Plumbing" {
		t.Fatalf("expected only user-1's vendor, got %+v", mine)
	}
}

func TestVendorUpdateUnknownID(t *testing.T) {
	store := newMockStore()
	svc := newVendorService(store)

	_, err := svc.Update(context.Background(), "user-1", "vend-missing", &domain.VendorInput{Name: "Hart Plumbing"})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVendorDeleteChecksOwnership(t *testing.T) {
	store := newMockStore()
	svc := newVendorService(store)
	ctx := context.Background()

	v, err := svc.Create(ctx, "user-1", &domain.VendorInput{Name: "Hart Plumbing"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Delete(ctx, "user-2", v.ID)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound for foreign vendor, got %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", v.ID); err != nil {
		t.Errorf("vendor should survive the foreign delete attempt: %v", err)
	}
}
