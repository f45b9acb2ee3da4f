package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, name string, price string, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Category: enums.ProductCategoryEquipment,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestGetReturnsEmptyViewWithoutCartRow(t *testing.T) {
	svc, conn := newTestService(t)

	view, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart got %d items", len(view.Items))
	}

	var count int64
	if err := conn.Model(&models.Cart{}).Count(&count).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if count != 0 {
		t.Fatalf("get must not create a cart row, found %d", count)
	}
}

func TestAddItemCreatesCartLazilyAndMergesQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, "Barbell", "100.00", 10, true)
	userID := uuid.New()

	view, err := svc.AddItem(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected view %+v", view)
	}

	view, err = svc.AddItem(context.Background(), userID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected merged line got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5 got %d", view.Items[0].Quantity)
	}
	if !view.Total.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("unexpected total %s", view.Total)
	}

	var carts int64
	if err := conn.Model(&models.Cart{}).Where("user_id = ?", userID).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 1 {
		t.Fatalf("expected single cart row got %d", carts)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, "Retired", "10.00", 5, false)

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT got %v", err)
	}
}

func TestAddItemValidates(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, uuid.New(), 0); err == nil {
		t.Fatal("expected quantity validation error")
	}
	if _, err := svc.AddItem(context.Background(), userID, uuid.New(), 1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing product, got %v", err)
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, "Rope", "25.00", 10, true)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.SetItemQuantity(context.Background(), userID, product.ID, 4)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if view.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4 got %d", view.Items[0].Quantity)
	}

	// zero removes the line
	view, err = svc.SetItemQuantity(context.Background(), userID, product.ID, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart got %d items", len(view.Items))
	}

	if _, err := svc.SetItemQuantity(context.Background(), userID, product.ID, 2); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for missing line, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, "Mat", "15.00", 10, true)
	other := mustCreateProduct(t, conn, "Band", "5.00", 10, true)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userID, other.ID, 2); err != nil {
		t.Fatalf("add other: %v", err)
	}

	view, err := svc.RemoveItem(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != other.ID {
		t.Fatalf("unexpected items %+v", view.Items)
	}

	if _, err := svc.RemoveItem(context.Background(), userID, product.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for repeated remove, got %v", err)
	}
}
