package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/pagination"
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

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, name string, category enums.ProductCategory, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Category: category,
		Price:    decimal.NewFromFloat(49.99),
		Stock:    stock,
		IsActive: active,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestListHidesInactiveForPublicCallers(t *testing.T) {
	svc, conn := newTestService(t)
	mustCreateTestProduct(t, conn, "Active Bench", enums.ProductCategoryEquipment, 5, true)
	mustCreateTestProduct(t, conn, "Retired Bench", enums.ProductCategoryEquipment, 0, false)

	list, err := svc.List(context.Background(), pagination.Params{}, "", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 product got %d", len(list.Items))
	}
	if list.Items[0].Name != "Active Bench" {
		t.Fatalf("unexpected product %s", list.Items[0].Name)
	}

	adminList, err := svc.List(context.Background(), pagination.Params{}, "", true)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList.Items) != 2 {
		t.Fatalf("expected 2 products got %d", len(adminList.Items))
	}
}

func TestListFiltersByCategory(t *testing.T) {
	svc, conn := newTestService(t)
	mustCreateTestProduct(t, conn, "Whey", enums.ProductCategorySupplements, 10, true)
	mustCreateTestProduct(t, conn, "Dumbbell", enums.ProductCategoryWeights, 10, true)

	list, err := svc.List(context.Background(), pagination.Params{}, "supplements", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Name != "Whey" {
		t.Fatalf("unexpected items %+v", list.Items)
	}

	if _, err := svc.List(context.Background(), pagination.Params{}, "nonsense", false); err == nil {
		t.Fatal("expected invalid category error")
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		product := mustCreateTestProduct(t, conn, "Item", enums.ProductCategoryAccessory, 1, true)
		// spread created_at so ordering is deterministic
		if err := conn.Model(product).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}

	page1, err := svc.List(context.Background(), pagination.Params{Limit: 3}, "", false)
	if err != nil {
		t.Fatalf("page1: %v", err)
	}
	if len(page1.Items) != 3 {
		t.Fatalf("expected 3 items got %d", len(page1.Items))
	}
	if page1.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	page2, err := svc.List(context.Background(), pagination.Params{Limit: 3, Cursor: page1.NextCursor}, "", false)
	if err != nil {
		t.Fatalf("page2: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(page2.Items))
	}
	if page2.NextCursor != "" {
		t.Fatalf("expected no cursor on last page got %q", page2.NextCursor)
	}
}

func TestGetHidesInactiveFromPublic(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateTestProduct(t, conn, "Hidden", enums.ProductCategoryCardio, 2, false)

	if _, err := svc.Get(context.Background(), product.ID, false); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND got %v", err)
	}

	view, err := svc.Get(context.Background(), product.ID, true)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if view.Name != "Hidden" {
		t.Fatalf("unexpected product %s", view.Name)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []CreateProductInput{
		{Name: "", Category: enums.ProductCategoryWeights, Price: decimal.NewFromInt(10)},
		{Name: "Bar", Category: enums.ProductCategory("bogus"), Price: decimal.NewFromInt(10)},
		{Name: "Bar", Category: enums.ProductCategoryWeights, Price: decimal.NewFromInt(-1)},
		{Name: "Bar", Category: enums.ProductCategoryWeights, Price: decimal.NewFromInt(10), Stock: -3},
	}
	for i, input := range cases {
		if _, err := svc.Create(context.Background(), input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}

	view, err := svc.Create(context.Background(), CreateProductInput{
		Name:     "Olympic Bar",
		Category: enums.ProductCategoryWeights,
		Price:    decimal.RequireFromString("129.50"),
		Stock:    4,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.ID == uuid.Nil {
		t.Fatal("expected assigned id")
	}
	if !view.Price.Equal(decimal.RequireFromString("129.50")) {
		t.Fatalf("unexpected price %s", view.Price)
	}
}

func TestUpdateFieldClosedSet(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateTestProduct(t, conn, "Kettlebell", enums.ProductCategoryWeights, 7, true)

	if _, err := svc.UpdateField(context.Background(), UpdateFieldInput{
		ProductID: product.ID,
		Field:     enums.ProductField("created_at"),
		Value:     "2001-01-01",
	}); err == nil {
		t.Fatal("expected closed-set rejection")
	}

	view, err := svc.UpdateField(context.Background(), UpdateFieldInput{
		ProductID: product.ID,
		Field:     enums.ProductFieldPrice,
		Value:     "89.99",
	})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if !view.Price.Equal(decimal.RequireFromString("89.99")) {
		t.Fatalf("unexpected price %s", view.Price)
	}

	view, err = svc.UpdateField(context.Background(), UpdateFieldInput{
		ProductID: product.ID,
		Field:     enums.ProductFieldStock,
		Value:     float64(12),
	})
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if view.Stock != 12 {
		t.Fatalf("unexpected stock %d", view.Stock)
	}

	if _, err := svc.UpdateField(context.Background(), UpdateFieldInput{
		ProductID: product.ID,
		Field:     enums.ProductFieldStock,
		Value:     float64(-2),
	}); err == nil {
		t.Fatal("expected negative stock rejection")
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND got %v", err)
	}
}

func TestAttachImage(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateTestProduct(t, conn, "Rower", enums.ProductCategoryCardio, 2, true)

	image, err := svc.AttachImage(context.Background(), product.ID, "rower.png", "image/png", 2048)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if image.URL != "/uploads/rower.png" {
		t.Fatalf("unexpected url %s", image.URL)
	}

	view, err := svc.Get(context.Background(), product.ID, true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Images) != 1 {
		t.Fatalf("expected 1 image got %d", len(view.Images))
	}
}
