package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gymstore/backend/internal/products"
	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{}, &models.ProductImage{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, total string, placedAt time.Time) {
	t.Helper()
	order := &models.Order{
		OrderNumber:      fmt.Sprintf("ORD-%d", placedAt.UnixNano()),
		UserID:           uuid.New(),
		Status:           status,
		TotalAmount:      decimal.RequireFromString(total),
		DeliveryLocation: "12 Gym Street",
		ContactMobile:    "+233201234567",
		PlacedAt:         placedAt,
		CreatedAt:        placedAt,
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
}

func TestSummaryAggregates(t *testing.T) {
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	seedOrder(t, conn, enums.OrderStatusDelivered, "100.00", base)
	seedOrder(t, conn, enums.OrderStatusDelivered, "50.50", base.Add(time.Minute))
	seedOrder(t, conn, enums.OrderStatusPending, "999.99", base.Add(2*time.Minute))
	seedOrder(t, conn, enums.OrderStatusCancelled, "10.00", base.Add(3*time.Minute))

	for i, stock := range []int{2, 5, 50} {
		product := &models.Product{
			Name:     fmt.Sprintf("Product %d", i),
			Category: enums.ProductCategoryEquipment,
			Price:    decimal.RequireFromString("10.00"),
			Stock:    stock,
			IsActive: true,
		}
		if err := conn.Create(product).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
	}

	customer := &models.User{
		Email:         "lifter@example.com",
		PasswordHash:  "x",
		FirstName:     "Test",
		LastName:      "Lifter",
		Role:          enums.MemberRoleCustomer,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	admin := &models.User{
		Email:         "admin@example.com",
		PasswordHash:  "x",
		FirstName:     "Store",
		LastName:      "Admin",
		Role:          enums.MemberRoleAdmin,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := conn.Create(admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if !summary.DeliveredRevenue.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("expected delivered revenue 150.50 got %s", summary.DeliveredRevenue)
	}
	if summary.OrdersByStatus[enums.OrderStatusDelivered] != 2 {
		t.Fatalf("expected 2 delivered got %d", summary.OrdersByStatus[enums.OrderStatusDelivered])
	}
	if summary.OrdersByStatus[enums.OrderStatusShipped] != 0 {
		t.Fatal("statuses without orders must report zero")
	}
	if summary.ActiveCustomers != 1 {
		t.Fatalf("expected 1 active customer got %d", summary.ActiveCustomers)
	}
	if summary.LowStockProducts != 2 {
		t.Fatalf("expected 2 low stock products got %d", summary.LowStockProducts)
	}
	if len(summary.RecentOrders) != 4 {
		t.Fatalf("expected 4 recent orders got %d", len(summary.RecentOrders))
	}
	if summary.RecentOrders[0].Status != enums.OrderStatusCancelled {
		t.Fatalf("expected newest order first, got %s", summary.RecentOrders[0].Status)
	}
}

func TestSummaryEmptyStore(t *testing.T) {
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.DeliveredRevenue.IsZero() {
		t.Fatalf("expected zero revenue got %s", summary.DeliveredRevenue)
	}
	if len(summary.RecentOrders) != 0 {
		t.Fatalf("expected no recent orders got %d", len(summary.RecentOrders))
	}
}
