package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gymstore/backend/internal/products"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
)

const (
	recentOrdersLimit = 10
	lowStockThreshold = 5
)

// RecentOrderView is one entry in the dashboard activity feed.
type RecentOrderView struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// Summary is the admin dashboard payload.
type Summary struct {
	DeliveredRevenue decimal.Decimal             `json:"delivered_revenue"`
	OrdersByStatus   map[enums.OrderStatus]int64 `json:"orders_by_status"`
	ActiveCustomers  int64                       `json:"active_customers"`
	LowStockProducts int64                       `json:"low_stock_products"`
	RecentOrders     []RecentOrderView           `json:"recent_orders"`
}

// Service assembles the dashboard aggregates.
type Service struct {
	repo     *Repository
	products *products.Repository
}

// NewService builds the dashboard service.
func NewService(repo *Repository, productsRepo *products.Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &Service{repo: repo, products: productsRepo}, nil
}

// Summary runs every aggregate and returns the combined payload. Statuses
// with no orders still appear with a zero count.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	counts, err := s.repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	revenue, err := s.repo.DeliveredRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}

	customers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}

	lowStock, err := s.products.CountLowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count low stock")
	}

	rows, err := s.repo.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	recent := make([]RecentOrderView, 0, len(rows))
	for _, row := range rows {
		recent = append(recent, RecentOrderView{
			ID:          row.ID,
			OrderNumber: row.OrderNumber,
			Status:      row.Status,
			TotalAmount: row.TotalAmount,
			PlacedAt:    row.PlacedAt,
		})
	}

	return &Summary{
		DeliveredRevenue: revenue,
		OrdersByStatus:   counts,
		ActiveCustomers:  customers,
		LowStockProducts: lowStock,
		RecentOrders:     recent,
	}, nil
}
