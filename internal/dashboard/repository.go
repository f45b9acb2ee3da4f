package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountOrdersByStatus returns order totals per lifecycle state.
func (r *Repository) CountOrdersByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Total
	}
	return counts, nil
}

// DeliveredRevenue sums the totals of delivered orders. Only money that has
// actually reached the customer counts as revenue.
func (r *Repository) DeliveredRevenue(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status = ?", enums.OrderStatusDelivered).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Revenue, nil
}

// CountUsers returns the number of active customer accounts.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_active = ? AND role = ?", true, enums.MemberRoleCustomer).
		Count(&count).Error
	return count, err
}

// RecentOrders returns the latest placed orders for the activity feed.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
