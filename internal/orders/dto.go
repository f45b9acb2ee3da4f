package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
)

// ItemView is one frozen order line.
type ItemView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SummaryView is the list representation, without line items.
type SummaryView struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// View is the full order representation.
type View struct {
	ID               uuid.UUID         `json:"id"`
	OrderNumber      string            `json:"order_number"`
	UserID           uuid.UUID         `json:"user_id"`
	Status           enums.OrderStatus `json:"status"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	DeliveryLocation string            `json:"delivery_location"`
	ContactMobile    string            `json:"contact_mobile"`
	PlacedAt         time.Time         `json:"placed_at"`
	Items            []ItemView        `json:"items"`
}

// List is a cursor page of order summaries.
type List struct {
	Items      []SummaryView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func toSummaryView(order models.Order) SummaryView {
	return SummaryView{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.PlacedAt,
	}
}

func toView(order *models.Order) *View {
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return &View{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Status:           order.Status,
		TotalAmount:      order.TotalAmount,
		DeliveryLocation: order.DeliveryLocation,
		ContactMobile:    order.ContactMobile,
		PlacedAt:         order.PlacedAt,
		Items:            items,
	}
}
