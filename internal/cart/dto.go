package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gymstore/backend/pkg/db/models"
)

// ItemView is the API shape of one cart line.
type ItemView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

// View is the API shape of the whole cart.
type View struct {
	CartID uuid.UUID       `json:"cart_id"`
	Items  []ItemView      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func toView(cart *models.Cart) *View {
	view := &View{
		CartID: cart.ID,
		Items:  make([]ItemView, 0, len(cart.Items)),
		Total:  decimal.Zero,
	}
	for _, item := range cart.Items {
		line := ItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.UnitPrice = item.Product.Price
			line.LineTotal = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.InStock = item.Product.Stock >= item.Quantity
			view.Total = view.Total.Add(line.LineTotal)
		}
		view.Items = append(view.Items, line)
	}
	return view
}
