package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db"
	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/logger"
	"github.com/gymstore/backend/pkg/mailer"
	"github.com/gymstore/backend/pkg/metrics"
)

const (
	maxTxAttempts  = 3
	retryBaseDelay = 50 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PlaceOrderInput carries the checkout request data.
type PlaceOrderInput struct {
	CartID           uuid.UUID
	UserID           uuid.UUID
	UserEmail        string
	DeliveryLocation string
	ContactMobile    string
}

// PlaceOrderResult is returned to the controller after a committed order.
type PlaceOrderResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Service turns a cart into an order atomically.
type Service struct {
	repo    *Repository
	tx      txRunner
	mail    mailer.Sender
	metrics *metrics.StoreMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a checkout service with the required dependencies. The
// mail sender and metrics may be nil in tests.
func NewService(repo *Repository, tx txRunner, mail mailer.Sender, m *metrics.StoreMetrics, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		mail:    mail,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// PlaceOrder executes the checkout transaction: load the cart, price it,
// decrement stock conditionally per line, snapshot the lines, clear the cart.
// Any failure rolls the whole thing back. Serialization conflicts retry the
// entire transaction. The confirmation email goes out after commit and never
// fails the order.
func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.DeliveryLocation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery location required")
	}
	if input.ContactMobile == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact mobile required")
	}

	var result *PlaceOrderResult

	backoff := retry.WithMaxRetries(maxTxAttempts-1, retry.NewFibonacci(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			placed, err := s.placeOrderTx(ctx, tx, input)
			if err != nil {
				return err
			}
			result = placed
			return nil
		})
		if txErr != nil && db.IsRetryable(txErr) {
			s.metrics.IncCheckoutRetry()
			if s.logg != nil {
				s.logg.Warn(ctx, "checkout.tx.retry")
			}
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			if typed.Code() == pkgerrors.CodeInsufficientStock {
				s.metrics.IncCheckoutConflict()
			}
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	s.metrics.IncOrdersPlaced()
	s.sendConfirmation(ctx, input, result)
	return result, nil
}

func (s *Service) placeOrderTx(ctx context.Context, tx *gorm.DB, input PlaceOrderInput) (*PlaceOrderResult, error) {
	repo := s.repo.WithTx(tx)

	cart, err := repo.FindCart(ctx, input.CartID, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found or empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart").WithDetails(map[string]any{"step": "load_cart"})
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found or empty")
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart references a missing product")
		}
		if !item.Product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	now := s.now()
	order := &models.Order{
		OrderNumber:      newOrderNumber(now),
		UserID:           input.UserID,
		Status:           enums.OrderStatusPending,
		TotalAmount:      total,
		DeliveryLocation: input.DeliveryLocation,
		ContactMobile:    input.ContactMobile,
		PlacedAt:         now,
	}
	if _, err := repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order").WithDetails(map[string]any{"step": "create_order"})
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		ok, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock").WithDetails(map[string]any{"step": "decrement_stock"})
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"product_id":   item.ProductID,
					"product_name": item.Product.Name,
					"requested":    item.Quantity,
				})
		}

		items = append(items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
		})
	}

	if err := repo.CreateOrderItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items").WithDetails(map[string]any{"step": "create_order_items"})
	}

	if err := repo.ClearCartItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart").WithDetails(map[string]any{"step": "clear_cart"})
	}

	return &PlaceOrderResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: total,
	}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, input PlaceOrderInput, result *PlaceOrderResult) {
	if s.mail == nil || input.UserEmail == "" || result == nil {
		return
	}
	msg := mailer.Message{
		To:      input.UserEmail,
		Subject: fmt.Sprintf("Order %s confirmed", result.OrderNumber),
		PlainText: fmt.Sprintf(
			"Thanks for your order!\n\nOrder number: %s\nTotal: %s\n\nWe'll email you again when it ships.",
			result.OrderNumber, result.TotalAmount.StringFixed(2),
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.IncEmailFailed("order_confirmation")
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, result.OrderID.String()), "checkout.email.failed", err)
		}
		return
	}
	s.metrics.IncEmailSent("order_confirmation")
}

// newOrderNumber stays unique even when two orders land in the same
// nanosecond; order_number carries a unique index.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixNano(), uuid.NewString()[:8])
}
