package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/logger"
	"github.com/gymstore/backend/pkg/mailer"
	"github.com/gymstore/backend/pkg/metrics"
	"github.com/gymstore/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order history and the admin status lifecycle.
type Service struct {
	repo    *Repository
	tx      txRunner
	mail    mailer.Sender
	metrics *metrics.StoreMetrics
	logg    *logger.Logger
}

// NewService builds an orders service. The mail sender and metrics may be nil
// in tests.
func NewService(repo *Repository, tx txRunner, mail mailer.Sender, m *metrics.StoreMetrics, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
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
	}, nil
}

// ListForUser returns the caller's order history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, next, err := s.repo.List(ctx, params, ListFilters{UserID: &userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	items := make([]SummaryView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummaryView(row))
	}
	return &List{Items: items, NextCursor: next}, nil
}

// GetForUser returns one order only when the caller owns it.
func (s *Service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toView(order), nil
}

// ListAll returns every order for the admin dashboard, optionally filtered by
// status. An unknown status value is rejected rather than returning nothing.
func (s *Service) ListAll(ctx context.Context, params pagination.Params, statusRaw string) (*List, error) {
	filters := ListFilters{}
	if statusRaw != "" {
		status, err := enums.ParseOrderStatus(statusRaw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filters.Status = &status
	}

	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	items := make([]SummaryView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummaryView(row))
	}
	return &List{Items: items, NextCursor: next}, nil
}

// Get returns one order for the admin surface, regardless of owner.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*View, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toView(order), nil
}

// UpdateStatus moves the order along its lifecycle. Cancelling returns every
// line's units to inventory in the same transaction. The notification email
// goes out after commit and never fails the update.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, statusRaw string) (*View, error) {
	next, err := enums.ParseOrderStatus(statusRaw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	var updated *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{
					"current_status":   order.Status,
					"requested_status": next,
				})
		}

		if next == enums.OrderStatusCancelled {
			var restockErr error
			for _, item := range order.Items {
				if err := repo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					restockErr = multierr.Append(restockErr, fmt.Errorf("restock product %s: %w", item.ProductID, err))
				}
			}
			if restockErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, restockErr, "restock cancelled order")
			}
		}

		if err := repo.UpdateStatus(ctx, orderID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = next
		updated = order
		return nil
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "update order status")
	}

	s.sendStatusNotification(ctx, updated)
	return toView(updated), nil
}

func (s *Service) sendStatusNotification(ctx context.Context, order *models.Order) {
	if s.mail == nil || order == nil {
		return
	}

	email, err := s.repo.FindUserEmail(ctx, order.UserID)
	if err != nil || email == "" {
		if s.logg != nil && err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "orders.email.no_recipient")
		}
		return
	}

	msg := mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status),
		PlainText: fmt.Sprintf(
			"Your order %s has been updated.\n\nNew status: %s\nTotal: %s",
			order.OrderNumber, order.Status, order.TotalAmount.StringFixed(2),
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.IncEmailFailed("order_status")
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.email.failed", err)
		}
		return
	}
	s.metrics.IncEmailSent("order_status")
}
