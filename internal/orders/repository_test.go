package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gymstore/backend/pkg/enums"
	"github.com/gymstore/backend/pkg/pagination"
)

func TestRepositoryListFilters(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()
	base := time.Now().Add(-time.Hour)
	seedOrder(t, conn, owner, enums.OrderStatusPending, base)
	seedOrder(t, conn, owner, enums.OrderStatusShipped, base.Add(time.Minute))
	seedOrder(t, conn, other, enums.OrderStatusShipped, base.Add(2*time.Minute))

	rows, next, err := repo.List(ctx, pagination.Params{}, ListFilters{UserID: &owner})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Empty(t, next)

	shipped := enums.OrderStatusShipped
	rows, _, err = repo.List(ctx, pagination.Params{}, ListFilters{Status: &shipped})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, _, err = repo.List(ctx, pagination.Params{}, ListFilters{UserID: &owner, Status: &shipped})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusShipped, rows[0].Status)
}

func TestRepositoryListCursorWalksAllRows(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		seedOrder(t, conn, owner, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	seen := 0
	cursor := ""
	for {
		rows, next, err := repo.List(ctx, pagination.Params{Limit: 3, Cursor: cursor}, ListFilters{})
		require.NoError(t, err)
		seen += len(rows)
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Equal(t, 7, seen)
}

func TestRepositoryFindByIDForUser(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, conn, owner, enums.OrderStatusPending, time.Now())
	seedOrderItem(t, conn, order.ID, uuid.New(), 2)

	found, err := repo.FindByIDForUser(ctx, order.ID, owner)
	require.NoError(t, err)
	assert.Len(t, found.Items, 1)

	_, err = repo.FindByIDForUser(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStatusMissingRow(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusShipped)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryIncrementStockToleratesMissingProduct(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	require.NoError(t, repo.IncrementStock(context.Background(), uuid.New(), 3))
}

func TestRepositoryFindUserEmail(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := seedUser(t, conn, "lifter@example.com")

	email, err := repo.FindUserEmail(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lifter@example.com", email)

	_, err = repo.FindUserEmail(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryWithTxRebinds(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		bound := repo.WithTx(tx)
		return bound.IncrementStock(context.Background(), uuid.New(), 1)
	}))
	assert.Same(t, repo, repo.WithTx(nil))
}
