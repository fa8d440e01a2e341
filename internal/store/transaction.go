package store

import (
	"context"
	"fmt"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
)

type transactionStore struct {
	*MYSQLStore
}

// Transaction returns an object implementing transaction interface
func (ms *MYSQLStore) Transaction() dependency.Transaction {
	return &transactionStore{MYSQLStore: ms}
}

// HasTransactionForOrder is the pre-insert existence check backing the
// at-most-one-transaction-per-order invariant. It is not atomic with the
// insert: the sweep runs sequentially in a single writer process.
func (ms *MYSQLStore) HasTransactionForOrder(ctx context.Context, orderID int) (bool, error) {
	count, err := QueryCountNamed(ctx, ms.DB(), `
		SELECT COUNT(*) FROM transactions
		WHERE order_id = :orderId AND is_payout = FALSE
	`, map[string]any{"orderId": orderID})
	if err != nil {
		return false, fmt.Errorf("count transactions for order: %w", err)
	}
	return count > 0, nil
}

func (ms *MYSQLStore) InsertTransaction(ctx context.Context, t *entity.TransactionInsert) (int, error) {
	id, err := ExecNamedLastId(ctx, ms.DB(), `
		INSERT INTO transactions
			(order_id, amount, fees, net_amount, association_id, is_payout, status, created_at)
		VALUES
			(:orderId, :amount, :fees, :netAmount, :associationId, FALSE, :status, NOW())
	`, map[string]any{
		"orderId":       t.OrderID,
		"amount":        t.Amount.Truncate(2),
		"fees":          t.Fees.Truncate(2),
		"netAmount":     t.NetAmount.Truncate(2),
		"associationId": t.AssociationID,
		"status":        string(entity.TransactionCompleted),
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (ms *MYSQLStore) GetTransactionsByAssociation(ctx context.Context, associationID, limit, offset int) ([]entity.Transaction, error) {
	txs, err := QueryListNamed[entity.Transaction](ctx, ms.DB(), `
		SELECT id, order_id, amount, fees, net_amount, association_id,
			is_payout, payout_date, status, created_at
		FROM transactions
		WHERE association_id = :associationId
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`, map[string]any{"associationId": associationID, "limit": limit, "offset": offset})
	if err != nil {
		return nil, fmt.Errorf("get transactions by association: %w", err)
	}
	return txs, nil
}
