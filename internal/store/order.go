package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
)

// ErrOrderNotFound is returned when an order id does not resolve.
var ErrOrderNotFound = errors.New("order not found")

type orderStore struct {
	*MYSQLStore
}

// Order returns an object implementing order interface
func (ms *MYSQLStore) Order() dependency.Order {
	return &orderStore{MYSQLStore: ms}
}

func (ms *MYSQLStore) GetOrderFullByID(ctx context.Context, id int) (*entity.OrderFull, error) {
	order, err := QueryNamedOne[entity.Order](ctx, ms.DB(), `
		SELECT id, uuid, donor_id, firstname, lastname, price, items,
			status, delivery_status, fisc_status, exported, created_at, updated_at
		FROM orders
		WHERE id = :id
	`, map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	ownerships, err := QueryListNamed[entity.CardOwnershipRow](ctx, ms.DB(), `
		SELECT co.id, co.order_id, co.product_id, co.user_id, co.created_at,
			p.name AS product_name
		FROM card_ownership co
		JOIN products p ON co.product_id = p.id
		WHERE co.order_id = :orderId
		ORDER BY co.id
	`, map[string]any{"orderId": id})
	if err != nil {
		return nil, fmt.Errorf("get card ownerships: %w", err)
	}

	full := &entity.OrderFull{
		Order:      order,
		Ownerships: ownerships,
	}

	if order.DonorID.Valid {
		donor, err := QueryNamedOne[entity.User](ctx, ms.DB(), `
			SELECT id, user_type_id, name, email, category, is_active, created_at
			FROM users
			WHERE id = :id
		`, map[string]any{"id": order.DonorID.Int32})
		if err == nil {
			full.Donor = &donor
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get donor: %w", err)
		}
	}

	return full, nil
}

func (ms *MYSQLStore) GetSucceededOrders(ctx context.Context) ([]entity.Order, error) {
	orders, err := QueryListNamed[entity.Order](ctx, ms.DB(), `
		SELECT id, uuid, donor_id, firstname, lastname, price, items,
			status, delivery_status, fisc_status, exported, created_at, updated_at
		FROM orders
		WHERE status = :status
		ORDER BY id
	`, map[string]any{"status": string(entity.OrderSucceeded)})
	if err != nil {
		return nil, fmt.Errorf("get succeeded orders: %w", err)
	}
	return orders, nil
}

func (ms *MYSQLStore) GetOrderBundles(ctx context.Context, orderID int) ([]entity.OrderBundle, error) {
	bundles, err := QueryListNamed[entity.OrderBundle](ctx, ms.DB(), `
		SELECT id, order_id, amount, is_digital
		FROM order_bundle
		WHERE order_id = :orderId
		ORDER BY id
	`, map[string]any{"orderId": orderID})
	if err != nil {
		return nil, fmt.Errorf("get order bundles: %w", err)
	}
	return bundles, nil
}

// Status sub-field writers. Each touches exactly one column so the order's
// immutable fields and export flags survive any write path.

func (ms *MYSQLStore) SetDeliveryStatus(ctx context.Context, orderID int, status string) error {
	return ExecNamed(ctx, ms.DB(), `
		UPDATE orders SET delivery_status = :status WHERE id = :id
	`, map[string]any{"id": orderID, "status": status})
}

func (ms *MYSQLStore) SetFiscStatus(ctx context.Context, orderID int, status string) error {
	return ExecNamed(ctx, ms.DB(), `
		UPDATE orders SET fisc_status = :status WHERE id = :id
	`, map[string]any{"id": orderID, "status": status})
}

func (ms *MYSQLStore) SetExported(ctx context.Context, orderID int, exported bool) error {
	return ExecNamed(ctx, ms.DB(), `
		UPDATE orders SET exported = :exported WHERE id = :id
	`, map[string]any{"id": orderID, "exported": exported})
}
