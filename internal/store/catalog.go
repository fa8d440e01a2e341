package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/assolib/assolib-manager/internal/dependency"
	"github.com/assolib/assolib-manager/internal/entity"
)

var (
	// ErrAssociationNotFound is returned when a user id does not resolve to
	// an association-typed user.
	ErrAssociationNotFound = errors.New("association not found")
	// ErrOwnershipChainBroken is returned when a product does not walk up to
	// an owning association (orphaned product or campaign).
	ErrOwnershipChainBroken = errors.New("ownership chain broken")
)

type catalogStore struct {
	*MYSQLStore
}

// Catalog returns an object implementing catalog interface
func (ms *MYSQLStore) Catalog() dependency.Catalog {
	return &catalogStore{MYSQLStore: ms}
}

func (ms *MYSQLStore) GetAssociationByID(ctx context.Context, id int) (*entity.Association, error) {
	a, err := QueryNamedOne[entity.Association](ctx, ms.DB(), `
		SELECT u.id, u.user_type_id, u.name, u.email, u.category, u.is_active, u.created_at,
			ut.name AS user_type_name
		FROM users u
		JOIN user_type ut ON u.user_type_id = ut.id
		WHERE u.id = :id AND ut.name = :typeName
	`, map[string]any{"id": id, "typeName": string(entity.UserTypeAssociation)})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssociationNotFound
		}
		return nil, fmt.Errorf("get association: %w", err)
	}
	return &a, nil
}

// GetAssociationIDByProduct walks product -> campaign -> owning user. Used by
// the ledger derivation to attribute an order's revenue.
func (ms *MYSQLStore) GetAssociationIDByProduct(ctx context.Context, productID int) (int, error) {
	type row struct {
		UserID int `db:"user_id"`
	}
	r, err := QueryNamedOne[row](ctx, ms.DB(), `
		SELECT c.user_id
		FROM products p
		JOIN campaigns c ON p.campaign_id = c.id
		JOIN users u ON c.user_id = u.id
		JOIN user_type ut ON u.user_type_id = ut.id
		WHERE p.id = :productId AND ut.name = :typeName
	`, map[string]any{"productId": productID, "typeName": string(entity.UserTypeAssociation)})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrOwnershipChainBroken
		}
		return 0, fmt.Errorf("resolve association by product: %w", err)
	}
	return r.UserID, nil
}

func (ms *MYSQLStore) GetProductNames(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}
	rows, err := QueryListNamed[struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}](ctx, ms.DB(), `
		SELECT id, name FROM products WHERE id IN (:ids)
	`, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("get product names: %w", err)
	}
	names := make(map[int]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}
