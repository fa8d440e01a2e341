package entity

import (
	"database/sql"
	"time"
)

// Campaign represents the campaigns table. A campaign is owned by exactly one
// association user and owns products.
type Campaign struct {
	ID        int          `db:"id"`
	UserID    int          `db:"user_id"`
	Title     string       `db:"title"`
	StartDate sql.NullTime `db:"start_date"`
	EndDate   sql.NullTime `db:"end_date"`
	Deleted   bool         `db:"deleted"`
	CreatedAt time.Time    `db:"created_at"`
}

// Product represents the products table. The digital/physical nature is not a
// product attribute: it is carried by the order line items, since a single
// campaign can sell several product types.
type Product struct {
	ID         int       `db:"id"`
	CampaignID int       `db:"campaign_id"`
	Name       string    `db:"name"`
	CreatedAt  time.Time `db:"created_at"`
}

// CardOwnership represents the card_ownership table: the normalized join
// between an order and the products it granted. Legacy orders predate this
// table and only carry the denormalized items JSON.
type CardOwnership struct {
	ID        int           `db:"id"`
	OrderID   int           `db:"order_id"`
	ProductID int           `db:"product_id"`
	UserID    sql.NullInt32 `db:"user_id"`
	CreatedAt time.Time     `db:"created_at"`
}

// CardOwnershipRow is a CardOwnership joined with the product name, as read by
// the order projection.
type CardOwnershipRow struct {
	CardOwnership
	ProductName string `db:"product_name"`
}
