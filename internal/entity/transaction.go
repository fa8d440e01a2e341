package entity

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatusName is the custom type to enforce enum-like behavior
type TransactionStatusName string

const (
	TransactionCompleted TransactionStatusName = "completed"
	TransactionPending   TransactionStatusName = "pending"
)

// Transaction represents the transactions table: an append-mostly ledger entry
// derived from a succeeded order. order_id is a weak reference so the ledger
// survives order deletion. amount = fees + net_amount always holds.
type Transaction struct {
	ID            int                   `db:"id"`
	OrderID       sql.NullInt32         `db:"order_id"`
	Amount        decimal.Decimal       `db:"amount"`
	Fees          decimal.Decimal       `db:"fees"`
	NetAmount     decimal.Decimal       `db:"net_amount"`
	AssociationID int                   `db:"association_id"`
	IsPayout      bool                  `db:"is_payout"`
	PayoutDate    sql.NullTime          `db:"payout_date"`
	Status        TransactionStatusName `db:"status"`
	CreatedAt     time.Time             `db:"created_at"`
}

// TransactionInsert carries the fields the ledger derivation writes. Monetary
// figures are truncated to 2 decimal places by the store at insert time.
type TransactionInsert struct {
	OrderID       int
	Amount        decimal.Decimal
	Fees          decimal.Decimal
	NetAmount     decimal.Decimal
	AssociationID int
}
