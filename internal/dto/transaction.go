package dto

import (
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
)

// Transaction is the admin-facing view of a ledger entry.
type Transaction struct {
	ID            int        `json:"id"`
	OrderID       *int       `json:"orderId,omitempty"`
	Amount        string     `json:"amount"`
	Fees          string     `json:"fees"`
	NetAmount     string     `json:"netAmount"`
	AssociationID int        `json:"associationId"`
	IsPayout      bool       `json:"isPayout"`
	PayoutDate    *time.Time `json:"payoutDate,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ConvertTransactions converts ledger entities to their JSON shape. The weak
// order reference renders as null once the order is gone.
func ConvertTransactions(txs []entity.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		c := Transaction{
			ID:            t.ID,
			Amount:        t.Amount.String(),
			Fees:          t.Fees.String(),
			NetAmount:     t.NetAmount.String(),
			AssociationID: t.AssociationID,
			IsPayout:      t.IsPayout,
			Status:        string(t.Status),
			CreatedAt:     t.CreatedAt,
		}
		if t.OrderID.Valid {
			orderID := int(t.OrderID.Int32)
			c.OrderID = &orderID
		}
		if t.PayoutDate.Valid {
			payoutDate := t.PayoutDate.Time
			c.PayoutDate = &payoutDate
		}
		out = append(out, c)
	}
	return out
}
