package entity

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusName is the custom type to enforce enum-like behavior
type OrderStatusName string

func (osn *OrderStatusName) String() string {
	return string(*osn)
}

const (
	OrderPending   OrderStatusName = "pending"
	OrderSucceeded OrderStatusName = "succeeded"
	OrderFailed    OrderStatusName = "failed"
	OrderCancelled OrderStatusName = "cancelled"
)

// ValidOrderStatusNames is a set of valid order status names
var ValidOrderStatusNames = map[OrderStatusName]bool{
	OrderPending:   true,
	OrderSucceeded: true,
	OrderFailed:    true,
	OrderCancelled: true,
}

// ProductType classifies a line item. Magnet and collector cards are physical
// goods, digital cards are delivered electronically.
type ProductType string

const (
	ProductTypeMagnet    ProductType = "magnet"
	ProductTypeDigital   ProductType = "digital"
	ProductTypeCollector ProductType = "collector"
)

func (pt ProductType) Valid() bool {
	switch pt {
	case ProductTypeMagnet, ProductTypeDigital, ProductTypeCollector:
		return true
	}
	return false
}

func (pt ProductType) IsDigital() bool {
	return pt == ProductTypeDigital
}

// FlexID is a product id as found in legacy denormalized items JSON, where it
// may be stored as a number or as an arbitrary string.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) > 1 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexID(v)
		return nil
	}
	*f = FlexID(s)
	return nil
}

// Int returns the id as an integer, and false when the raw value does not
// parse as one.
func (f FlexID) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// LineItem is one entry of an order's denormalized items JSON array.
type LineItem struct {
	ProductID   FlexID          `json:"productId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	ProductType ProductType     `json:"productType"`
}

// Order represents the orders table. An order is created at checkout
// completion and immutable afterwards except for status, delivery_status,
// fisc_status and the exported flag.
type Order struct {
	ID             int             `db:"id"`
	UUID           string          `db:"uuid"`
	DonorID        sql.NullInt32   `db:"donor_id"`
	Firstname      string          `db:"firstname"`
	Lastname       string          `db:"lastname"`
	Price          string          `db:"price"` // decimal-as-string, legacy rows may hold junk
	ItemsRaw       []byte          `db:"items"`
	Status         OrderStatusName `db:"status"`
	DeliveryStatus string          `db:"delivery_status"`
	FiscStatus     string          `db:"fisc_status"`
	Exported       bool            `db:"exported"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Items decodes the denormalized items column. Decoding fails soft per item:
// entries that are not valid JSON objects are dropped, never the whole order.
func (o *Order) Items() []LineItem {
	if len(o.ItemsRaw) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(o.ItemsRaw, &raw); err != nil {
		return nil
	}
	items := make([]LineItem, 0, len(raw))
	for _, r := range raw {
		var li LineItem
		if err := json.Unmarshal(r, &li); err != nil {
			continue
		}
		items = append(items, li)
	}
	return items
}

// PriceDecimal parses the legacy price column. The second return value is
// false when the column does not hold a positive decimal.
func (o *Order) PriceDecimal() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(o.Price))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// HasDigitalItem reports whether any line item carries the digital marker.
func (o *Order) HasDigitalItem() bool {
	for _, li := range o.Items() {
		if li.ProductType.IsDigital() {
			return true
		}
	}
	return false
}

// OrderBundle represents the order_bundle table: legacy per-bundle sub-records
// written by an earlier checkout generation. Newer orders have none.
type OrderBundle struct {
	ID        int             `db:"id"`
	OrderID   int             `db:"order_id"`
	Amount    decimal.Decimal `db:"amount"`
	IsDigital bool            `db:"is_digital"`
}

// OrderFull is an order with the joined rows the projection needs.
type OrderFull struct {
	Order      Order
	Ownerships []CardOwnershipRow
	Donor      *User
}
