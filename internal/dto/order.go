// Package dto contains data transfer objects for the admin API.
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
)

// Product source markers reported on a projected order, so admin tooling can
// tell normalized rows from legacy JSON parses apart.
const (
	ProductSourceOwnership = "ownership"
	ProductSourceItems     = "items"
)

// ProductRef is one resolved product on a projected order.
type ProductRef struct {
	ProductID   int    `json:"productId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	ProductType string `json:"productType,omitempty"`
}

// OrderProjection is the admin-facing view of an order.
type OrderProjection struct {
	ID             int          `json:"id"`
	UUID           string       `json:"uuid"`
	CustomerName   string       `json:"customerName"`
	Price          string       `json:"price"`
	Status         string       `json:"status"`
	DeliveryStatus string       `json:"deliveryStatus"`
	FiscStatus     string       `json:"fiscStatus"`
	Exported       bool         `json:"exported"`
	Products       []ProductRef `json:"products"`
	ProductSource  string       `json:"productSource"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// FallbackProductIDs returns the product ids a projection will need names for
// when the order has no ownership rows. Items whose productId is not a
// positive integer are skipped, matching the projection itself.
func FallbackProductIDs(o *entity.Order) []int {
	var ids []int
	for _, li := range o.Items() {
		if id, ok := li.ProductID.Int(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ConvertOrderFullToProjection builds the admin view of an order. Products
// come from the normalized ownership rows when any exist; otherwise the
// legacy items JSON is parsed and names are resolved through the given map.
func ConvertOrderFullToProjection(full *entity.OrderFull, productNames map[int]string) OrderProjection {
	p := OrderProjection{
		ID:             full.Order.ID,
		UUID:           full.Order.UUID,
		CustomerName:   customerName(full),
		Price:          full.Order.Price,
		Status:         string(full.Order.Status),
		DeliveryStatus: full.Order.DeliveryStatus,
		FiscStatus:     full.Order.FiscStatus,
		Exported:       full.Order.Exported,
		CreatedAt:      full.Order.CreatedAt,
	}

	if len(full.Ownerships) > 0 {
		p.ProductSource = ProductSourceOwnership
		p.Products = make([]ProductRef, 0, len(full.Ownerships))
		for _, co := range full.Ownerships {
			p.Products = append(p.Products, ProductRef{
				ProductID: co.ProductID,
				Name:      co.ProductName,
				Quantity:  1,
			})
		}
		return p
	}

	p.ProductSource = ProductSourceItems
	for _, li := range full.Order.Items() {
		id, ok := li.ProductID.Int()
		if !ok {
			continue
		}
		name, ok := productNames[id]
		if !ok {
			name = fmt.Sprintf("product #%d", id)
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		p.Products = append(p.Products, ProductRef{
			ProductID:   id,
			Name:        name,
			Quantity:    qty,
			ProductType: string(li.ProductType),
		})
	}
	return p
}

// customerName resolves the display name: checkout names first, then the
// donor account, then the placeholder.
func customerName(full *entity.OrderFull) string {
	name := strings.TrimSpace(strings.TrimSpace(full.Order.Firstname) + " " + strings.TrimSpace(full.Order.Lastname))
	if name != "" {
		return name
	}
	if full.Donor != nil && strings.TrimSpace(full.Donor.Name) != "" {
		return strings.TrimSpace(full.Donor.Name)
	}
	return "N/A"
}
