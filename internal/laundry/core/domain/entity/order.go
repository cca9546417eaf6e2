package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType is one of the garment categories the shop accepts.
type ItemType string

const (
	ItemShirt    ItemType = "Shirt"
	ItemTrousers ItemType = "Trousers"
	ItemSuit     ItemType = "Suit"
	ItemBedsheet ItemType = "Bedsheet"
)

// ItemTypes returns every accepted item type in display order.
func ItemTypes() []ItemType {
	return []ItemType{ItemShirt, ItemTrousers, ItemSuit, ItemBedsheet}
}

// FormField is the name of the intake form field carrying the quantity for t.
func (t ItemType) FormField() string {
	switch t {
	case ItemShirt:
		return "shirts"
	case ItemTrousers:
		return "trousers"
	case ItemSuit:
		return "suits"
	case ItemBedsheet:
		return "bedsheets"
	}
	return ""
}

// Key is the lower-case configuration key for t.
func (t ItemType) Key() string {
	switch t {
	case ItemShirt:
		return "shirt"
	case ItemTrousers:
		return "trousers"
	case ItemSuit:
		return "suit"
	case ItemBedsheet:
		return "bedsheet"
	}
	return ""
}

func (t ItemType) Valid() bool {
	return t.Key() != ""
}

// ParseItemType accepts a configuration key, a form field or a display name.
func ParseItemType(s string) (ItemType, bool) {
	for _, t := range ItemTypes() {
		if s == t.Key() || s == t.FormField() || s == string(t) {
			return t, true
		}
	}
	return "", false
}

type Order struct {
	ID           int64
	Code         string
	CustomerName string
	PhoneNumber  string
	CreatedAt    time.Time
	TotalAmount  decimal.Decimal
	Items        []OrderItem
}

type OrderItem struct {
	ID         int64
	OrderID    int64
	ItemType   ItemType
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Subtotal is quantity times unit price, independent of the stored TotalPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the stored line totals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}
