// Package pricing turns requested quantities into priced order lines.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
)

// PriceTable maps each item type to its unit price.
type PriceTable map[entity.ItemType]decimal.Decimal

// DefaultPriceTable is the shop's standard tariff in KES.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		entity.ItemShirt:    decimal.NewFromInt(50),
		entity.ItemTrousers: decimal.NewFromInt(70),
		entity.ItemSuit:     decimal.NewFromInt(150),
		entity.ItemBedsheet: decimal.NewFromInt(100),
	}
}

// MaxPriceDecimals is the number of fractional digits a unit price may carry.
// Receipts print and stores persist amounts at this scale.
const MaxPriceDecimals = 2

// Validate checks that every item type has a non-negative price with at most
// MaxPriceDecimals fractional digits.
func (p PriceTable) Validate() error {
	for _, t := range entity.ItemTypes() {
		price, ok := p[t]
		if !ok {
			return fmt.Errorf("pricing: no unit price for %s", t)
		}
		if price.IsNegative() {
			return fmt.Errorf("pricing: negative unit price %s for %s", price, t)
		}
		if !price.Equal(price.Round(MaxPriceDecimals)) {
			return fmt.Errorf("pricing: unit price %s for %s has more than %d decimal places", price, t, MaxPriceDecimals)
		}
	}
	return nil
}

type Calculator struct {
	prices PriceTable
}

func NewCalculator(prices PriceTable) (*Calculator, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	table := make(PriceTable, len(prices))
	for t, p := range prices {
		table[t] = p
	}
	return &Calculator{prices: table}, nil
}

// UnitPrice returns the configured price for t.
func (c *Calculator) UnitPrice(t entity.ItemType) decimal.Decimal {
	return c.prices[t]
}

// Price builds one line per item type with a positive quantity, in display
// order, and returns the lines together with their sum.
func (c *Calculator) Price(quantities map[entity.ItemType]int) ([]entity.OrderItem, decimal.Decimal) {
	items := make([]entity.OrderItem, 0, len(quantities))
	total := decimal.Zero

	for _, t := range entity.ItemTypes() {
		qty := quantities[t]
		if qty <= 0 {
			continue
		}
		unit := c.prices[t]
		line := unit.Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, entity.OrderItem{
			ItemType:   t,
			Quantity:   qty,
			UnitPrice:  unit,
			TotalPrice: line,
		})
		total = total.Add(line)
	}

	return items, total
}
