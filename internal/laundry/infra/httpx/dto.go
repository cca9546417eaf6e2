package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
)

type OrderResponse struct {
	Code         string              `json:"code"`
	CustomerName string              `json:"customer_name"`
	PhoneNumber  string              `json:"phone_number"`
	CreatedAt    string              `json:"created_at"`
	Currency     string              `json:"currency"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Items        []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ItemType   string          `json:"item_type"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// mapOrderToResponse converts the order entity to the JSON response format.
func mapOrderToResponse(order *entity.Order, currency string) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, it := range order.Items {
		items[i] = OrderItemResponse{
			ItemType:   string(it.ItemType),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
	}
	return OrderResponse{
		Code:         order.Code,
		CustomerName: order.CustomerName,
		PhoneNumber:  order.PhoneNumber,
		CreatedAt:    order.CreatedAt.UTC().Format(time.RFC3339),
		Currency:     currency,
		TotalAmount:  order.TotalAmount,
		Items:        items,
	}
}
