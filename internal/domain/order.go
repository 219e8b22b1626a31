package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPayPal     PaymentMethod = "paypal"
)

// OrderItem is the only per-line data the client sends; prices and names
// are resolved by the order service.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderRequest struct {
	Items           []OrderItem   `json:"items"`
	ShippingAddress string        `json:"shippingAddress,omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderLine     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Shipping        decimal.Decimal `json:"shipping"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	ShippingAddress any             `json:"shippingAddress,omitempty"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod,omitempty"`
	PaymentStatus   string          `json:"paymentStatus,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
