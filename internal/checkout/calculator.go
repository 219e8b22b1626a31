// Package checkout turns a cart snapshot into the figures shown to the
// shopper and the payload sent to the order service. Everything here is pure:
// the cart summary and the confirmation step call the same functions and so
// can never disagree.
package checkout

import (
	"github.com/nikolayk812/shopcart/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	TaxRate     = decimal.RequireFromString("0.08")
	ShippingFee = decimal.RequireFromString("15.99")
)

type Breakdown struct {
	Currency currency.Unit
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeBreakdown prices a cart. Amounts are exact; round only for display.
// Shipping is not charged on an empty cart.
func ComputeBreakdown(c domain.Cart) Breakdown {
	subtotal := decimal.Zero
	for _, l := range c.Lines {
		subtotal = subtotal.Add(l.Total())
	}

	shipping := decimal.Zero
	if !c.IsEmpty() {
		shipping = ShippingFee
	}

	tax := subtotal.Mul(TaxRate)

	return Breakdown{
		Currency: c.Currency,
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

func (b Breakdown) Money(amount decimal.Decimal) domain.Money {
	return domain.Money{Amount: amount, Currency: b.Currency}
}

type Line struct {
	Label  string
	Amount domain.Money
}

// Lines lists the breakdown in display order.
func (b Breakdown) Lines() []Line {
	return []Line{
		{Label: "Subtotal", Amount: b.Money(b.Subtotal)},
		{Label: "Tax (8%)", Amount: b.Money(b.Tax)},
		{Label: "Shipping", Amount: b.Money(b.Shipping)},
		{Label: "Total", Amount: b.Money(b.Total)},
	}
}

// OrderPayload lists one item per cart line, in cart order.
func OrderPayload(c domain.Cart) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
		})
	}
	return items
}
