package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Cart struct {
	Currency currency.Unit
	Lines    []CartLine
}

type CartLine struct {
	Product  Product
	Quantity int
}

func (l CartLine) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Line(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) Clone() Cart {
	lines := make([]CartLine, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = CartLine{Product: l.Product.Clone(), Quantity: l.Quantity}
	}
	return Cart{Currency: c.Currency, Lines: lines}
}
