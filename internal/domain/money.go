package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// String renders the amount with the currency symbol, rounded to the
// currency's standard scale. Rounding happens here only; arithmetic elsewhere
// keeps full precision.
func (m Money) String() string {
	scale, _ := currency.Standard.Rounding(m.Currency)
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(m.Currency)) + m.Amount.StringFixed(int32(scale))
}
