package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nikolayk812/shopcart/internal/domain"
	"golang.org/x/text/currency"
)

// record is the persisted shape of the cart slot.
type record struct {
	Currency string       `json:"currency"`
	Lines    []lineRecord `json:"lines"`
}

type lineRecord struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

func encode(c domain.Cart) ([]byte, error) {
	rec := record{
		Currency: c.Currency.String(),
		Lines:    make([]lineRecord, 0, len(c.Lines)),
	}
	for _, l := range c.Lines {
		rec.Lines = append(rec.Lines, lineRecord{Product: l.Product, Quantity: l.Quantity})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return data, nil
}

// decode restores a persisted cart. Lines that break the cart invariants are
// repaired rather than rejected: non-positive quantities and blank ids are
// dropped, duplicate ids are merged into the first occurrence.
func decode(data []byte, fallback currency.Unit) (domain.Cart, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	unit := fallback
	if rec.Currency != "" {
		parsed, err := currency.ParseISO(rec.Currency)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("currency[%s] is not valid: %w", rec.Currency, err)
		}
		unit = parsed
	}

	c := domain.Cart{Currency: unit}
	index := make(map[string]int, len(rec.Lines))

	for _, l := range rec.Lines {
		if strings.TrimSpace(l.Product.ID) == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.Product.ID]; ok {
			c.Lines[i].Quantity += l.Quantity
			continue
		}
		index[l.Product.ID] = len(c.Lines)
		c.Lines = append(c.Lines, domain.CartLine{Product: l.Product, Quantity: l.Quantity})
	}

	return c, nil
}
