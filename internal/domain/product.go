package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Product is a catalog snapshot captured when the shopper adds it to the cart.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Images         []string        `json:"images,omitempty"`
	Image          string          `json:"image,omitempty"`
	Specifications map[string]any  `json:"specifications,omitempty"`
}

// PrimaryImage returns the first gallery image, falling back to the legacy
// single image field, or "" when the product has neither.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}

// Clone returns a deep copy. Specifications decoded from JSON may nest maps
// and slices, so those are copied recursively.
func (p Product) Clone() Product {
	p.Images = slices.Clone(p.Images)
	if p.Specifications != nil {
		p.Specifications = cloneSpecs(p.Specifications)
	}
	return p
}

func cloneSpecs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneSpecValue(v)
	}
	return out
}

func cloneSpecValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		return cloneSpecs(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneSpecValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}
