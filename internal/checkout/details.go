package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nikolayk812/shopcart/internal/domain"
)

// Details are the checkout form fields forwarded with the order.
type Details struct {
	ShippingAddress string               `validate:"max=500"`
	PaymentMethod   domain.PaymentMethod `validate:"required,oneof=credit_card debit_card paypal"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims the fields and defaults the payment method to credit card.
func (d Details) Normalize() Details {
	d.ShippingAddress = strings.TrimSpace(d.ShippingAddress)
	d.PaymentMethod = domain.PaymentMethod(strings.TrimSpace(string(d.PaymentMethod)))
	if d.PaymentMethod == "" {
		d.PaymentMethod = domain.PaymentCreditCard
	}
	return d
}

func (d Details) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate.Struct: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s[%v] is not supported", fe.Field(), fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is longer than %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
