package enums

import "fmt"

// PaymentMethod describes how a kiosk transaction was paid for.
type PaymentMethod string

const (
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodPromoCode PaymentMethod = "promo_code"
	PaymentMethodGiftCard  PaymentMethod = "gift_card"
	PaymentMethodNone      PaymentMethod = "none"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodPromoCode,
	PaymentMethodGiftCard,
	PaymentMethodNone,
}

// IsValid reports whether the value matches the canonical payment method enum.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
