package enums

import "fmt"

// TransactionType maps to the transaction_type_enum enum in Postgres.
type TransactionType string

const (
	TransactionTypePrintGreetingCard  TransactionType = "print_greeting_card"
	TransactionTypePrintSticker       TransactionType = "print_sticker"
	TransactionTypeECard              TransactionType = "ecard"
	TransactionTypeGiftCardSale       TransactionType = "generic_gift_card_sale"
	TransactionTypeCustomCardPurchase TransactionType = "custom_gift_card_purchase"
	TransactionTypeCustomCardRedeem   TransactionType = "custom_gift_card_redemption"
	TransactionTypeAdjustment         TransactionType = "adjustment"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePrintGreetingCard,
	TransactionTypePrintSticker,
	TransactionTypeECard,
	TransactionTypeGiftCardSale,
	TransactionTypeCustomCardPurchase,
	TransactionTypeCustomCardRedeem,
	TransactionTypeAdjustment,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsPrintSale reports whether the type is a direct kiosk print sale.
func (t TransactionType) IsPrintSale() bool {
	return t == TransactionTypePrintGreetingCard || t == TransactionTypePrintSticker
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
