package settlement

import (
	"github.com/smartwish/kiosk-backend/pkg/enums"
)

// CommissionBase describes how the distributable amount for a transaction
// type is derived.
type CommissionBase string

const (
	// BaseNet splits gross minus fees, tax and cost basis among the parties.
	BaseNet CommissionBase = "net"
	// BaseAuditOnly records the transaction with zero monetary fields.
	BaseAuditOnly CommissionBase = "audit_only"
	// BasePassThrough forwards face value; the platform earns nothing and
	// only the processing fee is recorded.
	BasePassThrough CommissionBase = "pass_through"
	// BaseDeferred defers all earnings to the card's later redemption.
	BaseDeferred CommissionBase = "deferred"
	// BaseRedemption applies the gift-card redemption formula.
	BaseRedemption CommissionBase = "redemption"
)

// Rule states which parties participate in a settlement and on what base.
type Rule struct {
	ManagerCommission  bool
	SalesRepCommission bool
	Base               CommissionBase
}

// Sales-rep commission never applies to gift-card products; only direct print
// sales paid by card carry all three parties.
var ruleTable = map[enums.TransactionType]map[enums.PaymentMethod]Rule{
	enums.TransactionTypePrintGreetingCard: {
		enums.PaymentMethodCard:      {ManagerCommission: true, SalesRepCommission: true, Base: BaseNet},
		enums.PaymentMethodPromoCode: {Base: BaseAuditOnly},
	},
	enums.TransactionTypePrintSticker: {
		enums.PaymentMethodCard:      {ManagerCommission: true, SalesRepCommission: true, Base: BaseNet},
		enums.PaymentMethodPromoCode: {Base: BaseAuditOnly},
	},
	enums.TransactionTypeECard: {
		enums.PaymentMethodCard:      {Base: BaseNet},
		enums.PaymentMethodPromoCode: {Base: BaseAuditOnly},
	},
	enums.TransactionTypeGiftCardSale: {
		enums.PaymentMethodCard: {Base: BasePassThrough},
	},
	enums.TransactionTypeCustomCardPurchase: {
		enums.PaymentMethodCard: {Base: BaseDeferred},
	},
	enums.TransactionTypeCustomCardRedeem: {
		enums.PaymentMethodGiftCard: {ManagerCommission: true, Base: BaseRedemption},
	},
}

// RuleFor returns the commission rule for a transaction type and payment
// method. The second return is false when the combination is not settleable.
func RuleFor(txType enums.TransactionType, method enums.PaymentMethod) (Rule, bool) {
	byMethod, ok := ruleTable[txType]
	if !ok {
		return Rule{}, false
	}
	rule, ok := byMethod[method]
	return rule, ok
}
