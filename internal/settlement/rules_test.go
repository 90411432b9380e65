package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwish/kiosk-backend/pkg/enums"
)

func TestRuleTableDirectSales(t *testing.T) {
	for _, txType := range []enums.TransactionType{
		enums.TransactionTypePrintGreetingCard,
		enums.TransactionTypePrintSticker,
	} {
		rule, ok := RuleFor(txType, enums.PaymentMethodCard)
		require.True(t, ok, "%s by card must be settleable", txType)
		assert.True(t, rule.ManagerCommission)
		assert.True(t, rule.SalesRepCommission)
		assert.Equal(t, BaseNet, rule.Base)

		promo, ok := RuleFor(txType, enums.PaymentMethodPromoCode)
		require.True(t, ok)
		assert.False(t, promo.ManagerCommission)
		assert.False(t, promo.SalesRepCommission)
		assert.Equal(t, BaseAuditOnly, promo.Base)
	}
}

func TestRuleTableGiftCards(t *testing.T) {
	sale, ok := RuleFor(enums.TransactionTypeGiftCardSale, enums.PaymentMethodCard)
	require.True(t, ok)
	assert.Equal(t, BasePassThrough, sale.Base)
	assert.False(t, sale.ManagerCommission)

	purchase, ok := RuleFor(enums.TransactionTypeCustomCardPurchase, enums.PaymentMethodCard)
	require.True(t, ok)
	assert.Equal(t, BaseDeferred, purchase.Base)

	redeem, ok := RuleFor(enums.TransactionTypeCustomCardRedeem, enums.PaymentMethodGiftCard)
	require.True(t, ok)
	assert.Equal(t, BaseRedemption, redeem.Base)
	assert.True(t, redeem.ManagerCommission)
	// Sales reps never earn on gift-card products.
	assert.False(t, redeem.SalesRepCommission)
}

func TestRuleTableECard(t *testing.T) {
	rule, ok := RuleFor(enums.TransactionTypeECard, enums.PaymentMethodCard)
	require.True(t, ok)
	assert.Equal(t, BaseNet, rule.Base)
	assert.False(t, rule.ManagerCommission)
	assert.False(t, rule.SalesRepCommission)

	// Promo-paid e-cards record like promo prints: an audit row, no payout.
	promo, ok := RuleFor(enums.TransactionTypeECard, enums.PaymentMethodPromoCode)
	require.True(t, ok)
	assert.Equal(t, BaseAuditOnly, promo.Base)
	assert.False(t, promo.ManagerCommission)
}

func TestRuleForUnknownCombination(t *testing.T) {
	_, ok := RuleFor(enums.TransactionTypeECard, enums.PaymentMethodGiftCard)
	assert.False(t, ok)

	_, ok = RuleFor(enums.TransactionTypeAdjustment, enums.PaymentMethodCard)
	assert.False(t, ok)
}
