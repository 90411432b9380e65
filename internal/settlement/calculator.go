package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/smartwish/kiosk-backend/pkg/money"
)

// Calculator holds the fee constants and implements the settlement formulas.
// It performs no I/O and no lookups; every input is an already-known number,
// so results are reproducible across re-runs.
type Calculator struct {
	cardFeePercent decimal.Decimal
	cardFeeFixed   decimal.Decimal
}

// NewCalculator builds a calculator with the card processor's fee schedule
// (percent expressed as a human percentage, e.g. 2.9).
func NewCalculator(cardFeePercent, cardFeeFixed decimal.Decimal) Calculator {
	return Calculator{
		cardFeePercent: cardFeePercent,
		cardFeeFixed:   cardFeeFixed,
	}
}

// DirectSaleInput carries the numbers for a card-paid print sale.
type DirectSaleInput struct {
	Gross          decimal.Decimal
	ProcessingFees decimal.Decimal
	StateTax       decimal.Decimal
	CostBasis      decimal.Decimal

	ManagerRatePercent  decimal.Decimal
	SalesRepAssigned    bool
	SalesRepRatePercent decimal.Decimal
}

// DirectSaleBreakdown is the full decomposition of a direct sale.
type DirectSaleBreakdown struct {
	Net              decimal.Decimal
	ManagerEarnings  decimal.Decimal
	SalesRepEarnings decimal.Decimal
	PlatformEarnings decimal.Decimal
}

// DirectSale decomposes a card-paid print sale. The platform share is the
// remainder after rounding the manager and sales-rep shares, so the three
// always sum to net exactly; no cent vanishes or is double-counted.
func (c Calculator) DirectSale(in DirectSaleInput) DirectSaleBreakdown {
	net := in.Gross.Sub(in.ProcessingFees).Sub(in.StateTax).Sub(in.CostBasis)

	managerEarnings := money.Percent(net, in.ManagerRatePercent)
	salesRepEarnings := money.Zero()
	if in.SalesRepAssigned {
		salesRepEarnings = money.Percent(net, in.SalesRepRatePercent)
	}
	platformEarnings := net.Sub(managerEarnings).Sub(salesRepEarnings)

	out := DirectSaleBreakdown{
		Net:              money.Round2(net),
		ManagerEarnings:  managerEarnings,
		SalesRepEarnings: salesRepEarnings,
		PlatformEarnings: platformEarnings,
	}
	mustBalance("direct sale", out.Net,
		out.ManagerEarnings.Add(out.SalesRepEarnings).Add(out.PlatformEarnings))
	return out
}

// RedemptionInput carries the numbers for one gift-card redemption visit.
// AmountRedeemed may be less than FaceValue for partial, multi-visit
// redemption.
type RedemptionInput struct {
	FaceValue      decimal.Decimal
	AmountRedeemed decimal.Decimal

	KioskDiscountPercent decimal.Decimal
	StoreDiscountPercent decimal.Decimal
	ServiceFeePercent    decimal.Decimal
}

// RedemptionBreakdown is the full decomposition of a redemption visit.
type RedemptionBreakdown struct {
	EstimatedCardFee decimal.Decimal
	ServiceFee       decimal.Decimal
	StoreDiscount    decimal.Decimal
	KioskDiscount    decimal.Decimal

	StorePayout      decimal.Decimal
	ManagerEarnings  decimal.Decimal
	PlatformEarnings decimal.Decimal
}

// Redemption decomposes one redemption visit. The original card processing
// fee is prorated by the fraction of the card spent this visit. The manager
// is repaid exactly the store-funded discount; the platform keeps the service
// fee minus the kiosk-funded discount, and may come out negative when its
// funded discount exceeds its fee income. Each intermediate dollar amount is
// rounded to 2 places before the next step.
func (c Calculator) Redemption(in RedemptionInput) RedemptionBreakdown {
	fullCardFee := c.cardFeePercent.Shift(-2).Mul(in.FaceValue).Add(c.cardFeeFixed)
	estimatedCardFee := money.Round2(fullCardFee.Mul(in.AmountRedeemed).Div(in.FaceValue))

	serviceFee := money.Percent(in.AmountRedeemed, in.ServiceFeePercent)
	storeDiscount := money.Percent(in.AmountRedeemed, in.StoreDiscountPercent)
	kioskDiscount := money.Percent(in.AmountRedeemed, in.KioskDiscountPercent)

	storePayout := in.AmountRedeemed.Sub(serviceFee).Sub(estimatedCardFee).Sub(storeDiscount)
	managerEarnings := storeDiscount
	platformEarnings := serviceFee.Sub(kioskDiscount)

	out := RedemptionBreakdown{
		EstimatedCardFee: estimatedCardFee,
		ServiceFee:       serviceFee,
		StoreDiscount:    storeDiscount,
		KioskDiscount:    kioskDiscount,
		StorePayout:      money.Round2(storePayout),
		ManagerEarnings:  managerEarnings,
		PlatformEarnings: platformEarnings,
	}
	// Every cent of the swiped amount is accounted for: the payout, the two
	// earnings lines, the prorated card fee, and the kiosk-funded discount
	// the platform gave away.
	mustBalance("redemption", in.AmountRedeemed,
		out.StorePayout.
			Add(out.ManagerEarnings).
			Add(out.PlatformEarnings).
			Add(out.EstimatedCardFee).
			Add(out.KioskDiscount))
	return out
}

// PassThroughBreakdown is the zero-commission decomposition used for generic
// gift-card sales, custom gift-card purchases, and promo prints.
type PassThroughBreakdown struct {
	Gross          decimal.Decimal
	ProcessingFees decimal.Decimal
}

// PassThrough records amounts for audit without distributing anything.
func (c Calculator) PassThrough(gross, processingFees decimal.Decimal) PassThroughBreakdown {
	return PassThroughBreakdown{
		Gross:          money.Round2(gross),
		ProcessingFees: money.Round2(processingFees),
	}
}

// mustBalance panics on a monetary invariant breach. A breach is a programming
// error, not user input, and must never be stored.
func mustBalance(formula string, want, got decimal.Decimal) {
	if !money.Equal(want, got) {
		panic(fmt.Sprintf("settlement %s shares do not balance: want %s, got %s",
			formula, want.StringFixed(2), got.StringFixed(2)))
	}
}
