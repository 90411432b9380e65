package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.005", "0.01"},
		{"0.004", "0.00"},
		{"1.745", "1.75"},
		{"0.698", "0.70"},
		{"2.675", "2.68"},
		{"10.00", "10.00"},
	}
	for _, tc := range cases {
		got := Round2(decimal.RequireFromString(tc.in))
		assert.Equal(t, tc.want, got.StringFixed(2), "round %s", tc.in)
	}
}

func TestPercent(t *testing.T) {
	net := decimal.RequireFromString("7.61")
	assert.Equal(t, "1.52", Percent(net, decimal.NewFromInt(20)).StringFixed(2))
	assert.Equal(t, "0.76", Percent(net, decimal.NewFromInt(10)).StringFixed(2))
}

func TestCentsRoundTrip(t *testing.T) {
	amount := FromCents(1059)
	assert.Equal(t, "10.59", amount.StringFixed(2))
	assert.Equal(t, int64(1059), Cents(amount))
}
