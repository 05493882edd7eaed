package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places amounts are stored with.
const Places = 2

var hundred = decimal.NewFromInt(100)

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns amount × percent/100.
func Percent(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// ToMinorUnit converts a major unit amount to the provider's minor unit,
// exponent being the number of minor digits (2 for kobo and cents).
func ToMinorUnit(amount decimal.Decimal, exponent int32) int64 {
	return amount.Shift(exponent).Round(0).IntPart()
}

func FromMinorUnit(amount int64, exponent int32) decimal.Decimal {
	return decimal.New(amount, -exponent)
}
