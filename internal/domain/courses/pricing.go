package courses

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidDiscount = errors.New("discount must be between 0 and 100")

var hundred = decimal.NewFromInt(100)

// FinalPrice is price - discount% * price, rounded to cents.
func FinalPrice(price decimal.Decimal, discount int) decimal.Decimal {
	off := price.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
	return price.Sub(off).Round(2)
}

func (c Course) FinalPrice() decimal.Decimal {
	return FinalPrice(c.Price, c.Discount)
}

func ValidateDiscount(discount int) error {
	if discount < 0 || discount > 100 {
		return ErrInvalidDiscount
	}
	return nil
}

// MinorUnits converts a major-unit amount (dollars, rupees) into the smallest
// currency unit the payment providers expect.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
