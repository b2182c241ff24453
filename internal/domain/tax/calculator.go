package tax

import (
	"fmt"

	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidCalculation is returned for inputs the calculator cannot price
var ErrInvalidCalculation = shared.NewDomainError("INVALID_CALCULATION", "Invalid tax calculation input")

// FindPercentage returns the percentage fixedValue represents of price
func FindPercentage(price, fixedValue decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return price, nil
	}
	if price.LessThan(fixedValue) {
		return decimal.Zero, shared.NewDomainError(ErrInvalidCalculation.Code, "Price cannot be smaller than the fixed value")
	}
	return fixedValue.Div(price).Mul(hundred), nil
}

// FindFixedValue returns percentage of price
func FindFixedValue(price, percentage decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, nil
	}
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return decimal.Zero, shared.NewDomainError(ErrInvalidCalculation.Code, "Percentage must be between 0 and 100")
	}
	return price.Mul(percentage).Div(hundred), nil
}

// Rate is one tax applied by the calculator
type Rate struct {
	Name              string
	Amount            decimal.Decimal
	AmountType        AmountType
	TaxOption         Option
	TaxDiscountOption DiscountOption
}

// Calculator prices a base amount under a set of taxes
type Calculator struct {
	BasePrice decimal.Decimal
	Discount  decimal.Decimal
	Rates     []Rate
}

// Result is the outcome of a tax calculation
type Result struct {
	BasePrice  decimal.Decimal            `json:"base_price"`
	FinalPrice decimal.Decimal            `json:"final_price"`
	TotalTax   decimal.Decimal            `json:"total_tax"`
	Breakdown  map[string]decimal.Decimal `json:"tax_breakdown"`
}

// Calculate applies every rate. Exclusive taxes add to the final price,
// inclusive taxes are extracted from it.
func (c Calculator) Calculate() (Result, error) {
	res := Result{
		BasePrice:  c.BasePrice,
		FinalPrice: c.BasePrice.Sub(c.Discount),
		TotalTax:   decimal.Zero,
		Breakdown:  make(map[string]decimal.Decimal, len(c.Rates)),
	}

	for _, r := range c.Rates {
		price, err := c.taxablePrice(r.TaxDiscountOption)
		if err != nil {
			return Result{}, err
		}

		var amount decimal.Decimal
		switch r.TaxOption {
		case OptionExclusive:
			if r.AmountType == AmountTypePercentage {
				amount, err = FindFixedValue(price, r.Amount)
				if err != nil {
					return Result{}, err
				}
			} else {
				amount = r.Amount
			}
			res.FinalPrice = res.FinalPrice.Add(amount)
		case OptionInclusive:
			if r.AmountType == AmountTypePercentage {
				base := price.Div(decimal.NewFromInt(1).Add(r.Amount.Div(hundred)))
				amount = price.Sub(base)
			} else {
				amount = r.Amount
			}
		default:
			return Result{}, shared.NewDomainError(ErrInvalidCalculation.Code, fmt.Sprintf("Invalid tax option %q", r.TaxOption))
		}

		res.TotalTax = res.TotalTax.Add(amount)
		res.Breakdown[r.Name] = amount
	}
	return res, nil
}

func (c Calculator) taxablePrice(opt DiscountOption) (decimal.Decimal, error) {
	switch opt {
	case DiscountBefore:
		return c.BasePrice, nil
	case DiscountAfter:
		return c.BasePrice.Sub(c.Discount), nil
	default:
		return decimal.Zero, shared.NewDomainError(ErrInvalidCalculation.Code, "Invalid tax discount option")
	}
}
