package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	KHR Currency = "KHR" // Cambodian Riel
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

var currencySymbols = map[Currency]string{
	USD: "$",
	KHR: "៛",
}

// Symbol returns the display symbol of the currency, empty when unknown
func (c Currency) Symbol() string {
	return currencySymbols[c]
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Round returns a new Money rounded half up to the specified decimal places
func (m Money) Round(places int32) Money {
	return Money{
		amount:   m.amount.Round(places),
		currency: m.currency,
	}
}

// SymbolPosition places the currency symbol before or after the amount
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

var printer = message.NewPrinter(language.English)

// FormatNumber rounds half up to rounding places and renders the value with
// thousands separators and precision decimals
func FormatNumber(value decimal.Decimal, rounding, precision int32) string {
	fixed := value.Round(rounding).StringFixed(precision)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	whole, err := decimal.NewFromString(intPart)
	if err != nil {
		return sign + fixed
	}
	grouped := printer.Sprintf("%d", whole.IntPart())
	if hasFrac {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}

// Format renders the amount with its currency symbol. Riel amounts never
// show decimals.
func (m Money) Format(rounding, precision int32, position SymbolPosition) string {
	if m.currency == KHR {
		precision = 0
	}
	amount := FormatNumber(m.amount, rounding, precision)
	if position == SymbolAfter {
		return amount + m.currency.Symbol()
	}
	return m.currency.Symbol() + amount
}

// String returns a string representation of the Money
func (m Money) String() string {
	return m.Format(2, 2, SymbolBefore)
}
