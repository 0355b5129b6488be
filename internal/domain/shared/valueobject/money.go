package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	TZS Currency = "TZS" // Tanzanian Shilling (base)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	AED Currency = "AED" // UAE Dirham
	KES Currency = "KES" // Kenyan Shilling
	CNY Currency = "CNY" // Chinese Yuan
)

// BaseCurrency is the currency all stock values are kept in
const BaseCurrency = TZS

// currencySymbols lists the currencies printed with a symbol prefix instead of their code
var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
}

// ParseCurrency normalizes a currency code. An empty code yields BaseCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return BaseCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	return Currency(code), nil
}

// Money is a value object representing monetary amounts.
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
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// MultiplyByInt returns a new Money multiplied by an integer
func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// Convert returns the amount expressed in target using rate, where rate is
// the number of target units per one unit of m's currency.
func (m Money) Convert(target Currency, rate decimal.Decimal) (Money, error) {
	if m.currency == target {
		return m, nil
	}
	if !rate.IsPositive() {
		return Money{}, fmt.Errorf("exchange rate from %s to %s must be positive", m.currency, target)
	}
	return Money{amount: m.amount.Mul(rate), currency: target}, nil
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// Format renders the amount for display, see FormatCurrency
func (m Money) Format() string {
	return FormatCurrency(m.amount, m.currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.String(),
		Currency: m.currency,
	})
}

// FormatCurrency renders an amount with thousands separators and at most two
// decimals. USD, EUR and GBP use their symbol; every other currency is
// prefixed with its code, e.g. "TZS 1,250,000" or "$1,234.5".
func FormatCurrency(amount decimal.Decimal, currency Currency) string {
	if currency == "" {
		currency = BaseCurrency
	}
	number := groupThousands(amount.Round(2))
	if symbol, ok := currencySymbols[currency]; ok {
		if strings.HasPrefix(number, "-") {
			return "-" + symbol + number[1:]
		}
		return symbol + number
	}
	return string(currency) + " " + number
}

func groupThousands(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// ToBaseAmount converts an amount in a foreign currency to the base currency.
// A zero or unit rate means the amount is already in base currency.
func ToBaseAmount(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() || rate.Equal(decimal.NewFromInt(1)) {
		return amount
	}
	return amount.Mul(rate)
}

// AverageCost returns the weighted average unit cost after adding addedQty
// units at addedCost to existingQty units valued at existingCost.
func AverageCost(existingQty int64, existingCost decimal.Decimal, addedQty int64, addedCost decimal.Decimal) decimal.Decimal {
	if existingQty < 0 {
		existingQty = 0
	}
	total := existingQty + addedQty
	if total <= 0 {
		return decimal.Zero
	}
	value := existingCost.Mul(decimal.NewFromInt(existingQty)).
		Add(addedCost.Mul(decimal.NewFromInt(addedQty)))
	return value.Div(decimal.NewFromInt(total)).Round(4)
}
