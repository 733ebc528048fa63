package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code
type Currency string

// Supported currencies
const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyJPY Currency = "JPY"
	CurrencyKRW Currency = "KRW"
)

// DefaultCurrency is used when a price omits its currency
const DefaultCurrency = CurrencyUSD

// zero-decimal currencies are charged in whole units by payment gateways
var zeroDecimal = map[Currency]bool{
	CurrencyJPY: true,
	CurrencyKRW: true,
}

var supported = map[Currency]bool{
	CurrencyUSD: true, CurrencyEUR: true, CurrencyGBP: true, CurrencyCAD: true,
	CurrencyAUD: true, CurrencyJPY: true, CurrencyKRW: true,
}

// ParseCurrency normalizes and validates a currency code; "" yields DefaultCurrency
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	c := Currency(code)
	if !supported[c] {
		return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported currency %q", code))
	}
	return c, nil
}

// Places returns the number of minor-unit decimal places
func (c Currency) Places() int32 {
	if zeroDecimal[c] {
		return 0
	}
	return 2
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Money is an immutable amount in a currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a non-negative amount rounded to the currency's places
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	if !supported[currency] {
		return Money{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported currency %q", currency))
	}
	if amount.IsNegative() {
		return Money{}, shared.ErrInvalidInput.WithMessage("amount cannot be negative")
	}
	return Money{amount: amount.Round(currency.Places()), currency: currency}, nil
}

// MustNewMoney is NewMoney for constants and tests
func MustNewMoney(amount string, currency Currency) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// RestoreMoney rebuilds Money from trusted storage without validation
func RestoreMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Zero returns a zero amount in currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency
func (m Money) Currency() Currency { return m.currency }

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Add returns m + other; currencies must match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("cannot add %s to %s", other.currency, m.currency))
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Times returns m multiplied by a quantity
func (m Money) Times(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty))), currency: m.currency}
}

// Equals compares amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// MinorUnits converts the amount to the smallest currency unit (cents for USD)
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(m.currency.Places()).Round(0).IntPart()
}

// FromMinorUnits builds Money from an integer amount of minor units
func FromMinorUnits(units int64, currency Currency) Money {
	return Money{amount: decimal.New(units, -currency.Places()), currency: currency}
}

// String formats as "12.50 USD"
func (m Money) String() string {
	return m.amount.StringFixed(m.currency.Places()) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// MarshalJSON encodes as {"amount":"12.50","currency":"USD"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON decodes {"amount":...,"currency":...}
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer, storing the JSON form
func (m Money) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = Money{}
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}
