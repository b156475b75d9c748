// Package currency provides standardized currency handling across the application.
// Room rates are stored as decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies. Rakuten Travel quotes rates in yen; the others
// exist for display conversions on the client side.
const (
	JPY Currency = "JPY" // Japanese Yen
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency when none is specified.
const DefaultCurrency = JPY

// CurrencyInfo contains metadata about a currency.
type CurrencyInfo struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int    // Number of decimal places (e.g., 2 for USD, 0 for JPY)
	SymbolBefore  bool   // Whether symbol appears before amount
	ThousandsSep  string // Thousands separator
	DecimalSep    string // Decimal separator
}

// currencies maps currency codes to their info.
var currencies = map[Currency]CurrencyInfo{
	JPY: {Code: JPY, Name: "Japanese Yen", Symbol: "¥", DecimalPlaces: 0, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: ".", DecimalSep: ","},
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (CurrencyInfo, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Money represents a monetary amount with currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a new Money value.
func NewMoney(amount decimal.Decimal, curr Currency) Money {
	if curr == "" {
		curr = DefaultCurrency
	}
	return Money{Amount: amount, Currency: curr}
}

// Yen creates a Money value in JPY.
func Yen(amount decimal.Decimal) Money {
	return NewMoney(amount, JPY)
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Format returns a formatted string representation with the currency's
// symbol placement and thousands grouping, e.g. "¥45,000".
func (m Money) Format() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
	}

	fixed := m.Amount.Round(int32(info.DecimalPlaces)).StringFixed(int32(info.DecimalPlaces))
	grouped := groupThousands(fixed, info.ThousandsSep, info.DecimalSep)

	if info.SymbolBefore {
		return info.Symbol + grouped
	}
	return grouped + info.Symbol
}

// String returns the amount as a plain string rounded to the currency's
// decimal places.
func (m Money) String() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return m.Amount.String()
	}
	return m.Amount.Round(int32(info.DecimalPlaces)).String()
}

// groupThousands inserts the thousands separator into a fixed-point decimal
// string. The input uses "." as its decimal point and may carry a leading sign.
func groupThousands(fixed, thousandsSep, decimalSep string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteRune(r)
	}

	out := sign + b.String()
	if fracPart != "" {
		out += decimalSep + fracPart
	}
	return out
}
