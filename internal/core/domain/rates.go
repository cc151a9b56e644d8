package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateTable holds exchange rates relative to a single pivot currency: the
// value of one pivot unit expressed in each currency. No direct cross-rates
// are stored; every conversion goes through the pivot.
type RateTable struct {
	Pivot string                     `json:"pivot"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate returns the rate for a currency code, case-insensitively.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.Rates[strings.ToUpper(code)]
	return r, ok
}
