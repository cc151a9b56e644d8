package service

import (
	"strings"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ConvertAmount converts amount between two currency codes using a rate
// table keyed by currency code, with the table's pivot currency as the only
// conversion path. Missing rates fail fast: downstream ledger mutations must
// never be computed from a silently-wrong conversion.
func ConvertAmount(amount decimal.Decimal, fromCurrency, toCurrency string, table domain.RateTable) (decimal.Decimal, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == "" || to == "" {
		return decimal.Zero, apperror.ErrMissingFields("currency codes")
	}
	if from == to {
		return amount, nil
	}

	pivot := strings.ToUpper(table.Pivot)

	// Source currency -> pivot.
	pivotAmount := amount
	if from != pivot {
		rate, ok := table.Rate(from)
		if !ok || rate.IsZero() {
			return decimal.Zero, apperror.ErrRatesMissing(from)
		}
		pivotAmount = amount.Div(rate)
	}

	// Pivot -> target currency.
	if to == pivot {
		return pivotAmount, nil
	}
	rate, ok := table.Rate(to)
	if !ok || rate.IsZero() {
		return decimal.Zero, apperror.ErrRatesMissing(to)
	}
	return pivotAmount.Mul(rate), nil
}
