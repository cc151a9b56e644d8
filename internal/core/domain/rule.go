package domain

import (
	"github.com/shopspring/decimal"
)

// RuleDirection tells whether a rule adds to or removes from the base value.
type RuleDirection string

const (
	RuleIncrease RuleDirection = "increase"
	RuleDecrease RuleDirection = "decrease"
)

// Rule is a named percentage adjustment applied to a transaction's base value.
// Value is a percentage in [0, 100]; the sign carried by upstream payloads is
// ignored and only the direction field decides the arithmetic.
type Rule struct {
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	Direction     RuleDirection   `json:"direction"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
}

// RuleOutcome is the computed split for one rule application.
type RuleOutcome struct {
	// Value is the signed delta applied to the base: positive for an
	// increase rule, negative for a decrease rule, zero when no rule matched.
	Value decimal.Decimal `json:"value"`
	// Plus is the rule's flat service charge, independent of percentage math.
	Plus decimal.Decimal `json:"plus"`
	// Profit is the cumulative percentage-basis figure after the rule.
	Profit decimal.Decimal `json:"profit"`
	// SellerProfit is the absolute amount attributable to the seller.
	SellerProfit decimal.Decimal `json:"seller_profit"`
}

// RuleResult tags a RuleOutcome with the evaluation error, if any.
// A zeroed Outcome with Err == nil means no rule matched (pass-through with
// zero seller profit); Err != nil means the rule was malformed and callers
// may still treat the zeroed outcome as a pass-through, but can tell the
// two states apart.
type RuleResult struct {
	Outcome RuleOutcome
	Err     error
}

// Evaluated reports whether the outcome came from a well-formed evaluation.
func (r RuleResult) Evaluated() bool { return r.Err == nil }
