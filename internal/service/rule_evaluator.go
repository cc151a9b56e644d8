package service

import (
	"fmt"

	"revenue-settlement-engine/internal/core/domain"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// percentOf returns pct% of base.
func percentOf(pct, base decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(oneHundred)
}

// EvaluateRule computes the adjustment for the named rule against baseValue.
//
// Branches:
//   - no matching rule: pass-through, the seller keeps currentSellerProfit%
//     of the base and the adjustment delta is zero;
//   - increase: the rule's percentage is added on top of the seller's;
//   - decrease: the removable percentage is clamped to the seller's current
//     profit, so a decrease can never push attributable profit negative.
//
// A malformed rule yields a zeroed outcome with Err set. Callers that treat
// the result as a pass-through stay compatible with the historical
// swallow-to-zero behavior, but can now tell "no rule" and "bad rule" apart.
func EvaluateRule(rules []domain.Rule, ruleName string, baseValue, currentSellerProfit decimal.Decimal) domain.RuleResult {
	var rule *domain.Rule
	for i := range rules {
		if rules[i].Name == ruleName {
			rule = &rules[i]
			break
		}
	}

	// Absence of a matching rule is a valid state, not an error.
	if rule == nil {
		sellerProfitValue := percentOf(currentSellerProfit, baseValue)
		return domain.RuleResult{Outcome: domain.RuleOutcome{
			Value:        decimal.Zero,
			Plus:         decimal.Zero,
			Profit:       currentSellerProfit,
			SellerProfit: sellerProfitValue,
		}}
	}

	pct := rule.Value.Abs()
	if pct.GreaterThan(oneHundred) {
		return domain.RuleResult{Err: fmt.Errorf("rule %q: percentage %s out of range", rule.Name, rule.Value)}
	}

	switch rule.Direction {
	case domain.RuleIncrease:
		ruleValue := percentOf(pct, baseValue)
		sellerProfitValue := percentOf(currentSellerProfit, baseValue)
		return domain.RuleResult{Outcome: domain.RuleOutcome{
			Value:        ruleValue,
			Plus:         rule.ServiceCharge,
			Profit:       pct.Add(currentSellerProfit),
			SellerProfit: ruleValue.Add(sellerProfitValue),
		}}

	case domain.RuleDecrease:
		// The removable percentage is capped at the seller's current profit.
		p := pct
		if p.GreaterThan(currentSellerProfit) {
			p = currentSellerProfit
		}
		ruleValue := percentOf(p, baseValue)
		profit := currentSellerProfit.Sub(p)
		return domain.RuleResult{Outcome: domain.RuleOutcome{
			Value:        ruleValue.Neg(),
			Plus:         rule.ServiceCharge,
			Profit:       profit,
			SellerProfit: percentOf(profit, baseValue),
		}}

	default:
		return domain.RuleResult{Err: fmt.Errorf("rule %q: unknown direction %q", rule.Name, rule.Direction)}
	}
}
