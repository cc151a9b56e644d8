package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"revenue-settlement-engine/internal/core/domain"
	"revenue-settlement-engine/internal/core/ports"
	"revenue-settlement-engine/internal/core/ports/mocks"
	"revenue-settlement-engine/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type orchestratorTestDeps struct {
	svc         *SettlementOrchestratorService
	ledger      *mocks.MockUnitLedger
	rates       *mocks.MockRateProvider
	settlements *mocks.MockSettlementRepository
	ctrl        *gomock.Controller
}

func setupOrchestrator(t *testing.T) *orchestratorTestDeps {
	ctrl := gomock.NewController(t)
	d := &orchestratorTestDeps{
		ledger:      mocks.NewMockUnitLedger(ctrl),
		rates:       mocks.NewMockRateProvider(ctrl),
		settlements: mocks.NewMockSettlementRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewSettlementOrchestratorService(d.ledger, d.rates, d.settlements, metrics.NewNop(), zerolog.Nop())
	return d
}

func orderEvent() domain.SettlementEvent {
	return domain.SettlementEvent{
		Kind:         domain.KindOrderPaid,
		UserID:       "user-1",
		Value:        dec("2000"),
		Currency:     "USD",
		SellerProfit: dec("15"),
		RuleName:     "markup",
		Rules: []domain.Rule{
			{Name: "markup", Value: dec("10"), Direction: domain.RuleIncrease},
		},
		Hierarchy: domain.Hierarchy{
			Brand:  domain.HierarchyLevel{BrandID: "brand-1", Currency: "USD", Rate: dec("100")},
			Parent: domain.HierarchyLevel{BrandID: "brand-2", Currency: "GBP", Rate: dec("50")},
			Master: domain.HierarchyLevel{BrandID: "brand-3", Currency: "USD", Rate: dec("25")},
		},
	}
}

func expectStates(d *orchestratorTestDeps, states ...domain.SettlementState) {
	d.settlements.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	for _, st := range states {
		d.settlements.EXPECT().UpdateState(gomock.Any(), gomock.Any(), st, gomock.Any()).Return(nil)
	}
}

func TestOrchestrator_Settle_Committed(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementLedgerCommitted,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)

	// Distinct level shares in USD: brand-1 100, brand-2 50 GBP -> 62.5 USD
	// at 0.8 GBP per USD, brand-3 25.
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "100")).Return(okLedger("100"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-2", "62.5")).Return(okLedger("62.5"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-3", "25")).Return(okLedger("25"), nil)
	// Seller credit: rule sellerProfit 500 + residual (2000 - 187.5).
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "2312.5")).Return(okLedger("2312.5"), nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementLedgerCommitted, res.State)
	assert.Len(t, res.Shares, 3)
	assert.True(t, dec("1812.5").Equal(res.Residual), "residual %s", res.Residual)
	assert.True(t, dec("2312.5").Equal(res.SellerCredit), "seller credit %s", res.SellerCredit)
	assert.True(t, dec("200").Equal(res.Outcome.Value))
	assert.True(t, dec("25").Equal(res.Outcome.Profit))
}

func TestOrchestrator_Settle_TerminalNodeCreditedOnce(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()
	// Brand is its own parent and master.
	lvl := domain.HierarchyLevel{BrandID: "brand-1", Currency: "USD", Rate: dec("100")}
	event.Hierarchy = domain.Hierarchy{Brand: lvl, Parent: lvl, Master: lvl}

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementLedgerCommitted,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)

	// Exactly one share credit plus one seller credit.
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "100")).Return(okLedger("100"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "2400")).Return(okLedger("2400"), nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementLedgerCommitted, res.State)
	assert.Len(t, res.Shares, 1)
	assert.True(t, dec("1900").Equal(res.Residual))
}

func TestOrchestrator_Settle_MissingRateFails(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()
	event.Hierarchy.Parent.Currency = "CHF" // not in the table

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementFailed,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)
	// No ledger expectations: nothing is committed after a conversion failure.

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementFailed, res.State)
	assert.Contains(t, res.Reason, "brand-2")
}

func TestOrchestrator_Settle_RateProviderDown(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementFailed,
	)
	d.rates.EXPECT().Rates(ctx).Return(domain.RateTable{}, errors.New("upstream timeout"))

	res, err := d.svc.Settle(ctx, orderEvent())
	require.Error(t, err)
	assert.Equal(t, domain.SettlementFailed, res.State)
}

func TestOrchestrator_Settle_LedgerLegFailure(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementFailed,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "100")).Return(okLedger("100"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-2", "62.5")).
		Return(domain.LedgerResult{Status: false, Msg: "account not found"}, nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementFailed, res.State)
	assert.Equal(t, "account not found", res.Reason)
}

func TestOrchestrator_Settle_UnitPurchaseCreditsUser(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()
	event.Kind = domain.KindUnitPurchase

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementLedgerCommitted,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "100")).Return(okLedger("100"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-2", "62.5")).Return(okLedger("62.5"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-3", "25")).Return(okLedger("25"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "2312.5")).Return(okLedger("2312.5"), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Amount:     dec("2000"),
		Direction:  domain.DirectionCredit,
	}).Return(okLedger("2000"), nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementLedgerCommitted, res.State)
}

func TestOrchestrator_Settle_UtilityTopupMovesMille(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()
	event.Kind = domain.KindUtilityTopup

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementLedgerCommitted,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, gomock.Any()).Return(okLedger("1"), nil).Times(4)
	d.ledger.EXPECT().TransferMille(ctx, ports.MilleRequest{
		UserID:    "user-1",
		BrandID:   "brand-1",
		Amount:    dec("2000"),
		Direction: domain.DirectionCredit,
	}).Return(okLedger("2000"), nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementLedgerCommitted, res.State)
}

func TestOrchestrator_Settle_MalformedRuleDegradesToPassThrough(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	event := orderEvent()
	event.Rules = []domain.Rule{{Name: "markup", Value: dec("150"), Direction: domain.RuleIncrease}}

	expectStates(d,
		domain.SettlementRulesEvaluated,
		domain.SettlementRatesConverted,
		domain.SettlementLedgerCommitted,
	)
	d.rates.EXPECT().Rates(ctx).Return(testRates(), nil)
	d.ledger.EXPECT().CreditOrDebit(ctx, gomock.Any()).Return(okLedger("1"), nil).Times(3)
	// Seller credit falls back to residual only: 2000 - 187.5.
	d.ledger.EXPECT().CreditOrDebit(ctx, creditBrandRevenue("brand-1", "1812.5")).Return(okLedger("1812.5"), nil)

	res, err := d.svc.Settle(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementLedgerCommitted, res.State)
	assert.True(t, res.Outcome.SellerProfit.IsZero())
}

func TestOrchestrator_Settle_Preconditions(t *testing.T) {
	d := setupOrchestrator(t)
	defer d.ctrl.Finish()

	tests := []struct {
		name  string
		event domain.SettlementEvent
	}{
		{"missing user", func() domain.SettlementEvent { e := orderEvent(); e.UserID = ""; return e }()},
		{"missing currency", func() domain.SettlementEvent { e := orderEvent(); e.Currency = ""; return e }()},
		{"missing brand", func() domain.SettlementEvent { e := orderEvent(); e.Hierarchy.Brand.BrandID = ""; return e }()},
		{"zero value", func() domain.SettlementEvent { e := orderEvent(); e.Value = dec("0"); return e }()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := d.svc.Settle(context.Background(), tc.event)
			assert.Nil(t, res)
			assert.Error(t, err)
		})
	}
}

// ledgerReqMatcher compares ledger requests with decimal value equality, so
// a computed amount matches regardless of its internal exponent.
type ledgerReqMatcher struct {
	want ports.LedgerRequest
}

func (m ledgerReqMatcher) Matches(x any) bool {
	got, ok := x.(ports.LedgerRequest)
	if !ok {
		return false
	}
	return got.Collection == m.want.Collection &&
		got.EntityID == m.want.EntityID &&
		got.Field == m.want.Field &&
		got.Direction == m.want.Direction &&
		got.Amount.Equal(m.want.Amount)
}

func (m ledgerReqMatcher) String() string {
	return fmt.Sprintf("ledger request %s %s.%s %s %s",
		m.want.Direction, m.want.Collection, m.want.Field, m.want.EntityID, m.want.Amount)
}

func creditBrandRevenue(brandID, amount string) gomock.Matcher {
	return ledgerReqMatcher{want: ports.LedgerRequest{
		Collection: domain.CollectionBrands,
		EntityID:   brandID,
		Field:      domain.FieldRevenue,
		Amount:     dec(amount),
		Direction:  domain.DirectionCredit,
	}}
}

func okLedger(newValue string) domain.LedgerResult {
	return domain.LedgerResult{Status: true, NewValue: dec(newValue), Msg: "ok"}
}
