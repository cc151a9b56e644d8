package service

import (
	"context"
	"errors"
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

type ledgerTestDeps struct {
	svc   *UnitLedgerService
	store *mocks.MockLedgerStore
	sagas *mocks.MockSagaRepository
	ctrl  *gomock.Controller
}

func setupUnitLedger(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		store: mocks.NewMockLedgerStore(ctrl),
		sagas: mocks.NewMockSagaRepository(ctrl),
		ctrl:  ctrl,
	}
	d.svc = NewUnitLedgerService(d.store, d.sagas, metrics.NewNop(), zerolog.Nop())
	return d
}

// ==================== CreditOrDebit ====================

func TestUnitLedger_Credit_Success(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.store.EXPECT().ApplyDelta(ctx, domain.LedgerMutation{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Delta:      dec("25"),
		Op:         domain.OpIncrement,
	}).Return(dec("125"), nil)

	res, err := d.svc.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Amount:     dec("25"),
		Direction:  domain.DirectionCredit,
	})
	require.NoError(t, err)
	assert.True(t, res.Status)
	assert.True(t, res.NewValue.Equal(dec("125")))
}

func TestUnitLedger_Debit_Insufficient(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.store.EXPECT().ApplyDelta(ctx, gomock.Any()).Return(dec("0"), ports.ErrInsufficientBalance)

	res, err := d.svc.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Amount:     dec("1000"),
		Direction:  domain.DirectionDebit,
	})
	// Business-rule failure: structured result, not an error.
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Equal(t, "insufficient balance", res.Msg)
}

func TestUnitLedger_MissingFields(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	// No store expectation: nothing may be mutated.
	res, err := d.svc.CreditOrDebit(context.Background(), ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		Field:      domain.FieldAIUnits,
		Amount:     dec("5"),
		Direction:  domain.DirectionCredit,
	})
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Contains(t, res.Msg, "required")
}

func TestUnitLedger_InvalidDirection(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	res, err := d.svc.CreditOrDebit(context.Background(), ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Amount:     dec("5"),
		Direction:  "sideways",
	})
	require.NoError(t, err)
	assert.False(t, res.Status)
	assert.Contains(t, res.Msg, "credit or debit")
}

func TestUnitLedger_NonPositiveAmount(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	for _, amount := range []string{"0", "-3"} {
		res, err := d.svc.CreditOrDebit(context.Background(), ports.LedgerRequest{
			Collection: domain.CollectionUsers,
			EntityID:   "user-1",
			Field:      domain.FieldAIUnits,
			Amount:     dec(amount),
			Direction:  domain.DirectionCredit,
		})
		require.NoError(t, err)
		assert.False(t, res.Status, "amount %s must be rejected", amount)
	}
}

func TestUnitLedger_UnknownField(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	res, err := d.svc.CreditOrDebit(context.Background(), ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      "password_hash",
		Amount:     dec("5"),
		Direction:  domain.DirectionCredit,
	})
	require.NoError(t, err)
	assert.False(t, res.Status)
}

func TestUnitLedger_StoreFailure(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.store.EXPECT().ApplyDelta(ctx, gomock.Any()).Return(dec("0"), errors.New("pg down"))

	res, err := d.svc.CreditOrDebit(ctx, ports.LedgerRequest{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldAIUnits,
		Amount:     dec("5"),
		Direction:  domain.DirectionCredit,
	})
	require.Error(t, err)
	assert.False(t, res.Status)
	// The caller-facing message carries no internal detail.
	assert.NotContains(t, res.Msg, "pg")
}

// ==================== TransferMille ====================

func TestUnitLedger_TransferMille_BothLegs(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	amount := dec("7")

	d.sagas.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.store.EXPECT().ApplyDelta(ctx, domain.LedgerMutation{
		Collection: domain.CollectionUsers,
		EntityID:   "user-1",
		Field:      domain.FieldMille,
		Delta:      amount,
		Op:         domain.OpIncrement,
	}).Return(dec("107"), nil)
	d.sagas.EXPECT().MarkLeg(ctx, gomock.Any(), domain.SagaLegUser, domain.SagaLegApplied).Return(nil)
	d.store.EXPECT().ApplyDelta(ctx, domain.LedgerMutation{
		Collection: domain.CollectionBrands,
		EntityID:   "brand-1",
		Field:      domain.FieldChildrenMille,
		Delta:      amount,
		Op:         domain.OpIncrement,
	}).Return(dec("5007"), nil)
	d.sagas.EXPECT().MarkLeg(ctx, gomock.Any(), domain.SagaLegBrand, domain.SagaLegApplied).Return(nil)

	res, err := d.svc.TransferMille(ctx, ports.MilleRequest{
		UserID:    "user-1",
		BrandID:   "brand-1",
		Amount:    amount,
		Direction: domain.DirectionCredit,
	})
	require.NoError(t, err)
	assert.True(t, res.Status)
	assert.True(t, res.NewValue.Equal(dec("107")))
}

func TestUnitLedger_TransferMille_FirstLegFails(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.sagas.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	// Debit exceeds the user's mille: no brand mutation may follow.
	d.store.EXPECT().ApplyDelta(ctx, gomock.Any()).Return(dec("0"), ports.ErrInsufficientBalance)
	d.sagas.EXPECT().MarkLeg(ctx, gomock.Any(), domain.SagaLegUser, domain.SagaLegFailed).Return(nil)

	res, err := d.svc.TransferMille(ctx, ports.MilleRequest{
		UserID:    "user-1",
		BrandID:   "brand-1",
		Amount:    dec("9999"),
		Direction: domain.DirectionDebit,
	})
	require.NoError(t, err)
	assert.False(t, res.Status)
}

func TestUnitLedger_TransferMille_SecondLegFails(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.sagas.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.store.EXPECT().ApplyDelta(ctx, gomock.Any()).Return(dec("107"), nil)
	d.sagas.EXPECT().MarkLeg(ctx, gomock.Any(), domain.SagaLegUser, domain.SagaLegApplied).Return(nil)
	d.store.EXPECT().ApplyDelta(ctx, gomock.Any()).Return(dec("0"), errors.New("pg down"))
	d.sagas.EXPECT().MarkLeg(ctx, gomock.Any(), domain.SagaLegBrand, domain.SagaLegFailed).Return(nil)

	res, err := d.svc.TransferMille(ctx, ports.MilleRequest{
		UserID:    "user-1",
		BrandID:   "brand-1",
		Amount:    dec("7"),
		Direction: domain.DirectionCredit,
	})
	// Half-applied pair: the operation reports failed even though leg one
	// succeeded; the saga record carries the compensation data.
	require.Error(t, err)
	assert.False(t, res.Status)
	assert.Equal(t, "mille transfer incomplete", res.Msg)
}

func TestUnitLedger_TransferMille_Preconditions(t *testing.T) {
	d := setupUnitLedger(t)
	defer d.ctrl.Finish()

	tests := []struct {
		name string
		req  ports.MilleRequest
	}{
		{"missing user", ports.MilleRequest{BrandID: "b", Amount: dec("1"), Direction: domain.DirectionCredit}},
		{"missing brand", ports.MilleRequest{UserID: "u", Amount: dec("1"), Direction: domain.DirectionCredit}},
		{"bad direction", ports.MilleRequest{UserID: "u", BrandID: "b", Amount: dec("1"), Direction: "both"}},
		{"zero amount", ports.MilleRequest{UserID: "u", BrandID: "b", Amount: dec("0"), Direction: domain.DirectionCredit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := d.svc.TransferMille(context.Background(), tt.req)
			require.NoError(t, err)
			assert.False(t, res.Status)
		})
	}
}
