package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"revenue-settlement-engine/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDebits_NeverOverdraft fires concurrent debits whose total
// exceeds the available balance. The conditional-delta store admits exactly
// as many as the balance covers; the rest are rejected and the balance never
// goes negative.
func TestConcurrentDebits_NeverOverdraft(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.ledgerStore.seed(domain.CollectionUsers, "spender", domain.FieldAIUnits, dec(t, "500"))

	concurrency := 10
	body := `{"collection":"users","entity_id":"spender","field":"ai_units","amount":"100","direction":"debit"}`

	var wg sync.WaitGroup
	var applied, rejected atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/ledger/units", "application/json", bytes.NewBufferString(body))
			if err != nil {
				rejected.Add(1)
				return
			}
			defer resp.Body.Close()

			var env envelope
			if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Status {
				applied.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	// 500 covers exactly 5 debits of 100
	assert.Equal(t, int64(5), applied.Load())
	assert.Equal(t, int64(5), rejected.Load())

	final := app.balance(t, domain.CollectionUsers, "spender", domain.FieldAIUnits)
	assert.True(t, decimal.Zero.Equal(final), "final balance %s, want 0", final)
}

// TestConcurrentMilleTransfers_LegsStayConsistent runs concurrent two-leg
// mille credits and verifies the user balance and the brand aggregate moved
// by the same total, with every saga fully applied.
func TestConcurrentMilleTransfers_LegsStayConsistent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.ledgerStore.seed(domain.CollectionUsers, "user-c", domain.FieldMille, decimal.Zero)
	app.ledgerStore.seed(domain.CollectionBrands, "brand-c", domain.FieldChildrenMille, decimal.Zero)

	concurrency := 20
	body := `{"user_id":"user-c","brand_id":"brand-c","amount":"2.5","direction":"credit"}`

	var wg sync.WaitGroup
	var applied atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/ledger/mille", "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			var env envelope
			if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Status {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), applied.Load())

	want := dec(t, "2.5").Mul(decimal.NewFromInt(int64(concurrency)))
	userMille := app.balance(t, domain.CollectionUsers, "user-c", domain.FieldMille)
	brandMille := app.balance(t, domain.CollectionBrands, "brand-c", domain.FieldChildrenMille)
	assert.True(t, want.Equal(userMille), "user mille %s, want %s", userMille, want)
	assert.True(t, userMille.Equal(brandMille), "user leg %s and brand leg %s diverged", userMille, brandMille)

	sagas := app.sagaRepo.all()
	require.Len(t, sagas, concurrency)
	for _, s := range sagas {
		assert.Equal(t, domain.SagaLegApplied, s.UserLeg)
		assert.Equal(t, domain.SagaLegApplied, s.BrandLeg)
	}
}

// TestConcurrentProvision_SingleWallet races provisioning requests for the
// same wallet tuple. The deterministic id makes creation create-once: exactly
// one request wins, the rest conflict.
func TestConcurrentProvision_SingleWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 8
	body := `{"brand_id":"brand-race","wallet_type":"deposit","user_id":"user-race","currency":"USD"}`

	var wg sync.WaitGroup
	var created, conflicted atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/wallets", "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(concurrency-1), conflicted.Load())

	id := domain.WalletID("brand-race", "deposit", "user-race", "USD")
	stored, err := app.walletRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored, "exactly one wallet record for the tuple")
}
