package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"revenue-settlement-engine/internal/core/domain"

	"github.com/shopspring/decimal"
)

// HTTPSource implements ports.RateSource against an upstream exchange-rate
// service that returns rates relative to a single base currency.
type HTTPSource struct {
	url    string
	pivot  string
	client *http.Client
}

// NewHTTPSource creates a rate source for the given endpoint. The configured
// pivot must match the upstream's base currency; conversions are only valid
// through the pivot.
func NewHTTPSource(url, pivot string) *HTTPSource {
	return &HTTPSource{
		url:   url,
		pivot: pivot,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type ratePayload struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

// Fetch retrieves a fresh rate table from the upstream service.
func (s *HTTPSource) Fetch(ctx context.Context) (domain.RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RateTable{}, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RateTable{}, fmt.Errorf("decode rate payload: %w", err)
	}
	if payload.Base != "" && payload.Base != s.pivot {
		return domain.RateTable{}, fmt.Errorf("rate source base %q does not match pivot %q", payload.Base, s.pivot)
	}

	table := domain.RateTable{
		Pivot: s.pivot,
		Rates: make(map[string]decimal.Decimal, len(payload.Rates)+1),
	}
	for code, num := range payload.Rates {
		rate, err := decimal.NewFromString(num.String())
		if err != nil {
			return domain.RateTable{}, fmt.Errorf("parse rate %s=%s: %w", code, num, err)
		}
		table.Rates[code] = rate
	}
	// The pivot converts to itself at par.
	table.Rates[s.pivot] = decimal.NewFromInt(1)

	return table, nil
}
