package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"revenue-settlement-engine/config"

	"github.com/rs/zerolog"
)

// WatcherClient implements ports.WebhookRegistrar against the external
// blockchain-watching service. Incoming transactions are pushed to the
// configured callback URL, not polled.
type WatcherClient struct {
	baseURL     string
	callbackURL string
	client      *http.Client
	log         zerolog.Logger
}

// NewWatcherClient creates a registrar client for the configured watcher
// endpoint family.
func NewWatcherClient(cfg config.ChainConfig, log zerolog.Logger) *WatcherClient {
	return &WatcherClient{
		baseURL:     cfg.WatcherURL,
		callbackURL: cfg.CallbackURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type registerRequest struct {
	Event         string `json:"event"`
	URL           string `json:"url"`
	Address       string `json:"address"`
	Confirmations int    `json:"confirmations"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// RegisterAddress subscribes the watcher to confirmed transactions on the
// address and returns the watcher's registration id.
func (c *WatcherClient) RegisterAddress(ctx context.Context, address string, confirmations int) (string, error) {
	payload, err := json.Marshal(registerRequest{
		Event:         "tx-confirmation",
		URL:           c.callbackURL,
		Address:       address,
		Confirmations: confirmations,
	})
	if err != nil {
		return "", fmt.Errorf("encode register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("register address: %w", err)
	}
	defer resp.Body.Close()

	var body registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode register response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("message", body.Message).
			Msg("watcher rejected registration")
		return "", fmt.Errorf("watcher returned status %d", resp.StatusCode)
	}
	if body.ID == "" {
		return "", fmt.Errorf("watcher returned no registration id")
	}

	return body.ID, nil
}
