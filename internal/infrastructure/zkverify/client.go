package zkverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"zkreview-backend/internal/config"
)

// Client talks to the external verifier service over HTTP. Every call
// carries a hard deadline; a verifier that does not answer in time is
// unavailable, never silently trusted.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	registry   *SchemaRegistry
}

// NewClient creates a verifier client from config.
func NewClient(cfg config.VerifierConfig, registry *SchemaRegistry) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		registry:   registry,
	}
}

var _ Service = (*Client)(nil)

// verifyResponse is the verifier's verdict payload.
type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// Verify submits the proof for verification. Only an explicit negative
// verdict maps to ErrInvalidProof; transport failures, timeouts, and
// unexpected statuses are all ErrVerifierUnavailable.
func (c *Client) Verify(ctx context.Context, proof *Proof, blueprintID string) error {
	body, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}

	endpoint := fmt.Sprintf("%s/api/blueprints/%s/verify", c.baseURL, url.PathEscape(blueprintID))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("blueprint_id", blueprintID).Msg("verifier request failed")
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("blueprint_id", blueprintID).Msg("verifier returned unexpected status")
		return fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var verdict verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return fmt.Errorf("%w: undecodable verdict: %v", ErrVerifierUnavailable, err)
	}

	if !verdict.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidProof, verdict.Error)
	}

	return nil
}

// ExtractPublicFields applies the blueprint's output schema.
func (c *Client) ExtractPublicFields(proof *Proof, blueprintID string) (PublicFields, error) {
	return c.registry.Extract(proof, blueprintID)
}
