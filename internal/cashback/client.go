package cashback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Client talks to the calculation service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Results fetches the per-user commission aggregation for the bot
// instance, keyed by Binance ID.
func (c *Client) Results(ctx context.Context, internalID int) (map[string]CalcResult, error) {
	url := fmt.Sprintf("%s/calculations/get_calculation_results_for_all_users/%d", c.baseURL, internalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cashback: results: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cashback: results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cashback: results: unexpected status %d", resp.StatusCode)
	}

	var out map[string]CalcResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("cashback: results: decode: %w", err)
	}
	return out, nil
}

// Prune deletes the service's cached ledger for the bot instance.
func (c *Client) Prune(ctx context.Context, internalID int) error {
	url := fmt.Sprintf("%s/calculations/prune_db_documents_with_internal_id/%d", c.baseURL, internalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("cashback: prune: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cashback: prune: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cashback: prune: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Supported file hosting links for ledger uploads.
var (
	pixeldrainRe   = regexp.MustCompile(`^https://pixeldrain\.com/u/[a-zA-Z0-9]{3,12}$`)
	filetransferRe = regexp.MustCompile(`^https://filetransfer\.io/data-package/[a-zA-Z0-9]{3,12}/download$`)
)

// SupportedLedgerLink reports whether url points to a file host the
// bot can fetch ledgers from.
func SupportedLedgerLink(url string) bool {
	return pixeldrainRe.MatchString(url) || filetransferRe.MatchString(url)
}

// FetchLedgerLink downloads a ledger export from a supported file
// hosting link.
func (c *Client) FetchLedgerLink(ctx context.Context, url string) (string, error) {
	if !SupportedLedgerLink(url) {
		return "", fmt.Errorf("cashback: unsupported ledger link %q", url)
	}
	if pixeldrainRe.MatchString(url) {
		// The share page wraps the file; the API path serves it raw.
		url = strings.Replace(url, "/u/", "/api/file/", 1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("cashback: fetch ledger: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cashback: fetch ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cashback: fetch ledger: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cashback: fetch ledger: %w", err)
	}
	return string(data), nil
}
