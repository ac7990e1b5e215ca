package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solledger/solledger/service/classify"
	"github.com/solledger/solledger/service/pipeline"
)

// Client is the HTTP client for the solledger classification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new classification service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListTransactionsOpts are the pagination options for ListTransactions.
type ListTransactionsOpts struct {
	// Limit caps the number of signatures fetched per page.
	Limit int
	// Before is the cursor returned by the previous page.
	Before string
}

// ListTransactions fetches and classifies a wallet's recent transactions.
// Pass the returned NextCursor as Before to page further back in history.
func (c *Client) ListTransactions(ctx context.Context, address string, opts ListTransactionsOpts) (*pipeline.Result, error) {
	u := fmt.Sprintf("%s/api/v1/wallets/%s/transactions", c.baseURL, url.PathEscape(address))

	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Before != "" {
		q.Set("before", opts.Before)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var result pipeline.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("listed wallet transactions",
		"address", address,
		"count", len(result.Transactions),
		"next_cursor", result.NextCursor,
	)

	return &result, nil
}

// ListAllTransactions pages through a wallet's history until the server
// returns an empty page or maxPages is reached (0 means no page cap).
func (c *Client) ListAllTransactions(ctx context.Context, address string, pageSize, maxPages int) ([]classify.ClassifiedTransaction, error) {
	var all []classify.ClassifiedTransaction
	cursor := ""

	for page := 0; maxPages == 0 || page < maxPages; page++ {
		result, err := c.ListTransactions(ctx, address, ListTransactionsOpts{
			Limit:  pageSize,
			Before: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if result.Total == 0 {
			break
		}
		all = append(all, result.Transactions...)
		if result.NextCursor == "" || result.NextCursor == cursor {
			break
		}
		cursor = result.NextCursor
	}

	return all, nil
}

// WalletSummary is the per-type transaction count summary for a wallet.
type WalletSummary struct {
	Address string           `json:"address"`
	Total   int64            `json:"total"`
	ByType  map[string]int64 `json:"by_type"`
}

// GetWalletSummary retrieves stored per-type counts for a wallet.
func (c *Client) GetWalletSummary(ctx context.Context, address string) (*WalletSummary, error) {
	u := fmt.Sprintf("%s/api/v1/wallets/%s/summary", c.baseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var summary WalletSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &summary, nil
}

// GetTransaction retrieves one stored classified transaction by signature.
// Returns (nil, nil) when the signature is not stored.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*classify.ClassifiedTransaction, error) {
	u := fmt.Sprintf("%s/api/v1/transactions/%s", c.baseURL, url.PathEscape(signature))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var response struct {
		Classified *classify.ClassifiedTransaction `json:"classified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Classified, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
