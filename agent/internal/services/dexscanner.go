package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"dexscanner-monitor/shared/config"
	"dexscanner-monitor/shared/logger"

	"golang.org/x/time/rate"
)

// Listing is the summary payload for one pair from the new-listings feed.
type Listing struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	MarketCap      float64 `json:"marketCap"`
	Liquidity      float64 `json:"liquidity"`
	Volume24h      float64 `json:"volume24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	CreatedAt      string  `json:"createdAt"`
}

// TokenDetails is the on-demand detail payload for one pair. Every field is
// optional on the wire; absent fields decode to zero values.
type TokenDetails struct {
	Deployer               string  `json:"deployer"`
	OwnerRenounced         bool    `json:"ownerRenounced"`
	MintEnabled            bool    `json:"mintEnabled"`
	LiquidityBurned        float64 `json:"liquidityBurned"`
	Price                  float64 `json:"price"`
	MarketCap              float64 `json:"marketCap"`
	Volume24h              float64 `json:"volume24h"`
	Buys24h                int     `json:"buys24h"`
	Sells24h               int     `json:"sells24h"`
	LaunchMarketCap        float64 `json:"launchMarketCap"`
	ATHMarketCap           float64 `json:"athMarketCap"`
	TransactionCount       int     `json:"transactionCount"`
	HoldersCount           int     `json:"holdersCount"`
	Top10HoldersPercentage float64 `json:"top10HoldersPercentage"`
	AirdropsCount          int     `json:"airdropsCount"`
	AirdropsPercentage     float64 `json:"airdropsPercentage"`
	Block0SnipesPercentage float64 `json:"block0SnipesPercentage"`
	Block0SnipesAmount     float64 `json:"block0SnipesAmount"`
	FreshWalletsCount      int     `json:"freshWalletsCount"`
	FreshWalletsPercentage float64 `json:"freshWalletsPercentage"`
	TeamWalletsPercentage  float64 `json:"teamWalletsPercentage"`
	TeamWalletsAmount      float64 `json:"teamWalletsAmount"`
	DeployerAmount         float64 `json:"deployerAmount"`
	DeployerPercentage     float64 `json:"deployerPercentage"`
	Website                string  `json:"website"`

	// Raw keeps the undecoded payload for the textual security heuristics.
	Raw json.RawMessage `json:"-"`
}

type listingsEnvelope struct {
	Data []Listing `json:"data"`
}

type detailsEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// MarketDataAPI is the remote collaborator both loops poll. Timeouts surface
// distinctly from other failures inside the client; callers only see
// "data or no data".
type MarketDataAPI interface {
	GetNewListings(ctx context.Context) ([]Listing, error)
	GetTokenDetails(ctx context.Context, pairID string) (*TokenDetails, error)
}

var dexscannerLimiter = rate.NewLimiter(rate.Limit(4.66), 5)

// DexscannerClient talks to the market-data HTTP API.
type DexscannerClient struct {
	baseURL   string
	chain     string
	appLogger *logger.Logger

	listingTimeout time.Duration
	listingRetries int
	detailsTimeout time.Duration
	detailsRetries int
}

func NewDexscannerClient(cfg config.APIConfig, chain string, appLogger *logger.Logger) *DexscannerClient {
	return &DexscannerClient{
		baseURL:        cfg.BaseURL,
		chain:          chain,
		appLogger:      appLogger,
		listingTimeout: cfg.ListingTimeout(),
		listingRetries: cfg.ListingMaxRetries,
		detailsTimeout: cfg.DetailsTimeout(),
		detailsRetries: cfg.DetailsMaxRetries,
	}
}

// GetNewListings fetches the freshly-listed pairs feed. Timeouts retry with a
// growing wait (3s + 3s per attempt); any other failure aborts immediately.
func (c *DexscannerClient) GetNewListings(ctx context.Context) ([]Listing, error) {
	url := fmt.Sprintf("%s/v1/%s/dex/pairs/new", c.baseURL, c.chain)

	body, err := c.getWithRetry(ctx, url, c.listingRetries, c.listingTimeout, func(attempt int) time.Duration {
		return time.Duration(3+attempt*3) * time.Second
	})
	if err != nil {
		return nil, err
	}

	var envelope listingsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding new listings response: %w", err)
	}
	return envelope.Data, nil
}

// GetTokenDetails fetches the detail payload for one pair. Timeouts retry
// with exponential backoff (2^attempt seconds); other failures abort.
func (c *DexscannerClient) GetTokenDetails(ctx context.Context, pairID string) (*TokenDetails, error) {
	url := fmt.Sprintf("%s/v1/%s/dex/pairs/%s", c.baseURL, c.chain, pairID)

	body, err := c.getWithRetry(ctx, url, c.detailsRetries, c.detailsTimeout, func(attempt int) time.Duration {
		return time.Duration(1<<uint(attempt)) * time.Second
	})
	if err != nil {
		return nil, err
	}

	var envelope detailsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding token details response for %s: %w", pairID, err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("token details response for %s has no data", pairID)
	}

	var details TokenDetails
	if err := json.Unmarshal(envelope.Data, &details); err != nil {
		return nil, fmt.Errorf("decoding token details for %s: %w", pairID, err)
	}
	details.Raw = envelope.Data
	return &details, nil
}

func (c *DexscannerClient) getWithRetry(ctx context.Context, url string, maxRetries int, timeout time.Duration, backoff func(attempt int) time.Duration) ([]byte, error) {
	client := &http.Client{Timeout: timeout}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := dexscannerLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.getOnce(ctx, client, url)
		if err == nil {
			return body, nil
		}
		if !isTimeout(err) {
			c.appLogger.Error("Market data request failed", "url", url, "error", err)
			return nil, err
		}

		lastErr = err
		if attempt < maxRetries {
			wait := backoff(attempt)
			c.appLogger.Warn("Timeout fetching market data, retrying",
				"url", url, "attempt", attempt, "maxRetries", maxRetries, "wait", wait.String())
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	c.appLogger.Error("Market data request failed after retries", "url", url, "attempts", maxRetries, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *DexscannerClient) getOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
