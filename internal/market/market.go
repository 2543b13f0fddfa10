package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3/simple/price"

// Snapshot is one observation of the DUSK spot market.
type Snapshot struct {
	Price       float64
	MarketCap   float64
	Volume24h   float64
	Change24Pct float64
}

// Client fetches DUSK market data from the CoinGecko simple price API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the current market snapshot. Any transport error or
// non-200 status yields an error; callers keep their previous snapshot.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	params := url.Values{
		"ids":                 {"dusk-network"},
		"vs_currencies":       {"usd"},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
		"include_24hr_change": {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Snapshot{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD          float64 `json:"usd"`
		USDMarketCap float64 `json:"usd_market_cap"`
		USD24hVol    float64 `json:"usd_24h_vol"`
		USD24hChange float64 `json:"usd_24h_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("decode price feed: %w", err)
	}

	data, ok := body["dusk-network"]
	if !ok {
		return Snapshot{}, fmt.Errorf("price feed response missing dusk-network")
	}

	return Snapshot{
		Price:       data.USD,
		MarketCap:   data.USDMarketCap,
		Volume24h:   data.USD24hVol,
		Change24Pct: data.USD24hChange,
	}, nil
}
