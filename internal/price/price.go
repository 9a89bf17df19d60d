package price

import (
	"context"
	"encoding/json"
	"fmt"

	"stakingScope/internal/subscan"
)

// Client fetches current USD quotes from the explorer's open price endpoint,
// inheriting the explorer client's envelope and retry contract.
type Client struct {
	explorer *subscan.Client
}

func NewClient(explorer *subscan.Client) *Client {
	return &Client{explorer: explorer}
}

// USDPrice returns the current quote for one unit of base in quote currency.
func (c *Client) USDPrice(ctx context.Context, base, quote string) (float64, error) {
	payload := map[string]any{"base": base, "quote": quote}

	var data struct {
		Price json.Number `json:"price"`
	}
	if err := c.explorer.Query(ctx, "open/price", payload, &data); err != nil {
		return 0, err
	}
	if data.Price == "" {
		return 0, fmt.Errorf("no price for %s/%s", base, quote)
	}

	value, err := data.Price.Float64()
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q: %w", data.Price, err)
	}
	return value, nil
}
