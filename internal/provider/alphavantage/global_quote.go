package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// globalQuoteResponse models the GLOBAL_QUOTE payload. Alpha Vantage embeds
// its rate-limit notice in an otherwise successful body, under "Note" or
// "Information" depending on the tier.
type globalQuoteResponse struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
	Quote       struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

// GlobalQuote returns the latest quoted price for symbol. found=false covers
// the documented soft failures: an empty quote for an unknown symbol, the
// in-body rate-limit notice, and malformed payloads. Only transport problems
// and unexpected statuses surface as errors.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (price float64, found bool, err error) {
	query := maps.Clone(c.query)
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)

	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusTooManyRequests:
		log.Printf("alphavantage: rate limited (HTTP 429) for %s", symbol)
		return 0, false, nil

	case http.StatusForbidden, http.StatusUnauthorized:
		return 0, false, fmt.Errorf("unauthorized")

	default:
		return 0, false, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body globalQuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		log.Printf("alphavantage: malformed response for %s: %v", symbol, err)
		return 0, false, nil
	}
	if body.Note != "" || body.Information != "" {
		log.Printf("alphavantage: rate limit notice for %s: %s%s", symbol, body.Note, body.Information)
		return 0, false, nil
	}
	s := strings.TrimSpace(body.Quote.Price)
	if s == "" {
		return 0, false, nil
	}
	// Decimal parse keeps the quoted string exact before the float
	// conversion and rejects any non-numeric junk in one step.
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Printf("alphavantage: unparseable price %q for %s: %v", s, symbol, err)
		return 0, false, nil
	}
	f, _ := d.Float64()
	return f, true, nil
}
