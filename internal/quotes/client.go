package quotes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"paper-trader-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoQuote is returned when the provider answers but has no usable price
// for the requested symbol.
var ErrNoQuote = errors.New("no usable quote for symbol")

// Quote is the simplified view of a market quote served to clients.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Currency  string  `json:"currency"`
}

// ProviderInterface defines the price oracle consumed by the trade executor
// and the quotes endpoint.
type ProviderInterface interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetQuotes(ctx context.Context, symbols []string) ([]*Quote, error)
}

// Client is a rate-limited, caching client for the Yahoo Finance quote API.
// It implements ProviderInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter

	ttl        time.Duration
	retryDelay time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

// ensure Client implements the interface
var _ ProviderInterface = (*Client)(nil)

// NewClient creates a new quote client.
func NewClient(cfg *config.Quotes, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:     client,
		logger:     logger,
		limiter:    limiter,
		ttl:        time.Duration(cfg.CacheTTL) * time.Second,
		retryDelay: time.Second,
		cache:      make(map[string]cachedQuote),
	}
}

// quoteResponse mirrors the Yahoo Finance v7 quote payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			ShortName                  string  `json:"shortName"`
			LongName                   string  `json:"longName"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			Currency                   string  `json:"currency"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"quoteResponse"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff on the base delay: 1x, 2x, 4x
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.retryDelay
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetQuote fetches the current quote for a single symbol. Symbols are
// case-insensitive on input and normalized to uppercase.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	results, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, strings.ToUpper(symbol))
	}
	return results[0], nil
}

// GetQuotes fetches quotes for a batch of symbols in a single upstream call.
// Cached entries younger than the TTL are served without hitting the API;
// symbols the provider does not know are silently absent from the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]*Quote, error) {
	var missing []string
	found := make(map[string]Quote, len(symbols))

	c.mu.RLock()
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if cached, ok := c.cache[s]; ok && time.Since(cached.fetched) < c.ttl {
			found[s] = cached.quote
		} else {
			missing = append(missing, s)
		}
	}
	c.mu.RUnlock()

	if len(missing) > 0 {
		fetched, err := c.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		now := time.Now()
		for _, q := range fetched {
			c.cache[q.Symbol] = cachedQuote{quote: q, fetched: now}
			found[q.Symbol] = q
		}
		c.mu.Unlock()
	}

	// Preserve request order, dropping duplicates and unknown symbols.
	results := make([]*Quote, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if q, ok := found[s]; ok && !seen[s] {
			seen[s] = true
			quote := q
			results = append(results, &quote)
		}
	}
	return results, nil
}

// fetch performs the upstream quote request for the given (uppercase) symbols.
func (c *Client) fetch(ctx context.Context, symbols []string) ([]Quote, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetHeader("User-Agent", "paper-trader-go/1.0").
		SetResult(&quoteResponse{})

	resp, err := c.doRequest(ctx, "GET", "/v7/finance/quote", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}

	result := resp.Result().(*quoteResponse)

	quotes := make([]Quote, 0, len(result.QuoteResponse.Result))
	for _, r := range result.QuoteResponse.Result {
		if r.RegularMarketPrice <= 0 {
			c.logger.Warn("Provider returned quote without usable price",
				zap.String("symbol", r.Symbol))
			continue
		}
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}
		quotes = append(quotes, Quote{
			Symbol:    strings.ToUpper(r.Symbol),
			Name:      name,
			Price:     r.RegularMarketPrice,
			Change:    r.RegularMarketChange,
			ChangePct: r.RegularMarketChangePercent,
			Currency:  r.Currency,
		})
	}
	return quotes, nil
}
