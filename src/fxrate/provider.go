package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/cryptotax/src/logger"
	"golang.org/x/time/rate"
)

var (
	// ErrRateUnavailable means the upstream service responded but the
	// requested currency pair/date carries no rate. Retrying will not help.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrRateFetchFailed means the upstream call itself failed (network,
	// non-2xx status, timeout, malformed response).
	ErrRateFetchFailed = errors.New("failed to fetch exchange rate")
)

// ConversionProvider resolves historical exchange rates and converts amounts
// between currencies. A zero asOf time means "latest known rate".
type ConversionProvider interface {
	GetExchangeRate(ctx context.Context, fromCurrency, toCurrency string, asOf time.Time) (float64, error)
	ConvertCurrency(ctx context.Context, amount float64, fromCurrency, toCurrency string, asOf time.Time) (float64, error)
}

// RateStore is a durable cache of already-fetched historical rates.
// rateDate uses the YYYY-MM-DD form of the upstream API.
type RateStore interface {
	GetRate(fromCurrency, toCurrency, rateDate string) (float64, bool, error)
	SaveRate(fromCurrency, toCurrency, rateDate string, rate float64) error
}

// ratesResponse is the upstream JSON body:
// GET {base}/{date|latest}?base=FROM&symbols=TO -> {"rates":{"TO": r}, ...}
type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// ECBProvider fetches rates from an exchangeratesapi-compatible HTTP service.
// Upstream calls are serialized (one in flight) and spaced by the injected
// limiter; every call is recorded in the audit log under a correlation id.
type ECBProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	audit      *AuditLogger
	memCache   *cache.Cache
	store      RateStore

	// mu serializes upstream dispatch so at most one call is in flight,
	// regardless of how many conversions are requested concurrently.
	mu sync.Mutex
}

// NewECBProvider creates a provider for the given base URL.
//
// limiter controls minimum spacing between upstream calls; nil installs the
// default of one call per 100ms. audit may be nil to disable audit logging
// (tests). store may be nil to disable the durable cache. cacheTTL <= 0
// disables the in-memory cache, so every call re-fetches from upstream.
func NewECBProvider(baseURL string, limiter *rate.Limiter, audit *AuditLogger, store RateStore, cacheTTL, timeout time.Duration) *ECBProvider {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	}
	var memCache *cache.Cache
	if cacheTTL > 0 {
		memCache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &ECBProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		audit:      audit,
		memCache:   memCache,
		store:      store,
	}
}

// GetExchangeRate returns the conversion rate from fromCurrency to toCurrency
// as of the given date (zero time means latest). Cached rates are served
// without an upstream call; only dated rates are cached durably, since the
// "latest" rate drifts.
func (p *ECBProvider) GetExchangeRate(ctx context.Context, fromCurrency, toCurrency string, asOf time.Time) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	dateSeg := "latest"
	dated := false
	if !asOf.IsZero() {
		dateSeg = asOf.Format("2006-01-02")
		dated = true
	}
	cacheKey := fromCurrency + "/" + toCurrency + "@" + dateSeg

	if p.memCache != nil {
		if v, found := p.memCache.Get(cacheKey); found {
			return v.(float64), nil
		}
	}
	if dated && p.store != nil {
		stored, found, err := p.store.GetRate(fromCurrency, toCurrency, dateSeg)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Rate store lookup failed, falling through to upstream", "pair", cacheKey, "error", err)
			}
		} else if found {
			if p.memCache != nil {
				p.memCache.Set(cacheKey, stored, cache.DefaultExpiration)
			}
			return stored, nil
		}
	}

	fetched, err := p.fetchRate(ctx, fromCurrency, toCurrency, dateSeg)
	if err != nil {
		return 0, err
	}

	if p.memCache != nil {
		p.memCache.Set(cacheKey, fetched, cache.DefaultExpiration)
	}
	if dated && p.store != nil {
		if err := p.store.SaveRate(fromCurrency, toCurrency, dateSeg, fetched); err != nil {
			if logger.L != nil {
				logger.L.Warn("Failed to persist fetched rate", "pair", cacheKey, "error", err)
			}
		}
	}
	return fetched, nil
}

// ConvertCurrency converts an amount between currencies using the rate as of
// the given date. Failure modes are those of GetExchangeRate, unchanged.
func (p *ECBProvider) ConvertCurrency(ctx context.Context, amount float64, fromCurrency, toCurrency string, asOf time.Time) (float64, error) {
	exchangeRate, err := p.GetExchangeRate(ctx, fromCurrency, toCurrency, asOf)
	if err != nil {
		return 0, err
	}
	return amount * exchangeRate, nil
}

// fetchRate performs one upstream call. The mutex is held across the limiter
// wait and the HTTP exchange, so queued calls dispatch in FIFO order with at
// most one in flight.
func (p *ECBProvider) fetchRate(ctx context.Context, fromCurrency, toCurrency, dateSeg string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	correlationID := uuid.NewString()
	endpoint := fmt.Sprintf("%s/%s?base=%s&symbols=%s",
		p.baseURL, dateSeg, url.QueryEscape(fromCurrency), url.QueryEscape(toCurrency))

	p.audit.Request(correlationID, "GET "+endpoint)

	if err := p.limiter.Wait(ctx); err != nil {
		p.audit.Error(correlationID, fmt.Sprintf("rate limiter wait aborted: %v", err))
		return 0, fmt.Errorf("%w: rate limiter wait aborted: %v", ErrRateFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		p.audit.Error(correlationID, fmt.Sprintf("building request: %v", err))
		return 0, fmt.Errorf("%w: building request: %v", ErrRateFetchFailed, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.audit.Error(correlationID, fmt.Sprintf("request failed: %v", err))
		return 0, fmt.Errorf("%w: %v", ErrRateFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.audit.Error(correlationID, fmt.Sprintf("reading response body: %v", err))
		return 0, fmt.Errorf("%w: reading response body: %v", ErrRateFetchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		p.audit.Error(correlationID, fmt.Sprintf("unexpected status %s: %s", resp.Status, string(body)))
		return 0, fmt.Errorf("%w: unexpected status %s", ErrRateFetchFailed, resp.Status)
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.audit.Error(correlationID, fmt.Sprintf("decoding response: %v", err))
		return 0, fmt.Errorf("%w: decoding response: %v", ErrRateFetchFailed, err)
	}

	exchangeRate, ok := parsed.Rates[toCurrency]
	if !ok || exchangeRate <= 0 {
		p.audit.Error(correlationID, fmt.Sprintf("no usable rate for %s in response", toCurrency))
		return 0, fmt.Errorf("%w: no rate for %s->%s on %s", ErrRateUnavailable, fromCurrency, toCurrency, dateSeg)
	}

	p.audit.Response(correlationID, string(body))
	return exchangeRate, nil
}
