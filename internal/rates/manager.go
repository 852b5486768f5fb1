// Package rates converts base-currency prices into local currencies for
// display. Conversion is not safety critical, so every layer degrades
// instead of failing: valid cache, then a live fetch, then static fallback
// factors. Callers always get a usable number.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/shopbot-core/server/internal/model"
	"github.com/shopbot-core/server/internal/store"
	logx "github.com/shopbot-core/server/pkg/logger"
)

// Config controls the remote rate source and cache behaviour.
type Config struct {
	APIURL        string        `envconfig:"RATES_API_URL" default:"https://api.exchangerate-api.com/v4/latest/MXN"`
	FetchTimeout  time.Duration `envconfig:"RATES_FETCH_TIMEOUT" default:"10s"`
	CacheTTL      time.Duration `envconfig:"RATES_CACHE_TTL" default:"1h"`
	FetchInterval time.Duration `envconfig:"RATES_FETCH_INTERVAL" default:"30s"`
	FetchBurst    int           `envconfig:"RATES_FETCH_BURST" default:"2"`
}

const sourceLabel = "exchangerate-api.com"

var errThrottled = errors.New("rate fetch throttled")

// Manager fetches, caches and applies currency conversion factors. The cache
// lives in the shared document next to the shop state.
type Manager struct {
	store   store.Store
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewManager(s store.Store, cfg Config) *Manager {
	if cfg.FetchBurst <= 0 {
		cfg.FetchBurst = 1
	}
	return &Manager{
		store:   s,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Every(cfg.FetchInterval), cfg.FetchBurst),
		log:     logx.Component("rates"),
	}
}

// Rates returns a conversion factor for every supported currency. It never
// fails: an unusable cache triggers a live fetch, and any fetch problem is
// papered over with the static fallback factors.
func (m *Manager) Rates(ctx context.Context) map[string]float64 {
	required := RequiredCurrencies()

	doc, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("could not load rate cache, using fallback rates")
		return FallbackRates()
	}

	if doc.ExchangeRates.Valid(time.Now(), m.cfg.CacheTTL, required) {
		m.log.Debug().Msg("serving exchange rates from cache")
		cached := make(map[string]float64, len(required))
		for _, code := range required {
			cached[code] = doc.ExchangeRates.Rates[code]
		}
		return cached
	}

	fresh, err := m.fetch(ctx, required)
	if err != nil {
		if errors.Is(err, errThrottled) {
			m.log.Debug().Msg("rate fetch throttled, using fallback rates")
		} else {
			m.log.Warn().Err(err).Msg("rate fetch failed, using fallback rates")
		}
		return FallbackRates()
	}

	m.cache(ctx, fresh)
	return fresh
}

// Convert turns a base-currency price into the target currency. The base
// currency converts 1:1; a fresh cached factor wins over the fallback; an
// unsupported currency converts 1:1 with a warning. Convert never fetches,
// so it can sit on the purchase render path without touching the network.
func (m *Manager) Convert(ctx context.Context, price float64, targetCurrency string) float64 {
	target := strings.ToUpper(targetCurrency)
	if target == BaseCurrency() {
		return price
	}

	factor, ok := m.currentFactor(ctx, target)
	if !ok {
		m.log.Warn().Str("currency", target).Msg("unsupported currency, returning base price")
		return price
	}
	return price * factor
}

// Info is the read-only cache metadata for display.
type Info struct {
	LastUpdated string
	Source      string
	Rates       map[string]float64
	Cached      bool
}

// RateInfo reports where the current factors come from and how old they are.
func (m *Manager) RateInfo(ctx context.Context) Info {
	fallback := Info{
		LastUpdated: "never",
		Source:      "default rates",
		Rates:       FallbackRates(),
	}

	doc, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("could not load rate cache for info")
		return fallback
	}
	cache := doc.ExchangeRates
	if cache == nil || cache.LastUpdated.IsZero() {
		return fallback
	}

	return Info{
		LastUpdated: cache.LastUpdated.Format("02/01/2006 15:04"),
		Source:      cache.Source,
		Rates:       cache.Rates,
		Cached:      true,
	}
}

func (m *Manager) currentFactor(ctx context.Context, target string) (float64, bool) {
	fallback := FallbackRates()

	doc, err := m.store.Load(ctx)
	if err == nil && doc.ExchangeRates.Valid(time.Now(), m.cfg.CacheTTL, RequiredCurrencies()) {
		if factor, ok := doc.ExchangeRates.Rates[target]; ok {
			return factor, true
		}
	}

	factor, ok := fallback[target]
	return factor, ok
}

func (m *Manager) fetch(ctx context.Context, required []string) (map[string]float64, error) {
	if !m.limiter.Allow() {
		return nil, errThrottled
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.APIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API responded with status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}

	fallback := FallbackRates()
	out := make(map[string]float64, len(required))
	for _, code := range required {
		if factor, ok := payload.Rates[code]; ok {
			out[code] = factor
			continue
		}
		m.log.Warn().Str("currency", code).Msg("rate missing from API response, substituting fallback")
		out[code] = fallback[code]
	}
	return out, nil
}

// cache stores freshly fetched rates in the shared document. The document is
// re-loaded under the store's write lock, so shop or economy writes that
// landed during the fetch survive; only the exchange_rates subtree changes.
// A failed save only costs the next caller a refetch, so it is logged and
// swallowed.
func (m *Manager) cache(ctx context.Context, fresh map[string]float64) {
	err := m.store.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.ExchangeRates = &model.RateCache{
			Rates:       fresh,
			LastUpdated: time.Now(),
			Source:      sourceLabel,
		}
		return true, nil
	})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to persist rate cache")
		return
	}
	m.log.Info().Msg("exchange rates refreshed from API")
}
