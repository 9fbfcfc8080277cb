package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/arena/pkg/errors"
)

const DefaultTwelveDataURL = "https://api.twelvedata.com"

// twelveDataSymbols maps our symbols to the provider's. Indices are quoted
// through ETF proxies.
var twelveDataSymbols = map[string]string{
	"EURUSD": "EUR/USD",
	"GBPUSD": "GBP/USD",
	"USDJPY": "USD/JPY",
	"USDCHF": "USD/CHF",
	"AUDUSD": "AUD/USD",
	"USDCAD": "USD/CAD",
	"NZDUSD": "NZD/USD",
	"XAUUSD": "XAU/USD",
	"XAGUSD": "XAG/USD",
	"BTCUSD": "BTC/USD",
	"ETHUSD": "ETH/USD",
	"SOLUSD": "SOL/USD",
	"BNBUSD": "BNB/USD",
	"XRPUSD": "XRP/USD",
	"US500":  "SPY",
	"US30":   "DIA",
	"US100":  "QQQ",
	"SPX":    "SPY",
	"NAS100": "QQQ",
}

// proxyScale converts an ETF proxy price to the index level it stands in for.
var proxyScale = map[string]float64{
	"SPX": 10,
}

// UpstreamSymbol reports the provider symbol for one of ours.
func UpstreamSymbol(symbol string) (string, bool) {
	s, ok := twelveDataSymbols[symbol]
	return s, ok
}

type TwelveDataConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerMinute int
	MaxRetries    int
	RetryDelay    time.Duration
}

// StatusError is a non-200 reply from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// TwelveData is an Upstream backed by the Twelve Data /price endpoint.
type TwelveData struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	pipeline failsafe.Executor[[]byte]
}

func NewTwelveData(cfg TwelveDataConfig) (*TwelveData, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "API key not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwelveDataURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}

	retryPolicy := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			return shouldRetry(err)
		}).
		WithBackoff(cfg.RetryDelay, 20*cfg.RetryDelay).
		WithMaxRetries(cfg.MaxRetries).
		Build()

	return &TwelveData{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
		pipeline: failsafe.With[[]byte](retryPolicy),
	}, nil
}

type priceResponse struct {
	Price   string `json:"price"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Price fetches the live price for symbol. Symbols without a provider
// mapping fail with ErrCodeDataNotFound without any request being made.
// Retryable failures that outlast the retry policy are reported as
// ErrCodeUpstreamUnavailable.
func (t *TwelveData) Price(ctx context.Context, symbol string) (float64, error) {
	upstream, ok := UpstreamSymbol(symbol)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "no upstream symbol for %s", symbol)
	}

	body, err := t.pipeline.WithContext(ctx).Get(func() ([]byte, error) {
		return t.fetch(ctx, upstream)
	})
	if err != nil {
		code := errors.ErrCodeUpstreamFailed
		if shouldRetry(err) {
			code = errors.ErrCodeUpstreamUnavailable
		}
		return 0, errors.Wrapf(code, err, "fetch %s", symbol)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeUpstreamFailed, err, "decode %s", symbol)
	}
	if pr.Price == "" {
		return 0, errors.Newf(errors.ErrCodeUpstreamFailed, "%s: code %d: %s", symbol, pr.Code, pr.Message)
	}

	price, err := strconv.ParseFloat(pr.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeUpstreamFailed, err, "parse %s price %q", symbol, pr.Price)
	}
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeUpstreamFailed, "%s: non-positive price %v", symbol, price)
	}

	if scale, ok := proxyScale[symbol]; ok {
		price *= scale
	}
	return price, nil
}

func (t *TwelveData) fetch(ctx context.Context, upstream string) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", upstream)
	params.Set("apikey", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/price?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	// transport failure
	return true
}
