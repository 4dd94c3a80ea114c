package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/tfutils"
)

const (
	defaultBaseURL = "https://api.binance.com/api/v3/klines"
	backoffFactor  = 2.0
	jitterRange    = 0.1 // ±10%

	// pageLimit is the server-side row cap per klines request. Ranges
	// longer than pageLimit bars are fetched in chunks.
	pageLimit = 1000
)

// HTTPSource downloads candles from a klines-style REST endpoint with
// exponential-backoff retries.
type HTTPSource struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	client *http.Client
	log    zerolog.Logger
}

// NewHTTPSource creates an HTTP candle source. An empty proxyURL disables
// the proxy; an invalid one is an error.
func NewHTTPSource(proxyURL string, log zerolog.Logger) (*HTTPSource, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}
	return &HTTPSource{
		BaseURL:     defaultBaseURL,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
	}, nil
}

// Load fetches candles for [start, end] in chunked requests, retrying
// transient failures. The result is sorted, deduplicated, and non-empty.
func (h *HTTPSource) Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	if !tfutils.IsValidTimeframe(timeframe) {
		return nil, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}

	apiSymbol := strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))

	// One request returns at most pageLimit bars, so walk the range in
	// chunks sized to the timeframe and stitch the pages together.
	chunk := time.Duration(pageLimit) * tfutils.GetTimeframeDuration(timeframe)

	var candles []candle.Candle
	for cur := start; cur.Before(end); {
		chunkEnd := cur.Add(chunk)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		reqURL := fmt.Sprintf("%s?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
			h.BaseURL, apiSymbol, timeframe, cur.UnixMilli(), chunkEnd.UnixMilli(), pageLimit)

		body, err := h.fetch(ctx, reqURL, symbol)
		if err != nil {
			return nil, err
		}

		var raw [][]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decoding klines response: %w", err)
		}

		candles = append(candles, h.parseKlines(raw, symbol, timeframe)...)
		cur = chunkEnd
	}

	candle.SortByTimestamp(candles)
	candles = candle.Deduplicate(candles)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, timeframe, ErrNoCandles)
	}
	return candles, nil
}

func (h *HTTPSource) fetch(ctx context.Context, reqURL, symbol string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < h.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt-1, h.BaseDelay, h.MaxDelay)
			h.log.Debug().Str("symbol", symbol).Dur("delay", delay).
				Int("attempt", attempt+1).Msg("retrying download")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error on attempt %d: %w", attempt+1, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response on attempt %d: %w", attempt+1, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if !retryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", h.MaxAttempts, lastErr)
}

// parseKlines converts raw kline rows, tolerating string or numeric
// fields. Malformed rows are skipped.
func (h *HTTPSource) parseKlines(raw [][]any, symbol, timeframe string) []candle.Candle {
	candles := make([]candle.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}

		var ts int64
		switch v := row[0].(type) {
		case float64:
			ts = int64(v)
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				h.log.Warn().Str("value", v).Msg("skipping row with bad timestamp")
				continue
			}
			ts = parsed
		default:
			continue
		}

		c := candle.Candle{
			Timestamp: time.UnixMilli(ts).UTC(),
			Open:      parseNum(row[1]),
			High:      parseNum(row[2]),
			Low:       parseNum(row[3]),
			Close:     parseNum(row[4]),
			Volume:    parseNum(row[5]),
			Symbol:    symbol,
			Timeframe: timeframe,
			Source:    "http",
		}
		if err := c.Validate(); err != nil {
			h.log.Warn().Err(err).Time("ts", c.Timestamp).Msg("skipping invalid candle")
			continue
		}
		candles = append(candles, c)
	}
	return candles
}

func parseNum(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// retryDelay grows exponentially with jitter to avoid synchronized
// retries.
func retryDelay(attempt int, base, max time.Duration) time.Duration {
	delay := float64(base) * math.Pow(backoffFactor, float64(attempt))
	if delay > float64(max) {
		delay = float64(max)
	}
	delay += delay * jitterRange * (2*rand.Float64() - 1)
	if delay < 0 {
		delay = float64(base)
	}
	return time.Duration(delay)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
