package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/ict-trader/internal/candle"
	"github.com/amirphl/ict-trader/internal/utils"
)

func memCandles() []candle.Candle {
	base := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	mk := func(i int, symbol string) candle.Candle {
		return candle.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 10, Symbol: symbol, Timeframe: "1h", Source: "test",
		}
	}
	// Deliberately unsorted and with a duplicate timestamp.
	return []candle.Candle{mk(2, "ES=F"), mk(0, "ES=F"), mk(1, "ES=F"), mk(1, "ES=F"), mk(1, "NQ=F")}
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(memCandles())
	base := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	t.Run("Sorted and deduplicated", func(t *testing.T) {
		got, err := src.Load(context.Background(), "ES=F", "1h", base, base.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp))
		}
	})

	t.Run("Range filter", func(t *testing.T) {
		got, err := src.Load(context.Background(), "ES=F", "1h", base.Add(time.Hour), base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("Second symbol at shared timestamp survives", func(t *testing.T) {
		// The NQ bar shares its timestamp with an ES bar; symbol-aware
		// dedupe must keep both.
		got, err := src.Load(context.Background(), "NQ=F", "1h", base, base.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "NQ=F", got[0].Symbol)
	})

	t.Run("Empty result is an error", func(t *testing.T) {
		_, err := src.Load(context.Background(), "GC=F", "1h", base, base.Add(time.Hour))
		assert.ErrorIs(t, err, ErrNoCandles)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.Load(ctx, "ES=F", "1h", base, base.Add(time.Hour))
		assert.Error(t, err)
	})
}

func klineRow(tsMilli int64, o, h, l, c string) string {
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","100",0,"0",0,"0","0","0"]`, tsMilli, o, h, l, c)
}

func newTestHTTPSource(t *testing.T, baseURL string) *HTTPSource {
	t.Helper()
	src, err := NewHTTPSource("", utils.NewLogger(io.Discard, "error"))
	require.NoError(t, err)
	src.BaseURL = baseURL
	src.MaxAttempts = 3
	src.BaseDelay = time.Millisecond
	src.MaxDelay = 5 * time.Millisecond
	return src
}

func TestHTTPSource(t *testing.T) {
	start := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	t.Run("Parses and sorts klines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ESF", r.URL.Query().Get("symbol"))
			// Out of order, one duplicate, one short row.
			fmt.Fprintf(w, "[%s,%s,%s,[1]]",
				klineRow(start.Add(time.Hour).UnixMilli(), "101", "102", "100", "101.5"),
				klineRow(start.UnixMilli(), "100", "101", "99", "100.5"),
				klineRow(start.UnixMilli(), "100", "101", "99", "100.5"),
			)
		}))
		defer srv.Close()

		got, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, end)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, start, got[0].Timestamp)
		assert.Equal(t, 100.5, got[0].Close)
		assert.Equal(t, "ES-F", got[0].Symbol)
	})

	t.Run("Chunks long ranges", func(t *testing.T) {
		// Emulates the server-side row cap: each request returns at most
		// pageLimit bars of the requested window.
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			from, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
			require.NoError(t, err)
			to, err := strconv.ParseInt(r.URL.Query().Get("endTime"), 10, 64)
			require.NoError(t, err)

			rows := make([]string, 0, pageLimit)
			for ts := from; ts <= to && len(rows) < pageLimit; ts += time.Hour.Milliseconds() {
				rows = append(rows, klineRow(ts, "100", "101", "99", "100.5"))
			}
			fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
		}))
		defer srv.Close()

		longEnd := start.Add(1440 * time.Hour)
		got, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, longEnd)
		require.NoError(t, err)
		assert.Equal(t, 2, requests)
		require.Len(t, got, 1441)
		assert.Equal(t, start, got[0].Timestamp)
		assert.Equal(t, longEnd, got[len(got)-1].Timestamp)
	})

	t.Run("Retries transient errors", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprintf(w, "[%s]", klineRow(start.UnixMilli(), "100", "101", "99", "100.5"))
		}))
		defer srv.Close()

		got, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, end)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 3, calls)
	})

	t.Run("Does not retry client errors", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, end)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("Exhausted retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, end)
		assert.ErrorContains(t, err, "after 3 attempts")
	})

	t.Run("Empty payload is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "[]")
		}))
		defer srv.Close()

		_, err := newTestHTTPSource(t, srv.URL).Load(context.Background(), "ES-F", "1h", start, end)
		assert.ErrorIs(t, err, ErrNoCandles)
	})

	t.Run("Unsupported timeframe", func(t *testing.T) {
		_, err := newTestHTTPSource(t, "http://unused").Load(context.Background(), "ES-F", "7m", start, end)
		assert.ErrorContains(t, err, "unsupported timeframe")
	})
}
