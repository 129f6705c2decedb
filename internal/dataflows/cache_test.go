package dataflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Hour, true)

	params := map[string]string{"symbol": "AAPL"}
	in := []*NewsArticle{{Title: "earnings beat", Source: "wire"}}
	require.NoError(t, cache.Set("finnhub", "news", params, in))

	var out []*NewsArticle
	require.True(t, cache.Get("finnhub", "news", params, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "earnings beat", out[0].Title)
}

func TestCacheMissOnDifferentParams(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Hour, true)
	require.NoError(t, cache.Set("finnhub", "news", "AAPL", []string{"a"}))

	var out []string
	assert.False(t, cache.Get("finnhub", "news", "MSFT", &out))
}

func TestCacheExpires(t *testing.T) {
	cache := NewCache(t.TempDir(), -time.Second, true)
	require.NoError(t, cache.Set("yahoo", "quote", "AAPL", "data"))

	var out string
	assert.False(t, cache.Get("yahoo", "quote", "AAPL", &out))
}

func TestCacheDisabled(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Hour, false)
	require.NoError(t, cache.Set("yahoo", "quote", "AAPL", "data"))

	var out string
	assert.False(t, cache.Get("yahoo", "quote", "AAPL", &out))
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, ValidateSymbol("aapl"))
	assert.Error(t, ValidateSymbol("  "))
	assert.Error(t, ValidateSymbol("TOOLONGSYMBOL"))
	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Now()

	got := parseRelativeTime("3 hours ago")
	assert.WithinDuration(t, now.Add(-3*time.Hour), got, time.Minute)

	got = parseRelativeTime("2 days ago")
	assert.WithinDuration(t, now.AddDate(0, 0, -2), got, time.Minute)

	got = parseRelativeTime("gibberish")
	assert.WithinDuration(t, now.Add(-time.Hour), got, time.Minute)
}

func TestFormatPriceTableEmpty(t *testing.T) {
	assert.Equal(t, "No price data available.", FormatPriceTable(nil))
}
