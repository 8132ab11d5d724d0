package common

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeURLValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/api/v2/public/ticker", EncodeURLValues("/api/v2/public/ticker", nil))

	values := url.Values{}
	values.Set("instrument_name", "BTC-PERPETUAL")
	values.Set("depth", "10")
	assert.Equal(t,
		"/api/v2/public/get_order_book?depth=10&instrument_name=BTC-PERPETUAL",
		EncodeURLValues("/api/v2/public/get_order_book", values))
}

func TestSortedURLValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", SortedURLValues(nil))

	values := url.Values{}
	values.Set("symbol", "SPOT_BTC_USDT")
	values.Set("order_type", "LIMIT")
	values.Set("side", "BUY")
	values.Set("order_price", "7500")
	assert.Equal(t,
		"order_price=7500&order_type=LIMIT&side=BUY&symbol=SPOT_BTC_USDT",
		SortedURLValues(values))

	// Values are escaped the same way the transmitted form body is.
	escaped := url.Values{}
	escaped.Set("client_order_id", "tag 1+2")
	assert.Equal(t, "client_order_id=tag+1%2B2", SortedURLValues(escaped))
}

func TestStringSliceContains(t *testing.T) {
	t.Parallel()

	haystack := []string{"BTC", "ETH", "SOL"}
	assert.True(t, StringSliceContains(haystack, "eth"))
	assert.False(t, StringSliceContains(haystack, "DOGE"))
}
