package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/exchanges/asset"
)

func TestSymbolComposition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BTC/USDT", Symbol("BTC", "USDT", "", 0, 0, ""))
	assert.Equal(t, "BTC/USD:BTC", Symbol("BTC", "USD", "BTC", 0, 0, ""))

	expiry := time.Date(2024, time.December, 27, 8, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "ETH/USD:ETH-27DEC24", Symbol("ETH", "USD", "ETH", expiry, 0, ""))
	assert.Equal(t, "BTC/USD:BTC-27DEC24-240000-C", Symbol("BTC", "USD", "BTC", expiry, 240000, OptionCall))
	assert.Equal(t, "BTC/USD:BTC-27DEC24-240000-P", Symbol("BTC", "USD", "BTC", expiry, 240000, OptionPut))

	// A strike without an expiry never renders.
	assert.Equal(t, "BTC/USD:BTC", Symbol("BTC", "USD", "BTC", 0, 240000, OptionCall))
}

func TestExpiryCodeRoundTrip(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2024, time.December, 27, 8, 0, 0, 0, time.UTC)
	code := ExpiryCode(expiry)
	assert.Equal(t, "27DEC24", code)

	parsed, err := ParseExpiryCode(code)
	require.NoError(t, err)
	assert.Equal(t, expiry, parsed, "codes parse back to the 08:00 UTC expiry")

	// Single-digit days render without padding and still parse.
	short := time.Date(2025, time.March, 7, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "7MAR25", ExpiryCode(short))
	parsed, err = ParseExpiryCode("7MAR25")
	require.NoError(t, err)
	assert.Equal(t, short, parsed)

	_, err = ParseExpiryCode("PERPETUAL")
	assert.Error(t, err)
}

func TestMarketValidate(t *testing.T) {
	t.Parallel()

	valid := Market{ID: "BTC-PERPETUAL", Symbol: "BTC/USD:BTC", Base: "BTC", Quote: "USD",
		Settle: "BTC", Swap: true, Contract: true, Inverse: true, Type: asset.Swap}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.Symbol = ""
	assert.Error(t, missing.Validate())

	ambiguous := valid
	ambiguous.Spot = true
	assert.Error(t, ambiguous.Validate(), "exactly one kind flag may be set")

	unsettled := valid
	unsettled.Settle = ""
	assert.Error(t, unsettled.Validate())

	badOption := Market{ID: "X", Symbol: "X/Y:Y-27DEC24-100-C", Base: "X", Quote: "Y",
		Settle: "Y", Option: true, Contract: true, OptionType: "straddle"}
	assert.Error(t, badOption.Validate())
}

func testMarkets() []Market {
	return []Market{
		{ID: "BTC_USDC", Symbol: "BTC/USDC", Base: "BTC", Quote: "USDC", Spot: true, Type: asset.Spot},
		{ID: "BTC-PERPETUAL", Symbol: "BTC/USD:BTC", Base: "BTC", Quote: "USD",
			Settle: "BTC", Swap: true, Contract: true, Inverse: true, Type: asset.Swap},
	}
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	_, err := c.ByID("BTC-PERPETUAL")
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)

	require.NoError(t, c.Load(testMarkets()))
	assert.True(t, c.Loaded())

	m, err := c.ByID("BTC-PERPETUAL")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", m.Symbol)

	m, err = c.BySymbol("BTC/USDC")
	require.NoError(t, err)
	assert.Equal(t, "BTC_USDC", m.ID)

	_, err = c.ByID("ETH-PERPETUAL")
	assert.ErrorIs(t, err, ErrMarketNotFound)
	_, err = c.BySymbol("ETH/USD:ETH")
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestCatalogFirstSeenWins(t *testing.T) {
	t.Parallel()

	markets := testMarkets()
	dup := markets[1]
	dup.ID = "BTC-PERP-ALIAS"
	markets = append(markets, dup)

	c := NewCatalog()
	require.NoError(t, c.Load(markets))

	m, err := c.BySymbol("BTC/USD:BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC-PERPETUAL", m.ID, "duplicate canonical symbols are dropped, not merged")
	assert.Len(t, c.Markets(), 2)

	_, err = c.ByID("BTC-PERP-ALIAS")
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestCatalogAdd(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	require.NoError(t, c.Load(testMarkets()))

	synth := Market{ID: "ETH-28MAR25", Symbol: "ETH/USD:ETH-28MAR25", Base: "ETH", Quote: "USD",
		Settle: "ETH", Future: true, Contract: true, Inverse: true, Type: asset.Futures}
	added, err := c.Add(synth)
	require.NoError(t, err)

	again, err := c.Add(synth)
	require.NoError(t, err)
	assert.Same(t, added, again, "re-adding returns the memoized record")

	invalid := Market{ID: "X"}
	_, err = c.Add(invalid)
	assert.Error(t, err)
}

func TestCatalogCurrencies(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.LoadCurrencies(map[string]Currency{
		"BTC": {Code: "BTC", ID: "BTC", Active: true},
	})
	cur, ok := c.Currency("BTC")
	require.True(t, ok)
	assert.Equal(t, "BTC", cur.Code)
	_, ok = c.Currency("DOGE")
	assert.False(t, ok)
}
