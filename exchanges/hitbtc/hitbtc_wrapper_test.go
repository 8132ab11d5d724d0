package hitbtc

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/encoding/json"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/futures"
	"github.com/quantfabric/unifex/exchanges/kline"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

func mustNumber(t *testing.T, s string) types.Number {
	t.Helper()
	n, err := types.NewNumberFromString(s)
	require.NoError(t, err)
	return n
}

const symbolsFixture = `{
	"BTCUSDT":{"type":"spot","base_currency":"BTC","quote_currency":"USDT",
		"status":"working","quantity_increment":"0.00001","tick_size":"0.01",
		"take_rate":"0.0009","make_rate":"0.0009","margin_trading":true},
	"BTCUSDT_PERP":{"type":"futures","base_currency":"BTC","quote_currency":"USDT",
		"status":"working","quantity_increment":"0.001","tick_size":"0.1",
		"take_rate":"0.0005","make_rate":"0.0002","contract_size":"1"}}`

func marketsHandler(t *testing.T, rest http.HandlerFunc) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/3/public/symbol" {
			w.Write([]byte(symbolsFixture))
			return
		}
		rest(w, r)
	})
}

func TestFetchMarkets(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected path %s", r.URL.Path)
	}))

	markets, err := h.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 2)
	// Sorted by venue id for deterministic catalogs.
	assert.Equal(t, "BTC/USDT", markets[0].Symbol)
	assert.Equal(t, "BTC/USDT:USDT", markets[1].Symbol)
}

func TestFetchTickerEndToEnd(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/3/public/ticker/BTCUSDT", r.URL.Path)
		w.Write([]byte(`{"ask":"62884.47","bid":"62882.86","last":"62883.50",` +
			`"low":"61750.00","high":"63140.22","open":"62000.00",` +
			`"volume":"1425.3","volume_quote":"89543210.2",` +
			`"timestamp":"2021-10-13T02:35:06.009Z"}`))
	}))

	p, err := h.FetchTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", p.Symbol)
	assert.Equal(t, "62883.50", p.Last.String())
	assert.Equal(t, "2021-10-13T02:35:06.009Z", p.Datetime)
}

func TestFetchOHLCV(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/3/public/candles/BTCUSDT", r.URL.Path)
		assert.Equal(t, "M15", r.URL.Query().Get("period"))
		w.Write([]byte(`[{"timestamp":"2021-10-13T02:30:00.000Z","open":"62000",` +
			`"close":"62100","min":"61900","max":"62150","volume":"12.5"}]`))
	}))

	candles, err := h.FetchOHLCV(context.Background(), "BTC/USDT", kline.FifteenMin, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, "62150", candles[0].High.String())
	assert.Equal(t, "61900", candles[0].Low.String())

	_, err = h.FetchOHLCV(context.Background(), "BTC/USDT", kline.Interval(90*time.Second), time.Time{}, time.Time{}, 0)
	assert.ErrorIs(t, err, kline.ErrIntervalNotSupported)
}

func TestFetchBalanceMergesWallets(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/3/spot/balance":
			w.Write([]byte(`[{"currency":"BTC","available":"1.5","reserved":"0.25"}]`))
		case "/api/3/futures/balance":
			w.Write([]byte(`[{"currency":"BTC","available":"0.5","reserved":"0"},` +
				`{"currency":"USDT","available":"1000","reserved":"200"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	holdings, err := h.FetchBalance(context.Background())
	require.NoError(t, err)
	btc := holdings.Balances["BTC"]
	assert.Equal(t, "2", btc.Free.String())
	assert.Equal(t, "0.25", btc.Used.String())
	assert.Equal(t, "2.25", btc.Total.String())
	usdt := holdings.Balances["USDT"]
	assert.Equal(t, "1200", usdt.Total.String())
}

func TestCreateOrderRoutesCategory(t *testing.T) {
	t.Parallel()
	var hitPath string
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		hitPath = r.URL.Path
		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BTCUSDT_PERP", req.Symbol)
		assert.Equal(t, "0.01", req.Quantity.String())
		w.Write([]byte(`{"id":42,"client_order_id":"c42","symbol":"BTCUSDT_PERP","side":"sell",` +
			`"status":"new","type":"limit","time_in_force":"GTC","quantity":"0.01",` +
			`"quantity_cumulative":"0","price":"63000","reduce_only":true,` +
			`"margin_mode":"Isolated","created_at":"2021-10-13T02:35:06.009Z"}`))
	}))

	det, err := h.CreateOrder(context.Background(), &order.Submit{
		Symbol:     "BTC/USDT:USDT",
		Side:       order.Sell,
		Type:       order.Limit,
		Amount:     mustNumber(t, "0.01"),
		Price:      mustNumber(t, "63000"),
		ReduceOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/3/futures/order", hitPath)
	assert.Equal(t, "42", det.ID)
	assert.Equal(t, "c42", det.ClientOrderID)
	assert.Equal(t, "BTC/USDT:USDT", det.Symbol)
	assert.Equal(t, order.Open, det.Status)
	assert.Equal(t, order.GoodTillCancel, det.TimeInForce)
	assert.Equal(t, "0.01", det.Remaining.String())
}

func TestParseOrderWithoutMarket(t *testing.T) {
	t.Parallel()
	var raw Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"client_order_id":"x","symbol":"ETHBTC",
		"side":"buy","status":"partiallyFilled","type":"limit","quantity":"10",
		"quantity_cumulative":"4","price":"0.07","created_at":"2021-10-13T02:35:06.009Z"}`), &raw))

	det := parseOrder(&raw, nil)
	assert.Equal(t, "ETHBTC", det.Symbol, "catalog miss keeps the venue symbol")
	assert.Equal(t, order.Open, det.Status)
	assert.Equal(t, "6", det.Remaining.String())
}

func TestFetchPositions(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/3/futures/account", r.URL.Path)
		w.Write([]byte(`[{"symbol":"BTCUSDT_PERP","margin_balance":"5000","leverage":"10",
			"margin_mode":"Isolated","positions":[
			{"id":1,"symbol":"BTCUSDT_PERP","quantity":"-0.05","price_entry":"62000",
			 "price_liquidation":"68000","pnl":"-12.5","updated_at":"2021-10-13T02:35:06.009Z"}]}]`))
	}))

	positions, err := h.FetchPositions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, "BTC/USDT:USDT", p.Symbol)
	assert.Equal(t, futures.Short, p.Side)
	assert.Equal(t, "0.05", p.Contracts.String())
	assert.Equal(t, futures.Isolated, p.MarginMode)
	assert.Equal(t, "10", p.Leverage.String())
}

func TestFetchDeposits(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/3/wallet/transactions", r.URL.Path)
		assert.Equal(t, "DEPOSIT", r.URL.Query().Get("types"))
		w.Write([]byte(`[{"id":101,"status":"SUCCESS","type":"DEPOSIT",
			"created_at":"2021-10-13T02:35:06.009Z",
			"native":{"tx_hash":"0xabc","address":"0xdef","amount":"2.5","currency":"ETH"}}]`))
	}))

	txs, err := h.FetchDeposits(context.Background(), "ETH", 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, account.Deposit, txs[0].Type)
	assert.Equal(t, account.TransactionOK, txs[0].Status)
	assert.Equal(t, "0xabc", txs[0].TxID)
	assert.Equal(t, "2.5", txs[0].Amount.String())
}

func TestFetchFundingRate(t *testing.T) {
	t.Parallel()
	h := newTestClient(t, marketsHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/3/public/futures/info", r.URL.Path)
		w.Write([]byte(`{"BTCUSDT_PERP":{"mark_price":"62900.1","index_price":"62899.8",
			"funding_rate":"0.0001","next_funding_time":"2021-10-13T08:00:00.000Z",
			"timestamp":"2021-10-13T02:35:06.009Z"}}`))
	}))

	fr, err := h.FetchFundingRate(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "0.0001", fr.FundingRate.String())
	assert.Equal(t, "BTC/USDT:USDT", fr.Symbol)

	// Spot markets have no funding.
	_, err = h.FetchFundingRate(context.Background(), "BTC/USDT")
	assert.Error(t, err)
}
