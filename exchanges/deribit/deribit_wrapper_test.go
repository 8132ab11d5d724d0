package deribit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/encoding/json"
	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/kline"
	"github.com/quantfabric/unifex/exchanges/market"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

func newLoadedCatalog(t *testing.T) *market.Catalog {
	t.Helper()
	perp, err := createMarketFromID("BTC-PERPETUAL")
	require.NoError(t, err)
	linear, err := createMarketFromID("BTC_USDC-PERPETUAL")
	require.NoError(t, err)
	spot, err := createMarketFromID("BTC_USDC")
	require.NoError(t, err)
	c := market.NewCatalog()
	require.NoError(t, c.Load([]market.Market{*perp, *linear, *spot}))
	return c
}

func TestBuildMarket(t *testing.T) {
	t.Parallel()

	var in InstrumentData
	require.NoError(t, json.Unmarshal([]byte(`{
		"instrument_name":"BTC-PERPETUAL","kind":"future","settlement_period":"perpetual",
		"base_currency":"BTC","quote_currency":"USD","settlement_currency":"BTC",
		"is_active":true,"tick_size":0.5,"min_trade_amount":10,"contract_size":10,
		"taker_commission":0.0005,"maker_commission":0,"max_leverage":50,
		"creation_timestamp":1569888000000}`), &in))
	m, err := buildMarket(&in)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", m.Symbol)
	assert.True(t, m.Swap)
	assert.True(t, m.Inverse)
	assert.True(t, m.Contract)
	assert.Zero(t, m.Expiry)
	assert.Equal(t, 0.5, m.Precision.Price)
	assert.Equal(t, 10.0, m.Limits.Amount.Min)

	require.NoError(t, json.Unmarshal([]byte(`{
		"instrument_name":"BTC-27DEC24-240000-C","kind":"option","option_type":"call",
		"base_currency":"BTC","quote_currency":"USD","settlement_currency":"BTC",
		"strike":240000,"is_active":true,"settlement_period":"month",
		"expiration_timestamp":1735286400000}`), &in))
	m, err = buildMarket(&in)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC-27DEC24-240000-C", m.Symbol)
	assert.True(t, m.Option)
	assert.Equal(t, "2024-12-27T08:00:00.000Z", m.ExpiryDatetime)
}

func TestParseTicker(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"
	d.Catalog = newLoadedCatalog(t)

	var raw TickerData
	require.NoError(t, json.Unmarshal([]byte(`{
		"instrument_name":"BTC-PERPETUAL","last_price":7750.5,
		"best_bid_price":7750.0,"best_bid_amount":200,
		"best_ask_price":7750.5,"best_ask_amount":100,
		"mark_price":7750.2,"index_price":7749.9,
		"timestamp":1583778859480,
		"stats":{"volume":12.5,"volume_usd":96881,"high":7900.0,"low":7600.5,"price_change":1.75}}`), &raw))

	p := d.parseTicker(&raw, nil)
	assert.Equal(t, "BTC/USD:BTC", p.Symbol)
	assert.Equal(t, int64(1583778859480), p.Timestamp)
	assert.Equal(t, "2020-03-09T18:34:19.480Z", p.Datetime)
	assert.Equal(t, "7750.5", p.Last.String())
	assert.Equal(t, "7750.0", p.Bid.String(), "the venue's own rendering survives")
	assert.Equal(t, "7900.0", p.High.String())
	assert.Nil(t, p.Greeks, "greeks only attach to option tickers")
}

func TestParsePublicTradeCost(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"
	d.Catalog = newLoadedCatalog(t)

	var raw PublicTradeData
	require.NoError(t, json.Unmarshal([]byte(`{
		"trade_id":"48079509","instrument_name":"BTC-PERPETUAL","direction":"sell",
		"price":8000,"amount":40000,"timestamp":1583778859480}`), &raw))

	// Inverse settlement: amount is USD notional, cost settles in base.
	tr := d.parsePublicTrade(&raw, nil)
	assert.Equal(t, "BTC/USD:BTC", tr.Symbol)
	assert.Equal(t, order.Sell, tr.Side)
	assert.Equal(t, "5", tr.Cost.String())

	// Linear settlement: cost = price * amount in the settle currency.
	raw.InstrumentName = "BTC_USDC-PERPETUAL"
	tr = d.parsePublicTrade(&raw, nil)
	assert.Equal(t, "320000000", tr.Cost.String())
}

func TestParseOrder(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"
	d.Catalog = newLoadedCatalog(t)

	var raw OrderData
	require.NoError(t, json.Unmarshal([]byte(`{
		"order_id":"ETH-584849853","label":"client-7","instrument_name":"BTC-PERPETUAL",
		"direction":"buy","order_type":"limit","order_state":"open",
		"time_in_force":"good_til_cancelled","price":7800,"amount":100,
		"filled_amount":40,"average_price":7795,"post_only":true,
		"creation_timestamp":1583778859480,"last_update_timestamp":1583778860000}`), &raw))

	det := d.parseOrder(&raw, nil)
	assert.Equal(t, "ETH-584849853", det.ID)
	assert.Equal(t, "client-7", det.ClientOrderID)
	assert.Equal(t, "BTC/USD:BTC", det.Symbol)
	assert.Equal(t, order.Buy, det.Side)
	assert.Equal(t, order.Limit, det.Type)
	assert.Equal(t, order.Open, det.Status)
	assert.Equal(t, order.GoodTillCancel, det.TimeInForce)
	assert.True(t, det.PostOnly)
	assert.Equal(t, "60", det.Remaining.String())
	assert.Equal(t, "BTC", det.Fee.Currency)
}

func instrumentsFixture(ccy string) string {
	if ccy != "BTC" {
		return `{"jsonrpc":"2.0","result":[]}`
	}
	return `{"jsonrpc":"2.0","result":[
		{"instrument_name":"BTC-PERPETUAL","kind":"future","settlement_period":"perpetual",
		 "base_currency":"BTC","quote_currency":"USD","settlement_currency":"BTC",
		 "is_active":true,"tick_size":0.5,"min_trade_amount":10,"contract_size":10},
		{"instrument_name":"BTC_USDC","kind":"spot",
		 "base_currency":"BTC","quote_currency":"USDC","is_active":true,
		 "tick_size":1,"min_trade_amount":0.0001}]}`
}

func TestFetchTickerEndToEnd(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/public/get_instruments":
			w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
		case "/api/v2/public/ticker":
			w.Write([]byte(`{"jsonrpc":"2.0","result":{"instrument_name":"BTC-PERPETUAL",
				"last_price":7750.5,"best_bid_price":7750.0,"best_ask_price":7750.5,
				"timestamp":1583778859480,"stats":{"volume":12.5}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	p, err := d.FetchTicker(context.Background(), "BTC/USD:BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", p.Symbol)
	assert.Equal(t, "7750.5", p.Last.String())

	// The catalog is cached: a second resolution issues no further
	// instrument requests, and unknown symbols miss cleanly.
	_, err = d.FetchTicker(context.Background(), "DOGE/USD:DOGE")
	assert.ErrorIs(t, err, market.ErrMarketNotFound)
}

func TestFetchOHLCV(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/public/get_instruments":
			w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
		case "/api/v2/public/get_tradingview_chart_data":
			assert.Equal(t, "15", r.URL.Query().Get("resolution"))
			w.Write([]byte(`{"jsonrpc":"2.0","result":{"status":"ok",
				"ticks":[1583778600000,1583779500000],
				"open":[7740.0,7745.5],"high":[7760.0,7770.0],
				"low":[7730.0,7741.0],"close":[7745.5,7750.5],
				"volume":[4.2,3.1]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	candles, err := d.FetchOHLCV(context.Background(), "BTC/USD:BTC", kline.FifteenMin, time.Time{}, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1583778600000), candles[0].Timestamp)
	assert.Equal(t, "7750.5", candles[1].Close.String())

	// A width the chart endpoint has no resolution for must be rejected,
	// not rounded to the nearest supported period.
	_, err = d.FetchOHLCV(context.Background(), "BTC/USD:BTC", kline.Interval(90*time.Second), time.Time{}, time.Time{}, 0)
	assert.ErrorIs(t, err, kline.ErrIntervalNotSupported)
	_, err = d.FetchOHLCV(context.Background(), "BTC/USD:BTC", kline.FourHour, time.Time{}, time.Time{}, 0)
	assert.ErrorIs(t, err, kline.ErrIntervalNotSupported)
}

func TestFetchOpenInterest(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/public/get_instruments":
			w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
		case "/api/v2/public/ticker":
			w.Write([]byte(`{"jsonrpc":"2.0","result":{"instrument_name":"BTC-PERPETUAL",
				"open_interest":1502000,"mark_price":7750.2,"timestamp":1583778859480}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	oi, err := d.FetchOpenInterest(context.Background(), "BTC/USD:BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", oi.Symbol)
	assert.Equal(t, "1502000", oi.OpenInterest.String())
	assert.Equal(t, "1502000", oi.Notional.String(), "inverse open interest is already USD notional")

	_, err = d.FetchOpenInterest(context.Background(), "BTC/USDC")
	assert.ErrorIs(t, err, errs.ErrNotSupported)
}

func TestLoadMarketsCaching(t *testing.T) {
	t.Parallel()
	var hits int
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
	}))

	first, err := d.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, first, 2)
	hitsAfterLoad := hits

	second, err := d.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, hitsAfterLoad, hits, "cached catalog must not refetch")

	_, err = d.LoadMarkets(context.Background(), true)
	require.NoError(t, err)
	assert.Greater(t, hits, hitsAfterLoad)
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/public/get_instruments":
			w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
		case "/api/v2/private/buy":
			q := r.URL.Query()
			assert.Equal(t, "BTC-PERPETUAL", q.Get("instrument_name"))
			assert.Equal(t, "limit", q.Get("type"))
			assert.Equal(t, "7800", q.Get("price"))
			assert.Equal(t, "100", q.Get("amount"))
			assert.Equal(t, "client-7", q.Get("label"))
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			w.Write([]byte(`{"jsonrpc":"2.0","result":{"order":{
				"order_id":"ETH-584849853","label":"client-7","instrument_name":"BTC-PERPETUAL",
				"direction":"buy","order_type":"limit","order_state":"open",
				"price":7800,"amount":100,"creation_timestamp":1583778859480}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	det, err := d.CreateOrder(context.Background(), &order.Submit{
		Symbol:        "BTC/USD:BTC",
		Side:          order.Buy,
		Type:          order.Limit,
		Amount:        types.NewNumberFromFloat(100),
		Price:         types.NewNumberFromFloat(7800),
		ClientOrderID: "client-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "ETH-584849853", det.ID)
	assert.Equal(t, order.Open, det.Status)
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"

	_, err := d.CreateOrder(context.Background(), &order.Submit{
		Symbol: "BTC/USD:BTC", Side: order.Buy, Type: order.Limit,
		Amount: types.NewNumberFromFloat(100),
	})
	assert.ErrorIs(t, err, order.ErrPriceRequired)

	_, err = d.CreateOrder(context.Background(), &order.Submit{
		Side: order.Buy, Type: order.Market, Amount: types.NewNumberFromFloat(1),
	})
	assert.ErrorIs(t, err, order.ErrSymbolUnset)
}

func TestFetchOrderRequiresID(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	_, err := d.FetchOrder(context.Background(), "", "")
	assert.ErrorIs(t, err, order.ErrOrderIDUnset)
}

func TestFetchClosedOrdersRequiresSymbol(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"
	_, err := d.FetchClosedOrders(context.Background(), "", 0)
	assert.ErrorIs(t, err, errs.ErrArgumentsRequired)
}

func TestFetchDeposits(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/private/get_deposits", r.URL.Path)
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"count":1,"data":[{
			"address":"bc1q...","amount":0.5,"currency":"BTC","state":"completed",
			"transaction_id":"abc123","received_timestamp":1583778859480}]}}`))
	}))

	txs, err := d.FetchDeposits(context.Background(), "BTC", 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, account.Deposit, txs[0].Type)
	assert.Equal(t, account.TransactionOK, txs[0].Status)
	assert.Equal(t, "0.5", txs[0].Amount.String())

	_, err = d.FetchDeposits(context.Background(), "", 0)
	assert.ErrorIs(t, err, errs.ErrArgumentsRequired)
}

func TestFetchFundingRateHistory(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/public/get_instruments":
			w.Write([]byte(instrumentsFixture(r.URL.Query().Get("currency"))))
		case "/api/v2/public/get_funding_rate_history":
			w.Write([]byte(`{"jsonrpc":"2.0","result":[
				{"timestamp":1583778859480,"index_price":7750,"interest_8h":0.0001,"interest_1h":0.0000125}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	rates, err := d.FetchFundingRateHistory(context.Background(), "BTC/USD:BTC", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "0.0001", rates[0].FundingRate.String())
	assert.Equal(t, "8h", rates[0].Interval)
}

func TestFetchBalance(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ccy := r.URL.Query().Get("currency")
		if ccy != "BTC" {
			w.Write([]byte(`{"jsonrpc":"2.0","result":{}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"currency":"BTC","balance":1.5,"available_funds":1.25}}`))
	}))

	holdings, err := d.FetchBalance(context.Background())
	require.NoError(t, err)
	require.Contains(t, holdings.Balances, "BTC")
	b := holdings.Balances["BTC"]
	assert.Equal(t, "1.5", b.Total.String())
	assert.Equal(t, "1.25", b.Free.String())
	assert.Equal(t, "0.25", b.Used.String())
}
