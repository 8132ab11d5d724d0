package deribit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/config"
	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/asset"
	"github.com/quantfabric/unifex/exchanges/auth"
	"github.com/quantfabric/unifex/exchanges/order"
)

const (
	testKey    = "test-key"
	testSecret = "test-secret"
)

func newTestClient(t *testing.T, handler http.Handler) *Deribit {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d, err := New(&config.Exchange{
		Name:         "deribit",
		Enabled:      true,
		RESTEndpoint: srv.URL,
		Credentials:  config.Credentials{Key: testKey, Secret: testSecret},
	})
	require.NoError(t, err)
	return d
}

func TestSignDeterministic(t *testing.T) {
	t.Parallel()
	creds := &auth.Credentials{Key: testKey, Secret: testSecret}
	r := &auth.SignRequest{
		Method:    http.MethodGet,
		Path:      "/api/v2/private/get_account_summary",
		Query:     "currency=BTC",
		Timestamp: "1583778859480",
		Nonce:     "1",
	}
	first, err := Signer{}.Sign(creds, r)
	require.NoError(t, err)
	second, err := Signer{}.Sign(creds, r)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must produce identical headers")

	exp := "deri-hmac-sha256 id=test-key" +
		",ts=1583778859480" +
		",sig=9d29a5316df2d506533c802913bc09c1262f77a1afea8cfa631f1d06f998e188" +
		",nonce=1"
	assert.Equal(t, exp, first["Authorization"])
}

func TestSignRequiresCredentials(t *testing.T) {
	t.Parallel()
	_, err := Signer{}.Sign(&auth.Credentials{}, &auth.SignRequest{Method: http.MethodGet, Path: "/api/v2/public/ticker"})
	assert.ErrorIs(t, err, auth.ErrCredentialsUnset)
}

func TestCreateMarketFromID(t *testing.T) {
	t.Parallel()

	m, err := createMarketFromID("BTC-PERPETUAL")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", m.Symbol)
	assert.Equal(t, asset.Swap, m.Type)
	assert.True(t, m.Inverse)
	assert.False(t, m.Linear)

	m, err = createMarketFromID("BTC_USDC-PERPETUAL")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDC:USDC", m.Symbol)
	assert.True(t, m.Linear)

	m, err = createMarketFromID("BTC_USDC")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDC", m.Symbol)
	assert.Equal(t, asset.Spot, m.Type)
	assert.False(t, m.Contract)

	m, err = createMarketFromID("ETH-27DEC24")
	require.NoError(t, err)
	assert.Equal(t, "ETH/USD:ETH-27DEC24", m.Symbol)
	assert.Equal(t, asset.Futures, m.Type)
	assert.Equal(t, int64(1735286400000), m.Expiry)

	m, err = createMarketFromID("BTC-27DEC24-240000-C")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC-27DEC24-240000-C", m.Symbol)
	assert.Equal(t, asset.Options, m.Type)
	assert.Equal(t, 240000.0, m.Strike)
	assert.Equal(t, "call", m.OptionType)

	m, err = createMarketFromID("BTC-27DEC24-50000-P")
	require.NoError(t, err)
	assert.Equal(t, "put", m.OptionType)

	for _, id := range []string{"", "BTC-BANANA", "BTC-27DEC24-240000-X", "BTC-27DEC24-oops-C"} {
		_, err = createMarketFromID(id)
		assert.ErrorIs(t, err, errInvalidInstrumentName, id)
	}
}

func TestResolveInstrumentSynthesizesDelisted(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	d.Name = "Deribit"
	d.Catalog = newLoadedCatalog(t)

	// Known instrument resolves from the catalog.
	m, err := d.resolveInstrument("BTC-PERPETUAL")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC", m.Symbol)

	// An expired option absent from the catalog must still resolve.
	m, err = d.resolveInstrument("BTC-27DEC24-240000-C")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD:BTC-27DEC24-240000-C", m.Symbol)

	// And the synthesized record is memoized for subsequent lookups.
	cached, err := d.Catalog.ByID("BTC-27DEC24-240000-C")
	require.NoError(t, err)
	assert.Equal(t, m.Symbol, cached.Symbol)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	err := errorClassifier.Classify(200, "10009", "not_enough_funds", nil)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assert.Equal(t, "10009", err.VenueCode)

	assert.ErrorIs(t, errorClassifier.Classify(200, "10028", "too_many_requests", nil), errs.ErrRateLimit)
	assert.ErrorIs(t, errorClassifier.Classify(200, "13004", "invalid_credentials", nil), errs.ErrAuthentication)
	assert.ErrorIs(t, errorClassifier.Classify(200, "-32601", "method not found", nil), errs.ErrNotSupported)

	// Unknown code falls through to a broad message match.
	assert.ErrorIs(t, errorClassifier.Classify(200, "99990", "account unauthorized", nil), errs.ErrAuthentication)

	// Unknown code and message fall back to the generic venue error,
	// preserving the code for diagnosis.
	fallback := errorClassifier.Classify(503, "99999", "weird new failure", []byte(`{"error":{}}`))
	assert.ErrorIs(t, fallback, errs.ErrExchange)
	assert.NotErrorIs(t, fallback, errs.ErrInsufficientFunds)
	assert.Equal(t, "99999", fallback.VenueCode)
	assert.Equal(t, 503, fallback.HTTP)
}

func TestOrderVocabularyMapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, order.Open, order.MapStatus("untriggered", orderStatuses))
	assert.Equal(t, order.Closed, order.MapStatus("filled", orderStatuses))
	assert.Equal(t, order.Canceled, order.MapStatus("cancelled", orderStatuses))

	// Mapping is idempotent: a canonical value passes through unchanged.
	assert.Equal(t, order.Open, order.MapStatus(string(order.Open), orderStatuses))

	// Vocabulary drift passes through and is detectable via Known.
	drifted := order.MapStatus("archived", orderStatuses)
	assert.Equal(t, order.Status("archived"), drifted)
	assert.False(t, drifted.Known())

	assert.Equal(t, order.Sell, order.MapSide("sell", orderSides))
	assert.Equal(t, order.StopLimit, order.MapType("stop_limit", orderTypes))
}

func TestInspectResponse(t *testing.T) {
	t.Parallel()

	body := []byte(`{"jsonrpc":"2.0","error":{"code":10009,"message":"not_enough_funds"}}`)
	err := inspectResponse(200, body)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)

	var classified *errs.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, body, classified.Raw)

	assert.NoError(t, inspectResponse(200, []byte(`{"jsonrpc":"2.0","result":[]}`)))

	// A failing HTTP status without an error envelope still classifies.
	assert.ErrorIs(t, inspectResponse(502, []byte("bad gateway")), errs.ErrExchange)
}

func TestGetTicker(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/public/ticker", r.URL.Path)
		assert.Equal(t, "BTC-PERPETUAL", r.URL.Query().Get("instrument_name"))
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"instrument_name":"BTC-PERPETUAL",` +
			`"last_price":7750.5,"best_bid_price":7750.0,"best_ask_price":7750.5,` +
			`"mark_price":7750.2,"timestamp":1583778859480,"stats":{"volume":12.5,"high":7900.0,"low":7600.5}}}`))
	}))

	raw, err := d.GetTicker(context.Background(), "BTC-PERPETUAL")
	require.NoError(t, err)
	assert.Equal(t, "7750.5", raw.LastPrice.String())
	assert.Equal(t, int64(1583778859480), raw.Timestamp.UnixMilli())

	_, err = d.GetTicker(context.Background(), "")
	assert.ErrorIs(t, err, errInvalidInstrumentName)
}

func TestAuthRequestHeaders(t *testing.T) {
	t.Parallel()
	var authHeader string
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"currency":"BTC","balance":1.5,"available_funds":1.25}}`))
	}))

	summary, err := d.GetAccountSummary(context.Background(), "BTC", false)
	require.NoError(t, err)
	assert.Equal(t, "1.5", summary.Balance.String())

	assert.Regexp(t, `^deri-hmac-sha256 id=test-key,ts=\d+,sig=[0-9a-f]{64},nonce=\d+$`, authHeader)
}

func TestAuthRequestFailsFastWithoutCredentials(t *testing.T) {
	t.Parallel()
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	t.Cleanup(srv.Close)

	d, err := New(&config.Exchange{Name: "deribit", RESTEndpoint: srv.URL})
	require.NoError(t, err)

	_, err = d.GetAccountSummary(context.Background(), "BTC", false)
	assert.ErrorIs(t, err, auth.ErrCredentialsUnset)
	assert.False(t, hit, "credential validation must precede network I/O")
}

func TestAPIErrorSurfacesClassified(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":10009,"message":"not_enough_funds"}}`))
	}))

	_, err := d.GetAccountSummary(context.Background(), "BTC", false)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

func TestGetTradingViewChartDataValidation(t *testing.T) {
	t.Parallel()
	d := &Deribit{}
	_, err := d.GetTradingViewChartData(context.Background(), "BTC-PERPETUAL", "60", time.Time{}, time.Now())
	assert.Error(t, err)
	_, err = d.GetTradingViewChartData(context.Background(), "", "60", time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, errInvalidInstrumentName)
}

func TestNumberEnvelopeResults(t *testing.T) {
	t.Parallel()
	d := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":17}`))
	}))
	n, err := d.SubmitCancelAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)
}

func TestNewRegisteredFactory(t *testing.T) {
	t.Parallel()
	d, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "Deribit", d.GetName())
	assert.Equal(t, deribitAPIURL, d.Endpoint)

	d, err = New(&config.Exchange{UseTestnet: true})
	require.NoError(t, err)
	assert.Equal(t, deribitTestAPIURL, d.Endpoint)
}
