package woo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/config"
	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/auth"
	"github.com/quantfabric/unifex/exchanges/order"
)

const (
	testKey    = "test-key"
	testSecret = "test-secret"
)

func newTestClient(t *testing.T, handler http.Handler) *WOO {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	w, err := New(&config.Exchange{
		Name:         "woo",
		Enabled:      true,
		RESTEndpoint: srv.URL,
		Credentials:  config.Credentials{Key: testKey, Secret: testSecret},
	})
	require.NoError(t, err)
	return w
}

func TestSignDeterministic(t *testing.T) {
	t.Parallel()
	creds := &auth.Credentials{Key: testKey, Secret: testSecret}

	// v1 signs the sorted urlencoded parameters joined to the timestamp
	// with a pipe.
	v1 := &auth.SignRequest{
		Method:    http.MethodGet,
		Path:      "/v1/orders",
		Query:     "order_price=7500&order_quantity=0.1&order_type=LIMIT&side=BUY&symbol=SPOT_BTC_USDT",
		Timestamp: "1583778859480",
	}
	first, err := Signer{}.Sign(creds, v1)
	require.NoError(t, err)
	second, err := Signer{}.Sign(creds, v1)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must produce identical headers")
	assert.Equal(t, testKey, first["x-api-key"])
	assert.Equal(t, "1583778859480", first["x-api-timestamp"])
	assert.Equal(t, "241bb4b68bf6def75b306912d04b1510ee8b4c14cf7f81d287a95299e09421de", first["x-api-signature"])

	// A form body takes the place of the query in the canonical string.
	body, err := Signer{}.Sign(creds, &auth.SignRequest{
		Method:    http.MethodPost,
		Path:      "/v1/order",
		Body:      []byte("order_price=7500&order_quantity=0.1&order_type=LIMIT&side=BUY&symbol=SPOT_BTC_USDT"),
		Timestamp: "1583778859480",
	})
	require.NoError(t, err)
	assert.Equal(t, first["x-api-signature"], body["x-api-signature"])

	// A bare v1 request still carries the pipe separator.
	empty, err := Signer{}.Sign(creds, &auth.SignRequest{
		Method:    http.MethodGet,
		Path:      "/v1/client/holding",
		Timestamp: "1583778859480",
	})
	require.NoError(t, err)
	assert.Equal(t, "e506673bdaf3b777fa2041569fa8546c7f01fbecb59cfcbc8b9390ea99d9b5eb", empty["x-api-signature"])
}

func TestSignV3Scheme(t *testing.T) {
	t.Parallel()
	creds := &auth.Credentials{Key: testKey, Secret: testSecret}

	get, err := Signer{}.Sign(creds, &auth.SignRequest{
		Method:    http.MethodGet,
		Path:      "/v3/positions",
		Timestamp: "1583778859480",
	})
	require.NoError(t, err)
	assert.Equal(t, "cbd60d6d783c2fdb824d85937d0fdd96d10a615ca185b4ce7e66f7813994a067", get["x-api-signature"])

	post, err := Signer{}.Sign(creds, &auth.SignRequest{
		Method:    http.MethodPost,
		Path:      "/v3/algo/order",
		Body:      []byte(`{"symbol":"PERP_BTC_USDT","algoType":"STOP","type":"LIMIT","side":"BUY","quantity":"0.1","price":"7500","triggerPrice":"7400"}`),
		Timestamp: "1583778859480",
	})
	require.NoError(t, err)
	assert.Equal(t, "b623c5df6bc1ea2af3cb7dd3c8d676927f198e47cf522c8b5f0421086fbe9974", post["x-api-signature"])
}

func TestSignRequiresCredentials(t *testing.T) {
	t.Parallel()
	_, err := Signer{}.Sign(&auth.Credentials{Key: testKey}, &auth.SignRequest{
		Method:    http.MethodGet,
		Path:      "/v1/client/holding",
		Timestamp: "1583778859480",
	})
	assert.ErrorIs(t, err, auth.ErrCredentialsUnset)
}

func TestAuthRequestHeaders(t *testing.T) {
	t.Parallel()
	sigRE := regexp.MustCompile(`^[0-9a-f]{64}$`)
	var seen http.Header
	w := newTestClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		rw.Write([]byte(`{"success":true,"holding":[]}`))
	}))
	_, err := w.GetHolding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testKey, seen.Get("x-api-key"))
	assert.Regexp(t, sigRE, seen.Get("x-api-signature"))
	assert.NotEmpty(t, seen.Get("x-api-timestamp"))
}

// The signature over a v1 form submission must verify against the exact
// bytes the server receives.
func TestBodyBytesSigningInvariant(t *testing.T) {
	t.Parallel()
	w := newTestClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		mac := hmac.New(sha256.New, []byte(testSecret))
		mac.Write(body)
		mac.Write([]byte("|" + r.Header.Get("x-api-timestamp")))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("x-api-signature"))

		rw.Write([]byte(`{"success":true,"order_id":42,"order_type":"LIMIT","timestamp":1583778859480}`))
	}))
	params := url.Values{}
	params.Set("symbol", "SPOT_BTC_USDT")
	params.Set("side", "BUY")
	params.Set("order_type", "LIMIT")
	params.Set("order_price", "7500")
	params.Set("order_quantity", "0.1")
	_, err := w.SubmitOrder(context.Background(), params)
	require.NoError(t, err)
}

// The v3 signature covers ts + METHOD + path + the exact JSON bytes sent.
func TestV3SigningInvariant(t *testing.T) {
	t.Parallel()
	w := newTestClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		mac := hmac.New(sha256.New, []byte(testSecret))
		mac.Write([]byte(r.Header.Get("x-api-timestamp") + r.Method + r.URL.RequestURI()))
		mac.Write(body)
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("x-api-signature"))

		rw.Write([]byte(`{"success":true,"data":{"rows":[{"orderId":9,"clientOrderId":""}]}}`))
	}))
	_, err := w.SubmitAlgoOrder(context.Background(), &AlgoOrderRequest{
		Symbol:       "PERP_BTC_USDT",
		AlgoType:     "STOP",
		Type:         "MARKET",
		Side:         "SELL",
		TriggerPrice: mustNumber(t, "7400"),
		Quantity:     mustNumber(t, "0.1"),
	})
	require.NoError(t, err)
}

func TestAuthRequestFailsFastWithoutCredentials(t *testing.T) {
	t.Parallel()
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hit = true
	}))
	t.Cleanup(srv.Close)
	w, err := New(&config.Exchange{Name: "woo", RESTEndpoint: srv.URL})
	require.NoError(t, err)
	_, err = w.GetHolding(context.Background())
	assert.ErrorIs(t, err, auth.ErrCredentialsUnset)
	assert.False(t, hit, "request must not reach the network without credentials")
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, errorClassifier.Classify(400, "-1101", "balance not enough", nil), errs.ErrInsufficientFunds)
	assert.ErrorIs(t, errorClassifier.Classify(401, "-1001", "invalid api key", nil), errs.ErrAuthentication)
	assert.ErrorIs(t, errorClassifier.Classify(429, "-1003", "requests too frequent", nil), errs.ErrRateLimit)
	assert.ErrorIs(t, errorClassifier.Classify(400, "-1009", "unknown symbol", nil), errs.ErrBadSymbol)

	// v3 string codes address the same table.
	assert.ErrorIs(t, errorClassifier.Classify(401, "INVALID_SIGNATURE", "signature mismatch", nil), errs.ErrAuthentication)
	assert.ErrorIs(t, errorClassifier.Classify(404, "ORDER_NOT_FOUND", "order does not exist", nil), errs.ErrOrderNotFound)
	assert.ErrorIs(t, errorClassifier.Classify(400, "INSUFFICIENT_BALANCE", "not enough margin", nil), errs.ErrInsufficientFunds)

	// Broad match on message when the code is unknown.
	assert.ErrorIs(t, errorClassifier.Classify(400, "", "account has insufficient margin", nil), errs.ErrInsufficientFunds)

	// Unknown codes fall through to the venue sentinel with context intact.
	err := errorClassifier.Classify(418, "-9999", "novel failure", []byte(`{"code":-9999}`))
	assert.ErrorIs(t, err, errs.ErrExchange)
	var venueErr *errs.Error
	require.ErrorAs(t, err, &venueErr)
	assert.Equal(t, "-9999", venueErr.VenueCode)
	assert.Equal(t, 418, venueErr.HTTP)
}

func TestInspectResponse(t *testing.T) {
	t.Parallel()

	require.NoError(t, inspectResponse(200, []byte(`{"success":true,"rows":[]}`)))

	err := inspectResponse(400, []byte(`{"success":false,"code":-1101,"message":"balance not enough"}`))
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)

	err = inspectResponse(401, []byte(`{"success":false,"code":"INVALID_SIGNATURE","message":"signature mismatch"}`))
	assert.ErrorIs(t, err, errs.ErrAuthentication)

	// Non-2xx without a parsable envelope still classifies on status.
	err = inspectResponse(502, []byte(`upstream unavailable`))
	assert.ErrorIs(t, err, errs.ErrExchange)
}

func TestAPIErrorSurfacesClassified(t *testing.T) {
	t.Parallel()
	w := newTestClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte(`{"success":false,"code":-1101,"message":"balance not enough"}`))
	}))
	_, err := w.SubmitOrder(context.Background(), nil)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

func TestOrderVocabularyMapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, order.Open, order.MapStatus("NEW", orderStatuses))
	assert.Equal(t, order.Open, order.MapStatus("PARTIAL_FILLED", orderStatuses))
	assert.Equal(t, order.Closed, order.MapStatus("FILLED", orderStatuses))
	assert.Equal(t, order.Canceled, order.MapStatus("CANCELLED", orderStatuses))
	assert.Equal(t, order.Rejected, order.MapStatus("REJECTED", orderStatuses))

	assert.Equal(t, order.Limit, order.MapType("POST_ONLY", orderTypes))
	assert.Equal(t, order.StopMarket, order.MapType("STOP_MARKET", orderTypes))
	assert.Equal(t, order.Buy, order.MapSide("BUY", orderSides))

	// Canonical values survive a second pass unchanged.
	mapped := order.MapStatus("FILLED", orderStatuses)
	assert.Equal(t, mapped, order.MapStatus(mapped.String(), orderStatuses))

	// Unmapped venue values pass through for drift detection.
	passthrough := order.MapStatus("HALTED", orderStatuses)
	assert.False(t, passthrough.Known())
	assert.Equal(t, "HALTED", passthrough.String())
}

func TestNewRegisteredFactory(t *testing.T) {
	t.Parallel()
	w, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "WOO", w.GetName())
	assert.Equal(t, wooAPIURL, w.Endpoint)
}
