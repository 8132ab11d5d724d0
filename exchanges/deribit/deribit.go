// Package deribit implements the venue adapter for Deribit's JSON-RPC REST
// dialect.
package deribit

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"go.uber.org/zap"

	"github.com/quantfabric/unifex/common"
	"github.com/quantfabric/unifex/common/crypto"
	"github.com/quantfabric/unifex/config"
	"github.com/quantfabric/unifex/encoding/json"
	exchange "github.com/quantfabric/unifex/exchanges"
	"github.com/quantfabric/unifex/exchanges/auth"
	"github.com/quantfabric/unifex/exchanges/market"
	"github.com/quantfabric/unifex/exchanges/request"
)

// Deribit is the overarching type across this package
type Deribit struct {
	exchange.Base
}

const (
	deribitAPIURL     = "https://www.deribit.com"
	deribitTestAPIURL = "https://test.deribit.com"
	deribitAPIVersion = "/api/v2"

	authHeaderScheme = "deri-hmac-sha256"

	// Public endpoints
	getCurrencies             = "public/get_currencies"
	getInstruments            = "public/get_instruments"
	getTicker                 = "public/ticker"
	getOrderbook              = "public/get_order_book"
	getLastTradesByInstrument = "public/get_last_trades_by_instrument"
	getTradingViewChartData   = "public/get_tradingview_chart_data"
	getFundingRateHistory     = "public/get_funding_rate_history"
	getFundingRateValue       = "public/get_funding_rate_value"

	// Authenticated endpoints
	getAccountSummary           = "private/get_account_summary"
	submitBuy                   = "private/buy"
	submitSell                  = "private/sell"
	submitEdit                  = "private/edit"
	submitCancel                = "private/cancel"
	submitCancelAll             = "private/cancel_all"
	submitCancelAllByInstrument = "private/cancel_all_by_instrument"
	getOrderState               = "private/get_order_state"
	getOpenOrdersByCurrency     = "private/get_open_orders_by_currency"
	getOpenOrdersByInstrument   = "private/get_open_orders_by_instrument"
	getOrderHistoryByInstrument = "private/get_order_history_by_instrument"
	getUserTradesByCurrency     = "private/get_user_trades_by_currency"
	getUserTradesByInstrument   = "private/get_user_trades_by_instrument"
	getPositions                = "private/get_positions"
	getPosition                 = "private/get_position"
	getDeposits                 = "private/get_deposits"
	getWithdrawals              = "private/get_withdrawals"
	getCurrentDepositAddress    = "private/get_current_deposit_address"
	submitTransferToSubaccount  = "private/submit_transfer_to_subaccount"
	submitTransferToUser        = "private/submit_transfer_to_user"
	submitWithdraw              = "private/withdraw"
)

// catalogCurrencies are the settlement currencies instruments are listed
// under; the catalog load walks them sequentially.
var catalogCurrencies = []string{"BTC", "ETH", "SOL", "USDC", "USDT"}

// Signer computes the venue's HMAC authentication header. The canonical
// string is ts\n nonce\n METHOD\n uri\n body\n and the signature is signed
// over the exact bytes transmitted.
type Signer struct{}

// Sign implements auth.Signer.
func (Signer) Sign(creds *auth.Credentials, r *auth.SignRequest) (map[string]string, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	uri := r.Path
	if r.Query != "" {
		uri += "?" + r.Query
	}
	strToSign := r.Timestamp + "\n" + r.Nonce + "\n" + r.Method + "\n" + uri + "\n" + string(r.Body) + "\n"
	sig := crypto.HexEncodeToString(crypto.GetHMAC(crypto.HashSHA256, []byte(strToSign), []byte(creds.Secret)))
	return map[string]string{
		"Authorization": authHeaderScheme + " id=" + creds.Key +
			",ts=" + r.Timestamp +
			",sig=" + sig +
			",nonce=" + r.Nonce,
	}, nil
}

func init() {
	exchange.Register("deribit", func(cfg *config.Exchange) (exchange.Client, error) {
		return New(cfg)
	})
}

// New constructs a configured Deribit client.
func New(cfg *config.Exchange) (*Deribit, error) {
	d := &Deribit{}
	d.Name = "Deribit"
	d.Endpoint = deribitAPIURL
	d.Catalog = market.NewCatalog()
	d.Signer = Signer{}
	d.Log = zap.NewNop()

	timeout := request.DefaultTimeout
	if cfg != nil {
		d.Enabled = cfg.Enabled
		d.Verbose = cfg.Verbose
		if cfg.UseTestnet {
			d.Endpoint = deribitTestAPIURL
		}
		if cfg.RESTEndpoint != "" {
			d.Endpoint = cfg.RESTEndpoint
		}
		if cfg.HTTPTimeout > 0 {
			timeout = cfg.HTTPTimeout
		}
		d.Credentials = auth.Credentials{Key: cfg.Credentials.Key, Secret: cfg.Credentials.Secret}
	}
	if d.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			d.Log = logger
		}
	}
	d.Requester = request.New(d.Name,
		&http.Client{Timeout: timeout},
		request.WithLimiter(request.NewSplitRateLimit(time.Second, 10, time.Second, 20)),
		request.WithInspector(inspectResponse),
		request.WithLogger(d.Log))
	return d, nil
}

// inspectResponse raises a classified error when the JSON-RPC envelope
// carries an error object; a present error is never swallowed.
func inspectResponse(status int, body []byte) error {
	if errObj, dataType, _, err := jsonparser.Get(body, "error"); err == nil && dataType == jsonparser.Object {
		code, _ := jsonparser.GetInt(errObj, "code")
		message, _ := jsonparser.GetString(errObj, "message")
		return errorClassifier.Classify(status, strconv.FormatInt(code, 10), message, body)
	}
	if status >= http.StatusBadRequest {
		return errorClassifier.Classify(status, "", string(body), body)
	}
	return nil
}

// SendHTTPRequest sends an unauthenticated request and decodes the result
// field of the JSON-RPC envelope.
func (d *Deribit) SendHTTPRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
	}
	item := &request.Item{
		Method: http.MethodGet,
		Path:   d.Endpoint + deribitAPIVersion + "/" + common.EncodeURLValues(path, params),
		Result: &envelope,
	}
	err := d.Requester.SendPayload(ctx, request.UnAuth, func() (*request.Item, error) {
		return item, nil
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, result)
}

// SendHTTPAuthRequest signs and sends an authenticated request. Credentials
// are validated before the rate limiter is touched so missing keys fail
// without network I/O.
func (d *Deribit) SendHTTPAuthRequest(ctx context.Context, method, path string, params url.Values, result interface{}) error {
	creds, err := d.GetCredentials()
	if err != nil {
		return err
	}
	var envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
	}
	err = d.Requester.SendPayload(ctx, request.Auth, func() (*request.Item, error) {
		uri := deribitAPIVersion + "/" + common.EncodeURLValues(path, params)
		headers, err := d.Signer.Sign(creds, &auth.SignRequest{
			Method:    method,
			Path:      uri,
			Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
			Nonce:     d.Requester.GetNonce().String(),
		})
		if err != nil {
			return nil, err
		}
		headers["Content-Type"] = "application/json"
		return &request.Item{
			Method:      method,
			Path:        d.Endpoint + uri,
			Headers:     headers,
			Result:      &envelope,
			AuthRequest: true,
		}, nil
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, result)
}

// GetCurrencies retrieves all cryptocurrencies supported by the API.
func (d *Deribit) GetCurrencies(ctx context.Context) ([]CurrencyData, error) {
	var resp []CurrencyData
	return resp, d.SendHTTPRequest(ctx, getCurrencies, nil, &resp)
}

// GetInstruments retrieves the available instruments for a currency,
// optionally filtered by kind and including expired instruments.
func (d *Deribit) GetInstruments(ctx context.Context, ccy, kind string, expired bool) ([]InstrumentData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	if kind != "" {
		params.Set("kind", kind)
	}
	if expired {
		params.Set("expired", "true")
	}
	var resp []InstrumentData
	return resp, d.SendHTTPRequest(ctx, getInstruments, params, &resp)
}

// GetTicker retrieves the ticker for an instrument.
func (d *Deribit) GetTicker(ctx context.Context, instrument string) (*TickerData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	var resp TickerData
	return &resp, d.SendHTTPRequest(ctx, getTicker, params, &resp)
}

// GetOrderbookData retrieves the order book for an instrument.
func (d *Deribit) GetOrderbookData(ctx context.Context, instrument string, depth int64) (*Orderbook, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	if depth > 0 {
		params.Set("depth", strconv.FormatInt(depth, 10))
	}
	var resp Orderbook
	return &resp, d.SendHTTPRequest(ctx, getOrderbook, params, &resp)
}

// GetLastTradesByInstrument retrieves the most recent public trades for an
// instrument.
func (d *Deribit) GetLastTradesByInstrument(ctx context.Context, instrument string, count int64) (*PublicTradesData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	if count > 0 {
		params.Set("count", strconv.FormatInt(count, 10))
	}
	var resp PublicTradesData
	return &resp, d.SendHTTPRequest(ctx, getLastTradesByInstrument, params, &resp)
}

// GetTradingViewChartData retrieves candle data for an instrument.
func (d *Deribit) GetTradingViewChartData(ctx context.Context, instrument, resolution string, start, end time.Time) (*TradingViewChartData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	if start.IsZero() || end.IsZero() {
		return nil, common.ErrDateUnset
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	params.Set("resolution", resolution)
	params.Set("start_timestamp", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end_timestamp", strconv.FormatInt(end.UnixMilli(), 10))
	var resp TradingViewChartData
	return &resp, d.SendHTTPRequest(ctx, getTradingViewChartData, params, &resp)
}

// GetFundingRateValue retrieves the current funding rate for an instrument
// over the trailing eight hours.
func (d *Deribit) GetFundingRateValue(ctx context.Context, instrument string, start, end time.Time) (float64, error) {
	if instrument == "" {
		return 0, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	params.Set("start_timestamp", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end_timestamp", strconv.FormatInt(end.UnixMilli(), 10))
	var resp float64
	return resp, d.SendHTTPRequest(ctx, getFundingRateValue, params, &resp)
}

// GetFundingRateHistory retrieves hourly historical interest rate entries
// for an instrument.
func (d *Deribit) GetFundingRateHistory(ctx context.Context, instrument string, start, end time.Time) ([]FundingRateHistoryData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	params.Set("start_timestamp", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end_timestamp", strconv.FormatInt(end.UnixMilli(), 10))
	var resp []FundingRateHistoryData
	return resp, d.SendHTTPRequest(ctx, getFundingRateHistory, params, &resp)
}

// GetAccountSummary retrieves the account summary for a currency.
func (d *Deribit) GetAccountSummary(ctx context.Context, ccy string, extended bool) (*AccountSummaryData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	if extended {
		params.Set("extended", "true")
	}
	var resp AccountSummaryData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getAccountSummary, params, &resp)
}

// SubmitBuy submits a buy order.
func (d *Deribit) SubmitBuy(ctx context.Context, params url.Values) (*PrivateTradeData, error) {
	var resp PrivateTradeData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitBuy, params, &resp)
}

// SubmitSell submits a sell order.
func (d *Deribit) SubmitSell(ctx context.Context, params url.Values) (*PrivateTradeData, error) {
	var resp PrivateTradeData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitSell, params, &resp)
}

// SubmitEdit modifies price, amount or trigger of an open order.
func (d *Deribit) SubmitEdit(ctx context.Context, params url.Values) (*PrivateTradeData, error) {
	var resp PrivateTradeData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitEdit, params, &resp)
}

// SubmitCancel cancels an order by id.
func (d *Deribit) SubmitCancel(ctx context.Context, orderID string) (*PrivateCancelData, error) {
	params := url.Values{}
	params.Set("order_id", orderID)
	var resp PrivateCancelData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitCancel, params, &resp)
}

// SubmitCancelAll cancels all open orders across instruments, returning the
// number cancelled.
func (d *Deribit) SubmitCancelAll(ctx context.Context) (int64, error) {
	var resp int64
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitCancelAll, nil, &resp)
}

// SubmitCancelAllByInstrument cancels all open orders on one instrument.
func (d *Deribit) SubmitCancelAllByInstrument(ctx context.Context, instrument string) (int64, error) {
	if instrument == "" {
		return 0, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	var resp int64
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitCancelAllByInstrument, params, &resp)
}

// GetOrderState retrieves one order by id.
func (d *Deribit) GetOrderState(ctx context.Context, orderID string) (*OrderData, error) {
	params := url.Values{}
	params.Set("order_id", orderID)
	var resp OrderData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getOrderState, params, &resp)
}

// GetOpenOrdersByCurrency retrieves open orders across all instruments of a
// currency.
func (d *Deribit) GetOpenOrdersByCurrency(ctx context.Context, ccy string) ([]OrderData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	var resp []OrderData
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getOpenOrdersByCurrency, params, &resp)
}

// GetOpenOrdersByInstrument retrieves open orders on one instrument.
func (d *Deribit) GetOpenOrdersByInstrument(ctx context.Context, instrument string) ([]OrderData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	var resp []OrderData
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getOpenOrdersByInstrument, params, &resp)
}

// GetOrderHistoryByInstrument retrieves closed and cancelled orders on one
// instrument.
func (d *Deribit) GetOrderHistoryByInstrument(ctx context.Context, instrument string, count int64) ([]OrderData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	params.Set("include_old", "true")
	if count > 0 {
		params.Set("count", strconv.FormatInt(count, 10))
	}
	var resp []OrderData
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getOrderHistoryByInstrument, params, &resp)
}

// GetUserTradesByInstrument retrieves private fills on one instrument.
func (d *Deribit) GetUserTradesByInstrument(ctx context.Context, instrument string, count int64) (*UserTradesData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	params.Set("include_old", "true")
	if count > 0 {
		params.Set("count", strconv.FormatInt(count, 10))
	}
	var resp UserTradesData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getUserTradesByInstrument, params, &resp)
}

// GetPositions retrieves open positions for a currency.
func (d *Deribit) GetPositions(ctx context.Context, ccy, kind string) ([]PositionData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	if kind != "" {
		params.Set("kind", kind)
	}
	var resp []PositionData
	return resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getPositions, params, &resp)
}

// GetPosition retrieves the open position on one instrument.
func (d *Deribit) GetPosition(ctx context.Context, instrument string) (*PositionData, error) {
	if instrument == "" {
		return nil, errInvalidInstrumentName
	}
	params := url.Values{}
	params.Set("instrument_name", instrument)
	var resp PositionData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getPosition, params, &resp)
}

// GetDeposits retrieves deposit history for a currency.
func (d *Deribit) GetDeposits(ctx context.Context, ccy string, count int64) (*DepositsData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	if count > 0 {
		params.Set("count", strconv.FormatInt(count, 10))
	}
	var resp DepositsData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getDeposits, params, &resp)
}

// GetWithdrawals retrieves withdrawal history for a currency.
func (d *Deribit) GetWithdrawals(ctx context.Context, ccy string, count int64) (*WithdrawalsData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	if count > 0 {
		params.Set("count", strconv.FormatInt(count, 10))
	}
	var resp WithdrawalsData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getWithdrawals, params, &resp)
}

// GetCurrentDepositAddress retrieves the active deposit address for a
// currency.
func (d *Deribit) GetCurrentDepositAddress(ctx context.Context, ccy string) (*DepositAddressData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	var resp DepositAddressData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, getCurrentDepositAddress, params, &resp)
}

// SubmitTransferToSubaccount moves funds to a subaccount.
func (d *Deribit) SubmitTransferToSubaccount(ctx context.Context, ccy string, amount float64, destination string) (*TransferData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("destination", destination)
	var resp TransferData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitTransferToSubaccount, params, &resp)
}

// SubmitTransferToUser moves funds to another user account.
func (d *Deribit) SubmitTransferToUser(ctx context.Context, ccy string, amount float64, destination string) (*TransferData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("destination", destination)
	var resp TransferData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitTransferToUser, params, &resp)
}

// SubmitWithdraw requests an on-chain withdrawal.
func (d *Deribit) SubmitWithdraw(ctx context.Context, ccy, address string, amount float64) (*WithdrawData, error) {
	params := url.Values{}
	params.Set("currency", ccy)
	params.Set("address", address)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	var resp WithdrawData
	return &resp, d.SendHTTPAuthRequest(ctx, http.MethodGet, submitWithdraw, params, &resp)
}
