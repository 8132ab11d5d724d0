// Package hitbtc implements the venue adapter for HitBTC's v3 REST API.
package hitbtc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
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
	"github.com/quantfabric/unifex/types"
)

// HitBTC is the overarching type across this package
type HitBTC struct {
	exchange.Base
}

const (
	hitbtcAPIURL     = "https://api.hitbtc.com"
	hitbtcAPIVersion = "/api/3"

	// Public endpoints
	publicSymbols        = "public/symbol"
	publicCurrencies     = "public/currency"
	publicTicker         = "public/ticker"
	publicOrderbook      = "public/orderbook"
	publicTrades         = "public/trades"
	publicCandles        = "public/candles"
	publicFuturesInfo    = "public/futures/info"
	publicFundingHistory = "public/futures/history/funding"

	// Authenticated endpoints
	spotBalance        = "spot/balance"
	futuresBalance     = "futures/balance"
	futuresAccount     = "futures/account"
	futuresIsolated    = "futures/account/isolated"
	walletTransactions = "wallet/transactions"
	walletAddress      = "wallet/crypto/address"
	walletWithdraw     = "wallet/crypto/withdraw"
	walletTransfer     = "wallet/transfer"

	orderEndpoint        = "order"
	orderHistoryEndpoint = "history/order"
	tradeHistoryEndpoint = "history/trade"
)

// Trading categories routing order endpoints
const (
	categorySpot    = "spot"
	categoryMargin  = "margin"
	categoryFutures = "futures"
)

// Signer computes the venue's HMAC authentication header. The canonical
// string is METHOD + path[?query] + body + ts, signed over the exact bytes
// transmitted, and the header carries base64(key:sig:ts).
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
	strToSign := r.Method + uri + string(r.Body) + r.Timestamp
	sig := crypto.HexEncodeToString(crypto.GetHMAC(crypto.HashSHA256, []byte(strToSign), []byte(creds.Secret)))
	return map[string]string{
		"Authorization": "HS256 " + crypto.Base64Encode([]byte(creds.Key+":"+sig+":"+r.Timestamp)),
	}, nil
}

func init() {
	exchange.Register("hitbtc", func(cfg *config.Exchange) (exchange.Client, error) {
		return New(cfg)
	})
}

// New constructs a configured HitBTC client.
func New(cfg *config.Exchange) (*HitBTC, error) {
	h := &HitBTC{}
	h.Name = "HitBTC"
	h.Endpoint = hitbtcAPIURL
	h.Catalog = market.NewCatalog()
	h.Signer = Signer{}
	h.Log = zap.NewNop()

	timeout := request.DefaultTimeout
	if cfg != nil {
		h.Enabled = cfg.Enabled
		h.Verbose = cfg.Verbose
		if cfg.RESTEndpoint != "" {
			h.Endpoint = cfg.RESTEndpoint
		}
		if cfg.HTTPTimeout > 0 {
			timeout = cfg.HTTPTimeout
		}
		h.Credentials = auth.Credentials{Key: cfg.Credentials.Key, Secret: cfg.Credentials.Secret}
	}
	if h.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			h.Log = logger
		}
	}
	h.Requester = request.New(h.Name,
		&http.Client{Timeout: timeout},
		request.WithLimiter(request.NewSplitRateLimit(time.Second, 15, time.Second, 30)),
		request.WithInspector(inspectResponse),
		request.WithLogger(h.Log))
	return h, nil
}

// inspectResponse raises a classified error when the body carries the
// venue's error envelope; a present error is never swallowed.
func inspectResponse(status int, body []byte) error {
	if errObj, dataType, _, err := jsonparser.Get(body, "error"); err == nil && dataType == jsonparser.Object {
		code, _ := jsonparser.GetInt(errObj, "code")
		message, _ := jsonparser.GetString(errObj, "message")
		if description, err := jsonparser.GetString(errObj, "description"); err == nil && description != "" {
			message += ": " + description
		}
		return errorClassifier.Classify(status, strconv.FormatInt(code, 10), message, body)
	}
	if status >= http.StatusBadRequest {
		return errorClassifier.Classify(status, strconv.Itoa(status), string(body), body)
	}
	return nil
}

// SendHTTPRequest sends an unauthenticated GET request.
func (h *HitBTC) SendHTTPRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	item := &request.Item{
		Method: http.MethodGet,
		Path:   h.Endpoint + hitbtcAPIVersion + "/" + common.EncodeURLValues(path, params),
		Result: result,
	}
	return h.Requester.SendPayload(ctx, request.UnAuth, func() (*request.Item, error) {
		return item, nil
	})
}

// SendAuthHTTPRequest signs and sends an authenticated request. The body is
// marshalled once and the exact transmitted bytes enter the signature, so
// sign-then-transmit can never drift.
func (h *HitBTC) SendAuthHTTPRequest(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	creds, err := h.GetCredentials()
	if err != nil {
		return err
	}
	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	return h.Requester.SendPayload(ctx, request.Auth, func() (*request.Item, error) {
		uri := hitbtcAPIVersion + "/" + path
		headers, err := h.Signer.Sign(creds, &auth.SignRequest{
			Method:    method,
			Path:      uri,
			Query:     params.Encode(),
			Body:      payload,
			Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
		})
		if err != nil {
			return nil, err
		}
		if payload != nil {
			headers["Content-Type"] = "application/json"
		}
		return &request.Item{
			Method:      method,
			Path:        h.Endpoint + common.EncodeURLValues(uri, params),
			Headers:     headers,
			Body:        payload,
			Result:      result,
			AuthRequest: true,
		}, nil
	})
}

// GetSymbols retrieves all instruments keyed by venue symbol id.
func (h *HitBTC) GetSymbols(ctx context.Context) (map[string]Symbol, error) {
	resp := make(map[string]Symbol)
	return resp, h.SendHTTPRequest(ctx, publicSymbols, nil, &resp)
}

// GetCurrencies retrieves all currencies keyed by code.
func (h *HitBTC) GetCurrencies(ctx context.Context) (map[string]Currency, error) {
	resp := make(map[string]Currency)
	return resp, h.SendHTTPRequest(ctx, publicCurrencies, nil, &resp)
}

// GetTicker retrieves the ticker for one symbol.
func (h *HitBTC) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	var resp Ticker
	return &resp, h.SendHTTPRequest(ctx, publicTicker+"/"+symbol, nil, &resp)
}

// GetTickers retrieves tickers keyed by symbol, optionally filtered.
func (h *HitBTC) GetTickers(ctx context.Context, symbols []string) (map[string]Ticker, error) {
	params := url.Values{}
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}
	resp := make(map[string]Ticker)
	return resp, h.SendHTTPRequest(ctx, publicTicker, params, &resp)
}

// GetOrderbook retrieves the depth snapshot for one symbol.
func (h *HitBTC) GetOrderbook(ctx context.Context, symbol string, depth int64) (*Orderbook, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	params := url.Values{}
	if depth > 0 {
		params.Set("depth", strconv.FormatInt(depth, 10))
	}
	var resp Orderbook
	return &resp, h.SendHTTPRequest(ctx, publicOrderbook+"/"+symbol, params, &resp)
}

// GetTrades retrieves recent public trades for one symbol.
func (h *HitBTC) GetTrades(ctx context.Context, symbol string, limit int64) ([]PublicTrade, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp []PublicTrade
	return resp, h.SendHTTPRequest(ctx, publicTrades+"/"+symbol, params, &resp)
}

// GetCandles retrieves OHLCV bars for one symbol.
func (h *HitBTC) GetCandles(ctx context.Context, symbol, period string, limit int64) ([]Candle, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	params := url.Values{}
	params.Set("period", period)
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp []Candle
	return resp, h.SendHTTPRequest(ctx, publicCandles+"/"+symbol, params, &resp)
}

// GetFuturesInfo retrieves perpetual funding snapshots keyed by symbol.
func (h *HitBTC) GetFuturesInfo(ctx context.Context, symbols []string) (map[string]FuturesInfo, error) {
	params := url.Values{}
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}
	resp := make(map[string]FuturesInfo)
	return resp, h.SendHTTPRequest(ctx, publicFuturesInfo, params, &resp)
}

// GetFundingHistory retrieves historical funding payments keyed by symbol.
func (h *HitBTC) GetFundingHistory(ctx context.Context, symbol string, from, till time.Time, limit int64) (map[string][]FundingHistoryEntry, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	params := url.Values{}
	params.Set("symbols", symbol)
	if !from.IsZero() {
		params.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !till.IsZero() {
		params.Set("till", till.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	resp := make(map[string][]FundingHistoryEntry)
	return resp, h.SendHTTPRequest(ctx, publicFundingHistory, params, &resp)
}

// GetSpotBalance retrieves the spot wallet balances.
func (h *HitBTC) GetSpotBalance(ctx context.Context) ([]Balance, error) {
	var resp []Balance
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, spotBalance, nil, nil, &resp)
}

// GetFuturesBalance retrieves the derivatives wallet balances.
func (h *HitBTC) GetFuturesBalance(ctx context.Context) ([]Balance, error) {
	var resp []Balance
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, futuresBalance, nil, nil, &resp)
}

// OrderRequest is the JSON order submission body.
type OrderRequest struct {
	ClientOrderID string       `json:"client_order_id,omitempty"`
	Symbol        string       `json:"symbol"`
	Side          string       `json:"side"`
	Type          string       `json:"type,omitempty"`
	TimeInForce   string       `json:"time_in_force,omitempty"`
	Quantity      types.Number `json:"quantity"`
	Price         types.Number `json:"price,omitempty"`
	StopPrice     types.Number `json:"stop_price,omitempty"`
	PostOnly      bool         `json:"post_only,omitempty"`
	ReduceOnly    bool         `json:"reduce_only,omitempty"`
	MarginMode    string       `json:"margin_mode,omitempty"`
}

// PlaceOrder submits an order within a trading category.
func (h *HitBTC) PlaceOrder(ctx context.Context, category string, req *OrderRequest) (*Order, error) {
	var resp Order
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodPost, category+"/"+orderEndpoint, nil, req, &resp)
}

// ReplaceOrderRequest is the JSON body modifying an open order.
type ReplaceOrderRequest struct {
	NewClientOrderID string       `json:"new_client_order_id"`
	Quantity         types.Number `json:"quantity,omitempty"`
	Price            types.Number `json:"price,omitempty"`
}

// ReplaceOrder modifies an open order's price or quantity.
func (h *HitBTC) ReplaceOrder(ctx context.Context, category, clientOrderID string, req *ReplaceOrderRequest) (*Order, error) {
	var resp Order
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodPatch, category+"/"+orderEndpoint+"/"+clientOrderID, nil, req, &resp)
}

// CancelOrderByClientID cancels one order addressed by client order id.
func (h *HitBTC) CancelOrderByClientID(ctx context.Context, category, clientOrderID string) (*Order, error) {
	var resp Order
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodDelete, category+"/"+orderEndpoint+"/"+clientOrderID, nil, nil, &resp)
}

// CancelAllCategoryOrders cancels all open orders in a category, optionally
// scoped to one symbol.
func (h *HitBTC) CancelAllCategoryOrders(ctx context.Context, category, symbol string) ([]Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var resp []Order
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodDelete, category+"/"+orderEndpoint, params, nil, &resp)
}

// GetActiveOrders retrieves open orders in a category.
func (h *HitBTC) GetActiveOrders(ctx context.Context, category, symbol string) ([]Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var resp []Order
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, category+"/"+orderEndpoint, params, nil, &resp)
}

// GetActiveOrder retrieves one open order by client order id.
func (h *HitBTC) GetActiveOrder(ctx context.Context, category, clientOrderID string) (*Order, error) {
	var resp Order
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, category+"/"+orderEndpoint+"/"+clientOrderID, nil, nil, &resp)
}

// GetOrderHistory retrieves closed and cancelled orders in a category.
func (h *HitBTC) GetOrderHistory(ctx context.Context, category, symbol string, limit int64) ([]Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp []Order
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, category+"/"+orderHistoryEndpoint, params, nil, &resp)
}

// GetTradeHistory retrieves private fills in a category.
func (h *HitBTC) GetTradeHistory(ctx context.Context, category, symbol string, limit int64) ([]Fill, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp []Fill
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, category+"/"+tradeHistoryEndpoint, params, nil, &resp)
}

// GetFuturesAccounts retrieves all per-symbol margin accounts with their
// open positions.
func (h *HitBTC) GetFuturesAccounts(ctx context.Context) ([]FuturesAccount, error) {
	var resp []FuturesAccount
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, futuresAccount, nil, nil, &resp)
}

// GetIsolatedAccount retrieves the isolated margin account for one symbol.
func (h *HitBTC) GetIsolatedAccount(ctx context.Context, symbol string) (*FuturesAccount, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	var resp FuturesAccount
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, futuresIsolated+"/"+symbol, nil, nil, &resp)
}

// UpdateIsolatedAccount sets leverage or margin balance on one symbol's
// isolated account.
func (h *HitBTC) UpdateIsolatedAccount(ctx context.Context, symbol string, body map[string]string) (*FuturesAccount, error) {
	if symbol == "" {
		return nil, errSymbolRequired
	}
	var resp FuturesAccount
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodPut, futuresIsolated+"/"+symbol, nil, body, &resp)
}

// GetTransactions retrieves wallet transactions filtered by type.
func (h *HitBTC) GetTransactions(ctx context.Context, txType, currency string, limit int64) ([]Transaction, error) {
	params := url.Values{}
	if txType != "" {
		params.Set("types", txType)
	}
	if currency != "" {
		params.Set("currencies", currency)
	}
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp []Transaction
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, walletTransactions, params, nil, &resp)
}

// GetDepositAddress retrieves the deposit address for a currency.
func (h *HitBTC) GetDepositAddress(ctx context.Context, currency string) ([]CryptoAddress, error) {
	params := url.Values{}
	params.Set("currency", currency)
	var resp []CryptoAddress
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodGet, walletAddress, params, nil, &resp)
}

// WithdrawCrypto requests an on-chain withdrawal.
func (h *HitBTC) WithdrawCrypto(ctx context.Context, currency, address string, amount types.Number) (*WithdrawResponse, error) {
	body := map[string]string{
		"currency": currency,
		"amount":   amount.String(),
		"address":  address,
	}
	var resp WithdrawResponse
	return &resp, h.SendAuthHTTPRequest(ctx, http.MethodPost, walletWithdraw, nil, body, &resp)
}

// TransferBetweenAccounts moves funds between wallet, spot and derivatives
// accounts.
func (h *HitBTC) TransferBetweenAccounts(ctx context.Context, currency string, amount types.Number, source, destination string) ([]string, error) {
	body := map[string]string{
		"currency":    currency,
		"amount":      amount.String(),
		"source":      source,
		"destination": destination,
	}
	var resp []string
	return resp, h.SendAuthHTTPRequest(ctx, http.MethodPost, walletTransfer, nil, body, &resp)
}
