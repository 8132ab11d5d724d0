// Package woo implements the venue adapter for WOO X's REST API, spanning
// the v1 and v3 surfaces.
package woo

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

// WOO is the overarching type across this package
type WOO struct {
	exchange.Base
}

const (
	wooAPIURL = "https://api.woo.org"

	// Public endpoints
	v1PublicInfo               = "v1/public/info"
	v1PublicToken              = "v1/public/token"
	v1PublicTokenNetwork       = "v1/public/token_network"
	v1PublicFutures            = "v1/public/futures"
	v1PublicOrderbook          = "v1/public/orderbook"
	v1PublicMarketTrades       = "v1/public/market_trades"
	v1PublicKline              = "v1/public/kline"
	v1PublicFundingRate        = "v1/public/funding_rate"
	v1PublicFundingRateHistory = "v1/public/funding_rate_history"

	// Authenticated v1 endpoints
	v1ClientHolding  = "v1/client/holding"
	v1Order          = "v1/order"
	v1Orders         = "v1/orders"
	v1ClientTrades   = "v1/client/trades"
	v1AssetHistory   = "v1/asset/history"
	v1AssetWithdraw  = "v1/asset/withdraw"
	v1AssetTransfer  = "v1/asset/main_sub_transfer"
	v1AssetDeposit   = "v1/asset/deposit"
	v1ClientLeverage = "v1/client/leverage"

	// Authenticated v3 endpoints
	v3Positions   = "v3/positions"
	v3AccountInfo = "v3/accountinfo"
	v3AlgoOrder   = "v3/algo/order"
	v3Order       = "v3/order"
)

// Signer computes the venue's HMAC authentication headers. The v1 surface
// signs the sorted urlencoded parameters joined to the timestamp with a
// pipe; v3 signs ts + METHOD + path[?query] + body. Both sign the exact
// bytes transmitted.
type Signer struct{}

// Sign implements auth.Signer.
func (Signer) Sign(creds *auth.Credentials, r *auth.SignRequest) (map[string]string, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var strToSign string
	if strings.HasPrefix(r.Path, "/v3/") {
		uri := r.Path
		if r.Query != "" {
			uri += "?" + r.Query
		}
		strToSign = r.Timestamp + r.Method + uri + string(r.Body)
	} else {
		payload := r.Query
		if len(r.Body) > 0 {
			payload = string(r.Body)
		}
		strToSign = payload + "|" + r.Timestamp
	}
	sig := crypto.HexEncodeToString(crypto.GetHMAC(crypto.HashSHA256, []byte(strToSign), []byte(creds.Secret)))
	return map[string]string{
		"x-api-key":       creds.Key,
		"x-api-signature": sig,
		"x-api-timestamp": r.Timestamp,
	}, nil
}

func init() {
	exchange.Register("woo", func(cfg *config.Exchange) (exchange.Client, error) {
		return New(cfg)
	})
}

// New constructs a configured WOO client.
func New(cfg *config.Exchange) (*WOO, error) {
	w := &WOO{}
	w.Name = "WOO"
	w.Endpoint = wooAPIURL
	w.Catalog = market.NewCatalog()
	w.Signer = Signer{}
	w.Log = zap.NewNop()

	timeout := request.DefaultTimeout
	if cfg != nil {
		w.Enabled = cfg.Enabled
		w.Verbose = cfg.Verbose
		if cfg.RESTEndpoint != "" {
			w.Endpoint = cfg.RESTEndpoint
		}
		if cfg.HTTPTimeout > 0 {
			timeout = cfg.HTTPTimeout
		}
		w.Credentials = auth.Credentials{Key: cfg.Credentials.Key, Secret: cfg.Credentials.Secret}
	}
	if w.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			w.Log = logger
		}
	}
	w.Requester = request.New(w.Name,
		&http.Client{Timeout: timeout},
		request.WithLimiter(request.NewSplitRateLimit(time.Second, 5, time.Second, 10)),
		request.WithInspector(inspectResponse),
		request.WithLogger(w.Log))
	return w, nil
}

// inspectResponse raises a classified error when the body reports failure.
// Numeric v1 codes and string v3 codes address the same table.
func inspectResponse(status int, body []byte) error {
	if success, err := jsonparser.GetBoolean(body, "success"); err == nil && !success {
		return errorClassifier.Classify(status, extractCode(body), extractMessage(body), body)
	}
	if status >= http.StatusBadRequest {
		return errorClassifier.Classify(status, extractCode(body), extractMessage(body), body)
	}
	return nil
}

func extractCode(body []byte) string {
	if code, err := jsonparser.GetInt(body, "code"); err == nil {
		return strconv.FormatInt(code, 10)
	}
	if code, err := jsonparser.GetString(body, "code"); err == nil {
		return code
	}
	return ""
}

func extractMessage(body []byte) string {
	if msg, err := jsonparser.GetString(body, "message"); err == nil {
		return msg
	}
	return string(body)
}

// SendHTTPRequest sends an unauthenticated GET request.
func (w *WOO) SendHTTPRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	item := &request.Item{
		Method: http.MethodGet,
		Path:   w.Endpoint + "/" + common.EncodeURLValues(path, params),
		Result: result,
	}
	return w.Requester.SendPayload(ctx, request.UnAuth, func() (*request.Item, error) {
		return item, nil
	})
}

// SendAuthHTTPRequest signs and sends an authenticated v1 request. Query
// parameters and form bodies are encoded in sorted key order, which is also
// the canonical order the signature requires, so the signed bytes are the
// transmitted bytes.
func (w *WOO) SendAuthHTTPRequest(ctx context.Context, method, path string, params url.Values, result interface{}) error {
	creds, err := w.GetCredentials()
	if err != nil {
		return err
	}
	encoded := common.SortedURLValues(params)
	return w.Requester.SendPayload(ctx, request.Auth, func() (*request.Item, error) {
		req := &auth.SignRequest{
			Method:    method,
			Path:      "/" + path,
			Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
		}
		uri := "/" + path
		var body []byte
		if method == http.MethodPost || method == http.MethodPut {
			body = []byte(encoded)
			req.Body = body
		} else {
			req.Query = encoded
			if encoded != "" {
				uri += "?" + encoded
			}
		}
		headers, err := w.Signer.Sign(creds, req)
		if err != nil {
			return nil, err
		}
		if body != nil {
			headers["Content-Type"] = "application/x-www-form-urlencoded"
		}
		return &request.Item{
			Method:      method,
			Path:        w.Endpoint + uri,
			Headers:     headers,
			Body:        body,
			Result:      result,
			AuthRequest: true,
		}, nil
	})
}

// SendAuthHTTPRequestV3 signs and sends an authenticated v3 request with a
// JSON body. The body is marshalled once and the exact transmitted bytes
// enter the signature.
func (w *WOO) SendAuthHTTPRequestV3(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	creds, err := w.GetCredentials()
	if err != nil {
		return err
	}
	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	return w.Requester.SendPayload(ctx, request.Auth, func() (*request.Item, error) {
		uri := "/" + path
		headers, err := w.Signer.Sign(creds, &auth.SignRequest{
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
			Path:        w.Endpoint + common.EncodeURLValues(uri, params),
			Headers:     headers,
			Body:        payload,
			Result:      result,
			AuthRequest: true,
		}, nil
	})
}

// GetExchangeInfo retrieves all listed instruments.
func (w *WOO) GetExchangeInfo(ctx context.Context) (*InfoResponse, error) {
	var resp InfoResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicInfo, nil, &resp)
}

// GetTokens retrieves all supported tokens.
func (w *WOO) GetTokens(ctx context.Context) (*TokenResponse, error) {
	var resp TokenResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicToken, nil, &resp)
}

// GetTokenNetworks retrieves per-chain deposit and withdrawal policies.
func (w *WOO) GetTokenNetworks(ctx context.Context) (*TokenNetworkResponse, error) {
	var resp TokenNetworkResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicTokenNetwork, nil, &resp)
}

// GetFuturesStats retrieves stats for all perpetual contracts.
func (w *WOO) GetFuturesStats(ctx context.Context) (*FuturesResponse, error) {
	var resp FuturesResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicFutures, nil, &resp)
}

// GetFuturesStat retrieves stats for one perpetual contract.
func (w *WOO) GetFuturesStat(ctx context.Context, symbol string) (*FuturesRow, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	var resp struct {
		Success bool       `json:"success"`
		Info    FuturesRow `json:"info"`
	}
	return &resp.Info, w.SendHTTPRequest(ctx, v1PublicFutures+"/"+symbol, nil, &resp)
}

// GetOrderbook retrieves the depth snapshot for one symbol.
func (w *WOO) GetOrderbook(ctx context.Context, symbol string, maxLevel int64) (*OrderbookResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	if maxLevel > 0 {
		params.Set("max_level", strconv.FormatInt(maxLevel, 10))
	}
	var resp OrderbookResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicOrderbook+"/"+symbol, params, &resp)
}

// GetMarketTrades retrieves recent public trades for one symbol.
func (w *WOO) GetMarketTrades(ctx context.Context, symbol string, limit int64) (*MarketTradesResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp MarketTradesResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicMarketTrades, params, &resp)
}

// GetKline retrieves OHLCV bars for one symbol.
func (w *WOO) GetKline(ctx context.Context, symbol, interval string, limit int64) (*KlineResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("type", interval)
	if limit > 0 {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	var resp KlineResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicKline, params, &resp)
}

// GetFundingRate retrieves the current funding snapshot for one symbol.
func (w *WOO) GetFundingRate(ctx context.Context, symbol string) (*FundingRateResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	var resp FundingRateResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicFundingRate+"/"+symbol, nil, &resp)
}

// GetFundingRateHistory retrieves historical funding entries for one
// symbol.
func (w *WOO) GetFundingRateHistory(ctx context.Context, symbol string, start, end time.Time) (*FundingRateHistoryResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	if !start.IsZero() {
		params.Set("start_t", strconv.FormatInt(start.Unix(), 10))
	}
	if !end.IsZero() {
		params.Set("end_t", strconv.FormatInt(end.Unix(), 10))
	}
	var resp FundingRateHistoryResponse
	return &resp, w.SendHTTPRequest(ctx, v1PublicFundingRateHistory, params, &resp)
}

// GetHolding retrieves all token balances.
func (w *WOO) GetHolding(ctx context.Context) (*HoldingResponse, error) {
	var resp HoldingResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1ClientHolding, nil, &resp)
}

// SubmitOrder submits an order with the venue's form-encoded v1 fields.
func (w *WOO) SubmitOrder(ctx context.Context, params url.Values) (*OrderResponse, error) {
	var resp OrderResponse
	if err := w.SendAuthHTTPRequest(ctx, http.MethodPost, v1Order, params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errRequestNotAccepted
	}
	return &resp, nil
}

// AlgoOrderRequest is the v3 JSON body for trigger orders.
type AlgoOrderRequest struct {
	Symbol        string       `json:"symbol"`
	AlgoType      string       `json:"algoType"`
	Type          string       `json:"type"`
	Side          string       `json:"side"`
	Quantity      types.Number `json:"quantity"`
	Price         types.Number `json:"price,omitempty"`
	TriggerPrice  types.Number `json:"triggerPrice"`
	ClientOrderID string       `json:"clientOrderId,omitempty"`
	ReduceOnly    bool         `json:"reduceOnly,omitempty"`
}

// AlgoOrderResponse is the raw v3 trigger order response.
type AlgoOrderResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Rows []struct {
			OrderID       int64  `json:"orderId"`
			ClientOrderID string `json:"clientOrderId"`
		} `json:"rows"`
	} `json:"data"`
}

// SubmitAlgoOrder submits a trigger order on the v3 surface.
func (w *WOO) SubmitAlgoOrder(ctx context.Context, req *AlgoOrderRequest) (*AlgoOrderResponse, error) {
	var resp AlgoOrderResponse
	if err := w.SendAuthHTTPRequestV3(ctx, http.MethodPost, v3AlgoOrder, nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errRequestNotAccepted
	}
	return &resp, nil
}

// AmendOrderRequest is the v3 JSON body for order modification.
type AmendOrderRequest struct {
	Quantity types.Number `json:"quantity,omitempty"`
	Price    types.Number `json:"price,omitempty"`
}

// AmendOrder modifies the price or quantity of an open order on the v3
// surface.
func (w *WOO) AmendOrder(ctx context.Context, orderID int64, req *AmendOrderRequest) error {
	var resp CancelResponse
	path := v3Order + "/" + strconv.FormatInt(orderID, 10)
	if err := w.SendAuthHTTPRequestV3(ctx, http.MethodPut, path, nil, req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errRequestNotAccepted
	}
	return nil
}

// CancelOrderByID cancels one order.
func (w *WOO) CancelOrderByID(ctx context.Context, symbol string, orderID int64) (*CancelResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("order_id", strconv.FormatInt(orderID, 10))
	var resp CancelResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodDelete, v1Order, params, &resp)
}

// CancelOrders cancels all open orders on one symbol.
func (w *WOO) CancelOrders(ctx context.Context, symbol string) (*CancelResponse, error) {
	if symbol == "" {
		return nil, errInvalidSymbol
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	var resp CancelResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodDelete, v1Orders, params, &resp)
}

// GetOrder retrieves one order by id.
func (w *WOO) GetOrder(ctx context.Context, orderID int64) (*OrderRow, error) {
	var resp OrderRow
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1Order+"/"+strconv.FormatInt(orderID, 10), nil, &resp)
}

// GetOrders retrieves orders filtered by symbol and completion status.
func (w *WOO) GetOrders(ctx context.Context, symbol, status string, limit int64) (*OrdersResponse, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if status != "" {
		params.Set("status", status)
	}
	if limit > 0 {
		params.Set("size", strconv.FormatInt(limit, 10))
	}
	var resp OrdersResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1Orders, params, &resp)
}

// GetClientTrades retrieves private fills filtered by symbol.
func (w *WOO) GetClientTrades(ctx context.Context, symbol string, limit int64) (*ClientTradesResponse, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if limit > 0 {
		params.Set("size", strconv.FormatInt(limit, 10))
	}
	var resp ClientTradesResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1ClientTrades, params, &resp)
}

// GetPositions retrieves all open positions from the v3 surface.
func (w *WOO) GetPositions(ctx context.Context) (*PositionsV3Response, error) {
	var resp PositionsV3Response
	return &resp, w.SendAuthHTTPRequestV3(ctx, http.MethodGet, v3Positions, nil, nil, &resp)
}

// GetAccountInfo retrieves the v3 account snapshot.
func (w *WOO) GetAccountInfo(ctx context.Context) (*AccountInfoV3, error) {
	var resp AccountInfoV3
	return &resp, w.SendAuthHTTPRequestV3(ctx, http.MethodGet, v3AccountInfo, nil, nil, &resp)
}

// GetAssetHistory retrieves deposit and withdrawal records filtered by
// token and direction.
func (w *WOO) GetAssetHistory(ctx context.Context, token, side string) (*AssetHistoryResponse, error) {
	params := url.Values{}
	if token != "" {
		params.Set("token", token)
	}
	if side != "" {
		params.Set("token_side", side)
	}
	var resp AssetHistoryResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1AssetHistory, params, &resp)
}

// SubmitWithdraw requests an on-chain withdrawal.
func (w *WOO) SubmitWithdraw(ctx context.Context, token, address string, amount types.Number) (*WithdrawRequestResponse, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("address", address)
	params.Set("amount", amount.String())
	var resp WithdrawRequestResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodPost, v1AssetWithdraw, params, &resp)
}

// SubmitTransfer moves funds between the main and a sub account.
func (w *WOO) SubmitTransfer(ctx context.Context, token string, amount types.Number, fromID, toID string) (*TransferResponse, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("amount", amount.String())
	params.Set("from_application_id", fromID)
	params.Set("to_application_id", toID)
	var resp TransferResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodPost, v1AssetTransfer, params, &resp)
}

// GetDepositAddress retrieves the deposit address for a token.
func (w *WOO) GetDepositAddress(ctx context.Context, token string) (*DepositAddressResponse, error) {
	params := url.Values{}
	params.Set("token", token)
	var resp DepositAddressResponse
	return &resp, w.SendAuthHTTPRequest(ctx, http.MethodGet, v1AssetDeposit, params, &resp)
}

// SetAccountLeverage sets the account-wide leverage.
func (w *WOO) SetAccountLeverage(ctx context.Context, leverage int64) error {
	params := url.Values{}
	params.Set("leverage", strconv.FormatInt(leverage, 10))
	var resp LeverageResponse
	if err := w.SendAuthHTTPRequest(ctx, http.MethodPost, v1ClientLeverage, params, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errRequestNotAccepted
	}
	return nil
}
