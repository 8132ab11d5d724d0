package woo

import (
	"errors"

	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

const (
	symbolPrefixSpot = "SPOT"
	symbolPrefixPerp = "PERP"
)

var (
	errInvalidSymbol         = errors.New("invalid symbol")
	errInvalidResponseFormat = errors.New("invalid response format")
	errRequestNotAccepted    = errors.New("request not accepted")
)

// InfoRow is one raw instrument record from the exchange information
// endpoint.
type InfoRow struct {
	Symbol      string       `json:"symbol"`
	QuoteMin    types.Number `json:"quote_min"`
	QuoteMax    types.Number `json:"quote_max"`
	QuoteTick   types.Number `json:"quote_tick"`
	BaseMin     types.Number `json:"base_min"`
	BaseMax     types.Number `json:"base_max"`
	BaseTick    types.Number `json:"base_tick"`
	MinNotional types.Number `json:"min_notional"`
	IsTrading   bool         `json:"is_trading"`
	CreatedTime types.Time   `json:"created_time"`
	UpdatedTime types.Time   `json:"updated_time"`
}

// InfoResponse is the raw instrument listing.
type InfoResponse struct {
	Success bool      `json:"success"`
	Rows    []InfoRow `json:"rows"`
}

// TokenRow is one raw currency record.
type TokenRow struct {
	Token         string     `json:"token"`
	Fullname      string     `json:"fullname"`
	Decimals      int64      `json:"decimals"`
	Delisted      bool       `json:"delisted"`
	CanCollateral bool       `json:"can_collateral"`
	CreatedTime   types.Time `json:"created_time"`
}

// TokenResponse is the raw currency listing.
type TokenResponse struct {
	Success bool       `json:"success"`
	Rows    []TokenRow `json:"rows"`
}

// TokenNetworkRow is one chain's deposit and withdrawal policy for a token.
type TokenNetworkRow struct {
	Protocol          string       `json:"protocol"`
	Token             string       `json:"token"`
	Name              string       `json:"name"`
	MinimumWithdrawal types.Number `json:"minimum_withdrawal"`
	WithdrawalFee     types.Number `json:"withdrawal_fee"`
	AllowDeposit      int64        `json:"allow_deposit"`
	AllowWithdraw     int64        `json:"allow_withdraw"`
}

// TokenNetworkResponse is the raw per-chain policy listing.
type TokenNetworkResponse struct {
	Success bool              `json:"success"`
	Rows    []TokenNetworkRow `json:"rows"`
}

// FuturesRow is one raw perpetual stats record, carrying the 24h spread the
// venue attaches to contract listings.
type FuturesRow struct {
	Symbol          string       `json:"symbol"`
	IndexPrice      types.Number `json:"index_price"`
	MarkPrice       types.Number `json:"mark_price"`
	EstFundingRate  types.Number `json:"est_funding_rate"`
	LastFundingRate types.Number `json:"last_funding_rate"`
	NextFundingTime types.Time   `json:"next_funding_time"`
	OpenInterest    types.Number `json:"open_interest"`
	Open24H         types.Number `json:"24h_open"`
	Close24H        types.Number `json:"24h_close"`
	High24H         types.Number `json:"24h_high"`
	Low24H          types.Number `json:"24h_low"`
	Volume24H       types.Number `json:"24h_volume"`
	Amount24H       types.Number `json:"24h_amount"`
}

// FuturesResponse is the raw perpetual stats listing.
type FuturesResponse struct {
	Success   bool         `json:"success"`
	Rows      []FuturesRow `json:"rows"`
	Timestamp types.Time   `json:"timestamp"`
}

// OrderbookResponse is the raw depth snapshot.
type OrderbookResponse struct {
	Success   bool           `json:"success"`
	Timestamp types.Time     `json:"timestamp"`
	Asks      []OrderbookRow `json:"asks"`
	Bids      []OrderbookRow `json:"bids"`
}

// OrderbookRow is one raw depth level.
type OrderbookRow struct {
	Price    types.Number `json:"price"`
	Quantity types.Number `json:"quantity"`
}

// MarketTrade is one raw public trade.
type MarketTrade struct {
	Symbol            string       `json:"symbol"`
	Side              string       `json:"side"`
	ExecutedPrice     types.Number `json:"executed_price"`
	ExecutedQuantity  types.Number `json:"executed_quantity"`
	ExecutedTimestamp types.Time   `json:"executed_timestamp"`
	Source            int64        `json:"source"`
}

// MarketTradesResponse is the raw public trade listing.
type MarketTradesResponse struct {
	Success bool          `json:"success"`
	Rows    []MarketTrade `json:"rows"`
}

// KlineRow is one raw OHLCV bar.
type KlineRow struct {
	Symbol         string       `json:"symbol"`
	Open           types.Number `json:"open"`
	Close          types.Number `json:"close"`
	High           types.Number `json:"high"`
	Low            types.Number `json:"low"`
	Volume         types.Number `json:"volume"`
	Amount         types.Number `json:"amount"`
	StartTimestamp types.Time   `json:"start_timestamp"`
	EndTimestamp   types.Time   `json:"end_timestamp"`
}

// KlineResponse is the raw OHLCV listing.
type KlineResponse struct {
	Success bool       `json:"success"`
	Rows    []KlineRow `json:"rows"`
}

// FundingRateResponse is the raw current funding snapshot for one symbol.
type FundingRateResponse struct {
	Success         bool         `json:"success"`
	Symbol          string       `json:"symbol"`
	EstFundingRate  types.Number `json:"est_funding_rate"`
	LastFundingRate types.Number `json:"last_funding_rate"`
	NextFundingTime types.Time   `json:"next_funding_time"`
	Timestamp       types.Time   `json:"timestamp"`
}

// FundingRateHistoryRow is one raw historical funding entry.
type FundingRateHistoryRow struct {
	Symbol               string       `json:"symbol"`
	FundingRate          types.Number `json:"funding_rate"`
	FundingRateTimestamp types.Time   `json:"funding_rate_timestamp"`
}

// FundingRateHistoryResponse is the raw funding history listing.
type FundingRateHistoryResponse struct {
	Success bool                    `json:"success"`
	Rows    []FundingRateHistoryRow `json:"rows"`
}

// Holding is one raw token balance.
type Holding struct {
	Token   string       `json:"token"`
	Holding types.Number `json:"holding"`
	Frozen  types.Number `json:"frozen"`
}

// HoldingResponse is the raw balance listing.
type HoldingResponse struct {
	Success bool      `json:"success"`
	Holding []Holding `json:"holding"`
}

// OrderResponse is the raw order submission response.
type OrderResponse struct {
	Success       bool         `json:"success"`
	OrderID       int64        `json:"order_id"`
	ClientOrderID int64        `json:"client_order_id"`
	OrderType     string       `json:"order_type"`
	OrderPrice    types.Number `json:"order_price"`
	OrderQuantity types.Number `json:"order_quantity"`
	OrderAmount   types.Number `json:"order_amount"`
	Timestamp     types.Time   `json:"timestamp"`
}

// OrderRow is the raw order record.
type OrderRow struct {
	OrderID              int64        `json:"order_id"`
	ClientOrderID        int64        `json:"client_order_id"`
	Symbol               string       `json:"symbol"`
	Side                 string       `json:"side"`
	Type                 string       `json:"type"`
	Status               string       `json:"status"`
	Price                types.Number `json:"price"`
	Quantity             types.Number `json:"quantity"`
	Amount               types.Number `json:"amount"`
	Executed             types.Number `json:"executed"`
	AverageExecutedPrice types.Number `json:"average_executed_price"`
	TotalFee             types.Number `json:"total_fee"`
	FeeAsset             string       `json:"fee_asset"`
	Visible              types.Number `json:"visible"`
	ReduceOnly           bool         `json:"reduce_only"`
	CreatedTime          types.Time   `json:"created_time"`
	UpdatedTime          types.Time   `json:"updated_time"`
}

// OrdersResponse is a raw order listing page.
type OrdersResponse struct {
	Success bool `json:"success"`
	Meta    struct {
		Total          int64 `json:"total"`
		RecordsPerPage int64 `json:"records_per_page"`
		CurrentPage    int64 `json:"current_page"`
	} `json:"meta"`
	Rows []OrderRow `json:"rows"`
}

// CancelResponse is the raw cancellation acknowledgment.
type CancelResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// ClientTrade is one raw private fill.
type ClientTrade struct {
	ID                int64        `json:"id"`
	OrderID           int64        `json:"order_id"`
	Symbol            string       `json:"symbol"`
	Side              string       `json:"side"`
	OrderType         string       `json:"order_type"`
	ExecutedPrice     types.Number `json:"executed_price"`
	ExecutedQuantity  types.Number `json:"executed_quantity"`
	Fee               types.Number `json:"fee"`
	FeeAsset          string       `json:"fee_asset"`
	IsMaker           int64        `json:"is_maker"`
	ExecutedTimestamp types.Time   `json:"executed_timestamp"`
}

// ClientTradesResponse is a raw private fill listing page.
type ClientTradesResponse struct {
	Success bool          `json:"success"`
	Rows    []ClientTrade `json:"rows"`
}

// PositionV3 is one raw position from the v3 surface.
type PositionV3 struct {
	Symbol           string       `json:"symbol"`
	Holding          types.Number `json:"holding"`
	AverageOpenPrice types.Number `json:"averageOpenPrice"`
	MarkPrice        types.Number `json:"markPrice"`
	UnrealPnl        types.Number `json:"unrealPnl"`
	EstLiqPrice      types.Number `json:"estLiqPrice"`
	PositionSide     string       `json:"positionSide"`
	MarginMode       string       `json:"marginMode"`
	Leverage         types.Number `json:"leverage"`
	Timestamp        types.Time   `json:"timestamp"`
}

// PositionsV3Response is the raw v3 position listing.
type PositionsV3Response struct {
	Success bool `json:"success"`
	Data    struct {
		Positions []PositionV3 `json:"positions"`
	} `json:"data"`
}

// AccountInfoV3 is the raw v3 account snapshot.
type AccountInfoV3 struct {
	Success bool `json:"success"`
	Data    struct {
		ApplicationID string       `json:"applicationId"`
		Account       string       `json:"account"`
		Alias         string       `json:"alias"`
		AccountMode   string       `json:"accountMode"`
		PositionMode  string       `json:"positionMode"`
		Leverage      types.Number `json:"leverage"`
	} `json:"data"`
}

// AssetHistoryRow is one raw deposit or withdrawal record.
type AssetHistoryRow struct {
	ID            string       `json:"id"`
	Token         string       `json:"token"`
	TokenSide     string       `json:"token_side"`
	Amount        types.Number `json:"amount"`
	Fee           types.Number `json:"fee_amount"`
	TxID          string       `json:"tx_id"`
	Status        string       `json:"status"`
	TargetAddress string       `json:"target_address"`
	SourceAddress string       `json:"source_address"`
	Extra         string       `json:"extra"`
	CreatedTime   types.Time   `json:"created_time"`
	UpdatedTime   types.Time   `json:"updated_time"`
}

// AssetHistoryResponse is the raw deposit/withdrawal listing.
type AssetHistoryResponse struct {
	Success bool              `json:"success"`
	Rows    []AssetHistoryRow `json:"rows"`
}

// WithdrawRequestResponse is the raw withdrawal submission response.
type WithdrawRequestResponse struct {
	Success    bool  `json:"success"`
	WithdrawID int64 `json:"withdraw_id"`
}

// TransferResponse is the raw internal transfer response.
type TransferResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// DepositAddressResponse is the raw token deposit address record.
type DepositAddressResponse struct {
	Success bool   `json:"success"`
	Address string `json:"address"`
	Extra   string `json:"extra"`
}

// LeverageResponse is the raw leverage update acknowledgment.
type LeverageResponse struct {
	Success bool `json:"success"`
}

// Vocabulary tables; unmapped venue values pass through unchanged.
var (
	orderStatuses = map[string]order.Status{
		"NEW":             order.Open,
		"PARTIAL_FILLED":  order.Open,
		"REPLACED":        order.Open,
		"INCOMPLETE":      order.Open,
		"FILLED":          order.Closed,
		"COMPLETED":       order.Closed,
		"CANCELLED":       order.Canceled,
		"CANCEL_SENT":     order.Canceled,
		"CANCEL_ALL_SENT": order.Canceled,
		"REJECTED":        order.Rejected,
	}

	orderTypes = map[string]order.Type{
		"LIMIT":       order.Limit,
		"MARKET":      order.Market,
		"STOP_LIMIT":  order.StopLimit,
		"STOP_MARKET": order.StopMarket,
		"IOC":         order.Limit,
		"FOK":         order.Limit,
		"POST_ONLY":   order.Limit,
	}

	orderSides = map[string]order.Side{
		"BUY":  order.Buy,
		"SELL": order.Sell,
	}

	transactionStatuses = map[string]account.TransactionStatus{
		"NEW":        account.TransactionPending,
		"CONFIRMING": account.TransactionPending,
		"PROCESSING": account.TransactionPending,
		"COMPLETED":  account.TransactionOK,
		"CANCELED":   account.TransactionCanceled,
		"FAILED":     account.TransactionFailed,
	}
)

// errorClassifier maps the venue's published error codes onto the canonical
// taxonomy. The venue mixes signed numeric codes on the v1 surface with
// string codes on v3; both address the same table.
var errorClassifier = &errs.Classifier{
	Venue: "WOO",
	Exact: map[string]errs.Kind{
		"-1000": errs.Exchange,
		"-1001": errs.Authentication,
		"-1002": errs.PermissionDenied,
		"-1003": errs.RateLimit,
		"-1004": errs.BadRequest,
		"-1005": errs.BadRequest,
		"-1006": errs.BadRequest,
		"-1007": errs.BadRequest,
		"-1008": errs.InvalidOrder,
		"-1009": errs.BadSymbol,
		"-1011": errs.ExchangeNotAvailable,
		"-1012": errs.BadRequest,
		"-1101": errs.InsufficientFunds,
		"-1102": errs.InvalidOrder,
		"-1103": errs.InvalidOrder,
		"-1104": errs.InvalidOrder,
		"-1105": errs.InvalidOrder,

		"INVALID_SIGNATURE":    errs.Authentication,
		"UNAUTHORIZED":         errs.Authentication,
		"SYMBOL_NOT_FOUND":     errs.BadSymbol,
		"ORDER_NOT_FOUND":      errs.OrderNotFound,
		"TOO_MANY_REQUEST":     errs.RateLimit,
		"INSUFFICIENT_BALANCE": errs.InsufficientFunds,
	},
	Broad: []errs.Match{
		{Contains: "insufficient", Kind: errs.InsufficientFunds},
		{Contains: "signature", Kind: errs.Authentication},
		{Contains: "api key", Kind: errs.Authentication},
		{Contains: "rate limit", Kind: errs.RateLimit},
		{Contains: "too many", Kind: errs.RateLimit},
		{Contains: "symbol", Kind: errs.BadSymbol},
		{Contains: "order not found", Kind: errs.OrderNotFound},
		{Contains: "maintenance", Kind: errs.OnMaintenance},
	},
}
