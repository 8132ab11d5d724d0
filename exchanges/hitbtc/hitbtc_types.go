package hitbtc

import (
	"errors"

	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

const (
	symbolTypeSpot    = "spot"
	symbolTypeFutures = "futures"

	symbolStatusWorking = "working"
)

var (
	errSymbolRequired        = errors.New("symbol required")
	errInvalidResponseFormat = errors.New("invalid response format")
	errNoTransactionID       = errors.New("no transaction id returned")
)

// APIError is the error envelope the venue wraps failures in.
type APIError struct {
	Error struct {
		Code        int64  `json:"code"`
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"error"`
}

// Symbol is the raw instrument record keyed by id in the symbol response.
type Symbol struct {
	Type               string       `json:"type"`
	BaseCurrency       string       `json:"base_currency"`
	QuoteCurrency      string       `json:"quote_currency"`
	Underlying         string       `json:"underlying"`
	Status             string       `json:"status"`
	QuantityIncrement  types.Number `json:"quantity_increment"`
	TickSize           types.Number `json:"tick_size"`
	TakeRate           types.Number `json:"take_rate"`
	MakeRate           types.Number `json:"make_rate"`
	MarginTrading      bool         `json:"margin_trading"`
	MaxInitialLeverage types.Number `json:"max_initial_leverage"`
	ContractSize       types.Number `json:"contract_size"`
}

// Currency is the raw currency record keyed by code.
type Currency struct {
	FullName         string       `json:"full_name"`
	PayinEnabled     bool         `json:"payin_enabled"`
	PayoutEnabled    bool         `json:"payout_enabled"`
	TransferEnabled  bool         `json:"transfer_enabled"`
	PrecisionTransfer types.Number `json:"precision_transfer"`
	Networks         []CurrencyNetwork `json:"networks"`
}

// CurrencyNetwork is one chain's policy within a currency record.
type CurrencyNetwork struct {
	Network          string       `json:"network"`
	IsDefault        bool         `json:"default"`
	PayinEnabled     bool         `json:"payin_enabled"`
	PayoutEnabled    bool         `json:"payout_enabled"`
	PayoutFee        types.Number `json:"payout_fee"`
	PrecisionPayout  types.Number `json:"precision_payout"`
}

// Ticker is the raw ticker snapshot.
type Ticker struct {
	Ask         types.Number `json:"ask"`
	Bid         types.Number `json:"bid"`
	Last        types.Number `json:"last"`
	Low         types.Number `json:"low"`
	High        types.Number `json:"high"`
	Open        types.Number `json:"open"`
	Volume      types.Number `json:"volume"`
	VolumeQuote types.Number `json:"volume_quote"`
	Timestamp   types.Time   `json:"timestamp"`
}

// Orderbook is the raw depth snapshot; levels are [price, quantity] string
// pairs.
type Orderbook struct {
	Timestamp types.Time       `json:"timestamp"`
	Ask       [][]types.Number `json:"ask"`
	Bid       [][]types.Number `json:"bid"`
}

// PublicTrade is one raw public trade.
type PublicTrade struct {
	ID        int64        `json:"id"`
	Price     types.Number `json:"price"`
	Quantity  types.Number `json:"qty"`
	Side      string       `json:"side"`
	Timestamp types.Time   `json:"timestamp"`
}

// Candle is one raw OHLCV bar.
type Candle struct {
	Timestamp   types.Time   `json:"timestamp"`
	Open        types.Number `json:"open"`
	Close       types.Number `json:"close"`
	Min         types.Number `json:"min"`
	Max         types.Number `json:"max"`
	Volume      types.Number `json:"volume"`
	VolumeQuote types.Number `json:"volume_quote"`
}

// FuturesInfo is the raw perpetual funding snapshot keyed by symbol.
type FuturesInfo struct {
	MarkPrice       types.Number `json:"mark_price"`
	IndexPrice      types.Number `json:"index_price"`
	FundingRate     types.Number `json:"funding_rate"`
	OpenInterest    types.Number `json:"open_interest"`
	NextFundingTime types.Time   `json:"next_funding_time"`
	Timestamp       types.Time   `json:"timestamp"`
}

// FundingHistoryEntry is one raw historical funding payment.
type FundingHistoryEntry struct {
	Timestamp   types.Time   `json:"timestamp"`
	FundingRate types.Number `json:"funding_rate"`
}

// Balance is one raw wallet balance entry.
type Balance struct {
	Currency  string       `json:"currency"`
	Available types.Number `json:"available"`
	Reserved  types.Number `json:"reserved"`
}

// Order is the raw order record.
type Order struct {
	ID                 int64        `json:"id"`
	ClientOrderID      string       `json:"client_order_id"`
	Symbol             string       `json:"symbol"`
	Side               string       `json:"side"`
	Status             string       `json:"status"`
	Type               string       `json:"type"`
	TimeInForce        string       `json:"time_in_force"`
	Quantity           types.Number `json:"quantity"`
	QuantityCumulative types.Number `json:"quantity_cumulative"`
	Price              types.Number `json:"price"`
	StopPrice          types.Number `json:"stop_price"`
	PostOnly           bool         `json:"post_only"`
	ReduceOnly         bool         `json:"reduce_only"`
	MarginMode         string       `json:"margin_mode"`
	CreatedAt          types.Time   `json:"created_at"`
	UpdatedAt          types.Time   `json:"updated_at"`
}

// Fill is one raw private trade.
type Fill struct {
	ID            int64        `json:"id"`
	OrderID       int64        `json:"order_id"`
	ClientOrderID string       `json:"client_order_id"`
	Symbol        string       `json:"symbol"`
	Side          string       `json:"side"`
	Quantity      types.Number `json:"quantity"`
	Price         types.Number `json:"price"`
	Fee           types.Number `json:"fee"`
	Taker         bool         `json:"taker"`
	Timestamp     types.Time   `json:"timestamp"`
}

// FuturesAccount is the raw per-symbol margin account, carrying the open
// positions.
type FuturesAccount struct {
	Symbol            string       `json:"symbol"`
	Type              string       `json:"type"`
	MarginBalance     types.Number `json:"margin_balance"`
	ReservedOrders    types.Number `json:"reserved_orders"`
	ReservedPositions types.Number `json:"reserved_positions"`
	Leverage          types.Number `json:"leverage"`
	MarginMode        string       `json:"margin_mode"`
	CreatedAt         types.Time   `json:"created_at"`
	UpdatedAt         types.Time   `json:"updated_at"`
	Positions         []FuturesPosition `json:"positions"`
}

// FuturesPosition is one raw open position.
type FuturesPosition struct {
	ID               int64        `json:"id"`
	Symbol           string       `json:"symbol"`
	Quantity         types.Number `json:"quantity"`
	PriceEntry       types.Number `json:"price_entry"`
	PriceMarginCall  types.Number `json:"price_margin_call"`
	PriceLiquidation types.Number `json:"price_liquidation"`
	Pnl              types.Number `json:"pnl"`
	CreatedAt        types.Time   `json:"created_at"`
	UpdatedAt        types.Time   `json:"updated_at"`
}

// Transaction is one raw wallet transaction (deposit or withdrawal).
type Transaction struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Type      string     `json:"type"`
	CreatedAt types.Time `json:"created_at"`
	UpdatedAt types.Time `json:"updated_at"`
	Native    struct {
		TxID     string       `json:"tx_hash"`
		Address  string       `json:"address"`
		Amount   types.Number `json:"amount"`
		Fee      types.Number `json:"fee"`
		Currency string       `json:"currency"`
	} `json:"native"`
}

// CryptoAddress is the raw deposit address record.
type CryptoAddress struct {
	Currency    string `json:"currency"`
	Address     string `json:"address"`
	PaymentID   string `json:"payment_id"`
	NetworkCode string `json:"network_code"`
}

// WithdrawResponse is the raw withdrawal submission response.
type WithdrawResponse struct {
	ID string `json:"id"`
}

// Vocabulary tables; unmapped venue values pass through unchanged.
var (
	orderStatuses = map[string]order.Status{
		"new":             order.Open,
		"suspended":       order.Open,
		"partiallyFilled": order.Open,
		"filled":          order.Closed,
		"canceled":        order.Canceled,
		"expired":         order.Canceled,
	}

	orderTypes = map[string]order.Type{
		"limit":           order.Limit,
		"market":          order.Market,
		"stopLimit":       order.StopLimit,
		"stopMarket":      order.StopMarket,
		"takeProfitLimit": order.StopLimit,
		"takeProfitMarket": order.StopMarket,
	}

	orderSides = map[string]order.Side{
		"buy":  order.Buy,
		"sell": order.Sell,
	}

	timeInForces = map[string]order.TimeInForce{
		"GTC": order.GoodTillCancel,
		"IOC": order.ImmediateOrCancel,
		"FOK": order.FillOrKill,
		"Day": order.GoodTillCancel,
		"GTD": order.GoodTillCancel,
	}

	transactionStatuses = map[string]account.TransactionStatus{
		"CREATED":     account.TransactionPending,
		"PENDING":     account.TransactionPending,
		"SUCCESS":     account.TransactionOK,
		"FAILED":      account.TransactionFailed,
		"ROLLED_BACK": account.TransactionCanceled,
	}
)

// errorClassifier maps the venue's published numeric error codes onto the
// canonical taxonomy.
var errorClassifier = &errs.Classifier{
	Venue: "HitBTC",
	Exact: map[string]errs.Kind{
		"403":   errs.PermissionDenied,
		"429":   errs.RateLimit,
		"500":   errs.Exchange,
		"503":   errs.ExchangeNotAvailable,
		"504":   errs.ExchangeNotAvailable,
		"600":   errs.RateLimit,
		"800":   errs.OnMaintenance,
		"1002":  errs.Authentication,
		"1003":  errs.PermissionDenied,
		"1004":  errs.Authentication,
		"1005":  errs.Authentication,
		"2001":  errs.BadSymbol,
		"2002":  errs.BadRequest,
		"2003":  errs.BadRequest,
		"10001": errs.BadRequest,
		"10021": errs.BadSymbol,
		"20001": errs.InsufficientFunds,
		"20002": errs.OrderNotFound,
		"20003": errs.InsufficientFunds,
		"20008": errs.InvalidOrder,
		"20010": errs.BadSymbol,
		"20045": errs.InvalidOrder,
	},
	Broad: []errs.Match{
		{Contains: "insufficient", Kind: errs.InsufficientFunds},
		{Contains: "authoriz", Kind: errs.Authentication},
		{Contains: "signature", Kind: errs.Authentication},
		{Contains: "symbol not found", Kind: errs.BadSymbol},
		{Contains: "order not found", Kind: errs.OrderNotFound},
		{Contains: "too many requests", Kind: errs.RateLimit},
		{Contains: "maintenance", Kind: errs.OnMaintenance},
	},
}
