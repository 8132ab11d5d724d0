package deribit

import (
	"errors"

	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

const (
	sideBuy  = "buy"
	sideSell = "sell"

	kindSpot   = "spot"
	kindFuture = "future"
	kindOption = "option"

	settlementPerpetual = "perpetual"
)

var (
	errInvalidInstrumentName = errors.New("invalid instrument name")
	errInvalidResponseFormat = errors.New("invalid response format")
	errNoOrderDataReturned   = errors.New("no order data returned")
)

// UnmarshalError is the JSON-RPC error envelope the venue wraps failures in.
type UnmarshalError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// InstrumentData is the raw instrument record.
type InstrumentData struct {
	InstrumentName      string     `json:"instrument_name"`
	Kind                string     `json:"kind"`
	InstrumentType      string     `json:"instrument_type"`
	BaseCurrency        string     `json:"base_currency"`
	QuoteCurrency       string     `json:"quote_currency"`
	CounterCurrency     string     `json:"counter_currency"`
	SettlementCurrency  string     `json:"settlement_currency"`
	SettlementPeriod    string     `json:"settlement_period"`
	OptionType          string     `json:"option_type"`
	Strike              float64    `json:"strike"`
	ContractSize        float64    `json:"contract_size"`
	TickSize            float64    `json:"tick_size"`
	MinimumTradeAmount  float64    `json:"min_trade_amount"`
	MakerCommission     float64    `json:"maker_commission"`
	TakerCommission     float64    `json:"taker_commission"`
	MaxLeverage         float64    `json:"max_leverage"`
	IsActive            bool       `json:"is_active"`
	CreationTimestamp   types.Time `json:"creation_timestamp"`
	ExpirationTimestamp types.Time `json:"expiration_timestamp"`
}

// CurrencyData is the raw currency record.
type CurrencyData struct {
	Currency         string  `json:"currency"`
	CurrencyLong     string  `json:"currency_long"`
	FeePrecision     float64 `json:"fee_precision"`
	MinConfirmations int64   `json:"min_confirmations"`
	MinWithdrawalFee float64 `json:"min_withdrawal_fee"`
	WithdrawalFee    float64 `json:"withdrawal_fee"`
	WithdrawalPriorities []struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"withdrawal_priorities"`
}

// TickerData is the raw ticker snapshot.
type TickerData struct {
	InstrumentName string       `json:"instrument_name"`
	LastPrice      types.Number `json:"last_price"`
	BestBidPrice   types.Number `json:"best_bid_price"`
	BestBidAmount  types.Number `json:"best_bid_amount"`
	BestAskPrice   types.Number `json:"best_ask_price"`
	BestAskAmount  types.Number `json:"best_ask_amount"`
	MarkPrice      types.Number `json:"mark_price"`
	IndexPrice     types.Number `json:"index_price"`
	OpenInterest   types.Number `json:"open_interest"`
	CurrentFunding types.Number `json:"current_funding"`
	Funding8H      types.Number `json:"funding_8h"`
	MarkIV         types.Number `json:"mark_iv"`
	Timestamp      types.Time   `json:"timestamp"`
	State          string       `json:"state"`
	Stats          struct {
		Volume      types.Number `json:"volume"`
		VolumeUSD   types.Number `json:"volume_usd"`
		PriceChange types.Number `json:"price_change"`
		Low         types.Number `json:"low"`
		High        types.Number `json:"high"`
	} `json:"stats"`
	GreeksData struct {
		Delta types.Number `json:"delta"`
		Gamma types.Number `json:"gamma"`
		Rho   types.Number `json:"rho"`
		Theta types.Number `json:"theta"`
		Vega  types.Number `json:"vega"`
	} `json:"greeks"`
}

// Orderbook is the raw depth snapshot.
type Orderbook struct {
	InstrumentName string           `json:"instrument_name"`
	Timestamp      types.Time       `json:"timestamp"`
	Bids           [][]types.Number `json:"bids"`
	Asks           [][]types.Number `json:"asks"`
	State          string           `json:"state"`
	ChangeID       int64            `json:"change_id"`
}

// PublicTradesData is a page of raw public trades.
type PublicTradesData struct {
	Trades  []PublicTradeData `json:"trades"`
	HasMore bool              `json:"has_more"`
}

// PublicTradeData is one raw public trade.
type PublicTradeData struct {
	TradeID        string       `json:"trade_id"`
	InstrumentName string       `json:"instrument_name"`
	Timestamp      types.Time   `json:"timestamp"`
	Direction      string       `json:"direction"`
	Price          types.Number `json:"price"`
	Amount         types.Number `json:"amount"`
	MarkPrice      types.Number `json:"mark_price"`
	IndexPrice     types.Number `json:"index_price"`
	TickDirection  int64        `json:"tick_direction"`
}

// TradingViewChartData is the raw candle response.
type TradingViewChartData struct {
	Status string         `json:"status"`
	Ticks  []types.Time   `json:"ticks"`
	Open   []types.Number `json:"open"`
	High   []types.Number `json:"high"`
	Low    []types.Number `json:"low"`
	Close  []types.Number `json:"close"`
	Volume []types.Number `json:"volume"`
}

// FundingRateHistoryData is one raw funding history entry.
type FundingRateHistoryData struct {
	Timestamp      types.Time   `json:"timestamp"`
	IndexPrice     types.Number `json:"index_price"`
	PrevIndexPrice types.Number `json:"prev_index_price"`
	Interest8H     types.Number `json:"interest_8h"`
	Interest1H     types.Number `json:"interest_1h"`
}

// AccountSummaryData is the raw per-currency account summary.
type AccountSummaryData struct {
	Currency                 string       `json:"currency"`
	Balance                  types.Number `json:"balance"`
	AvailableFunds           types.Number `json:"available_funds"`
	AvailableWithdrawalFunds types.Number `json:"available_withdrawal_funds"`
	Equity                   types.Number `json:"equity"`
	MarginBalance            types.Number `json:"margin_balance"`
	InitialMargin            types.Number `json:"initial_margin"`
	MaintenanceMargin        types.Number `json:"maintenance_margin"`
}

// OrderData is the raw order record.
type OrderData struct {
	OrderID             string       `json:"order_id"`
	Label               string       `json:"label"`
	InstrumentName      string       `json:"instrument_name"`
	Direction           string       `json:"direction"`
	OrderType           string       `json:"order_type"`
	OrderState          string       `json:"order_state"`
	TimeInForce         string       `json:"time_in_force"`
	Price               types.Number `json:"price"`
	TriggerPrice        types.Number `json:"trigger_price"`
	Amount              types.Number `json:"amount"`
	FilledAmount        types.Number `json:"filled_amount"`
	AveragePrice        types.Number `json:"average_price"`
	Commission          types.Number `json:"commission"`
	PostOnly            bool         `json:"post_only"`
	ReduceOnly          bool         `json:"reduce_only"`
	CreationTimestamp   types.Time   `json:"creation_timestamp"`
	LastUpdateTimestamp types.Time   `json:"last_update_timestamp"`
}

// TradeData is one raw private fill.
type TradeData struct {
	TradeID        string       `json:"trade_id"`
	OrderID        string       `json:"order_id"`
	InstrumentName string       `json:"instrument_name"`
	Direction      string       `json:"direction"`
	OrderType      string       `json:"order_type"`
	Liquidity      string       `json:"liquidity"`
	Price          types.Number `json:"price"`
	Amount         types.Number `json:"amount"`
	Fee            types.Number `json:"fee"`
	FeeCurrency    string       `json:"fee_currency"`
	Timestamp      types.Time   `json:"timestamp"`
}

// PrivateTradeData is the raw response of buy, sell and edit.
type PrivateTradeData struct {
	Trades []TradeData `json:"trades"`
	Order  OrderData   `json:"order"`
}

// UserTradesData is a page of raw private fills.
type UserTradesData struct {
	Trades  []TradeData `json:"trades"`
	HasMore bool        `json:"has_more"`
}

// PositionData is the raw position record.
type PositionData struct {
	InstrumentName            string       `json:"instrument_name"`
	Kind                      string       `json:"kind"`
	Direction                 string       `json:"direction"`
	Size                      types.Number `json:"size"`
	AveragePrice              types.Number `json:"average_price"`
	MarkPrice                 types.Number `json:"mark_price"`
	IndexPrice                types.Number `json:"index_price"`
	EstimatedLiquidationPrice types.Number `json:"estimated_liquidation_price"`
	FloatingProfitLoss        types.Number `json:"floating_profit_loss"`
	RealizedProfitLoss        types.Number `json:"realized_profit_loss"`
	InitialMargin             types.Number `json:"initial_margin"`
	MaintenanceMargin         types.Number `json:"maintenance_margin"`
	Leverage                  types.Number `json:"leverage"`
}

// DepositsData is a page of raw deposits.
type DepositsData struct {
	Count int64         `json:"count"`
	Data  []DepositData `json:"data"`
}

// DepositData is one raw deposit record.
type DepositData struct {
	Address           string       `json:"address"`
	Amount            types.Number `json:"amount"`
	Currency          string       `json:"currency"`
	State             string       `json:"state"`
	TransactionID     string       `json:"transaction_id"`
	ReceivedTimestamp types.Time   `json:"received_timestamp"`
	UpdatedTimestamp  types.Time   `json:"updated_timestamp"`
}

// WithdrawalsData is a page of raw withdrawals.
type WithdrawalsData struct {
	Count int64          `json:"count"`
	Data  []WithdrawData `json:"data"`
}

// WithdrawData is one raw withdrawal record.
type WithdrawData struct {
	ID                 int64        `json:"id"`
	Address            string       `json:"address"`
	Amount             types.Number `json:"amount"`
	Currency           string       `json:"currency"`
	Fee                types.Number `json:"fee"`
	State              string       `json:"state"`
	TransactionID      string       `json:"transaction_id"`
	CreatedTimestamp   types.Time   `json:"created_timestamp"`
	ConfirmedTimestamp types.Time   `json:"confirmed_timestamp"`
	UpdatedTimestamp   types.Time   `json:"updated_timestamp"`
}

// TransfersData is a page of raw transfers.
type TransfersData struct {
	Count int64          `json:"count"`
	Data  []TransferData `json:"data"`
}

// TransferData is one raw internal transfer record.
type TransferData struct {
	ID               int64        `json:"id"`
	Amount           types.Number `json:"amount"`
	Currency         string       `json:"currency"`
	Direction        string       `json:"direction"`
	OtherSide        string       `json:"other_side"`
	State            string       `json:"state"`
	Type             string       `json:"type"`
	CreatedTimestamp types.Time   `json:"created_timestamp"`
	UpdatedTimestamp types.Time   `json:"updated_timestamp"`
}

// PrivateCancelData is the raw cancel response.
type PrivateCancelData struct {
	OrderID    string `json:"order_id"`
	OrderState string `json:"order_state"`
}

// DepositAddressData is the raw deposit address record.
type DepositAddressData struct {
	Address  string `json:"address"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
}

// Vocabulary tables; unmapped venue values pass through unchanged.
var (
	orderStatuses = map[string]order.Status{
		"open":        order.Open,
		"untriggered": order.Open,
		"filled":      order.Closed,
		"cancelled":   order.Canceled,
		"rejected":    order.Rejected,
	}

	orderTypes = map[string]order.Type{
		"limit":         order.Limit,
		"market":        order.Market,
		"stop_limit":    order.StopLimit,
		"stop_market":   order.StopMarket,
		"trailing_stop": order.TrailingStop,
	}

	orderSides = map[string]order.Side{
		sideBuy:  order.Buy,
		sideSell: order.Sell,
	}

	timeInForces = map[string]order.TimeInForce{
		"good_til_cancelled":  order.GoodTillCancel,
		"good_til_day":        order.GoodTillCancel,
		"fill_or_kill":        order.FillOrKill,
		"immediate_or_cancel": order.ImmediateOrCancel,
	}

	depositStatuses = map[string]account.TransactionStatus{
		"pending":   account.TransactionPending,
		"replaced":  account.TransactionPending,
		"completed": account.TransactionOK,
		"rejected":  account.TransactionFailed,
	}

	withdrawalStatuses = map[string]account.TransactionStatus{
		"unconfirmed": account.TransactionPending,
		"confirmed":   account.TransactionPending,
		"completed":   account.TransactionOK,
		"cancelled":   account.TransactionCanceled,
		"interrupted": account.TransactionFailed,
		"rejected":    account.TransactionFailed,
	}

	transferStatuses = map[string]account.TransferStatus{
		"prepared":                   account.TransferPending,
		"waiting_for_admin_decision": account.TransferPending,
		"confirmed":                  account.TransferOK,
		"cancelled":                  account.TransferCanceled,
		"rejected":                   account.TransferFailed,
	}
)

// errorClassifier maps the venue's published numeric error codes onto the
// canonical taxonomy. Codes are imposed by the remote API documentation and
// must match exactly.
var errorClassifier = &errs.Classifier{
	Venue: "Deribit",
	Exact: map[string]errs.Kind{
		"10000":  errs.Authentication,
		"10002":  errs.InvalidOrder,
		"10004":  errs.OrderNotFound,
		"10005":  errs.InvalidOrder,
		"10009":  errs.InsufficientFunds,
		"10010":  errs.OrderNotFound,
		"10028":  errs.RateLimit,
		"10040":  errs.ExchangeNotAvailable,
		"10041":  errs.OnMaintenance,
		"10043":  errs.InvalidOrder,
		"10044":  errs.InvalidOrder,
		"11029":  errs.BadRequest,
		"11044":  errs.InvalidOrder,
		"12001":  errs.BadRequest,
		"13004":  errs.Authentication,
		"13009":  errs.Authentication,
		"13777":  errs.OnMaintenance,
		"-32601": errs.NotSupported,
		"-32602": errs.BadRequest,
	},
	Broad: []errs.Match{
		{Contains: "not_enough", Kind: errs.InsufficientFunds},
		{Contains: "insufficient", Kind: errs.InsufficientFunds},
		{Contains: "invalid_credentials", Kind: errs.Authentication},
		{Contains: "unauthorized", Kind: errs.Authentication},
		{Contains: "signature", Kind: errs.Authentication},
		{Contains: "scope", Kind: errs.PermissionDenied},
		{Contains: "too_many_requests", Kind: errs.RateLimit},
		{Contains: "instrument", Kind: errs.BadSymbol},
		{Contains: "not_found", Kind: errs.OrderNotFound},
		{Contains: "maintenance", Kind: errs.OnMaintenance},
	},
}
