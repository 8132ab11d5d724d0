package deribit

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantfabric/unifex/errs"
	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/asset"
	"github.com/quantfabric/unifex/exchanges/futures"
	"github.com/quantfabric/unifex/exchanges/kline"
	"github.com/quantfabric/unifex/exchanges/market"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/exchanges/orderbook"
	"github.com/quantfabric/unifex/exchanges/ticker"
	"github.com/quantfabric/unifex/exchanges/trade"
	"github.com/quantfabric/unifex/types"
)

// LoadMarkets populates the market catalog, walking the settlement
// currencies sequentially. The catalog is cached until an explicit reload.
func (d *Deribit) LoadMarkets(ctx context.Context, reload bool) ([]market.Market, error) {
	if d.Catalog.Loaded() && !reload {
		return d.Catalog.Markets(), nil
	}
	markets, err := d.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.Catalog.Load(markets); err != nil {
		return nil, err
	}
	return d.Catalog.Markets(), nil
}

// FetchMarkets retrieves and normalizes all listed instruments.
func (d *Deribit) FetchMarkets(ctx context.Context) ([]market.Market, error) {
	var markets []market.Market
	for _, ccy := range catalogCurrencies {
		instruments, err := d.GetInstruments(ctx, ccy, "", false)
		if err != nil {
			return nil, err
		}
		for i := range instruments {
			m, err := buildMarket(&instruments[i])
			if err != nil {
				// Combo and other non-linear listings have no canonical
				// representation; skip rather than fail the load.
				continue
			}
			markets = append(markets, *m)
		}
	}
	return markets, nil
}

// FetchCurrencies retrieves and normalizes the supported currency set.
func (d *Deribit) FetchCurrencies(ctx context.Context) (map[string]market.Currency, error) {
	raw, err := d.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]market.Currency, len(raw))
	for i := range raw {
		c := market.Currency{
			Code:      raw[i].Currency,
			ID:        raw[i].Currency,
			Name:      raw[i].CurrencyLong,
			Precision: raw[i].FeePrecision,
			Active:    true,
			Deposit:   true,
			Withdraw:  true,
			Fee:       raw[i].WithdrawalFee,
		}
		out[c.Code] = c
	}
	d.Catalog.LoadCurrencies(out)
	return out, nil
}

// buildMarket normalizes one raw instrument into the canonical record.
func buildMarket(in *InstrumentData) (*market.Market, error) {
	base := in.BaseCurrency
	quote := in.QuoteCurrency
	settle := in.SettlementCurrency
	expiry := in.ExpirationTimestamp.UnixMilli()

	m := &market.Market{
		ID:           in.InstrumentName,
		Base:         base,
		Quote:        quote,
		BaseID:       base,
		QuoteID:      quote,
		Active:       in.IsActive,
		Taker:        in.TakerCommission,
		Maker:        in.MakerCommission,
		ContractSize: in.ContractSize,
		Precision: market.Precision{
			Amount: in.MinimumTradeAmount,
			Price:  in.TickSize,
		},
		Limits: market.Limits{
			Amount:   market.MinMax{Min: in.MinimumTradeAmount},
			Leverage: market.MinMax{Min: 1, Max: in.MaxLeverage},
		},
		Created: in.CreationTimestamp.UnixMilli(),
	}

	switch in.Kind {
	case kindSpot:
		m.Spot = true
		m.Type = asset.Spot
		m.Symbol = market.Symbol(base, quote, "", 0, 0, "")
		return m, m.Validate()
	case kindFuture:
		if in.SettlementPeriod == settlementPerpetual {
			m.Swap = true
			m.Type = asset.Swap
			expiry = 0
		} else {
			m.Future = true
			m.Type = asset.Futures
		}
	case kindOption:
		m.Option = true
		m.Type = asset.Options
		m.Strike = in.Strike
		switch in.OptionType {
		case "put":
			m.OptionType = market.OptionPut
		default:
			m.OptionType = market.OptionCall
		}
	default:
		return nil, errInvalidInstrumentName
	}

	m.Contract = true
	m.Settle = settle
	m.SettleID = settle
	m.Inverse = settle == base
	m.Linear = !m.Inverse
	if expiry > 0 {
		m.Expiry = expiry
		m.ExpiryDatetime = types.Time(time.UnixMilli(expiry)).ISO8601()
	}
	optType := ""
	if m.Option {
		optType = m.OptionType
	}
	m.Symbol = market.Symbol(base, quote, settle, expiry, m.Strike, optType)
	return m, m.Validate()
}

// createMarketFromID synthesizes a canonical market from a well-formed
// instrument id that is absent from the loaded catalog, e.g. an expired
// option. Resolution must never fail for a well-formed but delisted id.
func createMarketFromID(id string) (*market.Market, error) {
	pair, remainder, _ := strings.Cut(id, "-")
	base, quote, isLinear := strings.Cut(pair, "_")
	settle := base
	if isLinear {
		settle = quote
	} else {
		quote = "USD"
	}
	if base == "" {
		return nil, errInvalidInstrumentName
	}

	m := &market.Market{
		ID:     id,
		Base:   base,
		Quote:  quote,
		BaseID: base,
	}

	if remainder == "" {
		if !isLinear {
			return nil, errInvalidInstrumentName
		}
		m.Spot = true
		m.Type = asset.Spot
		m.Symbol = market.Symbol(base, quote, "", 0, 0, "")
		return m, m.Validate()
	}

	m.Contract = true
	m.Settle = settle
	m.SettleID = settle
	m.Inverse = settle == base
	m.Linear = !m.Inverse

	parts := strings.Split(remainder, "-")
	switch {
	case parts[0] == "PERPETUAL":
		m.Swap = true
		m.Type = asset.Swap
	case len(parts) == 1:
		expiry, err := market.ParseExpiryCode(parts[0])
		if err != nil {
			return nil, errInvalidInstrumentName
		}
		m.Future = true
		m.Type = asset.Futures
		m.Expiry = expiry.UnixMilli()
		m.ExpiryDatetime = types.Time(expiry).ISO8601()
	case len(parts) == 3:
		expiry, err := market.ParseExpiryCode(parts[0])
		if err != nil {
			return nil, errInvalidInstrumentName
		}
		strike, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, errInvalidInstrumentName
		}
		m.Option = true
		m.Type = asset.Options
		m.Expiry = expiry.UnixMilli()
		m.ExpiryDatetime = types.Time(expiry).ISO8601()
		m.Strike = strike
		switch parts[2] {
		case "P":
			m.OptionType = market.OptionPut
		case "C":
			m.OptionType = market.OptionCall
		default:
			return nil, errInvalidInstrumentName
		}
	default:
		return nil, errInvalidInstrumentName
	}

	optType := ""
	if m.Option {
		optType = m.OptionType
	}
	m.Symbol = market.Symbol(m.Base, m.Quote, m.Settle, m.Expiry, m.Strike, optType)
	return m, m.Validate()
}

// resolveInstrument maps a venue instrument id to its canonical market,
// synthesizing a record when the catalog misses.
func (d *Deribit) resolveInstrument(id string) (*market.Market, error) {
	if d.Catalog.Loaded() {
		if m, err := d.Catalog.ByID(id); err == nil {
			return m, nil
		}
	}
	m, err := createMarketFromID(id)
	if err != nil {
		return nil, err
	}
	if d.Catalog.Loaded() {
		return d.Catalog.Add(*m)
	}
	return m, nil
}

func (d *Deribit) marketFromSymbol(ctx context.Context, symbol string) (*market.Market, error) {
	if err := d.EnsureMarkets(ctx, func(c context.Context) error {
		_, err := d.LoadMarkets(c, false)
		return err
	}); err != nil {
		return nil, err
	}
	return d.Catalog.BySymbol(symbol)
}

// FetchTicker retrieves and normalizes the ticker for a symbol.
func (d *Deribit) FetchTicker(ctx context.Context, symbol string) (*ticker.Price, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetTicker(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return d.parseTicker(raw, m), nil
}

// FetchTickers retrieves tickers for the requested symbols sequentially.
func (d *Deribit) FetchTickers(ctx context.Context, symbols []string) ([]ticker.Price, error) {
	out := make([]ticker.Price, 0, len(symbols))
	for _, s := range symbols {
		t, err := d.FetchTicker(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (d *Deribit) parseTicker(raw *TickerData, m *market.Market) *ticker.Price {
	if m == nil {
		m, _ = d.resolveInstrument(raw.InstrumentName)
	}
	p := &ticker.Price{
		Timestamp:   raw.Timestamp.UnixMilli(),
		Datetime:    raw.Timestamp.ISO8601(),
		High:        raw.Stats.High,
		Low:         raw.Stats.Low,
		Bid:         raw.BestBidPrice,
		BidSize:     raw.BestBidAmount,
		Ask:         raw.BestAskPrice,
		AskSize:     raw.BestAskAmount,
		Last:        raw.LastPrice,
		Change:      raw.Stats.PriceChange,
		BaseVolume:  raw.Stats.Volume,
		QuoteVolume: raw.Stats.VolumeUSD,
		MarkPrice:   raw.MarkPrice,
		IndexPrice:  raw.IndexPrice,
	}
	if m != nil {
		p.Symbol = m.Symbol
		if m.Option {
			p.Greeks = &ticker.Greeks{
				Delta: raw.GreeksData.Delta,
				Gamma: raw.GreeksData.Gamma,
				Vega:  raw.GreeksData.Vega,
				Theta: raw.GreeksData.Theta,
				Rho:   raw.GreeksData.Rho,
				IV:    raw.MarkIV,
			}
		}
	}
	return p
}

// FetchOrderBook retrieves and normalizes the depth snapshot for a symbol.
func (d *Deribit) FetchOrderBook(ctx context.Context, symbol string, limit int64) (*orderbook.Book, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetOrderbookData(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	book := &orderbook.Book{
		Symbol:    m.Symbol,
		Timestamp: raw.Timestamp.UnixMilli(),
		Datetime:  raw.Timestamp.ISO8601(),
		Bids:      parseBookSide(raw.Bids),
		Asks:      parseBookSide(raw.Asks),
	}
	return book, nil
}

func parseBookSide(levels [][]types.Number) []orderbook.Level {
	out := make([]orderbook.Level, 0, len(levels))
	for i := range levels {
		if len(levels[i]) < 2 {
			continue
		}
		out = append(out, orderbook.Level{Price: levels[i][0], Amount: levels[i][1]})
	}
	return out
}

// FetchTrades retrieves and normalizes recent public trades for a symbol.
func (d *Deribit) FetchTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetLastTradesByInstrument(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw.Trades))
	for i := range raw.Trades {
		out = append(out, *d.parsePublicTrade(&raw.Trades[i], m))
	}
	return out, nil
}

func (d *Deribit) parsePublicTrade(raw *PublicTradeData, m *market.Market) *trade.Data {
	if m == nil {
		m, _ = d.resolveInstrument(raw.InstrumentName)
	}
	t := &trade.Data{
		ID:        raw.TradeID,
		Timestamp: raw.Timestamp.UnixMilli(),
		Datetime:  raw.Timestamp.ISO8601(),
		Side:      order.MapSide(raw.Direction, orderSides),
		Price:     raw.Price,
		Amount:    raw.Amount,
		Cost:      trade.Cost(raw.Price, raw.Amount, m),
	}
	if m != nil {
		t.Symbol = m.Symbol
	}
	return t
}

func (d *Deribit) parseTrade(raw *TradeData, m *market.Market) *trade.Data {
	if m == nil {
		m, _ = d.resolveInstrument(raw.InstrumentName)
	}
	t := &trade.Data{
		ID:        raw.TradeID,
		OrderID:   raw.OrderID,
		Timestamp: raw.Timestamp.UnixMilli(),
		Datetime:  raw.Timestamp.ISO8601(),
		Side:      order.MapSide(raw.Direction, orderSides),
		Type:      order.MapType(raw.OrderType, orderTypes),
		Price:     raw.Price,
		Amount:    raw.Amount,
		Cost:      trade.Cost(raw.Price, raw.Amount, m),
		Fee: order.Fee{
			Currency: raw.FeeCurrency,
			Cost:     raw.Fee,
		},
	}
	switch raw.Liquidity {
	case "M":
		t.TakerOrMaker = "maker"
	case "T":
		t.TakerOrMaker = "taker"
	}
	if m != nil {
		t.Symbol = m.Symbol
	}
	return t
}

// resolutions supported by the chart endpoint
var chartResolutions = map[kline.Interval]string{
	kline.OneMin:                     "1",
	kline.ThreeMin:                   "3",
	kline.FiveMin:                    "5",
	kline.Interval(10 * time.Minute): "10",
	kline.FifteenMin:                 "15",
	kline.ThirtyMin:                  "30",
	kline.OneHour:                    "60",
	kline.TwoHour:                    "120",
	kline.Interval(3 * time.Hour):    "180",
	kline.SixHour:                    "360",
	kline.TwelveHour:                 "720",
	kline.OneDay:                     "1D",
}

// FetchOHLCV retrieves and normalizes candle data for a symbol.
func (d *Deribit) FetchOHLCV(ctx context.Context, symbol string, interval kline.Interval, start, end time.Time, limit int64) ([]kline.Candle, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	resolution, ok := chartResolutions[interval]
	if !ok {
		return nil, kline.ErrIntervalNotSupported
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-time.Duration(limit) * interval.Duration())
	}
	raw, err := d.GetTradingViewChartData(ctx, m.ID, resolution, start, end)
	if err != nil {
		return nil, err
	}
	if len(raw.Ticks) != len(raw.Open) || len(raw.Ticks) != len(raw.Close) {
		return nil, errInvalidResponseFormat
	}
	out := make([]kline.Candle, 0, len(raw.Ticks))
	for i := range raw.Ticks {
		out = append(out, kline.Candle{
			Timestamp: raw.Ticks[i].UnixMilli(),
			Open:      raw.Open[i],
			High:      raw.High[i],
			Low:       raw.Low[i],
			Close:     raw.Close[i],
			Volume:    raw.Volume[i],
		})
	}
	return out, nil
}

// FetchBalance retrieves the account summary for every settlement currency
// sequentially and normalizes the result.
func (d *Deribit) FetchBalance(ctx context.Context) (*account.Holdings, error) {
	holdings := &account.Holdings{
		Timestamp: time.Now().UnixMilli(),
		Balances:  make(map[string]account.Balance),
	}
	for _, ccy := range catalogCurrencies {
		summary, err := d.GetAccountSummary(ctx, ccy, false)
		if err != nil {
			return nil, err
		}
		if summary.Currency == "" {
			continue
		}
		used := types.NewNumberFromDecimal(
			summary.Balance.Decimal().Sub(summary.AvailableFunds.Decimal()))
		holdings.Balances[summary.Currency] = account.Balance{
			Currency: summary.Currency,
			Total:    summary.Balance,
			Free:     summary.AvailableFunds,
			Used:     used,
		}
	}
	return holdings, nil
}

// CreateOrder validates and submits an order, returning the canonical
// record.
func (d *Deribit) CreateOrder(ctx context.Context, s *order.Submit) (*order.Detail, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := d.marketFromSymbol(ctx, s.Symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("instrument_name", m.ID)
	params.Set("amount", s.Amount.String())
	switch s.Type {
	case order.Limit:
		params.Set("type", "limit")
		params.Set("price", s.Price.String())
	case order.Market:
		params.Set("type", "market")
	case order.Stop, order.StopMarket:
		params.Set("type", "stop_market")
		params.Set("trigger_price", s.TriggerPrice.String())
		params.Set("trigger", "last_price")
	case order.StopLimit:
		params.Set("type", "stop_limit")
		params.Set("price", s.Price.String())
		params.Set("trigger_price", s.TriggerPrice.String())
		params.Set("trigger", "last_price")
	default:
		return nil, errs.New(errs.NotSupported, d.Name, "", "order type "+s.Type.String())
	}
	if s.ClientOrderID != "" {
		params.Set("label", s.ClientOrderID)
	}
	if s.PostOnly {
		params.Set("post_only", "true")
	}
	if s.ReduceOnly {
		params.Set("reduce_only", "true")
	}
	switch s.TimeInForce {
	case order.ImmediateOrCancel:
		params.Set("time_in_force", "immediate_or_cancel")
	case order.FillOrKill:
		params.Set("time_in_force", "fill_or_kill")
	}

	var resp *PrivateTradeData
	if s.Side == order.Sell {
		resp, err = d.SubmitSell(ctx, params)
	} else {
		resp, err = d.SubmitBuy(ctx, params)
	}
	if err != nil {
		return nil, err
	}
	if resp.Order.OrderID == "" {
		return nil, errNoOrderDataReturned
	}
	return d.parseOrder(&resp.Order, m), nil
}

// EditOrder modifies an open order's price, amount or trigger.
func (d *Deribit) EditOrder(ctx context.Context, id string, s *order.Submit) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	params := url.Values{}
	params.Set("order_id", id)
	if s.Amount.IsSet() {
		params.Set("amount", s.Amount.String())
	}
	if s.Price.IsSet() {
		params.Set("price", s.Price.String())
	}
	if s.TriggerPrice.IsSet() {
		params.Set("trigger_price", s.TriggerPrice.String())
	}
	resp, err := d.SubmitEdit(ctx, params)
	if err != nil {
		return nil, err
	}
	return d.parseOrder(&resp.Order, nil), nil
}

// CancelOrder cancels a single order by id.
func (d *Deribit) CancelOrder(ctx context.Context, c *order.Cancel) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := d.SubmitCancel(ctx, c.ID)
	return err
}

// CancelAllOrders cancels all open orders, optionally scoped to one symbol,
// returning the number cancelled.
func (d *Deribit) CancelAllOrders(ctx context.Context, symbol string) (int64, error) {
	if symbol == "" {
		return d.SubmitCancelAll(ctx)
	}
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return d.SubmitCancelAllByInstrument(ctx, m.ID)
}

// FetchOrder retrieves one order by id.
func (d *Deribit) FetchOrder(ctx context.Context, id, _ string) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	raw, err := d.GetOrderState(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.parseOrder(raw, nil), nil
}

// FetchOpenOrders retrieves open orders scoped to a symbol, or across every
// settlement currency when no symbol is given.
func (d *Deribit) FetchOpenOrders(ctx context.Context, symbol string) ([]order.Detail, error) {
	var raw []OrderData
	if symbol != "" {
		m, err := d.marketFromSymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		raw, err = d.GetOpenOrdersByInstrument(ctx, m.ID)
		if err != nil {
			return nil, err
		}
	} else {
		for _, ccy := range catalogCurrencies {
			page, err := d.GetOpenOrdersByCurrency(ctx, ccy)
			if err != nil {
				return nil, err
			}
			raw = append(raw, page...)
		}
	}
	return d.parseOrders(raw), nil
}

// FetchClosedOrders retrieves order history for a symbol.
func (d *Deribit) FetchClosedOrders(ctx context.Context, symbol string, limit int64) ([]order.Detail, error) {
	if symbol == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "fetchClosedOrders requires a symbol")
	}
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetOrderHistoryByInstrument(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	return d.parseOrders(raw), nil
}

func (d *Deribit) parseOrders(raw []OrderData) []order.Detail {
	out := make([]order.Detail, 0, len(raw))
	for i := range raw {
		out = append(out, *d.parseOrder(&raw[i], nil))
	}
	return out
}

func (d *Deribit) parseOrder(raw *OrderData, m *market.Market) *order.Detail {
	if m == nil {
		m, _ = d.resolveInstrument(raw.InstrumentName)
	}
	det := &order.Detail{
		ID:            raw.OrderID,
		ClientOrderID: raw.Label,
		Timestamp:     raw.CreationTimestamp.UnixMilli(),
		Datetime:      raw.CreationTimestamp.ISO8601(),
		LastUpdated:   raw.LastUpdateTimestamp.UnixMilli(),
		Type:          order.MapType(raw.OrderType, orderTypes),
		Side:          order.MapSide(raw.Direction, orderSides),
		Price:         raw.Price,
		TriggerPrice:  raw.TriggerPrice,
		Amount:        raw.Amount,
		Average:       raw.AveragePrice,
		Filled:        raw.FilledAmount,
		Status:        order.MapStatus(raw.OrderState, orderStatuses),
		PostOnly:      raw.PostOnly,
		ReduceOnly:    raw.ReduceOnly,
	}
	if tif, ok := timeInForces[raw.TimeInForce]; ok {
		det.TimeInForce = tif
	}
	if m != nil {
		det.Symbol = m.Symbol
		det.Cost = trade.Cost(raw.AveragePrice, raw.FilledAmount, m)
		det.Fee = order.Fee{Currency: m.Settle, Cost: raw.Commission}
	}
	det.DeriveRemaining()
	return det
}

// FetchMyTrades retrieves private fills for a symbol.
func (d *Deribit) FetchMyTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	if symbol == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "fetchMyTrades requires a symbol")
	}
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetUserTradesByInstrument(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw.Trades))
	for i := range raw.Trades {
		out = append(out, *d.parseTrade(&raw.Trades[i], m))
	}
	return out, nil
}

// FetchPosition retrieves the open position on one market.
func (d *Deribit) FetchPosition(ctx context.Context, symbol string) (*futures.Position, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := d.GetPosition(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	p := d.parsePosition(raw)
	if p == nil {
		return nil, errInvalidResponseFormat
	}
	return p, nil
}

// FetchPositions retrieves open positions, optionally filtered by symbols.
func (d *Deribit) FetchPositions(ctx context.Context, symbols []string) ([]futures.Position, error) {
	filter := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		filter[s] = true
	}
	var out []futures.Position
	for _, ccy := range catalogCurrencies {
		raw, err := d.GetPositions(ctx, ccy, "")
		if err != nil {
			return nil, err
		}
		for i := range raw {
			p := d.parsePosition(&raw[i])
			if p == nil {
				continue
			}
			if len(filter) > 0 && !filter[p.Symbol] {
				continue
			}
			out = append(out, *p)
		}
	}
	return out, nil
}

func (d *Deribit) parsePosition(raw *PositionData) *futures.Position {
	m, err := d.resolveInstrument(raw.InstrumentName)
	if err != nil {
		return nil
	}
	side := futures.Long
	if raw.Direction == sideSell {
		side = futures.Short
	}
	return &futures.Position{
		Symbol:            m.Symbol,
		Side:              side,
		Contracts:         raw.Size.Abs(),
		EntryPrice:        raw.AveragePrice,
		MarkPrice:         raw.MarkPrice,
		Notional:          raw.Size.Abs().Mul(raw.MarkPrice),
		Leverage:          raw.Leverage,
		UnrealizedPnl:     raw.FloatingProfitLoss,
		RealizedPnl:       raw.RealizedProfitLoss,
		LiquidationPrice:  raw.EstimatedLiquidationPrice,
		MarginMode:        futures.Cross,
		InitialMargin:     raw.InitialMargin,
		MaintenanceMargin: raw.MaintenanceMargin,
	}
}

// FetchFundingRate derives the current funding snapshot from the perpetual's
// ticker.
func (d *Deribit) FetchFundingRate(ctx context.Context, symbol string) (*futures.FundingRate, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !m.Swap {
		return nil, errs.New(errs.NotSupported, d.Name, "", "funding rate requires a perpetual market")
	}
	raw, err := d.GetTicker(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &futures.FundingRate{
		Symbol:      m.Symbol,
		Timestamp:   raw.Timestamp.UnixMilli(),
		Datetime:    raw.Timestamp.ISO8601(),
		FundingRate: raw.CurrentFunding,
		MarkPrice:   raw.MarkPrice,
		IndexPrice:  raw.IndexPrice,
		Interval:    "8h",
	}, nil
}

// FetchOpenInterest reports the open interest a contract's ticker carries.
func (d *Deribit) FetchOpenInterest(ctx context.Context, symbol string) (*futures.OpenInterest, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if m.Spot {
		return nil, errs.New(errs.NotSupported, d.Name, "", "open interest requires a contract market")
	}
	raw, err := d.GetTicker(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	oi := &futures.OpenInterest{
		Symbol:       m.Symbol,
		Timestamp:    raw.Timestamp.UnixMilli(),
		Datetime:     raw.Timestamp.ISO8601(),
		OpenInterest: raw.OpenInterest,
	}
	// Inverse contracts report open interest as USD notional already.
	if m.Inverse {
		oi.Notional = raw.OpenInterest
	} else {
		oi.Notional = raw.OpenInterest.Mul(raw.MarkPrice)
	}
	return oi, nil
}

// FetchFundingRateHistory retrieves historical funding entries for a
// perpetual.
func (d *Deribit) FetchFundingRateHistory(ctx context.Context, symbol string, start, end time.Time, _ int64) ([]futures.FundingRate, error) {
	m, err := d.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-8 * time.Hour)
	}
	raw, err := d.GetFundingRateHistory(ctx, m.ID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]futures.FundingRate, 0, len(raw))
	for i := range raw {
		out = append(out, futures.FundingRate{
			Symbol:           m.Symbol,
			Timestamp:        raw[i].Timestamp.UnixMilli(),
			Datetime:         raw[i].Timestamp.ISO8601(),
			FundingRate:      raw[i].Interest8H,
			FundingTimestamp: raw[i].Timestamp.UnixMilli(),
			FundingDatetime:  raw[i].Timestamp.ISO8601(),
			IndexPrice:       raw[i].IndexPrice,
			Interval:         "8h",
		})
	}
	return out, nil
}

// FetchDeposits retrieves deposit history for a currency.
func (d *Deribit) FetchDeposits(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	if code == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "fetchDeposits requires a currency code")
	}
	raw, err := d.GetDeposits(ctx, code, limit)
	if err != nil {
		return nil, err
	}
	out := make([]account.Transaction, 0, len(raw.Data))
	for i := range raw.Data {
		dep := &raw.Data[i]
		out = append(out, account.Transaction{
			ID:        dep.TransactionID,
			TxID:      dep.TransactionID,
			Timestamp: dep.ReceivedTimestamp.UnixMilli(),
			Datetime:  dep.ReceivedTimestamp.ISO8601(),
			Address:   dep.Address,
			Type:      account.Deposit,
			Amount:    dep.Amount,
			Currency:  dep.Currency,
			Status:    account.MapTransactionStatus(dep.State, depositStatuses),
		})
	}
	return out, nil
}

// FetchWithdrawals retrieves withdrawal history for a currency.
func (d *Deribit) FetchWithdrawals(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	if code == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "fetchWithdrawals requires a currency code")
	}
	raw, err := d.GetWithdrawals(ctx, code, limit)
	if err != nil {
		return nil, err
	}
	out := make([]account.Transaction, 0, len(raw.Data))
	for i := range raw.Data {
		out = append(out, *parseWithdrawal(&raw.Data[i]))
	}
	return out, nil
}

func parseWithdrawal(raw *WithdrawData) *account.Transaction {
	return &account.Transaction{
		ID:        strconv.FormatInt(raw.ID, 10),
		TxID:      raw.TransactionID,
		Timestamp: raw.CreatedTimestamp.UnixMilli(),
		Datetime:  raw.CreatedTimestamp.ISO8601(),
		Address:   raw.Address,
		Type:      account.Withdrawal,
		Amount:    raw.Amount,
		Currency:  raw.Currency,
		Status:    account.MapTransactionStatus(raw.State, withdrawalStatuses),
		Fee:       raw.Fee,
	}
}

// Transfer moves funds to a subaccount (numeric destination) or another
// user account.
func (d *Deribit) Transfer(ctx context.Context, code string, amount types.Number, _, toAccount string) (*account.Transfer, error) {
	if code == "" || toAccount == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "transfer requires a currency code and destination")
	}
	var (
		raw *TransferData
		err error
	)
	if _, convErr := strconv.ParseInt(toAccount, 10, 64); convErr == nil {
		raw, err = d.SubmitTransferToSubaccount(ctx, code, amount.Float64(), toAccount)
	} else {
		raw, err = d.SubmitTransferToUser(ctx, code, amount.Float64(), toAccount)
	}
	if err != nil {
		return nil, err
	}
	return &account.Transfer{
		ID:        strconv.FormatInt(raw.ID, 10),
		Timestamp: raw.CreatedTimestamp.UnixMilli(),
		Datetime:  raw.CreatedTimestamp.ISO8601(),
		Currency:  raw.Currency,
		Amount:    raw.Amount,
		ToAccount: raw.OtherSide,
		Status:    mapTransferStatus(raw.State),
	}, nil
}

func mapTransferStatus(state string) account.TransferStatus {
	if s, ok := transferStatuses[state]; ok {
		return s
	}
	return account.TransferStatus(state)
}

// Withdraw requests an on-chain withdrawal and returns the canonical
// transaction.
func (d *Deribit) Withdraw(ctx context.Context, code, address, _ string, amount types.Number) (*account.Transaction, error) {
	if code == "" || address == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "withdraw requires a currency code and address")
	}
	raw, err := d.SubmitWithdraw(ctx, code, address, amount.Float64())
	if err != nil {
		return nil, err
	}
	return parseWithdrawal(raw), nil
}

// FetchDepositAddress retrieves the active deposit address for a currency.
func (d *Deribit) FetchDepositAddress(ctx context.Context, code string) (*account.DepositAddress, error) {
	if code == "" {
		return nil, errs.New(errs.ArgumentsRequired, d.Name, "", "fetchDepositAddress requires a currency code")
	}
	raw, err := d.GetCurrentDepositAddress(ctx, code)
	if err != nil {
		return nil, err
	}
	return &account.DepositAddress{
		Currency: raw.Currency,
		Address:  raw.Address,
	}, nil
}
