package woo

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

// LoadMarkets populates the market catalog, cached until an explicit reload.
func (w *WOO) LoadMarkets(ctx context.Context, reload bool) ([]market.Market, error) {
	if w.Catalog.Loaded() && !reload {
		return w.Catalog.Markets(), nil
	}
	markets, err := w.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.Catalog.Load(markets); err != nil {
		return nil, err
	}
	return w.Catalog.Markets(), nil
}

// FetchMarkets retrieves and normalizes all listed instruments.
func (w *WOO) FetchMarkets(ctx context.Context) ([]market.Market, error) {
	raw, err := w.GetExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	markets := make([]market.Market, 0, len(raw.Rows))
	for i := range raw.Rows {
		m, err := buildMarket(&raw.Rows[i])
		if err != nil {
			continue
		}
		markets = append(markets, *m)
	}
	return markets, nil
}

// createMarketFromID synthesizes a canonical market record from a venue
// instrument id alone. The id grammar (SPOT_BASE_QUOTE, PERP_BASE_QUOTE)
// carries everything the record needs, so instruments that have dropped out
// of the listing can still be normalized.
func createMarketFromID(id string) (*market.Market, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return nil, errInvalidSymbol
	}
	m := &market.Market{
		ID:      id,
		Base:    parts[1],
		Quote:   parts[2],
		BaseID:  parts[1],
		QuoteID: parts[2],
	}
	switch parts[0] {
	case symbolPrefixSpot:
		m.Spot = true
		m.Type = asset.Spot
		m.Symbol = market.Symbol(m.Base, m.Quote, "", 0, 0, "")
	case symbolPrefixPerp:
		// Perpetuals settle in the quote currency.
		m.Swap = true
		m.Type = asset.Swap
		m.Contract = true
		m.Linear = true
		m.Settle = parts[2]
		m.SettleID = parts[2]
		m.ContractSize = 1
		m.Symbol = market.Symbol(m.Base, m.Quote, m.Settle, 0, 0, "")
	default:
		return nil, errInvalidSymbol
	}
	return m, m.Validate()
}

// buildMarket normalizes one raw instrument record.
func buildMarket(row *InfoRow) (*market.Market, error) {
	m, err := createMarketFromID(row.Symbol)
	if err != nil {
		return nil, err
	}
	m.Active = row.IsTrading
	m.Precision = market.Precision{
		Amount: row.BaseTick.Float64(),
		Price:  row.QuoteTick.Float64(),
	}
	m.Limits = market.Limits{
		Amount: market.MinMax{Min: row.BaseMin.Float64(), Max: row.BaseMax.Float64()},
		Price:  market.MinMax{Min: row.QuoteMin.Float64(), Max: row.QuoteMax.Float64()},
		Cost:   market.MinMax{Min: row.MinNotional.Float64()},
	}
	m.Created = row.CreatedTime.UnixMilli()
	return m, nil
}

// FetchCurrencies retrieves and normalizes the supported token set with
// per-chain policies.
func (w *WOO) FetchCurrencies(ctx context.Context) (map[string]market.Currency, error) {
	tokens, err := w.GetTokens(ctx)
	if err != nil {
		return nil, err
	}
	networks, err := w.GetTokenNetworks(ctx)
	if err != nil {
		return nil, err
	}
	byToken := make(map[string][]TokenNetworkRow)
	for i := range networks.Rows {
		n := networks.Rows[i]
		byToken[n.Token] = append(byToken[n.Token], n)
	}
	out := make(map[string]market.Currency, len(tokens.Rows))
	for i := range tokens.Rows {
		t := &tokens.Rows[i]
		rec := market.Currency{
			Code:      t.Token,
			ID:        t.Token,
			Name:      t.Fullname,
			Precision: float64(t.Decimals),
			Active:    !t.Delisted,
		}
		chains := byToken[t.Token]
		if len(chains) > 0 {
			rec.Networks = make(map[string]market.Network, len(chains))
			for j := range chains {
				n := &chains[j]
				deposit := n.AllowDeposit == 1
				withdraw := n.AllowWithdraw == 1
				rec.Networks[n.Protocol] = market.Network{
					ID:       n.Protocol,
					Network:  n.Protocol,
					Active:   deposit || withdraw,
					Deposit:  deposit,
					Withdraw: withdraw,
					Fee:      n.WithdrawalFee.Float64(),
				}
				rec.Deposit = rec.Deposit || deposit
				rec.Withdraw = rec.Withdraw || withdraw
				if j == 0 {
					rec.Fee = n.WithdrawalFee.Float64()
				}
			}
		}
		out[t.Token] = rec
	}
	w.Catalog.LoadCurrencies(out)
	return out, nil
}

func (w *WOO) marketFromSymbol(ctx context.Context, symbol string) (*market.Market, error) {
	if err := w.EnsureMarkets(ctx, func(c context.Context) error {
		_, err := w.LoadMarkets(c, false)
		return err
	}); err != nil {
		return nil, err
	}
	return w.Catalog.BySymbol(symbol)
}

// lookupMarket resolves a venue instrument id against the catalog, falling
// back to synthesis when the id is no longer listed.
func (w *WOO) lookupMarket(ctx context.Context, id string) *market.Market {
	if err := w.EnsureMarkets(ctx, func(c context.Context) error {
		_, err := w.LoadMarkets(c, false)
		return err
	}); err != nil {
		return nil
	}
	if m, err := w.Catalog.ByID(id); err == nil {
		return m
	}
	m, err := createMarketFromID(id)
	if err != nil {
		return nil
	}
	if w.Catalog.Loaded() {
		if added, err := w.Catalog.Add(*m); err == nil {
			return added
		}
	}
	return m
}

// FetchTicker retrieves and normalizes a ticker snapshot. Perpetuals are
// served from the contract stats endpoint; spot markets from the latest
// daily bar, which is the closest snapshot the venue publishes.
func (w *WOO) FetchTicker(ctx context.Context, symbol string) (*ticker.Price, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if m.Contract {
		raw, err := w.GetFuturesStat(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		return parseFuturesTicker(raw, m, time.Now().UnixMilli()), nil
	}
	raw, err := w.GetKline(ctx, m.ID, "1d", 1)
	if err != nil {
		return nil, err
	}
	if len(raw.Rows) == 0 {
		return nil, errInvalidResponseFormat
	}
	bar := &raw.Rows[0]
	return &ticker.Price{
		Symbol:      m.Symbol,
		Timestamp:   bar.StartTimestamp.UnixMilli(),
		Datetime:    bar.StartTimestamp.ISO8601(),
		High:        bar.High,
		Low:         bar.Low,
		Open:        bar.Open,
		Close:       bar.Close,
		Last:        bar.Close,
		BaseVolume:  bar.Volume,
		QuoteVolume: bar.Amount,
	}, nil
}

// FetchTickers retrieves tickers for the requested symbols. Contract
// symbols share one stats request; spot symbols fall back to per-symbol
// snapshots.
func (w *WOO) FetchTickers(ctx context.Context, symbols []string) ([]ticker.Price, error) {
	var stats map[string]*FuturesRow
	var statsTS int64
	out := make([]ticker.Price, 0, len(symbols))
	for _, s := range symbols {
		m, err := w.marketFromSymbol(ctx, s)
		if err != nil {
			return nil, err
		}
		if !m.Contract {
			p, err := w.FetchTicker(ctx, s)
			if err != nil {
				return nil, err
			}
			out = append(out, *p)
			continue
		}
		if stats == nil {
			raw, err := w.GetFuturesStats(ctx)
			if err != nil {
				return nil, err
			}
			stats = make(map[string]*FuturesRow, len(raw.Rows))
			for i := range raw.Rows {
				stats[raw.Rows[i].Symbol] = &raw.Rows[i]
			}
			statsTS = raw.Timestamp.UnixMilli()
		}
		row, ok := stats[m.ID]
		if !ok {
			continue
		}
		out = append(out, *parseFuturesTicker(row, m, statsTS))
	}
	return out, nil
}

func parseFuturesTicker(raw *FuturesRow, m *market.Market, ts int64) *ticker.Price {
	return &ticker.Price{
		Symbol:      m.Symbol,
		Timestamp:   ts,
		Datetime:    types.Time(time.UnixMilli(ts)).ISO8601(),
		High:        raw.High24H,
		Low:         raw.Low24H,
		Open:        raw.Open24H,
		Close:       raw.Close24H,
		Last:        raw.Close24H,
		BaseVolume:  raw.Volume24H,
		QuoteVolume: raw.Amount24H,
		MarkPrice:   raw.MarkPrice,
		IndexPrice:  raw.IndexPrice,
	}
}

// FetchOrderBook retrieves and normalizes the depth snapshot for a symbol.
func (w *WOO) FetchOrderBook(ctx context.Context, symbol string, limit int64) (*orderbook.Book, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := w.GetOrderbook(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	return &orderbook.Book{
		Symbol:    m.Symbol,
		Timestamp: raw.Timestamp.UnixMilli(),
		Datetime:  raw.Timestamp.ISO8601(),
		Bids:      parseBookSide(raw.Bids),
		Asks:      parseBookSide(raw.Asks),
	}, nil
}

func parseBookSide(levels []OrderbookRow) []orderbook.Level {
	out := make([]orderbook.Level, 0, len(levels))
	for i := range levels {
		out = append(out, orderbook.Level{Price: levels[i].Price, Amount: levels[i].Quantity})
	}
	return out
}

// FetchTrades retrieves and normalizes recent public trades for a symbol.
func (w *WOO) FetchTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := w.GetMarketTrades(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw.Rows))
	for i := range raw.Rows {
		t := &raw.Rows[i]
		out = append(out, trade.Data{
			Symbol:    m.Symbol,
			Timestamp: t.ExecutedTimestamp.UnixMilli(),
			Datetime:  t.ExecutedTimestamp.ISO8601(),
			Side:      order.MapSide(t.Side, orderSides),
			Price:     t.ExecutedPrice,
			Amount:    t.ExecutedQuantity,
			Cost:      trade.Cost(t.ExecutedPrice, t.ExecutedQuantity, m),
		})
	}
	return out, nil
}

// kline interval strings supported by the venue
var klineIntervals = map[kline.Interval]string{
	kline.OneMin:     "1m",
	kline.FiveMin:    "5m",
	kline.FifteenMin: "15m",
	kline.ThirtyMin:  "30m",
	kline.OneHour:    "1h",
	kline.FourHour:   "4h",
	kline.TwelveHour: "12h",
	kline.OneDay:     "1d",
	kline.OneWeek:    "1w",
}

// FetchOHLCV retrieves and normalizes candle data for a symbol.
func (w *WOO) FetchOHLCV(ctx context.Context, symbol string, interval kline.Interval, start, end time.Time, limit int64) ([]kline.Candle, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	period, ok := klineIntervals[interval]
	if !ok {
		return nil, kline.ErrIntervalNotSupported
	}
	raw, err := w.GetKline(ctx, m.ID, period, limit)
	if err != nil {
		return nil, err
	}
	out := make([]kline.Candle, 0, len(raw.Rows))
	for i := range raw.Rows {
		bar := &raw.Rows[i]
		out = append(out, kline.Candle{
			Timestamp: bar.StartTimestamp.UnixMilli(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	return out, nil
}

// FetchBalance retrieves the token holdings as one canonical snapshot.
func (w *WOO) FetchBalance(ctx context.Context) (*account.Holdings, error) {
	raw, err := w.GetHolding(ctx)
	if err != nil {
		return nil, err
	}
	holdings := &account.Holdings{
		Timestamp: time.Now().UnixMilli(),
		Balances:  make(map[string]account.Balance, len(raw.Holding)),
	}
	for i := range raw.Holding {
		b := &raw.Holding[i]
		holdings.Balances[b.Token] = account.Balance{
			Currency: b.Token,
			Free:     types.NewNumberFromDecimal(b.Holding.Decimal().Sub(b.Frozen.Decimal())),
			Used:     b.Frozen,
			Total:    b.Holding,
		}
	}
	return holdings, nil
}

// submitType renders a canonical order request as the venue's order_type
// value, which folds time in force and post-only into the type itself.
func submitType(s *order.Submit) (string, error) {
	switch s.Type {
	case order.Market:
		return "MARKET", nil
	case order.Limit:
		switch {
		case s.PostOnly:
			return "POST_ONLY", nil
		case s.TimeInForce == order.ImmediateOrCancel:
			return "IOC", nil
		case s.TimeInForce == order.FillOrKill:
			return "FOK", nil
		default:
			return "LIMIT", nil
		}
	default:
		return "", errs.New(errs.NotSupported, "WOO", "", "order type "+s.Type.String())
	}
}

// CreateOrder validates and submits an order. Trigger orders route to the
// v3 algo surface; everything else is a v1 form submission.
func (w *WOO) CreateOrder(ctx context.Context, s *order.Submit) (*order.Detail, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := w.marketFromSymbol(ctx, s.Symbol)
	if err != nil {
		return nil, err
	}
	if s.TriggerPrice.IsSet() {
		return w.createAlgoOrder(ctx, s, m)
	}
	venueType, err := submitType(s)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbol", m.ID)
	params.Set("side", strings.ToUpper(s.Side.String()))
	params.Set("order_type", venueType)
	params.Set("order_quantity", s.Amount.String())
	if s.Price.IsSet() {
		params.Set("order_price", s.Price.String())
	}
	if s.ClientOrderID != "" {
		params.Set("client_order_id", s.ClientOrderID)
	}
	if s.ReduceOnly {
		params.Set("reduce_only", "true")
	}
	raw, err := w.SubmitOrder(ctx, params)
	if err != nil {
		return nil, err
	}
	det := &order.Detail{
		ID:            strconv.FormatInt(raw.OrderID, 10),
		ClientOrderID: s.ClientOrderID,
		Timestamp:     raw.Timestamp.UnixMilli(),
		Datetime:      raw.Timestamp.ISO8601(),
		Symbol:        m.Symbol,
		Type:          s.Type,
		Side:          s.Side,
		Price:         s.Price,
		Amount:        raw.OrderQuantity,
		Status:        order.Open,
		TimeInForce:   s.TimeInForce,
		PostOnly:      s.PostOnly,
		ReduceOnly:    s.ReduceOnly,
	}
	if !det.Amount.IsSet() {
		det.Amount = s.Amount
	}
	return det, nil
}

func (w *WOO) createAlgoOrder(ctx context.Context, s *order.Submit, m *market.Market) (*order.Detail, error) {
	venueType := "LIMIT"
	if s.Type == order.Market || s.Type == order.StopMarket {
		venueType = "MARKET"
	}
	raw, err := w.SubmitAlgoOrder(ctx, &AlgoOrderRequest{
		Symbol:        m.ID,
		AlgoType:      "STOP",
		Type:          venueType,
		Side:          strings.ToUpper(s.Side.String()),
		Quantity:      s.Amount,
		Price:         s.Price,
		TriggerPrice:  s.TriggerPrice,
		ClientOrderID: s.ClientOrderID,
		ReduceOnly:    s.ReduceOnly,
	})
	if err != nil {
		return nil, err
	}
	if len(raw.Data.Rows) == 0 {
		return nil, errInvalidResponseFormat
	}
	return &order.Detail{
		ID:            strconv.FormatInt(raw.Data.Rows[0].OrderID, 10),
		ClientOrderID: raw.Data.Rows[0].ClientOrderID,
		Symbol:        m.Symbol,
		Type:          s.Type,
		Side:          s.Side,
		Price:         s.Price,
		TriggerPrice:  s.TriggerPrice,
		Amount:        s.Amount,
		Status:        order.Open,
		ReduceOnly:    s.ReduceOnly,
	}, nil
}

// EditOrder modifies the price or quantity of an open order.
func (w *WOO) EditOrder(ctx context.Context, id string, s *order.Submit) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, order.ErrOrderIDUnset
	}
	if err := w.AmendOrder(ctx, orderID, &AmendOrderRequest{
		Quantity: s.Amount,
		Price:    s.Price,
	}); err != nil {
		return nil, err
	}
	raw, err := w.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return w.parseOrder(ctx, raw), nil
}

// CancelOrder cancels a single order. The venue addresses cancellations by
// symbol and numeric order id.
func (w *WOO) CancelOrder(ctx context.Context, c *order.Cancel) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Symbol == "" {
		return errs.New(errs.ArgumentsRequired, w.Name, "", "cancelOrder requires a symbol")
	}
	m, err := w.marketFromSymbol(ctx, c.Symbol)
	if err != nil {
		return err
	}
	orderID, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil {
		return order.ErrOrderIDUnset
	}
	_, err = w.CancelOrderByID(ctx, m.ID, orderID)
	return err
}

// CancelAllOrders cancels all open orders on one symbol, returning the
// number that were open when the sweep was issued.
func (w *WOO) CancelAllOrders(ctx context.Context, symbol string) (int64, error) {
	if symbol == "" {
		return 0, errs.New(errs.ArgumentsRequired, w.Name, "", "cancelAllOrders requires a symbol")
	}
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	open, err := w.GetOrders(ctx, m.ID, "INCOMPLETE", 0)
	if err != nil {
		return 0, err
	}
	if _, err := w.CancelOrders(ctx, m.ID); err != nil {
		return 0, err
	}
	return int64(len(open.Rows)), nil
}

// FetchOrder retrieves one order by id.
func (w *WOO) FetchOrder(ctx context.Context, id, _ string) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, order.ErrOrderIDUnset
	}
	raw, err := w.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return w.parseOrder(ctx, raw), nil
}

// FetchOpenOrders retrieves open orders, scoped to one symbol when given.
func (w *WOO) FetchOpenOrders(ctx context.Context, symbol string) ([]order.Detail, error) {
	return w.fetchOrders(ctx, symbol, "INCOMPLETE", 0)
}

// FetchClosedOrders retrieves completed orders, scoped to one symbol when
// given.
func (w *WOO) FetchClosedOrders(ctx context.Context, symbol string, limit int64) ([]order.Detail, error) {
	return w.fetchOrders(ctx, symbol, "COMPLETED", limit)
}

func (w *WOO) fetchOrders(ctx context.Context, symbol, status string, limit int64) ([]order.Detail, error) {
	var id string
	if symbol != "" {
		m, err := w.marketFromSymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		id = m.ID
	}
	raw, err := w.GetOrders(ctx, id, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]order.Detail, 0, len(raw.Rows))
	for i := range raw.Rows {
		out = append(out, *w.parseOrder(ctx, &raw.Rows[i]))
	}
	return out, nil
}

func (w *WOO) parseOrder(ctx context.Context, raw *OrderRow) *order.Detail {
	m := w.lookupMarket(ctx, raw.Symbol)
	det := &order.Detail{
		ID:          strconv.FormatInt(raw.OrderID, 10),
		Timestamp:   raw.CreatedTime.UnixMilli(),
		Datetime:    raw.CreatedTime.ISO8601(),
		LastUpdated: raw.UpdatedTime.UnixMilli(),
		Type:        order.MapType(raw.Type, orderTypes),
		Side:        order.MapSide(raw.Side, orderSides),
		Price:       raw.Price,
		Amount:      raw.Quantity,
		Average:     raw.AverageExecutedPrice,
		Filled:      raw.Executed,
		Status:      order.MapStatus(raw.Status, orderStatuses),
		ReduceOnly:  raw.ReduceOnly,
		Fee:         order.Fee{Cost: raw.TotalFee, Currency: raw.FeeAsset},
	}
	if raw.ClientOrderID != 0 {
		det.ClientOrderID = strconv.FormatInt(raw.ClientOrderID, 10)
	}
	switch raw.Type {
	case "IOC":
		det.TimeInForce = order.ImmediateOrCancel
	case "FOK":
		det.TimeInForce = order.FillOrKill
	case "POST_ONLY":
		det.PostOnly = true
	}
	if m != nil {
		det.Symbol = m.Symbol
		det.Cost = trade.Cost(raw.AverageExecutedPrice, raw.Executed, m)
	} else {
		det.Symbol = raw.Symbol
	}
	det.DeriveRemaining()
	return det
}

// FetchMyTrades retrieves private fills, scoped to one symbol when given.
func (w *WOO) FetchMyTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	var id string
	if symbol != "" {
		m, err := w.marketFromSymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		id = m.ID
	}
	raw, err := w.GetClientTrades(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw.Rows))
	for i := range raw.Rows {
		f := &raw.Rows[i]
		m := w.lookupMarket(ctx, f.Symbol)
		t := trade.Data{
			ID:        strconv.FormatInt(f.ID, 10),
			OrderID:   strconv.FormatInt(f.OrderID, 10),
			Timestamp: f.ExecutedTimestamp.UnixMilli(),
			Datetime:  f.ExecutedTimestamp.ISO8601(),
			Side:      order.MapSide(f.Side, orderSides),
			Type:      order.MapType(f.OrderType, orderTypes),
			Price:     f.ExecutedPrice,
			Amount:    f.ExecutedQuantity,
			Cost:      trade.Cost(f.ExecutedPrice, f.ExecutedQuantity, m),
			Fee:       order.Fee{Cost: f.Fee, Currency: f.FeeAsset},
		}
		if f.IsMaker == 1 {
			t.TakerOrMaker = "maker"
		} else {
			t.TakerOrMaker = "taker"
		}
		if m != nil {
			t.Symbol = m.Symbol
		} else {
			t.Symbol = f.Symbol
		}
		out = append(out, t)
	}
	return out, nil
}

// FetchPosition retrieves the open position on one market.
func (w *WOO) FetchPosition(ctx context.Context, symbol string) (*futures.Position, error) {
	positions, err := w.FetchPositions(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, errs.New(errs.OrderNotFound, w.Name, "", "no open position for "+symbol)
	}
	return &positions[0], nil
}

// FetchPositions retrieves open positions, optionally filtered by symbols.
func (w *WOO) FetchPositions(ctx context.Context, symbols []string) ([]futures.Position, error) {
	filter := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		filter[s] = true
	}
	raw, err := w.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	var out []futures.Position
	for i := range raw.Data.Positions {
		p := w.parsePosition(ctx, &raw.Data.Positions[i])
		if p == nil {
			continue
		}
		if len(filter) > 0 && !filter[p.Symbol] {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (w *WOO) parsePosition(ctx context.Context, raw *PositionV3) *futures.Position {
	if raw.Holding.IsZero() {
		return nil
	}
	side := futures.Long
	if strings.EqualFold(raw.PositionSide, "SHORT") || raw.Holding.Decimal().Sign() < 0 {
		side = futures.Short
	}
	mode := futures.Cross
	if strings.EqualFold(raw.MarginMode, "ISOLATED") {
		mode = futures.Isolated
	}
	p := &futures.Position{
		Symbol:           raw.Symbol,
		Timestamp:        raw.Timestamp.UnixMilli(),
		Datetime:         raw.Timestamp.ISO8601(),
		Side:             side,
		Contracts:        raw.Holding.Abs(),
		EntryPrice:       raw.AverageOpenPrice,
		MarkPrice:        raw.MarkPrice,
		UnrealizedPnl:    raw.UnrealPnl,
		LiquidationPrice: raw.EstLiqPrice,
		Leverage:         raw.Leverage,
		MarginMode:       mode,
		Notional:         raw.Holding.Abs().Mul(raw.MarkPrice),
	}
	if m := w.lookupMarket(ctx, raw.Symbol); m != nil {
		p.Symbol = m.Symbol
	}
	return p
}

// FetchFundingRate retrieves the current funding snapshot for a perpetual.
func (w *WOO) FetchFundingRate(ctx context.Context, symbol string) (*futures.FundingRate, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !m.Swap {
		return nil, errs.New(errs.NotSupported, w.Name, "", "funding rate requires a perpetual market")
	}
	raw, err := w.GetFundingRate(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &futures.FundingRate{
		Symbol:           m.Symbol,
		Timestamp:        raw.Timestamp.UnixMilli(),
		Datetime:         raw.Timestamp.ISO8601(),
		FundingRate:      raw.LastFundingRate,
		FundingTimestamp: raw.NextFundingTime.UnixMilli(),
		FundingDatetime:  raw.NextFundingTime.ISO8601(),
		Interval:         "8h",
	}, nil
}

// FetchFundingRateHistory retrieves historical funding entries for a
// perpetual.
func (w *WOO) FetchFundingRateHistory(ctx context.Context, symbol string, start, end time.Time, limit int64) ([]futures.FundingRate, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := w.GetFundingRateHistory(ctx, m.ID, start, end)
	if err != nil {
		return nil, err
	}
	rows := raw.Rows
	if limit > 0 && int64(len(rows)) > limit {
		rows = rows[:limit]
	}
	out := make([]futures.FundingRate, 0, len(rows))
	for i := range rows {
		out = append(out, futures.FundingRate{
			Symbol:           m.Symbol,
			Timestamp:        rows[i].FundingRateTimestamp.UnixMilli(),
			Datetime:         rows[i].FundingRateTimestamp.ISO8601(),
			FundingRate:      rows[i].FundingRate,
			FundingTimestamp: rows[i].FundingRateTimestamp.UnixMilli(),
			FundingDatetime:  rows[i].FundingRateTimestamp.ISO8601(),
			Interval:         "8h",
		})
	}
	return out, nil
}

// FetchDeposits retrieves deposit history, optionally scoped to a token.
func (w *WOO) FetchDeposits(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	raw, err := w.GetAssetHistory(ctx, code, "DEPOSIT")
	if err != nil {
		return nil, err
	}
	return parseTransactions(raw.Rows, account.Deposit, limit), nil
}

// FetchWithdrawals retrieves withdrawal history, optionally scoped to a
// token.
func (w *WOO) FetchWithdrawals(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	raw, err := w.GetAssetHistory(ctx, code, "WITHDRAW")
	if err != nil {
		return nil, err
	}
	return parseTransactions(raw.Rows, account.Withdrawal, limit), nil
}

func parseTransactions(raw []AssetHistoryRow, txType account.TransactionType, limit int64) []account.Transaction {
	if limit > 0 && int64(len(raw)) > limit {
		raw = raw[:limit]
	}
	out := make([]account.Transaction, 0, len(raw))
	for i := range raw {
		t := &raw[i]
		address := t.TargetAddress
		if txType == account.Deposit {
			address = t.SourceAddress
		}
		out = append(out, account.Transaction{
			ID:        t.ID,
			TxID:      t.TxID,
			Timestamp: t.CreatedTime.UnixMilli(),
			Datetime:  t.CreatedTime.ISO8601(),
			Address:   address,
			Type:      txType,
			Amount:    t.Amount,
			Currency:  t.Token,
			Status:    account.MapTransactionStatus(t.Status, transactionStatuses),
			Fee:       t.Fee,
		})
	}
	return out
}

// Transfer moves funds between the main account and a sub account.
func (w *WOO) Transfer(ctx context.Context, code string, amount types.Number, fromAccount, toAccount string) (*account.Transfer, error) {
	if code == "" || fromAccount == "" || toAccount == "" {
		return nil, errs.New(errs.ArgumentsRequired, w.Name, "", "transfer requires a token, source and destination")
	}
	raw, err := w.SubmitTransfer(ctx, code, amount, fromAccount, toAccount)
	if err != nil {
		return nil, err
	}
	if !raw.Success {
		return nil, errRequestNotAccepted
	}
	now := time.Now()
	return &account.Transfer{
		ID:          strconv.FormatInt(raw.ID, 10),
		Timestamp:   now.UnixMilli(),
		Datetime:    types.Time(now).ISO8601(),
		Currency:    code,
		Amount:      amount,
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Status:      account.TransferOK,
	}, nil
}

// Withdraw requests an on-chain withdrawal and returns the canonical
// transaction.
func (w *WOO) Withdraw(ctx context.Context, code, address, tag string, amount types.Number) (*account.Transaction, error) {
	if code == "" || address == "" {
		return nil, errs.New(errs.ArgumentsRequired, w.Name, "", "withdraw requires a token and address")
	}
	if tag != "" {
		address = address + ":" + tag
	}
	raw, err := w.SubmitWithdraw(ctx, code, address, amount)
	if err != nil {
		return nil, err
	}
	if !raw.Success {
		return nil, errRequestNotAccepted
	}
	now := time.Now()
	return &account.Transaction{
		ID:        strconv.FormatInt(raw.WithdrawID, 10),
		Timestamp: now.UnixMilli(),
		Datetime:  types.Time(now).ISO8601(),
		Address:   address,
		Type:      account.Withdrawal,
		Amount:    amount,
		Currency:  code,
		Status:    account.TransactionPending,
	}, nil
}

// FetchDepositAddress retrieves the deposit address for a token.
func (w *WOO) FetchDepositAddress(ctx context.Context, code string) (*account.DepositAddress, error) {
	if code == "" {
		return nil, errs.New(errs.ArgumentsRequired, w.Name, "", "fetchDepositAddress requires a token")
	}
	raw, err := w.GetDepositAddress(ctx, code)
	if err != nil {
		return nil, err
	}
	if raw.Address == "" {
		return nil, errInvalidResponseFormat
	}
	return &account.DepositAddress{
		Currency: code,
		Address:  raw.Address,
		Tag:      raw.Extra,
	}, nil
}

// SetLeverage sets the account-wide leverage. The venue applies one
// leverage across all perpetuals.
func (w *WOO) SetLeverage(ctx context.Context, symbol string, leverage types.Number) (*futures.Leverage, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !m.Contract {
		return nil, errs.New(errs.NotSupported, w.Name, "", "leverage requires a contract market")
	}
	if err := w.SetAccountLeverage(ctx, int64(leverage.Float64())); err != nil {
		return nil, err
	}
	return &futures.Leverage{
		Symbol:     m.Symbol,
		MarginMode: futures.Cross,
		Leverage:   leverage,
	}, nil
}

// FetchLeverage retrieves the account-wide leverage setting.
func (w *WOO) FetchLeverage(ctx context.Context, symbol string) (*futures.Leverage, error) {
	m, err := w.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	info, err := w.GetAccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &futures.Leverage{
		Symbol:     m.Symbol,
		MarginMode: futures.Cross,
		Leverage:   info.Data.Leverage,
	}, nil
}
