package hitbtc

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"

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
func (h *HitBTC) LoadMarkets(ctx context.Context, reload bool) ([]market.Market, error) {
	if h.Catalog.Loaded() && !reload {
		return h.Catalog.Markets(), nil
	}
	markets, err := h.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.Catalog.Load(markets); err != nil {
		return nil, err
	}
	return h.Catalog.Markets(), nil
}

// FetchMarkets retrieves and normalizes all listed instruments.
func (h *HitBTC) FetchMarkets(ctx context.Context) ([]market.Market, error) {
	raw, err := h.GetSymbols(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	markets := make([]market.Market, 0, len(ids))
	for _, id := range ids {
		s := raw[id]
		m, err := buildMarket(id, &s)
		if err != nil {
			continue
		}
		markets = append(markets, *m)
	}
	return markets, nil
}

// buildMarket normalizes one raw symbol record.
func buildMarket(id string, s *Symbol) (*market.Market, error) {
	m := &market.Market{
		ID:           id,
		Base:         s.BaseCurrency,
		Quote:        s.QuoteCurrency,
		BaseID:       s.BaseCurrency,
		QuoteID:      s.QuoteCurrency,
		Active:       s.Status == symbolStatusWorking,
		Taker:        s.TakeRate.Float64(),
		Maker:        s.MakeRate.Float64(),
		ContractSize: s.ContractSize.Float64(),
		Precision: market.Precision{
			Amount: s.QuantityIncrement.Float64(),
			Price:  s.TickSize.Float64(),
		},
		Limits: market.Limits{
			Amount:   market.MinMax{Min: s.QuantityIncrement.Float64()},
			Leverage: market.MinMax{Min: 1, Max: s.MaxInitialLeverage.Float64()},
		},
	}

	switch s.Type {
	case symbolTypeSpot:
		m.Spot = true
		m.Type = asset.Spot
		m.Margin = s.MarginTrading
		m.Symbol = market.Symbol(m.Base, m.Quote, "", 0, 0, "")
	case symbolTypeFutures:
		// Perpetual swaps settle in the quote currency.
		m.Swap = true
		m.Type = asset.Swap
		m.Contract = true
		m.Linear = true
		m.Settle = s.QuoteCurrency
		m.SettleID = s.QuoteCurrency
		m.Symbol = market.Symbol(m.Base, m.Quote, m.Settle, 0, 0, "")
	default:
		return nil, errInvalidResponseFormat
	}
	return m, m.Validate()
}

// FetchCurrencies retrieves and normalizes the supported currency set.
func (h *HitBTC) FetchCurrencies(ctx context.Context) (map[string]market.Currency, error) {
	raw, err := h.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]market.Currency, len(raw))
	for code, c := range raw {
		rec := market.Currency{
			Code:      code,
			ID:        code,
			Name:      c.FullName,
			Precision: c.PrecisionTransfer.Float64(),
			Active:    c.PayinEnabled || c.PayoutEnabled || c.TransferEnabled,
			Deposit:   c.PayinEnabled,
			Withdraw:  c.PayoutEnabled,
		}
		if len(c.Networks) > 0 {
			rec.Networks = make(map[string]market.Network, len(c.Networks))
			for i := range c.Networks {
				n := &c.Networks[i]
				rec.Networks[n.Network] = market.Network{
					ID:        n.Network,
					Network:   n.Network,
					Active:    n.PayinEnabled || n.PayoutEnabled,
					Deposit:   n.PayinEnabled,
					Withdraw:  n.PayoutEnabled,
					Fee:       n.PayoutFee.Float64(),
					Precision: n.PrecisionPayout.Float64(),
				}
				if n.IsDefault {
					rec.Fee = n.PayoutFee.Float64()
				}
			}
		}
		out[code] = rec
	}
	h.Catalog.LoadCurrencies(out)
	return out, nil
}

func (h *HitBTC) marketFromSymbol(ctx context.Context, symbol string) (*market.Market, error) {
	if err := h.EnsureMarkets(ctx, func(c context.Context) error {
		_, err := h.LoadMarkets(c, false)
		return err
	}); err != nil {
		return nil, err
	}
	return h.Catalog.BySymbol(symbol)
}

// categoryFor routes a market to the order endpoint group serving it.
func categoryFor(m *market.Market, marginMode string) string {
	switch {
	case m != nil && m.Contract:
		return categoryFutures
	case marginMode != "":
		return categoryMargin
	default:
		return categorySpot
	}
}

// FetchTicker retrieves and normalizes the ticker for a symbol.
func (h *HitBTC) FetchTicker(ctx context.Context, symbol string) (*ticker.Price, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := h.GetTicker(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return parseTicker(raw, m), nil
}

// FetchTickers retrieves tickers for the requested symbols in one request.
func (h *HitBTC) FetchTickers(ctx context.Context, symbols []string) ([]ticker.Price, error) {
	ids := make([]string, 0, len(symbols))
	byID := make(map[string]*market.Market, len(symbols))
	for _, s := range symbols {
		m, err := h.marketFromSymbol(ctx, s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}
	raw, err := h.GetTickers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ticker.Price, 0, len(raw))
	for _, id := range ids {
		t, ok := raw[id]
		if !ok {
			continue
		}
		out = append(out, *parseTicker(&t, byID[id]))
	}
	return out, nil
}

func parseTicker(raw *Ticker, m *market.Market) *ticker.Price {
	p := &ticker.Price{
		Timestamp:   raw.Timestamp.UnixMilli(),
		Datetime:    raw.Timestamp.ISO8601(),
		High:        raw.High,
		Low:         raw.Low,
		Bid:         raw.Bid,
		Ask:         raw.Ask,
		Open:        raw.Open,
		Last:        raw.Last,
		BaseVolume:  raw.Volume,
		QuoteVolume: raw.VolumeQuote,
	}
	if m != nil {
		p.Symbol = m.Symbol
	}
	return p
}

// FetchOrderBook retrieves and normalizes the depth snapshot for a symbol.
func (h *HitBTC) FetchOrderBook(ctx context.Context, symbol string, limit int64) (*orderbook.Book, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := h.GetOrderbook(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	return &orderbook.Book{
		Symbol:    m.Symbol,
		Timestamp: raw.Timestamp.UnixMilli(),
		Datetime:  raw.Timestamp.ISO8601(),
		Bids:      parseBookSide(raw.Bid),
		Asks:      parseBookSide(raw.Ask),
	}, nil
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
func (h *HitBTC) FetchTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := h.GetTrades(ctx, m.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw))
	for i := range raw {
		t := &raw[i]
		out = append(out, trade.Data{
			ID:        strconv.FormatInt(t.ID, 10),
			Symbol:    m.Symbol,
			Timestamp: t.Timestamp.UnixMilli(),
			Datetime:  t.Timestamp.ISO8601(),
			Side:      order.MapSide(t.Side, orderSides),
			Price:     t.Price,
			Amount:    t.Quantity,
			Cost:      trade.Cost(t.Price, t.Quantity, m),
		})
	}
	return out, nil
}

// candle periods supported by the venue
var candlePeriods = map[kline.Interval]string{
	kline.OneMin:     "M1",
	kline.ThreeMin:   "M3",
	kline.FiveMin:    "M5",
	kline.FifteenMin: "M15",
	kline.ThirtyMin:  "M30",
	kline.OneHour:    "H1",
	kline.FourHour:   "H4",
	kline.OneDay:     "D1",
	kline.OneWeek:    "D7",
}

// FetchOHLCV retrieves and normalizes candle data for a symbol.
func (h *HitBTC) FetchOHLCV(ctx context.Context, symbol string, interval kline.Interval, start, end time.Time, limit int64) ([]kline.Candle, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	period, ok := candlePeriods[interval]
	if !ok {
		return nil, kline.ErrIntervalNotSupported
	}
	raw, err := h.GetCandles(ctx, m.ID, period, limit)
	if err != nil {
		return nil, err
	}
	out := make([]kline.Candle, 0, len(raw))
	for i := range raw {
		out = append(out, kline.Candle{
			Timestamp: raw[i].Timestamp.UnixMilli(),
			Open:      raw[i].Open,
			High:      raw[i].Max,
			Low:       raw[i].Min,
			Close:     raw[i].Close,
			Volume:    raw[i].Volume,
		})
	}
	return out, nil
}

// FetchBalance merges the spot and derivatives wallets into one canonical
// holdings snapshot.
func (h *HitBTC) FetchBalance(ctx context.Context) (*account.Holdings, error) {
	holdings := &account.Holdings{
		Timestamp: time.Now().UnixMilli(),
		Balances:  make(map[string]account.Balance),
	}
	spot, err := h.GetSpotBalance(ctx)
	if err != nil {
		return nil, err
	}
	deriv, err := h.GetFuturesBalance(ctx)
	if err != nil {
		return nil, err
	}
	for _, page := range [][]Balance{spot, deriv} {
		for i := range page {
			b := &page[i]
			cur := holdings.Balances[b.Currency]
			cur.Currency = b.Currency
			cur.Free = cur.Free.Add(b.Available)
			cur.Used = cur.Used.Add(b.Reserved)
			cur.Total = cur.Total.Add(b.Available).Add(b.Reserved)
			holdings.Balances[b.Currency] = cur
		}
	}
	return holdings, nil
}

// venue order type strings keyed by canonical type
var submitTypes = map[order.Type]string{
	order.Limit:      "limit",
	order.Market:     "market",
	order.Stop:       "stopMarket",
	order.StopMarket: "stopMarket",
	order.StopLimit:  "stopLimit",
}

// CreateOrder validates and submits an order, returning the canonical
// record.
func (h *HitBTC) CreateOrder(ctx context.Context, s *order.Submit) (*order.Detail, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := h.marketFromSymbol(ctx, s.Symbol)
	if err != nil {
		return nil, err
	}
	venueType, ok := submitTypes[s.Type]
	if !ok {
		return nil, errs.New(errs.NotSupported, h.Name, "", "order type "+s.Type.String())
	}
	req := &OrderRequest{
		ClientOrderID: s.ClientOrderID,
		Symbol:        m.ID,
		Side:          s.Side.String(),
		Type:          venueType,
		TimeInForce:   string(s.TimeInForce),
		Quantity:      s.Amount,
		Price:         s.Price,
		StopPrice:     s.TriggerPrice,
		PostOnly:      s.PostOnly,
		ReduceOnly:    s.ReduceOnly,
		MarginMode:    s.MarginMode,
	}
	raw, err := h.PlaceOrder(ctx, categoryFor(m, s.MarginMode), req)
	if err != nil {
		return nil, err
	}
	return parseOrder(raw, m), nil
}

// EditOrder modifies an open order addressed by client order id. The venue
// requires a replacement client id, so one is generated when the caller
// does not supply it.
func (h *HitBTC) EditOrder(ctx context.Context, id string, s *order.Submit) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	var m *market.Market
	if s.Symbol != "" {
		var err error
		if m, err = h.marketFromSymbol(ctx, s.Symbol); err != nil {
			return nil, err
		}
	}
	newID := s.ClientOrderID
	if newID == "" {
		u, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		newID = strings.ReplaceAll(u.String(), "-", "")
	}
	raw, err := h.ReplaceOrder(ctx, categoryFor(m, s.MarginMode), id, &ReplaceOrderRequest{
		NewClientOrderID: newID,
		Quantity:         s.Amount,
		Price:            s.Price,
	})
	if err != nil {
		return nil, err
	}
	return parseOrder(raw, m), nil
}

// CancelOrder cancels a single order addressed by client order id.
func (h *HitBTC) CancelOrder(ctx context.Context, c *order.Cancel) error {
	if err := c.Validate(); err != nil {
		return err
	}
	clientID := c.ClientOrderID
	if clientID == "" {
		clientID = c.ID
	}
	var m *market.Market
	if c.Symbol != "" {
		m, _ = h.marketFromSymbol(ctx, c.Symbol)
	}
	_, err := h.CancelOrderByClientID(ctx, categoryFor(m, ""), clientID)
	return err
}

// CancelAllOrders cancels open orders, scoped to one symbol when given,
// otherwise across the spot and futures categories, returning the number
// cancelled.
func (h *HitBTC) CancelAllOrders(ctx context.Context, symbol string) (int64, error) {
	if symbol != "" {
		m, err := h.marketFromSymbol(ctx, symbol)
		if err != nil {
			return 0, err
		}
		cancelled, err := h.CancelAllCategoryOrders(ctx, categoryFor(m, ""), m.ID)
		if err != nil {
			return 0, err
		}
		return int64(len(cancelled)), nil
	}
	var total int64
	for _, category := range []string{categorySpot, categoryFutures} {
		cancelled, err := h.CancelAllCategoryOrders(ctx, category, "")
		if err != nil {
			return total, err
		}
		total += int64(len(cancelled))
	}
	return total, nil
}

// FetchOrder retrieves one open order by client order id.
func (h *HitBTC) FetchOrder(ctx context.Context, id, symbol string) (*order.Detail, error) {
	if id == "" {
		return nil, order.ErrOrderIDUnset
	}
	var m *market.Market
	if symbol != "" {
		var err error
		if m, err = h.marketFromSymbol(ctx, symbol); err != nil {
			return nil, err
		}
	}
	raw, err := h.GetActiveOrder(ctx, categoryFor(m, ""), id)
	if err != nil {
		return nil, err
	}
	return parseOrder(raw, m), nil
}

// FetchOpenOrders retrieves open orders, scoped to one symbol when given.
func (h *HitBTC) FetchOpenOrders(ctx context.Context, symbol string) ([]order.Detail, error) {
	var (
		m   *market.Market
		id  string
		err error
	)
	if symbol != "" {
		if m, err = h.marketFromSymbol(ctx, symbol); err != nil {
			return nil, err
		}
		id = m.ID
	}
	raw, err := h.GetActiveOrders(ctx, categoryFor(m, ""), id)
	if err != nil {
		return nil, err
	}
	return h.parseOrders(ctx, raw, m), nil
}

// FetchClosedOrders retrieves order history, scoped to one symbol when
// given.
func (h *HitBTC) FetchClosedOrders(ctx context.Context, symbol string, limit int64) ([]order.Detail, error) {
	var (
		m   *market.Market
		id  string
		err error
	)
	if symbol != "" {
		if m, err = h.marketFromSymbol(ctx, symbol); err != nil {
			return nil, err
		}
		id = m.ID
	}
	raw, err := h.GetOrderHistory(ctx, categoryFor(m, ""), id, limit)
	if err != nil {
		return nil, err
	}
	return h.parseOrders(ctx, raw, m), nil
}

func (h *HitBTC) parseOrders(ctx context.Context, raw []Order, m *market.Market) []order.Detail {
	out := make([]order.Detail, 0, len(raw))
	for i := range raw {
		rec := m
		if rec == nil {
			rec = h.lookupMarket(ctx, raw[i].Symbol)
		}
		out = append(out, *parseOrder(&raw[i], rec))
	}
	return out
}

// lookupMarket resolves a venue symbol id against the catalog, tolerating a
// miss by returning nil.
func (h *HitBTC) lookupMarket(ctx context.Context, id string) *market.Market {
	if err := h.EnsureMarkets(ctx, func(c context.Context) error {
		_, err := h.LoadMarkets(c, false)
		return err
	}); err != nil {
		return nil
	}
	m, err := h.Catalog.ByID(id)
	if err != nil {
		return nil
	}
	return m
}

func parseOrder(raw *Order, m *market.Market) *order.Detail {
	det := &order.Detail{
		ID:            strconv.FormatInt(raw.ID, 10),
		ClientOrderID: raw.ClientOrderID,
		Timestamp:     raw.CreatedAt.UnixMilli(),
		Datetime:      raw.CreatedAt.ISO8601(),
		LastUpdated:   raw.UpdatedAt.UnixMilli(),
		Type:          order.MapType(raw.Type, orderTypes),
		Side:          order.MapSide(raw.Side, orderSides),
		Price:         raw.Price,
		TriggerPrice:  raw.StopPrice,
		Amount:        raw.Quantity,
		Filled:        raw.QuantityCumulative,
		Status:        order.MapStatus(raw.Status, orderStatuses),
		PostOnly:      raw.PostOnly,
		ReduceOnly:    raw.ReduceOnly,
	}
	if tif, ok := timeInForces[raw.TimeInForce]; ok {
		det.TimeInForce = tif
	}
	if m != nil {
		det.Symbol = m.Symbol
		det.Cost = trade.Cost(raw.Price, raw.QuantityCumulative, m)
	} else {
		det.Symbol = raw.Symbol
	}
	det.DeriveRemaining()
	return det
}

// FetchMyTrades retrieves private fills, scoped to one symbol when given.
func (h *HitBTC) FetchMyTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error) {
	var (
		m   *market.Market
		id  string
		err error
	)
	if symbol != "" {
		if m, err = h.marketFromSymbol(ctx, symbol); err != nil {
			return nil, err
		}
		id = m.ID
	}
	raw, err := h.GetTradeHistory(ctx, categoryFor(m, ""), id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Data, 0, len(raw))
	for i := range raw {
		f := &raw[i]
		rec := m
		if rec == nil {
			rec = h.lookupMarket(ctx, f.Symbol)
		}
		t := trade.Data{
			ID:        strconv.FormatInt(f.ID, 10),
			OrderID:   strconv.FormatInt(f.OrderID, 10),
			Timestamp: f.Timestamp.UnixMilli(),
			Datetime:  f.Timestamp.ISO8601(),
			Side:      order.MapSide(f.Side, orderSides),
			Price:     f.Price,
			Amount:    f.Quantity,
			Cost:      trade.Cost(f.Price, f.Quantity, rec),
			Fee:       order.Fee{Cost: f.Fee},
		}
		if f.Taker {
			t.TakerOrMaker = "taker"
		} else {
			t.TakerOrMaker = "maker"
		}
		if rec != nil {
			t.Symbol = rec.Symbol
			t.Fee.Currency = rec.Quote
		} else {
			t.Symbol = f.Symbol
		}
		out = append(out, t)
	}
	return out, nil
}

// FetchPosition retrieves the open position on one market.
func (h *HitBTC) FetchPosition(ctx context.Context, symbol string) (*futures.Position, error) {
	positions, err := h.FetchPositions(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, errs.New(errs.OrderNotFound, h.Name, "", "no open position for "+symbol)
	}
	return &positions[0], nil
}

// FetchPositions retrieves open positions from the per-symbol margin
// accounts, optionally filtered by symbols.
func (h *HitBTC) FetchPositions(ctx context.Context, symbols []string) ([]futures.Position, error) {
	filter := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		filter[s] = true
	}
	accounts, err := h.GetFuturesAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []futures.Position
	for i := range accounts {
		acct := &accounts[i]
		m := h.lookupMarket(ctx, acct.Symbol)
		for j := range acct.Positions {
			p := parsePosition(&acct.Positions[j], acct, m)
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

func parsePosition(raw *FuturesPosition, acct *FuturesAccount, m *market.Market) *futures.Position {
	if raw.Quantity.IsZero() {
		return nil
	}
	side := futures.Long
	if raw.Quantity.Decimal().Sign() < 0 {
		side = futures.Short
	}
	mode := futures.Isolated
	if strings.EqualFold(acct.MarginMode, "Cross") {
		mode = futures.Cross
	}
	p := &futures.Position{
		Symbol:           raw.Symbol,
		Timestamp:        raw.UpdatedAt.UnixMilli(),
		Datetime:         raw.UpdatedAt.ISO8601(),
		Side:             side,
		Contracts:        raw.Quantity.Abs(),
		EntryPrice:       raw.PriceEntry,
		UnrealizedPnl:    raw.Pnl,
		LiquidationPrice: raw.PriceLiquidation,
		Collateral:       acct.MarginBalance,
		Leverage:         acct.Leverage,
		MarginMode:       mode,
	}
	if m != nil {
		p.Symbol = m.Symbol
	}
	return p
}

// FetchFundingRate retrieves the current funding snapshot for a perpetual.
func (h *HitBTC) FetchFundingRate(ctx context.Context, symbol string) (*futures.FundingRate, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !m.Swap {
		return nil, errs.New(errs.NotSupported, h.Name, "", "funding rate requires a perpetual market")
	}
	raw, err := h.GetFuturesInfo(ctx, []string{m.ID})
	if err != nil {
		return nil, err
	}
	info, ok := raw[m.ID]
	if !ok {
		return nil, errInvalidResponseFormat
	}
	return &futures.FundingRate{
		Symbol:           m.Symbol,
		Timestamp:        info.Timestamp.UnixMilli(),
		Datetime:         info.Timestamp.ISO8601(),
		FundingRate:      info.FundingRate,
		FundingTimestamp: info.NextFundingTime.UnixMilli(),
		FundingDatetime:  info.NextFundingTime.ISO8601(),
		MarkPrice:        info.MarkPrice,
		IndexPrice:       info.IndexPrice,
		Interval:         "8h",
	}, nil
}

// FetchFundingRateHistory retrieves historical funding entries for a
// perpetual.
func (h *HitBTC) FetchFundingRateHistory(ctx context.Context, symbol string, start, end time.Time, limit int64) ([]futures.FundingRate, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := h.GetFundingHistory(ctx, m.ID, start, end, limit)
	if err != nil {
		return nil, err
	}
	entries := raw[m.ID]
	out := make([]futures.FundingRate, 0, len(entries))
	for i := range entries {
		out = append(out, futures.FundingRate{
			Symbol:           m.Symbol,
			Timestamp:        entries[i].Timestamp.UnixMilli(),
			Datetime:         entries[i].Timestamp.ISO8601(),
			FundingRate:      entries[i].FundingRate,
			FundingTimestamp: entries[i].Timestamp.UnixMilli(),
			FundingDatetime:  entries[i].Timestamp.ISO8601(),
			Interval:         "8h",
		})
	}
	return out, nil
}

// FetchDeposits retrieves deposit history, optionally scoped to a currency.
func (h *HitBTC) FetchDeposits(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	raw, err := h.GetTransactions(ctx, "DEPOSIT", code, limit)
	if err != nil {
		return nil, err
	}
	return parseTransactions(raw, account.Deposit), nil
}

// FetchWithdrawals retrieves withdrawal history, optionally scoped to a
// currency.
func (h *HitBTC) FetchWithdrawals(ctx context.Context, code string, limit int64) ([]account.Transaction, error) {
	raw, err := h.GetTransactions(ctx, "WITHDRAW", code, limit)
	if err != nil {
		return nil, err
	}
	return parseTransactions(raw, account.Withdrawal), nil
}

func parseTransactions(raw []Transaction, txType account.TransactionType) []account.Transaction {
	out := make([]account.Transaction, 0, len(raw))
	for i := range raw {
		t := &raw[i]
		out = append(out, account.Transaction{
			ID:        strconv.FormatInt(t.ID, 10),
			TxID:      t.Native.TxID,
			Timestamp: t.CreatedAt.UnixMilli(),
			Datetime:  t.CreatedAt.ISO8601(),
			Address:   t.Native.Address,
			Type:      txType,
			Amount:    t.Native.Amount,
			Currency:  t.Native.Currency,
			Status:    account.MapTransactionStatus(t.Status, transactionStatuses),
			Fee:       t.Native.Fee,
		})
	}
	return out
}

// Transfer moves funds between the wallet, spot and derivatives accounts.
func (h *HitBTC) Transfer(ctx context.Context, code string, amount types.Number, fromAccount, toAccount string) (*account.Transfer, error) {
	if code == "" || fromAccount == "" || toAccount == "" {
		return nil, errs.New(errs.ArgumentsRequired, h.Name, "", "transfer requires a currency code, source and destination")
	}
	ids, err := h.TransferBetweenAccounts(ctx, code, amount, fromAccount, toAccount)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errNoTransactionID
	}
	now := time.Now()
	return &account.Transfer{
		ID:          ids[0],
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
func (h *HitBTC) Withdraw(ctx context.Context, code, address, _ string, amount types.Number) (*account.Transaction, error) {
	if code == "" || address == "" {
		return nil, errs.New(errs.ArgumentsRequired, h.Name, "", "withdraw requires a currency code and address")
	}
	raw, err := h.WithdrawCrypto(ctx, code, address, amount)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &account.Transaction{
		ID:        raw.ID,
		Timestamp: now.UnixMilli(),
		Datetime:  types.Time(now).ISO8601(),
		Address:   address,
		Type:      account.Withdrawal,
		Amount:    amount,
		Currency:  code,
		Status:    account.TransactionPending,
	}, nil
}

// FetchDepositAddress retrieves the deposit address for a currency.
func (h *HitBTC) FetchDepositAddress(ctx context.Context, code string) (*account.DepositAddress, error) {
	if code == "" {
		return nil, errs.New(errs.ArgumentsRequired, h.Name, "", "fetchDepositAddress requires a currency code")
	}
	raw, err := h.GetDepositAddress(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errInvalidResponseFormat
	}
	return &account.DepositAddress{
		Currency: raw[0].Currency,
		Address:  raw[0].Address,
		Tag:      raw[0].PaymentID,
		Network:  raw[0].NetworkCode,
	}, nil
}

// SetLeverage sets the leverage on one perpetual's isolated margin account.
func (h *HitBTC) SetLeverage(ctx context.Context, symbol string, leverage types.Number) (*futures.Leverage, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !m.Contract {
		return nil, errs.New(errs.NotSupported, h.Name, "", "leverage requires a contract market")
	}
	acct, err := h.UpdateIsolatedAccount(ctx, m.ID, map[string]string{"leverage": leverage.String()})
	if err != nil {
		return nil, err
	}
	return parseLeverage(acct, m), nil
}

// FetchLeverage retrieves the leverage setting on one perpetual.
func (h *HitBTC) FetchLeverage(ctx context.Context, symbol string) (*futures.Leverage, error) {
	m, err := h.marketFromSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	acct, err := h.GetIsolatedAccount(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return parseLeverage(acct, m), nil
}

func parseLeverage(acct *FuturesAccount, m *market.Market) *futures.Leverage {
	mode := futures.Isolated
	if strings.EqualFold(acct.MarginMode, "Cross") {
		mode = futures.Cross
	}
	return &futures.Leverage{
		Symbol:     m.Symbol,
		MarginMode: mode,
		Leverage:   acct.Leverage,
	}
}
