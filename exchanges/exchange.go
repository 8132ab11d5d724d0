// Package exchange defines the venue-agnostic client surface and the shared
// state every adapter composes over: requester, credentials, signer and
// market catalog. Venue packages implement Client by strategy composition
// rather than override chains.
package exchange

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantfabric/unifex/exchanges/account"
	"github.com/quantfabric/unifex/exchanges/asset"
	"github.com/quantfabric/unifex/exchanges/auth"
	"github.com/quantfabric/unifex/exchanges/futures"
	"github.com/quantfabric/unifex/exchanges/kline"
	"github.com/quantfabric/unifex/exchanges/market"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/exchanges/orderbook"
	"github.com/quantfabric/unifex/exchanges/request"
	"github.com/quantfabric/unifex/exchanges/ticker"
	"github.com/quantfabric/unifex/exchanges/trade"
	"github.com/quantfabric/unifex/types"
)

// Client is the unified surface every venue adapter exposes. Every method
// performs one (or for catalogs, a fixed sequence of) HTTP round trips and
// returns canonical structures; failures surface as classified errors.
type Client interface {
	GetName() string

	// Market catalog
	LoadMarkets(ctx context.Context, reload bool) ([]market.Market, error)
	FetchMarkets(ctx context.Context) ([]market.Market, error)
	FetchCurrencies(ctx context.Context) (map[string]market.Currency, error)

	// Market data
	FetchTicker(ctx context.Context, symbol string) (*ticker.Price, error)
	FetchTickers(ctx context.Context, symbols []string) ([]ticker.Price, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int64) (*orderbook.Book, error)
	FetchTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error)
	FetchOHLCV(ctx context.Context, symbol string, interval kline.Interval, start, end time.Time, limit int64) ([]kline.Candle, error)

	// Trading
	FetchBalance(ctx context.Context) (*account.Holdings, error)
	CreateOrder(ctx context.Context, s *order.Submit) (*order.Detail, error)
	EditOrder(ctx context.Context, id string, s *order.Submit) (*order.Detail, error)
	CancelOrder(ctx context.Context, c *order.Cancel) error
	CancelAllOrders(ctx context.Context, symbol string) (int64, error)
	FetchOrder(ctx context.Context, id, symbol string) (*order.Detail, error)
	FetchOpenOrders(ctx context.Context, symbol string) ([]order.Detail, error)
	FetchClosedOrders(ctx context.Context, symbol string, limit int64) ([]order.Detail, error)
	FetchMyTrades(ctx context.Context, symbol string, limit int64) ([]trade.Data, error)

	// Derivatives
	FetchPosition(ctx context.Context, symbol string) (*futures.Position, error)
	FetchPositions(ctx context.Context, symbols []string) ([]futures.Position, error)
	FetchFundingRate(ctx context.Context, symbol string) (*futures.FundingRate, error)
	FetchFundingRateHistory(ctx context.Context, symbol string, start, end time.Time, limit int64) ([]futures.FundingRate, error)

	// Funding
	FetchDeposits(ctx context.Context, code string, limit int64) ([]account.Transaction, error)
	FetchWithdrawals(ctx context.Context, code string, limit int64) ([]account.Transaction, error)
	Transfer(ctx context.Context, code string, amount types.Number, fromAccount, toAccount string) (*account.Transfer, error)
	Withdraw(ctx context.Context, code, address, tag string, amount types.Number) (*account.Transaction, error)
}

// Base is the shared adapter state. Venue structs embed it and plug in their
// Signer strategy; nothing here is overridden.
type Base struct {
	Name        string
	Enabled     bool
	Verbose     bool
	Endpoint    string
	Requester   *request.Requester
	Credentials auth.Credentials
	Signer      auth.Signer
	Catalog     *market.Catalog
	Log         *zap.Logger
}

// GetName returns the venue name.
func (b *Base) GetName() string { return b.Name }

// GetCredentials fails fast with auth.ErrCredentialsUnset before any network
// call when the key pair is missing.
func (b *Base) GetCredentials() (*auth.Credentials, error) {
	if err := b.Credentials.Validate(); err != nil {
		return nil, err
	}
	return &b.Credentials, nil
}

// EnsureMarkets lazily populates the catalog via the supplied loader. The
// catalog is loaded once and reused until an explicit reload.
func (b *Base) EnsureMarkets(ctx context.Context, load func(context.Context) error) error {
	if b.Catalog.Loaded() {
		return nil
	}
	return load(ctx)
}

// MarketBySymbol resolves a canonical symbol against the loaded catalog.
func (b *Base) MarketBySymbol(symbol string) (*market.Market, error) {
	return b.Catalog.BySymbol(symbol)
}

// MarketByID resolves a venue-native instrument id against the loaded
// catalog.
func (b *Base) MarketByID(id string) (*market.Market, error) {
	return b.Catalog.ByID(id)
}

// AssetFromMarket reports the asset class of a canonical market record.
func AssetFromMarket(m *market.Market) asset.Item {
	switch {
	case m == nil:
		return asset.Empty
	case m.Option:
		return asset.Options
	case m.Future:
		return asset.Futures
	case m.Swap:
		return asset.Swap
	case m.Margin:
		return asset.Margin
	default:
		return asset.Spot
	}
}
