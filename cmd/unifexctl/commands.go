package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	exchange "github.com/quantfabric/unifex/exchanges"
	"github.com/quantfabric/unifex/exchanges/kline"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

// numberFlag parses a decimal flag, leaving the number unset when the flag
// was not supplied.
func numberFlag(c *cli.Context, name string) (types.Number, error) {
	s := c.String(name)
	if s == "" {
		return types.Number{}, nil
	}
	n, err := types.NewNumberFromString(s)
	if err != nil {
		return types.Number{}, fmt.Errorf("flag --%s: %w", name, err)
	}
	return n, nil
}

var errSymbolRequired = cli.Exit("a symbol must be supplied", 1)

var intervals = map[string]kline.Interval{
	"1m":  kline.OneMin,
	"3m":  kline.ThreeMin,
	"5m":  kline.FiveMin,
	"15m": kline.FifteenMin,
	"30m": kline.ThirtyMin,
	"1h":  kline.OneHour,
	"2h":  kline.TwoHour,
	"4h":  kline.FourHour,
	"6h":  kline.SixHour,
	"12h": kline.TwelveHour,
	"1d":  kline.OneDay,
	"1w":  kline.OneWeek,
}

func symbolArg(c *cli.Context) (string, error) {
	s := c.Args().First()
	if s == "" {
		s = c.String("symbol")
	}
	if s == "" {
		return "", errSymbolRequired
	}
	return s, nil
}

var listExchangesCommand = &cli.Command{
	Name:  "exchanges",
	Usage: "list the available exchanges",
	Action: func(*cli.Context) error {
		jsonOutput(exchange.Registered())
		return nil
	},
}

var marketsCommand = &cli.Command{
	Name:  "markets",
	Usage: "list an exchange's tradable markets",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		markets, err := client.FetchMarkets(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(markets)
		return nil
	},
}

var currenciesCommand = &cli.Command{
	Name:  "currencies",
	Usage: "list an exchange's currencies and deposit/withdraw availability",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		currencies, err := client.FetchCurrencies(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(currencies)
		return nil
	},
}

var tickerCommand = &cli.Command{
	Name:      "ticker",
	Usage:     "get a market's ticker snapshot",
	ArgsUsage: "<symbol>",
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		t, err := client.FetchTicker(c.Context, symbol)
		if err != nil {
			return err
		}
		jsonOutput(t)
		return nil
	},
}

var tickersCommand = &cli.Command{
	Name:      "tickers",
	Usage:     "get ticker snapshots for several markets, or all markets when no symbols are given",
	ArgsUsage: "[symbol...]",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		tickers, err := client.FetchTickers(c.Context, c.Args().Slice())
		if err != nil {
			return err
		}
		jsonOutput(tickers)
		return nil
	},
}

var orderbookCommand = &cli.Command{
	Name:      "orderbook",
	Usage:     "get a market's order book",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum book depth per side",
		},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		book, err := client.FetchOrderBook(c.Context, symbol, c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(book)
		return nil
	},
}

var tradesCommand = &cli.Command{
	Name:      "trades",
	Usage:     "get a market's recent public trades",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of trades",
		},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		trades, err := client.FetchTrades(c.Context, symbol, c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(trades)
		return nil
	},
}

var candlesCommand = &cli.Command{
	Name:      "candles",
	Usage:     "get a market's OHLCV candles",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "interval",
			Value: "1h",
			Usage: "candle width, e.g. 1m, 15m, 1h, 1d",
		},
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "earliest candle time",
			Layout: time.RFC3339,
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "latest candle time",
			Layout: time.RFC3339,
		},
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of candles",
		},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		interval, ok := intervals[c.String("interval")]
		if !ok {
			return fmt.Errorf("unknown interval %q", c.String("interval"))
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()

		var start, end time.Time
		if t := c.Timestamp("start"); t != nil {
			start = *t
		}
		if t := c.Timestamp("end"); t != nil {
			end = *t
		}
		candles, err := client.FetchOHLCV(c.Context, symbol, interval, start, end, c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(candles)
		return nil
	},
}

var fundingRateCommand = &cli.Command{
	Name:      "fundingrate",
	Usage:     "get a perpetual market's current funding rate",
	ArgsUsage: "<symbol>",
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		rate, err := client.FetchFundingRate(c.Context, symbol)
		if err != nil {
			return err
		}
		jsonOutput(rate)
		return nil
	},
}

var fundingHistoryCommand = &cli.Command{
	Name:      "fundinghistory",
	Usage:     "get a perpetual market's settled funding rates",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "earliest settlement time",
			Layout: time.RFC3339,
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "latest settlement time",
			Layout: time.RFC3339,
		},
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of rates",
		},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()

		var start, end time.Time
		if t := c.Timestamp("start"); t != nil {
			start = *t
		}
		if t := c.Timestamp("end"); t != nil {
			end = *t
		}
		rates, err := client.FetchFundingRateHistory(c.Context, symbol, start, end, c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(rates)
		return nil
	},
}

var balanceCommand = &cli.Command{
	Name:  "balance",
	Usage: "get account balances",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		holdings, err := client.FetchBalance(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(holdings)
		return nil
	},
}

var orderCommand = &cli.Command{
	Name:  "order",
	Usage: "submit, inspect and cancel orders",
	Subcommands: []*cli.Command{
		submitOrderCommand,
		getOrderCommand,
		cancelOrderCommand,
		cancelAllOrdersCommand,
	},
}

var submitOrderCommand = &cli.Command{
	Name:      "submit",
	Usage:     "place a new order",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "side",
			Usage: "buy or sell",
		},
		&cli.StringFlag{
			Name:  "type",
			Value: "limit",
			Usage: "limit or market",
		},
		&cli.StringFlag{
			Name:  "amount",
			Usage: "order quantity in base units",
		},
		&cli.StringFlag{
			Name:  "price",
			Usage: "limit price",
		},
		&cli.StringFlag{
			Name:  "clientorderid",
			Usage: "caller supplied order id",
		},
		&cli.BoolFlag{
			Name:  "postonly",
			Usage: "reject rather than take liquidity",
		},
		&cli.BoolFlag{
			Name:  "reduceonly",
			Usage: "only reduce an open position",
		},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		s := &order.Submit{
			Symbol:        symbol,
			Side:          order.Side(c.String("side")),
			Type:          order.Type(c.String("type")),
			ClientOrderID: c.String("clientorderid"),
			PostOnly:      c.Bool("postonly"),
			ReduceOnly:    c.Bool("reduceonly"),
		}
		if s.Amount, err = numberFlag(c, "amount"); err != nil {
			return err
		}
		if s.Price, err = numberFlag(c, "price"); err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		detail, err := client.CreateOrder(c.Context, s)
		if err != nil {
			return err
		}
		jsonOutput(detail)
		return nil
	},
}

var getOrderCommand = &cli.Command{
	Name:      "get",
	Usage:     "look up an order by id",
	ArgsUsage: "<order id>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "symbol",
			Usage: "market the order belongs to, required on some exchanges",
		},
	},
	Action: func(c *cli.Context) error {
		id := c.Args().First()
		if id == "" {
			return cli.Exit("an order id must be supplied", 1)
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		detail, err := client.FetchOrder(c.Context, id, c.String("symbol"))
		if err != nil {
			return err
		}
		jsonOutput(detail)
		return nil
	},
}

var cancelOrderCommand = &cli.Command{
	Name:      "cancel",
	Usage:     "cancel an open order by id",
	ArgsUsage: "<order id>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "symbol",
			Usage: "market the order belongs to, required on some exchanges",
		},
	},
	Action: func(c *cli.Context) error {
		id := c.Args().First()
		if id == "" {
			return cli.Exit("an order id must be supplied", 1)
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		if err := client.CancelOrder(c.Context, &order.Cancel{
			ID:     id,
			Symbol: c.String("symbol"),
		}); err != nil {
			return err
		}
		fmt.Printf("order %s cancelled\n", id)
		return nil
	},
}

var cancelAllOrdersCommand = &cli.Command{
	Name:      "cancelall",
	Usage:     "cancel every open order, optionally scoped to one market",
	ArgsUsage: "[symbol]",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		n, err := client.CancelAllOrders(c.Context, c.Args().First())
		if err != nil {
			return err
		}
		fmt.Printf("%d orders cancelled\n", n)
		return nil
	},
}

var ordersCommand = &cli.Command{
	Name:      "orders",
	Usage:     "list open or closed orders",
	ArgsUsage: "[symbol]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "closed",
			Usage: "list closed orders instead of open ones",
		},
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of closed orders",
		},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		var details []order.Detail
		if c.Bool("closed") {
			details, err = client.FetchClosedOrders(c.Context, c.Args().First(), c.Int64("limit"))
		} else {
			details, err = client.FetchOpenOrders(c.Context, c.Args().First())
		}
		if err != nil {
			return err
		}
		jsonOutput(details)
		return nil
	},
}

var myTradesCommand = &cli.Command{
	Name:      "mytrades",
	Usage:     "list the account's executed trades",
	ArgsUsage: "[symbol]",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of trades",
		},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		trades, err := client.FetchMyTrades(c.Context, c.Args().First(), c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(trades)
		return nil
	},
}

var positionsCommand = &cli.Command{
	Name:      "positions",
	Usage:     "list open derivative positions",
	ArgsUsage: "[symbol...]",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		positions, err := client.FetchPositions(c.Context, c.Args().Slice())
		if err != nil {
			return err
		}
		jsonOutput(positions)
		return nil
	},
}

var depositsCommand = &cli.Command{
	Name:      "deposits",
	Usage:     "list deposit history",
	ArgsUsage: "[currency code]",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of records",
		},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		deposits, err := client.FetchDeposits(c.Context, c.Args().First(), c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(deposits)
		return nil
	},
}

var withdrawalsCommand = &cli.Command{
	Name:      "withdrawals",
	Usage:     "list withdrawal history",
	ArgsUsage: "[currency code]",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "limit",
			Usage: "maximum number of records",
		},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		withdrawals, err := client.FetchWithdrawals(c.Context, c.Args().First(), c.Int64("limit"))
		if err != nil {
			return err
		}
		jsonOutput(withdrawals)
		return nil
	},
}
