package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quantfabric/unifex/config"
	"github.com/quantfabric/unifex/encoding/json"
	exchange "github.com/quantfabric/unifex/exchanges"

	_ "github.com/quantfabric/unifex/exchanges/deribit"
	_ "github.com/quantfabric/unifex/exchanges/hitbtc"
	_ "github.com/quantfabric/unifex/exchanges/woo"
)

var (
	configPath string
	venueName  string
	apiKey     string
	apiSecret  string
	verbose    bool
	timeout    time.Duration
)

const defaultTimeout = 30 * time.Second

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

// setupClient resolves the venue flag against the config file and the
// registry, and returns a client with markets loaded. The returned cancel
// releases the per-request timeout installed on c.Context.
func setupClient(c *cli.Context) (exchange.Client, context.CancelFunc, error) {
	if venueName == "" {
		return nil, nil, cli.Exit("an exchange must be set with --exchange", 1)
	}

	ecfg := &config.Exchange{Name: venueName, Enabled: true}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		if ecfg, err = cfg.Exchange(venueName); err != nil {
			return nil, nil, err
		}
	}
	if apiKey != "" {
		ecfg.Credentials.Key = apiKey
	}
	if apiSecret != "" {
		ecfg.Credentials.Secret = apiSecret
	}
	if verbose {
		ecfg.Verbose = true
	}

	client, err := exchange.New(ecfg.Name, ecfg)
	if err != nil {
		return nil, nil, err
	}

	var cancel context.CancelFunc
	c.Context, cancel = context.WithTimeout(c.Context, timeout)
	if _, err := client.LoadMarkets(c.Context, false); err != nil {
		cancel()
		return nil, nil, err
	}
	return client, cancel, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "unifexctl"
	app.Usage = "command line interface for querying exchanges through the unified client"
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to the client configuration file",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "exchange",
			Aliases:     []string{"e"},
			Usage:       "the exchange to query",
			Destination: &venueName,
		},
		&cli.StringFlag{
			Name:        "apikey",
			Usage:       "override config API key for the request",
			Destination: &apiKey,
		},
		&cli.StringFlag{
			Name:        "apisecret",
			Usage:       "override config API secret for the request",
			Destination: &apiSecret,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       defaultTimeout,
			Usage:       "the context timeout for requests",
			Destination: &timeout,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "log each HTTP request and response",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		listExchangesCommand,
		marketsCommand,
		currenciesCommand,
		tickerCommand,
		tickersCommand,
		orderbookCommand,
		tradesCommand,
		candlesCommand,
		fundingRateCommand,
		fundingHistoryCommand,
		balanceCommand,
		orderCommand,
		ordersCommand,
		myTradesCommand,
		positionsCommand,
		depositsCommand,
		withdrawalsCommand,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
