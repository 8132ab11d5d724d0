// Package ticker defines the canonical ticker snapshot.
package ticker

import "github.com/quantfabric/unifex/types"

// Price is the canonical ticker snapshot constructed fresh from each venue
// response. Numeric fields stay as decimals until the caller converts them.
type Price struct {
	Symbol      string
	Timestamp   int64
	Datetime    string
	High        types.Number
	Low         types.Number
	Bid         types.Number
	BidSize     types.Number
	Ask         types.Number
	AskSize     types.Number
	Open        types.Number
	Close       types.Number
	Last        types.Number
	Change      types.Number
	Percentage  types.Number
	BaseVolume  types.Number
	QuoteVolume types.Number
	MarkPrice   types.Number
	IndexPrice  types.Number
	Greeks      *Greeks
}

// Greeks carries the option sensitivities venues attach to option tickers.
type Greeks struct {
	Delta types.Number
	Gamma types.Number
	Vega  types.Number
	Theta types.Number
	Rho   types.Number
	IV    types.Number
}
