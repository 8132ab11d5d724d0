// Package futures defines canonical derivative-account records: positions,
// funding rates, open interest, margin mode and leverage.
package futures

import "github.com/quantfabric/unifex/types"

// PositionSide is the direction of an open position.
type PositionSide string

// Position sides
const (
	Long  PositionSide = "long"
	Short PositionSide = "short"
)

// MarginMode discriminates cross from isolated margining.
type MarginMode string

// Margin modes
const (
	Cross    MarginMode = "cross"
	Isolated MarginMode = "isolated"
)

// Position is a canonical open-position record.
type Position struct {
	Symbol            string
	Timestamp         int64
	Datetime          string
	Side              PositionSide
	Contracts         types.Number
	EntryPrice        types.Number
	MarkPrice         types.Number
	Notional          types.Number
	Leverage          types.Number
	UnrealizedPnl     types.Number
	RealizedPnl       types.Number
	LiquidationPrice  types.Number
	Collateral        types.Number
	MarginMode        MarginMode
	InitialMargin     types.Number
	MaintenanceMargin types.Number
}

// FundingRate is a canonical perpetual funding snapshot or history entry.
type FundingRate struct {
	Symbol           string
	Timestamp        int64
	Datetime         string
	FundingRate      types.Number
	FundingTimestamp int64
	FundingDatetime  string
	MarkPrice        types.Number
	IndexPrice       types.Number
	Interval         string
}

// OpenInterest is a canonical open-interest snapshot.
type OpenInterest struct {
	Symbol       string
	Timestamp    int64
	Datetime     string
	OpenInterest types.Number
	Notional     types.Number
}

// Leverage is a canonical leverage setting for one market.
type Leverage struct {
	Symbol     string
	MarginMode MarginMode
	Leverage   types.Number
}
