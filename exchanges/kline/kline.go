// Package kline defines canonical OHLCV candles and chart intervals.
package kline

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantfabric/unifex/types"
)

// ErrIntervalNotSupported is returned when a venue lacks the requested
// resolution
var ErrIntervalNotSupported = errors.New("interval not supported")

// Interval is a candle width.
type Interval time.Duration

// Supported chart intervals
const (
	OneMin     = Interval(time.Minute)
	ThreeMin   = Interval(3 * time.Minute)
	FiveMin    = Interval(5 * time.Minute)
	FifteenMin = Interval(15 * time.Minute)
	ThirtyMin  = Interval(30 * time.Minute)
	OneHour    = Interval(time.Hour)
	TwoHour    = Interval(2 * time.Hour)
	FourHour   = Interval(4 * time.Hour)
	SixHour    = Interval(6 * time.Hour)
	TwelveHour = Interval(12 * time.Hour)
	OneDay     = Interval(24 * time.Hour)
	OneWeek    = Interval(7 * 24 * time.Hour)
)

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration { return time.Duration(i) }

// Minutes returns the whole number of minutes in the interval.
func (i Interval) Minutes() int64 { return int64(i.Duration() / time.Minute) }

// Short returns the conventional short form, e.g. 15m, 4h, 1d.
func (i Interval) Short() string {
	d := i.Duration()
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	default:
		return fmt.Sprintf("%dw", d/(7*24*time.Hour))
	}
}

// Candle is a canonical OHLCV bar.
type Candle struct {
	Timestamp int64
	Open      types.Number
	High      types.Number
	Low       types.Number
	Close     types.Number
	Volume    types.Number
}
