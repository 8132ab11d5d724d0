// Package market holds the canonical instrument and currency records every
// venue catalog normalizes into, and the catalog used for bidirectional
// id/symbol lookup.
package market

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantfabric/unifex/exchanges/asset"
)

var (
	// ErrMarketNotFound is returned on a catalog miss
	ErrMarketNotFound = errors.New("market not found")
	// ErrCatalogNotLoaded is returned when symbol resolution is attempted
	// before the catalog is populated
	ErrCatalogNotLoaded = errors.New("market catalog not loaded")

	errSymbolUnset         = errors.New("market symbol unset")
	errAmbiguousMarketType = errors.New("market must have exactly one asset class flag set")
	errInvalidOptType      = errors.New("option type must be call or put")
	errContractSettle      = errors.New("contract market requires a settlement currency")
)

// MinMax holds min and max values
type MinMax struct {
	Min float64
	Max float64
}

// Limits holds order limits
type Limits struct {
	Amount   MinMax
	Price    MinMax
	Cost     MinMax
	Leverage MinMax
}

// Precision holds the step sizes for amount and price
type Precision struct {
	Amount float64
	Price  float64
}

// Market is the canonical instrument record. Exactly one of Spot, Swap,
// Future or Option is true; Contract mirrors their union. Records are built
// once per catalog load and never mutated afterwards.
type Market struct {
	ID             string
	Symbol         string
	Base           string
	Quote          string
	Settle         string
	BaseID         string
	QuoteID        string
	SettleID       string
	Type           asset.Item
	Spot           bool
	Margin         bool
	Swap           bool
	Future         bool
	Option         bool
	Active         bool
	Contract       bool
	Linear         bool
	Inverse        bool
	Taker          float64
	Maker          float64
	ContractSize   float64
	Expiry         int64
	ExpiryDatetime string
	Strike         float64
	OptionType     string
	Precision      Precision
	Limits         Limits
	Created        int64
}

// Validate enforces the canonical record invariants.
func (m *Market) Validate() error {
	if m.Symbol == "" {
		return errSymbolUnset
	}
	var flags int
	for _, f := range []bool{m.Spot, m.Swap, m.Future, m.Option} {
		if f {
			flags++
		}
	}
	if flags != 1 {
		return fmt.Errorf("%w: %s", errAmbiguousMarketType, m.Symbol)
	}
	if m.Contract && m.Settle == "" {
		return fmt.Errorf("%w: %s", errContractSettle, m.Symbol)
	}
	if m.Option && m.OptionType != OptionCall && m.OptionType != OptionPut {
		return fmt.Errorf("%w: %s", errInvalidOptType, m.Symbol)
	}
	return nil
}

// Canonical option type values
const (
	OptionCall = "call"
	OptionPut  = "put"
)

// Symbol composes the canonical symbol for an instrument: spot markets use
// BASE/QUOTE; contracts append :SETTLE, dated contracts -EXPIRYCODE, and
// options a further -STRIKE-C|P.
func Symbol(base, quote, settle string, expiry int64, strike float64, optionType string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('/')
	b.WriteString(quote)
	if settle == "" {
		return b.String()
	}
	b.WriteByte(':')
	b.WriteString(settle)
	if expiry > 0 {
		b.WriteByte('-')
		b.WriteString(ExpiryCode(time.UnixMilli(expiry)))
		if optionType != "" {
			b.WriteByte('-')
			b.WriteString(strconv.FormatFloat(strike, 'f', -1, 64))
			b.WriteByte('-')
			if optionType == OptionPut {
				b.WriteByte('P')
			} else {
				b.WriteByte('C')
			}
		}
	}
	return b.String()
}

// ExpiryCode renders an expiry date as the venue-style DDMMMYY code, e.g.
// 27DEC24.
func ExpiryCode(t time.Time) string {
	return strings.ToUpper(t.UTC().Format("2Jan06"))
}

// ParseExpiryCode parses a DDMMMYY code back to a UTC date at the
// conventional 08:00 UTC derivatives expiry.
func ParseExpiryCode(code string) (time.Time, error) {
	normalized := make([]byte, len(code))
	alpha := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			alpha++
			if alpha > 1 {
				// Month is title case for time.Parse
				c += 'a' - 'A'
			}
		}
		normalized[i] = c
	}
	t, err := time.Parse("2Jan06", string(normalized))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 8, 0, 0, 0, time.UTC), nil
}

// Currency is the canonical currency record with per-network policies.
type Currency struct {
	Code      string
	ID        string
	Name      string
	Precision float64
	Active    bool
	Deposit   bool
	Withdraw  bool
	Fee       float64
	Networks  map[string]Network
	Limits    Limits
}

// Network carries one chain's policy for a currency; policies are
// heterogeneous across networks.
type Network struct {
	ID        string
	Network   string
	Active    bool
	Deposit   bool
	Withdraw  bool
	Fee       float64
	Precision float64
}
