// Package order defines the canonical order vocabularies and DTOs shared by
// every venue adapter.
package order

import (
	"errors"

	"github.com/quantfabric/unifex/exchanges/asset"
	"github.com/quantfabric/unifex/types"
)

// Validation errors raised before any network call
var (
	ErrSymbolUnset       = errors.New("order symbol unset")
	ErrSideUnset         = errors.New("order side unset")
	ErrTypeUnset         = errors.New("order type unset")
	ErrAmountInvalid     = errors.New("order amount must be greater than 0")
	ErrPriceRequired     = errors.New("limit orders require a price")
	ErrOrderIDUnset      = errors.New("order id and client order id unset")
)

// Side is the canonical order direction. Venue strings outside the
// vocabulary pass through unchanged so API drift surfaces to callers instead
// of crashing the mapper; Known reports whether a value is canonical.
type Side string

// Canonical sides
const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Known reports whether the side is part of the canonical vocabulary.
func (s Side) Known() bool { return s == Buy || s == Sell }

// String implements fmt.Stringer.
func (s Side) String() string { return string(s) }

// Opposite returns the other canonical side, or the value unchanged when it
// is not canonical.
func (s Side) Opposite() Side {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	}
	return s
}

// Type is the canonical order type with the same passthrough behaviour as
// Side.
type Type string

// Canonical order types
const (
	Limit        Type = "limit"
	Market       Type = "market"
	Stop         Type = "stop"
	StopLimit    Type = "stopLimit"
	StopMarket   Type = "stopMarket"
	TrailingStop Type = "trailingStop"
)

// Known reports whether the type is part of the canonical vocabulary.
func (t Type) Known() bool {
	switch t {
	case Limit, Market, Stop, StopLimit, StopMarket, TrailingStop:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }

// Status is the canonical order lifecycle state. The enum is closed; venue
// values outside it pass through so callers can detect vocabulary drift via
// Known without the mapper throwing.
type Status string

// Canonical statuses
const (
	Open     Status = "open"
	Closed   Status = "closed"
	Canceled Status = "canceled"
	Rejected Status = "rejected"
	Failed   Status = "failed"
)

// Known reports whether the status is part of the canonical vocabulary.
func (s Status) Known() bool {
	switch s {
	case Open, Closed, Canceled, Rejected, Failed:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// MapStatus translates a venue status through a lookup table. Unmapped
// values pass through unchanged, which keeps the mapper idempotent: feeding
// an already-canonical value back in returns it as-is.
func MapStatus(raw string, table map[string]Status) Status {
	if s, ok := table[raw]; ok {
		return s
	}
	return Status(raw)
}

// MapSide translates a venue side with the same passthrough rule.
func MapSide(raw string, table map[string]Side) Side {
	if s, ok := table[raw]; ok {
		return s
	}
	return Side(raw)
}

// MapType translates a venue order type with the same passthrough rule.
func MapType(raw string, table map[string]Type) Type {
	if t, ok := table[raw]; ok {
		return t
	}
	return Type(raw)
}

// TimeInForce is the canonical time-in-force policy.
type TimeInForce string

// Canonical time in force values
const (
	GoodTillCancel    TimeInForce = "GTC"
	ImmediateOrCancel TimeInForce = "IOC"
	FillOrKill        TimeInForce = "FOK"
	PostOnlyTIF       TimeInForce = "PO"
)

// Fee describes the fee charged against an order or trade.
type Fee struct {
	Currency string
	Cost     types.Number
	Rate     types.Number
}

// Submit is the validated client-side order request. All fields are read
// only once submitted; per-call overrides are explicit fields rather than a
// mutable options bag.
type Submit struct {
	Symbol        string
	AssetType     asset.Item
	Type          Type
	Side          Side
	Amount        types.Number
	Price         types.Number
	TriggerPrice  types.Number
	TimeInForce   TimeInForce
	PostOnly      bool
	ReduceOnly    bool
	ClientOrderID string
	MarginMode    string
}

// Validate performs client-side checks before any network call.
func (s *Submit) Validate() error {
	if s.Symbol == "" {
		return ErrSymbolUnset
	}
	if !s.Side.Known() {
		return ErrSideUnset
	}
	if !s.Type.Known() {
		return ErrTypeUnset
	}
	if !s.Amount.IsSet() || s.Amount.Decimal().Sign() <= 0 {
		return ErrAmountInvalid
	}
	if s.Type == Limit && !s.Price.IsSet() {
		return ErrPriceRequired
	}
	return nil
}

// Detail is the canonical order record constructed fresh from each venue
// response and never mutated afterwards. Remaining is stored explicitly
// since some venues omit it.
type Detail struct {
	ID            string
	ClientOrderID string
	Timestamp     int64
	Datetime      string
	LastUpdated   int64
	Symbol        string
	Type          Type
	Side          Side
	Price         types.Number
	TriggerPrice  types.Number
	Amount        types.Number
	Cost          types.Number
	Average       types.Number
	Filled        types.Number
	Remaining     types.Number
	Status        Status
	TimeInForce   TimeInForce
	PostOnly      bool
	ReduceOnly    bool
	Fee           Fee
}

// DeriveRemaining backfills Remaining as amount - filled when the venue
// omitted it.
func (d *Detail) DeriveRemaining() {
	if d.Remaining.IsSet() || !d.Amount.IsSet() || !d.Filled.IsSet() {
		return
	}
	d.Remaining = types.NewNumberFromDecimal(d.Amount.Decimal().Sub(d.Filled.Decimal()))
}

// Cancel identifies an order for cancellation.
type Cancel struct {
	ID            string
	ClientOrderID string
	Symbol        string
	AssetType     asset.Item
}

// Validate checks an order reference is addressable.
func (c *Cancel) Validate() error {
	if c.ID == "" && c.ClientOrderID == "" {
		return ErrOrderIDUnset
	}
	return nil
}
