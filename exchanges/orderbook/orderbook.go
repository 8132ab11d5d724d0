// Package orderbook defines the canonical order book snapshot.
package orderbook

import "github.com/quantfabric/unifex/types"

// Level is one price level.
type Level struct {
	Price  types.Number
	Amount types.Number
}

// Book is a canonical depth snapshot; bids descending, asks ascending, as
// returned by the venue.
type Book struct {
	Symbol    string
	Timestamp int64
	Datetime  string
	Bids      []Level
	Asks      []Level
}

// BestBid returns the top bid level, or a zero level when the book is empty.
func (b *Book) BestBid() Level {
	if len(b.Bids) == 0 {
		return Level{}
	}
	return b.Bids[0]
}

// BestAsk returns the top ask level, or a zero level when the book is empty.
func (b *Book) BestAsk() Level {
	if len(b.Asks) == 0 {
		return Level{}
	}
	return b.Asks[0]
}
