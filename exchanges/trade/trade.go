// Package trade defines the canonical execution record and the cost rule
// that depends on contract settlement.
package trade

import (
	"github.com/quantfabric/unifex/exchanges/market"
	"github.com/quantfabric/unifex/exchanges/order"
	"github.com/quantfabric/unifex/types"
)

// Data is the canonical trade/fill record.
type Data struct {
	ID           string
	OrderID      string
	Timestamp    int64
	Datetime     string
	Symbol       string
	Side         order.Side
	Type         order.Type
	Price        types.Number
	Amount       types.Number
	Cost         types.Number
	TakerOrMaker string
	Fee          order.Fee
}

// Cost computes a trade's cost under the market's settlement convention.
// Linear markets cost price*amount; inverse-settled markets denominate
// amount in quote/contracts so cost = amount/price.
func Cost(price, amount types.Number, m *market.Market) types.Number {
	if m != nil && m.Inverse {
		return amount.Div(price)
	}
	return price.Mul(amount)
}
