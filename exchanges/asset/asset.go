// Package asset enumerates the instrument classes a venue can list.
package asset

import (
	"errors"
	"fmt"
	"strings"
)

// Item stores the asset class
type Item string

// Supported asset classes. Options uses the plural to avoid colliding with
// the order-type vocabulary.
const (
	Empty   Item = ""
	Spot    Item = "spot"
	Margin  Item = "margin"
	Swap    Item = "swap"
	Futures Item = "futures"
	Options Item = "options"
)

// ErrNotSupported is returned when an asset class is not supported by a
// venue or method
var ErrNotSupported = errors.New("asset type not supported")

var supported = Items{Spot, Margin, Swap, Futures, Options}

// Items is an array of assets
type Items []Item

// Supported returns the list of supported asset classes
func Supported() Items {
	return supported
}

// String converts an asset type to string
func (a Item) String() string {
	return string(a)
}

// IsValid returns whether the asset class is one of the supported set
func (a Item) IsValid() bool {
	for x := range supported {
		if supported[x] == a {
			return true
		}
	}
	return false
}

// IsContract returns whether the asset class is a derivative
func (a Item) IsContract() bool {
	return a == Swap || a == Futures || a == Options
}

// New parses a case insensitive asset class string
func New(input string) (Item, error) {
	a := Item(strings.ToLower(input))
	if !a.IsValid() {
		return Empty, fmt.Errorf("%w: %q", ErrNotSupported, input)
	}
	return a, nil
}

// Contains returns whether the list contains the supplied asset
func (a Items) Contains(i Item) bool {
	for x := range a {
		if a[x] == i {
			return true
		}
	}
	return false
}

// Strings converts the list to a string slice
func (a Items) Strings() []string {
	out := make([]string, len(a))
	for x := range a {
		out[x] = a[x].String()
	}
	return out
}

// JoinToString joins the list with the supplied separator
func (a Items) JoinToString(separator string) string {
	return strings.Join(a.Strings(), separator)
}
