// Package json routes all DTO (un)marshalling through a single codec so the
// implementation can be swapped without touching call sites.
package json

import (
	gojson "github.com/goccy/go-json"
)

type (
	// RawMessage is a raw encoded JSON value
	RawMessage = gojson.RawMessage
	// Unmarshaler is implemented by types that can unmarshal a JSON
	// description of themselves
	Unmarshaler = gojson.Unmarshaler
	// Marshaler is implemented by types that can marshal themselves into
	// valid JSON
	Marshaler = gojson.Marshaler
)

var (
	// Marshal returns the JSON encoding of v
	Marshal = gojson.Marshal
	// Unmarshal parses JSON-encoded data and stores the result in the value
	// pointed to by v
	Unmarshal = gojson.Unmarshal
	// MarshalIndent is like Marshal but applies Indent to format the output
	MarshalIndent = gojson.MarshalIndent
	// NewDecoder returns a new decoder that reads from r
	NewDecoder = gojson.NewDecoder
	// NewEncoder returns a new encoder that writes to w
	NewEncoder = gojson.NewEncoder
	// Valid reports whether data is a valid JSON encoding
	Valid = gojson.Valid
)
