// Package common provides string and URL helpers shared across the exchange
// packages.
package common

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrDateUnset is returned when a start or end parameter is required but zero
var ErrDateUnset = errors.New("date unset")

// EncodeURLValues concatenates url values onto a url string and returns it
func EncodeURLValues(urlPath string, values url.Values) string {
	u := urlPath
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	return u
}

// SortedURLValues encodes values with keys in lexicographic order. This is
// the encoding some venues require for signature canonicalization.
func SortedURLValues(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(keys[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values.Get(keys[i])))
	}
	return b.String()
}

// StringDataContains checks the substring array with an input and returns a
// bool
func StringDataContains(haystack []string, needle string) bool {
	data := strings.Join(haystack, ",")
	return strings.Contains(data, needle)
}

// StringSliceContains returns whether case insensitive needle is contained
// within haystack
func StringSliceContains(haystack []string, needle string) bool {
	for x := range haystack {
		if strings.EqualFold(haystack[x], needle) {
			return true
		}
	}
	return false
}
