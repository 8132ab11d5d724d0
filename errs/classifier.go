package errs

import "strings"

// Match pairs a lowercase needle searched for within a venue error message
// with the kind assigned on hit. Broad matches run in declaration order so
// more specific needles must be listed first.
type Match struct {
	Contains string
	Kind     Kind
}

// Classifier maps a venue's error codes and messages onto the canonical
// taxonomy. Precedence: exact code match, then broad message match, then
// Exchange as the fallback. A classifier never swallows an error: Classify
// on a non-empty code or message always yields a non-nil *Error.
type Classifier struct {
	Venue string
	Exact map[string]Kind
	Broad []Match
}

// Classify maps a raw venue code and message to a classified error. The
// original body is retained on the returned error for diagnosis.
func (c *Classifier) Classify(httpStatus int, code, message string, raw []byte) *Error {
	kind := Exchange
	if k, ok := c.Exact[code]; ok {
		kind = k
	} else {
		lower := strings.ToLower(message)
		for i := range c.Broad {
			if strings.Contains(lower, c.Broad[i].Contains) {
				kind = c.Broad[i].Kind
				break
			}
		}
	}
	return &Error{
		Kind:      kind,
		Venue:     c.Venue,
		VenueCode: code,
		Message:   message,
		HTTP:      httpStatus,
		Raw:       raw,
	}
}
