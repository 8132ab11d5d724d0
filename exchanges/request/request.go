// Package request handles the HTTP sending side of every adapter: rate
// limiting, header assembly, response decoding and error-body inspection.
// There is no retry here; a failed call surfaces immediately as a classified
// error and cancellation is delegated to the supplied context.
package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quantfabric/unifex/encoding/json"
	"github.com/quantfabric/unifex/exchanges/nonce"
)

// Default parameters for the underlying HTTP client
const (
	DefaultTimeout = 15 * time.Second
	userAgentKey   = "User-Agent"
)

var (
	errRequestSystemIsNil   = errors.New("request system is nil")
	errRequestFunctionIsNil = errors.New("request function is nil")
	errRequestItemNil       = errors.New("request item is nil")
	errInvalidPath          = errors.New("invalid path")
)

// Inspector examines a completed HTTP exchange and returns a classified
// error when the venue reported one. A nil return means the payload is a
// success response and safe to decode. Inspectors must never swallow an
// error body.
type Inspector func(httpStatus int, body []byte) error

// Item is a request struct containing all the information for one HTTP call
type Item struct {
	Method      string
	Path        string
	Headers     map[string]string
	Body        []byte
	Result      interface{}
	AuthRequest bool
}

// Generate defines a closure for functionality outside of the requester to
// generate a new request item when needed; signatures embed timestamps so
// the item is built after the rate limiter releases the call.
type Generate func() (*Item, error)

// Requester struct for the request client
type Requester struct {
	name      string
	client    *http.Client
	limiter   Limiter
	inspector Inspector
	userAgent string
	log       *zap.Logger
	Nonce     nonce.Nonce
}

// Option is a functional option for the requester constructor
type Option func(*Requester)

// WithLimiter sets the rate limiter
func WithLimiter(l Limiter) Option {
	return func(r *Requester) { r.limiter = l }
}

// WithInspector sets the venue error-body inspector
func WithInspector(i Inspector) Option {
	return func(r *Requester) { r.inspector = i }
}

// WithUserAgent sets the outbound user agent
func WithUserAgent(ua string) Option {
	return func(r *Requester) { r.userAgent = ua }
}

// WithLogger sets the debug logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Requester) { r.log = l }
}

// New returns a new Requester
func New(name string, client *http.Client, opts ...Option) *Requester {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	r := &Requester{
		name:   name,
		client: client,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// GetNonce returns the next monotonic nonce value
func (r *Requester) GetNonce() nonce.Value {
	return r.Nonce.GetInc()
}

// SendPayload performs a rate-limited HTTP request and decodes the response
// into the item's Result. Venue-reported errors are classified through the
// inspector; transport failures pass through unmodified.
func (r *Requester) SendPayload(ctx context.Context, ep EndpointLimit, newRequest Generate) error {
	if r == nil {
		return errRequestSystemIsNil
	}
	if newRequest == nil {
		return errRequestFunctionIsNil
	}

	if r.limiter != nil {
		if err := r.limiter.Limit(ctx, ep); err != nil {
			return err
		}
	}

	item, err := newRequest()
	if err != nil {
		return err
	}
	if item == nil {
		return errRequestItemNil
	}
	if item.Path == "" {
		return errInvalidPath
	}

	var body io.Reader
	if len(item.Body) > 0 {
		body = bytes.NewReader(item.Body)
	}

	req, err := http.NewRequestWithContext(ctx, item.Method, item.Path, body)
	if err != nil {
		return err
	}
	for k, v := range item.Headers {
		req.Header.Set(k, v)
	}
	if r.userAgent != "" && req.Header.Get(userAgentKey) == "" {
		req.Header.Set(userAgentKey, r.userAgent)
	}

	r.log.Debug("sending request",
		zap.String("exchange", r.name),
		zap.String("method", item.Method),
		zap.String("path", item.Path),
		zap.Bool("authenticated", item.AuthRequest))

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	r.log.Debug("received response",
		zap.String("exchange", r.name),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(contents)))

	if r.inspector != nil {
		if err := r.inspector(resp.StatusCode, contents); err != nil {
			return err
		}
	}

	if item.Result == nil {
		return nil
	}
	return json.Unmarshal(contents, item.Result)
}
