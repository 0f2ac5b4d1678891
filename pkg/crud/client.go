package crud

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request is one outgoing call as seen by the transport and interceptors.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Headers  http.Header
	Body     any
	Metadata map[string]interface{}
}

// Response is the raw answer of the transport.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Doer sends requests. internal/http.Client is the production
// implementation; tests substitute their own.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Doer.
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration for building a Registry with
// crudclient.New.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. Username/Password: tokens are obtained from TokenURL with the OAuth2
//     password grant and refreshed with the returned refresh token.
//  3. ClientID/ClientSecret: tokens are obtained from TokenURL with the
//     OAuth2 client_credentials grant and fetched again when they expire.
//  4. No credentials: requests are sent without authentication.
//
// # Timeouts and retries
//
// Calls are never retried. HTTPTimeout bounds each request; once issued, a
// request always runs to completion even if the caller stops waiting.
type Config struct {
	// APIEndpoint is the base URL of the API (e.g. "https://api.example.com/api/").
	// Relative routes resolve against it; routes starting with "/" resolve
	// against its origin.
	APIEndpoint string

	AccessToken  string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// HTTPTimeout bounds a single request. Zero selects the default.
	HTTPTimeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug  bool
	Logger Logger

	// DiscoverSchema loads the endpoint schema from the server when the
	// client is created.
	DiscoverSchema bool
	// EvictOnError drops cache entries whose call failed.
	EvictOnError bool
	// MetricsRegisterer enables prometheus metrics when set.
	MetricsRegisterer prometheus.Registerer
	// InvalidationBus propagates cache invalidations between processes.
	InvalidationBus InvalidationBus
	// Interceptors run around every request.
	Interceptors *InterceptorChain
}
