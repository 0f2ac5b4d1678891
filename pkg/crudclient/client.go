package crudclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/auth"
	"github.com/fivetwenty-io/restcrud/internal/constants"
	crudhttp "github.com/fivetwenty-io/restcrud/internal/http"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/fivetwenty-io/restcrud/pkg/logging"
	"github.com/fivetwenty-io/restcrud/pkg/natsbus"
	"github.com/fivetwenty-io/restcrud/pkg/settings"
)

// Client is a registry bound to an HTTP transport.
type Client struct {
	*crud.Registry

	endpoint string
	closers  []func() error
}

// APIEndpoint returns the normalized API endpoint.
func (c *Client) APIEndpoint() string {
	return c.endpoint
}

// Close detaches the registry from its invalidation bus and releases
// connections the client opened itself.
func (c *Client) Close() error {
	errs := []error{c.Registry.Close()}

	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}

	return errors.Join(errs...)
}

// New creates a client from config.
func New(ctx context.Context, config *crud.Config) (*Client, error) {
	if config == nil {
		return nil, crud.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, crud.ErrAPIEndpointRequired
	}

	endpoint := NormalizeEndpoint(config.APIEndpoint)

	tokenManager, err := newTokenManager(config)
	if err != nil {
		return nil, err
	}

	httpOpts := []crudhttp.Option{
		crudhttp.WithTimeout(config.HTTPTimeout),
		crudhttp.WithUserAgent(config.UserAgent),
		crudhttp.WithDebug(config.Debug),
		crudhttp.WithInterceptors(config.Interceptors),
	}

	regOpts := []crud.Option{crud.WithEvictOnError(config.EvictOnError)}

	if config.Logger != nil {
		httpOpts = append(httpOpts, crudhttp.WithLogger(config.Logger))
		regOpts = append(regOpts, crud.WithLogger(config.Logger))
	}

	if config.MetricsRegisterer != nil {
		regOpts = append(regOpts, crud.WithMetrics(crud.NewMetricsCollectorWithRegistry(config.MetricsRegisterer)))
	}

	if config.InvalidationBus != nil {
		regOpts = append(regOpts, crud.WithInvalidationBus(config.InvalidationBus))
	}

	transport := crudhttp.NewClient(endpoint, tokenManager, httpOpts...)

	registry, err := crud.NewRegistry(transport, regOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	client := &Client{Registry: registry, endpoint: endpoint}

	if config.DiscoverSchema {
		err = registry.LoadSchema(ctx)
		if err != nil {
			_ = registry.Close()

			return nil, fmt.Errorf("discovering schema: %w", err)
		}
	}

	return client, nil
}

// NewFromSettings creates a client with defaults taken from s. Fields set
// in config win over settings; config may be nil.
func NewFromSettings(ctx context.Context, s *settings.Settings, config *crud.Config) (*Client, error) {
	merged := crud.Config{}
	if config != nil {
		merged = *config
	}

	if merged.APIEndpoint == "" {
		merged.APIEndpoint = s.APIURL()
	}

	if merged.APIEndpoint == "" {
		return nil, constants.ErrNoAPIURL
	}

	if merged.AccessToken == "" && merged.ClientID == "" && merged.Username == "" {
		merged.AccessToken = s.GetString(constants.SettingAuthToken, "")
		merged.Username = s.GetString(constants.SettingAuthUsername, "")
		merged.Password = s.GetString(constants.SettingAuthPassword, "")
		merged.ClientID = s.GetString(constants.SettingAuthClientID, "")
		merged.ClientSecret = s.GetString(constants.SettingAuthClientSecret, "")
	}

	if merged.TokenURL == "" {
		merged.TokenURL = s.GetString(constants.SettingAuthTokenURL, "")
	}

	if merged.Logger == nil {
		logCfg := logging.DefaultConfig()
		logCfg.Level = s.GetString(constants.SettingLogLevel, logCfg.Level)
		merged.Logger = logging.New(logCfg)
	}

	var closers []func() error

	if natsURL := s.GetString(constants.SettingNATSURL, ""); natsURL != "" && merged.InvalidationBus == nil {
		bus, err := natsbus.Connect(&natsbus.Config{
			URL:     natsURL,
			Subject: s.GetString(constants.SettingNATSSubject, constants.DefaultInvalidationSubject),
			Name:    constants.DefaultUserAgent,
		})
		if err != nil {
			return nil, err
		}

		merged.InvalidationBus = bus
		closers = append(closers, bus.Close)
	}

	client, err := New(ctx, &merged)
	if err != nil {
		for _, closeFn := range closers {
			_ = closeFn()
		}

		return nil, err
	}

	client.closers = closers

	return client, nil
}

// NewWithEndpoint creates a client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (*Client, error) {
	return New(ctx, &crud.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a client with an API endpoint and access token.
func NewWithToken(ctx context.Context, endpoint, token string) (*Client, error) {
	return New(ctx, &crud.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithClientCredentials creates a client using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, endpoint, tokenURL, clientID, clientSecret string) (*Client, error) {
	return New(ctx, &crud.Config{
		APIEndpoint:  endpoint,
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NormalizeEndpoint adds https:// when no scheme is given and ensures a
// trailing slash, so relative routes resolve below the endpoint path.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	return endpoint
}

func newTokenManager(config *crud.Config) (auth.TokenManager, error) {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken), nil
	}

	if config.Username == "" && config.ClientID == "" {
		return nil, nil
	}

	if config.TokenURL == "" {
		return nil, constants.ErrNoTokenURL
	}

	return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
		TokenURL:     config.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Username:     config.Username,
		Password:     config.Password,
		Scopes:       config.Scopes,
	}), nil
}
