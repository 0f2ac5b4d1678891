package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config holds the settings of an OAuth2TokenManager.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Username string
	Password string

	AccessToken  string
	RefreshToken string

	// HTTPClient is used for token requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains tokens with, in order of preference, the
// stored refresh token, the password grant or the client_credentials
// grant, and caches them until they expire.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mutex  sync.Mutex
}

// NewOAuth2TokenManager creates a token manager.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    constants.TokenTypeBearer,
		})
	}

	return manager
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	token, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// RefreshToken fetches a new token even if the current one is valid.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, err := m.fetch(ctx)

	return err
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	refresh := ""
	if current := m.store.Get(); current != nil {
		refresh = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		RefreshToken: refresh,
		TokenType:    constants.TokenTypeBearer,
		ExpiresAt:    expiresAt,
	})
}

func (m *OAuth2TokenManager) fetch(ctx context.Context) (*Token, error) {
	if m.config.TokenURL == "" {
		return nil, constants.ErrNoCredentials
	}

	if m.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
	}

	var (
		token *oauth2.Token
		err   error
	)

	refresh := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refresh = current.RefreshToken
	}

	switch {
	case refresh != "":
		token, err = m.oauth2Config().TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	case m.config.Username != "":
		token, err = m.oauth2Config().PasswordCredentialsToken(ctx, m.config.Username, m.config.Password)
	case m.config.ClientID != "":
		token, err = m.clientCredentialsConfig().Token(ctx)
	default:
		return nil, constants.ErrNoCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	stored := &Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if stored.RefreshToken == "" {
		stored.RefreshToken = refresh
	}

	m.store.Set(stored)

	return stored, nil
}

func (m *OAuth2TokenManager) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Scopes:       m.config.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (m *OAuth2TokenManager) clientCredentialsConfig() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		TokenURL:     m.config.TokenURL,
		Scopes:       m.config.Scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}
