package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIURL          = errors.New("no API URL configured, set api.url or RESTCRUD_API_URL")
	ErrNoStorageLocation = errors.New("no storage location configured")
	ErrInvalidFormat     = errors.New("invalid output format")
)

// Authentication errors.
var (
	ErrNoCredentials      = errors.New("no valid credentials available")
	ErrNoTokenURL         = errors.New("no token URL configured")
	ErrTokenManagerNotSet = errors.New("token manager not configured")
)

// Command errors.
var (
	ErrInvalidParam      = errors.New("invalid parameter, expected key=value")
	ErrInvalidBody       = errors.New("invalid request body")
	ErrInvalidHeader     = errors.New("invalid header, expected 'Name: value'")
	ErrNoInvalidationBus = errors.New("no invalidation bus configured, set nats.url or RESTCRUD_NATS_URL")
)
