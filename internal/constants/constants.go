package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as schema discovery.
	ShortHTTPTimeout = 10 * time.Second
)

// HTTP client defaults.
const (
	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "restcrud/1.0"

	// ContentTypeJSON is the media type of request and response bodies.
	ContentTypeJSON = "application/json"
)

// Authentication.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// TokenTypeBearer is the token type of static tokens.
	TokenTypeBearer = "bearer"
)

// API paths.
const (
	// SchemaEndpointsPath is the endpoint schema route, relative to the API base.
	SchemaEndpointsPath = "schema/endpoints"
)

// Settings keys.
const (
	// SettingAPIURL is the base URL of the API.
	SettingAPIURL = "api.url"

	// SettingStorageLocation is the public base URL of stored files.
	SettingStorageLocation = "storage.location"

	// SettingNATSURL enables cross-process cache invalidation when set.
	SettingNATSURL = "nats.url"

	// SettingNATSSubject overrides the invalidation subject.
	SettingNATSSubject = "nats.subject"

	// SettingLogLevel is the zerolog level name.
	SettingLogLevel = "log.level"

	// SettingOutput is the default CLI output format.
	SettingOutput = "output"

	// SettingAuthToken is a static bearer token.
	SettingAuthToken = "auth.token"

	// SettingAuthTokenURL is the OAuth2 token endpoint.
	SettingAuthTokenURL = "auth.token_url"

	// SettingAuthClientID is the OAuth2 client id.
	SettingAuthClientID = "auth.client_id"

	// SettingAuthClientSecret is the OAuth2 client secret.
	SettingAuthClientSecret = "auth.client_secret"

	// SettingAuthUsername is the user for the OAuth2 password grant.
	SettingAuthUsername = "auth.username"

	// SettingAuthPassword is the password for the OAuth2 password grant.
	SettingAuthPassword = "auth.password"
)

// Environment.
const (
	// EnvPrefix prefixes every environment variable the settings read.
	EnvPrefix = "RESTCRUD"

	// ConfigDirName is the directory under the user's home holding the config file.
	ConfigDirName = ".restcrud"

	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
)

// Messaging.
const (
	// DefaultInvalidationSubject is the NATS subject carrying cache invalidations.
	DefaultInvalidationSubject = "restcrud.invalidations"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// UI and display constants.
const (
	// CheckMarkSymbol marks enabled flags in tables.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Image sizes.
const (
	// ImageOriginal names the unscaled variant of an image.
	ImageOriginal = "original"

	// ImageWatermarked names the watermarked variant, never chosen by size.
	ImageWatermarked = "watermarked"

	// AnonymousProfilePicture is the storage path used for users without a picture.
	AnonymousProfilePicture = "user/anonymous.png"
)
