package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Store backends accepted by StoreConfig.Backend.
const (
	StoreBackendPostgres  = "postgres"
	StoreBackendMongo     = "mongo"
	StoreBackendFirestore = "firestore"
	StoreBackendMemory    = "memory" // process-local, for development only
)

// DefaultOpenRouterURL is the default base URL for the vision and chat models.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Config holds all configuration for zenarog-engine.
// Values come from config.yaml with environment variable overrides.
// Secrets (API keys, passwords, session secret) are read from the environment only.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// AllowedOrigins lists origins permitted to open websocket subscriptions.
	// Empty allows same-origin only.
	AllowedOriginsStr string   `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:""`
	AllowedOrigins    []string `yaml:"-"`

	Auth           AuthConfig           `yaml:"auth"`
	Session        SessionConfig        `yaml:"session"`
	Store          StoreConfig          `yaml:"store"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Mongo          MongoConfig          `yaml:"mongo"`
	Firestore      FirestoreConfig      `yaml:"firestore"`
	Vision         VisionConfig         `yaml:"vision"`
	Chat           ChatConfig           `yaml:"chat"`
	OpenFDA        OpenFDAConfig        `yaml:"openfda"`
	Identification IdentificationConfig `yaml:"identification"`
	Sentry         SentryConfig         `yaml:"sentry"`
}

// AuthConfig holds ID token validation settings.
type AuthConfig struct {
	// EnableVerification controls whether token signatures are verified.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// Audience is the expected "aud" claim (the identity project ID). Empty skips the check.
	Audience string `yaml:"audience" env:"AUTH_AUDIENCE" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Secret       string        `yaml:"-" env:"SESSION_SECRET"`
	MaxAge       time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"168h"`
	CookieDomain string        `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string `yaml:"backend" env:"STORE_BACKEND" env-default:"postgres"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"zenarog"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"zenarog"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// RedisConfig holds Redis configuration. Redis is optional and only used
// to fan out store changes across instances.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// IsAvailable returns true if Redis is configured.
func (c *RedisConfig) IsAvailable() bool {
	return c.Host != ""
}

// MongoConfig holds MongoDB settings for the mongo store backend.
type MongoConfig struct {
	URI      string `yaml:"-" env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGODB_DATABASE" env-default:"zenarog"`
}

// FirestoreConfig holds Google Cloud Firestore settings for the firestore store backend.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" env:"FIRESTORE_PROJECT_ID" env-default:""`
	CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
}

// VisionConfig holds the multimodal model used to read medication photos.
type VisionConfig struct {
	Provider    string        `yaml:"provider" env:"VISION_PROVIDER" env-default:"openai"`
	BaseURL     string        `yaml:"base_url" env:"VISION_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model       string        `yaml:"model" env:"VISION_MODEL" env-default:"nvidia/nemotron-nano-12b-v2-vl:free"`
	APIKey      string        `yaml:"-" env:"VISION_API_KEY"`
	MaxTokens   int           `yaml:"max_tokens" env:"VISION_MAX_TOKENS" env-default:"500"`
	Temperature float64       `yaml:"temperature" env:"VISION_TEMPERATURE" env-default:"0.2"`
	Timeout     time.Duration `yaml:"timeout" env:"VISION_TIMEOUT" env-default:"0s"` // 0 = no timeout
	Referer     string        `yaml:"referer" env:"VISION_REFERER" env-default:""`
	Title       string        `yaml:"title" env:"VISION_TITLE" env-default:"Zenarog"`
}

// IsAvailable returns true if a vision model can be called.
func (c *VisionConfig) IsAvailable() bool {
	return c.Model != "" && c.APIKey != ""
}

// ChatConfig holds the model backing the medical chat assistant.
type ChatConfig struct {
	Provider    string  `yaml:"provider" env:"CHAT_PROVIDER" env-default:"openai"`
	BaseURL     string  `yaml:"base_url" env:"CHAT_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model       string  `yaml:"model" env:"CHAT_MODEL" env-default:"nvidia/nemotron-3-nano-30b-a3b:free"`
	APIKey      string  `yaml:"-" env:"CHAT_API_KEY"`
	MaxTokens   int     `yaml:"max_tokens" env:"CHAT_MAX_TOKENS" env-default:"500"`
	Temperature float64 `yaml:"temperature" env:"CHAT_TEMPERATURE" env-default:"0.7"`
	Referer     string  `yaml:"referer" env:"CHAT_REFERER" env-default:""`
	Title       string  `yaml:"title" env:"CHAT_TITLE" env-default:"Zenarog Medical Assistant"`
}

// IsAvailable returns true if the chat model can be called.
func (c *ChatConfig) IsAvailable() bool {
	return c.Model != "" && c.APIKey != ""
}

// OpenFDAConfig holds the drug label API settings.
type OpenFDAConfig struct {
	BaseURL string `yaml:"base_url" env:"OPENFDA_BASE_URL" env-default:"https://api.fda.gov/drug/label.json"`
	APIKey  string `yaml:"-" env:"OPENFDA_API_KEY"`
	Limit   int    `yaml:"limit" env:"OPENFDA_LIMIT" env-default:"3"`
	// Timeout bounds a single request. 0 = bounded only by the request context.
	Timeout time.Duration `yaml:"timeout" env:"OPENFDA_TIMEOUT" env-default:"0s"`
}

// IdentificationConfig tunes the medication identification pipeline.
type IdentificationConfig struct {
	// ConfidenceFloor is the minimum confidence assigned to imprint dictionary hits.
	ConfidenceFloor float64 `yaml:"confidence_floor" env:"IDENTIFY_CONFIDENCE_FLOOR" env-default:"0.7"`
}

// SentryConfig holds optional error reporting settings.
type SentryConfig struct {
	DSN        string  `yaml:"-" env:"SENTRY_DSN"`
	SampleRate float64 `yaml:"sample_rate" env:"SENTRY_SAMPLE_RATE" env-default:"1.0"`
}

// IsAvailable returns true if Sentry reporting is configured.
func (c *SentryConfig) IsAvailable() bool {
	return c.DSN != ""
}

// Load reads configuration from config.yaml with environment variable overrides.
// A .env file in the working directory is loaded first when present.
// When config.yaml does not exist, configuration comes from the environment alone.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.parseComplexFields()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	c.AllowedOrigins = splitList(c.AllowedOriginsStr)
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendMongo, StoreBackendMemory:
	case StoreBackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("jwks_endpoints must be set when auth verification is enabled")
	}

	if c.IsProduction() && c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}

	if c.Identification.ConfidenceFloor < 0 || c.Identification.ConfidenceFloor > 1 {
		return fmt.Errorf("identification.confidence_floor must be within [0,1]")
	}

	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		if ok {
			endpoints[strings.TrimSpace(issuer)] = strings.TrimSpace(jwksURL)
		}
	}
	return endpoints
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
