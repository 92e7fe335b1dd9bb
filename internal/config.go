package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store mediums.
const (
	StoreMediumFile   = "file"
	StoreMediumSQLite = "sqlite"
	StoreMediumMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Notes  NotesConfig       `yaml:"notes"`
	Mail   MailConfig        `yaml:"mail"`
	Search SearchConfig      `yaml:"search"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Mail.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the key/value storage medium.
//
// Medium controls where the obfuscated store keeps its entries:
//   - "file" (default): one file per key under Path.
//   - "sqlite": a single SQLite database at Path.
//   - "memory": nothing persists; every start is a fresh install.
type StoreConfig struct {
	Medium string `yaml:"medium"`
	Path   string `yaml:"path"`
	// Secret overrides the generated obfuscation secret. Must be at
	// least 8 characters to take effect.
	Secret string `yaml:"secret"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Medium == "" {
		c.Medium = StoreMediumFile
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Medium, validation.Required,
			validation.In(StoreMediumFile, StoreMediumSQLite, StoreMediumMemory)),
	); err != nil {
		return err
	}
	if c.Medium != StoreMediumMemory && c.Path == "" {
		return fmt.Errorf("store: medium is %q but path is empty", c.Medium)
	}
	return nil
}

// NotesConfig tunes the notes engine.
type NotesConfig struct {
	// CharLimit is the plain-text character ceiling per note.
	CharLimit int `yaml:"char_limit"`
	// DebounceMs is the autosave debounce window in milliseconds.
	DebounceMs int `yaml:"debounce_ms"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CharLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.DebounceMs, validation.Required, validation.Min(1)),
	)
}

// Debounce returns the autosave window as a duration.
func (c *NotesConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// MailConfig holds the contact-form relay configuration. The relay is
// optional: with no API key the /api/mail route answers 503.
type MailConfig struct {
	APIKey     string `yaml:"api_key"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	DailyLimit int    `yaml:"daily_limit"`
	// BaseURL overrides the Resend endpoint, for tests.
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether the relay is configured.
func (c *MailConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the mail configuration.
func (c *MailConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.To == "" || c.From == "" {
		return fmt.Errorf("mail: api_key is set but from/to is empty")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DailyLimit, validation.Required, validation.Min(1)),
	)
}

// SearchConfig holds the web search proxy configuration. The proxy is
// optional: with no API key the /api/search route answers 503.
type SearchConfig struct {
	APIKey     string `yaml:"api_key"`
	DailyLimit int    `yaml:"daily_limit"`
	// BaseURL overrides the SerpAPI endpoint, for tests.
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether the proxy is configured.
func (c *SearchConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DailyLimit, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Medium: StoreMediumFile,
			Path:   "./data",
		},
		Notes: NotesConfig{
			CharLimit:  500,
			DebounceMs: 400,
		},
		Mail: MailConfig{
			DailyLimit: 10,
		},
		Search: SearchConfig{
			DailyLimit: 120,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
