package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Roster   RosterConfig   `toml:"roster"`
	Store    StoreConfig    `toml:"store"`
	Mail     MailConfig     `toml:"mail"`
	Sync     SyncConfig     `toml:"sync"`
	Database DatabaseConfig `toml:"database"`
}

// RosterConfig describes the published-CSV roster feed and how its columns map
// to member fields.
type RosterConfig struct {
	URL           string        `toml:"url"`
	CacheBust     bool          `toml:"cache_bust"`
	HeaderRow     bool          `toml:"header_row"`
	CountryPrefix string        `toml:"country_prefix"`
	Columns       ColumnsConfig `toml:"columns"`
}

// ColumnsConfig selects between heuristic header matching ("auto") and fixed
// positional indices ("fixed").
type ColumnsConfig struct {
	Mode  string `toml:"mode"`
	ID    int    `toml:"id"`
	Title int    `toml:"title"`
	First int    `toml:"first"`
	Last  int    `toml:"last"`
	Phone int    `toml:"phone"`
}

// StoreConfig contains record store connection settings and property names.
type StoreConfig struct {
	BaseURL       string  `toml:"base_url"`
	Token         string  `toml:"token"`
	DatabaseID    string  `toml:"database_id"`
	RateLimit     float64 `toml:"rate_limit"`
	PageSize      int     `toml:"page_size"`
	IDProperty    string  `toml:"id_property"`
	NameProperty  string  `toml:"name_property"`
	PhoneProperty string  `toml:"phone_property"`
}

// MailConfig contains the outbound mail transport settings.
type MailConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Sender    string `toml:"sender"`
	Recipient string `toml:"recipient"`
}

// SyncConfig contains scheduling and retry settings.
type SyncConfig struct {
	IntervalHours  int    `toml:"interval_hours"`
	RetryAttempts  int    `toml:"retry_attempts"`
	RetryBackoffMS int    `toml:"retry_backoff_ms"`
	RetryMode      string `toml:"retry_mode"`
}

// DatabaseConfig contains run-history database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the
// embedded example config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.ApplyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credential-bearing fields from ROSYNC_* environment
// variables. Environment values always win over file values.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ROSYNC_ROSTER_URL"); v != "" {
		c.Roster.URL = v
	}
	if v := os.Getenv("ROSYNC_STORE_TOKEN"); v != "" {
		c.Store.Token = v
	}
	if v := os.Getenv("ROSYNC_STORE_DATABASE_ID"); v != "" {
		c.Store.DatabaseID = v
	}
	if v := os.Getenv("ROSYNC_MAIL_API_KEY"); v != "" {
		c.Mail.APIKey = v
	}
}

// placeholder reports whether a value is empty or still carries the
// "your_..." template text from the example config.
func placeholder(v string) bool {
	return v == "" || strings.HasPrefix(v, "your_")
}

// ValidateRoster checks the settings needed to fetch and parse the roster.
func (c *Config) ValidateRoster() error {
	if placeholder(c.Roster.URL) || strings.Contains(c.Roster.URL, "/example/") {
		return fmt.Errorf("%w: roster.url is required", ErrInvalidConfig)
	}
	mode := c.Roster.Columns.Mode
	if mode != "" && mode != "auto" && mode != "fixed" {
		return fmt.Errorf("%w: roster.columns.mode must be auto or fixed", ErrInvalidConfig)
	}
	// Column detection reads the header row, so auto mode cannot work without one.
	if mode != "fixed" && !c.Roster.HeaderRow {
		return fmt.Errorf("%w: roster.header_row must be true when roster.columns.mode is auto", ErrInvalidConfig)
	}
	return nil
}

// ValidateStore checks the record store credentials.
func (c *Config) ValidateStore() error {
	if placeholder(c.Store.Token) {
		return fmt.Errorf("%w: store.token is required", ErrMissingCredentials)
	}
	if placeholder(c.Store.DatabaseID) {
		return fmt.Errorf("%w: store.database_id is required", ErrMissingCredentials)
	}
	return nil
}

// ValidateMail checks the mail transport credentials.
func (c *Config) ValidateMail() error {
	if placeholder(c.Mail.APIKey) {
		return fmt.Errorf("%w: mail.api_key is required", ErrMissingCredentials)
	}
	if c.Mail.Sender == "" || c.Mail.Recipient == "" {
		return fmt.Errorf("%w: mail.sender and mail.recipient are required", ErrInvalidConfig)
	}
	return nil
}

// Validate checks everything a full sync run needs. Commands call this at
// startup so missing configuration fails fast rather than mid-run.
func (c *Config) Validate() error {
	if err := c.ValidateRoster(); err != nil {
		return err
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	return c.ValidateMail()
}
