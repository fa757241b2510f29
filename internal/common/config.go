package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultDescriptionTemplate is used when [ticket] description_template is empty
const DefaultDescriptionTemplate = "From: {from}\nTo: {to}\nDate: {date}\n\n----- Email Content -----\n\n{body}"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Jira       JiraConfig       `toml:"jira"`
	Ticket     TicketConfig     `toml:"ticket"`
	Fields     FieldsConfig     `toml:"fields"`
	Extraction ExtractionConfig `toml:"extraction"`
	Storage    StorageConfig    `toml:"storage"`
	Logging    LoggingConfig    `toml:"logging"`
	IMAP       IMAPConfig       `toml:"imap"`
	Browser    BrowserConfig    `toml:"browser"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// JiraConfig holds the tracker connection settings.
// Validation is only enforced by commands that contact the tracker.
type JiraConfig struct {
	BaseURL          string   `toml:"base_url" validate:"required,url"`
	Email            string   `toml:"email" validate:"required,email"`
	APIToken         string   `toml:"api_token" validate:"required"`
	DefaultProject   string   `toml:"default_project"`
	DefaultIssueType string   `toml:"default_issue_type"`
	Timeout          Duration `toml:"timeout"`    // Per-request HTTP timeout
	RateLimit        float64  `toml:"rate_limit"` // Requests per second, 0 disables limiting
}

type TicketConfig struct {
	DescriptionTemplate string `toml:"description_template"`
	BodyFormat          string `toml:"body_format"` // "text" (default) or "markdown"
}

type FieldsConfig struct {
	CacheTTL Duration `toml:"cache_ttl"` // Field metadata cache lifetime
	SeedFile string   `toml:"seed_file"` // Optional TOML file of fields to configure at startup
}

type ExtractionConfig struct {
	SelectorsFile string `toml:"selectors_file"` // Optional TOML file overriding selector chains
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type IMAPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	UseTLS   bool   `toml:"use_tls"`
	Mailbox  string `toml:"mailbox"`
}

type BrowserConfig struct {
	DebugURL string   `toml:"debug_url"` // Chrome remote debugging endpoint, e.g. http://localhost:9222
	Timeout  Duration `toml:"timeout"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8765,
			Host: "localhost",
		},
		Jira: JiraConfig{
			DefaultIssueType: "Task",
			Timeout:          NewDuration(30 * time.Second),
			RateLimit:        5,
		},
		Ticket: TicketConfig{
			DescriptionTemplate: DefaultDescriptionTemplate,
			BodyFormat:          "text",
		},
		Fields: FieldsConfig{
			CacheTTL: NewDuration(time.Hour),
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		IMAP: IMAPConfig{
			Port:    993,
			UseTLS:  true,
			Mailbox: "INBOX",
		},
		Browser: BrowserConfig{
			DebugURL: "http://localhost:9222",
			Timeout:  NewDuration(15 * time.Second),
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	config.normalize()

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("MAILTICKET_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MAILTICKET_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Jira configuration
	if baseURL := os.Getenv("MAILTICKET_JIRA_BASE_URL"); baseURL != "" {
		config.Jira.BaseURL = baseURL
	}
	if email := os.Getenv("MAILTICKET_JIRA_EMAIL"); email != "" {
		config.Jira.Email = email
	}
	if token := os.Getenv("MAILTICKET_JIRA_API_TOKEN"); token != "" {
		config.Jira.APIToken = token
	}
	if project := os.Getenv("MAILTICKET_JIRA_DEFAULT_PROJECT"); project != "" {
		config.Jira.DefaultProject = project
	}
	if issueType := os.Getenv("MAILTICKET_JIRA_DEFAULT_ISSUE_TYPE"); issueType != "" {
		config.Jira.DefaultIssueType = issueType
	}
	if timeout := os.Getenv("MAILTICKET_JIRA_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Jira.Timeout = NewDuration(d)
		}
	}
	if rateLimit := os.Getenv("MAILTICKET_JIRA_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.ParseFloat(rateLimit, 64); err == nil {
			config.Jira.RateLimit = r
		}
	}

	// Ticket configuration
	if bodyFormat := os.Getenv("MAILTICKET_TICKET_BODY_FORMAT"); bodyFormat != "" {
		config.Ticket.BodyFormat = bodyFormat
	}

	// Fields configuration
	if ttl := os.Getenv("MAILTICKET_FIELDS_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Fields.CacheTTL = NewDuration(d)
		}
	}

	if seedFile := os.Getenv("MAILTICKET_FIELDS_SEED_FILE"); seedFile != "" {
		config.Fields.SeedFile = seedFile
	}

	// Extraction configuration
	if selectorsFile := os.Getenv("MAILTICKET_SELECTORS_FILE"); selectorsFile != "" {
		config.Extraction.SelectorsFile = selectorsFile
	}

	// Storage configuration
	if badgerPath := os.Getenv("MAILTICKET_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("MAILTICKET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MAILTICKET_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// IMAP configuration
	if host := os.Getenv("MAILTICKET_IMAP_HOST"); host != "" {
		config.IMAP.Host = host
	}
	if port := os.Getenv("MAILTICKET_IMAP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.IMAP.Port = p
		}
	}
	if username := os.Getenv("MAILTICKET_IMAP_USERNAME"); username != "" {
		config.IMAP.Username = username
	}
	if password := os.Getenv("MAILTICKET_IMAP_PASSWORD"); password != "" {
		config.IMAP.Password = password
	}

	// Browser configuration
	if debugURL := os.Getenv("MAILTICKET_BROWSER_DEBUG_URL"); debugURL != "" {
		config.Browser.DebugURL = debugURL
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// normalize fills blanks left by config files and tidies the tracker URL
func (c *Config) normalize() {
	c.Jira.BaseURL = NormalizeBaseURL(c.Jira.BaseURL)
	if strings.TrimSpace(c.Jira.DefaultIssueType) == "" {
		c.Jira.DefaultIssueType = "Task"
	}
	if strings.TrimSpace(c.Ticket.DescriptionTemplate) == "" {
		c.Ticket.DescriptionTemplate = DefaultDescriptionTemplate
	}
	if c.Fields.CacheTTL.Duration <= 0 {
		c.Fields.CacheTTL = NewDuration(time.Hour)
	}
}

// NormalizeBaseURL prepends https:// when no scheme is given and strips trailing slashes
func NormalizeBaseURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}

// ValidateJira checks the tracker settings required to contact the API
func (c *Config) ValidateJira() error {
	if err := validator.New().Struct(c.Jira); err != nil {
		return fmt.Errorf("invalid [jira] configuration: %w", err)
	}
	return nil
}

// DeepCloneConfig creates a deep copy of the Config struct
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c
	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}
	return &clone
}
