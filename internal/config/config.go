package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ChannelDigest/internal/domain"
)

const (
	defaultTimezone = "UTC"

	configPathEnv         = "CHANNEL_DIGEST_CONFIG"
	databaseDSNEnv        = "DATABASE_DSN"
	claudeAPIKeyEnv       = "CLAUDE_API_KEY"
	claudeModelEnv        = "CLAUDE_MODEL"
	telegramTokenEnv      = "TELEGRAM_BOT_TOKEN"
	targetChannelEnv      = "TARGET_CHANNEL_ID"
	telegraphTokenEnv     = "TELEGRAPH_ACCESS_TOKEN"
	telegraphAuthorEnv    = "TELEGRAPH_AUTHOR_NAME"
	telegraphAuthorURLEnv = "TELEGRAPH_AUTHOR_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Collector  CollectorConfig  `yaml:"collector"`
	Claude     ClaudeConfig     `yaml:"claude"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Telegraph  TelegraphConfig  `yaml:"telegraph"`
	Prompts    PromptConfig     `yaml:"prompts"`
	Channels   []ChannelConfig  `yaml:"channels"`
	Categories []CategoryConfig `yaml:"categories"`
	Logging    LoggingConfig    `yaml:"logging"`

	path string `yaml:"-"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// CollectorConfig bounds the collection stage.
type CollectorConfig struct {
	HoursBack          int    `yaml:"hoursBack"`
	MinPostLength      int    `yaml:"minPostLength"`
	MaxPostsPerChannel int    `yaml:"maxPostsPerChannel"`
	PreviewBaseURL     string `yaml:"previewBaseUrl"`
}

// ClaudeConfig defines how to contact the generative API.
type ClaudeConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
}

// TelegramConfig wires the bot used to publish short posts.
type TelegramConfig struct {
	BotToken        string `yaml:"botToken"`
	TargetChannelID string `yaml:"targetChannelId"`
	Endpoint        string `yaml:"endpoint"`
}

// TelegraphConfig wires the long-form article host.
type TelegraphConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AccessToken string `yaml:"accessToken"`
	AuthorName  string `yaml:"authorName"`
	AuthorURL   string `yaml:"authorUrl"`
}

// PromptConfig groups the prompt templates used for summarization.
type PromptConfig struct {
	Summarization PromptSetConfig `yaml:"summarization"`
}

// PromptSetConfig is one system/user template pair. Each value is either
// inline text or a path to a template file relative to the config file.
type PromptSetConfig struct {
	SystemPrompt string `yaml:"systemPrompt"`
	UserPrompt   string `yaml:"userPrompt"`
}

// Set converts the pair to its domain form.
func (p PromptSetConfig) Set() domain.PromptSet {
	return domain.PromptSet{SystemPrompt: p.SystemPrompt, UserPrompt: p.UserPrompt}
}

// ChannelConfig describes a single channel to collect from.
type ChannelConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Category string `yaml:"category"`
	Source   string `yaml:"source"`
}

// CategoryConfig is one entry of the digest taxonomy.
type CategoryConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Icon  string `yaml:"icon"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// EnabledChannels returns the configured channels that are switched on,
// converted to their domain form.
func (c Config) EnabledChannels() []domain.Channel {
	channels := make([]domain.Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		if !ch.Enabled {
			continue
		}
		channels = append(channels, domain.Channel{
			ID:       ch.ID,
			Name:     ch.Name,
			Enabled:  ch.Enabled,
			Category: ch.Category,
			Source:   ch.Source,
		})
	}
	return channels
}

// CategoryTaxonomy converts configured categories to their domain form.
func (c Config) CategoryTaxonomy() []domain.Category {
	categories := make([]domain.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		categories = append(categories, domain.Category{ID: cat.ID, Title: cat.Title, Icon: cat.Icon})
	}
	return categories
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()
	cfg.path = os.Getenv(configPathEnv)

	if cfg.path != "" {
		if fileCfg, err := readFile(cfg.path); err != nil {
			log.Printf("config: cannot load %s: %v (falling back to defaults)", cfg.path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Reload re-reads the config file and returns a fresh Config with the same
// overrides applied. The receiver is left untouched.
func (c Config) Reload() (Config, error) {
	next := defaultConfig()
	next.path = c.path

	if c.path != "" {
		fileCfg, err := readFile(c.path)
		if err != nil {
			return Config{}, fmt.Errorf("reload config: %w", err)
		}
		next = mergeConfig(next, fileCfg)
	}

	next.applyEnvOverrides()
	next.bindTimezone()
	return next, nil
}

// Validate fails fast on missing required credentials so that no stage starts
// I/O with a configuration that cannot complete a run.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database dsn is required")
	}
	if c.Claude.APIKey == "" {
		return fmt.Errorf("config: claude api key is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("config: telegram bot token is required")
	}
	if c.Telegram.TargetChannelID == "" {
		return fmt.Errorf("config: target channel id is required")
	}
	if c.Telegraph.AccessToken == "" {
		return fmt.Errorf("config: telegraph access token is required")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("config: at least one channel is required")
	}
	return nil
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(claudeAPIKeyEnv); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv(claudeModelEnv); v != "" {
		c.Claude.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(targetChannelEnv); v != "" {
		c.Telegram.TargetChannelID = v
	}

	if v := os.Getenv(telegraphTokenEnv); v != "" {
		c.Telegraph.AccessToken = v
	}
	if v := os.Getenv(telegraphAuthorEnv); v != "" {
		c.Telegraph.AuthorName = v
	}
	if v := os.Getenv(telegraphAuthorURLEnv); v != "" {
		c.Telegraph.AuthorURL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Collector.HoursBack > 0 {
		base.Collector.HoursBack = override.Collector.HoursBack
	}
	if override.Collector.MinPostLength > 0 {
		base.Collector.MinPostLength = override.Collector.MinPostLength
	}
	if override.Collector.MaxPostsPerChannel > 0 {
		base.Collector.MaxPostsPerChannel = override.Collector.MaxPostsPerChannel
	}
	if override.Collector.PreviewBaseURL != "" {
		base.Collector.PreviewBaseURL = override.Collector.PreviewBaseURL
	}

	if override.Claude.Endpoint != "" {
		base.Claude.Endpoint = override.Claude.Endpoint
	}
	if override.Claude.Model != "" {
		base.Claude.Model = override.Claude.Model
	}
	if override.Claude.APIKey != "" {
		base.Claude.APIKey = override.Claude.APIKey
	}
	if override.Claude.MaxTokens > 0 {
		base.Claude.MaxTokens = override.Claude.MaxTokens
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.TargetChannelID != "" {
		base.Telegram.TargetChannelID = override.Telegram.TargetChannelID
	}
	if override.Telegram.Endpoint != "" {
		base.Telegram.Endpoint = override.Telegram.Endpoint
	}

	if override.Telegraph.Endpoint != "" {
		base.Telegraph.Endpoint = override.Telegraph.Endpoint
	}
	if override.Telegraph.AccessToken != "" {
		base.Telegraph.AccessToken = override.Telegraph.AccessToken
	}
	if override.Telegraph.AuthorName != "" {
		base.Telegraph.AuthorName = override.Telegraph.AuthorName
	}
	if override.Telegraph.AuthorURL != "" {
		base.Telegraph.AuthorURL = override.Telegraph.AuthorURL
	}

	if override.Prompts.Summarization.SystemPrompt != "" {
		base.Prompts.Summarization.SystemPrompt = override.Prompts.Summarization.SystemPrompt
	}
	if override.Prompts.Summarization.UserPrompt != "" {
		base.Prompts.Summarization.UserPrompt = override.Prompts.Summarization.UserPrompt
	}

	if len(override.Channels) > 0 {
		base.Channels = override.Channels
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{CronExpression: "0 18 * * *", Timezone: defaultTimezone, location: tz},
		Collector: CollectorConfig{
			HoursBack:          24,
			MinPostLength:      50,
			MaxPostsPerChannel: 100,
			PreviewBaseURL:     "https://t.me",
		},
		Claude: ClaudeConfig{
			Endpoint:  "https://api.anthropic.com",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4000,
		},
		Telegram: TelegramConfig{
			Endpoint: "https://api.telegram.org",
		},
		Telegraph: TelegraphConfig{
			Endpoint:   "https://api.telegra.ph",
			AuthorName: "Channel Digest",
		},
		Prompts: PromptConfig{
			Summarization: PromptSetConfig{
				SystemPrompt: "You are a news editor producing a categorized daily digest.",
				UserPrompt: "Summarize the following posts into a short overview and per-category sections.\n\n" +
					"Posts:\n{{newsContent}}\n\nCategories:\n{{categories}}\n\nPrevious digests for style reference:\n{{previousSummaries}}\n\n" +
					"Respond with a JSON object: {\"summary\": string, \"categories\": [{\"categoryId\": string, \"title\": string, \"content\": string}]}.",
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
