package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config represents the main configuration for Atelier
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Features FeatureConfig  `json:"features"`
	Mailer   MailerConfig   `json:"mailer"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        int      `json:"port"`
	Host        string   `json:"host"`
	CORSOrigins []string `json:"cors_origins"`
	LogLevel    string   `json:"log_level"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig contains admin authentication configuration.
// An empty AdminPassword leaves the server running but every admin route answers 500.
type AuthConfig struct {
	AdminPassword string `json:"-"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Content ContentConfig `json:"content"`
	Images  ImagesConfig  `json:"images"`
	WeChat  WeChatConfig  `json:"wechat"`
}

// ContentConfig contains portfolio/blog configuration
type ContentConfig struct {
	Enabled         bool `json:"enabled"`
	Seed            bool `json:"seed"`
	PublicRateLimit int  `json:"public_rate_limit"`
}

// ImagesConfig contains image store configuration
type ImagesConfig struct {
	Enabled     bool `json:"enabled"`
	MaxUploadMB int  `json:"max_upload_mb"`
}

// WeChatConfig contains public-account sync configuration
type WeChatConfig struct {
	Enabled        bool   `json:"enabled"`
	AppID          string `json:"app_id"`
	AppSecret      string `json:"-"`
	APIBase        string `json:"api_base"`
	IntervalHours  int    `json:"interval_hours"`
	DefaultAuthor  string `json:"default_author"`
	ImportCategory string `json:"import_category"`
	MaxPages       int    `json:"max_pages"`
}

// MailerConfig contains SMTP2GO settings for sync report mail
type MailerConfig struct {
	SMTP2GOAPIKey   string `json:"-"`
	SMTP2GOSender   string `json:"smtp2go_sender"`
	ReportRecipient string `json:"report_recipient"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("PORT", 5000),
			Host:        getEnvOrDefault("HOST", "0.0.0.0"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
			LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DB_PATH", "./atelier.db"),
		},
		Auth: AuthConfig{
			AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
		},
		Features: FeatureConfig{
			Content: ContentConfig{
				Enabled:         getEnvAsBool("ENABLE_CONTENT", true),
				Seed:            getEnvAsBool("SEED_CONTENT", true),
				PublicRateLimit: getEnvAsInt("PUBLIC_RATE_LIMIT", 10),
			},
			Images: ImagesConfig{
				Enabled:     getEnvAsBool("ENABLE_IMAGES", true),
				MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 100),
			},
			WeChat: WeChatConfig{
				Enabled:        getEnvAsBool("ENABLE_WECHAT", true),
				AppID:          getEnvOrDefault("WECHAT_APP_ID", ""),
				AppSecret:      getEnvOrDefault("WECHAT_APP_SECRET", ""),
				APIBase:        getEnvOrDefault("WECHAT_API_BASE", "https://api.weixin.qq.com"),
				IntervalHours:  getEnvAsInt("WECHAT_SYNC_INTERVAL_HOURS", 6),
				DefaultAuthor:  getEnvOrDefault("WECHAT_DEFAULT_AUTHOR", "AI创作者"),
				ImportCategory: getEnvOrDefault("WECHAT_IMPORT_CATEGORY", "公众号导入"),
				MaxPages:       getEnvAsInt("WECHAT_SYNC_MAX_PAGES", 5),
			},
		},
		Mailer: MailerConfig{
			SMTP2GOAPIKey:   getEnvOrDefault("SMTP2GO_API_KEY", ""),
			SMTP2GOSender:   getEnvOrDefault("SMTP2GO_SENDER", "Atelier <atelier@localhost>"),
			ReportRecipient: getEnvOrDefault("SYNC_REPORT_RECIPIENT", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Features.Images.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive: %d", c.Features.Images.MaxUploadMB)
	}

	if c.Features.WeChat.Enabled && !c.Features.Images.Enabled {
		return fmt.Errorf("wechat sync requires the images feature")
	}

	if c.Features.WeChat.Enabled && !c.Features.Content.Enabled {
		return fmt.Errorf("wechat sync requires the content feature")
	}

	return nil
}

// SyncInterval returns the scheduled sync period in hours, substituting 6 for non-positive values
func (w WeChatConfig) SyncInterval() int {
	if w.IntervalHours <= 0 {
		return 6
	}
	return w.IntervalHours
}

// HasCredentials reports whether both app id and secret are configured
func (w WeChatConfig) HasCredentials() bool {
	return w.AppID != "" && w.AppSecret != ""
}

// MailEnabled reports whether sync reports can be mailed
func (m MailerConfig) MailEnabled() bool {
	return m.SMTP2GOAPIKey != "" && m.ReportRecipient != ""
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "content":
		return c.Features.Content.Enabled
	case "images":
		return c.Features.Images.Enabled
	case "wechat":
		return c.Features.WeChat.Enabled
	default:
		return false
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
