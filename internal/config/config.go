package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// ErrInvalid marks configuration that must stop the process from starting
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Monitor       MonitorConfig      `yaml:"monitor"`
	Reader        ReaderConfig       `yaml:"reader,omitempty"`
	Dormitories   []DormitoryConfig  `yaml:"dormitories"`
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	Templates     TemplateConfig     `yaml:"templates,omitempty"`
	Database      DatabaseConfig     `yaml:"database,omitempty"`
	Metrics       MetricsConfig      `yaml:"metrics,omitempty"`
}

// MonitorConfig holds the schedule and decision parameters
type MonitorConfig struct {
	ScheduleTime           string        `yaml:"schedule_time,omitempty"`                 // HH:MM local time (default 19:00)
	GlobalThreshold        *float64      `yaml:"global_threshold,omitempty"`              // Default 10.0
	CooldownSeconds        int           `yaml:"notification_cooldown_seconds,omitempty"` // Default 3600
	RequestIntervalSeconds *float64      `yaml:"request_interval_seconds,omitempty"`      // Pause between rooms (default 2)
	PollIntervalSeconds    int           `yaml:"poll_interval_seconds,omitempty"`         // Trigger poll (default 60)
	StopTimeoutSeconds     int           `yaml:"stop_timeout_seconds,omitempty"`          // Default 5
	RoomsFile              string        `yaml:"rooms_file,omitempty"`                    // Room catalog CSV
	Logging                LoggingConfig `yaml:"logging,omitempty"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // Default true
	Level   string `yaml:"level,omitempty"`   // debug, info, warn, error
	File    string `yaml:"file,omitempty"`    // {date} is replaced with YYYYMMDD
}

// ReaderConfig holds the billing page settings
type ReaderConfig struct {
	Mode           string `yaml:"mode,omitempty"`     // "http" (default) or "browser"
	BaseURL        string `yaml:"base_url,omitempty"` // Billing page without query string
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	UserAgent      string `yaml:"user_agent,omitempty"`
}

// DormitoryConfig is one monitored room as written in the config file
type DormitoryConfig struct {
	ID        string   `yaml:"dorm_id"`
	Name      string   `yaml:"dorm_name,omitempty"`
	Type      string   `yaml:"dorm_type,omitempty"`
	Enabled   *bool    `yaml:"enabled,omitempty"` // Default true
	Threshold *float64 `yaml:"low_power_threshold,omitempty"`
}

// NotificationConfig holds every notification channel
type NotificationConfig struct {
	ServerChan    ServerChanConfig `yaml:"server_chan,omitempty"`
	CustomWebhook WebhookConfig    `yaml:"custom_webhook,omitempty"`
	MQTT          MQTTConfig       `yaml:"mqtt,omitempty"`
}

// ServerChanConfig holds ServerChan push settings
type ServerChanConfig struct {
	Enabled bool   `yaml:"enabled"`
	SendKey string `yaml:"sendkey"`
	URL     string `yaml:"url,omitempty"` // {sendkey} is substituted
}

// WebhookConfig holds a user-defined HTTP endpoint
type WebhookConfig struct {
	Enabled  bool              `yaml:"enabled"`
	URL      string            `yaml:"url"`
	Method   string            `yaml:"method,omitempty"` // POST (default) or GET
	Headers  map[string]string `yaml:"headers,omitempty"`
	Template TemplateConfig    `yaml:"template,omitempty"`
}

// MQTTConfig holds MQTT broker settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // Default "dormwatch"
	ClientID    string `yaml:"client_id,omitempty"`
}

// TemplateConfig holds message templates
type TemplateConfig struct {
	Title   string `yaml:"title,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// DatabaseConfig controls the reading history store
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"` // Default ":9105"
}

// Load reads and validates the config file. A missing file is an error.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %s does not exist", ErrInvalid, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file: %v", ErrInvalid, err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate rejects configuration the service cannot start with
func (c *Config) Validate() error {
	var problems []string

	if _, _, err := ParseClock(c.GetScheduleTime()); err != nil {
		problems = append(problems, err.Error())
	}
	if len(c.Dormitories) == 0 {
		problems = append(problems, "no dormitories configured")
	}

	seen := make(map[string]bool, len(c.Dormitories))
	for i, d := range c.Dormitories {
		if strings.TrimSpace(d.ID) == "" {
			problems = append(problems, fmt.Sprintf("dormitories[%d]: dorm_id is required", i))
			continue
		}
		if seen[d.ID] {
			problems = append(problems, fmt.Sprintf("dormitories[%d]: duplicate dorm_id %q", i, d.ID))
		}
		seen[d.ID] = true
	}

	if c.Notifications.ServerChan.Enabled && c.Notifications.ServerChan.SendKey == "" {
		problems = append(problems, "server_chan is enabled but sendkey is empty")
	}
	if c.Notifications.CustomWebhook.Enabled && c.Notifications.CustomWebhook.URL == "" {
		problems = append(problems, "custom_webhook is enabled but url is empty")
	}
	if m := strings.ToUpper(c.Notifications.CustomWebhook.Method); m != "" && m != "POST" && m != "GET" {
		problems = append(problems, fmt.Sprintf("custom_webhook method %q is not GET or POST", c.Notifications.CustomWebhook.Method))
	}
	if c.Notifications.MQTT.Enabled && c.Notifications.MQTT.Broker == "" {
		problems = append(problems, "mqtt is enabled but broker is empty")
	}
	if mode := c.GetReaderMode(); mode != "http" && mode != "browser" {
		problems = append(problems, fmt.Sprintf("reader mode %q is not http or browser", mode))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ParseClock parses an HH:MM 24-hour time of day
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("schedule_time %q is not HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// GetScheduleTime returns the daily trigger time, default 19:00
func (c *Config) GetScheduleTime() string {
	if c.Monitor.ScheduleTime == "" {
		return "19:00"
	}
	return c.Monitor.ScheduleTime
}

// GetGlobalThreshold returns the default low-power threshold, default 10.0
func (c *Config) GetGlobalThreshold() float64 {
	if c.Monitor.GlobalThreshold == nil {
		return 10.0
	}
	return *c.Monitor.GlobalThreshold
}

// GetCooldown returns the notification mute window, default one hour
func (c *Config) GetCooldown() time.Duration {
	if c.Monitor.CooldownSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Monitor.CooldownSeconds) * time.Second
}

// GetRequestInterval returns the pause between room queries, default 2s
func (c *Config) GetRequestInterval() time.Duration {
	if c.Monitor.RequestIntervalSeconds == nil || *c.Monitor.RequestIntervalSeconds < 0 {
		return 2 * time.Second
	}
	return time.Duration(*c.Monitor.RequestIntervalSeconds * float64(time.Second))
}

// GetPollInterval returns how often the scheduler checks for a due trigger, default 60s
func (c *Config) GetPollInterval() time.Duration {
	if c.Monitor.PollIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Monitor.PollIntervalSeconds) * time.Second
}

// GetStopTimeout returns how long Stop waits for the loop, default 5s
func (c *Config) GetStopTimeout() time.Duration {
	if c.Monitor.StopTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Monitor.StopTimeoutSeconds) * time.Second
}

// GetReaderMode returns the power reader implementation, default "http"
func (c *Config) GetReaderMode() string {
	if c.Reader.Mode == "" {
		return "http"
	}
	return strings.ToLower(c.Reader.Mode)
}

// GetReaderBaseURL returns the billing page URL
func (c *Config) GetReaderBaseURL() string {
	if c.Reader.BaseURL == "" {
		return "http://hydz.xsyu.edu.cn/wxpay/homeinfo.aspx"
	}
	return c.Reader.BaseURL
}

// GetReaderTimeout returns the per-query timeout, default 15s
func (c *Config) GetReaderTimeout() time.Duration {
	if c.Reader.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Reader.TimeoutSeconds) * time.Second
}

// GetMetricsListen returns the metrics listen address, default :9105
func (c *Config) GetMetricsListen() string {
	if c.Metrics.Listen == "" {
		return ":9105"
	}
	return c.Metrics.Listen
}

// LoggingEnabled reports whether log output is wanted at all
func (l LoggingConfig) LoggingEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// Rooms converts the configured dormitories to rooms, in file order.
// Names and types missing from the config are filled from catalog when given.
func (c *Config) Rooms(catalog Catalog) []models.Room {
	rooms := make([]models.Room, 0, len(c.Dormitories))
	for _, d := range c.Dormitories {
		room := models.Room{
			ID:        d.ID,
			Name:      d.Name,
			Type:      d.Type,
			Enabled:   d.Enabled == nil || *d.Enabled,
			Threshold: d.Threshold,
		}

		if entry, ok := catalog[d.ID]; ok {
			if room.Name == "" {
				room.Name = entry.Name
			}
			if room.Type == "" {
				room.Type = entry.Type
			}
		}
		if room.Name == "" {
			room.Name = d.ID
		}

		rooms = append(rooms, room)
	}
	return rooms
}
