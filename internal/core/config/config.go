package config

import (
	"time"

	"github.com/vietddude/akashic/internal/capture/backoff"
	"github.com/vietddude/akashic/internal/core/lists"
	"github.com/vietddude/akashic/internal/discovery/poller"
	"github.com/vietddude/akashic/internal/infra/feed"
	redisclient "github.com/vietddude/akashic/internal/infra/redis"
	"github.com/vietddude/akashic/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Feed       feed.Config        `yaml:"feed"`
	Poll       poller.Config      `yaml:"poll"`
	Metadata   MetadataConfig     `yaml:"metadata"`
	Lists      lists.Paths        `yaml:"lists"`
	Downloader DownloaderConfig   `yaml:"downloader"`
	Capture    CaptureConfig      `yaml:"capture"`
	Redis      redisclient.Config `yaml:"redis"`
	Database   postgres.Config    `yaml:"database"`
	LockFile   string             `yaml:"lock_file"`
}

// ServerConfig holds HTTP and gRPC health server settings.
type ServerConfig struct {
	Port     int `yaml:"port"`
	GRPCPort int `yaml:"grpc_port"` // 0 disables the gRPC health service
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level         string `yaml:"level"` // debug, info, warn, error
	Dir           string `yaml:"dir"`   // empty = console only
	RetentionDays int    `yaml:"retention_days"`
}

// MetadataConfig holds the secondary live-status lookup settings.
type MetadataConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DownloaderConfig holds the external download tool settings.
type DownloaderConfig struct {
	Binary        string        `yaml:"binary"`
	TempDir       string        `yaml:"temp_dir"`
	HomeDir       string        `yaml:"home_dir"`
	LiveOnly      bool          `yaml:"live_only"`
	CookieFile    string        `yaml:"cookie_file"`
	SocketTimeout time.Duration `yaml:"socket_timeout"`
}

// CaptureConfig holds session and classification settings.
type CaptureConfig struct {
	Backoff          backoff.Policy `yaml:"backoff"`
	LiveOnlyExternal *bool          `yaml:"live_only_external"`
	LockTTL          time.Duration  `yaml:"lock_ttl"`
}

// ExternalLiveOnly reports whether external links wait for live status.
func (c CaptureConfig) ExternalLiveOnly() bool {
	return c.LiveOnlyExternal == nil || *c.LiveOnlyExternal
}
