package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/akashic/internal/core/lists"
	"github.com/vietddude/akashic/internal/discovery/poller"
)

// Load reads configuration from a YAML file and validates it for running
// the watcher.
func Load(path string) (*AppConfig, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses a YAML file and applies defaults without validation. Tools
// that only need part of the configuration use it directly.
func Read(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.resolveKeys(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 14
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = poller.DefaultInterval
	}
	if c.Poll.RetryInterval == 0 {
		c.Poll.RetryInterval = poller.DefaultRetryInterval
	}
	if c.Metadata.Timeout == 0 {
		c.Metadata.Timeout = 30 * time.Second
	}
	if c.Lists.Archive == "" {
		c.Lists.Archive = "res/archive.txt"
	}
	if c.Lists.Check == "" {
		c.Lists.Check = "res/check.txt"
	}
	if c.Lists.Keywords == "" {
		c.Lists.Keywords = "res/keywords.txt"
	}
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = "yt-dlp"
	}
	if c.Downloader.TempDir == "" {
		c.Downloader.TempDir = "active"
	}
	if c.Downloader.HomeDir == "" {
		c.Downloader.HomeDir = "downloads"
	}
	if c.Downloader.SocketTimeout == 0 {
		c.Downloader.SocketTimeout = 60 * time.Second
	}
	c.Capture.Backoff = c.Capture.Backoff.WithDefaults()
	if c.Capture.LockTTL == 0 {
		c.Capture.LockTTL = 2 * time.Minute
	}
	if c.LockFile == "" {
		c.LockFile = "akashic.lock"
	}
}

// resolveKeys reads API keys from key files when not given inline.
func (c *AppConfig) resolveKeys() error {
	if c.Feed.APIKey == "" && c.Feed.APIKeyFile != "" {
		key, err := lists.ReadKey(c.Feed.APIKeyFile)
		if err != nil {
			return fmt.Errorf("feed api key: %w", err)
		}
		c.Feed.APIKey = key
	}
	if c.Metadata.APIKey == "" && c.Metadata.APIKeyFile != "" {
		key, err := lists.ReadKey(c.Metadata.APIKeyFile)
		if err != nil {
			return fmt.Errorf("metadata api key: %w", err)
		}
		c.Metadata.APIKey = key
	}
	return nil
}

// Validate reports configuration that would abort startup anyway.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Feed.APIKey == "" {
		errs = append(errs, errors.New("feed.api_key or feed.api_key_file is required"))
	}
	if c.Metadata.APIKey == "" {
		errs = append(errs, errors.New("metadata.api_key or metadata.api_key_file is required"))
	}
	if c.Downloader.CookieFile != "" {
		if _, err := os.Stat(c.Downloader.CookieFile); err != nil {
			errs = append(errs, fmt.Errorf("downloader.cookie_file: %w", err))
		}
	}
	if c.Poll.Interval < 0 || c.Poll.RetryInterval < 0 {
		errs = append(errs, errors.New("poll intervals must not be negative"))
	}
	return errors.Join(errs...)
}
