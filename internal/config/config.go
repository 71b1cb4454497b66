// Package config provides configuration management for filedash.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config is the resolved client configuration.
//
// INI format:
//
//	[filedash]
//	api_url = https://dash.example.com/api
//	transform_url = https://ik.imagekit.io/acme
//	token = <bearer token>
//	user_id = user_2abc
//	download_dir = ~/Downloads
//
//	[http]
//	proxy_mode = no-proxy
//	timeout_seconds = 0
//	max_retries = 3
//	rate_limit = 10
//
//	[storage]
//	s3_region = us-east-1
//	azure_account = acmefiles
type Config struct {
	// Dashboard connection settings
	APIBaseURL   string `ini:"api_url"`
	TransformURL string `ini:"transform_url"`
	Token        string `ini:"token"`
	UserID       string `ini:"user_id"`
	DownloadDir  string `ini:"download_dir"`

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy

	// Request behavior
	MaxRetries     int
	TimeoutSeconds int     // per request, 0 disables
	RateLimit      float64 // requests per second against the API

	// Object storage used by s3:// and az:// file URLs
	Storage StorageConfig
}

// StorageConfig holds credentials for content hosted outside plain HTTP.
type StorageConfig struct {
	S3Region      string
	S3Endpoint    string // optional, for S3-compatible stores
	S3AccessKey   string // optional; the default AWS chain is used when empty
	S3SecretKey   string
	AzureAccount  string
	AzureSASToken string
}

// Validation errors
var (
	ErrMissingAPIURL    = errors.New("api_url is required")
	ErrInvalidProxyMode = errors.New("proxy_mode must be one of no-proxy, system, basic, ntlm")
	ErrInvalidTimeout   = errors.New("timeout_seconds must not be negative")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		APIBaseURL: "http://localhost:3000/api",
		ProxyMode:  "no-proxy",
		MaxRetries: 3,
		RateLimit:  10,
		Storage: StorageConfig{
			S3Region: "us-east-1",
		},
	}
}

// RequestTimeout returns the configured per-request timeout, zero when disabled.
func (cfg *Config) RequestTimeout() time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// Load reads configuration from an INI file.
// A missing file yields defaults and no error; a malformed file is an error.
// Environment overrides (FILEDASH_API_URL, FILEDASH_USER_ID) are applied last.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		readINI(iniFile, cfg)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	if v := os.Getenv("FILEDASH_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("FILEDASH_USER_ID"); v != "" {
		cfg.UserID = v
	}

	return cfg, nil
}

func readINI(f *ini.File, cfg *Config) {
	main := f.Section("filedash")
	cfg.APIBaseURL = main.Key("api_url").MustString(cfg.APIBaseURL)
	cfg.TransformURL = main.Key("transform_url").String()
	cfg.Token = main.Key("token").String()
	cfg.UserID = main.Key("user_id").String()
	cfg.DownloadDir = expandHome(main.Key("download_dir").String())

	h := f.Section("http")
	cfg.ProxyMode = h.Key("proxy_mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = h.Key("proxy_host").String()
	cfg.ProxyPort = h.Key("proxy_port").MustInt(0)
	cfg.ProxyUser = h.Key("proxy_user").String()
	cfg.ProxyPassword = h.Key("proxy_password").String()
	cfg.NoProxy = h.Key("no_proxy").String()
	cfg.MaxRetries = h.Key("max_retries").MustInt(cfg.MaxRetries)
	cfg.TimeoutSeconds = h.Key("timeout_seconds").MustInt(0)
	cfg.RateLimit = h.Key("rate_limit").MustFloat64(cfg.RateLimit)

	s := f.Section("storage")
	cfg.Storage.S3Region = s.Key("s3_region").MustString(cfg.Storage.S3Region)
	cfg.Storage.S3Endpoint = s.Key("s3_endpoint").String()
	cfg.Storage.S3AccessKey = s.Key("s3_access_key").String()
	cfg.Storage.S3SecretKey = s.Key("s3_secret_key").String()
	cfg.Storage.AzureAccount = s.Key("azure_account").String()
	cfg.Storage.AzureSASToken = s.Key("azure_sas_token").String()
}

// Save writes the configuration to an INI file with 0600 permissions.
// The write goes through a temporary file and a rename.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	main, err := iniFile.NewSection("filedash")
	if err != nil {
		return fmt.Errorf("failed to create filedash section: %w", err)
	}
	main.Key("api_url").SetValue(cfg.APIBaseURL)
	main.Key("transform_url").SetValue(cfg.TransformURL)
	main.Key("token").SetValue(cfg.Token)
	main.Key("user_id").SetValue(cfg.UserID)
	main.Key("download_dir").SetValue(cfg.DownloadDir)

	h, err := iniFile.NewSection("http")
	if err != nil {
		return fmt.Errorf("failed to create http section: %w", err)
	}
	h.Key("proxy_mode").SetValue(cfg.ProxyMode)
	h.Key("proxy_host").SetValue(cfg.ProxyHost)
	h.Key("proxy_port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	h.Key("proxy_user").SetValue(cfg.ProxyUser)
	h.Key("proxy_password").SetValue(cfg.ProxyPassword)
	h.Key("no_proxy").SetValue(cfg.NoProxy)
	h.Key("max_retries").SetValue(fmt.Sprintf("%d", cfg.MaxRetries))
	h.Key("timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.TimeoutSeconds))
	h.Key("rate_limit").SetValue(fmt.Sprintf("%g", cfg.RateLimit))

	s, err := iniFile.NewSection("storage")
	if err != nil {
		return fmt.Errorf("failed to create storage section: %w", err)
	}
	s.Key("s3_region").SetValue(cfg.Storage.S3Region)
	s.Key("s3_endpoint").SetValue(cfg.Storage.S3Endpoint)
	s.Key("s3_access_key").SetValue(cfg.Storage.S3AccessKey)
	s.Key("s3_secret_key").SetValue(cfg.Storage.S3SecretKey)
	s.Key("azure_account").SetValue(cfg.Storage.AzureAccount)
	s.Key("azure_sas_token").SetValue(cfg.Storage.AzureSASToken)

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Token and proxy password are sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the settings every command needs.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return ErrMissingAPIURL
	}
	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	if cfg.TimeoutSeconds < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Masked returns a copy safe for display, with secrets shortened.
func (cfg *Config) Masked() Config {
	c := *cfg
	c.Token = maskSecret(c.Token)
	c.ProxyPassword = maskSecret(c.ProxyPassword)
	c.Storage.AzureSASToken = maskSecret(c.Storage.AzureSASToken)
	c.Storage.S3SecretKey = maskSecret(c.Storage.S3SecretKey)
	return c
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
