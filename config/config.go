package config

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"upstack/file_io"
	L "upstack/logger"
)

type Server struct {
	BaseUrl    string `json:"base_url"`
	UploadPath string `json:"upload_path"`
	AuthToken  string `json:"auth_token,omitempty"`
}

type Config struct {
	Server                    *Server  `json:"server"`
	MaxConcurrent             int      `json:"max_concurrent"`
	CompressThresholdBytes    int64    `json:"compress_threshold_bytes"`
	CompressLevel             *int     `json:"compress_level,omitempty"`
	BandwidthLimitBytesPerSec int64    `json:"bandwidth_limit_bytes_per_sec"`
	DefaultRetryAfterSeconds  int      `json:"default_retry_after_seconds"`
	MaxRateLimitRetries       int      `json:"max_rate_limit_retries"`
	DefaultCategory           Category `json:"default_category,omitempty"`
}

const (
	DEFAULT_MAX_CONCURRENT           = 3
	DEFAULT_COMPRESS_THRESHOLD_BYTES = 5 * 1024 * 1024
	DEFAULT_RETRY_AFTER_SECONDS      = 30
	DEFAULT_MAX_RATE_LIMIT_RETRIES   = 5
)

var config Config
var configPath string

func Parse(configPathArg string) error {
	file, err := os.Open(configPathArg)
	if err != nil {
		return fmt.Errorf("config: could not open config file for reading")
	}
	defer file.Close()
	var parsed Config
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&parsed)
	if err != nil {
		return fmt.Errorf("config: malformed config %s: %w", configPathArg, err)
	}
	applyDefaults(&parsed)
	err = validate(&parsed)
	if err != nil {
		return fmt.Errorf("config: could not validate config: %w", err)
	}
	config = parsed

	configPath, err = filepath.Abs(configPathArg)
	if err != nil {
		return err
	}
	return nil
}

func Get() *Config {
	return &config
}

func GetDefaultConfigDir() (string, error) {
	configDir, configDirError := os.UserConfigDir()
	homeDir, homeDirError := os.UserHomeDir()
	if configDirError != nil && homeDirError != nil {
		return "", fmt.Errorf("config: cannot find config dir: Config: %w, Home: %w", configDirError, homeDirError)
	}
	var dir string
	if configDirError == nil {
		dir = configDir
	} else {
		dir = homeDir
	}
	dir, err := filepath.Abs(filepath.Join(dir, "upstack"))
	if err != nil {
		return "", err
	}
	L.Debug(fmt.Sprintf("Using config directory: %s", dir))
	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return "", err
	}
	return dir, nil
}

func GetDefaultConfigPath() (string, error) {
	configDir, err := GetDefaultConfigDir()
	if err != nil {
		return "", err
	}
	configFilePath := filepath.Join(configDir, "config.json")
	exists, err := file_io.Exists(configFilePath)
	if err != nil {
		return "", err
	}
	if !exists {
		_, err = file_io.WriteToFile(configFilePath, []byte(DumpDefaultConfig()), file_io.WRITE_OVERWRITE)
	}
	if err != nil {
		return "", err
	}
	return configFilePath, err
}

func GetConfigPath() string {
	return configPath
}

func (c *Config) ToJson() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DumpDefaultConfig() string {
	defaultLevel := gzip.DefaultCompression
	defaultConfig := Config{
		Server: &Server{
			BaseUrl:    "https://api.example.com",
			UploadPath: "/api/v1/files",
			AuthToken:  "api-auth-token",
		},
		MaxConcurrent:             DEFAULT_MAX_CONCURRENT,
		CompressThresholdBytes:    DEFAULT_COMPRESS_THRESHOLD_BYTES,
		CompressLevel:             &defaultLevel,
		BandwidthLimitBytesPerSec: 0,
		DefaultRetryAfterSeconds:  DEFAULT_RETRY_AFTER_SECONDS,
		MaxRateLimitRetries:       DEFAULT_MAX_RATE_LIMIT_RETRIES,
	}
	configStr, err := defaultConfig.ToJson()
	if err != nil {
		return ""
	}
	return configStr
}

func applyDefaults(c *Config) {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DEFAULT_MAX_CONCURRENT
	}
	if c.CompressThresholdBytes == 0 {
		c.CompressThresholdBytes = DEFAULT_COMPRESS_THRESHOLD_BYTES
	}
	if c.CompressLevel == nil {
		// absent means default; an explicit 0 stays gzip.NoCompression
		level := gzip.DefaultCompression
		c.CompressLevel = &level
	}
	if c.DefaultRetryAfterSeconds == 0 {
		c.DefaultRetryAfterSeconds = DEFAULT_RETRY_AFTER_SECONDS
	}
	if c.MaxRateLimitRetries == 0 {
		c.MaxRateLimitRetries = DEFAULT_MAX_RATE_LIMIT_RETRIES
	}
}

func validate(c *Config) error {
	if c.Server == nil {
		return fmt.Errorf("server section is missing")
	}
	u, err := url.Parse(c.Server.BaseUrl)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url is not a valid url: %s", c.Server.BaseUrl)
	}
	if c.Server.UploadPath == "" {
		return fmt.Errorf("server.upload_path is missing")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1, got: %d", c.MaxConcurrent)
	}
	if c.CompressThresholdBytes < 0 {
		return fmt.Errorf("compress_threshold_bytes cannot be negative")
	}
	if level := *c.CompressLevel; level < gzip.DefaultCompression || level > gzip.BestCompression {
		return fmt.Errorf("compress_level must be between %d and %d, got: %d", gzip.DefaultCompression, gzip.BestCompression, level)
	}
	if c.BandwidthLimitBytesPerSec < 0 {
		return fmt.Errorf("bandwidth_limit_bytes_per_sec cannot be negative")
	}
	// default_category is validated by its UnmarshalJSON
	return nil
}
