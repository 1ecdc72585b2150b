/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
	"github.com/ssargent/gatewire/pkg/etf"
	"gopkg.in/yaml.v3"
)

// Config represents the gatewire configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Codec    Codec    `yaml:"codec"`
	Logging  Logging  `yaml:"logging"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Codec tunes the ETF encoder and decoder used by the API and CLI.
type Codec struct {
	// MaxInflateBytes caps the inflated bytes of one decode call, nested
	// COMPRESSED terms included.
	MaxInflateBytes int64 `yaml:"max_inflate_bytes"`
	MaxDepth        int   `yaml:"max_depth"`
	// CompressThreshold is the encoded body size at which /encode and
	// `gatewire encode` compress on their own. Zero disables it.
	CompressThreshold int `yaml:"compress_threshold"`
	// CompressionLevel is a zlib level: -1 for the default, -2 for Huffman
	// only, or 1-9. Zero is rejected since the encoder reads it as the default.
	CompressionLevel int `yaml:"compression_level"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "auto",
		},
		Codec: Codec{
			MaxInflateBytes:  etf.DefaultMaxInflateBytes,
			MaxDepth:         etf.DefaultMaxDepth,
			CompressionLevel: zlib.DefaultCompression,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Limits converts the codec settings into decoder limits.
func (c Codec) Limits() etf.Limits {
	return etf.Limits{
		MaxInflateBytes: c.MaxInflateBytes,
		MaxDepth:        c.MaxDepth,
	}
}

// Encoder builds an encoder from the codec settings.
func (c Codec) Encoder() *etf.Encoder {
	return &etf.Encoder{
		CompressThreshold: c.CompressThreshold,
		CompressionLevel:  c.CompressionLevel,
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Security.APIKey == "" || c.Security.APIKey == "auto" {
		errs = append(errs, errors.New("security.api_key must be set, run `gatewire init`"))
	}
	if c.Codec.MaxInflateBytes < 0 {
		errs = append(errs, errors.New("codec.max_inflate_bytes must not be negative"))
	}
	if c.Codec.MaxDepth < 0 {
		errs = append(errs, errors.New("codec.max_depth must not be negative"))
	}
	if c.Codec.CompressThreshold < 0 {
		errs = append(errs, errors.New("codec.compress_threshold must not be negative"))
	}
	if l := c.Codec.CompressionLevel; l == zlib.NoCompression {
		errs = append(errs, errors.New("codec.compression_level 0 is not supported, use -1 for the default"))
	} else if l != zlib.DefaultCompression && l != zlib.HuffmanOnly &&
		(l < zlib.BestSpeed || l > zlib.BestCompression) {
		errs = append(errs, fmt.Errorf("codec.compression_level %d is not a zlib level", l))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so older files without a codec section still work.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file holds the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./gatewire.yaml"
	}

	// ~/.config/gatewire/config.yaml on Linux and macOS
	return filepath.Join(homeDir, ".config", "gatewire", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
