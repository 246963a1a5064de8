// Package config manages YAML (or TOML) configuration and CLI overrides for filedeck.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/c2h5oh/datasize"
	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for filedeck
type Config struct {
	// File server the UI talks to
	Server string `yaml:"server" toml:"server"`

	Port int  `yaml:"port" toml:"port"`
	Open bool `yaml:"open" toml:"open"`

	// Local directory backing the file server; changes trigger a refresh
	WatchDir string `yaml:"watch_dir,omitempty" toml:"watch_dir"`

	// Reference file server settings
	UploadDir string `yaml:"upload_dir" toml:"upload_dir"`
	FilePort  int    `yaml:"file_port" toml:"file_port"`

	DateLayout         string   `yaml:"date_layout" toml:"date_layout"`
	ImageExtensions    []string `yaml:"image_extensions" toml:"image_extensions"`
	TextExtensions     []string `yaml:"text_extensions" toml:"text_extensions"`
	MarkdownExtensions []string `yaml:"markdown_extensions" toml:"markdown_extensions"`

	MaxUpload    datasize.ByteSize `yaml:"max_upload" toml:"max_upload"`
	PreviewLimit datasize.ByteSize `yaml:"preview_limit" toml:"preview_limit"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server:             "http://localhost:8081",
		Port:               8080,
		Open:               false,
		UploadDir:          "uploads",
		FilePort:           8081,
		DateLayout:         "2006-01-02 15:04",
		ImageExtensions:    []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		TextExtensions:     []string{".txt", ".md", ".markdown", ".csv", ".log"},
		MarkdownExtensions: []string{".md", ".markdown"},
		MaxUpload:          64 * datasize.MB,
		PreviewLimit:       1 * datasize.MB,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".config/filedeck"
	}
	return filepath.Join(home, ".config", "filedeck")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads the configuration file. An explicit path must exist; otherwise
// ~/.config/filedeck/config.yaml and then ./filedeck.yaml are tried, and
// defaults are used when neither is present.
func Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	var cfgPath string
	if explicitPath != "" {
		cfgPath = explicitPath
	} else {
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("filedeck.yaml"); err == nil {
			cfgPath = "filedeck.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && explicitPath != "" {
			// Only return error if user explicitly specified config file
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	cfg.normalize()
	return cfg, nil
}

// normalize lowercases extensions and makes sure each has a leading dot
func (c *Config) normalize() {
	c.ImageExtensions = normalizeExtensions(c.ImageExtensions)
	c.TextExtensions = normalizeExtensions(c.TextExtensions)
	c.MarkdownExtensions = normalizeExtensions(c.MarkdownExtensions)
	c.Server = strings.TrimRight(c.Server, "/")
	if c.WatchDir != "" {
		if abs, err := filepath.Abs(c.WatchDir); err == nil {
			c.WatchDir = abs
		}
	}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) loadFromFile(path string) error {
	if isTOML(path) {
		_, err := toml.DecodeFile(path, c)
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file, as TOML when
// its name ends in .toml
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	var data []byte
	if isTOML(c.configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return err
		}
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// SetConfigFilePath overrides where Save writes
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// IsImageFile checks if a file name has an image extension
func (c *Config) IsImageFile(name string) bool {
	return hasExtension(name, c.ImageExtensions)
}

// IsTextFile checks if a file name has a text extension
func (c *Config) IsTextFile(name string) bool {
	return hasExtension(name, c.TextExtensions)
}

// IsMarkdownFile checks if a file name has a markdown extension
func (c *Config) IsMarkdownFile(name string) bool {
	return hasExtension(name, c.MarkdownExtensions)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
