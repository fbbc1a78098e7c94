package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/goscore/internal/backend/imageprocessing"
)

const envPrefix = "GOSCORE_"

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

// VariantConfig names a processing pipeline that can be requested on image retrieval
type VariantConfig struct {
	Name     string                          `yaml:"name"`
	Commands []imageprocessing.CommandConfig `yaml:"commands"`
}

type FrontendConfig struct {
	ImagesPerPage int    `yaml:"imagesPerPage"`
	Variant       string `yaml:"variant"`
}

type ServiceConfig struct {
	Port int `yaml:"port"`
	// BaseURL prefixes image urls in listings; derived from the request when empty
	BaseURL        string          `yaml:"baseURL"`
	ImageDirectory string          `yaml:"imageDirectory"`
	Database       Database        `yaml:"database"`
	LogLevel       string          `yaml:"logLevel"`
	LogFormat      string          `yaml:"logFormat"`
	Variants       []VariantConfig `yaml:"variants"`
	Frontend       FrontendConfig  `yaml:"frontend"`
}

func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:           8080,
		ImageDirectory: "./images",
		Database: Database{
			Type:             "sqlite",
			ConnectionString: "./database.db",
		},
		LogLevel:  "info",
		LogFormat: "text",
		Frontend: FrontendConfig{
			ImagesPerPage: 3,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file on top of the defaults,
// then applies GOSCORE_* environment overrides (including those from a .env file).
// An empty configPath skips the file.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// loadDotEnv reads .env from the working directory if present. Variables already set in the
// environment win over the file.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env file: %w", err)
}

func applyEnvOverrides(config *ServiceConfig) error {
	if v, ok := lookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", envPrefix, v, err)
		}
		config.Port = port
	}
	if v, ok := lookupEnv("BASE_URL"); ok {
		config.BaseURL = v
	}
	if v, ok := lookupEnv("IMAGE_DIRECTORY"); ok {
		config.ImageDirectory = v
	}
	if v, ok := lookupEnv("DATABASE_TYPE"); ok {
		config.Database.Type = v
	}
	if v, ok := lookupEnv("DATABASE_CONNECTION_STRING"); ok {
		config.Database.ConnectionString = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		config.LogFormat = v
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks ranges, required values and the variant definitions
func (c *ServiceConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ImageDirectory == "" {
		return fmt.Errorf("imageDirectory must not be empty")
	}
	switch c.Database.Type {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connectionString must not be empty")
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("baseURL must start with http:// or https://, got %q", c.BaseURL)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("logFormat must be text or json, got %q", c.LogFormat)
	}
	if c.Frontend.ImagesPerPage < 0 {
		return fmt.Errorf("frontend imagesPerPage must not be negative")
	}
	if err := validateVariants(c.Variants); err != nil {
		return fmt.Errorf("invalid variant configuration: %w", err)
	}
	if c.Frontend.Variant != "" && !c.hasVariant(c.Frontend.Variant) {
		return fmt.Errorf("frontend variant %q is not defined", c.Frontend.Variant)
	}
	return nil
}

func (c *ServiceConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *ServiceConfig) hasVariant(name string) bool {
	for _, v := range c.Variants {
		if v.Name == name {
			return true
		}
	}
	return false
}

// validateVariants ensures names are set and unique and every command is known
func validateVariants(variants []VariantConfig) error {
	seenNames := make(map[string]bool)

	for i, variant := range variants {
		if variant.Name == "" {
			return fmt.Errorf("variant at index %d has empty name", i)
		}
		if seenNames[variant.Name] {
			return fmt.Errorf("duplicate variant name: %s", variant.Name)
		}
		seenNames[variant.Name] = true

		for j, cmd := range variant.Commands {
			if cmd.Name == "" {
				return fmt.Errorf("variant %s: command at index %d has empty name", variant.Name, j)
			}
			if !imageprocessing.DefaultRegistry.IsRegistered(cmd.Name) {
				return fmt.Errorf("variant %s: unknown command %s", variant.Name, cmd.Name)
			}
		}
	}

	return nil
}
