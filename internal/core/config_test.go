package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jo-hoe/goscore/internal/backend/imageprocessing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
baseURL: "https://images.example.com"
imageDirectory: /srv/images
database:
  type: sqlite
  connectionString: /srv/database.db
logLevel: debug
logFormat: json
variants:
  - name: thumbnail
    commands:
      - name: PngConverterCommand
      - name: FitCommand
        width: 480
        height: 320
frontend:
  imagesPerPage: 5
  variant: thumbnail
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.BaseURL != "https://images.example.com" {
		t.Errorf("Unexpected baseURL %q", config.BaseURL)
	}
	if config.ImageDirectory != "/srv/images" {
		t.Errorf("Unexpected imageDirectory %q", config.ImageDirectory)
	}
	if config.Database.ConnectionString != "/srv/database.db" {
		t.Errorf("Unexpected connectionString %q", config.Database.ConnectionString)
	}
	if level, _ := config.SlogLevel(); level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", level)
	}
	if len(config.Variants) != 1 || len(config.Variants[0].Commands) != 2 {
		t.Fatalf("Unexpected variants: %+v", config.Variants)
	}
	fit := config.Variants[0].Commands[1]
	if fit.Name != imageprocessing.FitCommandName || fit.Params["width"] != 480 || fit.Params["height"] != 320 {
		t.Errorf("Unexpected fit command config: %+v", fit)
	}
	if _, hasName := fit.Params["name"]; hasName {
		t.Errorf("name must not leak into inline params")
	}
	if config.Frontend.ImagesPerPage != 5 || config.Frontend.Variant != "thumbnail" {
		t.Errorf("Unexpected frontend config: %+v", config.Frontend)
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 8080 || config.Database.Type != "sqlite" || config.Frontend.ImagesPerPage != 3 {
		t.Errorf("Unexpected defaults: %+v", config)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "port: 1234\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 1234 {
		t.Errorf("Expected port 1234, got %d", config.Port)
	}
	if config.ImageDirectory != "./images" {
		t.Errorf("Expected default imageDirectory, got %q", config.ImageDirectory)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GOSCORE_PORT", "7000")
	t.Setenv("GOSCORE_IMAGE_DIRECTORY", "/tmp/pictures")
	t.Setenv("GOSCORE_DATABASE_TYPE", "redis")
	t.Setenv("GOSCORE_DATABASE_CONNECTION_STRING", "redis://localhost:6379/0")
	t.Setenv("GOSCORE_BASE_URL", "http://localhost:7000")

	config, err := LoadConfig(writeConfig(t, "port: 1234\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 7000 {
		t.Errorf("Expected env port 7000, got %d", config.Port)
	}
	if config.ImageDirectory != "/tmp/pictures" || config.Database.Type != "redis" ||
		config.Database.ConnectionString != "redis://localhost:6379/0" || config.BaseURL != "http://localhost:7000" {
		t.Errorf("Environment overrides not applied: %+v", config)
	}
}

func TestLoadConfig_InvalidEnvironmentPort(t *testing.T) {
	t.Setenv("GOSCORE_PORT", "eighty")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("Expected error for non-numeric port")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "port: [unclosed")); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServiceConfig)
		wantErr string
	}{
		{"valid defaults", func(c *ServiceConfig) {}, ""},
		{"port out of range", func(c *ServiceConfig) { c.Port = 70000 }, "out of range"},
		{"empty image directory", func(c *ServiceConfig) { c.ImageDirectory = "" }, "imageDirectory"},
		{"unsupported database", func(c *ServiceConfig) { c.Database.Type = "mysql" }, "unsupported database type"},
		{"empty connection string", func(c *ServiceConfig) { c.Database.ConnectionString = "" }, "connectionString"},
		{"bad base url", func(c *ServiceConfig) { c.BaseURL = "example.com" }, "baseURL"},
		{"bad log level", func(c *ServiceConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"bad log format", func(c *ServiceConfig) { c.LogFormat = "xml" }, "logFormat"},
		{"negative images per page", func(c *ServiceConfig) { c.Frontend.ImagesPerPage = -1 }, "imagesPerPage"},
		{"empty variant name", func(c *ServiceConfig) { c.Variants = []VariantConfig{{}} }, "empty name"},
		{"duplicate variant", func(c *ServiceConfig) {
			c.Variants = []VariantConfig{{Name: "a"}, {Name: "a"}}
		}, "duplicate variant name"},
		{"unknown command", func(c *ServiceConfig) {
			c.Variants = []VariantConfig{{Name: "a", Commands: []imageprocessing.CommandConfig{{Name: "Blur"}}}}
		}, "unknown command"},
		{"undefined frontend variant", func(c *ServiceConfig) { c.Frontend.Variant = "thumbnail" }, "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if config.Frontend.Variant != "thumbnail" || len(config.Variants) != 1 {
		t.Errorf("Unexpected example config: %+v", config)
	}
	if _, err := buildVariants(config.Variants); err != nil {
		t.Errorf("example variants do not build: %v", err)
	}
}
