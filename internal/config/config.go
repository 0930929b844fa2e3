package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Licensing LicensingConfig `yaml:"licensing" envconfig:"LICENSING"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LicensingConfig contains license validation configuration
type LicensingConfig struct {
	// ServerURL is the base URL of the licensing authority.
	ServerURL string `yaml:"server_url" envconfig:"SERVER_URL" default:"https://licensing.example.com" validate:"url"`
	// StatusEndpoint is the path segment queried per user: GET {ServerURL}/{StatusEndpoint}/{userID}.
	StatusEndpoint string `yaml:"status_endpoint" envconfig:"STATUS_ENDPOINT" default:"api/licenses/status"`
	// CheckTimeout bounds a single remote status query.
	CheckTimeout time.Duration `yaml:"check_timeout" envconfig:"CHECK_TIMEOUT" default:"10s" validate:"min=1s"`
	// CheckInterval is the period between scheduled validation cycles.
	CheckInterval time.Duration `yaml:"check_interval" envconfig:"CHECK_INTERVAL" default:"6h" validate:"min=1m"`
	// RevalidateRPS and RevalidateBurst rate-limit on-demand revalidation requests.
	RevalidateRPS   float64 `yaml:"revalidate_rps" envconfig:"REVALIDATE_RPS" default:"0.2"`
	RevalidateBurst int     `yaml:"revalidate_burst" envconfig:"REVALIDATE_BURST" default:"3"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/entitle.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	LicenseFile     string `yaml:"license_file" envconfig:"LICENSE_FILE" default:"license.dat" validate:"required"`
	TrustAnchorFile string `yaml:"trust_anchor_file" envconfig:"TRUST_ANCHOR_FILE" default:"license.pub" validate:"required"`
}

// Load loads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	var cfg Config

	// Environment variables take precedence over file values
	if err := envconfig.Process("ENTITLE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays non-zero env values on top of file values
func mergeConfigs(fileCfg, envCfg Config) Config {
	merged := fileCfg

	if envCfg.Server.Port != 0 {
		merged.Server.Port = envCfg.Server.Port
	}
	if envCfg.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = envCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout != 0 {
		merged.Server.WriteTimeout = envCfg.Server.WriteTimeout
	}
	if envCfg.Server.IdleTimeout != 0 {
		merged.Server.IdleTimeout = envCfg.Server.IdleTimeout
	}
	if envCfg.Server.ShutdownTimeout != 0 {
		merged.Server.ShutdownTimeout = envCfg.Server.ShutdownTimeout
	}

	if envCfg.Licensing.ServerURL != "" {
		merged.Licensing.ServerURL = envCfg.Licensing.ServerURL
	}
	if envCfg.Licensing.StatusEndpoint != "" {
		merged.Licensing.StatusEndpoint = envCfg.Licensing.StatusEndpoint
	}
	if envCfg.Licensing.CheckTimeout != 0 {
		merged.Licensing.CheckTimeout = envCfg.Licensing.CheckTimeout
	}
	if envCfg.Licensing.CheckInterval != 0 {
		merged.Licensing.CheckInterval = envCfg.Licensing.CheckInterval
	}
	if envCfg.Licensing.RevalidateRPS != 0 {
		merged.Licensing.RevalidateRPS = envCfg.Licensing.RevalidateRPS
	}
	if envCfg.Licensing.RevalidateBurst != 0 {
		merged.Licensing.RevalidateBurst = envCfg.Licensing.RevalidateBurst
	}

	if envCfg.Logging.Level != "" {
		merged.Logging.Level = envCfg.Logging.Level
	}
	if envCfg.Logging.Output != "" {
		merged.Logging.Output = envCfg.Logging.Output
	}
	if envCfg.Logging.FilePath != "" {
		merged.Logging.FilePath = envCfg.Logging.FilePath
	}

	if envCfg.Paths.LicenseFile != "" {
		merged.Paths.LicenseFile = envCfg.Paths.LicenseFile
	}
	if envCfg.Paths.TrustAnchorFile != "" {
		merged.Paths.TrustAnchorFile = envCfg.Paths.TrustAnchorFile
	}

	return merged
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the config file path, respecting ENTITLE_CONFIG_FILE
func getConfigFilePath() string {
	if path := os.Getenv("ENTITLE_CONFIG_FILE"); path != "" {
		return path
	}

	execPath, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(execPath), "config.yaml")
}

// FileExists checks if a file exists and is not a directory
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
