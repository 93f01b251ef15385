package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultUserAgent identifies the importer to upstream APIs.
const DefaultUserAgent = "laundry-backend-import/1.0 (+https://your.domain)"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
	Migrate  bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RedisConfig holds the optional redis connection used for job locks.
// An empty Addr disables redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JobsConfig holds background job queue settings.
type JobsConfig struct {
	QueueSize int
}

// ImportConfig holds settings for the country and pincode importers.
type ImportConfig struct {
	UserAgent      string
	CountryTimeout time.Duration
	PincodeAPI     PincodeAPIConfig
	PincodeCSV     PincodeCSVConfig
	Force          bool
}

// PincodeAPIConfig configures the paginated government pincode API.
type PincodeAPIConfig struct {
	URL         string
	APIKey      string
	Format      string
	Limit       int
	StartOffset int
	SleepMS     int
	Timeout     time.Duration
}

// PincodeCSVConfig configures the local pincode CSV import.
type PincodeCSVConfig struct {
	StorageDir string
	Path       string
	Chunk      int
}

// flagKeys maps importer command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"api-key":      "PINCODE_GOV_API_KEY",
	"url":          "PINCODE_GOV_API_URL",
	"limit":        "PINCODE_GOV_API_LIMIT",
	"format":       "PINCODE_GOV_API_FORMAT",
	"sleep-ms":     "PINCODE_GOV_API_SLEEP_MS",
	"start-offset": "PINCODE_GOV_API_START_OFFSET",
	"path":         "PINCODE_CSV_PATH",
	"chunk":        "PINCODE_CSV_CHUNK",
	"force":        "IMPORT_FORCE",
}

// Load reads configuration from the environment (and a .env file when present).
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags reads configuration like Load, letting any flag in fs that was
// explicitly set override the matching environment variable.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine; real environments inject variables directly.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "laundry")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JOB_QUEUE_SIZE", 16)
	v.SetDefault("IMPORT_USER_AGENT", DefaultUserAgent)
	v.SetDefault("COUNTRY_API_TIMEOUT", "30s")
	v.SetDefault("PINCODE_GOV_API_LIMIT", 1000)
	v.SetDefault("PINCODE_GOV_API_FORMAT", "json")
	v.SetDefault("PINCODE_GOV_API_SLEEP_MS", 200)
	v.SetDefault("PINCODE_GOV_API_START_OFFSET", 0)
	v.SetDefault("PINCODE_GOV_API_TIMEOUT", "60s")
	v.SetDefault("STORAGE_DIR", "storage/app")
	v.SetDefault("PINCODE_CSV_PATH", "imports/pincodes_india.csv")
	v.SetDefault("PINCODE_CSV_CHUNK", 1000)
	v.SetDefault("IMPORT_FORCE", false)

	// Bind environment variables
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Jobs: JobsConfig{
			QueueSize: v.GetInt("JOB_QUEUE_SIZE"),
		},
		Import: ImportConfig{
			UserAgent:      v.GetString("IMPORT_USER_AGENT"),
			CountryTimeout: v.GetDuration("COUNTRY_API_TIMEOUT"),
			Force:          v.GetBool("IMPORT_FORCE"),
			PincodeAPI: PincodeAPIConfig{
				URL:         strings.TrimSpace(v.GetString("PINCODE_GOV_API_URL")),
				APIKey:      strings.TrimSpace(v.GetString("PINCODE_GOV_API_KEY")),
				Format:      strings.ToLower(strings.TrimSpace(v.GetString("PINCODE_GOV_API_FORMAT"))),
				Limit:       v.GetInt("PINCODE_GOV_API_LIMIT"),
				StartOffset: v.GetInt("PINCODE_GOV_API_START_OFFSET"),
				SleepMS:     v.GetInt("PINCODE_GOV_API_SLEEP_MS"),
				Timeout:     v.GetDuration("PINCODE_GOV_API_TIMEOUT"),
			},
			PincodeCSV: PincodeCSVConfig{
				StorageDir: v.GetString("STORAGE_DIR"),
				Path:       v.GetString("PINCODE_CSV_PATH"),
				Chunk:      v.GetInt("PINCODE_CSV_CHUNK"),
			},
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// bindFlags attaches known importer flags to their configuration keys.
// Unknown flags are left alone so subcommands can define their own.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Jobs.QueueSize < 1 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be at least 1")
	}

	// Import settings; the pincode API URL is checked by the importer itself
	// because the HTTP server never needs it.
	api := c.Import.PincodeAPI
	if api.Limit < 1 {
		return fmt.Errorf("PINCODE_GOV_API_LIMIT must be at least 1")
	}
	if api.Format != "json" && api.Format != "csv" {
		return fmt.Errorf("PINCODE_GOV_API_FORMAT must be json or csv")
	}
	if api.SleepMS < 0 {
		return fmt.Errorf("PINCODE_GOV_API_SLEEP_MS must be non-negative")
	}
	if api.StartOffset < 0 {
		return fmt.Errorf("start offset must be non-negative")
	}
	if c.Import.PincodeCSV.Chunk < 1 {
		return fmt.Errorf("PINCODE_CSV_CHUNK must be at least 1")
	}
	if c.Import.CountryTimeout <= 0 || api.Timeout <= 0 {
		return fmt.Errorf("import timeouts must be positive")
	}

	return nil
}

// parseList splits a comma-separated string into a slice of trimmed values.
func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
