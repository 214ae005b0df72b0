package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider kinds
const (
	ProviderStatic   = "static"
	ProviderFile     = "file"
	ProviderMySQL    = "mysql"
	ProviderPostgres = "postgres"
	ProviderMinio    = "minio"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`

	AI struct {
		APIKey    string `yaml:"apiKey"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"baseURL"`
		MaxTokens int    `yaml:"maxTokens"`
		// Timeout bounds a single model call.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Provider struct {
		Kind      string `yaml:"kind"`
		Path      string `yaml:"path"`
		ObjectKey string `yaml:"objectKey"`
		// CriticalScope is "subset" (default) or "collection".
		CriticalScope string `yaml:"criticalScope"`
	} `yaml:"provider"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"` // tokens per second
	} `yaml:"rateLimit"`
}

// Load reads a YAML config file; a missing file yields the defaults.
// OPENAI_API_KEY overrides ai.apiKey.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Provider.Kind == "" {
		c.Provider.Kind = ProviderStatic
	}
	if c.Provider.CriticalScope == "" {
		c.Provider.CriticalScope = "subset"
	}
	if c.Provider.ObjectKey == "" {
		c.Provider.ObjectKey = "catalog.yaml"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 1
	}
}

// Validate checks the fields that select code paths.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderStatic, ProviderMySQL, ProviderPostgres:
	case ProviderFile:
		if c.Provider.Path == "" {
			return fmt.Errorf("provider.path is required for kind %q", ProviderFile)
		}
	case ProviderMinio:
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			return fmt.Errorf("minio.endpoint and minio.bucketName are required for kind %q", ProviderMinio)
		}
	default:
		return fmt.Errorf("unknown provider.kind %q", c.Provider.Kind)
	}
	switch c.Provider.CriticalScope {
	case "subset", "collection":
	default:
		return fmt.Errorf("unknown provider.criticalScope %q", c.Provider.CriticalScope)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
