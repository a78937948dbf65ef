package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.toml"

// Duration decodes "30s"-style strings from both TOML and YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Neo4jConfig struct {
	URI      string `toml:"uri" yaml:"uri"`
	Scheme   string `toml:"scheme" yaml:"scheme"`
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	Database string `toml:"database" yaml:"database"`

	MaxConnectionPoolSize        int      `toml:"max_connection_pool_size" yaml:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout Duration `toml:"connection_acquisition_timeout" yaml:"connection_acquisition_timeout"`
	ConnectTimeout               Duration `toml:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout                 Duration `toml:"query_timeout" yaml:"query_timeout"`
	MaxTransactionRetryTime      Duration `toml:"max_transaction_retry_time" yaml:"max_transaction_retry_time"`
}

// Target returns the Bolt URI to dial. An explicit URI wins over host and port.
func (c Neo4jConfig) Target() string {
	if c.URI != "" {
		return c.URI
	}
	if c.Host == "" {
		return ""
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = "neo4j"
	}
	port := c.Port
	if port == 0 {
		port = 7687
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

func (c Neo4jConfig) Validate() error {
	if c.Target() == "" {
		return errors.New("neo4j endpoint is empty: set uri or host")
	}
	if c.User == "" || c.Password == "" {
		return errors.New("neo4j credentials are incomplete: user and password are required")
	}
	return nil
}

type QueryConfig struct {
	State string `toml:"state" yaml:"state"`
}

type ServerConfig struct {
	Port string `toml:"port" yaml:"port"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

type TracingConfig struct {
	Endpoint    string  `toml:"endpoint" yaml:"endpoint"`
	ServiceName string  `toml:"service_name" yaml:"service_name"`
	SampleRate  float64 `toml:"sample_rate" yaml:"sample_rate"`
}

type Config struct {
	Neo4j   Neo4jConfig   `toml:"neo4j" yaml:"neo4j"`
	Query   QueryConfig   `toml:"query" yaml:"query"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Tracing TracingConfig `toml:"tracing" yaml:"tracing"`
}

func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			Scheme:   "neo4j",
			Host:     "localhost",
			Port:     7687,
			Database: "neo4j",
		},
		Server:  ServerConfig{Port: "8080"},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "genrefreq"},
		Tracing: TracingConfig{ServiceName: "genrefreq", SampleRate: 1.0},
	}
}

// Load reads a TOML or YAML file on top of Default. The format follows the file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	return cfg, nil
}

// Resolve loads path, or CONFIG_PATH, or DefaultPath when it exists, then applies
// environment overrides. A missing default file is not an error.
func Resolve(path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
		explicit = false
	}

	var cfg *Config
	if _, err := os.Stat(path); err != nil && !explicit {
		cfg = Default()
	} else {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment when the variables are set.
func (c *Config) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	// Host-based settings only take effect when no URI overrides them.
	if host := os.Getenv("NEO4J_HOST"); host != "" {
		c.Neo4j.Host = host
		c.Neo4j.URI = ""
	}
	setString("NEO4J_SCHEME", &c.Neo4j.Scheme)
	if v := os.Getenv("NEO4J_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NEO4J_PORT %q: %w", v, err)
		}
		c.Neo4j.Port = port
	}
	setString("NEO4J_URI", &c.Neo4j.URI)
	setString("NEO4J_USER", &c.Neo4j.User)
	setString("NEO4J_PASSWORD", &c.Neo4j.Password)
	setString("NEO4J_DATABASE", &c.Neo4j.Database)
	setString("QUERY_STATE", &c.Query.State)
	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		if err := c.Neo4j.QueryTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
		}
	}
	setString("PORT", &c.Server.Port)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.Endpoint)

	return nil
}
