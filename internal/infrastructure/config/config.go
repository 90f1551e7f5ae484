package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for knxnetipd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Routing  RoutingConfig  `yaml:"routing"`
	Tunnel   TunnelConfig   `yaml:"tunnel"`
	Cache    CacheConfig    `yaml:"cache"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RoutingConfig configures the UDP multicast routing client.
type RoutingConfig struct {
	Enabled         bool              `yaml:"enabled"`
	MulticastIP     string            `yaml:"multicast_ip"`
	MulticastPort   int               `yaml:"multicast_port"`
	LocalIP         string            `yaml:"local_ip"`
	SourceAddress   string            `yaml:"source_address"`
	AllowUnknownGPA bool              `yaml:"allow_unknown_gpa"`
	GroupAddresses  map[string]string `yaml:"group_addresses"`
}

// TunnelConfig configures the unicast tunnelling client. Optional — most
// installations only need the routing client.
type TunnelConfig struct {
	Enabled         bool   `yaml:"enabled"`
	GatewayHost     string `yaml:"gateway_host"`
	GatewayPort     int    `yaml:"gateway_port"`
	SourceAddress   string `yaml:"source_address"`
	AllowUnknownGPA bool   `yaml:"allow_unknown_gpa"`
}

// CacheConfig controls address-value cache hydration and persistence.
type CacheConfig struct {
	HydrateOnStart bool   `yaml:"hydrate_on_start"`
	ReadTimeout    int    `yaml:"read_timeout_ms"`
	StatePath      string `yaml:"state_path"`
	PersistEvery   int    `yaml:"persist_every_seconds"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB historian settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MonitorConfig contains the read-only HTTP monitor API settings.
type MonitorConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	JWT      JWTConfig        `yaml:"jwt"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// JWTConfig contains JWT bearer-token settings for the monitor API.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KNXNETIPD_SECTION_KEY
// For example: KNXNETIPD_ROUTING_MULTICAST_IP, KNXNETIPD_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "knxnetipd",
		},
		Routing: RoutingConfig{
			Enabled:       true,
			MulticastIP:   "224.0.23.12",
			MulticastPort: 3671,
		},
		Cache: CacheConfig{
			ReadTimeout:  5000,
			PersistEvery: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "knxnetipd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Monitor: MonitorConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: KNXNETIPD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KNXNETIPD_ROUTING_MULTICAST_IP"); v != "" {
		cfg.Routing.MulticastIP = v
	}
	if v := os.Getenv("KNXNETIPD_ROUTING_SOURCE_ADDRESS"); v != "" {
		cfg.Routing.SourceAddress = v
	}
	if v := os.Getenv("KNXNETIPD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("KNXNETIPD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("KNXNETIPD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("KNXNETIPD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("KNXNETIPD_MONITOR_HOST"); v != "" {
		cfg.Monitor.Host = v
	}
	if v := os.Getenv("KNXNETIPD_JWT_SECRET"); v != "" {
		cfg.Monitor.JWT.Secret = v
	}
	if v := os.Getenv("KNXNETIPD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Routing.Enabled && c.Routing.SourceAddress == "" {
		errs = append(errs, "routing.source_address is required when routing is enabled")
	}

	if c.Tunnel.Enabled {
		if c.Tunnel.GatewayHost == "" {
			errs = append(errs, "tunnel.gateway_host is required when tunnel is enabled")
		}
		if c.Tunnel.SourceAddress == "" {
			errs = append(errs, "tunnel.source_address is required when tunnel is enabled")
		}
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Monitor.Enabled {
		if c.Monitor.Port < 1 || c.Monitor.Port > 65535 {
			errs = append(errs, "monitor.port must be between 1 and 65535")
		}

		// The monitor API authenticates every non-health route with a bearer
		// token; a weak or absent secret would let anyone forge one.
		const minJWTSecretLength = 32
		if c.Monitor.JWT.Secret == "" {
			errs = append(errs, "monitor.jwt.secret is required when monitor is enabled (set KNXNETIPD_JWT_SECRET)")
		} else if len(c.Monitor.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "monitor.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the monitor API read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Read) * time.Second
}

// WriteTimeout returns the monitor API write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Write) * time.Second
}

// IdleTimeout returns the monitor API idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Monitor.Timeouts.Idle) * time.Second
}
