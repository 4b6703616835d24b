package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by sos-sentinel and sos-ctl.
type Config struct {
	// GRPCAddress is the address of the sentinel gRPC control surface.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress is the optional listen address of the HTTP control surface.
	HTTPAddress string `yaml:"http_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	Detector    Detector    `yaml:"detector"`
	Monitoring  Monitoring  `yaml:"monitoring"`
	Storage     Storage     `yaml:"storage"`
	Identity    Identity    `yaml:"identity"`
	Location    Location    `yaml:"location"`
	SMS         SMS         `yaml:"sms"`
	MQTT        MQTT        `yaml:"mqtt"`
	Permissions Permissions `yaml:"permissions"`
	Pipeline    Pipeline    `yaml:"pipeline"`
	Inbox       Inbox       `yaml:"inbox"`
}

// Detector tunes the screen toggle pattern.
type Detector struct {
	// Threshold is the number of toggles that fire the trigger.
	Threshold int `yaml:"threshold"`
	// Window is how far back toggles still count toward the threshold.
	Window time.Duration `yaml:"window"`
}

// Monitoring selects where the armed flag is persisted.
type Monitoring struct {
	// Backend is either "file" or "redis".
	Backend string `yaml:"backend"`
	// StateFile is the YAML file used by the file backend.
	StateFile string `yaml:"state_file"`
	// RedisAddress is the host:port of the redis backend.
	RedisAddress string `yaml:"redis_addr"`
	// RedisPassword is optional.
	RedisPassword string `yaml:"redis_password"`
	// RedisDB selects the logical redis database.
	RedisDB int `yaml:"redis_db"`
	// RedisKey is the hash key holding the flag.
	RedisKey string `yaml:"redis_key"`
}

// Storage points at the record store holding contacts, subscribers and records.
type Storage struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `yaml:"dsn"`
}

// Identity carries the signed session of the device owner.
type Identity struct {
	// SessionToken is an HS256 JWT whose subject is the user id.
	SessionToken string `yaml:"session_token"`
	// SigningKey verifies SessionToken.
	SigningKey string `yaml:"signing_key"`
}

// Location selects the location provider.
type Location struct {
	// Provider is "static", "http" or "none".
	Provider string `yaml:"provider"`
	// Latitude and Longitude are used by the static provider.
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	// URL is the geolocation endpoint used by the http provider.
	URL string `yaml:"url"`
	// Timeout bounds a single fix request.
	Timeout time.Duration `yaml:"timeout"`
}

// SMS configures the text message gateway. Without GatewayURL messages are only logged.
type SMS struct {
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	Sender     string `yaml:"sender"`
}

// MQTT configures the device broker. Without Broker the MQTT bridge is off.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Permissions mirrors the grants the host platform reported for the device.
type Permissions struct {
	Location bool `yaml:"location"`
	SMS      bool `yaml:"sms"`
}

// Pipeline tunes the alert fan-out.
type Pipeline struct {
	// MaxParallel bounds concurrent SMS sends and record writes per run.
	MaxParallel int `yaml:"max_parallel"`
}

// Inbox tunes the watcher that surfaces incoming distress records.
type Inbox struct {
	// PollInterval is the delay between unread record checks; zero disables the watcher.
	PollInterval time.Duration `yaml:"poll_interval"`
}

const (
	// DefaultConfigFilename is the default filename for sentinel settings.
	DefaultConfigFilename = "sos-sentinel.yaml"

	// DefaultStateFilename is the default filename for the monitoring flag.
	DefaultStateFilename = "sos-sentinel-state.yaml"

	// DefaultDatabaseFilename is the default sqlite database path.
	DefaultDatabaseFilename = "sos-sentinel.db"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultThreshold is the number of toggles that fire the trigger.
	DefaultThreshold = 5

	// DefaultWindow is the sliding window of the toggle pattern.
	DefaultWindow = 3 * time.Second

	// DefaultLocationTimeout bounds a location fix request.
	DefaultLocationTimeout = 15 * time.Second

	// DefaultMaxParallel bounds fan-out concurrency.
	DefaultMaxParallel = 8

	// DefaultRedisKey is the redis hash holding the monitoring flag.
	DefaultRedisKey = "sos:monitoring"

	// DefaultTopicPrefix prefixes every MQTT topic.
	DefaultTopicPrefix = "sos-sentinel"

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600
)

// Backend, driver and provider names accepted in the settings file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderNone   = "none"
	ProviderStatic = "static"
	ProviderHTTP   = "http"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errGRPCAddressRequired is returned when the gRPC address is missing.
	errGRPCAddressRequired = errors.New("grpc address must be provided")
	// errUnknownBackend is returned for an unsupported monitoring backend.
	errUnknownBackend = errors.New("unknown monitoring backend")
	// errRedisAddressRequired is returned when the redis backend has no address.
	errRedisAddressRequired = errors.New("redis address must be provided")
	// errUnknownDriver is returned for an unsupported storage driver.
	errUnknownDriver = errors.New("unknown storage driver")
	// errUnknownProvider is returned for an unsupported location provider.
	errUnknownProvider = errors.New("unknown location provider")
	// errInvalidThreshold is returned for a threshold below two toggles.
	errInvalidThreshold = errors.New("detector threshold must be at least 2")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Settings hold the session token and gateway key.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for the optional ones.
//
//nolint:cyclop,funlen // One flat pass over every section reads better than many helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.GRPCAddress == "" {
		return errGRPCAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Detector.Threshold == 0 {
		settings.Detector.Threshold = DefaultThreshold
	}

	if settings.Detector.Threshold < 2 {
		return errInvalidThreshold
	}

	if settings.Detector.Window <= 0 {
		settings.Detector.Window = DefaultWindow
	}

	switch settings.Monitoring.Backend {
	case "", BackendFile:
		settings.Monitoring.Backend = BackendFile
		if settings.Monitoring.StateFile == "" {
			settings.Monitoring.StateFile = DefaultStateFilename
		}
	case BackendRedis:
		if settings.Monitoring.RedisAddress == "" {
			return errRedisAddressRequired
		}

		if settings.Monitoring.RedisKey == "" {
			settings.Monitoring.RedisKey = DefaultRedisKey
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, settings.Monitoring.Backend)
	}

	switch settings.Storage.Driver {
	case "", DriverSQLite:
		settings.Storage.Driver = DriverSQLite
		if settings.Storage.DSN == "" {
			settings.Storage.DSN = DefaultDatabaseFilename
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, settings.Storage.Driver)
	}

	switch settings.Location.Provider {
	case "", ProviderNone:
		settings.Location.Provider = ProviderNone
	case ProviderStatic:
	case ProviderHTTP:
		if _, err := url.ParseRequestURI(settings.Location.URL); err != nil {
			return fmt.Errorf("invalid location url: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownProvider, settings.Location.Provider)
	}

	if settings.Location.Timeout <= 0 {
		settings.Location.Timeout = DefaultLocationTimeout
	}

	if settings.SMS.GatewayURL != "" {
		if _, err := url.ParseRequestURI(settings.SMS.GatewayURL); err != nil {
			return fmt.Errorf("invalid sms gateway url: %w", err)
		}
	}

	if settings.MQTT.TopicPrefix == "" {
		settings.MQTT.TopicPrefix = DefaultTopicPrefix
	}

	if settings.Pipeline.MaxParallel <= 0 {
		settings.Pipeline.MaxParallel = DefaultMaxParallel
	}

	return nil
}
