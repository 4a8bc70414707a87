// Package config loads the service configuration from a YAML file with
// environment overrides, fills declared defaults, and validates the result.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pixelforge/pixelforge/cache"
	"github.com/pixelforge/pixelforge/imageops/native"
	"github.com/pixelforge/pixelforge/logging"
)

// envPrefix is the prefix for environment overrides, e.g.
// PIXELFORGE_SERVER_ADDR.
const envPrefix = "PIXELFORGE"

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server" json:"server" yaml:"server"`
	Log     logging.Config `mapstructure:"log" json:"log" yaml:"log"`
	Imaging ImagingConfig  `mapstructure:"imaging" json:"imaging" yaml:"imaging"`
	Storage StorageConfig  `mapstructure:"storage" json:"storage" yaml:"storage"`
	Cache   CacheConfig    `mapstructure:"cache" json:"cache" yaml:"cache"`
	Prewarm PrewarmConfig  `mapstructure:"prewarm" json:"prewarm" yaml:"prewarm"`
}

// ServerConfig configures the HTTP listener and URL generation.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr" default:":8080"`

	// RootURL is the public base URL of this API.
	RootURL string `mapstructure:"root-url" json:"rootUrl" yaml:"root-url" default:"http://localhost:8080"`

	// ImageServiceURL is the public base URL redirects point at; defaults
	// to RootURL when empty.
	ImageServiceURL string `mapstructure:"image-service-url" json:"imageServiceUrl" yaml:"image-service-url"`

	// HMACKey signs processing URLs.
	HMACKey string `mapstructure:"hmac-key" json:"hmacKey" yaml:"hmac-key" validate:"required"`

	// RateLimit is the per-client requests per minute; zero disables
	// limiting.
	RateLimit int `mapstructure:"rate-limit" json:"rateLimit" yaml:"rate-limit" validate:"gte=0"`

	ReadTimeout    time.Duration `mapstructure:"read-timeout" json:"readTimeout" yaml:"read-timeout" default:"30s"`
	WriteTimeout   time.Duration `mapstructure:"write-timeout" json:"writeTimeout" yaml:"write-timeout" default:"90s"`
	HandlerTimeout time.Duration `mapstructure:"handler-timeout" json:"handlerTimeout" yaml:"handler-timeout" default:"45s"`
}

// ImagingConfig configures validation limits and the native engine.
type ImagingConfig struct {
	// MaxSize is the largest accepted width or height.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"5000" validate:"gte=1"`

	// BlurMin/BlurMax bound the accepted blur amount.
	BlurMin int `mapstructure:"blur-min" json:"blurMin" yaml:"blur-min" default:"1" validate:"gte=1"`
	BlurMax int `mapstructure:"blur-max" json:"blurMax" yaml:"blur-max" default:"10" validate:"gtefield=BlurMin"`

	// Attribution is stamped into the user-comment slot of every
	// rendered variant.
	Attribution string `mapstructure:"attribution" json:"attribution" yaml:"attribution" default:"Pixelforge"`

	// Engine holds the native engine's encoding parameters.
	Engine native.Config `mapstructure:"engine" json:"engine" yaml:"engine"`
}

// StorageConfig selects where originals are read from.
type StorageConfig struct {
	// Backend is "local" or "oss".
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend" default:"local" validate:"oneof=local oss"`

	// Path is the originals directory for the local backend.
	Path string `mapstructure:"path" json:"path" yaml:"path" default:"./originals"`

	// Manifest is the catalog manifest path.
	Manifest string `mapstructure:"manifest" json:"manifest" yaml:"manifest" default:"./originals/manifest.json"`

	OSS OSSConfig `mapstructure:"oss" json:"oss" yaml:"oss"`
}

// OSSConfig holds Aliyun OSS credentials for the oss backend.
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access-key-id" json:"accessKeyId" yaml:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret" json:"-" yaml:"access-key-secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// CacheConfig selects the variant cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend" default:"memory" validate:"oneof=memory redis"`

	// TTL is how long rendered variants stay cached.
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl" default:"24h"`

	Redis cache.RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
}

// PrewarmConfig controls startup cache warming.
type PrewarmConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// Workers bounds the concurrent renders.
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" default:"4" validate:"gte=1"`

	// Sizes are the square variant sizes rendered per catalog image.
	Sizes []int `mapstructure:"sizes" json:"sizes" yaml:"sizes"`
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates the result. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, nil, fmt.Errorf("config: defaults: %w", err)
	}
	if cfg.Server.ImageServiceURL == "" {
		cfg.Server.ImageServiceURL = cfg.Server.RootURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate checks the configuration's declared constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validate: %w", err)
	}
	return nil
}

// Watch re-reads the config file on change and calls onChange with the new
// configuration when it parses and validates.
func Watch(v *viper.Viper, onChange func(*Config)) {
	v.OnConfigChange(func(fsnotify.Event) {
		cfg := &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			logging.Global().WithError(err).Warn("config reload failed")
			return
		}
		if err := defaults.Set(cfg); err != nil {
			logging.Global().WithError(err).Warn("config reload failed")
			return
		}
		if err := cfg.Validate(); err != nil {
			logging.Global().WithError(err).Warn("config reload rejected")
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
