package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/beu-result-proxy/pkg/fileutil"
	"github.com/rohmanhakim/beu-result-proxy/pkg/urlutil"
	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://beu-bih.ac.in"

type Config struct {
	//===============
	// Upstream
	//===============
	// Root of the result-publishing site. Exam links are appended to it verbatim.
	baseURL url.URL
	// Path of the exam listing page relative to baseURL
	listingPath string
	// User agent sent to the upstream site
	userAgent string
	// Upper bound of a listing page fetch
	listingTimeout time.Duration
	// Upper bound of a result fetch
	resultTimeout time.Duration

	//===============
	// Cache
	//===============
	// Lifetime of the cached exam list
	examsTTL time.Duration
	// Lifetime of each cached result
	resultTTL time.Duration
	// Share one upstream fetch between concurrent misses on the same key.
	// Off by default: concurrent misses each fetch and the last write wins.
	dedupeInflight bool
	// How often expired entries are dropped. Zero disables the sweep and
	// expired entries are only replaced when their key is fetched again.
	purgeInterval time.Duration

	//===============
	// Server
	//===============
	// Address the HTTP server listens on
	listenAddr string
	// Origins allowed by CORS; "*" allows any origin
	allowedOrigins []string
	// slog level name: debug, info, warn or error
	logLevel string
}

type configDTO struct {
	BaseURL        string        `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	ListingPath    string        `json:"listingPath,omitempty" yaml:"listingPath,omitempty"`
	UserAgent      string        `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	ListingTimeout time.Duration `json:"listingTimeout,omitempty" yaml:"listingTimeout,omitempty"`
	ResultTimeout  time.Duration `json:"resultTimeout,omitempty" yaml:"resultTimeout,omitempty"`
	ExamsTTL       time.Duration `json:"examsTtl,omitempty" yaml:"examsTtl,omitempty"`
	ResultTTL      time.Duration `json:"resultTtl,omitempty" yaml:"resultTtl,omitempty"`
	DedupeInflight bool          `json:"dedupeInflight,omitempty" yaml:"dedupeInflight,omitempty"`
	PurgeInterval  time.Duration `json:"purgeInterval,omitempty" yaml:"purgeInterval,omitempty"`
	ListenAddr     string        `json:"listenAddr,omitempty" yaml:"listenAddr,omitempty"`
	AllowedOrigins []string      `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	LogLevel       string        `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault()

	if dto.BaseURL != "" {
		base, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: baseUrl: %s", ErrInvalidConfig, err.Error())
		}
		builder = builder.WithBaseURL(*base)
	}
	if dto.ListingPath != "" {
		builder = builder.WithListingPath(dto.ListingPath)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.ListingTimeout != 0 {
		builder = builder.WithListingTimeout(dto.ListingTimeout)
	}
	if dto.ResultTimeout != 0 {
		builder = builder.WithResultTimeout(dto.ResultTimeout)
	}
	if dto.ExamsTTL != 0 {
		builder = builder.WithExamsTTL(dto.ExamsTTL)
	}
	if dto.ResultTTL != 0 {
		builder = builder.WithResultTTL(dto.ResultTTL)
	}
	// bool zero value is the default, so the DTO value is used as-is
	builder = builder.WithDedupeInflight(dto.DedupeInflight)
	if dto.PurgeInterval != 0 {
		builder = builder.WithPurgeInterval(dto.PurgeInterval)
	}
	if dto.ListenAddr != "" {
		builder = builder.WithListenAddr(dto.ListenAddr)
	}
	if len(dto.AllowedOrigins) > 0 {
		builder = builder.WithAllowedOrigins(dto.AllowedOrigins)
	}
	if dto.LogLevel != "" {
		builder = builder.WithLogLevel(dto.LogLevel)
	}

	return builder.Build()
}

// WithConfigFile loads a JSON (.json) or YAML (.yaml, .yml) file on top of
// the defaults. Durations are integer nanoseconds in JSON and may also be
// written as Go duration strings ("15s") in YAML.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch ext := fileutil.GetFileExtension(path); ext {
	case "json":
		err = json.Unmarshal(configContent, &cfgDTO)
	case "yaml", "yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config builder with the production defaults.
func WithDefault() *Config {
	base, _ := url.Parse(DefaultBaseURL)
	defaultConfig := Config{
		baseURL:        *base,
		listingPath:    "/result",
		userAgent:      "Mozilla/5.0",
		listingTimeout: 15 * time.Second,
		resultTimeout:  20 * time.Second,
		examsTTL:       30 * time.Minute,
		resultTTL:      10 * time.Minute,
		dedupeInflight: false,
		purgeInterval:  0,
		listenAddr:     ":5000",
		allowedOrigins: []string{"*"},
		logLevel:       "info",
	}
	return &defaultConfig
}

func (c *Config) WithBaseURL(base url.URL) *Config {
	c.baseURL = base
	return c
}

func (c *Config) WithListingPath(path string) *Config {
	c.listingPath = path
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithListingTimeout(timeout time.Duration) *Config {
	c.listingTimeout = timeout
	return c
}

func (c *Config) WithResultTimeout(timeout time.Duration) *Config {
	c.resultTimeout = timeout
	return c
}

func (c *Config) WithExamsTTL(ttl time.Duration) *Config {
	c.examsTTL = ttl
	return c
}

func (c *Config) WithResultTTL(ttl time.Duration) *Config {
	c.resultTTL = ttl
	return c
}

func (c *Config) WithDedupeInflight(dedupe bool) *Config {
	c.dedupeInflight = dedupe
	return c
}

func (c *Config) WithPurgeInterval(interval time.Duration) *Config {
	c.purgeInterval = interval
	return c
}

func (c *Config) WithListenAddr(addr string) *Config {
	c.listenAddr = addr
	return c
}

func (c *Config) WithAllowedOrigins(origins []string) *Config {
	c.allowedOrigins = origins
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if c.baseURL.Scheme != "http" && c.baseURL.Scheme != "https" {
		return Config{}, fmt.Errorf("%w: baseUrl must be an http(s) URL, got %q", ErrInvalidConfig, c.baseURL.String())
	}
	if c.baseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl has no host", ErrInvalidConfig)
	}
	if c.examsTTL <= 0 || c.resultTTL <= 0 {
		return Config{}, fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidConfig)
	}
	if c.listingTimeout <= 0 || c.resultTimeout <= 0 {
		return Config{}, fmt.Errorf("%w: fetch timeouts must be positive", ErrInvalidConfig)
	}
	if c.purgeInterval < 0 {
		return Config{}, fmt.Errorf("%w: purgeInterval cannot be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.logLevel) {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.logLevel)
	}

	c.baseURL = urlutil.NormalizeBase(c.baseURL)
	if c.listingPath == "" {
		c.listingPath = "/"
	}

	return *c, nil
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) ListingPath() string {
	return c.listingPath
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ListingTimeout() time.Duration {
	return c.listingTimeout
}

func (c Config) ResultTimeout() time.Duration {
	return c.resultTimeout
}

func (c Config) ExamsTTL() time.Duration {
	return c.examsTTL
}

func (c Config) ResultTTL() time.Duration {
	return c.resultTTL
}

func (c Config) DedupeInflight() bool {
	return c.dedupeInflight
}

func (c Config) PurgeInterval() time.Duration {
	return c.purgeInterval
}

func (c Config) ListenAddr() string {
	return c.listenAddr
}

func (c Config) AllowedOrigins() []string {
	origins := make([]string, len(c.allowedOrigins))
	copy(origins, c.allowedOrigins)
	return origins
}

func (c Config) LogLevel() string {
	return strings.ToLower(c.logLevel)
}
