package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rohmanhakim/beu-result-proxy/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variables: --base-url falls back to
// BEU_BASE_URL when the flag is not given.
const envPrefix = "BEU"

var (
	cfgFile        string
	baseURL        string
	listingPath    string
	listenAddr     string
	userAgent      string
	examsTTL       time.Duration
	resultTTL      time.Duration
	listingTimeout time.Duration
	resultTimeout  time.Duration
	allowedOrigins []string
	dedupeInflight bool
	purgeInterval  time.Duration
	logLevel       string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "beu-result-proxy",
	Short: "A caching JSON proxy for the BEU result site.",
	Long: `beu-result-proxy serves the examinations published on the Bihar Engineering
University result site as JSON, fetches a student's result by registration
number, and renders a fetched result as a downloadable PDF.

Upstream pages are cached in memory for a short time: the exam list for
30 minutes and each result for 10 minutes by default.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		logger, err := NewLogger(os.Stderr, cfg.LogLevel())
		if err != nil {
			return err
		}
		return Serve(cmd.Context(), cfg, logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, .json or .yaml (e.g., /etc/beu-result-proxy/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "root URL of the upstream result site (default https://beu-bih.ac.in)")
	rootCmd.PersistentFlags().StringVar(&listingPath, "listing-path", "", "path of the exam listing page (default /result)")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen-addr", "", "address the HTTP server listens on (default :5000)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for upstream requests")
	rootCmd.PersistentFlags().DurationVar(&examsTTL, "exams-ttl", 0, "how long the exam list is cached (default 30m)")
	rootCmd.PersistentFlags().DurationVar(&resultTTL, "result-ttl", 0, "how long each result is cached (default 10m)")
	rootCmd.PersistentFlags().DurationVar(&listingTimeout, "listing-timeout", 0, "timeout for fetching the exam listing (default 15s)")
	rootCmd.PersistentFlags().DurationVar(&resultTimeout, "result-timeout", 0, "timeout for fetching a result (default 20s)")
	rootCmd.PersistentFlags().StringArrayVar(&allowedOrigins, "allowed-origin", []string{}, "CORS origin allowed to call the API (can be repeated, default *)")
	rootCmd.PersistentFlags().BoolVar(&dedupeInflight, "dedupe-inflight", false, "share one upstream fetch between concurrent misses on the same key")
	rootCmd.PersistentFlags().DurationVar(&purgeInterval, "purge-interval", 0, "interval of the expired-entry sweep (0 disables it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default info)")

	rootCmd.AddCommand(versionCmd)
}

// envSettings reads BEU_* environment variables. Keys are the flag names
// with dashes replaced by underscores.
func envSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// InitConfigWithError builds the config from, in order of precedence,
// a config file, command line flags, BEU_* environment variables and the
// built-in defaults. A config file replaces flags and environment entirely.
func InitConfigWithError() (config.Config, error) {
	env := envSettings()

	path := cfgFile
	if path == "" {
		path = env.GetString("config_file")
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "Initializing config from file: %s\n", path)
		cfg, err := config.WithConfigFile(path)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	configBuilder := config.WithDefault()

	if raw := stringSetting(env, baseURL, "base_url"); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: error parsing base URL %s: %s", config.ErrInvalidConfig, raw, err)
		}
		configBuilder = configBuilder.WithBaseURL(*parsed)
	}

	if v := stringSetting(env, listingPath, "listing_path"); v != "" {
		configBuilder = configBuilder.WithListingPath(v)
	}

	if v := stringSetting(env, listenAddr, "listen_addr"); v != "" {
		configBuilder = configBuilder.WithListenAddr(v)
	}

	if v := stringSetting(env, userAgent, "user_agent"); v != "" {
		configBuilder = configBuilder.WithUserAgent(v)
	}

	if v := durationSetting(env, examsTTL, "exams_ttl"); v != 0 {
		configBuilder = configBuilder.WithExamsTTL(v)
	}

	if v := durationSetting(env, resultTTL, "result_ttl"); v != 0 {
		configBuilder = configBuilder.WithResultTTL(v)
	}

	if v := durationSetting(env, listingTimeout, "listing_timeout"); v != 0 {
		configBuilder = configBuilder.WithListingTimeout(v)
	}

	if v := durationSetting(env, resultTimeout, "result_timeout"); v != 0 {
		configBuilder = configBuilder.WithResultTimeout(v)
	}

	if len(allowedOrigins) > 0 {
		configBuilder = configBuilder.WithAllowedOrigins(allowedOrigins)
	} else if env.IsSet("allowed_origins") {
		configBuilder = configBuilder.WithAllowedOrigins(env.GetStringSlice("allowed_origins"))
	}

	if dedupeInflight || env.GetBool("dedupe_inflight") {
		configBuilder = configBuilder.WithDedupeInflight(true)
	}

	if v := durationSetting(env, purgeInterval, "purge_interval"); v != 0 {
		configBuilder = configBuilder.WithPurgeInterval(v)
	}

	if v := stringSetting(env, logLevel, "log_level"); v != "" {
		configBuilder = configBuilder.WithLogLevel(v)
	}

	return configBuilder.Build()
}

func stringSetting(env *viper.Viper, flagValue string, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return env.GetString(key)
}

func durationSetting(env *viper.Viper, flagValue time.Duration, key string) time.Duration {
	if flagValue != 0 {
		return flagValue
	}
	return env.GetDuration(key)
}

func ResetFlags() {
	cfgFile = ""
	baseURL = ""
	listingPath = ""
	listenAddr = ""
	userAgent = ""
	examsTTL = 0
	resultTTL = 0
	listingTimeout = 0
	resultTimeout = 0
	allowedOrigins = []string{}
	dedupeInflight = false
	purgeInterval = 0
	logLevel = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBaseURLForTest(raw string) {
	baseURL = raw
}

func SetListenAddrForTest(addr string) {
	listenAddr = addr
}

func SetExamsTTLForTest(ttl time.Duration) {
	examsTTL = ttl
}

func SetResultTTLForTest(ttl time.Duration) {
	resultTTL = ttl
}

func SetAllowedOriginsForTest(origins []string) {
	allowedOrigins = origins
}

func SetDedupeInflightForTest(dedupe bool) {
	dedupeInflight = dedupe
}

func SetLogLevelForTest(level string) {
	logLevel = level
}
