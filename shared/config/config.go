package config

import (
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// MonitorConfig holds the scheduling knobs for the two polling loops.
type MonitorConfig struct {
	Chain                      string `mapstructure:"chain"`
	CheckIntervalSeconds       int    `mapstructure:"check_interval_seconds"`
	PerformanceIntervalMinutes int    `mapstructure:"performance_interval_minutes"`
	CheckpointHours            []int  `mapstructure:"checkpoint_hours"`
	CheckpointToleranceMinutes int    `mapstructure:"checkpoint_tolerance_minutes"`
	RetentionDays              int    `mapstructure:"retention_days"`
}

// APIConfig holds the retry/timeout policy for the market-data source.
type APIConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	ListingTimeoutSeconds int    `mapstructure:"listing_timeout_seconds"`
	ListingMaxRetries     int    `mapstructure:"listing_max_retries"`
	DetailsTimeoutSeconds int    `mapstructure:"details_timeout_seconds"`
	DetailsMaxRetries     int    `mapstructure:"details_max_retries"`
}

// Config defines the global configuration structure
type Config struct {
	App struct {
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Monitor MonitorConfig `mapstructure:"monitor"`
	API     APIConfig     `mapstructure:"api"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

func (m MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(m.CheckIntervalSeconds) * time.Second
}

func (m MonitorConfig) PerformanceInterval() time.Duration {
	return time.Duration(m.PerformanceIntervalMinutes) * time.Minute
}

func (m MonitorConfig) CheckpointTolerance() time.Duration {
	return time.Duration(m.CheckpointToleranceMinutes) * time.Minute
}

func (m MonitorConfig) Retention() time.Duration {
	return time.Duration(m.RetentionDays) * 24 * time.Hour
}

func (a APIConfig) ListingTimeout() time.Duration {
	return time.Duration(a.ListingTimeoutSeconds) * time.Second
}

func (a APIConfig) DetailsTimeout() time.Duration {
	return time.Duration(a.DetailsTimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from the specified file path and merges it with environment variables
func LoadConfig(path string) (*Config, error) {
	log.Printf("Starting to load configuration from file: %s", path)

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetEnvPrefix("APP")
	viper.BindEnv("app.environment", "ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("monitor.chain", "MONITOR_CHAIN")
	viper.BindEnv("monitor.check_interval_seconds", "CHECK_INTERVAL_SECONDS")
	viper.BindEnv("monitor.performance_interval_minutes", "PERFORMANCE_INTERVAL_MINUTES")
	viper.BindEnv("api.base_url", "DEXSCANNER_API_URL")

	setDefaults()

	var cfg Config

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}

	log.Printf("Loaded configuration from file: %s", path)
	return &cfg, nil
}

// Defaults mirror the cadences the monitor was tuned for: a fast discovery
// poll, a slow performance poll, and a tolerance window much narrower than
// the performance cadence spacing.
func setDefaults() {
	viper.SetDefault("app.environment", "production")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("monitor.chain", "sol")
	viper.SetDefault("monitor.check_interval_seconds", 15)
	viper.SetDefault("monitor.performance_interval_minutes", 15)
	viper.SetDefault("monitor.checkpoint_hours", []int{1, 6, 24})
	viper.SetDefault("monitor.checkpoint_tolerance_minutes", 10)
	viper.SetDefault("monitor.retention_days", 7)
	viper.SetDefault("api.base_url", "https://api.dexscanner.io")
	viper.SetDefault("api.listing_timeout_seconds", 20)
	viper.SetDefault("api.listing_max_retries", 5)
	viper.SetDefault("api.details_timeout_seconds", 10)
	viper.SetDefault("api.details_max_retries", 3)
}

// SetGlobalConfig sets the loaded configuration globally
func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig retrieves the globally set configuration
func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	if globalConfig == nil {
		log.Println("GetGlobalConfig: Global configuration is nil.")
	}
	return globalConfig
}
