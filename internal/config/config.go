package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Quotes   Quotes   `mapstructure:"quotes"`
	News     News     `mapstructure:"news"`
	Trading  Trading  `mapstructure:"trading"`
	Auth     Auth     `mapstructure:"auth"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Quotes holds the configuration for the market-data provider.
type Quotes struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	CacheTTL       int     `mapstructure:"cache_ttl"` // seconds
}

// News holds the configuration for the market-news feed.
type News struct {
	BaseURL  string `mapstructure:"base_url"`
	ApiKey   string `mapstructure:"api_key"`
	PageSize int    `mapstructure:"page_size"`
}

// Trading holds the configuration for paper-trading accounts.
type Trading struct {
	StartingBalance  float64  `mapstructure:"starting_balance"`
	DefaultFavorites []string `mapstructure:"default_favorites"`
	DefaultWatchlist []string `mapstructure:"default_watchlist"`
}

// Auth holds the configuration for bearer-token authentication.
type Auth struct {
	Secret   string `mapstructure:"secret"`
	TokenTTL int    `mapstructure:"token_ttl"` // seconds
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	viper.SetDefault("quotes.rate_limit", 10) // requests per second
	viper.SetDefault("quotes.rate_limit_burst", 5)
	viper.SetDefault("quotes.cache_ttl", 60)
	viper.SetDefault("news.base_url", "https://newsapi.org")
	viper.SetDefault("news.page_size", 20)
	viper.SetDefault("trading.starting_balance", 10000.00)
	viper.SetDefault("trading.default_favorites",
		[]string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "NVDA", "META"})
	viper.SetDefault("trading.default_watchlist",
		[]string{"NFLX", "DIS", "AMD", "INTC", "BA", "IBM", "CSCO", "ORCL"})
	viper.SetDefault("auth.token_ttl", 86400)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
