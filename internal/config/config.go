package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Gecko    GeckoConfig    `mapstructure:"gecko"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	App      AppConfig      `mapstructure:"app"`
}

type TelegramConfig struct {
	BotToken        string `mapstructure:"bot_token"`
	TrendingURL     string `mapstructure:"trending_url"`      // trending channel button
	ListingURL      string `mapstructure:"listing_url"`       // listing channel button
	BookTrendBotURL string `mapstructure:"book_trend_bot_url"`
	DTradeRefBase   string `mapstructure:"dtrade_ref_base"`   // trade-bot referral button
}

// GeckoConfig configures the GeckoTerminal API client.
type GeckoConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Network         string `mapstructure:"network"`
	RequestTimeout  int    `mapstructure:"request_timeout"`   // seconds
	MaxRetries      int    `mapstructure:"max_retries"`
	MaxResponseSize int64  `mapstructure:"max_response_size"` // bytes
	RateLimit       int    `mapstructure:"rate_limit"`        // requests per second
	RateBurst       int    `mapstructure:"rate_burst"`
}

// MonitorConfig configures the polling engine.
type MonitorConfig struct {
	PollSeconds        int `mapstructure:"poll_seconds"`
	LeaderboardTopN    int `mapstructure:"leaderboard_top_n"`
	WindowHours        int `mapstructure:"window_hours"`         // leaderboard rolling window
	MaxConcurrentPolls int `mapstructure:"max_concurrent_polls"` // fan-out cap per tick
	CooldownSeconds    int `mapstructure:"cooldown_seconds"`     // global pause after a 429
	BackoffSeconds     int `mapstructure:"backoff_seconds"`      // per-token pause after source failure
	SeenTTLMinutes     int `mapstructure:"seen_ttl_minutes"`     // seen-trade retention by age
	SeenMaxSize        int `mapstructure:"seen_max_size"`        // seen-trade retention by count
}

type AppConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// PollInterval returns the scheduler tick as a duration.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollSeconds) * time.Second
}

// Window returns the leaderboard rolling window as a duration.
func (m MonitorConfig) Window() time.Duration {
	return time.Duration(m.WindowHours) * time.Hour
}

var flagsOnce sync.Once

// LoadConfig layers configuration: defaults, then config.yaml, then .env,
// then process environment, then flags.
func LoadConfig() (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // optional file

	v.AutomaticEnv()
	setupEnvAliases(v)
	setupFlags(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("telegram.bot_token", "BOT_TOKEN")
	v.BindEnv("telegram.trending_url", "SPYTON_TRENDING_URL")
	v.BindEnv("telegram.listing_url", "SPYTON_LISTING_URL")
	v.BindEnv("telegram.book_trend_bot_url", "BOOK_TREND_BOT_URL")
	v.BindEnv("telegram.dtrade_ref_base", "DTRADE_REF_BASE")

	v.BindEnv("gecko.base_url", "GECKO_BASE_URL")
	v.BindEnv("gecko.network", "GECKO_NETWORK")
	v.BindEnv("gecko.request_timeout", "GECKO_REQUEST_TIMEOUT")
	v.BindEnv("gecko.max_retries", "GECKO_MAX_RETRIES")

	v.BindEnv("monitor.poll_seconds", "POLL_SECONDS")
	v.BindEnv("monitor.leaderboard_top_n", "LEADERBOARD_TOP_N")
	v.BindEnv("monitor.window_hours", "LEADERBOARD_WINDOW_HOURS")
	v.BindEnv("monitor.max_concurrent_polls", "MAX_CONCURRENT_POLLS")
	v.BindEnv("monitor.cooldown_seconds", "RATE_LIMIT_COOLDOWN_SECONDS")

	v.BindEnv("app.db_path", "DB_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.trending_url", "https://t.me/SpyTonTrending")
	v.SetDefault("telegram.listing_url", "https://t.me/TonProjectListing")
	v.SetDefault("telegram.book_trend_bot_url", "https://t.me/SpyTONTrndBot")
	v.SetDefault("telegram.dtrade_ref_base", "https://t.me/dtrade?start=11TYq7LInG")

	v.SetDefault("gecko.base_url", "https://api.geckoterminal.com/api/v2")
	v.SetDefault("gecko.network", "ton")
	v.SetDefault("gecko.request_timeout", 20)
	v.SetDefault("gecko.max_retries", 3)
	v.SetDefault("gecko.max_response_size", 10*1024*1024)
	v.SetDefault("gecko.rate_limit", 2)
	v.SetDefault("gecko.rate_burst", 4)

	v.SetDefault("monitor.poll_seconds", 25)
	v.SetDefault("monitor.leaderboard_top_n", 10)
	v.SetDefault("monitor.window_hours", 24)
	v.SetDefault("monitor.max_concurrent_polls", 4)
	v.SetDefault("monitor.cooldown_seconds", 60)
	v.SetDefault("monitor.backoff_seconds", 30)
	v.SetDefault("monitor.seen_ttl_minutes", 180)
	v.SetDefault("monitor.seen_max_size", 5000)

	v.SetDefault("app.db_path", "data/spyton.db")
}

func setupFlags(v *viper.Viper) {
	flagsOnce.Do(func() {
		pflag.String("telegram.bot_token", "", "Telegram bot token (env: BOT_TOKEN)")
		pflag.String("gecko.base_url", "https://api.geckoterminal.com/api/v2", "GeckoTerminal API base URL (env: GECKO_BASE_URL)")
		pflag.String("gecko.network", "ton", "GeckoTerminal network id (env: GECKO_NETWORK)")
		pflag.Int("monitor.poll_seconds", 25, "Poll interval in seconds (env: POLL_SECONDS)")
		pflag.Int("monitor.leaderboard_top_n", 10, "Leaderboard top buyers count (env: LEADERBOARD_TOP_N)")
		pflag.Int("monitor.window_hours", 24, "Leaderboard rolling window in hours (env: LEADERBOARD_WINDOW_HOURS)")
		pflag.Int("monitor.max_concurrent_polls", 4, "Max pools fetched in parallel (env: MAX_CONCURRENT_POLLS)")
		pflag.String("app.db_path", "data/spyton.db", "SQLite database path (env: DB_PATH)")
	})
	if !pflag.Parsed() {
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)
}

func validateConfig(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if cfg.Monitor.PollSeconds <= 0 {
		return fmt.Errorf("monitor.poll_seconds must be positive")
	}
	if cfg.Monitor.WindowHours <= 0 {
		return fmt.Errorf("monitor.window_hours must be positive")
	}
	if cfg.Monitor.MaxConcurrentPolls <= 0 {
		return fmt.Errorf("monitor.max_concurrent_polls must be positive")
	}
	return nil
}
