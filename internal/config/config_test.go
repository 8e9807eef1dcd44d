package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshalConfig(t *testing.T, v *viper.Viper) *Config {
	t.Helper()
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := unmarshalConfig(t, v)

	assert.Equal(t, "https://api.geckoterminal.com/api/v2", cfg.Gecko.BaseURL)
	assert.Equal(t, "ton", cfg.Gecko.Network)
	assert.Equal(t, 25, cfg.Monitor.PollSeconds)
	assert.Equal(t, 10, cfg.Monitor.LeaderboardTopN)
	assert.Equal(t, 24, cfg.Monitor.WindowHours)
	assert.Equal(t, 4, cfg.Monitor.MaxConcurrentPolls)
	assert.Equal(t, 60, cfg.Monitor.CooldownSeconds)
	assert.Equal(t, "data/spyton.db", cfg.App.DBPath)
}

func TestEnvAliases(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("POLL_SECONDS", "40")
	t.Setenv("GECKO_NETWORK", "eth")
	t.Setenv("LEADERBOARD_TOP_N", "5")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	setupEnvAliases(v)
	cfg := unmarshalConfig(t, v)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, 40, cfg.Monitor.PollSeconds)
	assert.Equal(t, "eth", cfg.Gecko.Network)
	assert.Equal(t, 5, cfg.Monitor.LeaderboardTopN)
}

func TestValidateConfig(t *testing.T) {
	valid := &Config{
		Telegram: TelegramConfig{BotToken: "123:abc"},
		Monitor: MonitorConfig{
			PollSeconds:        25,
			WindowHours:        24,
			MaxConcurrentPolls: 4,
		},
	}
	require.NoError(t, validateConfig(valid))

	noToken := *valid
	noToken.Telegram.BotToken = ""
	assert.Error(t, validateConfig(&noToken))

	badPoll := *valid
	badPoll.Monitor.PollSeconds = 0
	assert.Error(t, validateConfig(&badPoll))

	badWindow := *valid
	badWindow.Monitor.WindowHours = -1
	assert.Error(t, validateConfig(&badWindow))

	badFanout := *valid
	badFanout.Monitor.MaxConcurrentPolls = 0
	assert.Error(t, validateConfig(&badFanout))
}

func TestMonitorConfigDurations(t *testing.T) {
	m := MonitorConfig{PollSeconds: 25, WindowHours: 24}
	assert.Equal(t, 25*time.Second, m.PollInterval())
	assert.Equal(t, 24*time.Hour, m.Window())
}
