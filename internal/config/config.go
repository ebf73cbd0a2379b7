// Package config loads runtime configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the bot.
type Config struct {
	// BotToken is the Telegram bot token. Required.
	BotToken string

	// Channels are the subscription-bonus channels, e.g. "@GlaGena1".
	Channels []string

	// AdminIDs are user ids allowed to run /stats and /broadcast.
	AdminIDs []int64

	FreeVideoLimit int
	FreeAudioLimit int
	BonusLimit     int
	MaxConcurrent  int64

	DownloadDir string
	CookiesFile string

	// StatsBackend selects the usage store: file, memory, redis or postgres.
	StatsBackend string
	StatsFile    string
	RedisAddr    string
	PostgresDSN  string

	// HTTPAddr is the admin/metrics listen address. Empty disables the server.
	HTTPAddr string

	LogLevel string
}

// Load reads configuration from the environment. A .env file is honored when
// present but never required.
func Load() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	c := Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		Channels:       splitList(getenv("CHANNELS", "@GlaGena1,@PyWallpap")),
		FreeVideoLimit: getenvInt("FREE_VIDEO_LIMIT", 7),
		FreeAudioLimit: getenvInt("FREE_AUDIO_LIMIT", 15),
		BonusLimit:     getenvInt("BONUS_LIMIT", 4),
		MaxConcurrent:  int64(getenvInt("MAX_CONCURRENT_DOWNLOADS", 10)),
		DownloadDir:    getenv("DOWNLOAD_DIR", "downloads"),
		CookiesFile:    os.Getenv("COOKIES_FILE"),
		StatsBackend:   getenv("STATS_BACKEND", "file"),
		StatsFile:      getenv("STATS_FILE", "user_stats.json"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		HTTPAddr:       getenv("HTTP_ADDR", ":9090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	for _, raw := range splitList(os.Getenv("ADMIN_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid admin id %q: %w", raw, err)
		}
		c.AdminIDs = append(c.AdminIDs, id)
	}

	if c.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is not set")
	}
	switch c.StatsBackend {
	case "file", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STATS_BACKEND %q", c.StatsBackend)
	}

	return c, nil
}

// IsAdmin reports whether the user id is in the admin list.
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
