package feed

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	WSURL    string   // .env: FEED_WS_URL
	Pairs    []string // .env: FEED_PAIRS (comma-separated, "EUR/USD,GBP/USD")
	RedisURL string   // .env: REDIS_URL
	Channel  string   // .env: QUOTE_CHANNEL
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		WSURL:    getenvDefault("FEED_WS_URL", "wss://socket.polygon.io/forex"),
		RedisURL: getenvDefault("REDIS_URL", "redis://localhost:6379"),
		Channel:  getenvDefault("QUOTE_CHANNEL", "forex.quote"),
	}
	pairs := getenvDefault("FEED_PAIRS", "EUR/USD")
	for _, p := range strings.Split(pairs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Pairs = append(cfg.Pairs, p)
		}
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
