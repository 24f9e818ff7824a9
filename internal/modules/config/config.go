package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	redisURLENV       = "REDIS_URL"
)

// Config ...
type Config struct {
	DB string `yaml:"db_dsn"`

	Redis struct {
		URL                string `yaml:"url"`
		QuoteChannel       string `yaml:"quote_channel"`
		TradeActionChannel string `yaml:"trade_action_channel"`
		// Сколько котировок можно слить в одну транзакцию при всплеске
		QuoteBurst int `yaml:"quote_burst"`
	} `yaml:"redis"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Сколько ждём коннект к базе/редису на старте
	ConnectTimeout time.Duration
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		ConnectTimeout: durationFromEnv("CONNECT_TIMEOUT", "10s"),
	}
	config.Redis.URL = "redis://localhost:6379"
	config.Redis.QuoteChannel = "forex.quote"
	config.Redis.TradeActionChannel = "forex.trade.action"
	config.Redis.QuoteBurst = intFromEnv("QUOTE_BURST", 64)
	config.Health.Addr = getenvDefault("HEALTH_ADDR", ":8080")

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	redisURL := os.Getenv(redisURLENV)
	if redisURL != "" {
		config.Redis.URL = redisURL
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
