package config

import (
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Alert modes.
const (
	AlertModeRepeat = "repeat"
	AlertModeOnce   = "once"
)

// Config is the process configuration read from .env and the environment.
type Config struct {
	PollIntervalMins   int
	RiskFreeRate       float64
	ContractMultiplier int
	AlertMode          string

	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int

	StateDir    string
	AlertsDir   string
	AuditDBPath string
	MetricsAddr string

	APCAKeyID        string
	APCASecretKey    string
	MarketRatePerMin int

	EnableTelegram   bool
	TelegramBotToken string
	TelegramChatID   string

	DiscordBotToken  string
	DiscordChannelID string
}

// secretVars are masked when the .env file is echoed.
var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
	"TELEGRAM_CHAT_ID":    true,
	"DISCORD_BOT_TOKEN":   true,
}

// Load reads a .env file if present and builds the Config from the
// environment, applying defaults for anything unset or malformed.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	} else {
		logEnvFile()
	}

	cfg := &Config{
		PollIntervalMins:   getEnvAsInt("MONITOR_POLL_INTERVAL", 15),
		RiskFreeRate:       getEnvAsFloat64("RISK_FREE_RATE", 0.04),
		ContractMultiplier: getEnvAsInt("CONTRACT_MULTIPLIER", 100),
		AlertMode:          strings.ToLower(getEnv("ALERT_MODE", AlertModeRepeat)),

		LogLevel:      strings.ToUpper(getEnv("MONITOR_LOG_LEVEL", "INFO")),
		LogFile:       getEnv("MONITOR_LOG_FILE", "option_monitor.log"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),

		StateDir:    getEnv("STATE_DIR", "."),
		AlertsDir:   getEnv("ALERTS_DIR", "alerts_history"),
		AuditDBPath: os.Getenv("AUDIT_DB_PATH"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		APCAKeyID:        os.Getenv("APCA_API_KEY_ID"),
		APCASecretKey:    os.Getenv("APCA_API_SECRET_KEY"),
		MarketRatePerMin: getEnvAsInt("MARKET_RATE_LIMIT_PER_MIN", 200),

		EnableTelegram:   getEnvAsBool("ENABLE_TELEGRAM", false),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
	}

	if cfg.PollIntervalMins <= 0 {
		log.Printf("Warning: MONITOR_POLL_INTERVAL must be positive, using 15")
		cfg.PollIntervalMins = 15
	}
	if cfg.ContractMultiplier <= 0 {
		log.Printf("Warning: CONTRACT_MULTIPLIER must be positive, using 100")
		cfg.ContractMultiplier = 100
	}
	if cfg.AlertMode != AlertModeRepeat && cfg.AlertMode != AlertModeOnce {
		log.Printf("Warning: unknown ALERT_MODE %q, using %s", cfg.AlertMode, AlertModeRepeat)
		cfg.AlertMode = AlertModeRepeat
	}
	if cfg.EnableTelegram && (cfg.TelegramBotToken == "" || cfg.TelegramChatID == "") {
		log.Println("Warning: Telegram enabled but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID missing, disabling")
		cfg.EnableTelegram = false
	}
	return cfg
}

// DiscordEnabled reports whether both Discord settings are present.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordChannelID != ""
}

// HasMarketCredentials reports whether the Alpaca keys are set.
func (c *Config) HasMarketCredentials() bool {
	return c.APCAKeyID != "" && c.APCASecretKey != ""
}

// logEnvFile prints the variables defined in .env, secrets masked.
func logEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Println("--- .env File Variables ---")
	for _, key := range keys {
		val := envMap[key]
		if secretVars[key] {
			val = Mask(val)
		}
		log.Printf("%s=%s", key, val)
	}
	log.Println("---------------------------")
}

// Mask hides all but the last 4 characters of a secret.
func Mask(val string) string {
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
