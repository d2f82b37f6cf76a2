package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required values are enforced by must();
// the rest fall back to defaults suitable for local development.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign session JWTs
	AccessTTLMin   int    // session token time-to-live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	SessionTTLMin  int    // Redis TTL for cached session accounts, minutes
	OperatorTTLMin int    // operator session lifetime, minutes (original auto-logout: 60)
	CooldownDays   int    // days between requests of the same variant per account
	Locale         string // locale for user-facing cooldown messages ("ru" or "en")

	// Destructive schema upgrades are refused unless this is set; the
	// original silently dropped every store on a version bump, which is
	// exactly the behaviour we do not want by default.
	StoreResetOnUpgrade bool

	RelayEnabled   bool   // whether the Telegram relay runs at all
	TelegramToken  string // bot token for the relay (required when enabled)
	TelegramChatID int64  // operator chat mirrored by the relay
}

// Load reads configuration values from environment variables and
// returns a Config. Missing required variables cause the program to
// exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		SessionTTLMin:  envInt("SESSION_TTL_MIN", 720),
		OperatorTTLMin: envInt("OPERATOR_SESSION_TTL_MIN", 60),
		CooldownDays:   envInt("REQUEST_COOLDOWN_DAYS", 30),
		Locale:         envStr("LOCALE", "ru"),

		StoreResetOnUpgrade: envBool("STORE_RESET_ON_UPGRADE", false),

		RelayEnabled: envBool("RELAY_ENABLED", false),
	}
	if cfg.RelayEnabled {
		cfg.TelegramToken = must("TELEGRAM_BOT_TOKEN")
		chat, err := strconv.ParseInt(must("TELEGRAM_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatalf("invalid int for TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = chat
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
