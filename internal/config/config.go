package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required values are enforced by must() and
// missing ones cause the program to exit with a fatal log message;
// optional values fall back to sensible defaults.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	Timezone          string // operating timezone of the room (IANA name)
	BaseURL           string // public base URL for payment return/notify links
	Currency          string // ISO currency code charged for slots
	DefaultPriceCents int64  // price per slot when the settings store is unavailable
	DefaultAccessCode string // door code fallback
	PayAPIURL         string // payment provider API base URL
	PayAPIKey         string // payment provider API key
	JWTSecret         string // secret used to sign admin session tokens
	AdminPassHash     string // bcrypt hash of the operator password
	CaptchaVerifyURL  string // captcha verification endpoint (optional)
	CaptchaSecret     string // captcha provider secret (empty disables verification)
}

// Load reads configuration values from environment variables and returns
// a Config.
func Load() Config {
	return Config{
		Env:               getenv("APP_ENV", "dev"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		Timezone:          getenv("ROOM_TIMEZONE", "Europe/Budapest"),
		BaseURL:           must("PUBLIC_BASE_URL"),
		Currency:          getenv("CURRENCY", "EUR"),
		DefaultPriceCents: mustInt64("DEFAULT_PRICE_CENTS"),
		DefaultAccessCode: getenv("DEFAULT_ACCESS_CODE", ""),
		PayAPIURL:         must("PAY_API_URL"),
		PayAPIKey:         must("PAY_API_KEY"),
		JWTSecret:         must("JWT_SECRET"),
		AdminPassHash:     must("ADMIN_PASSWORD_HASH"),
		CaptchaVerifyURL:  os.Getenv("CAPTCHA_VERIFY_URL"),
		CaptchaSecret:     os.Getenv("CAPTCHA_SECRET"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt64 is like must() but converts the retrieved string into an
// integer.  If conversion fails, the application logs a fatal error.
func mustInt64(key string) int64 {
	s := must(key)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
