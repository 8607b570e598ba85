package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable read once at startup; there is no hot
// reload. The signing secret and TTLs are injected into handlers and
// middleware at construction so tests can supply their own values.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	JWTSecret         string // secret used to sign session JWTs (HS256)
	SessionTTLHours   int    // session token time-to-live in hours
	AuthCodeTTLMin    int    // authorization code time-to-live in minutes
	BcryptCost        int    // bcrypt cost for password hashing
	IssuerURL         string // external base URL used in the OAuth metadata document
	SessionCookieName string // name of the session cookie
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message;
// the TTLs and cookie name have conventional defaults.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		JWTSecret:         must("JWT_SECRET"),
		SessionTTLHours:   intOr("SESSION_TTL_HOURS", 24),
		AuthCodeTTLMin:    intOr("AUTH_CODE_TTL_MIN", 10),
		BcryptCost:        mustInt("BCRYPT_COST"),
		IssuerURL:         must("ISSUER_URL"),
		SessionCookieName: strOr("SESSION_COOKIE_NAME", "session_token"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer. If conversion fails, the application logs a fatal error and
// exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// strOr returns the value of an optional environment variable, or the
// default when unset or empty.
func strOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intOr is like strOr for integer variables; unparsable values fall
// back to the default.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
