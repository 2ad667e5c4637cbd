package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and
// costs, bools for opt-in switches.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBDriver       string // credential store backend: "sqlite", "postgres" or "mysql"
	DBDSN          string // data source name for the selected backend
	DBReset        bool   // when true the users table is dropped and recreated at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	PasswordScheme string // password hashing scheme: "bcrypt" (default) or "sha256"
	BcryptCost     int    // bcrypt cost for password hashing
	ModelPath      string // path to the serialized classifier model
	LabelsPath     string // path to the JSON class-index → label map
	GeminiAPIKey   string // API key for the generative-text endpoint
	GeminiModel    string // model name used to build the endpoint URL
	GeminiAPIURL   string // full endpoint URL override (optional, used in tests)
	RabbitURL      string // AMQP broker URL for analysis events (optional)
	ChatTTLMin     int    // chat history expiry in minutes
}

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is loaded first if present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine; real env vars win either way

	return Config{
		Env:            optional("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DBDriver:       must("DB_DRIVER"),
		DBDSN:          must("DB_DSN"),
		DBReset:        optionalBool("DB_RESET"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		PasswordScheme: optional("PASSWORD_SCHEME", "bcrypt"),
		BcryptCost:     optionalInt("BCRYPT_COST", 12),
		ModelPath:      must("MODEL_PATH"),
		LabelsPath:     must("LABELS_PATH"),
		GeminiAPIKey:   must("GEMINI_API_KEY"),
		GeminiModel:    optional("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		GeminiAPIURL:   os.Getenv("GEMINI_API_URL"),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		ChatTTLMin:     optionalInt("CHAT_TTL_MIN", 60),
	}
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// optional returns the value of an environment variable or the given default
// when the variable is unset or empty.
func optional(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optionalInt returns the integer value of an environment variable or the
// given default. A malformed value is treated the same as a missing one.
func optionalInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("ignoring invalid int for %s: %q", key, v)
	}
	return def
}

// optionalBool reports whether an opt-in switch is enabled. Only "true" and
// "1" count as enabled so destructive options stay off by default.
func optionalBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}
