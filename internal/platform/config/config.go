package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Client captures everything the SDK needs to talk to the backend.
// TaxRate is the checkout tax fraction; zero means tax-free, a negative
// value falls back to DefaultTaxRate.
type Client struct {
	BaseURL        string
	RequestTimeout time.Duration
	TaxRate        float64
	StatePath      string
	TokenFallback  string
	SignInPath     string
	AdminSignIn    string
}

// Defaults used when the environment does not override them.
var (
	DefaultRequestTimeout = 15 * time.Second
	DefaultTaxRate        = 0.10
)

// FromEnv builds a Client config from environment variables so main stays
// lean. A .env file in the working directory is honored when present.
func FromEnv() Client {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	baseURL := os.Getenv("SAVORA_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := DefaultRequestTimeout
	if raw := os.Getenv("SAVORA_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	taxRate := DefaultTaxRate
	if raw := os.Getenv("SAVORA_TAX_RATE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			taxRate = v
		}
	}

	statePath := os.Getenv("SAVORA_STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			statePath = home + "/.savora/state.json"
		} else {
			statePath = ".savora-state.json"
		}
	}

	fallback := os.Getenv("SAVORA_TOKEN_FALLBACK")
	if fallback == "" {
		fallback = "prefer_user"
	}

	return Client{
		BaseURL:        baseURL,
		RequestTimeout: timeout,
		TaxRate:        taxRate,
		StatePath:      statePath,
		TokenFallback:  fallback,
		SignInPath:     "/signin",
		AdminSignIn:    "/admin/signin",
	}
}

// Server configures the development backend binary.
type Server struct {
	Addr       string
	SigningKey string
	TokenTTL   time.Duration
	TaxRate    float64
	Seed       bool
}

// ServerFromEnv builds a Server config from environment variables.
func ServerFromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("SAVORA_MOCKAPI_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	key := os.Getenv("SAVORA_SIGNING_KEY")
	if key == "" {
		key = "mockapi-dev-key"
	}

	ttl := time.Hour
	if raw := os.Getenv("SAVORA_TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl = d
		}
	}

	taxRate := DefaultTaxRate
	if raw := os.Getenv("SAVORA_TAX_RATE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			taxRate = v
		}
	}

	seed := true
	if raw := os.Getenv("SAVORA_SEED"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			seed = v
		}
	}

	return Server{
		Addr:       addr,
		SigningKey: key,
		TokenTTL:   ttl,
		TaxRate:    taxRate,
		Seed:       seed,
	}
}
