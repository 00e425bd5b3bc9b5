package shared

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mutation policies for the routes that write state without naming an
// administrator: tool availability, order create/cancel, review create.
const (
	MutationPolicyPublic        = "public"
	MutationPolicyAuthenticated = "authenticated"
)

// StoreConfig selects and addresses the document store. It is all the
// store tooling needs.
type StoreConfig struct {
	StoreDriver   string // mongo | sqlite | postgres | memory
	StoreURI      string
	StoreDatabase string
}

type ServerConfig struct {
	StoreConfig
	Addr           string
	TokenSecret    string
	TokenTTL       time.Duration
	StripeKey      string
	AMQPURL        string
	EventsQueue    string
	MutationPolicy string
	LogLevel       string
	CORSOrigins    []string
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadStoreConfig reads only the STORE_* settings, applying .env first.
func LoadStoreConfig() (*StoreConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return storeConfigFromEnv()
}

func storeConfigFromEnv() (*StoreConfig, error) {
	c := &StoreConfig{
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		StoreURI:      os.Getenv("STORE_URI"),
		StoreDatabase: getEnv("STORE_DATABASE", "power-tools"),
	}
	if c.StoreURI == "" {
		switch c.StoreDriver {
		case "sqlite":
			c.StoreURI = "./data/power-tools.db"
		case "mongo":
			c.StoreURI = "mongodb://localhost:27017"
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *StoreConfig) validate() error {
	switch c.StoreDriver {
	case "mongo", "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreDriver == "postgres" && c.StoreURI == "" {
		return errors.New("STORE_URI is required for postgres")
	}
	return nil
}

// LoadServerConfig reads the process environment once. A .env file in the
// working directory is applied first if present; real env vars win.
func LoadServerConfig() (*ServerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	sc, err := storeConfigFromEnv()
	if err != nil {
		return nil, err
	}

	c := &ServerConfig{
		StoreConfig:    *sc,
		Addr:           ":" + getEnv("PORT", "5000"),
		TokenSecret:    os.Getenv("ACCESS_TOKEN_SECRET"),
		StripeKey:      os.Getenv("STRIPE_SECRET_KEY"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		EventsQueue:    getEnv("EVENTS_QUEUE", "power_tools_events"),
		MutationPolicy: strings.ToLower(getEnv("MUTATION_POLICY", MutationPolicyPublic)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	c.TokenTTL = ttl

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ServerConfig) validate() error {
	if c.TokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.MutationPolicy {
	case MutationPolicyPublic, MutationPolicyAuthenticated:
	default:
		return fmt.Errorf("unknown MUTATION_POLICY %q", c.MutationPolicy)
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
