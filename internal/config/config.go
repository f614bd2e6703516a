// Package config reads the service configuration from the environment.
// It is the only place that looks at environment variables, apart from the
// env-backed secret getter.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Memory backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port        string
	VerifyToken string
	PhoneID     string
	BotName     string
	// ParamPrefix selects SSM-held secrets; empty means env-held secrets.
	ParamPrefix string

	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string

	FreightMode      string
	FreightTableJSON string
	BlingBaseURL     string

	OpenAIModel string

	MemoryBackend          string
	MemoryMaxConversations int
	MemoryMaxUtterances    int
	MemoryIdleTTL          time.Duration
	RedisURL               string
	StateTable             string

	ExternalTimeout time.Duration
	UnitPrice       float64
	DefaultProduct  string
}

// LoadDotEnv loads .env into the process environment when the file exists.
// Variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads Config through lookup, usually os.LookupEnv.
func Load(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	c := Config{
		Port:        e.str("PORT", "3000"),
		VerifyToken: e.str("VERIFY_TOKEN", "verify_token_demo"),
		PhoneID:     e.str("WHATS_PHONE_ID", ""),
		BotName:     e.str("BOT_NAME", "Megan"),
		ParamPrefix: strings.TrimRight(e.str("PARAM_PREFIX", ""), "/"),

		SuccessURL:      e.str("MP_SUCCESS_URL", "https://example.com/sucesso"),
		FailureURL:      e.str("MP_FAILURE_URL", "https://example.com/erro"),
		PendingURL:      e.str("MP_PENDING_URL", ""),
		NotificationURL: e.str("MP_NOTIFICATION_URL", ""),

		FreightMode:      e.str("FREIGHT_MODE", "tabela"),
		FreightTableJSON: e.str("FREIGHT_TABLE_JSON", ""),
		BlingBaseURL:     e.str("BLING_BASE_URL", ""),

		OpenAIModel: e.str("OPENAI_MODEL", ""),

		MemoryBackend:          strings.ToLower(e.str("MEMORY_BACKEND", BackendMemory)),
		MemoryMaxConversations: e.integer("MEMORY_MAX_CONVERSATIONS", 1000),
		MemoryMaxUtterances:    e.integer("MEMORY_MAX_UTTERANCES", 40),
		MemoryIdleTTL:          e.duration("MEMORY_IDLE_TTL", 24*time.Hour),
		RedisURL:               e.str("REDIS_URL", ""),
		StateTable:             e.str("STATE_TABLE", ""),

		ExternalTimeout: e.duration("EXTERNAL_TIMEOUT", 8*time.Second),
		UnitPrice:       e.float("UNIT_PRICE", 397),
		DefaultProduct:  e.str("DEFAULT_PRODUCT", ""),
	}
	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch c.MemoryBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required for the redis memory backend")
		}
	case BackendDynamoDB:
		if c.StateTable == "" {
			return errors.New("config: STATE_TABLE is required for the dynamodb memory backend")
		}
	default:
		return fmt.Errorf("config: unknown MEMORY_BACKEND %q", c.MemoryBackend)
	}
	if c.UnitPrice < 0 {
		return errors.New("config: UNIT_PRICE must not be negative")
	}
	return nil
}

// env collects parse errors so every bad variable is reported at once.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return def
	}
	return v
}

func (e *env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %q is not a finite number", key, v))
		return def
	}
	return f
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}
