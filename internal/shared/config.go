package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	UpstreamBase string
	UpstreamRPS  int

	ProcessorBase string
	ProcessorKey  string

	RedisAddr string
	RedisDB   int
	RedisPass string

	SearchTTL  time.Duration
	SessionTTL time.Duration

	IntentTimeout  time.Duration
	ConfirmTimeout time.Duration
	PersistTimeout time.Duration

	WarmWorkers      int
	WarmDestinations []string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ":9100"),
		UpstreamBase:     env("UPSTREAM_BASE_URL", "http://localhost:7000"),
		UpstreamRPS:      atoi("UPSTREAM_RPS", 20),
		ProcessorBase:    env("PROCESSOR_BASE_URL", "https://api.processor.example"),
		ProcessorKey:     env("PROCESSOR_SECRET_KEY", ""),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		SearchTTL:        secs("SEARCH_TTL_SECONDS", 120),
		SessionTTL:       secs("SESSION_TTL_SECONDS", 1800),
		IntentTimeout:    secs("INTENT_TIMEOUT_SECONDS", 15),
		ConfirmTimeout:   secs("CONFIRM_TIMEOUT_SECONDS", 30),
		PersistTimeout:   secs("PERSIST_TIMEOUT_SECONDS", 15),
		WarmWorkers:      atoi("WARM_WORKERS", 4),
		WarmDestinations: split(env("WARM_DESTINATIONS", "")),
	}
	if c.ProcessorKey == "" {
		log.Warn().Msg("PROCESSOR_SECRET_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
