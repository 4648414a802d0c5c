package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderMock   Provider = "mock"
)

type Config struct {
	Provider Provider `yaml:"provider"`

	Port string `yaml:"port"`

	// Model driving the conversation and model fabricating backend
	// responses. They may differ: the simulator works fine on a cheaper
	// model.
	ChatModel string `yaml:"chat_model"`
	SimModel  string `yaml:"sim_model"`

	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	OpenAIAPIKey string `yaml:"openai_api_key"`

	MaxRounds   int           `yaml:"max_rounds"`
	CallTimeout time.Duration `yaml:"call_timeout"`

	SessionIdleTTL  time.Duration `yaml:"session_idle_ttl"`
	SessionCapacity int           `yaml:"session_capacity"`

	// MockBackend selects the simulated ATS; when false, calls pass
	// through to GraphQLEndpoint.
	MockBackend        bool   `yaml:"mock_backend"`
	SimulateDelay      bool   `yaml:"simulate_delay"`
	GraphQLEndpoint    string `yaml:"graphql_endpoint"`
	GraphQLAdminSecret string `yaml:"graphql_admin_secret"`

	JWTSigningKey string `yaml:"jwt_signing_key"`

	AuditBackend string `yaml:"audit_backend"` // "slog", "sqlite" or "postgres"
	AuditDSN     string `yaml:"audit_dsn"`

	ArchiveBackend string `yaml:"archive_backend"` // "none" or "firestore"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s must be a duration, got %q", key, v)
	}
	return d
}

func defaults() *Config {
	return &Config{
		Provider:        ProviderMock,
		Port:            "8080",
		ChatModel:       "gemini-2.5-flash",
		SimModel:        "gemini-2.5-flash",
		GCPLocation:     "us-central1",
		MaxRounds:       4,
		CallTimeout:     45 * time.Second,
		SessionIdleTTL:  30 * time.Minute,
		SessionCapacity: 1024,
		MockBackend:     true,
		AuditBackend:    "slog",
		ArchiveBackend:  "none",
	}
}

// Load builds the config from an optional YAML file plus env vars. The
// file (RECRUITER_CONFIG_FILE) provides a base; env vars always win.
func Load() *Config {
	cfg := defaults()

	if path := getEnv("RECRUITER_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read config file: %v", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			log.Fatalf("parse config file: %v", err)
		}
	}

	cfg.Provider = Provider(getEnv("RECRUITER_PROVIDER", string(cfg.Provider)))

	cfg.Port = getEnv("RECRUITER_PORT", cfg.Port)

	cfg.ChatModel = getEnv("RECRUITER_CHAT_MODEL", cfg.ChatModel)
	cfg.SimModel = getEnv("RECRUITER_SIM_MODEL", cfg.SimModel)

	cfg.GCPProjectID = getEnv("RECRUITER_GCP_PROJECT", cfg.GCPProjectID)
	cfg.GCPLocation = getEnv("RECRUITER_GCP_LOCATION", cfg.GCPLocation)
	cfg.OpenAIAPIKey = getEnv("RECRUITER_OPENAI_API_KEY", cfg.OpenAIAPIKey)

	cfg.MaxRounds = getIntEnv("RECRUITER_MAX_ROUNDS", cfg.MaxRounds)
	cfg.CallTimeout = getDurationEnv("RECRUITER_CALL_TIMEOUT", cfg.CallTimeout)

	cfg.SessionIdleTTL = getDurationEnv("RECRUITER_SESSION_IDLE_TTL", cfg.SessionIdleTTL)
	cfg.SessionCapacity = getIntEnv("RECRUITER_SESSION_CAPACITY", cfg.SessionCapacity)

	cfg.MockBackend = getBoolEnv("RECRUITER_MOCK_BACKEND", cfg.MockBackend)
	cfg.SimulateDelay = getBoolEnv("RECRUITER_SIMULATE_DELAY", cfg.SimulateDelay)
	cfg.GraphQLEndpoint = getEnv("RECRUITER_GRAPHQL_ENDPOINT", cfg.GraphQLEndpoint)
	cfg.GraphQLAdminSecret = getEnv("RECRUITER_GRAPHQL_ADMIN_SECRET", cfg.GraphQLAdminSecret)

	cfg.JWTSigningKey = getEnv("RECRUITER_JWT_SIGNING_KEY", cfg.JWTSigningKey)

	cfg.AuditBackend = getEnv("RECRUITER_AUDIT_BACKEND", cfg.AuditBackend)
	cfg.AuditDSN = getEnv("RECRUITER_AUDIT_DSN", cfg.AuditDSN)

	cfg.ArchiveBackend = getEnv("RECRUITER_ARCHIVE_BACKEND", cfg.ArchiveBackend)

	// Minimal validation per provider.
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GCPProjectID == "" {
			log.Fatal("RECRUITER_GCP_PROJECT must be set with the gemini provider")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("RECRUITER_OPENAI_API_KEY must be set with the openai provider")
		}
	}
	if !cfg.MockBackend && cfg.GraphQLEndpoint == "" {
		log.Fatal("RECRUITER_GRAPHQL_ENDPOINT must be set when mock_backend is disabled")
	}

	return cfg
}
