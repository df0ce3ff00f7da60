package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the Compass server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Vector    VectorConfig
	AI        AIConfig
	Blueprint BlueprintConfig
	Scraper   ScraperConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
	Concierge ConciergeConfig
	Notify    NotifyConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel slog.Level
	BaseURL  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

type VectorConfig struct {
	Host                string
	Port                int
	Scheme              string
	APIKey              string
	Timeout             time.Duration
	AgencyCollection    string
	ProjectCollection   string
	SimilarityThreshold float64
	MatchStrategy       string // "vector" or "static"
	MatchCandidates     int
	SyncOnStartup       bool
	BatchSize           int
}

// BaseURL returns the ChromaDB REST root, e.g. http://localhost:8000/api/v1.
func (v VectorConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d/api/v1", v.Scheme, v.Host, v.Port)
}

type AIConfig struct {
	Provider          string
	EmbeddingProvider string
	InferenceTimeout  time.Duration
	RequestsPerSecond float64
	Burst             int
	Gemini            GeminiConfig
	Ollama            OllamaConfig
	VLLM              VLLMConfig
	OpenAI            OpenAIConfig
	Anthropic         AnthropicConfig
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// BlueprintConfig controls where generated blueprints are kept and for how long.
type BlueprintConfig struct {
	Store      string // "redis" or "memory"
	TTL        time.Duration
	MaxEntries int
}

type ScraperConfig struct {
	Timeout   time.Duration
	Attempts  int
	RetryWait time.Duration
	UserAgent string
	MaxChars  int

	// AllowPrivate permits loopback, private and link-local targets.
	AllowPrivate bool
}

type RenderConfig struct {
	ConverterPath string
	Timeout       time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

// ConciergeConfig sets where booked concierge sessions are scheduled.
type ConciergeConfig struct {
	CalendarBase string
}

// NotifyConfig selects how the team hears about matchmaking and concierge requests.
type NotifyConfig struct {
	Channel    string // "log" or "ses"
	SESRegion  string
	FromEmail  string
	TeamEmails []string
}

var validProviders = map[string]bool{
	"gemini":    true,
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
	"offline":   true,
}

var validBlueprintStores = map[string]bool{
	"redis":  true,
	"memory": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	provider := envString("AI_PROVIDER", "gemini")
	cfg := &Config{
		Server: ServerConfig{
			Port:     envInt("COMPASS_PORT", 8080),
			Env:      envString("COMPASS_ENV", "development"),
			LogLevel: envLogLevel("LOG_LEVEL", slog.LevelInfo),
			BaseURL:  strings.TrimRight(envString("COMPASS_BASE_URL", ""), "/"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Vector: VectorConfig{
			Host:                envString("CHROMA_HOST", "localhost"),
			Port:                envInt("CHROMA_PORT", 8000),
			Scheme:              envString("CHROMA_SCHEME", "http"),
			APIKey:              os.Getenv("CHROMA_API_KEY"),
			Timeout:             envDuration("CHROMA_TIMEOUT", 10*time.Second),
			AgencyCollection:    envString("CHROMA_AGENCY_COLLECTION", "agencies"),
			ProjectCollection:   envString("CHROMA_PROJECT_COLLECTION", "projects"),
			SimilarityThreshold: envFloat("MATCH_SIMILARITY_THRESHOLD", 0.05),
			MatchStrategy:       envString("MATCH_STRATEGY", "vector"),
			MatchCandidates:     envInt("MATCH_CANDIDATES", 10),
			SyncOnStartup:       envBool("VECTOR_SYNC_ON_STARTUP", true),
			BatchSize:           envInt("VECTOR_SYNC_BATCH_SIZE", 50),
		},
		AI: AIConfig{
			Provider:          provider,
			EmbeddingProvider: envString("AI_EMBEDDING_PROVIDER", provider),
			InferenceTimeout:  envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			RequestsPerSecond: envFloat("AI_REQUESTS_PER_SECOND", 2),
			Burst:             envInt("AI_BURST", 4),
			Gemini: GeminiConfig{
				APIKey:         os.Getenv("GEMINI_API_KEY"),
				Model:          envString("GEMINI_MODEL", "gemini-1.5-flash"),
				EmbeddingModel: envString("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000/v1"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey:         os.Getenv("OPENAI_API_KEY"),
				Model:          envString("OPENAI_MODEL", "gpt-4o-mini"),
				EmbeddingModel: envString("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
				BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Blueprint: BlueprintConfig{
			Store:      envString("BLUEPRINT_STORE", "redis"),
			TTL:        envDuration("BLUEPRINT_TTL", 24*time.Hour),
			MaxEntries: envInt("BLUEPRINT_MAX_ENTRIES", 1000),
		},
		Scraper: ScraperConfig{
			Timeout:   envDurationSecs("SCRAPER_TIMEOUT_SECS", 60*time.Second),
			Attempts:  envInt("SCRAPER_ATTEMPTS", 2),
			RetryWait: envDuration("SCRAPER_RETRY_WAIT", 2*time.Second),
			UserAgent: envString("SCRAPER_USER_AGENT", "Compass-ProposalBot/1.0"),
			MaxChars:  envInt("SCRAPER_MAX_CHARS", 8000),

			AllowPrivate: envBool("SCRAPER_ALLOW_PRIVATE", false),
		},
		Render: RenderConfig{
			ConverterPath: envString("PDF_CONVERTER_PATH", "wkhtmltopdf"),
			Timeout:       envDurationSecs("PDF_TIMEOUT_SECS", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Concierge: ConciergeConfig{
			CalendarBase: envString("CONCIERGE_CALENDAR_URL", "https://calendly.com/compass-concierge/"),
		},
		Notify: NotifyConfig{
			Channel:    envString("NOTIFY_CHANNEL", "log"),
			SESRegion:  envString("AWS_REGION", "me-central-1"),
			FromEmail:  envString("NOTIFY_FROM_EMAIL", ""),
			TeamEmails: envList("NOTIFY_TEAM_EMAILS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Vector.Scheme != "http" && c.Vector.Scheme != "https" {
		return fmt.Errorf("CHROMA_SCHEME must be http or https, got %q", c.Vector.Scheme)
	}
	if c.Vector.SimilarityThreshold < 0 || c.Vector.SimilarityThreshold >= 1 {
		return fmt.Errorf("MATCH_SIMILARITY_THRESHOLD must be in [0,1), got %v", c.Vector.SimilarityThreshold)
	}

	if c.Vector.MatchStrategy != "vector" && c.Vector.MatchStrategy != "static" {
		return fmt.Errorf("MATCH_STRATEGY must be vector or static, got %q", c.Vector.MatchStrategy)
	}
	if c.Vector.MatchCandidates < 1 {
		return fmt.Errorf("MATCH_CANDIDATES must be at least 1")
	}

	for _, p := range []struct{ env, name string }{
		{"AI_PROVIDER", c.AI.Provider},
		{"AI_EMBEDDING_PROVIDER", c.AI.EmbeddingProvider},
	} {
		if !validProviders[p.name] {
			return fmt.Errorf("%s must be one of gemini, ollama, vllm, openai, anthropic, offline; got %q", p.env, p.name)
		}
	}
	if c.AI.EmbeddingProvider == "anthropic" {
		return fmt.Errorf("AI_EMBEDDING_PROVIDER cannot be anthropic: embeddings are not supported")
	}

	uses := map[string]bool{c.AI.Provider: true, c.AI.EmbeddingProvider: true}
	if uses["gemini"] && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when gemini is selected")
	}
	if uses["openai"] && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when openai is selected")
	}
	if uses["anthropic"] && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}
	if uses["vllm"] && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when vllm is selected")
	}

	if !validBlueprintStores[c.Blueprint.Store] {
		return fmt.Errorf("BLUEPRINT_STORE must be one of redis, memory; got %q", c.Blueprint.Store)
	}
	if c.Blueprint.TTL <= 0 {
		return fmt.Errorf("BLUEPRINT_TTL must be positive")
	}

	switch c.Notify.Channel {
	case "log":
	case "ses":
		if c.Notify.FromEmail == "" || len(c.Notify.TeamEmails) == 0 {
			return fmt.Errorf("NOTIFY_FROM_EMAIL and NOTIFY_TEAM_EMAILS are required when NOTIFY_CHANNEL is ses")
		}
	default:
		return fmt.Errorf("NOTIFY_CHANNEL must be one of log, ses; got %q", c.Notify.Channel)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
