package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// LLM provider: "openai" (default) or "google".
	LLMProvider           string
	OpenAIAPIKey          string
	GeminiAPIKey          string
	ChatModel             string
	GoogleChatModel       string
	EmbeddingsModel       string
	GoogleEmbeddingsModel string
	Temperature           float64
	AnswerTokens          int
	AnalysisTokens        int

	// Retrieval
	TopK         int
	MaxChunkSize int
	ChunkOverlap int

	// Embedding cache
	CacheBackend    string // "disk" (default) or "redis"
	CacheDir        string
	CacheVersionTag string
	CacheTTLDays    int

	// Redis (cache backend)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Mongo history store (optional; disabled when URI is empty)
	MongoURI string
	DBName   string

	// OCR
	OCREngine     string // "tesseract" (default) or "remote"
	OCRServiceURL string
	OCRLanguages  string
	OCRDpi        int

	// Evaluation strategy: "heuristic" (default) or "llm"
	EvalStrategy string

	// Networking
	FetchTimeoutSecs int
	MaxFileSize      int64

	// Embedding retry policy
	EmbedMaxAttempts int
	EmbedMemoSize    int

	// Telemetry
	OTELEnabled  bool
	OTELEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		LLMProvider:           getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		ChatModel:             getEnv("CHAT_MODEL", "gpt-4o"),
		GoogleChatModel:       getEnv("GOOGLE_CHAT_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel:       getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		Temperature:           getEnvFloat64("TEMPERATURE", 0.3),
		AnswerTokens:          getEnvInt("ANSWER_MAX_TOKENS", 700),
		AnalysisTokens:        getEnvInt("ANALYSIS_MAX_TOKENS", 1500),

		TopK:         getEnvInt("TOP_K", 7),
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		CacheBackend:    getEnv("CACHE_BACKEND", "disk"),
		CacheDir:        getEnv("CACHE_DIR", "embeddings"),
		CacheVersionTag: getEnv("CACHE_VERSION_TAG", "v2"),
		CacheTTLDays:    getEnvInt("CACHE_TTL_DAYS", 30),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", ""),
		DBName:   getEnv("DB_NAME", "rapportanalys"),

		OCREngine:     getEnv("OCR_ENGINE", "tesseract"),
		OCRServiceURL: getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRLanguages:  getEnv("OCR_LANGUAGES", "swe+eng"),
		OCRDpi:        getEnvInt("OCR_DPI", 300),

		EvalStrategy: getEnv("EVAL_STRATEGY", "heuristic"),

		FetchTimeoutSecs: getEnvInt("FETCH_TIMEOUT", 10),
		MaxFileSize:      getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB

		EmbedMaxAttempts: getEnvInt("EMBED_MAX_ATTEMPTS", 6),
		EmbedMemoSize:    getEnvInt("EMBED_MEMO_SIZE", 512),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required - set it in .env file")
		}
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}

	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, MAX_CHUNK_SIZE)")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
