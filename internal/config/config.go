package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`

	// AIProvider selects the completion backend: mock, openai or gemini.
	AIProvider     string        `mapstructure:"AI_PROVIDER"`
	AIBaseURL      string        `mapstructure:"AI_BASE_URL"`
	AIAPIKey       string        `mapstructure:"AI_API_KEY"`
	AIModel        string        `mapstructure:"AI_MODEL"`
	EmbeddingModel string        `mapstructure:"EMBEDDING_MODEL"`
	GeminiAPIKey   string        `mapstructure:"GEMINI_API_KEY"`
	AITimeout      time.Duration `mapstructure:"AI_TIMEOUT"`
	AICacheTTL     time.Duration `mapstructure:"AI_CACHE_TTL"`

	ConversationMaxEntries  int `mapstructure:"CONVERSATION_MAX_ENTRIES"`
	// ConversationContextSize is how many recent exchanges a chat prompt carries.
	ConversationContextSize int `mapstructure:"CONVERSATION_CONTEXT_SIZE"`
	QualityConcurrency      int `mapstructure:"QUALITY_CONCURRENCY"`
	KnowledgeTopK           int `mapstructure:"KNOWLEDGE_TOP_K"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("AI_PROVIDER", "mock")
	v.SetDefault("AI_BASE_URL", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("AI_CACHE_TTL", "60s")
	v.SetDefault("CONVERSATION_MAX_ENTRIES", 10)
	v.SetDefault("CONVERSATION_CONTEXT_SIZE", 5)
	v.SetDefault("QUALITY_CONCURRENCY", 4)
	v.SetDefault("KNOWLEDGE_TOP_K", 5)
}
