package model

import "time"

// ================ Config ================
type ServerConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	Host        string `envconfig:"HOST" default:"0.0.0.0"`
	Port        int    `envconfig:"PORT" default:"3000"`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type ConversationConfig struct {
	TTL         time.Duration `envconfig:"CONVERSATION_TTL" default:"168h"`
	MaxTurns    int           `envconfig:"CONTEXT_MAX_TURNS" default:"20"`
	PromptTurns int           `envconfig:"CONVERSATION_PROMPT_TURNS" default:"10"`
}

type GeminiConfig struct {
	APIKey         string        `envconfig:"GEMINI_API_KEY"`
	BaseURL        string        `envconfig:"GEMINI_BASE_URL"`
	Model          string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"GEMINI_MAX_TOKENS" default:"1000"`
	Temperature    float32       `envconfig:"GEMINI_TEMPERATURE" default:"0.7"`
	Timeout        time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`
	EmbeddingModel string        `envconfig:"GEMINI_EMBEDDING_MODEL" default:"text-embedding-004"`
	EmbeddingDims  int           `envconfig:"GEMINI_EMBEDDING_DIMS" default:"768"`
	// EmbeddingMaxChars truncates each input before embedding.
	EmbeddingMaxChars int `envconfig:"GEMINI_EMBEDDING_MAX_CHARS" default:"8192"`
}

// IsConfigured reports whether an API key is present.
func (c GeminiConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type PromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"TerraINNOVA"`
	Location     string `envconfig:"PROMPT_BUSINESS_LOCATION" default:"Santa Cruz de la Sierra, Bolivia"`
	Contact      string `envconfig:"PROMPT_BUSINESS_CONTACT" default:"terrainnova@gmail.com"`
	Currency     string `envconfig:"PROMPT_CURRENCY" default:"Bs"`
}

type WhatsAppConfig struct {
	AccessToken   string        `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string        `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken   string        `envconfig:"WHATSAPP_VERIFY_TOKEN"`
	AppSecret     string        `envconfig:"WHATSAPP_APP_SECRET"`
	BaseURL       string        `envconfig:"WHATSAPP_API_URL" default:"https://graph.facebook.com"`
	APIVersion    string        `envconfig:"WHATSAPP_API_VERSION" default:"v18.0"`
	Timeout       time.Duration `envconfig:"WHATSAPP_TIMEOUT" default:"15s"`
	// ReplyTimeout bounds the background work answering one webhook delivery.
	ReplyTimeout time.Duration `envconfig:"WHATSAPP_REPLY_TIMEOUT" default:"60s"`
}

// IsConfigured reports whether outbound messaging can be used.
func (c WhatsAppConfig) IsConfigured() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.VerifyToken != ""
}

type VectorConfig struct {
	// DatabaseURL points at a PostgreSQL instance with the pgvector extension.
	DatabaseURL    string  `envconfig:"VECTOR_DATABASE_URL"`
	Table          string  `envconfig:"VECTOR_TABLE" default:"document_chunks"`
	Dimensions     int     `envconfig:"VECTOR_SIZE" default:"768"`
	ScoreThreshold float64 `envconfig:"VECTOR_SCORE_THRESHOLD" default:"0.7"`
}

// IsConfigured reports whether a vector database URL is present.
func (c VectorConfig) IsConfigured() bool {
	return c.DatabaseURL != ""
}

type DocumentConfig struct {
	ChunkSize   int `envconfig:"DOCUMENT_CHUNK_SIZE" default:"1000"`
	MaxUploadMB int `envconfig:"DOCUMENT_MAX_UPLOAD_MB" default:"10"`
	DefaultTopK int `envconfig:"DOCUMENT_DEFAULT_TOP_K" default:"3"`
	MaxTopK     int `envconfig:"DOCUMENT_MAX_TOP_K" default:"20"`
}

type HealthConfig struct {
	ProbeTimeout time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"2s"`
	// ActiveProbes makes model and messaging ping their APIs instead of
	// reporting "configured".
	ActiveProbes bool `envconfig:"HEALTH_ACTIVE_PROBES" default:"false"`
}
