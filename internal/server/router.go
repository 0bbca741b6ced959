package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/terrainnova-ai/server/internal/chat"
	"github.com/terrainnova-ai/server/internal/documents"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/internal/whatsapp"
)

const (
	serviceName    = "TerraInnova AI Chatbot Microservice"
	serviceVersion = "1.0.0"
)

type ChatService interface {
	Reply(ctx context.Context, userID, message string) (*chat.Reply, error)
	Context(ctx context.Context, userID string) []model.Turn
	ClearContext(ctx context.Context, userID string) error
	HandleWebhook(ctx context.Context, body []byte) (*chat.WebhookResult, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]model.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type DocumentService interface {
	Ingest(ctx context.Context, req documents.IngestRequest) (*documents.IngestResult, error)
	Search(ctx context.Context, query string, topK int) ([]model.SearchResult, error)
	ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error)
	DeleteDocument(ctx context.Context, docID string) (int64, error)
}

type Messenger interface {
	IsConfigured() bool
	VerifyToken() string
	AppSecret() string
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResult, error)
	SendMedia(ctx context.Context, to, mediaType, link, caption string) (*whatsapp.SendResult, error)
}

type HealthChecker interface {
	Check(ctx context.Context) model.HealthReport
}

// Deps are the services the router exposes.
type Deps struct {
	Chat      ChatService
	Catalog   CatalogService
	Documents DocumentService
	Messenger Messenger
	Health    HealthChecker
	// MaxUploadBytes caps PDF uploads.
	MaxUploadBytes int64
}

type handler struct {
	Deps
}

// NewRouter wires every route onto a gin engine.
func NewRouter(deps Deps) *gin.Engine {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 10 << 20
	}
	h := &handler{Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())
	r.MaxMultipartMemory = deps.MaxUploadBytes

	r.GET("/", h.root)
	r.GET("/health", h.health)

	r.POST("/chat", h.chat)
	r.GET("/chat/:user_id/context", h.getContext)
	r.DELETE("/chat/:user_id/context", h.clearContext)

	r.GET("/productos", h.listProducts)
	r.GET("/productos/buscar", h.searchProducts)
	r.GET("/productos/:id", h.productByID)
	r.GET("/categorias", h.listCategories)
	r.GET("/categorias/:id/productos", h.productsByCategory)

	r.POST("/upload-pdf", h.uploadPDF)
	r.POST("/search-documents", h.searchDocuments)
	r.GET("/documents/:user_id", h.listDocuments)
	r.DELETE("/documents/:doc_id", h.deleteDocument)

	r.GET("/webhook", h.verifyWebhook)
	r.POST("/webhook", h.receiveWebhook)
	r.POST("/whatsapp/send-message", h.sendMessage)
	r.POST("/whatsapp/send-media", h.sendMedia)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  serviceName,
		"version":  serviceVersion,
		"status":   "running",
		"features": []string{"chat", "pdf_processing", "semantic_search", "whatsapp_webhook", "catalog"},
	})
}

func (h *handler) health(c *gin.Context) {
	report := h.Health.Check(c.Request.Context())
	status := http.StatusOK
	if report.Status == model.CompositeUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    report.Status,
		"services":  report.Services,
		"timestamp": report.CheckedAt.Format(time.RFC3339),
	})
}
