package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"researchpilot/config"
	"researchpilot/models"
	"researchpilot/providers"
	"researchpilot/providers/arxiv"
	"researchpilot/services"
	"researchpilot/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	papersSavedCounter prometheus.Counter
	searchesCounter    prometheus.Counter
)

func init() {
	papersSavedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_saved_total",
			Help: "Total number of papers saved to the library.",
		},
	)
	searchesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_searches_total",
			Help: "Total number of paper searches issued against the external source.",
		},
	)
	prometheus.MustRegister(papersSavedCounter, searchesCounter)
}

// bearerAuthMiddleware extrahiert die Owner-Identität aus einem opaken Bearer
// Token. Das Token wird nur auf Anwesenheit geprüft (keine Signatur) und dient
// selbst als Owner-ID für alle library-bezogenen Operationen.
func bearerAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing bearer token"})
			return
		}
		c.Set("owner_id", token)
		c.Next()
	}
}

// ownerID liest die vom Auth-Middleware hinterlegte Identität.
func ownerID(c *gin.Context) string {
	return c.GetString("owner_id")
}

// statusForError mappt die Fehlertaxonomie der Komponenten auf HTTP-Status.
// Rohe Netzwerkfehler erreichen den Client nie ungeformt.
func statusForError(err error) int {
	switch {
	case errors.Is(err, providers.ErrSourceTimeout), errors.Is(err, services.ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, providers.ErrSourceUnavailable), errors.Is(err, services.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Unbekannte JSON-Felder in Request-Bodies ablehnen statt durchreichen.
	binding.EnableDecoderDisallowUnknownFields = true

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to papers database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Paper{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Services
	store := storage.NewPaperStore(db)
	provider := arxiv.NewFetcher(cfg, logging)
	normalizer := services.NewFeedNormalizer(logging)
	gateway := services.NewGeminiGateway(cfg, logging)
	assistant := services.NewAssistant(gateway, logging, &cfg.GeminiTemperature)

	var s3Client *s3.Client
	if cfg.S3Enabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		logging.Info("PDF archive enabled", zap.String("bucket", cfg.S3Bucket))
	} else {
		logging.Info("PDF archive disabled (no S3 configuration)")
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupSearchRoutes(router, provider, normalizer, cfg.ArxivMaxResults, logging)
	setupPaperRoutes(router, store, s3Client, cfg, logging)
	setupAIRoutes(router, assistant, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// setupSearchRoutes konfiguriert die Paper-Suche gegen die externe Quelle.
func setupSearchRoutes(router *gin.Engine, provider providers.Provider, normalizer *services.FeedNormalizer, maxResults int, log *zap.Logger) {
	router.POST("/papers/search", func(c *gin.Context) {
		var req struct {
			Query string `json:"query"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query required"})
			return
		}

		searchesCounter.Inc()
		feed, err := provider.Search(c.Request.Context(), req.Query, maxResults)
		if err != nil {
			log.Error("Paper source search failed", zap.String("query", req.Query), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Paper search failed"})
			return
		}

		papers := normalizer.Normalize(feed, maxResults)
		c.JSON(http.StatusOK, papers)
	})
}

// setupPaperRoutes konfiguriert Library- und Upload-Endpunkte.
func setupPaperRoutes(router *gin.Engine, store *storage.PaperStore, s3Client *s3.Client, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/papers")

	authed := rg.Group("")
	authed.Use(bearerAuthMiddleware())

	authed.POST("/save", func(c *gin.Context) {
		var req struct {
			SourceID      string   `json:"id"`
			Title         string   `json:"title"`
			Summary       string   `json:"summary"`
			Authors       []string `json:"authors"`
			PublishedDate string   `json:"publishedDate"`
			Link          string   `json:"link"`
			Source        string   `json:"source"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if strings.TrimSpace(req.Link) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Link required"})
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			req.Title = services.UntitledPaper
		}

		paper := &models.Paper{
			SourceID:      req.SourceID,
			Title:         req.Title,
			Summary:       req.Summary,
			Authors:       services.MarshalAuthors(req.Authors),
			PublishedDate: req.PublishedDate,
			Link:          req.Link,
			Source:        req.Source,
		}

		stored, err := store.Save(c.Request.Context(), paper, ownerID(c))
		if err != nil {
			log.Error("Failed to save paper", zap.String("link", req.Link), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Failed to save paper"})
			return
		}

		papersSavedCounter.Inc()
		c.JSON(http.StatusCreated, stored)
	})

	authed.GET("/saved", func(c *gin.Context) {
		papers, err := store.ListByOwner(c.Request.Context(), ownerID(c))
		if err != nil {
			log.Error("Failed to list saved papers", zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Failed to load saved papers"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	authed.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := store.DeleteByID(c.Request.Context(), id, ownerID(c)); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Paper not found"})
				return
			}
			log.Error("Failed to delete paper", zap.String("id", id), zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Failed to delete paper"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	rg.POST("/upload", func(c *gin.Context) {
		fileHeader, err := c.FormFile("pdf")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		if fileHeader.Size > cfg.UploadMaxBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error("Failed to read uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			return
		}

		text, err := services.ExtractPDFText(data)
		if err != nil {
			log.Error("PDF text extraction failed", zap.String("filename", fileHeader.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
			return
		}

		resp := gin.H{
			"message":     "PDF uploaded successfully",
			"textPreview": services.TextPreview(text, 500),
		}

		// Original optional im Archiv ablegen; ein Archiv-Fehler macht den
		// Upload nicht kaputt.
		if s3Client != nil {
			key := fmt.Sprintf("uploads/%s-%s", time.Now().UTC().Format("20060102T150405"), fileHeader.Filename)
			link, err := storage.UploadPDF(c.Request.Context(), s3Client, cfg, key, data)
			if err != nil {
				log.Warn("PDF archive upload failed", zap.String("key", key), zap.Error(err))
			} else {
				resp["archiveUrl"] = link
			}
		}

		c.JSON(http.StatusOK, resp)
	})
}

// setupAIRoutes konfiguriert die drei Assistant-Endpunkte.
func setupAIRoutes(router *gin.Engine, assistant *services.Assistant, log *zap.Logger) {
	rg := router.Group("/ai")

	rg.POST("/summarize", func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Text required"})
			return
		}

		summary, err := assistant.Summarize(c.Request.Context(), req.Text)
		if err != nil {
			log.Error("Summarize failed", zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Summary failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	})

	rg.POST("/ask", func(c *gin.Context) {
		var req struct {
			PaperText string `json:"paperText"`
			Question  string `json:"question"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.PaperText == "" || strings.TrimSpace(req.Question) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paper text and question required"})
			return
		}

		answer, err := assistant.Ask(c.Request.Context(), req.PaperText, req.Question)
		if err != nil {
			log.Error("Paper Q&A failed", zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Q&A failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	})

	rg.POST("/agent", func(c *gin.Context) {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message required"})
			return
		}

		response, err := assistant.Agent(c.Request.Context(), req.Message)
		if err != nil {
			log.Error("Agent request failed", zap.Error(err))
			c.JSON(statusForError(err), gin.H{"error": "Agent failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": response})
	})
}
