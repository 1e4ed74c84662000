// Package api wires the HTTP surface: catalog reads, authenticated
// ingestion, watcher websockets and health probes.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"bookhub/internal/auth"
	"bookhub/internal/books"
	"bookhub/internal/catalog"
	"bookhub/internal/events"
	"bookhub/internal/ingest"
	"bookhub/pkg/models"
)

// maxIngestBody bounds a POST /ingest payload.
const maxIngestBody = 64 << 20

type Deps struct {
	Store    books.Store
	Catalog  *catalog.Service
	Pipeline *ingest.Pipeline
	Hub      *events.Hub
	Tokens   auth.TokenService
	// Driver is reported by /health.
	Driver string
}

type Server struct {
	deps     Deps
	ingestMu sync.Mutex
}

func NewRouter(deps Deps) *gin.Engine {
	s := &Server{deps: deps}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logging())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", s.health)
	router.GET("/ready", s.ready)
	if deps.Hub != nil {
		router.GET("/ws", events.WSHandler(deps.Hub))
	}

	catalog.NewHandler(deps.Catalog).RegisterRoutes(router.Group("/books"))
	router.POST("/ingest", auth.RequireScope(deps.Tokens, auth.ScopeIngest), s.ingest)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": s.deps.Driver})
}

func (s *Server) ready(c *gin.Context) {
	var stats events.Stats
	if s.deps.Hub != nil {
		stats = s.deps.Hub.Stats()
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "not_ready",
			"db_error":    err.Error(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"db":          "ok",
		"tcp_clients": stats.TCPClients,
		"ws_clients":  stats.WSClients,
	})
}

// ingest runs one batch. Only one batch runs at a time; a second
// request while one is in flight gets 409.
func (s *Server) ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBody)

	var listings []models.Listing
	if err := c.ShouldBindJSON(&listings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of listings"})
		return
	}

	if !s.ingestMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "ingestion already running"})
		return
	}
	defer s.ingestMu.Unlock()

	stats, err := s.deps.Pipeline.Run(c.Request.Context(), listings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "ingestion failed, nothing was saved",
			"request_id": RequestIDFrom(c),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":      stats,
		"subject":    auth.MustGetClaims(c).Subject,
		"request_id": RequestIDFrom(c),
	})
}
