package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /books?page=
	rg.GET("/search", h.search) // GET /books/search?q=&page=
	rg.GET("/:id", h.getByID)   // GET /books/:id
}

func (h *Handler) list(c *gin.Context) {
	page := parseInt(c.Query("page"), 1)
	c.JSON(http.StatusOK, h.Service.ListCatalog(c.Request.Context(), page))
}

func (h *Handler) search(c *gin.Context) {
	page := parseInt(c.Query("page"), 1)
	c.JSON(http.StatusOK, h.Service.Search(c.Request.Context(), strings.TrimSpace(c.Query("q")), page))
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	d := h.Service.GetDetail(c.Request.Context(), id)
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
