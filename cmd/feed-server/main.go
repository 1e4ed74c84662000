package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"bookhub/internal/api"
	"bookhub/internal/feed"
	"bookhub/internal/obs"
)

func main() {
	dir := flag.String("dir", "data/feeds", "directory of scraper output files (.json, .csv)")
	addr := flag.String("addr", ":9000", "listen address")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := obs.InitLogger(*level)
	gin.SetMode(gin.ReleaseMode)

	logger.Info("feed-server listening", "addr", *addr, "dir", *dir)
	if err := http.ListenAndServe(*addr, newRouter(*dir)); err != nil {
		logger.Error("feed-server stopped", "err", err)
		os.Exit(1)
	}
}

// newRouter serves every feed file in dir as a JSON listing array, so
// `bookhub import http://host/feeds/<name>` can pull it.
func newRouter(dir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestID(), api.Logging())

	r.GET("/feeds", func(c *gin.Context) {
		names, err := listFeeds(dir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list feeds"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"feeds": names})
	})

	r.GET("/feeds/:name", func(c *gin.Context) {
		name := c.Param("name")
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed name"})
			return
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
			return
		}

		// decoding validates the file so a broken scrape fails here, not at ingestion
		listings, err := feed.NewFileSource(path).Fetch(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, listings)
	})
	return r
}

func listFeeds(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".csv":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
