package main

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"erdgraph/internal/introspect"
	"erdgraph/internal/logger"
	"erdgraph/internal/render"
	"erdgraph/pkg/config"
)

// extractFunc connects to a database and assembles the tables of a schema.
type extractFunc func(ctx context.Context, driver, dsn string, timeout time.Duration, schema string) ([]introspect.Table, error)

// state holds the active database connection shared by all handlers.
type state struct {
	mu      sync.RWMutex
	driver  string
	dsn     string
	cfg     config.DBConfig
	timeout time.Duration
	schema  string
	extract extractFunc
}

// setActive sets the active database connection
func (s *state) setActive(driver, dsn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver = driver
	s.dsn = dsn
}

// getActive returns the active database connection
func (s *state) getActive() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driver, s.dsn
}

func (s *state) tables(c *gin.Context, driver, dsn string) ([]introspect.Table, bool) {
	schema := c.DefaultQuery("schema", s.schema)
	extract := s.extract
	if extract == nil {
		extract = introspect.ConnectAndExtract
	}
	tables, err := extract(c.Request.Context(), driver, dsn, s.timeout, schema)
	if err != nil {
		logger.Error("extract schema %q: %v", schema, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to extract schema: " + err.Error()})
		return nil, false
	}
	return tables, true
}

func (s *state) active(c *gin.Context) (string, string, bool) {
	driver, dsn := s.getActive()
	if driver == "" || dsn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no active connection; POST /api/connect to create one"})
		return "", "", false
	}
	return driver, dsn, true
}

func newRouter(s *state, webdir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), cors.Default())

	api := router.Group("/api")
	{
		api.GET("/getConnect", s.getConnect)
		api.POST("/connect", s.connect)
		api.GET("/schema", s.schemaJSON)
		api.GET("/graph", s.graph)
	}
	if webdir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(webdir))))
	}
	return router
}

// getConnect returns the configured connection parameters.
func (s *state) getConnect(c *gin.Context) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	cfg.Type = config.NormalizeDriver(cfg.Type)
	c.JSON(http.StatusOK, gin.H{"ok": true, "config": cfg})
}

// connect tests the posted parameters and makes them active on success.
func (s *state) connect(c *gin.Context) {
	var req config.DBConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json: " + err.Error()})
		return
	}
	driver, dsn, err := config.BuildDriverAndDSN(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	tables, ok := s.tables(c, driver, dsn)
	if !ok {
		return
	}
	s.setActive(driver, dsn)
	s.mu.Lock()
	s.cfg = req
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": true, "tables": tables})
}

func (s *state) schemaJSON(c *gin.Context) {
	driver, dsn, ok := s.active(c)
	if !ok {
		return
	}
	if tables, ok := s.tables(c, driver, dsn); ok {
		c.JSON(http.StatusOK, tables)
	}
}

// graph renders the active schema as Graphviz dot text.
func (s *state) graph(c *gin.Context) {
	driver, dsn, ok := s.active(c)
	if !ok {
		return
	}
	tables, ok := s.tables(c, driver, dsn)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.Dot(&buf, tables); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", buf.Bytes())
}
