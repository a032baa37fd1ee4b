// Package api is the read-only REST projection over the materialized tables.
// It performs no writes and no chain reads; everything it serves was produced
// by the reconciliation engine.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

// Server serves the aggregate read API
type Server struct {
	store store.Store
	cfg   *config.APIConfig
	http  *http.Server
}

// NewServer creates the API server with its routes and middleware
func NewServer(s store.Store, cfg *config.APIConfig) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		store: s,
		cfg:   cfg,
	}

	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		loggerMiddleware(),
		recoveryMiddleware(),
		corsMiddleware(),
	)

	router.GET("/healthz", server.handleHealthz)

	v1 := router.Group("/v1", authMiddleware(cfg.Auth))
	{
		v1.GET("/products/:id", server.handleGetProduct)
		v1.GET("/products/:id/administrators", server.handleListProductAdministrators)
		v1.GET("/campaigns/:address", server.handleGetCampaign)
		v1.GET("/campaigns/:address/stats", server.handleGetCampaignStats)
		v1.GET("/campaigns/:address/cap-resets", server.handleListCampaignCapResets)
		v1.GET("/users/:address/rewards", server.handleListUserRewards)
		v1.GET("/users/:address/activity", server.handleListUserActivity)
	}

	server.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return server
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
