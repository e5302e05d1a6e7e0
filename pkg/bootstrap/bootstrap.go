// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/clawdhub/registry/pkg/api"
	"github.com/clawdhub/registry/pkg/config"
	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/embedding"
	"github.com/clawdhub/registry/pkg/log"
	"github.com/clawdhub/registry/pkg/scan"
	"github.com/clawdhub/registry/pkg/service"
	"github.com/clawdhub/registry/pkg/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server wires the registry together: database, object storage, the
// malware scanner, and the HTTP API.
type Server struct {
	config     *config.Config
	db         *gorm.DB
	facade     *database.Facade
	storage    storage.Storage
	embedder   embedding.Embedder
	scanner    *scan.Scanner
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(cfg.Log.Level)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	facade := database.NewFacade(db)

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	embedder := embedding.NewFromConfig(cfg.Embedding)

	var scanner *scan.Scanner
	if cfg.Scanner.Enabled {
		scanner = scan.NewScanner(cfg.Scanner, facade, store)
	}

	return &Server{
		config:   cfg,
		db:       db,
		facade:   facade,
		storage:  store,
		embedder: embedder,
		scanner:  scanner,
	}, nil
}

// Start starts the scanner and the HTTP server. It blocks until the
// HTTP server stops.
func (s *Server) Start() error {
	if s.scanner != nil {
		if err := s.scanner.Start(); err != nil {
			return fmt.Errorf("failed to start scanner: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	var enqueuer service.ScanEnqueuer
	if s.scanner != nil {
		enqueuer = s.scanner
	}
	skillSvc := service.NewSkillService(s.facade, s.storage, s.embedder, enqueuer)
	searchSvc := service.NewSearchService(s.facade, s.embedder)

	handler := api.NewHandler(skillSvc, searchSvc)
	api.RegisterRoutes(router, handler, s.facade.APIToken)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.Port),
		Handler: router,
	}

	log.WithFields(log.Fields{"port": s.config.Server.Port}).Info("registry API listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server and the scanner
func (s *Server) Stop() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.WithFields(log.Fields{"error": err}).Warn("http server shutdown")
		}
	}
	if s.scanner != nil {
		s.scanner.Stop()
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Info("registry stopped")
}
