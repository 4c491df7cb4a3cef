// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package web exposes the search engine over HTTP. The API surface is
// deliberately small: a search endpoint, a case detail endpoint, and a
// health check.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/search"
)

var (
	// ErrSearchServiceRequired indicates a nil search service was passed to NewServer.
	ErrSearchServiceRequired = errors.New("search service is required")
	// ErrCaseReaderRequired indicates a nil case reader was passed to NewServer.
	ErrCaseReaderRequired = errors.New("case reader is required")
)

// SearchService runs case searches. Both *search.Searcher and
// *caselaw.Database satisfy it.
type SearchService interface {
	SearchRequest(ctx context.Context, req search.Request) (*core.SearchResponse, error)
}

// CaseReader retrieves individual cases. *caselaw.Database satisfies it.
type CaseReader interface {
	GetCase(ctx context.Context, id core.CaseID) (*core.Case, error)
}

// Server is the HTTP front end.
type Server struct {
	echo   *echo.Echo
	search SearchService
	cases  CaseReader
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(search SearchService, cases CaseReader, opts ...Option) (*Server, error) {
	if search == nil {
		return nil, ErrSearchServiceRequired
	}
	if cases == nil {
		return nil, ErrCaseReaderRequired
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		search: search,
		cases:  cases,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := s.echo.Group("/api")
	api.POST("/search", s.handleSearch)
	api.GET("/case/:id", s.handleGetCase)
}

// Start begins serving on the given address and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying http.Handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
