package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/cognicore/linkfinder/internal/metrics"
	"github.com/cognicore/linkfinder/pkg/linkfinder"
)

// Resolver is the engine surface the HTTP API needs.
type Resolver interface {
	ResolveDetailed(keyword string) (linkfinder.Resolution, error)
	Keywords() []string
	Records() int
	RunID() string
}

// Server wraps the Fiber app serving the resolver.
type Server struct {
	App      *fiber.App
	resolver Resolver
	metrics  *metrics.Recorder
	log      *slog.Logger
}

// ResolveResponse is the data payload of /api/resolve.
type ResolveResponse struct {
	Keyword   string   `json:"keyword"`
	URLs      []string `json:"urls"`
	Source    string   `json:"source,omitempty"`
	Predicted string   `json:"predicted,omitempty"`
}

// HealthResponse is the payload of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	RunID   string `json:"run_id"`
	Records int    `json:"records"`
}

// New creates a server with routes registered. A nil logger uses slog.Default().
func New(resolver Resolver, rec *metrics.Recorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		App:      fiber.New(fiber.Config{AppName: "linkfinder"}),
		resolver: resolver,
		metrics:  rec,
		log:      log,
	}
	rec.SetDataset(resolver.Records(), len(resolver.Keywords()))

	s.App.Use(recover.New())
	s.App.Get("/healthz", s.health)
	s.App.Get("/api/resolve", s.resolve)
	s.App.Get("/api/keywords", s.keywords)
	s.App.Get("/metrics", adaptor.HTTPHandler(rec.Handler()))
	return s
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("starting server", "addr", addr, "run_id", s.resolver.RunID())
	return s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

func (s *Server) resolve(c fiber.Ctx) error {
	keyword := strings.TrimSpace(c.Query("q"))

	res, err := s.resolver.ResolveDetailed(keyword)
	switch {
	case errors.Is(err, linkfinder.ErrEmptyKeyword):
		s.metrics.RecordResolution(metrics.OutcomeEmptyKeyword)
		return jsonError(c, fiber.StatusBadRequest, "please enter a keyword")
	case err != nil:
		// any other failure is shown as "no results"
		s.metrics.RecordResolution(metrics.OutcomeError)
		s.log.Error("resolve failed", "keyword", keyword, "error", err)
		return jsonSuccess(c, ResolveResponse{Keyword: keyword, URLs: []string{}})
	}

	if res.Source == linkfinder.SourcePredicted {
		s.metrics.RecordResolution(metrics.OutcomePredicted)
		s.log.Debug("resolved by prediction", "keyword", keyword, "predicted", res.Predicted, "urls", len(res.URLs))
	} else {
		s.metrics.RecordResolution(metrics.OutcomeSubstring)
	}

	urls := res.URLs
	if urls == nil {
		urls = []string{}
	}
	return jsonSuccess(c, ResolveResponse{
		Keyword:   keyword,
		URLs:      urls,
		Source:    string(res.Source),
		Predicted: res.Predicted,
	})
}

func (s *Server) keywords(c fiber.Ctx) error {
	return jsonSuccess(c, s.resolver.Keywords())
}

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		RunID:   s.resolver.RunID(),
		Records: s.resolver.Records(),
	})
}

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
