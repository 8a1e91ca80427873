// Package http serves the AIRO pipeline over HTTP.
//
// Projects are submitted with POST /v1/projects and run in the background.
// Their status is polled with GET /v1/projects/:id or streamed over a
// websocket from /v1/projects/:id/events.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// Runner executes one project.
type Runner interface {
	CreateProject(ctx context.Context, req project.Request) (*project.Result, error)
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	runner  Runner
	jobs    *JobStore
	logger  *logging.Logger
	config  config.ServerConfig
	metrics *jobMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server. meter may be nil.
func NewServer(runner Runner, logger *logging.Logger, cfg config.ServerConfig, meter metric.Meter) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	jobs, err := NewJobStore(cfg.MaxJobs)
	if err != nil {
		return nil, fmt.Errorf("creating job store: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		runner:  runner,
		jobs:    jobs,
		logger:  logger.Named("http"),
		config:  cfg,
		metrics: newJobMetrics(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(meter, s.logger).MetricsMiddleware())
	e.Use(s.requestLogger)

	s.registerRoutes()
	return s, nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/v1")
	v1.POST("/projects", s.handleCreate)
	v1.GET("/projects/:id", s.handleGet)
	v1.GET("/projects/:id/events", s.handleEvents)
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.echo }

// Jobs returns the job store.
func (s *Server) Jobs() *JobStore { return s.jobs }

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CreateProjectRequest is the request body for POST /v1/projects. Omitted
// flags default to true.
type CreateProjectRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Language       string `json:"language"`
	GenerateTests  *bool  `json:"generate_tests"`
	GenerateReview *bool  `json:"generate_review"`
}

// CreateProjectResponse is the response body for POST /v1/projects.
type CreateProjectResponse struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "airo"})
}

func (s *Server) handleCreate(c echo.Context) error {
	var body CreateProjectRequest
	if err := c.Bind(&body); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid project request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req, err := body.toRequest()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job := newJob(uuid.NewString(), req)
	s.jobs.add(job)
	s.metrics.submitted.Inc()

	s.wg.Add(1)
	go s.run(job)

	return c.JSON(http.StatusAccepted, CreateProjectResponse{ID: job.id, Status: JobQueued})
}

func (b CreateProjectRequest) toRequest() (project.Request, error) {
	lang := b.Language
	if strings.TrimSpace(lang) == "" {
		lang = string(project.Python)
	}
	parsed, err := project.ParseLanguage(lang)
	if err != nil {
		return project.Request{}, err
	}
	req := project.Request{
		Name:           b.Name,
		Description:    b.Description,
		Language:       parsed,
		GenerateTests:  b.GenerateTests == nil || *b.GenerateTests,
		GenerateReview: b.GenerateReview == nil || *b.GenerateReview,
	}.Normalize()
	if err := req.Validate(); err != nil {
		return project.Request{}, err
	}
	return req, nil
}

func (s *Server) run(job *Job) {
	defer s.wg.Done()
	ctx := logging.WithProjectID(s.ctx, job.id)

	job.setRunning()
	s.metrics.running.Inc()
	defer s.metrics.running.Dec()

	res, err := s.runner.CreateProject(ctx, job.request)
	job.finish(res, err)
	status := job.View().Status
	s.metrics.finished.WithLabelValues(string(status)).Inc()

	if err != nil {
		s.logger.Warn(ctx, "project job failed", zap.Error(err))
		return
	}
	s.logger.Info(ctx, "project job finished", zap.String("status", string(status)))
}

// Progress routes a pipeline event to its job. It is used as the executor's
// progress callback.
func (s *Server) Progress(p project.StepProgress) {
	if job, ok := s.jobs.Get(p.ProjectID); ok {
		job.record(p)
	}
}

func (s *Server) handleGet(c echo.Context) error {
	job, ok := s.jobs.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}
	return c.JSON(http.StatusOK, job.View())
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info(ctx, "starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout.Duration())
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, cancels running jobs and waits for them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	err := s.echo.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, fmt.Errorf("waiting for jobs: %w", ctx.Err()))
	}
	return err
}
