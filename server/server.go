// Package server exposes the forecaster over HTTP
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/profithive/go-forecaster"
	"github.com/profithive/go-forecaster/prepare"
	"github.com/profithive/go-forecaster/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("too many training requests, retry later")

// Service trains and predicts per retailer
type Service interface {
	Train(ctx context.Context, history []prepare.Record, entityID string) (*forecaster.TrainResult, error)
	Predict(ctx context.Context, req forecaster.PredictRequest) (*forecaster.ForecastResult, error)
}

type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrainRate       float64
	TrainBurst      int
	BodyLimit       string
}

func defaultConfig() Config {
	return Config{
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		TrainRate:       1,
		TrainBurst:      2,
		BodyLimit:       "8M",
	}
}

type Option func(*Server)

func WithConfig(cfg Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records requests with the observer and serves the gatherer on /metrics
func WithMetrics(observer HTTPObserver, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.observer = observer
		s.gatherer = gatherer
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server wraps the echo HTTP server
type Server struct {
	echo    *echo.Echo
	service Service
	cfg     Config

	logger   zerolog.Logger
	observer HTTPObserver
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
	now      func() time.Time
}

func New(service Service, fns ...Option) *Server {
	s := &Server{
		service:  service,
		cfg:      defaultConfig(),
		logger:   zerolog.Nop(),
		gatherer: prometheus.DefaultGatherer,
		now:      time.Now,
	}
	for _, fn := range fns {
		fn(s)
	}
	s.limiter = rate.NewLimiter(rate.Limit(s.cfg.TrainRate), s.cfg.TrainBurst)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = s.errorHandler
	e.Server.ReadTimeout = s.cfg.ReadTimeout
	e.Server.WriteTimeout = s.cfg.WriteTimeout

	e.Use(recoverMiddleware(s.logger, s.now))
	e.Use(requestMiddleware(s.logger, s.observer))
	if s.cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(s.cfg.BodyLimit))
	}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := e.Group("/v1")
	v1.POST("/predict", s.predict)
	v1.POST("/train", s.train)

	s.echo = e
	return s
}

// ServeHTTP lets the server be mounted or driven by httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until the context is done and then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) predict(c echo.Context) error {
	var req forecaster.PredictRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	res, err := s.service.Predict(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) train(c echo.Context) error {
	if !s.limiter.Allow() {
		return echo.NewHTTPError(http.StatusTooManyRequests).SetInternal(ErrRateLimited)
	}
	var req forecaster.TrainRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var id string
	if req.RetailerID != nil {
		id = *req.RetailerID
	}
	res, err := s.service.Train(c.Request().Context(), req.History, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// StatusCode maps a forecaster error onto an HTTP status
func StatusCode(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, forecaster.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, forecaster.ErrModelUnavailable):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPersistence):
		return http.StatusInternalServerError
	case errors.As(err, &he):
		return he.Code
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := StatusCode(err)

	msgErr := err
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Internal != nil && code == http.StatusTooManyRequests:
			msgErr = he.Internal
		default:
			msgErr = errors.New(http.StatusText(code))
			if m, ok := he.Message.(string); ok && m != "" {
				msgErr = errors.New(m)
			}
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	} else {
		s.logger.Warn().Err(err).Str("path", c.Path()).Int("status", code).Msg("request rejected")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, forecaster.NewFailure(msgErr, s.now()))
}
