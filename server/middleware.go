package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/profithive/go-forecaster"
	"github.com/rs/zerolog"
)

// HTTPObserver records served requests
type HTTPObserver interface {
	ObserveHTTP(method, endpoint string, status int, dur time.Duration)
}

func recoverMiddleware(logger zerolog.Logger, now func() time.Time) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					logger.Error().Err(perr).Bytes("stack", debug.Stack()).Msg("panic serving request")
					err = c.JSON(http.StatusInternalServerError, forecaster.NewFailure(perr, now()))
				}
			}()
			return next(c)
		}
	}
}

func requestMiddleware(logger zerolog.Logger, observer HTTPObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			if observer != nil {
				observer.ObserveHTTP(req.Method, c.Path(), status, latency)
			}
			logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote", req.RemoteAddr).
				Int("status", status).
				Dur("latency", latency).
				Msg("request")
			return nil
		}
	}
}
