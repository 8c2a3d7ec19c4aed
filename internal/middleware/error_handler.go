package middleware

import (
	"net/http"
	"time"

	"gestormoto/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger is the global logger tagged with the request id and route.
func RequestLogger(c *gin.Context) *zerolog.Logger {
	l := log.With().
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("route", c.FullPath()).
		Logger()
	return &l
}

// ErrorHandler renders the last error attached with c.Error, unless the
// handler already wrote a response. 500s are logged and never expose err.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() {
			return
		}
		last := c.Errors.Last()
		if last == nil {
			return
		}
		status := apierror.Status(last.Err)
		if status >= http.StatusInternalServerError {
			RequestLogger(c).Error().Err(last.Err).Msg("error no controlado")
		}
		c.AbortWithStatusJSON(status, apierror.FromError(last.Err))
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			RequestLogger(c).Error().Interface("panic", r).Msg("panic recuperado")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
		}()
		c.Next()
	}
}

// Logger writes one line per request; 5xx responses are logged at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		inicio := time.Now()
		c.Next()
		nivel := zerolog.InfoLevel
		if c.Writer.Status() >= http.StatusInternalServerError {
			nivel = zerolog.WarnLevel
		}
		RequestLogger(c).WithLevel(nivel).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(inicio)).
			Msg("request")
	}
}
