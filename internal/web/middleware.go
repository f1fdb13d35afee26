package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal"
	"portal/internal/metrics"
)

const (
	sessionCookie = "portal_session"
	sessionKey    = "session"
)

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if v, ok := c.Get(sessionKey); ok {
			fields = append(fields, zap.String("customerId", v.(internal.Session).CustomerID))
		}
		logger.Info("HTTP request", fields...)
	}
}

func metricsMiddleware(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		reg.ObserveHTTP(route, c.Writer.Status())
	}
}

// requireSession sends visitors without a valid cookie to the login page.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err == nil {
			if sess, perr := s.sessions.Parse(token); perr == nil {
				c.Set(sessionKey, sess)
				c.Next()
				return
			}
		}
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
	}
}

func sessionFrom(c *gin.Context) internal.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return internal.Session{}
	}
	return v.(internal.Session)
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", s.cfg.SessionSecure, true)
}
