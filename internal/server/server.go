package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"codeberg.org/snonux/posttranslate/internal/config"
	"codeberg.org/snonux/posttranslate/internal/problemcheck"
	"codeberg.org/snonux/posttranslate/internal/processor"
	"codeberg.org/snonux/posttranslate/internal/render"
	"codeberg.org/snonux/posttranslate/internal/store"
	"codeberg.org/snonux/posttranslate/internal/translator"
)

const (
	userHeader = "X-User-Id"
	userKey    = "user"
)

// Server holds the HTTP handlers and their dependencies
type Server struct {
	cfg      *config.Config
	st       *store.Store
	svc      *translator.Service
	proc     *processor.Processor
	renderer *render.Renderer
	checker  *problemcheck.Checker
	engine   *gin.Engine
}

// New creates the server and registers its routes
func New(cfg *config.Config, st *store.Store, svc *translator.Service, proc *processor.Processor, checker *problemcheck.Checker) *Server {
	s := &Server{
		cfg:      cfg,
		st:       st,
		svc:      svc,
		proc:     proc,
		renderer: render.New(cfg, svc),
		checker:  checker,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(), s.currentUser())

	s.engine.POST("/translator/translate", s.translate)
	s.engine.POST("/posts", s.createPost)
	s.engine.GET("/posts/:id", s.showPost)
	s.engine.PUT("/posts/:id", s.updatePost)
	s.engine.POST("/topics", s.createTopic)
	s.engine.PUT("/topics/:id", s.updateTopic)
	s.engine.GET("/t/:id", s.showTopic)
	s.engine.GET("/admin/problems", s.problems)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("HTTP request")
	}
}

// currentUser loads the user named in the X-User-Id header. Unknown or
// malformed ids leave the request anonymous.
func (s *Server) currentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(userHeader); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				if u, err := s.st.GetUser(c.Request.Context(), id); err == nil {
					c.Set(userKey, u)
				}
			}
		}
		c.Next()
	}
}

func userFrom(c *gin.Context) *store.User {
	if v, ok := c.Get(userKey); ok {
		return v.(*store.User)
	}
	return nil
}

func (s *Server) locale(c *gin.Context) string {
	if locale := c.Query("locale"); locale != "" {
		return locale
	}
	return s.cfg.DefaultLocale
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// statusFor maps errors to HTTP status codes
func statusFor(err error) int {
	var rlErr *processor.RateLimitError
	var trErr *translator.Error

	switch {
	case errors.As(err, &rlErr):
		return http.StatusTooManyRequests
	case errors.Is(err, store.ErrNotFound), errors.Is(err, processor.ErrDisabled):
		return http.StatusNotFound
	case errors.Is(err, processor.ErrUserNotInGroup), errors.Is(err, processor.ErrPosterNotInGroup):
		return http.StatusForbidden
	case errors.As(err, &trErr),
		errors.Is(err, translator.ErrFailed),
		errors.Is(err, translator.ErrTooLong),
		errors.Is(err, translator.ErrLocaleNotSupported),
		errors.Is(err, translator.ErrMissingToken),
		errors.Is(err, translator.ErrNotConfigured):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var rlErr *processor.RateLimitError
	if errors.As(err, &rlErr) {
		c.Header("Retry-After", strconv.Itoa(int(rlErr.RetryAfter.Seconds()+0.5)))
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
