package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/journal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP layer
type Options struct {
	AllowOrigins []string
	Development  bool
}

// Server handles HTTP requests for the journal API
type Server struct {
	svc    *journal.Service
	db     Pinger
	log    zerolog.Logger
	engine *gin.Engine
}

// New creates a new API server and registers its routes
func New(svc *journal.Service, db Pinger, log zerolog.Logger, opts Options) *Server {
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		svc:    svc,
		db:     db,
		log:    log.With().Str("component", "api").Logger(),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.New(corsConfig(opts.AllowOrigins)))
	s.engine.Use(Metrics())
	s.engine.Use(RequestLogger(s.log))

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	// PINs and labels
	r.POST("/verify-pin", s.verifyPin)
	r.POST("/change-pin", s.changePin)
	r.POST("/change-label", s.changeLabel)
	r.GET("/labels", s.getLabels)

	// Entries
	r.POST("/add-entry", s.addEntry)
	r.GET("/entries", s.listEntries)
	r.GET("/entries/:id", s.getEntry)
	r.PUT("/entries/:id", s.updateEntry)
	r.DELETE("/entries/:id", s.deleteEntry)

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// VerifyPinRequest is the request body for /verify-pin
type VerifyPinRequest struct {
	Pin string `json:"pin"`
}

func (s *Server) verifyPin(c *gin.Context) {
	var req VerifyPinRequest
	if !s.bind(c, &req) {
		return
	}

	role, err := s.svc.VerifyPin(c.Request.Context(), req.Pin)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

// ChangePinRequest is the request body for /change-pin
type ChangePinRequest struct {
	OldPin string `json:"old_pin"`
	NewPin string `json:"new_pin"`
}

func (s *Server) changePin(c *gin.Context) {
	var req ChangePinRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.svc.ChangePin(c.Request.Context(), req.OldPin, req.NewPin); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, "PIN updated successfully")
}

// ChangeLabelRequest is the request body for /change-label
type ChangeLabelRequest struct {
	Pin      string `json:"pin"`
	NewLabel string `json:"new_label"`
}

func (s *Server) changeLabel(c *gin.Context) {
	var req ChangeLabelRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.svc.ChangeLabel(c.Request.Context(), req.Pin, req.NewLabel); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, "Label updated successfully")
}

func (s *Server) getLabels(c *gin.Context) {
	labels, err := s.svc.GetLabels(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// EntryRequest is the request body for adding or updating an entry
type EntryRequest struct {
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

func (s *Server) addEntry(c *gin.Context) {
	var req EntryRequest
	if !s.bind(c, &req) {
		return
	}

	entry, err := s.svc.AddEntry(c.Request.Context(), req.Content, req.Author)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (s *Server) listEntries(c *gin.Context) {
	entries, err := s.svc.ListEntries(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) getEntry(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	entry, err := s.svc.GetEntry(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) updateEntry(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	var req EntryRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.svc.UpdateEntry(c.Request.Context(), id, req.Content, req.Author); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, "Entry updated successfully")
}

func (s *Server) deleteEntry(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	if err := s.svc.DeleteEntry(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, "Entry deleted successfully")
}

func entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid entry id")
		return 0, false
	}
	return id, true
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeError maps a domain error onto a status code. Unclassified errors
// are logged and reported as 500 without leaking their text.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("request failed")
		writeDetail(c, status, "Internal server error")
		return
	}
	writeDetail(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func writeDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}
