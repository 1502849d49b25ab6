// Package server is the gin front end: the HTML dashboard, its JSON API and
// the table downloads.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"account-explorer/internal/dataset"
	"account-explorer/internal/models"
	"account-explorer/internal/session"
	"account-explorer/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName    = "explorer"
	sessionKey    = "sid"
	sweepInterval = 10 * time.Minute
)

type Options struct {
	Source           dataset.Source
	Loader           *dataset.Loader
	Geocoder         view.Geocoder
	Sessions         *session.Store
	SessionSecret    string
	SessionTTL       time.Duration
	DensityPrecision int
	Logger           *zap.Logger
}

type Server struct {
	src      dataset.Source
	loader   *dataset.Loader
	geo      view.Geocoder
	sessions *session.Store
	secret   []byte
	ttl      time.Duration
	prec     int
	logger   *zap.Logger
	tmpl     *template.Template
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Loader == nil {
		opts.Loader = dataset.NewLoader(opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore()
	}
	return &Server{
		src:      opts.Source,
		loader:   opts.Loader,
		geo:      opts.Geocoder,
		sessions: opts.Sessions,
		secret:   []byte(opts.SessionSecret),
		ttl:      opts.SessionTTL,
		prec:     opts.DensityPrecision,
		logger:   opts.Logger,
		tmpl:     template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")),
	}
}

var templateFuncs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"join":  strings.Join,
}

// Router wires every route onto a fresh engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	store := cookie.NewStore(s.secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cookieName, store))
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.handleIndex)
	r.POST("/", s.handleIndexSubmit)
	r.POST("/reset", s.handleIndexReset)

	api := r.Group("/api")
	{
		api.GET("/view", s.handleView)
		api.GET("/candidates/:dimension", s.handleCandidates)
		api.POST("/selection", s.handleSelection)
		api.POST("/reset", s.handleReset)
		api.POST("/reload", s.handleReload)
	}

	r.GET("/export.csv", s.handleExportCSV)
	r.GET("/export.xlsx", s.handleExportXLSX)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("explorer listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.ttl > 0 {
		go s.sweep(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(s.ttl); n > 0 {
				s.logger.Debug("expired sessions", zap.Int("removed", n))
			}
		}
	}
}

// sessionID returns the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (s *Server) sessionID(c *gin.Context) string {
	sess := sessions.Default(c)
	id, _ := sess.Get(sessionKey).(string)
	id, created := s.sessions.Ensure(id)
	if created {
		sess.Set(sessionKey, id)
		if err := sess.Save(); err != nil {
			s.logger.Warn("session save failed", zap.Error(err))
		}
	}
	return id
}

func (s *Server) selection(c *gin.Context) models.FilterSelection {
	sel, _ := s.sessions.Get(s.sessionID(c))
	return sel
}

func (s *Server) buildView(c *gin.Context, sel models.FilterSelection, surface string, skipMap bool) (view.View, error) {
	ds, err := s.loader.Load(c.Request.Context(), s.src)
	if err != nil {
		return view.View{}, err
	}
	return view.Build(c.Request.Context(), ds, sel, view.Options{
		Geocoder:         s.geo,
		DensityPrecision: s.prec,
		Surface:          surface,
		SkipMap:          skipMap,
	}), nil
}

// statusFor maps an error to its HTTP status: a failed load makes the whole
// view unavailable.
func statusFor(err error) int {
	var loadErr *dataset.DataLoadError
	if errors.As(err, &loadErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) abortJSON(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": err.Error()})
}
