// Package app is the web console: server-rendered bucket and file listings
// backed by the listing API.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sgaunet/s2console/pkg/config"
	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/health"
	"github.com/sgaunet/s2console/pkg/listing"
	"github.com/sgaunet/s2console/pkg/prefs"
	"github.com/sgaunet/s2console/pkg/views"
)

const readHeaderTimeout = 10 * time.Second

// Backend provides the fetchers of the two listings.
type Backend interface {
	Buckets() listing.Fetcher[dto.Bucket]
	Files() listing.Fetcher[dto.File]
}

// Options configure an App.
type Options struct {
	Config  config.ConsoleConfig
	Backend Backend
	// Preferences is shared by all users; each user gets its own keys.
	// Nil means in-memory preferences.
	Preferences listing.PreferenceStore
	// Health is reported on /health. Nil means no monitored component.
	Health *health.Monitor
}

// App is the web console.
type App struct {
	cfg      config.ConsoleConfig
	backend  Backend
	prefs    listing.PreferenceStore
	health   *health.Monitor
	sessions *sessionStore
	router   *mux.Router
	log      *slog.Logger
}

// NewApp creates the web console.
func NewApp(opts Options) *App {
	s := &App{
		cfg:      opts.Config,
		backend:  opts.Backend,
		prefs:    opts.Preferences,
		health:   opts.Health,
		sessions: newSessionStore(opts.Config.SessionTTL),
		router:   mux.NewRouter(),
		log:      slog.New(slog.DiscardHandler),
	}
	if s.prefs == nil {
		s.prefs = prefs.NewMemory()
	}
	if s.health == nil {
		s.health = health.NewMonitor(nil)
	}
	if s.cfg.LoginURL == "" {
		s.cfg.LoginURL = "/login"
	}
	s.initRouter()
	return s
}

// SetLogger sets the logger for the console
func (s *App) SetLogger(log *slog.Logger) {
	s.log = log
}

// Router returns the root handler.
func (s *App) Router() http.Handler {
	return s.router
}

// ListenAndServe serves the console on addr until ctx is cancelled. Idle
// sessions are expired while serving. Mounted listings are torn down on
// expiry and on shutdown so that their preferences are saved.
func (s *App) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweepSessions(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Web console listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web console: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), readHeaderTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, s.Close(shutdownCtx))
	}
}

// Close unmounts the listing of every session.
func (s *App) Close(ctx context.Context) error {
	return s.closeSessions(ctx, s.sessions.all())
}

func (s *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(s.sessions.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ExpireSessions(ctx); err != nil {
				s.log.Warn("Cannot save preferences of expired sessions", slog.String("error", err.Error()))
			}
		}
	}
}

// ExpireSessions forgets the sessions idle for longer than the session TTL
// and tears down their listings.
func (s *App) ExpireSessions(ctx context.Context) error {
	expired := s.sessions.expire()
	for _, sess := range expired {
		s.log.Info("Session expired", slog.String("user", sess.user.Name))
	}
	return s.closeSessions(ctx, expired)
}

func (s *App) closeSessions(ctx context.Context, sessions []*session) error {
	var errs []error
	for _, sess := range sessions {
		sess.mu.Lock()
		if err := sess.close(ctx); err != nil {
			errs = append(errs, err)
		}
		sess.mu.Unlock()
	}
	return errors.Join(errs...)
}

// initRouter initializes the router of the App
func (s *App) initRouter() {
	s.router.Use(s.logRequests)
	s.router.PathPrefix("/static/").Handler(views.StaticHandler)
	s.router.HandleFunc("/favicon.ico", views.FaviconHandler)
	s.router.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.LoginForm).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.Login).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.Logout)
	s.router.HandleFunc("/", s.BucketList).Methods(http.MethodGet)
	s.router.HandleFunc("/files/{bucket:.+}", s.FileList).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		views.HandlerError(w, r, http.StatusNotFound, "", "Page not found")
	})
}

func (s *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}
