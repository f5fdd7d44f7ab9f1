// Package backend serves the listing API: paginated bucket and file lists
// read from a Storage.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/sgaunet/s2console/pkg/dto"
)

const (
	maxRequestSize    = 1 << 20
	readHeaderTimeout = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	// Users maps basic-auth user names to passwords. Empty disables auth.
	Users map[string]string
	// RateLimit is the number of requests per second accepted. Zero disables limiting.
	RateLimit float64
	Burst     int
}

// Server is the listing API.
type Server struct {
	store   Storage
	opts    Options
	limiter *rate.Limiter
	router  *mux.Router
	log     *slog.Logger
}

// New creates the API on store.
func New(store Storage, opts Options) *Server {
	s := &Server{
		store:   store,
		opts:    opts,
		limiter: newLimiter(opts.RateLimit, opts.Burst),
		router:  mux.NewRouter(),
		log:     slog.New(slog.DiscardHandler),
	}
	s.initRouter()
	return s
}

// SetLogger sets the logger for the server
func (s *Server) SetLogger(log *slog.Logger) {
	s.log = log
}

// Handler returns the root handler with middlewares applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listing API listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listing API: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), readHeaderTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("listing API shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) initRouter() {
	s.router.Use(s.logRequests, s.limitRate, s.basicAuth)
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/hello", s.Hello).Methods(http.MethodGet)
	api.HandleFunc("/bucket/pagelist", s.BucketPageList).Methods(http.MethodPost)
	api.HandleFunc("/file/pagelist", s.FilePageList).Methods(http.MethodPost)
	api.HandleFunc("/file/down/{path:.+}", s.Download).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})
}

// Hello answers the liveness probe used by the console.
func (s *Server) Hello(w http.ResponseWriter, _ *http.Request) {
	s.send(w, http.StatusOK, dto.NewMessage("hello"))
}

// BucketPageList answers one page of buckets whose name contains the pattern.
func (s *Server) BucketPageList(w http.ResponseWriter, r *http.Request) {
	pr, err := decodePageRequest(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	pr = normalize(pr)

	glob, err := bucketPattern(pr.Pattern)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}

	buckets, err := s.store.Buckets(r.Context())
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	matched := make([]dto.Bucket, 0, len(buckets))
	for _, b := range buckets {
		if match(glob, b.Name) {
			matched = append(matched, b)
		}
	}

	s.send(w, http.StatusOK, dto.NewResult(dto.BucketPage{
		Total:   len(matched),
		Offset:  pr.Offset,
		Limit:   pr.Limit,
		Pattern: pr.Pattern,
		Buckets: paginate(matched, pr.Offset, pr.Limit),
	}))
}

// FilePageList answers one page of the files of a bucket matching the pattern.
func (s *Server) FilePageList(w http.ResponseWriter, r *http.Request) {
	pr, err := decodePageRequest(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	pr = normalize(pr)

	glob, err := filePattern(pr.Pattern)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}

	files, err := s.store.Files(r.Context(), pr.Bucket)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err)
		return
	}
	matched := make([]dto.File, 0, len(files))
	for _, f := range files {
		if match(glob, f.Name) {
			matched = append(matched, f)
		}
	}

	s.send(w, http.StatusOK, dto.NewResult(dto.FilePage{
		Total:   len(matched),
		Offset:  pr.Offset,
		Limit:   pr.Limit,
		Bucket:  pr.Bucket,
		Pattern: pr.Pattern,
		Files:   paginate(matched, pr.Offset, pr.Limit),
	}))
}

// Download streams one file. The last path element is the file name, the
// rest is the bucket.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + mux.Vars(r)["path"])
	bucket, name := path.Split(p)
	bucket = path.Clean(bucket)[1:]
	if bucket == "" || name == "" {
		s.sendError(w, http.StatusBadRequest, ErrInvalidName)
		return
	}

	rc, info, err := s.store.Open(r.Context(), bucket, name)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrBucketNotFound) {
			status = http.StatusNotFound
		}
		s.sendError(w, status, err)
		return
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			s.log.Debug("Failed to close file", slog.String("error", closeErr.Error()))
		}
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(info.Name))
	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.ModTime.IsZero() {
		w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("Download interrupted",
			slog.String("bucket", bucket),
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

func decodePageRequest(r *http.Request) (dto.PageRequest, error) {
	var pr dto.PageRequest
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return pr, fmt.Errorf("cannot read request: %w", err)
	}
	if len(data) == 0 {
		return pr, nil
	}
	if err := json.Unmarshal(data, &pr); err != nil {
		return pr, fmt.Errorf("cannot decode request: %w", err)
	}
	return pr, nil
}

func (s *Server) sendError(w http.ResponseWriter, status int, err error) {
	s.log.Info("Request failed", slog.Int("status", status), slog.String("error", err.Error()))
	s.send(w, status, dto.NewError(err.Error()))
}

func (s *Server) send(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Cannot encode response", slog.String("error", err.Error()))
		http.Error(w, `{"error":true,"message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.log.Debug("Cannot write response", slog.String("error", err.Error()))
	}
}
