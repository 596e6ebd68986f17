// Package httpapi exposes the timeline REST API consumed by the frontend:
// mbox upload, email listing and retrieval, attachment download, manual
// entry, deletion with attachment cascade, and JSON/PDF export.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/export"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/ingest"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/pkg/metrics"
)

// EmailStore is the record-store surface the API needs.
type EmailStore interface {
	InsertEmail(ctx context.Context, email *db.Email) error
	UpdateEmail(ctx context.Context, email *db.Email) error
	ListEmails(ctx context.Context) ([]*db.Email, error)
	GetEmailByID(ctx context.Context, id string) (*db.Email, error)
	DeleteEmailByID(ctx context.Context, id string) (*db.Email, error)
	DeleteAllEmails(ctx context.Context) (int64, error)
}

// BlobStore is the attachment-store surface the API needs.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// Ingestor runs one mbox ingestion pass.
type Ingestor interface {
	Run(ctx context.Context, r io.Reader) (*ingest.Summary, error)
}

// Server represents the HTTP API server
type Server struct {
	addr          string
	maxUploadSize int64
	emails        EmailStore
	blobs         BlobStore
	ingestor      Ingestor
	renderer      export.Renderer // nil when PDF export is disabled
	server        *http.Server
}

// ServerOptions holds configuration options for the HTTP API server
type ServerOptions struct {
	Addr          string
	MaxUploadSize int64
	Renderer      export.Renderer
}

// New creates a new HTTP API server. All store handles are injected here;
// handlers never look them up from ambient state.
func New(emails EmailStore, blobs BlobStore, ingestor Ingestor, options ServerOptions) (*Server, error) {
	if emails == nil || blobs == nil || ingestor == nil {
		return nil, fmt.Errorf("email store, blob store and ingestor are required")
	}

	return &Server{
		addr:          options.Addr,
		maxUploadSize: options.MaxUploadSize,
		emails:        emails,
		blobs:         blobs,
		ingestor:      ingestor,
		renderer:      options.Renderer,
	}, nil
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down HTTP API server", "error", err)
		}
	}()

	logger.Info("Starting HTTP API server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)
	router.Use(s.metricsMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/upload", s.handleUpload).Methods("POST")

	// Export routes must be registered before the {id} routes
	api.HandleFunc("/emails/export", s.handleExportJSON).Methods("GET")
	api.HandleFunc("/emails/export-all", s.handleExportAllPDF).Methods("GET")
	api.HandleFunc("/emails/export/{id}", s.handleExportPDF).Methods("GET")

	api.HandleFunc("/emails", s.handleListEmails).Methods("GET")
	api.HandleFunc("/emails", s.handleCreateEmail).Methods("POST")
	api.HandleFunc("/emails", s.handleDeleteAllEmails).Methods("DELETE")
	api.HandleFunc("/emails/{id}", s.handleGetEmail).Methods("GET")
	api.HandleFunc("/emails/{id}", s.handleUpdateEmail).Methods("PUT")
	api.HandleFunc("/emails/{id}", s.handleDeleteEmail).Methods("DELETE")

	api.HandleFunc("/attachments/{fileId}", s.handleGetAttachment).Methods("GET")

	return router
}

// Middleware functions

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Debug("HTTP API: request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
		logger.Debug("HTTP API: request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
