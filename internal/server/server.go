// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/panbanda/pyreview/internal/htmlreport"
	"github.com/panbanda/pyreview/internal/service/analysis"
	"github.com/panbanda/pyreview/internal/storage"
	"github.com/panbanda/pyreview/pkg/parser"
)

// Server serves uploads, stored reports, health and metrics.
type Server struct {
	svc     *analysis.Service
	logger  *slog.Logger
	metrics *metrics
	router  chi.Router

	// renderer is nil if the page template failed to load.
	renderer *htmlreport.Renderer
}

// New creates a server backed by svc.
func New(svc *analysis.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: newMetrics(),
	}
	renderer, err := htmlreport.NewRenderer("")
	if err != nil {
		logger.Error("report pages disabled", "error", err)
	} else {
		s.renderer = renderer
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/reports/{name}", s.handleReport)
	})
	r.Get("/reports/{name}", s.handleReportPage)
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	cfg := s.svc.Config().Server
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAnalyze stages the uploaded file, runs the pipeline on it and
// returns the report. The stored report name is sent in X-Report-Name.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.svc.Config().Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d MB", s.svc.Config().Server.MaxUploadMB))
			return
		}
		respondError(w, http.StatusBadRequest, errors.New(`multipart field "file" is required`))
		return
	}
	defer file.Close()

	if !parser.IsPython(header.Filename) {
		respondError(w, http.StatusUnsupportedMediaType, fmt.Errorf("%s is not a Python file", header.Filename))
		return
	}
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(content)) > limit {
		respondError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d MB", s.svc.Config().Server.MaxUploadMB))
		return
	}
	if !utf8.Valid(content) {
		respondError(w, http.StatusBadRequest, errors.New("upload is not valid UTF-8"))
		return
	}

	path, err := s.svc.Store().StageUpload(header.Filename, content)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err)
		return
	}

	start := time.Now()
	out, err := s.svc.Run(r.Context(), path)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil && (out == nil || out.Report == nil) {
		s.metrics.analyses.WithLabelValues("failed").Inc()
		s.logger.Error("analysis failed", "file", path, "error", err)
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if err != nil {
		// Analysis finished but the report could not be stored
		s.logger.Warn("report not saved", "file", path, "error", err)
	}
	s.metrics.analyses.WithLabelValues("ok").Inc()
	s.metrics.observeReport(out.Report)

	if out.ReportPath != "" {
		w.Header().Set("X-Report-Name", filepath.Base(out.ReportPath))
	}
	respondJSON(w, http.StatusOK, out.Report)
}

// handleReport returns a stored report. The ETag is the xxhash of the file
// so clients can poll cheaply with If-None-Match.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	status := s.serveReport(w, r, chi.URLParam(r, "name"))
	s.metrics.reportsServed.WithLabelValues(strconv.Itoa(status)).Inc()
}

// loadReport reads and validates a stored report. On failure it returns
// the HTTP status to answer with.
func (s *Server) loadReport(name string) ([]byte, string, int, error) {
	path, err := s.svc.Store().Resolve(name)
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, path, http.StatusNotFound, fmt.Errorf("report %s not found", filepath.Base(path))
		}
		return nil, path, http.StatusInternalServerError, err
	}
	if err := storage.Validate(data); err != nil {
		s.logger.Error("stored report is invalid", "report", path, "error", err)
		return nil, path, http.StatusInternalServerError, err
	}
	return data, path, http.StatusOK, nil
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, name string) int {
	data, _, status, err := s.loadReport(name)
	if err != nil {
		respondError(w, status, err)
		return status
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag || match == "*" {
		w.WriteHeader(http.StatusNotModified)
		return http.StatusNotModified
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return http.StatusOK
}

// handleReportPage renders a stored report as HTML for browsers.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	status := s.serveReportPage(w, chi.URLParam(r, "name"))
	s.metrics.reportsServed.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (s *Server) serveReportPage(w http.ResponseWriter, name string) int {
	if s.renderer == nil {
		respondError(w, http.StatusInternalServerError, errors.New("HTML rendering unavailable"))
		return http.StatusInternalServerError
	}
	data, _, status, err := s.loadReport(name)
	if err != nil {
		respondError(w, status, err)
		return status
	}
	report, err := storage.Decode(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, report); err != nil {
		s.logger.Error("render report page", "report", name, "error", err)
		respondError(w, http.StatusInternalServerError, err)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
	return http.StatusOK
}
