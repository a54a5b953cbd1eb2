// Package server serves the generated site for local preview, with health
// and metrics endpoints alongside the static files.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

// Options configures the preview server.
type Options struct {
	// Dir is the generated output directory to serve.
	Dir  string
	Port int
	// Registry enables /metrics when non-nil.
	Registry *prom.Registry
	// Phase, when set, reports the rebuild loop's state in health responses.
	Phase  func() string
	Logger *slog.Logger
}

// Server is the preview HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger
	http   *http.Server
	start  time.Time
}

// New wires the handler mux.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{opts: opts, logger: logger, start: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(opts.Registry))
	}
	mux.HandleFunc("/", s.handleStatic)

	s.http = &http.Server{
		Addr:              net.JoinHostPort("", fmt.Sprintf("%d", opts.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", s.http.Addr, "dir", s.opts.Dir)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Phase   string `json:"phase,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Name:    version.Name,
		Version: version.Version,
		Uptime:  time.Since(s.start).Truncate(time.Second).String(),
	}
	if s.opts.Phase != nil {
		resp.Phase = s.opts.Phase()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleStatic serves generated files, falling back to index.html for
// directory requests and 404.html for misses.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := resolvePath(s.opts.Dir, r.URL.Path)
	if err != nil {
		s.notFound(w, r)
		return
	}

	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		target = filepath.Join(target, "index.html")
		info, err = os.Stat(target)
	}
	if err != nil || info.IsDir() {
		s.notFound(w, r)
		return
	}

	http.ServeFile(w, r, target)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	custom := filepath.Join(s.opts.Dir, "404.html")
	if _, err := os.Stat(custom); err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		data, err := os.ReadFile(custom)
		if err == nil {
			_, _ = w.Write(data)
			return
		}
	}
	http.NotFound(w, r)
}

// resolvePath maps a request path into dir, rejecting traversal.
func resolvePath(dir, urlPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(urlPath))
	cleaned = strings.TrimPrefix(cleaned, string(filepath.Separator))
	if strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("path escapes root: %s", urlPath)
	}
	return filepath.Join(dir, cleaned), nil
}
