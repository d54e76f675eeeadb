package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"pairlens/internal/config"
	"pairlens/pkg/model"
)

//go:embed static
var staticFiles embed.FS

// Analyzer produces a per-ticker analysis
type Analyzer interface {
	Analyze(ctx context.Context, ticker, period string) (*model.StockAnalysis, error)
}

// Composer generates the comparison report from two analyses
type Composer interface {
	Compose(ctx context.Context, a, b *model.StockAnalysis, apiKey string) (*model.Report, error)
}

// Server represents the web server
type Server struct {
	config      *config.Config
	newAnalyzer func() Analyzer
	composer    Composer
	srv         *http.Server
}

// NewServer creates a new web server. newAnalyzer is invoked once per
// incoming run; nothing fetched for one request survives into the next.
func NewServer(cfg *config.Config, newAnalyzer func() Analyzer, composer Composer) *Server {
	return &Server{
		config:      cfg,
		newAnalyzer: newAnalyzer,
		composer:    composer,
	}
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/stock/", s.handleStock)
	mux.HandleFunc("/api/periods", s.handlePeriods)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static file system: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting Pairlens Web UI at http://localhost:%d", port)
	log.Printf("Press Ctrl+C to stop")

	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers for local development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
