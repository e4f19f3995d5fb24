// Package devserver serves a development build with history fallback and live reload.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/buildpreset/internal/http"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

const (
	DefaultPort    = 3000
	LivereloadPath = "/livereload"
)

var noDeadline time.Time

// Config is the dev server configuration read from the serve plugin options.
type Config struct {
	Host               string
	Port               int
	ContentBase        string
	HistoryAPIFallback bool
	Headers            map[string]string
}

// ConfigFromOptions reads the serve plugin options. Unknown keys are ignored and values of the
// wrong type fall back to the defaults.
func ConfigFromOptions(opts preset.ServeOptions) Config {
	cfg := Config{Host: "localhost", Port: DefaultPort}

	if v, ok := opts["host"].(string); ok && v != "" {
		cfg.Host = v
	}
	if v, ok := opts["contentBase"].(string); ok {
		cfg.ContentBase = v
	}
	if v, ok := opts["historyApiFallback"].(bool); ok {
		cfg.HistoryAPIFallback = v
	}

	switch v := opts["port"].(type) {
	case int:
		cfg.Port = v
	case float64:
		cfg.Port = int(v)
	case string:
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}

	if headers, ok := opts["headers"].(map[string]any); ok {
		cfg.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			if s, ok := v.(string); ok {
				cfg.Headers[k] = s
			}
		}
	}

	return cfg
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server serves the build output and the live reload stream.
type Server struct {
	config Config
	hub    *Hub
}

func New(config Config) *Server {
	return &Server{config: config, hub: NewHub()}
}

// Reload notifies connected browsers that the build changed.
func (s *Server) Reload() {
	s.hub.Broadcast()
}

// Handler returns the dev server routes wrapped with CORS and request logging.
func (s *Server) Handler(logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(LivereloadPath, s.hub)
	mux.Handle("/", s.static())

	handler := cors.AllowAll().Handler(mux)
	return httpmiddleware.RequestLogger(logger)(handler)
}

func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.config.ContentBase))
	index := filepath.Join(s.config.ContentBase, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range s.config.Headers {
			w.Header().Set(k, v)
		}

		if s.config.HistoryAPIFallback && s.fallback(r) {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, index)
			return
		}

		files.ServeHTTP(w, r)
	})
}

// fallback reports whether the request is a page navigation for a path with no file, which
// is answered with the index page so client side routing can take over.
func (s *Server) fallback(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	clean := path.Clean("/" + r.URL.Path)
	if path.Ext(clean) != "" {
		return false
	}

	_, err := os.Stat(filepath.Join(s.config.ContentBase, filepath.FromSlash(clean)))
	return errors.Is(err, os.ErrNotExist)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	log := zerolog.Ctx(ctx)
	srv := configureHTTPServer(s.config.Addr(), s.Handler(*log))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", "http://"+s.config.Addr()).Str("dir", s.config.ContentBase).Msg("Starting dev server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// live reload streams never finish on their own
	srv.RegisterOnShutdown(s.hub.closeAll)
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("dev server shutdown failed: %w", err)
	}
	return nil
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
