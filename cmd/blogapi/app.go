package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/WhileEndless/go-httpmessage/pkg/bridge"
	"github.com/WhileEndless/go-httpmessage/pkg/cache"
	"github.com/WhileEndless/go-httpmessage/pkg/config"
	"github.com/WhileEndless/go-httpmessage/pkg/factory"
	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/middleware"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
	"github.com/WhileEndless/go-httpmessage/pkg/version"
)

// postsHandler answers every API request with a description of it
type postsHandler struct {
	responses factory.ResponseFactory
	streams   factory.StreamFactory
}

func (h postsHandler) Handle(req message.ServerRequest) (message.Response, error) {
	data, err := json.Marshal(map[string]string{
		"message": "Blog API response",
		"method":  req.Method(),
		"path":    req.URI().Path(),
	})
	if err != nil {
		return message.Response{}, err
	}
	return h.responses.CreateResponse(200, "").
		WithHeader("Content-Type", "application/json").
		WithBody(h.streams.CreateStream(string(data))), nil
}

// newPipeline wires the API middleware around the posts handler. The cache
// may be nil.
func newPipeline(cfg config.Config, log logging.Logger, provider cache.Provider) *middleware.Pipeline {
	f := factory.New()

	p := middleware.New(postsHandler{responses: f, streams: f}).
		Pipe(middleware.NewRecovery(middleware.RecoveryConfig{Logger: log})).
		Pipe(middleware.NewRequestID(false)).
		Pipe(middleware.NewLogging(log)).
		Pipe(middleware.NewAuth(f, cfg.Token))

	if cfg.Compression.Enabled {
		p.Pipe(middleware.NewCompression(middleware.CompressionConfig{Level: cfg.Compression.Level}))
	}
	if provider != nil {
		p.Pipe(middleware.NewCache(middleware.CacheConfig{
			Provider: provider,
			TTL:      cfg.Cache.TTL,
			Name:     "blogapi",
			Logger:   log,
		}))
	}
	return p
}

// newRouter mounts the pipeline under /api next to a health endpoint
func newRouter(p *middleware.Pipeline, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("access")
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok " + version.GetVersion()))
	})
	r.Handle("/api/*", bridge.Handler(p, logging.NewAdapter(logger)))
	return r
}

// newServer serves the router over HTTP/1.1 and cleartext HTTP/2
func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// runDemo sends the three demo requests through p and prints the outcome
func runDemo(w io.Writer, p *middleware.Pipeline, token string) error {
	f := factory.New()

	fmt.Fprintln(w, "=== Blog API Demo ===")
	fmt.Fprintln(w)

	resp := f.CreateResponse(200, "")
	fmt.Fprintf(w, "Created response: HTTP %d %s\n", resp.StatusCode(), resp.ReasonPhrase())
	fmt.Fprintf(w, "Created stream: %s\n", f.CreateStream("Hello from StreamFactory!"))

	scenarios := []struct {
		title         string
		authorization string
	}{
		{"1) Authenticated request (valid token):", "Bearer " + token},
		{"2) Unauthenticated request (no token):", ""},
		{"3) Request with invalid token:", "Bearer wrong-token"},
	}

	for _, s := range scenarios {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.title)

		req := message.NewServerRequest("GET", uri.MustParse("/api/posts"), nil)
		if s.authorization != "" {
			req = req.WithHeader("Authorization", s.authorization)
		}
		resp, err := p.Handle(req)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "   Status: HTTP %d %s\n", resp.StatusCode(), resp.ReasonPhrase())
		if resp.IsSuccess() {
			fmt.Fprintf(w, "   Body: %s\n", resp.Body())
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Demo Complete ===")
	return nil
}
