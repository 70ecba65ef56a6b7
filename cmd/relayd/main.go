package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edgekit/relay/config"
	"github.com/edgekit/relay/handler"
	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/server"
	"github.com/edgekit/relay/server/metrics"
	"github.com/edgekit/relay/state"
)

var (
	configFile = flag.String("config", "relay.yaml", "Path to configuration file")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
	version    = flag.Bool("version", false, "Print version and exit")
)

const Version = "v0.1.0"

var errDocumentNotFound = errors.New("document not found")

// documentStore is the demo backend served by relayd. It exists to give
// every mapping combinator a realistic call site.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

func newDocumentStore() *documentStore {
	return &documentStore{
		docs: map[string]string{
			"readme": "relay document store",
		},
	}
}

func (d *documentStore) get(name string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	content, ok := d.docs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errDocumentNotFound, name)
	}
	return content, nil
}

func (d *documentStore) list() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.docs))
	for name := range d.docs {
		names = append(names, name)
	}
	return names, nil
}

func (d *documentStore) put(name, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[name] = content
}

// getDocument maps the lookup failure to a plain 404: status-only mapping,
// no rendering cost.
func (d *documentStore) getDocument(s *state.State, r *http.Request) (response.Renderer, error) {
	content, err := d.get(chi.URLParam(r, "name"))
	if err != nil {
		return nil, handler.MapErrWithStatus(err, http.StatusNotFound)
	}
	return response.Text(http.StatusOK, content), nil
}

// listDocuments runs the listing asynchronously and maps the error case
// through the mapping future.
func (d *documentStore) listDocuments(s *state.State, r *http.Request) (response.Renderer, error) {
	fut := handler.MapFutureErrWithStatus(handler.Async(d.list), http.StatusServiceUnavailable)
	names, err := handler.Await(r.Context(), fut)
	if err != nil {
		return nil, err
	}
	return response.JSON(http.StatusOK, map[string][]string{"documents": names}), nil
}

type putDocumentRequest struct {
	Content string `json:"content"`
}

// putDocument demonstrates the mapped-error combinator: the closure gets to
// inspect the decode failure, build a 400 payload from it, and hand the
// cause back for boxing.
func (d *documentStore) putDocument(s *state.State, r *http.Request) (response.Renderer, error) {
	var req putDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, handler.MapErrToCustomizedResponse(err, s,
			func(cause error, _ *state.State) (error, response.Renderer) {
				return cause, response.JSON(http.StatusBadRequest, map[string]string{
					"error":  "invalid document payload",
					"detail": cause.Error(),
				})
			})
	}
	d.put(chi.URLParam(r, "name"), req.Content)
	return response.JSON(http.StatusCreated, map[string]string{"status": "created"}), nil
}

// upstreamStatus demonstrates the fixed-response combinator: the upstream
// probe failure is still reported to the client as a 200 degraded page, and
// the body is negotiated against the request.
func upstreamStatus(s *state.State, _ *http.Request) (response.Renderer, error) {
	if err := probeUpstream(); err != nil {
		return nil, handler.MapErrWithCustomizedResponse(err, s,
			func(s *state.State) response.Renderer {
				if s.Accepts("application/json") {
					return response.JSON(http.StatusOK, map[string]bool{
						"ok":       false,
						"degraded": true,
					})
				}
				return response.Text(http.StatusOK, "degraded")
			})
	}
	return response.JSON(http.StatusOK, map[string]bool{"ok": true}), nil
}

func probeUpstream() error {
	// No upstream in the demo deployment.
	return errors.New("upstream probe not configured")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("relayd %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !*validate {
			cfg = config.DefaultConfig()
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	handler.SetLogger(logger)

	m := metrics.NewMetrics()
	router := server.NewRouter(cfg, logger, m)

	store := newDocumentStore()
	breaker := handler.NewBreaker(handler.BreakerConfig{
		Name:             "documents",
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		ResetTimeout:     cfg.CircuitBreaker.ResetTimeout,
		HalfOpenRequests: cfg.CircuitBreaker.HalfOpenRequests,
	}, logger)

	router.Handle(http.MethodGet, "/documents", store.listDocuments)
	router.Handle(http.MethodGet, "/documents/{name}", breaker.Wrap(store.getDocument))
	router.Handle(http.MethodPut, "/documents/{name}", store.putDocument)
	router.Handle(http.MethodGet, "/status", upstreamStatus)

	srv := server.NewServer(cfg.Server, router, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("starting relayd", zap.String("version", Version), zap.Int("port", cfg.Server.Port))
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
