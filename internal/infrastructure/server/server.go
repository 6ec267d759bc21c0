package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/docuseal-embed/internal/api/http"
	"github.com/GriffinCanCode/docuseal-embed/internal/api/middleware"
	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/config"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/logging"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docuseal-embed/internal/probe"
	"github.com/GriffinCanCode/docuseal-embed/internal/relay"
)

// BridgePath is where embed pages open the relay websocket
const BridgePath = "/bridge"

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	hub     *relay.Hub
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newServer(cfg, logger)
}

func newServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing docuseal-embed server",
		zap.String("port", cfg.Server.Port),
		zap.String("docuseal_host", cfg.DocuSeal.Host),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("docuseal-embed", logger.Component("tracing"))

	targetOrigin, err := cfg.DocuSeal.Origin()
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("target origin: %w", err)
	}
	frameOrigins := allowedOrigins(cfg.DocuSeal)

	var presets *embed.Presets
	if cfg.DocuSeal.Presets != "" {
		presets, err = embed.LoadPresets(cfg.DocuSeal.Presets)
		if err != nil {
			tracer.Close()
			return nil, err
		}
		logger.Info("Loaded form presets",
			zap.String("path", cfg.DocuSeal.Presets),
			zap.Strings("names", presets.Names()))
	}

	classifier := docuseal.NewClassifier(frameOrigins...).AllowHosts(cfg.DocuSeal.AllowedHosts...)
	sender, err := docuseal.NewSender(targetOrigin, logger.Component("sender"))
	if err != nil {
		tracer.Close()
		return nil, err
	}
	// without an explicit target each form is addressed at its own origin
	pageTarget := targetOrigin
	if cfg.DocuSeal.TargetOrigin == "" {
		sender.FollowFrameOrigin(classifier)
		pageTarget = ""
	}

	hub, err := relay.NewHub(relay.Config{
		Classifier:  classifier,
		Sender:      sender,
		Bounds:      cfg.Frame.Bounds(),
		PageOrigins: cfg.CORS.AllowOrigins,
	}, logger.Component("relay"), metrics)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	renderer := embed.NewRenderer(embed.Options{
		Hosts: cfg.DocuSeal.AllowedHosts,
		Frame: docuseal.FrameConfig{
			Title:           cfg.Frame.Title,
			AllowFullscreen: cfg.Frame.AllowFullscreen,
		},
		Bounds:         cfg.Frame.Bounds(),
		TargetOrigin:   pageTarget,
		AllowedOrigins: frameOrigins,
		BridgePath:     BridgePath,
	}, presets)

	var prober *probe.Prober
	if cfg.Probe.Enabled {
		prober = probe.New(probe.Config{
			Enabled:           true,
			Timeout:           cfg.Probe.Timeout,
			RequestsPerSecond: cfg.Probe.RequestsPerSecond,
			Retry:             cfg.Retry.Policy(),
			AllowedHosts:      cfg.DocuSeal.AllowedHosts,
		}, logger.Component("probe"), metrics)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.CORS.AllowOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := apihttp.NewHandlers(apihttp.Dependencies{
		Renderer:   renderer,
		Classifier: classifier,
		Hub:        hub,
		Prober:     prober,
		Metrics:    metrics,
		Bounds:     cfg.Frame.Bounds(),
		Hosts:      cfg.DocuSeal.AllowedHosts,
		BaseURL:    cfg.DocuSeal.Host,
		Logger:     logger.Component("api"),
	})
	handlers.Register(router)

	s := &Server{
		router:  router,
		hub:     hub,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully",
		zap.String("target_origin", targetOrigin),
		zap.Strings("frame_origins", frameOrigins),
		zap.Bool("probe", prober != nil),
	)
	return s, nil
}

// Handler returns the root handler. Responses are gzip-compressed when
// enabled, except websocket upgrades which need the raw connection.
func (s *Server) Handler() http.Handler {
	if !s.config.Server.Gzip {
		return s.router
	}
	compressed := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// Metrics returns the server metrics
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.hub.Close()
	err := s.httpSrv.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close shuts the server down with a short grace period
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// allowedOrigins lists the origins frames may post messages from: the
// configured host plus every allowed host over https.
func allowedOrigins(cfg config.DocuSealConfig) []string {
	seen := make(map[string]bool)
	var origins []string
	add := func(origin string) {
		origin = strings.ToLower(origin)
		if origin != "" && !seen[origin] {
			seen[origin] = true
			origins = append(origins, origin)
		}
	}

	if origin, err := docuseal.OriginOf(cfg.Host); err == nil {
		add(origin)
	}
	for _, host := range cfg.AllowedHosts {
		host = strings.TrimSpace(host)
		if host != "" {
			add("https://" + host)
		}
	}
	return origins
}
