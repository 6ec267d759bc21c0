package http

import (
	"net/http"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docuseal-embed/internal/probe"
	"github.com/GriffinCanCode/docuseal-embed/internal/relay"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Dependencies are the components the handlers serve.
type Dependencies struct {
	Renderer   *embed.Renderer
	Classifier *docuseal.Classifier
	Hub        *relay.Hub
	Prober     *probe.Prober
	Metrics    *monitoring.Metrics
	Bounds     docuseal.HeightBounds
	// Hosts are the allowed DocuSeal hosts
	Hosts []string
	// BaseURL is the DocuSeal instance slugs resolve against
	BaseURL string
	Logger  *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	renderer   *embed.Renderer
	classifier *docuseal.Classifier
	hub        *relay.Hub
	prober     *probe.Prober
	metrics    *monitoring.Metrics
	bounds     docuseal.HeightBounds
	hosts      []string
	baseURL    string
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Dependencies) *Handlers {
	if deps.Classifier == nil {
		deps.Classifier = docuseal.NewClassifier()
	}
	if deps.Bounds == (docuseal.HeightBounds{}) {
		deps.Bounds = docuseal.DefaultHeightBounds()
	}
	if len(deps.Hosts) == 0 {
		deps.Hosts = docuseal.DefaultHosts
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handlers{
		renderer:   deps.Renderer,
		classifier: deps.Classifier,
		hub:        deps.Hub,
		prober:     deps.Prober,
		metrics:    deps.Metrics,
		bounds:     deps.Bounds,
		hosts:      deps.Hosts,
		baseURL:    deps.BaseURL,
		logger:     deps.Logger,
	}
}

// Register mounts every route on r. Routes whose component is missing are skipped.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	r.GET("/bridge.js", h.BridgeScript)
	if h.renderer != nil {
		r.GET("/embed/form", h.EmbedForm)
		r.GET("/api/presets", h.ListPresets)
	}

	api := r.Group("/api")
	api.GET("/url", h.BuildURL)
	api.GET("/frame", h.Frame)
	api.GET("/height", h.Height)
	api.POST("/messages/classify", h.Classify)

	if h.prober != nil {
		api.GET("/probe", h.Probe)
	}

	if h.hub != nil {
		r.GET("/bridge", h.Bridge)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/messages", h.SendMessage)
		api.POST("/messages", h.Broadcast)
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "docuseal-embed",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	presets := 0
	if h.renderer != nil {
		presets = h.renderer.Presets().Len()
	}
	sessions := 0
	if h.hub != nil {
		sessions = len(h.hub.Sessions())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"presets":  presets,
		"sessions": sessions,
		"relay":    gin.H{"enabled": h.hub != nil},
		"probe":    gin.H{"enabled": h.prober != nil},
		"metrics":  h.metrics.Snapshot(),
	})
}
