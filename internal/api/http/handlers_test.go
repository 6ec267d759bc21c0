package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docuseal-embed/internal/probe"
	"github.com/GriffinCanCode/docuseal-embed/internal/relay"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/utils"
	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPresets = `
presets:
  nda:
    src: https://docuseal.com/d/nda
    role: Signer
`

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	hub     *relay.Hub
	metrics *monitoring.Metrics
}

func setupRouter(t *testing.T, prober *probe.Prober) *testEnv {
	t.Helper()

	presets, err := embed.ParsePresets([]byte(testPresets), embed.FormatYAML)
	require.NoError(t, err)

	bounds := docuseal.HeightBounds{Min: 400, Max: 1200}
	classifier := docuseal.NewClassifier("https://docuseal.com")
	sender, err := docuseal.NewSender("https://docuseal.com", nil)
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	hub, err := relay.NewHub(relay.Config{
		Classifier: classifier,
		Sender:     sender,
		Bounds:     bounds,
	}, nil, metrics)
	require.NoError(t, err)
	t.Cleanup(hub.Close)

	renderer := embed.NewRenderer(embed.Options{
		Bounds:         bounds,
		TargetOrigin:   "https://docuseal.com",
		AllowedOrigins: []string{"https://docuseal.com"},
		BridgePath:     "/bridge",
	}, presets)

	handlers := NewHandlers(Dependencies{
		Renderer:   renderer,
		Classifier: classifier,
		Hub:        hub,
		Prober:     prober,
		Metrics:    metrics,
		Bounds:     bounds,
		BaseURL:    "https://docuseal.com",
	})

	router := gin.New()
	handlers.Register(router)
	return &testEnv{router: router, hub: hub, metrics: metrics}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRootAndHealth(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "docuseal-embed", decode(t, w)["service"])

	w = env.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, 1.0, body["presets"])
	assert.Equal(t, 0.0, body["sessions"])
	assert.Equal(t, map[string]any{"enabled": false}, body["probe"])
	assert.Contains(t, body, "metrics")
}

func TestEmbedForm(t *testing.T) {
	env := setupRouter(t, nil)

	tests := []struct {
		name    string
		target  string
		status  int
		wantSrc string
	}{
		{
			name:    "explicit source",
			target:  "/embed/form?src=https://docuseal.com/d/abc&email=a@b.co",
			status:  http.StatusOK,
			wantSrc: "https://docuseal.com/d/abc?email=a%40b.co",
		},
		{
			name:    "slug",
			target:  "/embed/form?slug=xyz",
			status:  http.StatusOK,
			wantSrc: "https://docuseal.com/d/xyz",
		},
		{
			name:    "preset",
			target:  "/embed/form?preset=nda&name=Ada",
			status:  http.StatusOK,
			wantSrc: "https://docuseal.com/d/nda?name=Ada&role=Signer",
		},
		{name: "missing source", target: "/embed/form", status: http.StatusBadRequest},
		{name: "untrusted source", target: "/embed/form?src=https://evil.example/d/abc", status: http.StatusBadRequest},
		{name: "unknown preset", target: "/embed/form?preset=missing", status: http.StatusNotFound},
		{name: "invalid email", target: "/embed/form?src=https://docuseal.com/d/abc&email=nope", status: http.StatusBadRequest},
		{name: "invalid slug", target: "/embed/form?slug=a/b", status: http.StatusBadRequest},
		{name: "bad fullscreen flag", target: "/embed/form?src=https://docuseal.com/d/abc&fullscreen=maybe", status: http.StatusBadRequest},
		{
			name:    "display flags",
			target:  "/embed/form?src=https://docuseal.com/d/abc&preview=true&with_title=false",
			status:  http.StatusOK,
			wantSrc: "https://docuseal.com/d/abc?preview=true&with_title=false",
		},
		{name: "bad display flag", target: "/embed/form?src=https://docuseal.com/d/abc&expand=sometimes", status: http.StatusBadRequest},
		{name: "script source", target: "/embed/form?src=javascript://docuseal.com/%250aalert(document.domain)", status: http.StatusBadRequest},
		{name: "script redirect", target: "/embed/form?src=https://docuseal.com/d/abc&redirect=javascript://x.com/%250aalert(1)", status: http.StatusBadRequest},
		{name: "name too long", target: "/embed/form?src=https://docuseal.com/d/abc&name=" + strings.Repeat("a", utils.MaxNameLength+1), status: http.StatusBadRequest},
		{name: "title too long", target: "/embed/form?src=https://docuseal.com/d/abc&title=" + strings.Repeat("t", utils.MaxTitleLength+1), status: http.StatusBadRequest},
		{name: "completed body too long", target: "/embed/form?src=https://docuseal.com/d/abc&completed_body=" + strings.Repeat("b", utils.MaxBodyLength+1), status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.target, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, decode(t, w), "error")
				return
			}

			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.True(t, strings.HasPrefix(w.Header().Get("X-Frame-ID"), "docuseal-frame-"))

			doc, err := goquery.NewDocumentFromReader(w.Body)
			require.NoError(t, err)
			src, ok := doc.Find("iframe").Attr("src")
			require.True(t, ok)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}

func TestBridgeScriptAndPresets(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(http.MethodGet, "/bridge.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	assert.Equal(t, embed.BridgeScript(), w.Body.String())

	w = env.do(http.MethodGet, "/api/presets", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"nda"}, decode(t, w)["presets"])
}

func TestBuildURL(t *testing.T) {
	env := setupRouter(t, nil)

	tests := []struct {
		name    string
		target  string
		status  int
		wantURL string
		trusted bool
	}{
		{
			name:    "adds parameters",
			target:  "/api/url?src=https://docuseal.com/d/abc&email=a@b.co",
			status:  http.StatusOK,
			wantURL: "https://docuseal.com/d/abc?email=a%40b.co",
			trusted: true,
		},
		{
			name:    "foreign host is built but untrusted",
			target:  "/api/url?src=https://example.com/form",
			status:  http.StatusOK,
			wantURL: "https://example.com/form",
		},
		{name: "missing src", target: "/api/url", status: http.StatusBadRequest},
		{name: "relative src", target: "/api/url?src=/d/abc", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.target, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			if tt.status != http.StatusOK {
				assert.Contains(t, body, "error")
				return
			}
			assert.Equal(t, tt.wantURL, body["url"])
			assert.Equal(t, tt.trusted, body["trusted"])
		})
	}
}

func TestFrame(t *testing.T) {
	env := setupRouter(t, nil)

	w := env.do(http.MethodGet, "/api/frame?src=https://docuseal.com/d/abc&title=NDA&fullscreen=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	attrs, ok := body["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://docuseal.com/d/abc", attrs["src"])
	assert.Equal(t, "NDA", attrs["title"])
	assert.Equal(t, docuseal.FramePermissions, attrs["allow"])
	assert.Equal(t, "true", attrs["allowfullscreen"])
	assert.Contains(t, body["html"], "<iframe")
	assert.Equal(t, true, body["trusted"])

	w = env.do(http.MethodGet, "/api/frame", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeight(t *testing.T) {
	env := setupRouter(t, nil)

	tests := []struct {
		content string
		status  int
		want    float64
	}{
		{"100", http.StatusOK, 400},
		{"750.5", http.StatusOK, 750.5},
		{"9000", http.StatusOK, 1200},
		{"tall", http.StatusBadRequest, 0},
		{"", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run("content="+tt.content, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/height?content="+tt.content, "")
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.want, decode(t, w)["height"])
			}
		})
	}
}

func TestClassify(t *testing.T) {
	env := setupRouter(t, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		belongs bool
		trusted bool
		kind    string
	}{
		{
			name:    "trusted resize",
			body:    `{"origin":"https://docuseal.com","message":{"type":"docuseal.resize","data":{"height":500}}}`,
			status:  http.StatusOK,
			belongs: true,
			trusted: true,
			kind:    "resize",
		},
		{
			name:    "foreign message",
			body:    `{"origin":"https://docuseal.com","message":{"type":"resize"}}`,
			status:  http.StatusOK,
			trusted: true,
		},
		{
			name:   "untrusted origin",
			body:   `{"origin":"https://evil.example","message":{"source":"docuseal","type":"completed"}}`,
			status: http.StatusOK,
		},
		{name: "malformed", body: `{"origin":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/messages/classify", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			if tt.status != http.StatusOK {
				assert.Contains(t, body, "error")
				return
			}
			assert.Equal(t, tt.belongs, body["belongs"])
			assert.Equal(t, tt.trusted, body["trusted"])
			if tt.kind != "" {
				assert.Equal(t, tt.kind, body["kind"])
			}
		})
	}

	w := env.do(http.MethodPost, "/api/messages/classify",
		`{"origin":"https://docuseal.com","message":{"type":"docuseal.resize","data":{"height":500}}}`)
	payload, ok := decode(t, w)["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 500.0, payload["height"])
}

func TestProbeEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>NDA</title></head><body></body></html>`))
	}))
	defer upstream.Close()

	cfg := probe.DefaultConfig()
	cfg.RequestsPerSecond = 0
	cfg.AllowedHosts = []string{"127.0.0.1"}
	cfg.Retry = docuseal.RetryConfig{MaxRetries: 1, Delay: time.Millisecond}
	env := setupRouter(t, probe.New(cfg, nil, nil))

	w := env.do(http.MethodGet, "/api/probe?url="+upstream.URL+"/d/abc", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["reachable"])
	assert.Equal(t, "NDA", body["title"])

	w = env.do(http.MethodGet, "/api/probe?url=https://evil.example/d/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/probe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProbeRouteAbsentWithoutProber(t *testing.T) {
	env := setupRouter(t, nil)
	w := env.do(http.MethodGet, "/api/probe?url=https://docuseal.com/d/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionsAndMessages(t *testing.T) {
	env := setupRouter(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/bridge", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() relay.Command {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		cmd, err := relay.DecodeCommand(data)
		require.NoError(t, err)
		return cmd
	}

	ready := read()
	require.Equal(t, relay.CommandReady, ready.Type)
	sessionID := ready.Session

	w := env.do(http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["count"])

	w = env.do(http.MethodGet, "/api/sessions/"+sessionID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["ready"])

	msg := `{"type":"prefill","data":{"name":"Ada"}}`

	w = env.do(http.MethodPost, "/api/sessions/"+sessionID+"/messages", msg)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "skipped", decode(t, w)["delivery"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"origin":"https://docuseal.com","message":{"source":"docuseal","type":"loaded"}}`)))
	assert.Equal(t, relay.CommandAck, read().Type)

	w = env.do(http.MethodPost, "/api/sessions/"+sessionID+"/messages", msg)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sent", decode(t, w)["delivery"])
	assert.Equal(t, relay.CommandPost, read().Type)

	w = env.do(http.MethodPost, "/api/messages", msg)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["sent"])
	assert.Equal(t, relay.CommandPost, read().Type)

	w = env.do(http.MethodPost, "/api/sessions/"+sessionID+"/messages", `{"data":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/sessions/relay_missing/messages", msg)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/sessions/relay_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/sessions/bad.id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	oversized := `{"type":"prefill","data":"` + strings.Repeat("x", utils.MaxMessageSize) + `"}`
	w = env.do(http.MethodPost, "/api/sessions/"+sessionID+"/messages", oversized)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	w = env.do(http.MethodPost, "/api/messages", oversized)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupRouter(t, nil)
	env.do(http.MethodGet, "/api/height?content=10", "")

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docuseal_embed_")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid url", &docuseal.InvalidURLError{URL: "x"}, http.StatusBadRequest},
		{"missing source", embed.ErrMissingSource, http.StatusBadRequest},
		{"unknown preset", embed.ErrUnknownPreset, http.StatusNotFound},
		{"probe disabled", probe.ErrDisabled, http.StatusServiceUnavailable},
		{"retries exhausted", &docuseal.Error{Code: docuseal.CodeRetryExceeded}, http.StatusBadGateway},
		{"upstream status", &probe.StatusError{Status: 503}, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
