package relay

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/id"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/utils"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Recorder receives relay metrics. *monitoring.Metrics implements it.
type Recorder interface {
	RecordClassified(kind, result string)
	RecordSent(msgType, delivery string)
	RecordWSMessage(direction, msgType string)
	IncWSConnections()
	DecWSConnections()
}

type nopRecorder struct{}

func (nopRecorder) RecordClassified(string, string) {}
func (nopRecorder) RecordSent(string, string)       {}
func (nopRecorder) RecordWSMessage(string, string)  {}
func (nopRecorder) IncWSConnections()               {}
func (nopRecorder) DecWSConnections()               {}

// EventFunc observes every accepted event after the hub handled it.
type EventFunc func(session SessionInfo, event *docuseal.Event, payload docuseal.Payload)

// Config configures a Hub.
type Config struct {
	// Classifier decides which frame messages are trusted
	Classifier *docuseal.Classifier
	// Sender posts outbound messages into frames
	Sender *docuseal.Sender
	// Bounds clamps heights reported by resize events
	Bounds docuseal.HeightBounds
	// PageOrigins may open the websocket. Empty allows same-host pages
	// only; "*" allows any.
	PageOrigins []string
	// OnEvent is optional
	OnEvent EventFunc
}

// Hub accepts bridge connections and tracks their sessions.
type Hub struct {
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[id.RelayID]*Session
}

// NewHub creates a hub. A nil logger or recorder discards output.
func NewHub(cfg Config, logger *zap.Logger, recorder Recorder) (*Hub, error) {
	if cfg.Classifier == nil {
		return nil, errors.New("relay: classifier is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("relay: sender is required")
	}
	if cfg.Bounds == (docuseal.HeightBounds{}) {
		cfg.Bounds = docuseal.DefaultHeightBounds()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		sessions: make(map[id.RelayID]*Session),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

// ServeHTTP upgrades the request and serves the session until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(conn, sendBuffer)
	h.register(s)
	defer h.unregister(s)

	go s.writePump(pingPeriod, writeWait)
	h.command(s, Command{Type: CommandReady, Session: s.id.String()})

	h.readLoop(s)
}

// Send posts msg into the frame of the given session. Unknown sessions and
// frames that have not loaded are skipped with a warning.
func (h *Hub) Send(sessionID string, msg docuseal.OutboundMessage) (docuseal.Delivery, error) {
	var frame docuseal.FrameHandle
	if s, ok := h.session(id.RelayID(sessionID)); ok {
		frame = s
	}

	delivery, err := h.cfg.Sender.Send(frame, msg)
	h.recorder.RecordSent(msg.Type, delivery.String())
	if err == nil && delivery == docuseal.DeliverySent {
		h.recorder.RecordWSMessage("out", CommandPost)
	}
	return delivery, err
}

// Broadcast posts msg to every ready session and returns how many got it.
func (h *Hub) Broadcast(msg docuseal.OutboundMessage) int {
	sent := 0
	for _, info := range h.Sessions() {
		if !info.Ready {
			continue
		}
		if delivery, err := h.Send(info.ID, msg); err == nil && delivery == docuseal.DeliverySent {
			sent++
		}
	}
	return sent
}

// Sessions lists connected sessions, oldest first.
func (h *Hub) Sessions() []SessionInfo {
	h.mu.RLock()
	infos := make([]SessionInfo, 0, len(h.sessions))
	for _, s := range h.sessions {
		infos = append(infos, s.Info())
	}
	h.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Session returns the info of one session
func (h *Hub) Session(sessionID string) (SessionInfo, bool) {
	s, ok := h.session(id.RelayID(sessionID))
	if !ok {
		return SessionInfo{}, false
	}
	return s.Info(), true
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.close()
	}
}

func (h *Hub) session(sessionID id.RelayID) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	h.recorder.IncWSConnections()
	h.logger.Info("Bridge connected",
		zap.String("session", s.id.String()),
		zap.String("remote_addr", s.remoteAddr))
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()

	h.recorder.DecWSConnections()
	h.logger.Info("Bridge disconnected",
		zap.String("session", s.id.String()),
		zap.Int64("events", s.events.Load()))
}

func (h *Hub) readLoop(s *Session) {
	defer func() {
		s.close()
		<-s.writerDone
	}()

	s.conn.SetReadLimit(utils.MaxEnvelopeSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read error",
					zap.String("session", s.id.String()),
					zap.Error(err))
			}
			return
		}
		h.handle(s, data)
	}
}

func (h *Hub) handle(s *Session, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		h.recorder.RecordWSMessage("in", "invalid")
		h.command(s, Command{Type: CommandError, Error: "malformed envelope"})
		return
	}

	event, err := h.cfg.Classifier.Classify(env)
	switch {
	case errors.Is(err, docuseal.ErrUntrustedOrigin):
		h.recorder.RecordClassified("", "untrusted")
		h.logger.Warn("Rejected message from untrusted origin",
			zap.String("session", s.id.String()),
			zap.String("origin", env.Origin))
		h.command(s, Command{Type: CommandError, Origin: env.Origin, Error: "untrusted origin"})
		return
	case errors.Is(err, docuseal.ErrForeignMessage):
		h.recorder.RecordClassified("", "foreign")
		return
	case err != nil:
		h.command(s, Command{Type: CommandError, Error: err.Error()})
		return
	}

	kind := event.Kind()
	h.recorder.RecordWSMessage("in", string(kind))
	s.observe(kind, env.Origin)

	payload, err := event.Payload()
	if err != nil {
		h.recorder.RecordClassified(string(kind), "invalid")
		h.command(s, Command{Type: CommandError, Kind: string(kind), Error: err.Error()})
		return
	}
	h.recorder.RecordClassified(string(kind), "accepted")

	fields := []zap.Field{zap.String("session", s.id.String()), zap.String("kind", string(kind))}
	switch p := payload.(type) {
	case docuseal.Resized:
		height := docuseal.CalculateIframeHeight(p.Height, h.cfg.Bounds)
		h.command(s, Command{Type: CommandHeight, Kind: string(kind), Height: height})
	case docuseal.Loaded:
		s.ready.Store(true)
		h.logger.Debug("Form loaded", fields...)
		h.command(s, Command{Type: CommandAck, Kind: string(kind)})
	case docuseal.Completed:
		h.logger.Info("Form completed", append(fields, zap.Int("fields", len(p.Fields)))...)
		h.command(s, Command{Type: CommandAck, Kind: string(kind)})
	case docuseal.Declined:
		h.logger.Info("Form declined", append(fields, zap.String("reason", p.Reason))...)
		h.command(s, Command{Type: CommandAck, Kind: string(kind)})
	case docuseal.Failed:
		h.logger.Warn("Form reported an error", append(fields, zap.String("message", p.Message))...)
		h.command(s, Command{Type: CommandAck, Kind: string(kind)})
	default:
		h.logger.Debug("Unmodeled form event", fields...)
		h.command(s, Command{Type: CommandAck, Kind: string(kind)})
	}

	if h.cfg.OnEvent != nil {
		h.cfg.OnEvent(s.Info(), event, payload)
	}
}

func (h *Hub) command(s *Session, cmd Command) {
	if err := s.enqueue(cmd); err != nil {
		h.logger.Debug("Dropped relay command",
			zap.String("session", s.id.String()),
			zap.String("type", cmd.Type),
			zap.Error(err))
		return
	}
	h.recorder.RecordWSMessage("out", cmd.Type)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.PageOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
