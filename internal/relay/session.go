package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/id"
	"github.com/gorilla/websocket"
)

var (
	// ErrSessionClosed is returned when writing to a closed session
	ErrSessionClosed = errors.New("relay session closed")
	// ErrSlowConsumer is returned when the session's send buffer is full
	ErrSlowConsumer = errors.New("relay session send buffer full")
)

// SessionInfo is a snapshot of a session for listing.
type SessionInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Ready       bool      `json:"ready"`
	Events      int64     `json:"events"`
	LastEvent   string    `json:"last_event,omitempty"`
	Origin      string    `json:"origin,omitempty"`
}

// Session is one connected embed page. It stands in for the page's frame:
// once the form reported loaded, ContentWindow returns the session itself
// and posted messages are relayed to the bridge.
type Session struct {
	id          id.RelayID
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time

	out        chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}

	ready     atomic.Bool
	events    atomic.Int64
	lastEvent atomic.Value
	origin    atomic.Value
}

func newSession(conn *websocket.Conn, buffer int) *Session {
	return &Session{
		id:          id.NewRelayID(),
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		out:         make(chan []byte, buffer),
		done:        make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
}

// ID returns the session ID
func (s *Session) ID() id.RelayID {
	return s.id
}

// Ready reports whether the form inside the page has loaded
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// ContentWindow implements docuseal.FrameHandle
func (s *Session) ContentWindow() docuseal.Window {
	if !s.Ready() {
		return nil
	}
	return s
}

// Origin implements docuseal.OriginFrame. It is the trusted origin the
// form's last event came from.
func (s *Session) Origin() string {
	origin, _ := s.origin.Load().(string)
	return origin
}

// PostMessage implements docuseal.Window by relaying payload to the bridge.
func (s *Session) PostMessage(payload []byte, targetOrigin string) error {
	return s.enqueue(Command{
		Type:    CommandPost,
		Origin:  targetOrigin,
		Message: payload,
	})
}

// Info returns a snapshot of the session
func (s *Session) Info() SessionInfo {
	info := SessionInfo{
		ID:          s.id.String(),
		RemoteAddr:  s.remoteAddr,
		ConnectedAt: s.connectedAt,
		Ready:       s.Ready(),
		Events:      s.events.Load(),
	}
	if last, ok := s.lastEvent.Load().(string); ok {
		info.LastEvent = last
	}
	info.Origin = s.Origin()
	return info
}

func (s *Session) observe(kind docuseal.EventType, origin string) {
	s.events.Add(1)
	s.lastEvent.Store(string(kind))
	if origin, err := docuseal.OriginOf(origin); err == nil {
		s.origin.Store(origin)
	}
}

func (s *Session) enqueue(cmd Command) error {
	data, err := encodeCommand(cmd)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.out <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSlowConsumer
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// writePump owns all writes to the connection.
func (s *Session) writePump(pingPeriod, writeWait time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		close(s.writerDone)
	}()

	for {
		select {
		case data := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
