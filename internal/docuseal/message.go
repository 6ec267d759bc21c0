package docuseal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// SourceDocuSeal marks payloads posted by the hosted form
	SourceDocuSeal = "docuseal"
	// SourceParent marks payloads posted by the host page
	SourceParent = "parent"
	// NamespacePrefix namespaces DocuSeal event types
	NamespacePrefix = "docuseal."
)

// EventType names an event posted by the embedded form.
type EventType string

// Known event types. Others are forwarded unchanged.
const (
	EventCompleted EventType = "completed"
	EventDeclined  EventType = "declined"
	EventError     EventType = "error"
	EventLoaded    EventType = "loaded"
	EventResize    EventType = "resize"
)

// Known reports whether t, with or without the namespace, is one of the documented types.
func (t EventType) Known() bool {
	switch t.Kind() {
	case EventCompleted, EventDeclined, EventError, EventLoaded, EventResize:
		return true
	}
	return false
}

// Kind strips the docuseal. namespace
func (t EventType) Kind() EventType {
	return EventType(strings.TrimPrefix(string(t), NamespacePrefix))
}

// InboundMessage is the raw payload of a message event received by the host page.
type InboundMessage struct {
	Source string          `json:"source,omitempty"`
	Type   string          `json:"type,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// IsMessage reports whether msg was posted by the embedded DocuSeal frame.
func IsMessage(msg InboundMessage) bool {
	return msg.Source == SourceDocuSeal || strings.HasPrefix(msg.Type, NamespacePrefix)
}

// Event is a classified DocuSeal message.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEvent extracts the event from msg, or returns nil when msg does not
// belong to DocuSeal. Type and data are copied exactly.
func ParseEvent(msg InboundMessage) *Event {
	if !IsMessage(msg) {
		return nil
	}
	return &Event{
		Type: EventType(msg.Type),
		Data: msg.Data,
	}
}

// Kind returns the event type without its namespace
func (e Event) Kind() EventType {
	return e.Type.Kind()
}

// Payload is the decoded, typed form of an event's data.
type Payload interface {
	Kind() EventType
}

// Completed is posted after the submitter finished the form.
type Completed struct {
	Fields map[string]any `json:"fields,omitempty"`
}

// Declined is posted when the submitter declined to sign.
type Declined struct {
	Reason string `json:"reason,omitempty"`
}

// Failed is posted when the hosted form reports an error.
type Failed struct {
	Message string `json:"message,omitempty"`
}

// Loaded is posted once the hosted form finished loading.
type Loaded struct{}

// Resized carries the new content height of the hosted form.
type Resized struct {
	Height float64 `json:"height"`
}

// Unknown wraps event types this package does not model.
type Unknown struct {
	Type EventType       `json:"type"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

func (Completed) Kind() EventType { return EventCompleted }
func (Declined) Kind() EventType  { return EventDeclined }
func (Failed) Kind() EventType    { return EventError }
func (Loaded) Kind() EventType    { return EventLoaded }
func (Resized) Kind() EventType   { return EventResize }
func (u Unknown) Kind() EventType { return u.Type }

// Payload decodes the event data into its typed variant.
func (e Event) Payload() (Payload, error) {
	switch e.Kind() {
	case EventCompleted:
		var p Completed
		if err := decodeObject(e.Data, &p.Fields); err != nil {
			return nil, fmt.Errorf("decode completed event: %w", err)
		}
		return p, nil
	case EventDeclined:
		var p Declined
		if err := decodeObject(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode declined event: %w", err)
		}
		return p, nil
	case EventError:
		var p Failed
		if s, ok := decodeString(e.Data); ok {
			p.Message = s
			return p, nil
		}
		if err := decodeObject(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return p, nil
	case EventLoaded:
		return Loaded{}, nil
	case EventResize:
		var p Resized
		// Height arrives either bare or as {"height": n}
		if err := json.Unmarshal(e.Data, &p.Height); err == nil {
			return p, nil
		}
		if err := decodeObject(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode resize event: %w", err)
		}
		return p, nil
	default:
		return Unknown{Type: e.Type, Raw: e.Data}, nil
	}
}

func decodeObject(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, v)
}

func decodeString(data json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

// Envelope is an inbound message together with the origin of the window that sent it.
type Envelope struct {
	Origin  string         `json:"origin"`
	Message InboundMessage `json:"message"`
}

// Classifier classifies envelopes against an origin allowlist.
type Classifier struct {
	wildcard bool
	origins  map[string]struct{}
	hosts    []string
}

// NewClassifier creates a classifier accepting messages from the given
// origins. "*" or an empty list accepts every origin.
func NewClassifier(allowedOrigins ...string) *Classifier {
	c := &Classifier{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = normalizeOrigin(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			c.wildcard = true
			continue
		}
		c.origins[origin] = struct{}{}
	}
	return c
}

// AllowHosts also accepts https origins served from hosts or their
// subdomains, the same hosts IsValidDocuSealURL accepts. It must be called
// before the classifier is shared.
func (c *Classifier) AllowHosts(hosts ...string) *Classifier {
	for _, host := range hosts {
		if host = normalizeHost(host); host != "" {
			c.hosts = append(c.hosts, host)
		}
	}
	return c
}

// AllowsOrigin reports whether messages from origin are accepted
func (c *Classifier) AllowsOrigin(origin string) bool {
	if c.wildcard || (len(c.origins) == 0 && len(c.hosts) == 0) {
		return true
	}
	origin = normalizeOrigin(origin)
	if _, ok := c.origins[origin]; ok {
		return true
	}
	if len(c.hosts) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Path != "" || u.RawQuery != "" || u.User != nil {
		return false
	}
	return hostAllowed(u.Hostname(), c.hosts)
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// Classify returns the event carried by env. It fails with ErrUntrustedOrigin
// or ErrForeignMessage when the envelope is rejected.
func (c *Classifier) Classify(env Envelope) (*Event, error) {
	if !c.AllowsOrigin(env.Origin) {
		return nil, fmt.Errorf("%w: %s", ErrUntrustedOrigin, env.Origin)
	}
	event := ParseEvent(env.Message)
	if event == nil {
		return nil, ErrForeignMessage
	}
	return event, nil
}
