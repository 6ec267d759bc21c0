package docuseal

import (
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Window is the content context of an embedded frame.
type Window interface {
	PostMessage(payload []byte, targetOrigin string) error
}

// FrameHandle refers to a mounted frame. ContentWindow returns nil until the
// frame has loaded.
type FrameHandle interface {
	ContentWindow() Window
}

// OriginFrame is a FrameHandle that knows the origin its document was
// loaded from. Origin returns "" while unknown.
type OriginFrame interface {
	FrameHandle
	Origin() string
}

// OutboundMessage is a message for the embedded frame.
type OutboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type wireMessage struct {
	Source string `json:"source"`
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
}

// Encode serializes msg tagged with the parent source marker
func (m OutboundMessage) Encode() ([]byte, error) {
	return sonic.ConfigStd.Marshal(wireMessage{
		Source: SourceParent,
		Type:   m.Type,
		Data:   m.Data,
	})
}

// Delivery is the outcome of Sender.Send.
type Delivery int

const (
	// DeliverySkipped means the frame was not ready and nothing was sent
	DeliverySkipped Delivery = iota
	// DeliverySent means the message was handed to the content window
	DeliverySent
)

// String returns the string representation of the delivery
func (d Delivery) String() string {
	switch d {
	case DeliverySent:
		return "sent"
	case DeliverySkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Sender posts outbound messages to a frame restricted to one target origin.
type Sender struct {
	targetOrigin string
	follow       *Classifier
	logger       *zap.Logger
}

// NewSender creates a sender. targetOrigin must be an origin such as
// "https://docuseal.com", or "*" to opt out of origin restriction.
func NewSender(targetOrigin string, logger *zap.Logger) (*Sender, error) {
	if targetOrigin != "*" {
		origin, err := OriginOf(targetOrigin)
		if err != nil {
			return nil, fmt.Errorf("target origin: %w", err)
		}
		targetOrigin = origin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{targetOrigin: targetOrigin, logger: logger}, nil
}

// TargetOrigin returns the origin messages are restricted to
func (s *Sender) TargetOrigin() string {
	return s.targetOrigin
}

// FollowFrameOrigin makes Send target the frame's own origin when the frame
// implements OriginFrame and trusted accepts that origin. Other frames keep
// the configured target origin. It returns s.
func (s *Sender) FollowFrameOrigin(trusted *Classifier) *Sender {
	s.follow = trusted
	return s
}

// TargetFor returns the origin Send restricts frame's messages to
func (s *Sender) TargetFor(frame FrameHandle) string {
	if s.follow == nil {
		return s.targetOrigin
	}
	of, ok := frame.(OriginFrame)
	if !ok {
		return s.targetOrigin
	}
	origin, err := OriginOf(of.Origin())
	if err != nil || !s.follow.AllowsOrigin(origin) {
		return s.targetOrigin
	}
	return origin
}

// Send posts msg to the frame's content window. A frame that is missing or
// still loading is not an error: the call logs a warning and reports
// DeliverySkipped.
func (s *Sender) Send(frame FrameHandle, msg OutboundMessage) (Delivery, error) {
	var window Window
	if frame != nil {
		window = frame.ContentWindow()
	}
	if window == nil {
		s.logger.Warn(ErrFrameNotReady.Error(), zap.String("type", msg.Type))
		return DeliverySkipped, nil
	}

	payload, err := msg.Encode()
	if err != nil {
		return DeliverySkipped, fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	if err := window.PostMessage(payload, s.TargetFor(frame)); err != nil {
		return DeliverySkipped, fmt.Errorf("post %s message: %w", msg.Type, err)
	}
	return DeliverySent, nil
}
