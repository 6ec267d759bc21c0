package types

import "github.com/GriffinCanCode/docuseal-embed/internal/docuseal"

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// URLResponse is returned by the URL builder endpoint
type URLResponse struct {
	URL     string `json:"url"`
	Trusted bool   `json:"trusted"`
}

// FrameResponse describes a frame built for a form URL
type FrameResponse struct {
	Attributes map[string]string `json:"attributes"`
	HTML       string            `json:"html"`
	Trusted    bool              `json:"trusted"`
}

// HeightResponse carries a clamped frame height
type HeightResponse struct {
	Height float64 `json:"height"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ClassifyResponse reports how a posted message was classified.
// Belongs is false for foreign messages and untrusted origins.
type ClassifyResponse struct {
	Belongs bool             `json:"belongs"`
	Trusted bool             `json:"trusted"`
	Reason  string           `json:"reason,omitempty"`
	Kind    string           `json:"kind,omitempty"`
	Event   *docuseal.Event  `json:"event,omitempty"`
	Payload docuseal.Payload `json:"payload,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// DeliveryResponse reports the delivery of one outbound message
type DeliveryResponse struct {
	Session  string `json:"session"`
	Delivery string `json:"delivery"`
}

// BroadcastResponse reports how many frames received a message
type BroadcastResponse struct {
	Sent int `json:"sent"`
}
