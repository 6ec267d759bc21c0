package docuseal

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultFrameTitle is used when FrameConfig.Title is empty
	DefaultFrameTitle = "DocuSeal Form"
	// FramePermissions is the fixed allow attribute of every frame
	FramePermissions = "camera; microphone; clipboard-write"
	// FrameSize is the width and height of every frame
	FrameSize = "100%"
)

// FrameConfig configures a frame at creation time.
type FrameConfig struct {
	Title           string
	ClassName       string
	AllowFullscreen bool
}

// Frame is the attribute model of an embedded DocuSeal iframe.
type Frame struct {
	Src             string
	Title           string
	ClassName       string
	AllowFullscreen bool
}

// NewFrame builds the frame for src. The result depends only on its inputs.
func NewFrame(src string, cfg FrameConfig) Frame {
	title := cfg.Title
	if title == "" {
		title = DefaultFrameTitle
	}
	return Frame{
		Src:             src,
		Title:           title,
		ClassName:       cfg.ClassName,
		AllowFullscreen: cfg.AllowFullscreen,
	}
}

// Width is always FrameSize
func (f Frame) Width() string { return FrameSize }

// Height is always FrameSize
func (f Frame) Height() string { return FrameSize }

// Style returns the inline style sizing the frame to its container
func (f Frame) Style() string {
	return "width: " + f.Width() + "; height: " + f.Height() + ";"
}

// Attributes returns the iframe attributes in a stable order.
func (f Frame) Attributes() []html.Attribute {
	attrs := []html.Attribute{
		{Key: "src", Val: f.Src},
		{Key: "title", Val: f.Title},
		{Key: "class", Val: f.ClassName},
		{Key: "frameborder", Val: "0"},
		{Key: "allow", Val: FramePermissions},
	}
	if f.AllowFullscreen {
		attrs = append(attrs, html.Attribute{Key: "allowfullscreen", Val: "true"})
	}
	return append(attrs, html.Attribute{Key: "style", Val: f.Style()})
}

// Attr returns the value of a single attribute
func (f Frame) Attr(key string) (string, bool) {
	for _, attr := range f.Attributes() {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Node renders a detached iframe element. Each call returns a new node.
func (f Frame) Node() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "iframe",
		DataAtom: atom.Iframe,
		Attr:     f.Attributes(),
	}
}
