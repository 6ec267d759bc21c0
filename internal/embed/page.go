package embed

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

//go:embed bridge.js
var bridgeScript string

const (
	// ConfigElementID is the id of the JSON config read by the bridge script
	ConfigElementID = "docuseal-embed-config"
	// CompletedElementID is the id of the completion message block
	CompletedElementID = "docuseal-completed"
)

var (
	// ErrMissingSource is returned when neither props nor preset name a form
	ErrMissingSource = errors.New("form source is required")
	// ErrUntrustedSource is returned for a form outside the allowed hosts
	ErrUntrustedSource = errors.New("form source is not an allowed DocuSeal URL")

	classToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Options configures a Renderer.
type Options struct {
	// Hosts are the allowed DocuSeal hosts, docuseal.DefaultHosts when empty
	Hosts []string
	// Frame holds defaults applied before per-request props
	Frame docuseal.FrameConfig
	// Bounds clamps the frame height on the page
	Bounds docuseal.HeightBounds
	// TargetOrigin restricts messages the page posts into the frame. Empty
	// targets the form's own origin.
	TargetOrigin string
	// AllowedOrigins are accepted as senders of frame messages, together with
	// https origins on Hosts. Empty accepts every origin.
	AllowedOrigins []string
	// BridgePath is the relay websocket path. Empty disables the relay.
	BridgePath string
}

// Request selects a preset and per-request overrides.
type Request struct {
	Preset string
	Props  docuseal.FormProps
}

// Page describes a rendered embed page.
type Page struct {
	FrameID string
	URL     string
	Frame   docuseal.Frame
	Props   docuseal.FormProps
}

// Renderer builds host pages that embed a DocuSeal form.
type Renderer struct {
	opts    Options
	presets *Presets
	policy  *bluemonday.Policy
}

// NewRenderer creates a renderer. presets may be nil.
func NewRenderer(opts Options, presets *Presets) *Renderer {
	if len(opts.Hosts) == 0 {
		opts.Hosts = docuseal.DefaultHosts
	}
	if opts.Bounds == (docuseal.HeightBounds{}) {
		opts.Bounds = docuseal.DefaultHeightBounds()
	}
	return &Renderer{
		opts:    opts,
		presets: presets,
		policy:  bluemonday.StrictPolicy(),
	}
}

// Presets returns the presets the renderer resolves names against
func (r *Renderer) Presets() *Presets {
	return r.presets
}

// Resolve merges the request over its preset and the frame defaults.
func (r *Renderer) Resolve(req Request) (docuseal.FormProps, error) {
	props := docuseal.FormProps{
		Title:           r.opts.Frame.Title,
		ClassName:       r.opts.Frame.ClassName,
		AllowFullscreen: r.opts.Frame.AllowFullscreen,
	}
	if req.Preset != "" {
		preset, err := r.presets.Get(req.Preset)
		if err != nil {
			return docuseal.FormProps{}, err
		}
		props = props.Merge(preset)
	}
	props = props.Merge(req.Props)

	if strings.TrimSpace(props.Src) == "" {
		return docuseal.FormProps{}, ErrMissingSource
	}
	if !docuseal.IsValidDocuSealURL(props.Src, r.opts.Hosts...) {
		return docuseal.FormProps{}, fmt.Errorf("%w: %s", ErrUntrustedSource, props.Src)
	}

	props.Title = r.text(props.Title)
	props.ClassName = r.className(props.ClassName)
	if msg := props.CompletedMessage; msg != nil {
		props.CompletedMessage = &docuseal.CompletedMessage{
			Title: r.text(msg.Title),
			Body:  r.text(msg.Body),
		}
	}
	if props.CompletedRedirectURL != "" {
		if _, err := docuseal.OriginOf(props.CompletedRedirectURL); err != nil {
			return docuseal.FormProps{}, fmt.Errorf("completed redirect: %w", err)
		}
	}
	return props, nil
}

// Render writes the embed page for req to w.
func (r *Renderer) Render(w io.Writer, req Request) (*Page, error) {
	props, err := r.Resolve(req)
	if err != nil {
		return nil, err
	}

	formURL, err := docuseal.BuildFormURL(props.Src, props.Params())
	if err != nil {
		return nil, err
	}

	frame := docuseal.NewFrame(formURL, props.FrameConfig())
	frameID := id.NewFrameElementID().String()

	doc := docuseal.NewDocument(frame.Title)
	if err := r.build(doc, frame, frameID, props); err != nil {
		return nil, err
	}
	if err := doc.Render(w); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	return &Page{
		FrameID: frameID,
		URL:     formURL,
		Frame:   frame,
		Props:   props,
	}, nil
}

type bridgeConfig struct {
	FrameID        string   `json:"frameId"`
	BridgeURL      string   `json:"bridgeURL,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins"`
	AllowedHosts   []string `json:"allowedHosts"`
	TargetOrigin   string   `json:"targetOrigin"`
	MinHeight      float64  `json:"minHeight"`
	MaxHeight      float64  `json:"maxHeight"`
	RedirectURL    string   `json:"redirectURL,omitempty"`
	CompletedID    string   `json:"completedId,omitempty"`
}

func (r *Renderer) build(doc *docuseal.Document, frame docuseal.Frame, frameID string, props docuseal.FormProps) error {
	if err := docuseal.Prefetch(doc, frame.Src); err != nil {
		return err
	}

	meta := docuseal.Element(atom.Meta,
		nethtml.Attribute{Key: "name", Val: "viewport"},
		nethtml.Attribute{Key: "content", Val: "width=device-width, initial-scale=1"},
	)
	if err := doc.AppendHead(meta); err != nil {
		return err
	}
	style := docuseal.Element(atom.Style)
	style.AppendChild(text("html, body { margin: 0; height: 100%; } iframe { display: block; min-height: " +
		strconv.FormatFloat(r.opts.Bounds.Min, 'f', -1, 64) + "px; }"))
	if err := doc.AppendHead(style); err != nil {
		return err
	}

	node, err := docuseal.Mount(doc, frame)
	if err != nil {
		return err
	}
	node.Attr = append(node.Attr, nethtml.Attribute{Key: "id", Val: frameID})

	targetOrigin := r.opts.TargetOrigin
	if targetOrigin == "" {
		origin, err := docuseal.OriginOf(frame.Src)
		if err != nil {
			return err
		}
		targetOrigin = origin
	}

	cfg := bridgeConfig{
		FrameID:        frameID,
		BridgeURL:      r.opts.BridgePath,
		AllowedOrigins: []string{},
		AllowedHosts:   []string{},
		TargetOrigin:   targetOrigin,
		MinHeight:      r.opts.Bounds.Min,
		MaxHeight:      r.opts.Bounds.Max,
		RedirectURL:    props.CompletedRedirectURL,
	}
	if len(r.opts.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = r.opts.AllowedOrigins
		for _, host := range r.opts.Hosts {
			if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
				cfg.AllowedHosts = append(cfg.AllowedHosts, host)
			}
		}
	}

	if msg := props.CompletedMessage; msg != nil {
		block := docuseal.Element(atom.Div,
			nethtml.Attribute{Key: "id", Val: CompletedElementID},
			nethtml.Attribute{Key: "hidden", Val: ""},
		)
		if msg.Title != "" {
			heading := docuseal.Element(atom.H2)
			heading.AppendChild(text(msg.Title))
			block.AppendChild(heading)
		}
		if msg.Body != "" {
			body := docuseal.Element(atom.P)
			body.AppendChild(text(msg.Body))
			block.AppendChild(body)
		}
		if err := doc.AppendBody(block); err != nil {
			return err
		}
		cfg.CompletedID = CompletedElementID
	}

	// ConfigStd escapes <, > and & so the JSON cannot close its script element
	encoded, err := sonic.ConfigStd.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode bridge config: %w", err)
	}
	configNode := docuseal.Element(atom.Script,
		nethtml.Attribute{Key: "type", Val: "application/json"},
		nethtml.Attribute{Key: "id", Val: ConfigElementID},
	)
	configNode.AppendChild(text(string(encoded)))
	if err := doc.AppendBody(configNode); err != nil {
		return err
	}

	script := docuseal.Element(atom.Script)
	script.AppendChild(text(bridgeScript))
	return doc.AppendBody(script)
}

// text strips markup from caller-provided strings. Rendering escapes again.
func (r *Renderer) text(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

func (r *Renderer) className(s string) string {
	var tokens []string
	for _, token := range strings.Fields(r.text(s)) {
		if classToken.MatchString(token) {
			tokens = append(tokens, token)
		}
	}
	return strings.Join(tokens, " ")
}

// BridgeScript returns the script embedded in every page
func BridgeScript() string {
	return bridgeScript
}

func text(s string) *nethtml.Node {
	return &nethtml.Node{Type: nethtml.TextNode, Data: s}
}
