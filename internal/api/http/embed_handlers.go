package http

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/types"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/utils"
	"github.com/gin-gonic/gin"
	nethtml "golang.org/x/net/html"
)

// EmbedForm renders the host page for a form
func (h *Handlers) EmbedForm(c *gin.Context) {
	props, ok := h.formProps(c)
	if !ok {
		return
	}
	if slug := c.Query("slug"); slug != "" && props.Src == "" {
		if err := utils.ValidateSlug(slug); err != nil {
			badRequest(c, err.Error())
			return
		}
		if h.baseURL == "" {
			badRequest(c, "slug requires a configured DocuSeal host")
			return
		}
		props.Src = strings.TrimRight(h.baseURL, "/") + "/d/" + url.PathEscape(slug)
	}

	preset := c.Query("preset")
	var buf bytes.Buffer
	page, err := h.renderer.Render(&buf, embed.Request{Preset: preset, Props: props})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.RecordPage(preset)

	c.Header("X-Frame-ID", page.FrameID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// BridgeScript serves the script embed pages inline
func (h *Handlers) BridgeScript(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(embed.BridgeScript()))
}

// ListPresets lists the configured preset names
func (h *Handlers) ListPresets(c *gin.Context) {
	names := h.renderer.Presets().Names()
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"presets": names})
}

// BuildURL builds a form URL from src and the remaining query parameters
func (h *Handlers) BuildURL(c *gin.Context) {
	query := c.Request.URL.Query()
	src := query.Get("src")
	if src == "" {
		badRequest(c, "src is required")
		return
	}
	query.Del("src")

	params := docuseal.Params{}
	for key := range query {
		params.Set(key, query.Get(key))
	}

	formURL, err := docuseal.BuildFormURL(src, params)
	h.metrics.RecordURL(err)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.URLResponse{
		URL:     formURL,
		Trusted: docuseal.IsValidDocuSealURL(formURL, h.hosts...),
	})
}

// Frame returns the iframe attributes for src
func (h *Handlers) Frame(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		badRequest(c, "src is required")
		return
	}
	fullscreen, err := queryBool(c, "fullscreen")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	frame := docuseal.NewFrame(src, docuseal.FrameConfig{
		Title:           c.Query("title"),
		ClassName:       c.Query("class"),
		AllowFullscreen: fullscreen,
	})

	attrs := make(map[string]string)
	for _, attr := range frame.Attributes() {
		attrs[attr.Key] = attr.Val
	}
	var markup bytes.Buffer
	if err := nethtml.Render(&markup, frame.Node()); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.FrameResponse{
		Attributes: attrs,
		HTML:       markup.String(),
		Trusted:    docuseal.IsValidDocuSealURL(src, h.hosts...),
	})
}

// Height clamps a reported content height
func (h *Handlers) Height(c *gin.Context) {
	raw := c.Query("content")
	if raw == "" {
		badRequest(c, "content is required")
		return
	}
	content, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequest(c, "content must be a number")
		return
	}

	c.JSON(http.StatusOK, types.HeightResponse{
		Height: docuseal.CalculateIframeHeight(content, h.bounds),
		Min:    h.bounds.Min,
		Max:    h.bounds.Max,
	})
}

func (h *Handlers) formProps(c *gin.Context) (docuseal.FormProps, bool) {
	fullscreen, err := queryBool(c, "fullscreen")
	if err != nil {
		badRequest(c, err.Error())
		return docuseal.FormProps{}, false
	}

	if err := utils.ValidateEmail(c.Query("email"), false); err != nil {
		badRequest(c, err.Error())
		return docuseal.FormProps{}, false
	}
	if err := validateTextParams(c); err != nil {
		badRequest(c, err.Error())
		return docuseal.FormProps{}, false
	}

	props := docuseal.FormProps{
		Src:                  c.Query("src"),
		Email:                c.Query("email"),
		Name:                 c.Query("name"),
		Phone:                c.Query("phone"),
		Role:                 c.Query("role"),
		ExternalID:           c.Query("external_id"),
		Language:             c.Query("lang"),
		Title:                c.Query("title"),
		ClassName:            c.Query("class"),
		AllowFullscreen:      fullscreen,
		CompletedRedirectURL: c.Query("redirect"),
		BackgroundColor:      c.Query("background_color"),
	}
	for _, key := range docuseal.FlagKeys() {
		if _, present := c.GetQuery(key); !present {
			continue
		}
		v, err := queryBool(c, key)
		if err != nil {
			badRequest(c, err.Error())
			return docuseal.FormProps{}, false
		}
		props.SetFlag(key, v)
	}
	if title, body := c.Query("completed_title"), c.Query("completed_body"); title != "" || body != "" {
		props.CompletedMessage = &docuseal.CompletedMessage{Title: title, Body: body}
	}
	return props, true
}

// textLimits caps free-text query parameters of the embed page
var textLimits = []struct {
	key string
	max int
}{
	{"name", utils.MaxNameLength},
	{"phone", utils.MaxNameLength},
	{"role", utils.MaxNameLength},
	{"external_id", utils.MaxIDLength},
	{"lang", utils.MaxSlugLength},
	{"background_color", utils.MaxSlugLength},
	{"title", utils.MaxTitleLength},
	{"class", utils.MaxTitleLength},
	{"completed_title", utils.MaxTitleLength},
	{"completed_body", utils.MaxBodyLength},
	{"src", utils.MaxURLLength},
	{"redirect", utils.MaxURLLength},
}

func validateTextParams(c *gin.Context) error {
	for _, limit := range textLimits {
		if err := utils.ValidateString(c.Query(limit.key), limit.key, 0, limit.max, false); err != nil {
			return err
		}
	}
	return nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}
