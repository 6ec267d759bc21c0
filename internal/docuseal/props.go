package docuseal

import (
	"sort"
	"strconv"
)

// CompletedMessage is shown by the host page once the form is completed.
type CompletedMessage struct {
	Title string `json:"title,omitempty" yaml:"title" toml:"title"`
	Body  string `json:"body,omitempty" yaml:"body" toml:"body"`
}

// FormProps describes one embedded form. Only the fields that DocuSeal reads
// from the form URL are turned into query parameters, the rest configure the
// host page.
type FormProps struct {
	Src                  string            `json:"src,omitempty" yaml:"src" toml:"src"`
	Email                string            `json:"email,omitempty" yaml:"email" toml:"email"`
	Name                 string            `json:"name,omitempty" yaml:"name" toml:"name"`
	Phone                string            `json:"phone,omitempty" yaml:"phone" toml:"phone"`
	Role                 string            `json:"role,omitempty" yaml:"role" toml:"role"`
	ExternalID           string            `json:"external_id,omitempty" yaml:"external_id" toml:"external_id"`
	Language             string            `json:"language,omitempty" yaml:"language" toml:"language"`
	Title                string            `json:"title,omitempty" yaml:"title" toml:"title"`
	ClassName            string            `json:"class_name,omitempty" yaml:"class_name" toml:"class_name"`
	AllowFullscreen      bool              `json:"allow_fullscreen,omitempty" yaml:"allow_fullscreen" toml:"allow_fullscreen"`
	CompletedMessage     *CompletedMessage `json:"completed_message,omitempty" yaml:"completed_message" toml:"completed_message"`
	CompletedRedirectURL string            `json:"completed_redirect_url,omitempty" yaml:"completed_redirect_url" toml:"completed_redirect_url"`
	BackgroundColor      string            `json:"background_color,omitempty" yaml:"background_color" toml:"background_color"`

	// Display options. Nil leaves DocuSeal's default in place.
	Preview         *bool `json:"preview,omitempty" yaml:"preview" toml:"preview"`
	Expand          *bool `json:"expand,omitempty" yaml:"expand" toml:"expand"`
	Minimize        *bool `json:"minimize,omitempty" yaml:"minimize" toml:"minimize"`
	OrderAsOnPage   *bool `json:"order_as_on_page,omitempty" yaml:"order_as_on_page" toml:"order_as_on_page"`
	GoToLast        *bool `json:"go_to_last,omitempty" yaml:"go_to_last" toml:"go_to_last"`
	SkipFields      *bool `json:"skip_fields,omitempty" yaml:"skip_fields" toml:"skip_fields"`
	WithTitle       *bool `json:"with_title,omitempty" yaml:"with_title" toml:"with_title"`
	WithDecline     *bool `json:"with_decline,omitempty" yaml:"with_decline" toml:"with_decline"`
	SendCopyEmail   *bool `json:"send_copy_email,omitempty" yaml:"send_copy_email" toml:"send_copy_email"`
	AllowToResubmit *bool `json:"allow_to_resubmit,omitempty" yaml:"allow_to_resubmit" toml:"allow_to_resubmit"`

	Extra map[string]string `json:"params,omitempty" yaml:"params" toml:"params"`
}

// Bool returns a defined flag value
func Bool(v bool) *bool {
	return &v
}

type flagField struct {
	key   string
	value **bool
}

func (p *FormProps) flags() []flagField {
	return []flagField{
		{"preview", &p.Preview},
		{"expand", &p.Expand},
		{"minimize", &p.Minimize},
		{"order_as_on_page", &p.OrderAsOnPage},
		{"go_to_last", &p.GoToLast},
		{"skip_fields", &p.SkipFields},
		{"with_title", &p.WithTitle},
		{"with_decline", &p.WithDecline},
		{"send_copy_email", &p.SendCopyEmail},
		{"allow_to_resubmit", &p.AllowToResubmit},
	}
}

// FlagKeys returns the query parameter names of the display options
func FlagKeys() []string {
	var p FormProps
	fields := p.flags()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// SetFlag sets the display option named by its query parameter key. It
// reports false for an unknown key.
func (p *FormProps) SetFlag(key string, v bool) bool {
	for _, f := range p.flags() {
		if f.key == key {
			*f.value = Bool(v)
			return true
		}
	}
	return false
}

// Params returns the query parameters for BuildFormURL. Empty fields stay undefined.
func (p FormProps) Params() Params {
	params := Params{}
	for key, value := range p.Extra {
		params.Set(key, value)
	}

	named := []struct {
		key   string
		value string
	}{
		{"email", p.Email},
		{"name", p.Name},
		{"phone", p.Phone},
		{"role", p.Role},
		{"external_id", p.ExternalID},
		{"lang", p.Language},
		{"background_color", p.BackgroundColor},
	}
	for _, field := range named {
		if field.value != "" {
			params.Set(field.key, field.value)
		}
	}
	for _, f := range p.flags() {
		if *f.value != nil {
			params.Set(f.key, strconv.FormatBool(**f.value))
		}
	}
	return params
}

// FrameConfig returns the iframe configuration carried by the props
func (p FormProps) FrameConfig() FrameConfig {
	return FrameConfig{
		Title:           p.Title,
		ClassName:       p.ClassName,
		AllowFullscreen: p.AllowFullscreen,
	}
}

// Merge returns p with every non-empty field of override applied on top.
func (p FormProps) Merge(override FormProps) FormProps {
	out := p
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.Src, override.Src)
	set(&out.Email, override.Email)
	set(&out.Name, override.Name)
	set(&out.Phone, override.Phone)
	set(&out.Role, override.Role)
	set(&out.ExternalID, override.ExternalID)
	set(&out.Language, override.Language)
	set(&out.Title, override.Title)
	set(&out.ClassName, override.ClassName)
	set(&out.CompletedRedirectURL, override.CompletedRedirectURL)
	set(&out.BackgroundColor, override.BackgroundColor)
	overrideFlags := override.flags()
	for i, f := range out.flags() {
		if v := *overrideFlags[i].value; v != nil {
			*f.value = Bool(*v)
		} else if *f.value != nil {
			*f.value = Bool(**f.value)
		}
	}
	if override.AllowFullscreen {
		out.AllowFullscreen = true
	}
	if override.CompletedMessage != nil {
		msg := *override.CompletedMessage
		out.CompletedMessage = &msg
	}
	if len(override.Extra) > 0 {
		extra := make(map[string]string, len(p.Extra)+len(override.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		for k, v := range override.Extra {
			extra[k] = v
		}
		out.Extra = extra
	}
	return out
}

// Keys returns the defined keys of p in sorted order
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
