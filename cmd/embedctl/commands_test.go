package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestURLCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "adds parameters",
			args: []string{"url", "https://docuseal.com/d/abc", "email=a@b.co", "name=Ada"},
			want: "https://docuseal.com/d/abc?email=a%40b.co&name=Ada\n",
		},
		{
			name: "keeps existing query",
			args: []string{"url", "https://docuseal.com/d/abc?lang=de"},
			want: "https://docuseal.com/d/abc?lang=de\n",
		},
		{name: "relative base", args: []string{"url", "/d/abc"}, wantErr: true},
		{name: "bad pair", args: []string{"url", "https://docuseal.com/d/abc", "email"}, wantErr: true},
		{name: "missing base", args: []string{"url"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFrameCommand(t *testing.T) {
	out, err := run(t, "", "frame", "https://docuseal.com/d/abc", "--title", "NDA", "--fullscreen")
	require.NoError(t, err)

	var body struct {
		Attributes map[string]string `json:"attributes"`
		Trusted    bool              `json:"trusted"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "NDA", body.Attributes["title"])
	assert.Equal(t, "true", body.Attributes["allowfullscreen"])
	assert.True(t, body.Trusted)

	out, err = run(t, "", "frame", "https://docuseal.com/d/abc", "--html")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	title, _ := doc.Find("iframe").Attr("title")
	assert.Equal(t, "DocuSeal Form", title)
}

func TestHeightCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"height", "100"}, want: "400\n"},
		{args: []string{"height", "640.5"}, want: "640.5\n"},
		{args: []string{"height", "5000"}, want: "1200\n"},
		{args: []string{"height", "5000", "--max", "2000"}, want: "2000\n"},
		{args: []string{"height", "10", "--min", "900", "--max", "100"}, wantErr: true},
		{args: []string{"height", "tall"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		belongs bool
		kind    string
	}{
		{
			name:    "argument",
			args:    []string{"classify", `{"type":"docuseal.resize","data":{"height":500}}`},
			belongs: true,
			kind:    "resize",
		},
		{
			name:    "stdin",
			stdin:   `{"source":"docuseal","type":"completed"}`,
			args:    []string{"classify"},
			belongs: true,
			kind:    "completed",
		},
		{
			name: "foreign",
			args: []string{"classify", `{"type":"resize"}`},
		},
		{
			name: "untrusted origin",
			args: []string{"classify", "--origin", "https://evil.example", "--allow", "https://docuseal.com",
				`{"source":"docuseal","type":"loaded"}`},
		},
		{
			name: "allowed host subdomain",
			args: []string{"classify", "--origin", "https://eu.docuseal.com", "--allow", "https://docuseal.com",
				`{"source":"docuseal","type":"loaded"}`},
			belongs: true,
			kind:    "loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)

			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &body))
			assert.Equal(t, tt.belongs, body["belongs"])
			if tt.kind != "" {
				assert.Equal(t, tt.kind, body["kind"])
			}
		})
	}

	_, err := run(t, "", "classify", "{not json")
	assert.Error(t, err)
}

func TestProbeCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>NDA</title></head></html>`))
	}))
	defer server.Close()

	out, err := run(t, "", "probe", server.URL+"/d/abc", "--hosts", "127.0.0.1", "--retries", "1")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["reachable"])
	assert.Equal(t, "NDA", report["title"])

	_, err = run(t, "", "probe", server.URL+"/d/abc")
	assert.Error(t, err)
}

func TestPageCommand(t *testing.T) {
	out, err := run(t, "", "page", "https://docuseal.com/d/abc", "--email", "a@b.co", "--bridge", "/bridge")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	src, _ := doc.Find("iframe").Attr("src")
	assert.Equal(t, "https://docuseal.com/d/abc?email=a%40b.co", src)

	_, err = run(t, "", "page")
	assert.Error(t, err)

	_, err = run(t, "", "page", "javascript://docuseal.com/%0aalert(1)")
	assert.ErrorIs(t, err, embed.ErrUntrustedSource)
}

func TestPageCommandOptions(t *testing.T) {
	out, err := run(t, "", "page", "https://docuseal.com/d/abc", "--option", "preview", "--option", "with_title=false")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	src, _ := doc.Find("iframe").Attr("src")
	assert.Equal(t, "https://docuseal.com/d/abc?preview=true&with_title=false", src)

	_, err = run(t, "", "page", "https://docuseal.com/d/abc", "--option", "sparkles")
	assert.ErrorContains(t, err, "unknown option")

	_, err = run(t, "", "page", "https://docuseal.com/d/abc", "--option", "preview=maybe")
	assert.Error(t, err)
}
