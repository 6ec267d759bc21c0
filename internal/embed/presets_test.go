package embed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlPresets = `
presets:
  nda:
    src: https://docuseal.com/d/abc
    title: Sign the NDA
    role: Signer
    language: de
    params:
      preview: "true"
    completed_message:
      title: Thanks
      body: A copy is on its way.
  onboarding:
    src: https://docuseal.co/s/xyz
    allow_fullscreen: true
    with_title: false
    completed_redirect_url: https://example.com/done
`

const tomlPresets = `
[presets.nda]
src = "https://docuseal.com/d/abc"
title = "Sign the NDA"
role = "Signer"
language = "de"

[presets.nda.params]
preview = "true"

[presets.nda.completed_message]
title = "Thanks"
body = "A copy is on its way."

[presets.onboarding]
src = "https://docuseal.co/s/xyz"
allow_fullscreen = true
with_title = false
completed_redirect_url = "https://example.com/done"
`

func TestParsePresets(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlPresets, FormatYAML},
		{"toml", tomlPresets, FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presets, err := ParsePresets([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.Equal(t, []string{"nda", "onboarding"}, presets.Names())
			assert.Equal(t, 2, presets.Len())

			nda, err := presets.Get("nda")
			require.NoError(t, err)
			assert.Equal(t, "https://docuseal.com/d/abc", nda.Src)
			assert.Equal(t, "Sign the NDA", nda.Title)
			assert.Equal(t, "Signer", nda.Role)
			assert.Equal(t, "de", nda.Language)
			assert.Equal(t, map[string]string{"preview": "true"}, nda.Extra)
			require.NotNil(t, nda.CompletedMessage)
			assert.Equal(t, "Thanks", nda.CompletedMessage.Title)

			onboarding, err := presets.Get("onboarding")
			require.NoError(t, err)
			assert.True(t, onboarding.AllowFullscreen)
			assert.Equal(t, "https://example.com/done", onboarding.CompletedRedirectURL)
			assert.Nil(t, onboarding.CompletedMessage)
			require.NotNil(t, onboarding.WithTitle)
			assert.False(t, *onboarding.WithTitle)
			assert.Nil(t, onboarding.Preview)
		})
	}
}

func TestParsePresetsErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"missing src", "presets:\n  nda:\n    title: x\n", FormatYAML},
		{"relative src", "[presets.nda]\nsrc = \"/d/abc\"\n", FormatTOML},
		{"malformed yaml", "presets: [", FormatYAML},
		{"malformed toml", "[presets", FormatTOML},
		{"unknown format", "{}", Format("json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePresets([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "presets.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlPresets), 0o600))
	presets, err := LoadPresets(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, presets.Len())

	tomlPath := filepath.Join(dir, "presets.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlPresets), 0o600))
	presets, err = LoadPresets(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, presets.Len())

	_, err = LoadPresets(filepath.Join(dir, "presets.json"))
	assert.Error(t, err)

	_, err = LoadPresets(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNilPresets(t *testing.T) {
	var presets *Presets
	_, err := presets.Get("nda")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Empty(t, presets.Names())
	assert.Zero(t, presets.Len())
}
