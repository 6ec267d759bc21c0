package docuseal

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type posted struct {
	payload []byte
	origin  string
}

type fakeWindow struct {
	posts []posted
	err   error
}

func (w *fakeWindow) PostMessage(payload []byte, targetOrigin string) error {
	if w.err != nil {
		return w.err
	}
	w.posts = append(w.posts, posted{payload: payload, origin: targetOrigin})
	return nil
}

type fakeFrame struct {
	window *fakeWindow
}

func (f *fakeFrame) ContentWindow() Window {
	if f.window == nil {
		return nil
	}
	return f.window
}

func TestNewSender(t *testing.T) {
	s, err := NewSender("https://DocuSeal.com/some/path", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://docuseal.com", s.TargetOrigin())

	s, err = NewSender("*", nil)
	require.NoError(t, err)
	assert.Equal(t, "*", s.TargetOrigin())

	_, err = NewSender("", nil)
	assert.Error(t, err)
}

func TestSenderSend(t *testing.T) {
	t.Run("posts tagged message to target origin", func(t *testing.T) {
		sender, err := NewSender("https://docuseal.com", nil)
		require.NoError(t, err)

		window := &fakeWindow{}
		delivery, err := sender.Send(&fakeFrame{window: window}, OutboundMessage{
			Type: "prefill",
			Data: map[string]string{"email": "a@b.co"},
		})
		require.NoError(t, err)
		assert.Equal(t, DeliverySent, delivery)

		require.Len(t, window.posts, 1)
		assert.Equal(t, "https://docuseal.com", window.posts[0].origin)

		var wire map[string]any
		require.NoError(t, json.Unmarshal(window.posts[0].payload, &wire))
		assert.Equal(t, "parent", wire["source"])
		assert.Equal(t, "prefill", wire["type"])
		assert.Equal(t, map[string]any{"email": "a@b.co"}, wire["data"])
	})

	t.Run("omits empty data", func(t *testing.T) {
		payload, err := OutboundMessage{Type: "ping"}.Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{"source":"parent","type":"ping"}`, string(payload))
	})

	t.Run("frame not ready is a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		sender, err := NewSender("https://docuseal.com", zap.New(core))
		require.NoError(t, err)

		delivery, err := sender.Send(&fakeFrame{}, OutboundMessage{Type: "ping"})
		require.NoError(t, err)
		assert.Equal(t, DeliverySkipped, delivery)

		delivery, err = sender.Send(nil, OutboundMessage{Type: "ping"})
		require.NoError(t, err)
		assert.Equal(t, DeliverySkipped, delivery)

		entries := logs.FilterMessage(ErrFrameNotReady.Error()).All()
		assert.Len(t, entries, 2)
	})

	t.Run("window failure is returned", func(t *testing.T) {
		sender, err := NewSender("*", nil)
		require.NoError(t, err)

		boom := errors.New("closed")
		_, err = sender.Send(&fakeFrame{window: &fakeWindow{err: boom}}, OutboundMessage{Type: "ping"})
		assert.ErrorIs(t, err, boom)
	})
}

type originFrame struct {
	fakeFrame
	origin string
}

func (f *originFrame) Origin() string {
	return f.origin
}

func TestSenderFollowsFrameOrigin(t *testing.T) {
	trusted := NewClassifier("https://docuseal.com").AllowHosts(DefaultHosts...)

	tests := []struct {
		name   string
		frame  FrameHandle
		follow bool
		want   string
	}{
		{"subdomain form", &originFrame{origin: "https://eu.docuseal.com"}, true, "https://eu.docuseal.com"},
		{"sibling domain form", &originFrame{origin: "https://docuseal.co/"}, true, "https://docuseal.co"},
		{"untrusted origin falls back", &originFrame{origin: "https://evil.test"}, true, "https://docuseal.com"},
		{"unknown origin falls back", &originFrame{}, true, "https://docuseal.com"},
		{"plain frame falls back", &fakeFrame{}, true, "https://docuseal.com"},
		{"fixed target ignores frame", &originFrame{origin: "https://eu.docuseal.com"}, false, "https://docuseal.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewSender("https://docuseal.com", nil)
			require.NoError(t, err)
			if tt.follow {
				sender.FollowFrameOrigin(trusted)
			}
			assert.Equal(t, tt.want, sender.TargetFor(tt.frame))
		})
	}

	t.Run("send posts to followed origin", func(t *testing.T) {
		sender, err := NewSender("https://docuseal.com", nil)
		require.NoError(t, err)
		sender.FollowFrameOrigin(trusted)

		window := &fakeWindow{}
		frame := &originFrame{fakeFrame: fakeFrame{window: window}, origin: "https://eu.docuseal.com"}
		delivery, err := sender.Send(frame, OutboundMessage{Type: "ping"})
		require.NoError(t, err)
		assert.Equal(t, DeliverySent, delivery)
		require.Len(t, window.posts, 1)
		assert.Equal(t, "https://eu.docuseal.com", window.posts[0].origin)
	})
}

func TestDeliveryString(t *testing.T) {
	assert.Equal(t, "sent", DeliverySent.String())
	assert.Equal(t, "skipped", DeliverySkipped.String())
	assert.Equal(t, "unknown", Delivery(9).String())
}
