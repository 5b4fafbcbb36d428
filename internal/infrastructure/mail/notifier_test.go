package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"FeedDigest/internal/config"
	"FeedDigest/internal/logging"
)

type fakeSender struct {
	sent []*gomail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func validConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Sender:   "digest@example.com",
		Password: "secret",
	}
}

func TestNewDisabledOnIncompleteConfig(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*config.EmailConfig){
		"no sender":   func(c *config.EmailConfig) { c.Sender = "" },
		"no password": func(c *config.EmailConfig) { c.Password = "" },
		"no host":     func(c *config.EmailConfig) { c.Host = "" },
		"no port":     func(c *config.EmailConfig) { c.Port = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			mutate(&cfg)

			n := New(cfg, logging.Discard())

			assert.False(t, n.Enabled())
			assert.False(t, n.Send(context.Background(), "alice@example.com", "subject", "<p>hi</p>"))
		})
	}
}

func TestNewEnabled(t *testing.T) {
	t.Parallel()

	plain := New(validConfig(), logging.Discard())
	assert.True(t, plain.Enabled())

	cfg := validConfig()
	cfg.SSL = true
	cfg.Port = 465
	assert.True(t, New(cfg, logging.Discard()).Enabled())
}

func TestSendBuildsHTMLMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeSender{}
	n := &Notifier{client: fake, from: "digest@example.com", logger: logging.Discard()}

	ok := n.Send(context.Background(), "alice@example.com", "Your daily briefing - 2026-05-04", "<p>digest</p>")
	require.True(t, ok)
	require.Len(t, fake.sent, 1)

	var buf bytes.Buffer
	_, err := fake.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Subject: Your daily briefing - 2026-05-04")
	assert.Contains(t, raw, "alice@example.com")
	assert.Contains(t, raw, "digest@example.com")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "<p>digest</p>")
}

func TestSendFailures(t *testing.T) {
	t.Parallel()

	failing := &Notifier{client: &fakeSender{err: errors.New("connection refused")}, from: "digest@example.com", logger: logging.Discard()}
	assert.False(t, failing.Send(context.Background(), "alice@example.com", "s", "<p></p>"))

	fake := &fakeSender{}
	badAddress := &Notifier{client: fake, from: "digest@example.com", logger: logging.Discard()}
	assert.False(t, badAddress.Send(context.Background(), "not an address", "s", "<p></p>"))
	assert.Empty(t, fake.sent)
}
