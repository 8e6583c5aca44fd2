package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/security"
)

type receiver struct {
	mu     sync.Mutex
	bodies [][]byte
	hits   atomic.Int32
}

func newReceiver(t *testing.T, status int) (*httptest.Server, *receiver) {
	t.Helper()
	r := &receiver{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, body)
		r.mu.Unlock()
		r.hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, r
}

func (r *receiver) last(t *testing.T) map[string]any {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.bodies)
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.bodies[len(r.bodies)-1], &out))
	return out
}

func testConfig(channels ...config.ChannelConfig) config.NotificationConfig {
	cfg := config.Default().Notifications
	cfg.Enabled = true
	cfg.Timeout = 2 * time.Second
	cfg.Channels = channels
	return cfg
}

func critical() Payload {
	return Payload{
		EventID:     "ev-1",
		Severity:    security.SeverityCritical,
		Action:      security.ActionBlockAndNotify,
		UserID:      "mallory",
		Module:      "command_validator",
		Fingerprint: "abc123",
		Message:     "destructive command",
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotify_ShortCircuits(t *testing.T) {
	srv, rec := newReceiver(t, http.StatusOK)
	hook := config.ChannelConfig{Name: "ops", Type: "webhook", Enabled: true, URL: srv.URL}

	cfg := testConfig(hook)
	cfg.Enabled = false
	d, err := New(cfg)
	require.NoError(t, err)
	res := d.Notify(context.Background(), critical())
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonDisabled, res.Reason)

	d, err = New(testConfig(hook))
	require.NoError(t, err)
	p := critical()
	p.Severity = security.SeverityMedium
	res = d.Notify(context.Background(), p)
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonBelowLimit, res.Reason)

	hook.Enabled = false
	d, err = New(testConfig(hook))
	require.NoError(t, err)
	res = d.Notify(context.Background(), critical())
	assert.Equal(t, ReasonNoChannels, res.Reason)

	assert.Zero(t, rec.hits.Load(), "no network calls when short-circuited")
}

func TestNotify_WebhookBody(t *testing.T) {
	srv, rec := newReceiver(t, http.StatusOK)
	d, err := New(testConfig(config.ChannelConfig{Name: "ops", Type: "webhook", Enabled: true, URL: srv.URL}))
	require.NoError(t, err)

	res := d.Notify(context.Background(), critical())
	assert.True(t, res.Sent)
	assert.Equal(t, []string{"ops"}, res.Channels)
	assert.Empty(t, res.Errors)

	body := rec.last(t)
	assert.Equal(t, "CRITICAL", body["severity"])
	assert.Equal(t, "block_and_notify", body["action"])
	assert.Equal(t, "mallory", body["user_id"])
	assert.Equal(t, "abc123", body["fingerprint"])
	assert.Equal(t, "2026-01-01T00:00:00Z", body["timestamp"])
}

func TestNotify_CustomTemplate(t *testing.T) {
	srv, rec := newReceiver(t, http.StatusOK)
	d, err := New(testConfig(config.ChannelConfig{
		Name: "ops", Type: "webhook", Enabled: true, URL: srv.URL,
		Template: `{"text": {{toJSON .Title}}}`,
	}))
	require.NoError(t, err)
	require.True(t, d.Notify(context.Background(), critical()).Sent)
	assert.Equal(t, "[CRITICAL] Security alert: block and notify", rec.last(t)["text"])

	_, err = New(testConfig(config.ChannelConfig{Name: "bad", Type: "webhook", Enabled: true, URL: srv.URL, Template: "{{"}))
	assert.Error(t, err)
}

func TestNotify_ChatFormats(t *testing.T) {
	slackSrv, slackRec := newReceiver(t, http.StatusOK)
	discordSrv, discordRec := newReceiver(t, http.StatusNoContent)
	d, err := New(testConfig(
		config.ChannelConfig{Name: "slack", Type: "slack", Enabled: true, URL: slackSrv.URL},
		config.ChannelConfig{Name: "discord", Type: "discord", Enabled: true, URL: discordSrv.URL},
	))
	require.NoError(t, err)

	res := d.Notify(context.Background(), critical())
	require.True(t, res.Sent)
	assert.Equal(t, []string{"discord", "slack"}, res.Channels)

	attachments := slackRec.last(t)["attachments"].([]any)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "#d00000", att["color"])
	assert.NotEmpty(t, att["fields"])

	embeds := discordRec.last(t)["embeds"].([]any)
	require.Len(t, embeds, 1)
	assert.Equal(t, float64(0xd00000), embeds[0].(map[string]any)["color"])
}

func TestNotify_PartialFailure(t *testing.T) {
	good, _ := newReceiver(t, http.StatusOK)
	bad, _ := newReceiver(t, http.StatusInternalServerError)
	d, err := New(testConfig(
		config.ChannelConfig{Name: "good", Type: "webhook", Enabled: true, URL: good.URL},
		config.ChannelConfig{Name: "bad", Type: "webhook", Enabled: true, URL: bad.URL},
	))
	require.NoError(t, err)

	res := d.Notify(context.Background(), critical())
	assert.True(t, res.Sent)
	assert.Len(t, res.Channels, 2)
	require.Contains(t, res.Errors, "bad")
	assert.Contains(t, res.Errors["bad"], "500")
	assert.NotContains(t, res.Errors, "good")
}

func TestNotify_AllFailed(t *testing.T) {
	bad, rec := newReceiver(t, http.StatusBadGateway)
	d, err := New(testConfig(config.ChannelConfig{Name: "bad", Type: "slack", Enabled: true, URL: bad.URL}))
	require.NoError(t, err)

	res := d.Notify(context.Background(), critical())
	assert.False(t, res.Sent)
	assert.Equal(t, ReasonAllFailed, res.Reason)
	assert.Equal(t, int32(1), rec.hits.Load(), "no retries")
}

type stubChannel struct {
	name string
	err  error
	n    atomic.Int32
}

func (s *stubChannel) Name() string { return s.name }
func (s *stubChannel) Type() string { return "stub" }
func (s *stubChannel) Send(context.Context, Payload) error {
	s.n.Add(1)
	return s.err
}

func TestNotify_ChannelRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerMinute = 2
	d, err := New(cfg)
	require.NoError(t, err)
	ch := &stubChannel{name: "stub"}
	d.Add(ch)
	assert.Equal(t, []string{"stub"}, d.Channels())

	for i := 0; i < 2; i++ {
		assert.True(t, d.Notify(context.Background(), critical()).Sent)
	}
	res := d.Notify(context.Background(), critical())
	assert.False(t, res.Sent)
	assert.Equal(t, ErrRateLimited.Error(), res.Errors["stub"])
	assert.Equal(t, int32(2), ch.n.Load())
}

func TestNotify_ShoutrrrFailureIsolated(t *testing.T) {
	d, err := New(testConfig(config.ChannelConfig{Name: "chat", Type: "shoutrrr", Enabled: true, URL: "notaservice://nowhere"}))
	require.NoError(t, err)
	ok := &stubChannel{name: "ok"}
	d.Add(ok)

	res := d.Notify(context.Background(), critical())
	assert.True(t, res.Sent)
	assert.Contains(t, res.Errors, "chat")

	failing := &stubChannel{name: "down", err: errors.New("boom")}
	d.Add(failing)
	res = d.Notify(context.Background(), critical())
	assert.Equal(t, "boom", res.Errors["down"])
}

func TestValidateWebhookURL(t *testing.T) {
	_, err := validateWebhookURL("ftp://example.com/hook")
	assert.Error(t, err)
	_, err = validateWebhookURL("http:///nohost")
	assert.Error(t, err)
	_, err = validateWebhookURL("http://10.0.0.5/hook")
	assert.Error(t, err)
	_, err = validateWebhookURL("http://127.0.0.1:9000/hook")
	assert.NoError(t, err)

	assert.True(t, isPrivateIP(net.ParseIP("192.168.1.1")))
	assert.True(t, isPrivateIP(net.ParseIP("fd00::1")))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
}

func TestSeverityColor(t *testing.T) {
	assert.Equal(t, colorAlert, SeverityColor(security.SeverityHigh))
	assert.Equal(t, colorWarning, SeverityColor(security.SeverityMedium))
	assert.Equal(t, colorInfo, SeverityColor(security.SeverityLow))
}
