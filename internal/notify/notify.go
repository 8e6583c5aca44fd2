// Package notify fans security alerts out to webhook, chat and shoutrrr
// channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/security"
)

// Reasons for a notify call that sent nothing.
const (
	ReasonDisabled   = "notifications disabled"
	ReasonBelowLimit = "severity below notification threshold"
	ReasonNoChannels = "no enabled notification channels"
	ReasonAllFailed  = "every channel failed"
)

// ErrRateLimited is recorded for a channel over its per-minute budget.
var ErrRateLimited = errors.New("channel rate limit reached")

// Payload is what every channel renders.
type Payload struct {
	EventID     string            `json:"event_id,omitempty"`
	Severity    security.Severity `json:"severity"`
	Action      security.Action   `json:"action"`
	UserID      string            `json:"user_id"`
	Module      string            `json:"module"`
	Fingerprint string            `json:"fingerprint"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Title is the one-line headline chat channels show.
func (p Payload) Title() string {
	return fmt.Sprintf("[%s] Security alert: %s", p.Severity, p.Action.Verb())
}

// Result reports one notify call. Channels lists every channel attempted;
// Errors holds the ones that failed.
type Result struct {
	Sent     bool              `json:"sent"`
	Channels []string          `json:"channels"`
	Errors   map[string]string `json:"errors,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

// Channel delivers a payload to one destination.
type Channel interface {
	Name() string
	Type() string
	Send(ctx context.Context, p Payload) error
}

type throttled struct {
	Channel
	limiter *rate.Limiter
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	cfg      config.NotificationConfig
	channels []throttled
}

// New builds channels for every enabled entry in cfg.
func New(cfg config.NotificationConfig) (*Dispatcher, error) {
	client := newHTTPClient(cfg.Timeout)
	d := &Dispatcher{cfg: cfg}
	for _, cc := range cfg.Channels {
		if !cc.Enabled {
			continue
		}
		ch, err := newChannel(cc, client)
		if err != nil {
			return nil, fmt.Errorf("notification channel %s: %w", cc.Name, err)
		}
		d.Add(ch)
	}
	return d, nil
}

// Add registers a channel, throttled at the configured per-minute rate.
func (d *Dispatcher) Add(ch Channel) {
	limit := rate.Inf
	burst := 1
	if d.cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(d.cfg.RatePerMinute))
		burst = d.cfg.RatePerMinute
	}
	d.channels = append(d.channels, throttled{Channel: ch, limiter: rate.NewLimiter(limit, burst)})
}

// Channels returns the names of the registered channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify sends p to every channel concurrently. It makes no network call
// when notifications are off, the severity is under the threshold or no
// channel is enabled. There are no retries.
func (d *Dispatcher) Notify(ctx context.Context, p Payload) Result {
	switch {
	case !d.cfg.Enabled:
		return Result{Reason: ReasonDisabled}
	case !p.Severity.AtLeast(d.cfg.Threshold):
		return Result{Reason: ReasonBelowLimit}
	case len(d.channels) == 0:
		return Result{Reason: ReasonNoChannels}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = Result{Channels: make([]string, 0, len(d.channels))}
	)
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch throttled) {
			defer wg.Done()
			var err error
			if !ch.limiter.Allow() {
				err = ErrRateLimited
			} else {
				err = ch.Send(ctx, p)
			}

			mu.Lock()
			defer mu.Unlock()
			res.Channels = append(res.Channels, ch.Name())
			if err != nil {
				if res.Errors == nil {
					res.Errors = make(map[string]string)
				}
				res.Errors[ch.Name()] = err.Error()
				metrics.IncNotification(ch.Name(), "failure")
				logger.WithFields(logrus.Fields{
					"component": "notify",
					"channel":   ch.Name(),
					"type":      ch.Type(),
					"error":     err.Error(),
				}).Warn("notification delivery failed")
				return
			}
			res.Sent = true
			metrics.IncNotification(ch.Name(), "success")
		}(ch)
	}
	wg.Wait()

	sort.Strings(res.Channels)
	if !res.Sent {
		res.Reason = ReasonAllFailed
	}
	return res
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func newChannel(cc config.ChannelConfig, client *http.Client) (Channel, error) {
	switch strings.ToLower(cc.Type) {
	case config.ChannelWebhook:
		return NewWebhook(cc.Name, cc.URL, cc.Template, client)
	case config.ChannelSlack:
		return &Slack{name: cc.Name, url: cc.URL, client: client}, nil
	case config.ChannelDiscord:
		return &Discord{name: cc.Name, url: cc.URL, client: client}, nil
	case config.ChannelShoutrrr:
		return &Shoutrrr{name: cc.Name, url: cc.URL}, nil
	}
	return nil, fmt.Errorf("unknown channel type %q", cc.Type)
}
