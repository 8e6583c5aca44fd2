// Package engine is the validation entry point: it fans text out to the
// detection modules, scores the findings, decides an action and hands
// persistence and alerting to background workers.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/detectors"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
	"github.com/Wikid82/sentinel/internal/models"
	"github.com/Wikid82/sentinel/internal/notify"
	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/policy"
	"github.com/Wikid82/sentinel/internal/queue"
	"github.com/Wikid82/sentinel/internal/ratelimit"
	"github.com/Wikid82/sentinel/internal/reputation"
	"github.com/Wikid82/sentinel/internal/scoring"
	"github.com/Wikid82/sentinel/internal/security"
	"github.com/Wikid82/sentinel/internal/services"
	"github.com/Wikid82/sentinel/internal/util"
)

// DisabledReasoning is returned when validation is switched off.
const DisabledReasoning = "SAFE: validation is disabled, action allow"

// MaxStoredInput caps the rune length of the input kept on an event.
const MaxStoredInput = 4096

// Metadata identifies who submitted the text.
type Metadata struct {
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context,omitempty"`
}

// Deps are the engine's collaborators. Every field is optional: without
// Audit nothing is persisted, without Notifier no alert is sent.
type Deps struct {
	Audit      *services.AuditService
	Reputation reputation.Backend
	RateLimits ratelimit.Backend
	Notifier   *notify.Dispatcher
	ASN        detectors.ASNLookup
}

// Engine is safe for concurrent Validate calls.
type Engine struct {
	cfg       config.Config
	detectors []detectors.Detector
	policy    *policy.Engine
	reps      *reputation.Store
	limiter   *ratelimit.Limiter
	audit     *services.AuditService
	notifier  *notify.Dispatcher
	queue     *queue.Queue
	now       func() time.Time

	alerts sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New wires an engine from validated configuration.
func New(cfg config.Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dets []detectors.Detector
	for _, name := range patterns.Modules() {
		m, _ := cfg.Modules.Get(name)
		if !m.Enabled {
			continue
		}
		d, err := detectors.New(name, detectors.Options{
			Sensitivity: cfg.ModuleSensitivity(name),
			ASN:         deps.ASN,
		})
		if err != nil {
			return nil, err
		}
		dets = append(dets, d)
	}

	reps := reputation.NewStore(deps.Reputation, cfg.Reputation)
	limiter := ratelimit.New(cfg.RateLimit, deps.RateLimits)
	pol, err := policy.New(cfg, reps, limiter)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		detectors: dets,
		policy:    pol,
		reps:      reps,
		limiter:   limiter,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		queue:     queue.New(cfg.Queue.Size, cfg.Queue.Workers),
		now:       time.Now,
	}, nil
}

// Reputation exposes the store for reporting and operator edits.
func (e *Engine) Reputation() *reputation.Store { return e.reps }

// Modules lists the enabled detection modules in scan order.
func (e *Engine) Modules() []string {
	names := make([]string, 0, len(e.detectors))
	for _, d := range e.detectors {
		names = append(names, d.Name())
	}
	return names
}

// Validate screens text for meta's identity. It only fails on bad input;
// module, persistence and notification trouble is logged and absorbed.
func (e *Engine) Validate(ctx context.Context, text string, meta Metadata) (*security.ValidationResult, error) {
	const op = "validate"
	if strings.TrimSpace(meta.UserID) == "" {
		return nil, security.NewPreconditionError(op, "user_id", "must not be empty")
	}
	if strings.TrimSpace(meta.SessionID) == "" {
		return nil, security.NewPreconditionError(op, "session_id", "must not be empty")
	}

	start := e.now()
	if !e.cfg.Enabled {
		return &security.ValidationResult{
			Severity:        security.SeveritySafe,
			Action:          security.ActionAllow,
			Reasoning:       DisabledReasoning,
			Findings:        []security.Finding{},
			Fingerprint:     security.Fingerprint(text),
			Timestamp:       start,
			Recommendations: []string{},
		}, nil
	}

	findings, moduleErrors := e.scan(ctx, text)

	assessment, err := scoring.CalculateSeverity(findings)
	if err != nil {
		return nil, err
	}
	decision, err := e.policy.DetermineAction(ctx, assessment.Severity, meta.UserID)
	if err != nil {
		return nil, err
	}

	res := &security.ValidationResult{
		Severity:          assessment.Severity,
		Action:            decision.Action,
		Reasoning:         assessment.Reasoning + "; " + decision.Reasoning,
		BypassReason:      decision.BypassReason,
		Findings:          findings,
		Fingerprint:       security.Fingerprint(text),
		Timestamp:         start,
		Recommendations:   Recommendations(findings),
		ModulesConcerned:  assessment.ModulesConcerned,
		SeverityBreakdown: assessment.SeverityBreakdown,
		ModuleErrors:      moduleErrors,
		EventID:           uuid.New().String(),
	}
	res.Duration = e.now().Sub(start)

	metrics.ObserveValidation(res.Severity.String(), string(res.Action), res.Duration)
	e.logDecision(meta, res)
	e.afterDecision(text, meta, res, decision)
	return res, nil
}

type moduleResult struct {
	findings []security.Finding
	err      error
}

// scan runs every detector concurrently under one deadline. Findings are
// concatenated in module order; a failed module contributes none.
func (e *Engine) scan(ctx context.Context, text string) ([]security.Finding, map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Engine.ModuleTimeout)
	defer cancel()

	results := make([]moduleResult, len(e.detectors))
	var g errgroup.Group
	for i, d := range e.detectors {
		g.Go(func() error {
			results[i] = runDetector(ctx, d, text)
			return nil
		})
	}
	_ = g.Wait()

	findings := make([]security.Finding, 0)
	var moduleErrors map[string]string
	for i, r := range results {
		name := e.detectors[i].Name()
		if r.err != nil {
			if moduleErrors == nil {
				moduleErrors = make(map[string]string)
			}
			moduleErrors[name] = r.err.Error()
			metrics.IncModuleFailure(name)
			logger.WithFields(logrus.Fields{
				"component": "engine",
				"module":    name,
				"error":     r.err.Error(),
			}).Warn("detection module failed")
			continue
		}
		metrics.AddFindings(name, len(r.findings))
		findings = append(findings, r.findings...)
	}
	return findings, moduleErrors
}

// runDetector returns when the detector does or when ctx ends, whichever is
// first. A panicking detector is reported as an error.
func runDetector(ctx context.Context, d detectors.Detector, text string) moduleResult {
	done := make(chan moduleResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- moduleResult{err: fmt.Errorf("%s panicked: %v", d.Name(), r)}
			}
		}()
		f, err := d.Scan(ctx, text)
		done <- moduleResult{findings: f, err: err}
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return moduleResult{err: fmt.Errorf("%s: %w", d.Name(), ctx.Err())}
	}
}

func (e *Engine) logDecision(meta Metadata, res *security.ValidationResult) {
	entry := logger.WithFields(logrus.Fields{
		"component":   "engine",
		"user_id":     util.SanitizeForLog(meta.UserID),
		"session_id":  util.SanitizeForLog(meta.SessionID),
		"severity":    res.Severity.String(),
		"action":      string(res.Action),
		"findings":    len(res.Findings),
		"fingerprint": res.Fingerprint,
		"event_id":    res.EventID,
		"duration_ms": res.Duration.Milliseconds(),
	})
	if res.Action.Blocks() {
		entry.Info("validation blocked")
		return
	}
	entry.Debug("validation completed")
}

// afterDecision updates reputation and rate-limit state and queues every
// write and alert for the decision.
func (e *Engine) afterDecision(text string, meta Metadata, res *security.ValidationResult, d *policy.Decision) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		logger.WithFields(logrus.Fields{"component": "engine", "event_id": res.EventID}).Warn("engine closed, skipping persistence")
		return
	}

	bg := context.Background()
	// closed once the event row is written or its write is dropped;
	// notification logs reference that row
	inserted := make(chan struct{})
	if e.audit == nil {
		close(inserted)
	} else {
		ev := e.event(text, meta, res, d)
		if !e.enqueue("record event", func(ctx context.Context) error {
			defer close(inserted)
			return e.audit.RecordEvent(ctx, ev)
		}) {
			close(inserted)
		}
		if len(res.Findings) > 0 {
			findings := res.Findings
			at := res.Timestamp
			e.enqueue("record pattern matches", func(ctx context.Context) error {
				var errs []error
				for _, f := range findings {
					errs = append(errs, e.audit.RecordPatternMatch(ctx, f.Module, f.Pattern, at))
				}
				return errors.Join(errs...)
			})
		}
	}

	if !d.Owner {
		// each queued write stores the latest record when it runs, so
		// workers finishing out of order cannot roll state back
		if _, pending, err := e.reps.Record(bg, meta.UserID, res.Severity, res.Action); err == nil && pending != nil {
			if !e.enqueue("save reputation", pending.Flush) {
				pending.Release()
			}
		}
		if e.limiter.Enabled() {
			if _, pending := e.limiter.Outcome(bg, meta.UserID, res.Action.Blocks()); pending != nil {
				if !e.enqueue("save rate limit", pending.Flush) {
					pending.Release()
				}
			}
		}
	}

	if res.Action.Notifies() && e.notifier != nil {
		payload := notify.Payload{
			EventID:     res.EventID,
			Severity:    res.Severity,
			Action:      res.Action,
			UserID:      meta.UserID,
			Module:      primaryModule(res),
			Fingerprint: res.Fingerprint,
			Message:     res.Reasoning,
			Timestamp:   res.Timestamp,
		}
		e.alerts.Add(1)
		go e.alert(payload, inserted)
	}
}

func (e *Engine) alert(p notify.Payload, inserted <-chan struct{}) {
	defer e.alerts.Done()
	result := e.notifier.Notify(context.Background(), p)
	if e.audit == nil || len(result.Channels) == 0 {
		return
	}
	<-inserted
	for _, ch := range result.Channels {
		entry := &models.NotificationLog{
			Channel:  ch,
			Severity: p.Severity.String(),
			Message:  p.Message,
			Status:   models.DeliverySuccess,
		}
		if msg, failed := result.Errors[ch]; failed {
			entry.Status = models.DeliveryFailure
			entry.Error = msg
		}
		e.enqueue("log notification", func(ctx context.Context) error {
			return e.audit.LogNotificationForEvent(ctx, p.EventID, entry)
		})
	}
}

func (e *Engine) enqueue(name string, run func(ctx context.Context) error) bool {
	if err := e.queue.Enqueue(queue.Job{Name: name, Run: run}); err != nil {
		logger.WithFields(logrus.Fields{"component": "engine", "job": name, "error": err.Error()}).Warn("write dropped")
		return false
	}
	return true
}

// primaryModule names the module behind the most severe finding.
func primaryModule(res *security.ValidationResult) string {
	best := ""
	sev := security.SeveritySafe
	for _, f := range res.Findings {
		if best == "" || f.Severity > sev {
			best, sev = f.Module, f.Severity
		}
	}
	return best
}

func (e *Engine) event(text string, meta Metadata, res *security.ValidationResult, d *policy.Decision) *models.SecurityEvent {
	ids, _ := json.Marshal(res.PatternIDs())
	extra := map[string]any{
		"reasoning":         res.Reasoning,
		"modules_concerned": res.ModulesConcerned,
		"trust_score":       d.TrustScore,
	}
	if res.BypassReason != "" {
		extra["bypass_reason"] = res.BypassReason
	}
	if d.Escalated {
		extra["base_action"] = string(d.BaseAction)
	}
	if d.RateLimited {
		extra["rate_limited"] = true
	}
	if len(res.ModuleErrors) > 0 {
		extra["module_errors"] = res.ModuleErrors
	}
	if len(meta.Context) > 0 {
		extra["context"] = meta.Context
	}
	metadata, err := json.Marshal(extra)
	if err != nil {
		metadata = []byte("{}")
	}

	eventType := "validation"
	if v, ok := meta.Context["event_type"].(string); ok && v != "" {
		eventType = v
	}
	return &models.SecurityEvent{
		UUID:            res.EventID,
		EventType:       eventType,
		Severity:        res.Severity.String(),
		Action:          string(res.Action),
		UserID:          meta.UserID,
		SessionID:       meta.SessionID,
		InputText:       util.Truncate(redactSecrets(text, res.Findings), MaxStoredInput),
		PatternsMatched: string(ids),
		Fingerprint:     res.Fingerprint,
		Metadata:        string(metadata),
		CreatedAt:       res.Timestamp,
	}
}

// redactSecrets swaps each secret-detector span for its redacted match so
// raw credentials never reach the audit log.
func redactSecrets(text string, findings []security.Finding) string {
	type span struct {
		start, end int
		repl       string
	}
	var spans []span
	for _, f := range findings {
		if f.Module != patterns.ModuleSecret {
			continue
		}
		off := f.Offset()
		n, _ := f.Metadata[security.MetaLength].(int)
		if off < 0 || n <= 0 || off+n > len(text) {
			continue
		}
		spans = append(spans, span{off, off + n, f.Match})
	}
	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	// overlapping spans collapse into one covering both, under the
	// replacement of the one starting first
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start < last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	pos := 0
	for _, s := range merged {
		b.WriteString(text[pos:s.start])
		b.WriteString(s.repl)
		pos = s.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// Close stops accepting side effects, waits for in-flight alerts and
// drains the write queue.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.alerts.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		_ = e.queue.Stop(ctx)
		return fmt.Errorf("waiting for notifications: %w", ctx.Err())
	}
	return e.queue.Stop(ctx)
}
