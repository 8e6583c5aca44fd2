package detectors

import (
	"context"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// PromptInjection flags instruction overrides, jailbreaks, impersonation and
// extraction attempts.
type PromptInjection struct {
	scanner
}

func NewPromptInjection(opts Options) *PromptInjection {
	return &PromptInjection{scanner: newScanner(patterns.ModulePromptInjection, opts.sensitivity())}
}

func (d *PromptInjection) Name() string { return patterns.ModulePromptInjection }

func (d *PromptInjection) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	out, err := d.scan(ctx, text, 0)
	if err != nil {
		return nil, err
	}
	return sortByOffset(out), nil
}
