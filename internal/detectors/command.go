package detectors

import (
	"context"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/security"
)

// CommandValidator flags shell metacharacters and destructive commands.
// When a destructive command is present, every operator finding in the same
// text is raised one level.
type CommandValidator struct {
	scanner
}

func NewCommandValidator(opts Options) *CommandValidator {
	return &CommandValidator{scanner: newScanner(patterns.ModuleCommand, opts.sensitivity())}
}

func (d *CommandValidator) Name() string { return patterns.ModuleCommand }

func (d *CommandValidator) Scan(ctx context.Context, text string) ([]security.Finding, error) {
	out, err := d.scan(ctx, text, 0)
	if err != nil {
		return nil, err
	}

	destructive := false
	for _, f := range out {
		if f.Pattern.HasTag(patterns.TagDestructive) {
			destructive = true
			break
		}
	}
	if destructive {
		for i := range out {
			if out[i].Pattern.HasTag(patterns.TagOperator) {
				out[i].Severity = out[i].Severity.Shift(1)
				out[i].Metadata[security.MetaEscalated] = true
			}
		}
	}
	return sortByOffset(out), nil
}
