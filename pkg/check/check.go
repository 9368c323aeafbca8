package check

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cryptellation/freshness/pkg/config"
	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/cryptellation/freshness/pkg/gate"
	"github.com/cryptellation/freshness/pkg/inventory"
	"github.com/cryptellation/freshness/pkg/logging"
	"go.uber.org/zap"
)

// Result is the outcome of a freshness check.
type Result struct {
	Report  freshness.Report
	Verdict gate.Verdict
}

// Checker gathers the inventory of a build, evaluates its freshness and
// decides whether the build has to stop.
type Checker struct {
	config       *config.Config
	build        gate.BuildContext
	requirements []inventory.Requirement
	tool         inventory.ToolRequirement
	builder      inventory.Builder
	evaluator    freshness.Evaluator
	out          io.Writer
}

// New compiles the configuration and loads the inventory snapshot it points to.
func New(cfg *config.Config) (*Checker, error) {
	compiled, err := cfg.Compile()
	if err != nil {
		return nil, err
	}

	if cfg.Inventory.Path == "" {
		return nil, &config.ConfigurationError{Field: "inventory.path", Err: errors.New("no inventory snapshot configured")}
	}
	snap, err := inventory.LoadSnapshot(cfg.Inventory.Path)
	if err != nil {
		return nil, err
	}
	if err := snap.SetToolCoordinate(compiled.Tool); err != nil {
		return nil, fmt.Errorf("inventory snapshot %s: %w", cfg.Inventory.Path, err)
	}

	return &Checker{
		config:       cfg,
		build:        compiled.Build,
		requirements: snap.Requirements,
		tool:         snap.Tool,
		builder:      inventory.NewBuilder(snap.Source, compiled.Classifier, compiled.Builder),
		evaluator:    freshness.NewEvaluator(compiled.Policy),
	}, nil
}

// SetOutput makes RunWithLogging print the report lines to w, independently
// of the log level.
func (c *Checker) SetOutput(w io.Writer) {
	c.out = w
}

// Run builds the inventory, evaluates it and applies the enforcement gate.
// Each report line is logged, warnings at Warn and unresolved dependencies at Info.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	inv, err := c.builder.Build(ctx, c.requirements, c.tool)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory: %w", err)
	}

	report := c.evaluator.Evaluate(inv.Dependencies, inv.Tool)
	logReport(ctx, report)

	return &Result{
		Report:  report,
		Verdict: gate.Decide(c.build, report),
	}, nil
}

// RunWithLogging runs the check, prints the report to the output set with
// SetOutput and logs the verdict. It returns
// gate.ErrPolicyViolation when the build must stop.
func (c *Checker) RunWithLogging(ctx context.Context) error {
	logger := logging.C(ctx)
	logger.Info("Checking dependency freshness",
		zap.String("version_label", c.build.VersionLabel),
		zap.Stringer("mode", gate.ModeOf(c.build)),
		zap.Bool("fail_on_update", c.config.FailOnUpdate),
		zap.Int("exemptions", len(c.config.Exemptions)),
		zap.Int("dependencies", len(c.requirements)))

	res, err := c.Run(ctx)
	if err != nil {
		logger.Error("Freshness check failed", zap.Error(err))
		return err
	}

	if c.out != nil && len(res.Report.Lines) > 0 {
		if _, err := fmt.Fprintln(c.out, res.Report.String()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	summary := res.Report.Summary()
	fields := []zap.Field{
		zap.Int("outdated", summary.Outdated),
		zap.Int("tool", summary.Tool),
		zap.Int("unresolved", summary.Unresolved),
		zap.Stringer("mode", res.Verdict.Mode),
	}
	switch {
	case res.Verdict.ExitNonZero:
		logger.Error("Dependency updates available, failing the build", fields...)
	case res.Verdict.Suppressed():
		logger.Warn("Dependency updates available, not failing a release build", fields...)
	default:
		logger.Info("Dependency freshness check passed", fields...)
	}

	return res.Verdict.Err()
}

func logReport(ctx context.Context, report freshness.Report) {
	logger := logging.C(ctx)
	for _, line := range report.Lines {
		fields := []zap.Field{
			zap.Stringer("kind", line.Kind),
			zap.String("coordinate", line.Coordinate.String()),
		}
		if line.Kind.IsWarning() {
			fields = append(fields,
				zap.String("current", line.Current),
				zap.String("available", line.Available))
			logger.Warn(line.Text, fields...)
			continue
		}
		fields = append(fields, zap.String("reason", line.Reason))
		logger.Info(line.Text, fields...)
	}
}
