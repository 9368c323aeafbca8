package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/cryptellation/freshness/pkg/logging"
	"github.com/cryptellation/freshness/pkg/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateCoordinate is returned when a coordinate is required more than once.
var ErrDuplicateCoordinate = errors.New("duplicate coordinate")

// DefaultWorkers bounds concurrent Source queries when none is configured.
const DefaultWorkers = 4

// Requirement is a dependency as declared by the build.
type Requirement struct {
	Coordinate freshness.Coordinate
	Current    string
}

// ToolRequirement is the build tool as currently running.
type ToolRequirement struct {
	Coordinate freshness.Coordinate
	Running    string
}

// Inventory is the snapshot consumed by the freshness evaluator.
type Inventory struct {
	Dependencies []freshness.DependencyStatus
	Tool         freshness.ToolVersionStatus
}

// BuilderOptions tunes how the Source is queried.
type BuilderOptions struct {
	// Workers bounds concurrent queries. Zero or less means DefaultWorkers.
	Workers int
	// Timeout bounds each query. Zero or less means no per-query timeout.
	Timeout time.Duration
}

// Builder gathers versions for every requirement and labels each dependency.
//
//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -destination=mock_builder.gen.go -package=inventory . Builder
type Builder interface {
	Build(ctx context.Context, requirements []Requirement, tool ToolRequirement) (*Inventory, error)
}

type builder struct {
	source     Source
	classifier *version.Classifier
	opts       BuilderOptions
}

// NewBuilder returns a Builder querying source and filtering candidates through classifier.
func NewBuilder(source Source, classifier *version.Classifier, opts BuilderOptions) Builder {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &builder{source: source, classifier: classifier, opts: opts}
}

// Build implements the Builder interface. Dependencies keep requirement order.
// A failing query only marks its dependency unresolved; cancellation of ctx
// aborts the whole build.
func (b *builder) Build(ctx context.Context, requirements []Requirement, tool ToolRequirement) (*Inventory, error) {
	seen := make(map[freshness.Coordinate]struct{}, len(requirements))
	for _, req := range requirements {
		if _, dup := seen[req.Coordinate]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCoordinate, req.Coordinate)
		}
		seen[req.Coordinate] = struct{}{}
	}

	inv := &Inventory{
		Dependencies: make([]freshness.DependencyStatus, len(requirements)),
		Tool:         freshness.ToolVersionStatus{Coordinate: tool.Coordinate, Running: tool.Running},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for i, req := range requirements {
		g.Go(func() error {
			status, err := b.resolveDependency(gctx, req)
			if err != nil {
				return err
			}
			inv.Dependencies[i] = status
			return nil
		})
	}

	if !tool.Coordinate.IsZero() {
		g.Go(func() error {
			status, err := b.resolveTool(gctx, tool)
			if err != nil {
				return err
			}
			inv.Tool = status
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building inventory: %w", err)
	}
	return inv, nil
}

func (b *builder) candidates(ctx context.Context, c freshness.Coordinate) ([]string, error) {
	qctx := ctx
	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}
	return b.source.Candidates(qctx, c)
}

func (b *builder) resolveDependency(ctx context.Context, req Requirement) (freshness.DependencyStatus, error) {
	status := freshness.DependencyStatus{Coordinate: req.Coordinate, Current: req.Current}

	versions, err := b.candidates(ctx, req.Coordinate)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, ctxErr
		}
		logging.C(ctx).Debug("Dependency unresolved",
			zap.String("coordinate", req.Coordinate.String()),
			zap.Error(err))
		status.State = freshness.Unresolved
		status.Reason = err.Error()
		return status, nil
	}

	latest, ok := newestRelease(versions, b.classifier)
	if ok && isNewer(latest, req.Current) {
		status.State = freshness.Outdated
		status.Available = latest
	}

	logging.C(ctx).Debug("Dependency resolved",
		zap.String("coordinate", req.Coordinate.String()),
		zap.String("current", req.Current),
		zap.String("latest_release", latest),
		zap.Stringer("state", status.State))
	return status, nil
}

func (b *builder) resolveTool(ctx context.Context, tool ToolRequirement) (freshness.ToolVersionStatus, error) {
	status := freshness.ToolVersionStatus{Coordinate: tool.Coordinate, Running: tool.Running}

	versions, err := b.candidates(ctx, tool.Coordinate)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, ctxErr
		}
		logging.C(ctx).Warn("Could not determine latest build tool version",
			zap.String("tool", tool.Coordinate.String()),
			zap.Error(err))
		return status, nil
	}

	latest, ok := newestRelease(versions, b.classifier)
	if ok {
		status.Available = latest
		status.UpdateAvailable = isNewer(latest, tool.Running)
	}
	return status, nil
}
