package freshness

// Evaluator turns an inventory snapshot into a report.
//
//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -destination=mock_evaluator.gen.go -package=freshness . Evaluator
type Evaluator interface {
	// Evaluate never fails; malformed policy is rejected when the policy is compiled.
	Evaluate(inventory []DependencyStatus, tool ToolVersionStatus) Report
}

// evaluator is the default implementation of Evaluator.
type evaluator struct {
	policy Policy
}

// NewEvaluator returns an Evaluator bound to a compiled policy.
func NewEvaluator(policy Policy) Evaluator {
	return &evaluator{policy: policy}
}

// Evaluate implements the Evaluator interface.
func (e *evaluator) Evaluate(inventory []DependencyStatus, tool ToolVersionStatus) Report {
	return Evaluate(inventory, tool, e.policy)
}

// Evaluate scans the inventory and the tool status and returns the report.
// Lines are ordered outdated dependencies, then tool, then unresolved entries,
// each group keeping inventory order. A coordinate listed more than once is
// reported only for its first entry.
func Evaluate(inventory []DependencyStatus, tool ToolVersionStatus, policy Policy) Report {
	var (
		outdated   []Line
		unresolved []Line
		toolLines  []Line
		hasUpdates bool
	)

	seen := make(map[Coordinate]struct{}, len(inventory))
	for _, dep := range inventory {
		if _, dup := seen[dep.Coordinate]; dup {
			continue
		}
		seen[dep.Coordinate] = struct{}{}

		switch dep.State {
		case Outdated:
			if policy.Exemptions.IsExempt(dep.Coordinate.String()) {
				continue
			}
			outdated = append(outdated, outdatedLine(dep))
			hasUpdates = true
		case Unresolved:
			unresolved = append(unresolved, unresolvedLine(dep))
		}
	}

	if tool.UpdateAvailable &&
		tool.Running != tool.Available &&
		!policy.Exemptions.IsExempt(tool.Coordinate.String()) {
		toolLines = append(toolLines, toolLine(tool))
		hasUpdates = true
	}

	lines := make([]Line, 0, len(outdated)+len(toolLines)+len(unresolved))
	lines = append(lines, outdated...)
	lines = append(lines, toolLines...)
	lines = append(lines, unresolved...)

	return Report{
		Lines:      lines,
		ShouldFail: hasUpdates && policy.FailOnUpdate,
	}
}
