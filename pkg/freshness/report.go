package freshness

import (
	"fmt"
	"strings"
)

// LineKind categorizes a report line.
type LineKind int

const (
	// DependencyOutdated is a warning about a dependency with a newer release.
	DependencyOutdated LineKind = iota
	// ToolOutdated is a warning about the build tool itself.
	ToolOutdated
	// DependencyUnresolved is informational only.
	DependencyUnresolved
)

func (k LineKind) String() string {
	switch k {
	case DependencyOutdated:
		return "dependency-outdated"
	case ToolOutdated:
		return "tool-outdated"
	case DependencyUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsWarning reports whether the line counts toward a failing verdict.
func (k LineKind) IsWarning() bool {
	return k == DependencyOutdated || k == ToolOutdated
}

// Line is a single human-readable report entry.
type Line struct {
	Kind       LineKind
	Coordinate Coordinate
	Current    string
	Available  string
	Reason     string
	Text       string
}

func (l Line) String() string {
	return l.Text
}

// Report is the outcome of an evaluation.
type Report struct {
	Lines      []Line
	ShouldFail bool
}

// Summary counts report lines per kind.
type Summary struct {
	Outdated   int
	Tool       int
	Unresolved int
}

// Summary counts the report lines per kind.
func (r Report) Summary() Summary {
	var s Summary
	for _, l := range r.Lines {
		switch l.Kind {
		case DependencyOutdated:
			s.Outdated++
		case ToolOutdated:
			s.Tool++
		case DependencyUnresolved:
			s.Unresolved++
		}
	}
	return s
}

// HasUpdates reports whether any line is an update warning.
func (r Report) HasUpdates() bool {
	for _, l := range r.Lines {
		if l.Kind.IsWarning() {
			return true
		}
	}
	return false
}

// String renders one line per entry, in report order.
func (r Report) String() string {
	var b strings.Builder
	for i, l := range r.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

func outdatedLine(d DependencyStatus) Line {
	return Line{
		Kind:       DependencyOutdated,
		Coordinate: d.Coordinate,
		Current:    d.Current,
		Available:  d.Available,
		Text:       fmt.Sprintf("Dependency update available: %s [%s -> %s]", d.Coordinate, d.Current, d.Available),
	}
}

func toolLine(t ToolVersionStatus) Line {
	return Line{
		Kind:       ToolOutdated,
		Coordinate: t.Coordinate,
		Current:    t.Running,
		Available:  t.Available,
		Text:       fmt.Sprintf("Build tool update available: %s [%s -> %s]", t.Coordinate, t.Running, t.Available),
	}
}

func unresolvedLine(d DependencyStatus) Line {
	return Line{
		Kind:       DependencyUnresolved,
		Coordinate: d.Coordinate,
		Current:    d.Current,
		Reason:     d.Reason,
		Text:       fmt.Sprintf("Unresolved dependency: %s (%s)", d.Coordinate, d.Reason),
	}
}
