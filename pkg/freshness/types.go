package freshness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cryptellation/freshness/pkg/exemption"
)

// ErrInvalidCoordinate is returned when a coordinate string is not "group:artifact".
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate identifies a dependency by group and artifact.
type Coordinate struct {
	Group    string
	Artifact string
}

// ParseCoordinate parses a "group:artifact" string.
func ParseCoordinate(s string) (Coordinate, error) {
	group, artifact, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || group == "" || artifact == "" || strings.Contains(artifact, ":") {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return Coordinate{Group: group, Artifact: artifact}, nil
}

// String returns the "group:artifact" key exemption rules are matched against.
func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact
}

// IsZero reports whether the coordinate is unset.
func (c Coordinate) IsZero() bool {
	return c.Group == "" && c.Artifact == ""
}

// State is the freshness category of a dependency.
type State int

const (
	// Current means no newer release is available.
	Current State = iota
	// Outdated means a newer release is available.
	Outdated
	// Unresolved means the available versions could not be determined.
	Unresolved
)

func (s State) String() string {
	switch s {
	case Current:
		return "current"
	case Outdated:
		return "outdated"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DependencyStatus is one entry of the inventory.
// Available is set only when State is Outdated, Reason only when Unresolved.
type DependencyStatus struct {
	Coordinate Coordinate
	State      State
	Current    string
	Available  string
	Reason     string
}

// ToolVersionStatus compares the running build tool against its latest release.
type ToolVersionStatus struct {
	Coordinate      Coordinate
	Running         string
	Available       string
	UpdateAvailable bool
}

// Policy is the compiled form of the user-facing policy configuration.
type Policy struct {
	FailOnUpdate bool
	Exemptions   *exemption.Matcher
}
