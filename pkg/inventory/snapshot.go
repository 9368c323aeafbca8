package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/package-url/packageurl-go"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPURL is returned when a dependency's package URL cannot name a coordinate.
var ErrInvalidPURL = errors.New("invalid package url")

// Snapshot is a normalized inventory document: what the build declares and
// which versions were available when the snapshot was taken.
//
//	tool:
//	  coordinate: gradle:gradle
//	  running: "4.9"
//	  candidates: ["5.0", "5.1-rc-1"]
//	dependencies:
//	  - coordinate: org.spockframework:spock-core
//	    current: "1.2"
//	    candidates: ["1.3", "2.0-M1"]
//	  - coordinate: com.example:gone
//	    current: "1.0"
//	    unresolved: could not find version
//	  - purl: pkg:maven/junit/junit@4.12
//	    candidates: ["4.13.2"]
//
// A dependency is named either by coordinate or by package URL; the purl
// version, if any, is the current version unless current is set.
type Snapshot struct {
	Requirements []Requirement
	Tool         ToolRequirement
	Source       *StaticSource

	// tool block without a coordinate, named later by SetToolCoordinate
	unnamedTool *toolEntry
}

type snapshotDocument struct {
	Tool         *toolEntry        `yaml:"tool" toml:"tool"`
	Dependencies []dependencyEntry `yaml:"dependencies" toml:"dependencies"`
}

type toolEntry struct {
	Coordinate string   `yaml:"coordinate" toml:"coordinate"`
	Running    string   `yaml:"running" toml:"running"`
	Candidates []string `yaml:"candidates" toml:"candidates"`
}

type dependencyEntry struct {
	Coordinate string   `yaml:"coordinate" toml:"coordinate"`
	PURL       string   `yaml:"purl" toml:"purl"`
	Current    string   `yaml:"current" toml:"current"`
	Candidates []string `yaml:"candidates" toml:"candidates"`
	Unresolved string   `yaml:"unresolved" toml:"unresolved"`
}

// LoadSnapshot reads a snapshot document. Files ending in .toml are decoded as
// TOML, anything else as YAML (which covers JSON).
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory snapshot: %w", err)
	}

	var snap *Snapshot
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		snap, err = ParseSnapshotTOML(data)
	} else {
		snap, err = ParseSnapshot(data)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ParseSnapshot decodes a YAML or JSON snapshot document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var doc snapshotDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return newSnapshot(doc)
}

// ParseSnapshotTOML decodes a TOML snapshot document. Versions must be quoted.
func ParseSnapshotTOML(data []byte) (*Snapshot, error) {
	var doc snapshotDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return newSnapshot(doc)
}

func newSnapshot(doc snapshotDocument) (*Snapshot, error) {
	snap := &Snapshot{
		Requirements: make([]Requirement, 0, len(doc.Dependencies)),
		Source:       NewStaticSource(),
	}

	seen := make(map[freshness.Coordinate]struct{}, len(doc.Dependencies))
	for i, entry := range doc.Dependencies {
		c, err := entry.coordinate()
		if err != nil {
			return nil, fmt.Errorf("dependency #%d: %w", i, err)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("dependency #%d: %w: %s", i, ErrDuplicateCoordinate, c)
		}
		seen[c] = struct{}{}

		snap.Requirements = append(snap.Requirements, Requirement{Coordinate: c, Current: entry.Current})
		if entry.Unresolved != "" {
			snap.Source.AddUnresolved(c, entry.Unresolved)
			continue
		}
		snap.Source.Add(c, entry.Candidates...)
	}

	if doc.Tool != nil {
		if doc.Tool.Coordinate == "" {
			snap.unnamedTool = doc.Tool
			return snap, nil
		}
		c, err := freshness.ParseCoordinate(doc.Tool.Coordinate)
		if err != nil {
			return nil, fmt.Errorf("tool: %w", err)
		}
		if err := snap.addTool(c, doc.Tool); err != nil {
			return nil, err
		}
	}

	return snap, nil
}

// coordinate resolves the entry's coordinate, filling the current version
// from the package URL when it is not set.
func (e *dependencyEntry) coordinate() (freshness.Coordinate, error) {
	if e.Coordinate != "" || e.PURL == "" {
		return freshness.ParseCoordinate(e.Coordinate)
	}

	p, err := packageurl.FromString(e.PURL)
	if err != nil {
		return freshness.Coordinate{}, fmt.Errorf("%w %q: %v", ErrInvalidPURL, e.PURL, err)
	}
	if p.Namespace == "" {
		return freshness.Coordinate{}, fmt.Errorf("%w %q: no namespace", ErrInvalidPURL, e.PURL)
	}
	if e.Current == "" {
		e.Current = p.Version
	}
	return freshness.Coordinate{Group: strings.ReplaceAll(p.Namespace, "/", "."), Artifact: p.Name}, nil
}

// SetToolCoordinate names the build tool when the document's tool block has
// no coordinate. It does nothing when the document already named the tool or
// has no tool block.
func (s *Snapshot) SetToolCoordinate(c freshness.Coordinate) error {
	if s.unnamedTool == nil || c.IsZero() {
		return nil
	}
	entry := s.unnamedTool
	s.unnamedTool = nil
	return s.addTool(c, entry)
}

func (s *Snapshot) addTool(c freshness.Coordinate, entry *toolEntry) error {
	for _, req := range s.Requirements {
		if req.Coordinate == c {
			return fmt.Errorf("tool: %w: %s", ErrDuplicateCoordinate, c)
		}
	}
	s.Tool = ToolRequirement{Coordinate: c, Running: entry.Running}
	s.Source.Add(c, entry.Candidates...)
	return nil
}
