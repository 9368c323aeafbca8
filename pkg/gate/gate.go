// Package gate decides whether a freshness verdict may stop the build.
//
// Development builds (version labels ending in a development marker such as
// "-SNAPSHOT") are Enforcing; release builds are Advisory, the report is still
// produced but its failure signal is suppressed.
package gate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cryptellation/freshness/pkg/freshness"
)

// DefaultDevelopmentSuffixes mark a version label as a development build.
var DefaultDevelopmentSuffixes = []string{"-SNAPSHOT"}

// ErrPolicyViolation is returned when an enforcing build has outdated dependencies.
var ErrPolicyViolation = errors.New("dependency freshness policy violated")

// Mode is the enforcement mode of a build.
type Mode int

const (
	// Advisory builds report but never fail.
	Advisory Mode = iota
	// Enforcing builds fail when the report says so.
	Enforcing
)

func (m Mode) String() string {
	switch m {
	case Advisory:
		return "advisory"
	case Enforcing:
		return "enforcing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// BuildContext describes the build being checked.
type BuildContext struct {
	VersionLabel       string
	IsDevelopmentBuild bool
}

// NewBuildContext derives the development flag from the version label. The
// label is a development build when it ends with one of the suffixes,
// compared case-insensitively. With no suffixes, DefaultDevelopmentSuffixes apply.
func NewBuildContext(label string, suffixes ...string) BuildContext {
	if len(suffixes) == 0 {
		suffixes = DefaultDevelopmentSuffixes
	}
	lower := strings.ToLower(strings.TrimSpace(label))
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(lower, strings.ToLower(s)) {
			return BuildContext{VersionLabel: label, IsDevelopmentBuild: true}
		}
	}
	return BuildContext{VersionLabel: label}
}

// ShouldEnforce reports whether the freshness verdict may affect the build outcome.
func ShouldEnforce(ctx BuildContext) bool {
	return ctx.IsDevelopmentBuild
}

// ModeOf returns the enforcement mode of the build.
func ModeOf(ctx BuildContext) Mode {
	if ShouldEnforce(ctx) {
		return Enforcing
	}
	return Advisory
}

// Verdict combines a report with the build context.
type Verdict struct {
	Mode        Mode
	ShouldFail  bool
	ExitNonZero bool
}

// Decide combines the enforcement mode with the report verdict.
func Decide(ctx BuildContext, report freshness.Report) Verdict {
	return Verdict{
		Mode:        ModeOf(ctx),
		ShouldFail:  report.ShouldFail,
		ExitNonZero: ShouldEnforce(ctx) && report.ShouldFail,
	}
}

// Err returns ErrPolicyViolation when the build must stop, nil otherwise.
func (v Verdict) Err() error {
	if v.ExitNonZero {
		return ErrPolicyViolation
	}
	return nil
}

// Suppressed reports whether a failing report was ignored because the build is advisory.
func (v Verdict) Suppressed() bool {
	return v.ShouldFail && !v.ExitNonZero
}
