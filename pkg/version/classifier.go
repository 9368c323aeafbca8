package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Class is the outcome of classifying a candidate version.
type Class int

const (
	// Release is a stable, publishable version.
	Release Class = iota
	// PreRelease is a milestone, candidate or vendor rebuild that should not be proposed as an update.
	PreRelease
)

func (c Class) String() string {
	switch c {
	case Release:
		return "Release"
	case PreRelease:
		return "PreRelease"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// DefaultQualifiers are the pre-release tokens used when none are configured.
var DefaultQualifiers = []string{"alpha", "beta", "rc", "cr", "m", "preview"}

// DefaultVendorPatterns mark vendor rebuilds (e.g. 1.2.3.redhat-00001) as pre-releases.
var DefaultVendorPatterns = []string{"(?i)redhat"}

var (
	// ErrEmptyQualifier is returned when a qualifier token is blank.
	ErrEmptyQualifier = errors.New("empty pre-release qualifier")
	// ErrInvalidVendorPattern is returned when a vendor pattern does not compile.
	ErrInvalidVendorPattern = errors.New("invalid vendor pattern")
)

// Options configures a Classifier.
type Options struct {
	// Qualifiers are matched case-insensitively as whole words followed by optional digits.
	Qualifiers []string
	// VendorPatterns are unanchored regular expressions.
	VendorPatterns []string
	// StrictSemver also treats valid semantic versions with a pre-release part as PreRelease.
	StrictSemver bool
}

// Classifier decides whether a version string denotes a release.
// It is immutable once built and safe for concurrent use.
type Classifier struct {
	qualifier    *regexp.Regexp
	vendors      []*regexp.Regexp
	strictSemver bool
}

// NewClassifier compiles the qualifier and vendor patterns.
//
// A qualifier matches when it is preceded by the start of the string or a non-letter, and
// its optional trailing digits are followed by the end of the string or a character that is
// neither a letter nor a digit. So "1.3-beta2", "RC1", "1.0.0.beta" and "1.0rc1" match "beta"
// or "rc", while "2.0.0-alphabet" does not match "alpha".
func NewClassifier(opts Options) (*Classifier, error) {
	c := &Classifier{strictSemver: opts.StrictSemver}

	if len(opts.Qualifiers) > 0 {
		tokens := make([]string, 0, len(opts.Qualifiers))
		for _, q := range opts.Qualifiers {
			q = strings.TrimSpace(q)
			if q == "" {
				return nil, ErrEmptyQualifier
			}
			tokens = append(tokens, regexp.QuoteMeta(q))
		}
		expr := `(?i)(?:^|[^a-z])(?:` + strings.Join(tokens, "|") + `)[0-9]*(?:$|[^a-z0-9])`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling qualifiers %v: %w", opts.Qualifiers, err)
		}
		c.qualifier = re
	}

	for _, p := range opts.VendorPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidVendorPattern, p, err)
		}
		c.vendors = append(c.vendors, re)
	}

	return c, nil
}

// Default returns a Classifier using DefaultQualifiers and DefaultVendorPatterns.
func Default() *Classifier {
	c, err := NewClassifier(Options{
		Qualifiers:     DefaultQualifiers,
		VendorPatterns: DefaultVendorPatterns,
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns PreRelease when the candidate carries a vendor marker or a
// qualifier token, Release otherwise. It never fails.
func (c *Classifier) Classify(candidate string) Class {
	if c == nil || candidate == "" {
		return Release
	}
	for _, re := range c.vendors {
		if re.MatchString(candidate) {
			return PreRelease
		}
	}
	if c.qualifier != nil && c.qualifier.MatchString(candidate) {
		return PreRelease
	}
	if c.strictSemver && semverPrerelease(candidate) {
		return PreRelease
	}
	return Release
}

// IsRelease is shorthand for Classify(candidate) == Release.
func (c *Classifier) IsRelease(candidate string) bool {
	return c.Classify(candidate) == Release
}

// Classify classifies a candidate against the given qualifiers and the default vendor patterns.
// Blank qualifiers are ignored.
func Classify(candidate string, qualifiers []string) Class {
	kept := make([]string, 0, len(qualifiers))
	for _, q := range qualifiers {
		if strings.TrimSpace(q) != "" {
			kept = append(kept, q)
		}
	}
	c, err := NewClassifier(Options{Qualifiers: kept, VendorPatterns: DefaultVendorPatterns})
	if err != nil {
		return Release
	}
	return c.Classify(candidate)
}

func semverPrerelease(v string) bool {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v) && semver.Prerelease(v) != ""
}
