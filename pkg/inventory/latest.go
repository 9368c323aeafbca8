package inventory

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cryptellation/freshness/pkg/version"
	mvn "github.com/masahiro331/go-mvn-version"
)

// newestRelease returns the newest candidate classified as a release.
// When every release parses as a semantic version they are ordered by semver,
// otherwise all of them are ordered with Maven rules so that "5.4.2.Final"
// sorts above "5.3.10.Final" whatever the listing order. Candidates Maven
// cannot parse either are ignored.
func newestRelease(candidates []string, classifier *version.Classifier) (string, bool) {
	releases := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || !classifier.IsRelease(c) {
			continue
		}
		releases = append(releases, c)
	}
	if len(releases) == 0 {
		return "", false
	}

	if best, ok := newestSemver(releases); ok {
		return best, true
	}
	return newestMaven(releases)
}

func newestSemver(releases []string) (string, bool) {
	var (
		best    string
		bestVer *semver.Version
	)
	for _, r := range releases {
		v, err := semver.NewVersion(r)
		if err != nil {
			return "", false
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = r, v
		}
	}
	return best, true
}

func newestMaven(releases []string) (string, bool) {
	var (
		best    string
		bestVer mvn.Version
		found   bool
	)
	for _, r := range releases {
		v, err := mvn.NewVersion(r)
		if err != nil {
			continue
		}
		if !found || v.Compare(bestVer) > 0 {
			best, bestVer, found = r, v, true
		}
	}
	return best, found
}

// isNewer reports whether candidate is strictly greater than current. Both are
// compared as semantic versions when they parse, with Maven rules otherwise.
// Versions that cannot be compared are never reported as newer.
func isNewer(candidate, current string) bool {
	if candidate == current {
		return false
	}

	cand, candErr := semver.NewVersion(candidate)
	cur, curErr := semver.NewVersion(current)
	if candErr == nil && curErr == nil {
		return cand.GreaterThan(cur)
	}

	mcand, err := mvn.NewVersion(candidate)
	if err != nil {
		return false
	}
	mcur, err := mvn.NewVersion(current)
	if err != nil {
		return false
	}
	return mcand.Compare(mcur) > 0
}
