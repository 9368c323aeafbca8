package gate

import (
	"testing"

	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildContext(t *testing.T) {
	cases := []struct {
		label    string
		suffixes []string
		want     bool
	}{
		{"1.0-SNAPSHOT", nil, true},
		{"1.0-snapshot", nil, true},
		{"1.0", nil, false},
		{"", nil, false},
		{"SNAPSHOT-1.0", nil, false},
		{"2.3.0-dev", []string{"-dev", "-SNAPSHOT"}, true},
		{"2.3.0-SNAPSHOT", []string{"-dev"}, false},
		{"2.3.0", []string{""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			ctx := NewBuildContext(tc.label, tc.suffixes...)
			assert.Equal(t, tc.label, ctx.VersionLabel)
			assert.Equal(t, tc.want, ctx.IsDevelopmentBuild)
		})
	}
}

func TestShouldEnforceAndMode(t *testing.T) {
	dev := BuildContext{VersionLabel: "1.0-SNAPSHOT", IsDevelopmentBuild: true}
	rel := BuildContext{VersionLabel: "1.0"}

	require.True(t, ShouldEnforce(dev))
	require.Equal(t, Enforcing, ModeOf(dev))
	require.False(t, ShouldEnforce(rel))
	require.Equal(t, Advisory, ModeOf(rel))
	require.Equal(t, "enforcing", Enforcing.String())
	require.Equal(t, "advisory", Advisory.String())
	require.Equal(t, "mode(3)", Mode(3).String())
}

func TestDecide(t *testing.T) {
	failing := freshness.Report{ShouldFail: true}
	passing := freshness.Report{}

	dev := NewBuildContext("1.0-SNAPSHOT")
	rel := NewBuildContext("1.0")

	v := Decide(dev, failing)
	require.Equal(t, Verdict{Mode: Enforcing, ShouldFail: true, ExitNonZero: true}, v)
	require.ErrorIs(t, v.Err(), ErrPolicyViolation)
	require.False(t, v.Suppressed())

	v = Decide(rel, failing)
	require.Equal(t, Verdict{Mode: Advisory, ShouldFail: true, ExitNonZero: false}, v)
	require.NoError(t, v.Err())
	require.True(t, v.Suppressed())

	v = Decide(dev, passing)
	require.False(t, v.ExitNonZero)
	require.NoError(t, v.Err())
	require.False(t, v.Suppressed())
}
