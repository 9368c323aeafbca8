//go:build unit
// +build unit

package check

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cryptellation/freshness/pkg/config"
	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/cryptellation/freshness/pkg/gate"
	"github.com/cryptellation/freshness/pkg/inventory"
	"github.com/cryptellation/freshness/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var spock = freshness.Coordinate{Group: "org.spockframework", Artifact: "spock-core"}

func TestChecker_Run_PassesInventoryToEvaluator(t *testing.T) {
	reqs := []inventory.Requirement{{Coordinate: spock, Current: "1.2"}}
	tc := newTestChecker(t, &config.Config{FailOnUpdate: true}, gate.NewBuildContext("1.0-SNAPSHOT"), reqs)
	defer tc.MockController.Finish()

	inv := &inventory.Inventory{
		Dependencies: []freshness.DependencyStatus{
			{Coordinate: spock, State: freshness.Outdated, Current: "1.2", Available: "1.3"},
		},
	}
	report := freshness.Report{
		Lines:      []freshness.Line{{Kind: freshness.DependencyOutdated, Coordinate: spock, Text: "update"}},
		ShouldFail: true,
	}

	tc.MockBuilder.EXPECT().Build(gomock.Any(), reqs, inventory.ToolRequirement{}).Return(inv, nil)
	tc.MockEvaluator.EXPECT().Evaluate(inv.Dependencies, inv.Tool).Return(report)

	res, err := tc.Checker.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report, res.Report)
	assert.Equal(t, gate.Verdict{Mode: gate.Enforcing, ShouldFail: true, ExitNonZero: true}, res.Verdict)
}

func TestChecker_Run_LogsReportLines(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Set(otelzap.New(zap.New(core)))
	t.Cleanup(func() { logging.Set(otelzap.New(zap.NewNop())) })

	tc := newTestChecker(t, &config.Config{}, gate.NewBuildContext("1.0-SNAPSHOT"), nil)
	defer tc.MockController.Finish()

	gone := freshness.Coordinate{Group: "com.example", Artifact: "gone"}
	tc.MockBuilder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).Return(&inventory.Inventory{}, nil)
	tc.MockEvaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(freshness.Report{
		Lines: []freshness.Line{
			{Kind: freshness.DependencyOutdated, Coordinate: spock, Current: "1.2", Available: "1.3", Text: "outdated"},
			{Kind: freshness.DependencyUnresolved, Coordinate: gone, Reason: "could not find version", Text: "unresolved"},
		},
	})

	_, err := tc.Checker.Run(context.Background())
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "outdated", entries[0].Message)
	assert.Equal(t, "1.3", entries[0].ContextMap()["available"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "could not find version", entries[1].ContextMap()["reason"])
}

func TestChecker_Run_BuildError(t *testing.T) {
	tc := newTestChecker(t, &config.Config{}, gate.NewBuildContext("1.0-SNAPSHOT"), nil)
	defer tc.MockController.Finish()

	tc.MockBuilder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)

	_, err := tc.Checker.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "failed to build inventory")
}

func TestChecker_RunWithLogging(t *testing.T) {
	failing := freshness.Report{
		Lines:      []freshness.Line{{Kind: freshness.DependencyOutdated, Coordinate: spock, Text: "update"}},
		ShouldFail: true,
	}

	cases := []struct {
		name   string
		label  string
		report freshness.Report
		want   error
	}{
		{name: "development build fails", label: "1.0-SNAPSHOT", report: failing, want: gate.ErrPolicyViolation},
		{name: "release build passes", label: "1.0", report: failing},
		{name: "clean report passes", label: "1.0-SNAPSHOT", report: freshness.Report{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tc := newTestChecker(t, &config.Config{FailOnUpdate: true}, gate.NewBuildContext(c.label), nil)
			defer tc.MockController.Finish()

			tc.MockBuilder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(&inventory.Inventory{}, nil)
			tc.MockEvaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(c.report)

			err := tc.Checker.RunWithLogging(context.Background())
			if c.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, c.want)
		})
	}
}

const spockSnapshot = `
dependencies:
  - coordinate: org.spockframework:spock-core
    current: "1.2"
    candidates: ["1.2", "1.3"]
`

func TestChecker_OutdatedDependencyFailsDevelopmentBuild(t *testing.T) {
	cfg := loadConfig(t, "build:\n  version_label: 1.0-SNAPSHOT\n", spockSnapshot)

	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dependency update available: org.spockframework:spock-core [1.2 -> 1.3]", res.Report.String())
	assert.True(t, res.Report.ShouldFail)
	assert.True(t, res.Verdict.ExitNonZero)
	assert.ErrorIs(t, c.RunWithLogging(context.Background()), gate.ErrPolicyViolation)
}

func TestChecker_RunWithLogging_PrintsReport(t *testing.T) {
	cfg := loadConfig(t, "build:\n  version_label: 1.0-SNAPSHOT\n", spockSnapshot)

	c, err := New(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	c.SetOutput(&out)

	require.ErrorIs(t, c.RunWithLogging(context.Background()), gate.ErrPolicyViolation)
	assert.Equal(t, "Dependency update available: org.spockframework:spock-core [1.2 -> 1.3]\n", out.String())
}

func TestChecker_ExemptDependencyPasses(t *testing.T) {
	cfg := loadConfig(t,
		"build:\n  version_label: 1.0-SNAPSHOT\nexemptions:\n  - 'org.codehaus.groovy:groovy.*'\n",
		`
dependencies:
  - coordinate: org.codehaus.groovy:groovy-all
    current: "2.4.15"
    candidates: ["2.4.15", "2.5.2"]
`)

	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Report.Lines)
	assert.False(t, res.Report.ShouldFail)
	assert.NoError(t, res.Verdict.Err())
}

func TestChecker_ReleaseBuildIsAdvisory(t *testing.T) {
	cfg := loadConfig(t, "build:\n  version_label: \"1.0\"\n", spockSnapshot)

	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Report.ShouldFail)
	assert.Equal(t, gate.Advisory, res.Verdict.Mode)
	assert.True(t, res.Verdict.Suppressed())
	assert.NoError(t, c.RunWithLogging(context.Background()))
}

func TestChecker_ToolCoordinateFromConfig(t *testing.T) {
	cfg := loadConfig(t, "build:\n  version_label: 1.0-SNAPSHOT\ntool:\n  coordinate: gradle:gradle\n", `
tool:
  running: "4.9"
  candidates: ["4.10", "5.0", "5.1-rc-1"]
`)

	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Build tool update available: gradle:gradle [4.9 -> 5.0]", res.Report.String())
	assert.True(t, res.Verdict.ExitNonZero)
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing inventory path", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)

		_, err = New(cfg)
		var cfgErr *config.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "inventory.path", cfgErr.Field)
	})

	t.Run("invalid exemption", func(t *testing.T) {
		cfg := loadConfig(t, "exemptions: ['(']\n", spockSnapshot)

		_, err := New(cfg)
		var cfgErr *config.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("broken snapshot", func(t *testing.T) {
		cfg := loadConfig(t, "fail_on_update: true\n", "dependencies:\n  - coordinate: nocolon\n")

		_, err := New(cfg)
		require.ErrorIs(t, err, freshness.ErrInvalidCoordinate)
		var cfgErr *config.ConfigurationError
		assert.False(t, errors.As(err, &cfgErr))
	})
}
