//go:build unit
// +build unit

package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cryptellation/freshness/pkg/config"
	"github.com/cryptellation/freshness/pkg/freshness"
	"github.com/cryptellation/freshness/pkg/gate"
	"github.com/cryptellation/freshness/pkg/inventory"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestChecker contains the mocks and the checker instance for testing
type TestChecker struct {
	Checker        *Checker
	MockController *gomock.Controller
	MockBuilder    *inventory.MockBuilder
	MockEvaluator  *freshness.MockEvaluator
}

// newTestChecker creates a Checker on mocked components, skipping the snapshot file.
func newTestChecker(t *testing.T, cfg *config.Config, build gate.BuildContext,
	requirements []inventory.Requirement) *TestChecker {
	ctrl := gomock.NewController(t)

	mockBuilder := inventory.NewMockBuilder(ctrl)
	mockEvaluator := freshness.NewMockEvaluator(ctrl)

	c := &Checker{
		config:       cfg,
		build:        build,
		requirements: requirements,
		builder:      mockBuilder,
		evaluator:    mockEvaluator,
	}

	return &TestChecker{
		Checker:        c,
		MockController: ctrl,
		MockBuilder:    mockBuilder,
		MockEvaluator:  mockEvaluator,
	}
}

// loadConfig writes the configuration and inventory snapshot to a temporary
// directory and loads the configuration pointing at the snapshot.
func loadConfig(t *testing.T, configYAML, snapshotYAML string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	snapshotPath := filepath.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(snapshotYAML), 0o644))

	configPath := filepath.Join(dir, "freshness.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.Inventory.Path = snapshotPath
	return cfg
}
