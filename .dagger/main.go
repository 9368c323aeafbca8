// CI functions for the freshness module.
//
// Unit tests, lint and a self-check of the freshness CLI against an inventory
// snapshot. Call them from the dagger CLI, e.g.
//
//	dagger call unit-tests --source-dir=.
package main

import (
	"dagger/freshness/internal/dagger"
)

const goImage = "golang:1.24"

type Freshness struct{}

func goContainer(sourceDir *dagger.Directory) *dagger.Container {
	return dag.Container().From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")
}

// UnitTests runs every Go test, including the ones behind the unit build tag.
func (m *Freshness) UnitTests(sourceDir *dagger.Directory) *dagger.Container {
	return goContainer(sourceDir).
		WithExec([]string{"go", "test", "-tags=unit", "./...", "-v"})
}

// Check builds the CLI and evaluates an inventory snapshot against the
// policy in configs/freshness.yaml. Without an inventory file the snapshot
// named by that configuration is used. The container fails when the policy
// is violated for a development build.
func (m *Freshness) Check(
	sourceDir *dagger.Directory,
	// +optional
	inventory *dagger.File,
	// +optional
	versionLabel string,
) *dagger.Container {
	c := goContainer(sourceDir)
	args := []string{"go", "run", "./cmd/freshness", "check", "--config", "configs/freshness.yaml"}
	if inventory != nil {
		c = c.WithFile("/inventory.yaml", inventory)
		args = append(args, "--inventory", "/inventory.yaml")
	}
	if versionLabel != "" {
		args = append(args, "--version-label", versionLabel)
	}
	return c.WithExec(args)
}

// Lint runs golangci-lint on the main repo (./...) only.
func (m *Freshness) Lint(sourceDir *dagger.Directory) *dagger.Container {
	c := dag.Container().
		From("golangci/golangci-lint:v1.62.0").
		WithMountedCache("/root/.cache/golangci-lint", dag.CacheVolume("golangci-lint"))

	c = c.WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")

	return c.WithExec([]string{"golangci-lint", "run", "--build-tags", "unit", "--timeout", "10m", "./..."})
}

// LintDagger runs golangci-lint on the .dagger directory only.
func (m *Freshness) LintDagger(sourceDir *dagger.Directory) *dagger.Container {
	c := dag.Container().
		From("golangci/golangci-lint:v1.62.0").
		WithMountedCache("/root/.cache/golangci-lint", dag.CacheVolume("golangci-lint"))

	c = c.WithMountedDirectory("/src", sourceDir).
		WithWorkdir("/src")

	return c.WithExec([]string{"sh", "-c", "cd .dagger && golangci-lint run --timeout 10m ."})
}
