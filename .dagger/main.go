// Parley CI
//
// Package main runs the parley tests and builds in a reproducible container,
// locally and in CI.
package main

import (
	"context"

	"dagger/parley/internal/dagger"
)

// Parley is the CI module for the parley repository
type Parley struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Parley CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".parley", "build", "tmp"]
	source *dagger.Directory,
) *Parley {
	return &Parley{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc and
// libsqlite3-dev for the cgo SQLite driver, with the project source mounted.
func (p *Parley) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", p.Source)
}

// Test runs the parley unit tests. Postgres driver tests run when dsn is set.
func (p *Parley) Test(
	ctx context.Context,

	// PostgreSQL DSN for the memory driver tests
	// +optional
	dsn string,
) (string, error) {
	ctr := p.goContainer()
	if dsn != "" {
		ctr = ctr.WithEnvVariable("PARLEY_TEST_POSTGRES_DSN", dsn)
	}
	return ctr.
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
