//go:build integration
// +build integration

// Package integration starts the containers shared by the integration test
// packages.
package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Fixture holds the running containers.
type Fixture struct {
	Postgres    *postgres.PostgresContainer
	PostgresDSN string
}

var (
	fixture     *Fixture
	fixtureErr  error
	fixtureOnce sync.Once
)

// SetupFixtureSuite starts postgres once per test binary.
func SetupFixtureSuite() error {
	fixtureOnce.Do(func() {
		fixture, fixtureErr = startFixture(context.Background())
	})
	return fixtureErr
}

// GetFixture returns the fixture started by SetupFixtureSuite.
func GetFixture() *Fixture {
	return fixture
}

// TeardownFixtureSuite stops the containers.
func TeardownFixtureSuite() {
	if fixture == nil || fixture.Postgres == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = fixture.Postgres.Terminate(ctx)
}

func startFixture(ctx context.Context) (*Fixture, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("distributor"),
		postgres.WithUsername("distributor"),
		postgres.WithPassword("distributor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	return &Fixture{Postgres: container, PostgresDSN: dsn}, nil
}
