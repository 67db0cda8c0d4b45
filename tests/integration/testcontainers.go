// Package integration runs the reconciliation and analytics flows against a
// real PostgreSQL instance. These tests require Docker and are skipped in
// short mode:
//
//	go test ./tests/integration/
//	go test -short ./...   # skips this package's tests
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/portfoliotracker/backend/internal/db"
)

// TestContainer holds the PostgreSQL container and connection details
type TestContainer struct {
	Container testcontainers.Container
	Database  *db.DB
	Config    *db.Config
}

// SetupTestContainer starts a PostgreSQL container, waits for readiness and
// migrates the schema.
func SetupTestContainer(t *testing.T) *TestContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("portfolio_test"),
		postgres.WithUsername("portfolio_user"),
		postgres.WithPassword("portfolio_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	config := &db.Config{
		Host:     host,
		Port:     port.Port(),
		User:     "portfolio_user",
		Password: "portfolio_password",
		Name:     "portfolio_test",
		SSLMode:  "disable",
	}

	// Raw driver-level ping first so a dead container fails fast with a
	// clear error instead of a GORM connect timeout.
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode)
	raw, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to open raw connection: %v", err)
	}
	if err := raw.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	raw.Close()

	database, err := db.Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	return &TestContainer{
		Container: pgContainer,
		Database:  database,
		Config:    config,
	}
}

// Cleanup terminates the container and closes the database connection
func (tc *TestContainer) Cleanup(t *testing.T) {
	t.Helper()
	if tc.Database != nil {
		tc.Database.Close()
	}
	if tc.Container != nil {
		if err := tc.Container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
}
