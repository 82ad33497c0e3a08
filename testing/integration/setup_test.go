//go:build integration

// Package integration provides integration tests for crateql against a
// CrateDB container.
package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zoobzio/crateql"
	"github.com/zoobzio/crateql/crate"
	"github.com/zoobzio/crateql/executor"
)

const crateImage = "docker.io/crate:5.6"

// CrateContainer wraps a single-node CrateDB container.
type CrateContainer struct {
	container testcontainers.Container
	httpURL   string
	pgURL     string
}

var (
	sharedCrate *CrateContainer
	crateOnce   sync.Once
)

// TestMain terminates the shared container after all tests ran.
func TestMain(m *testing.M) {
	code := m.Run()

	if sharedCrate != nil && sharedCrate.container != nil {
		_ = sharedCrate.container.Terminate(context.Background())
	}
	os.Exit(code)
}

// getCrateContainer returns the shared CrateDB container, starting it if needed.
func getCrateContainer(t *testing.T) *CrateContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	crateOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        crateImage,
				ExposedPorts: []string{"4200/tcp", "5432/tcp"},
				Cmd:          []string{"-Cdiscovery.type=single-node"},
				Env:          map[string]string{"CRATE_HEAP_SIZE": "512m"},
				WaitingFor: wait.ForHTTP("/").
					WithPort("4200/tcp").
					WithStartupTimeout(120 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			log.Fatalf("Failed to start crate container: %v", err)
		}

		host, err := container.Host(ctx)
		if err != nil {
			log.Fatalf("Failed to get container host: %v", err)
		}
		httpPort, err := container.MappedPort(ctx, "4200/tcp")
		if err != nil {
			log.Fatalf("Failed to get http port: %v", err)
		}
		pgPort, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			log.Fatalf("Failed to get postgres port: %v", err)
		}

		sharedCrate = &CrateContainer{
			container: container,
			httpURL:   fmt.Sprintf("http://%s:%s", host, httpPort.Port()),
			pgURL:     fmt.Sprintf("postgres://crate@%s:%s/doc?sslmode=disable", host, pgPort.Port()),
		}
	})
	return sharedCrate
}

// uniqueName returns a table name that does not collide between runs.
func uniqueName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// httpEngine returns an initialized engine over the HTTP endpoint.
func (cc *CrateContainer) httpEngine(t *testing.T, defs ...crate.TableDefinition) *crateql.Engine {
	t.Helper()
	exec, err := executor.NewHTTP(cc.httpURL, executor.WithTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	return newEngine(t, exec, defs...)
}

// pgxEngine returns an initialized engine over the PostgreSQL wire protocol.
func (cc *CrateContainer) pgxEngine(t *testing.T, defs ...crate.TableDefinition) *crateql.Engine {
	t.Helper()
	ctx := context.Background()
	exec, conn, err := executor.ConnectPgx(ctx, cc.pgURL)
	if err != nil {
		t.Fatalf("ConnectPgx() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return newEngine(t, exec, defs...)
}

func newEngine(t *testing.T, exec crateql.Executor, defs ...crate.TableDefinition) *crateql.Engine {
	t.Helper()
	instance, err := crateql.New(defs...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	engine := crateql.NewEngine(instance, exec)
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return engine
}

// createTable runs the DDL for def and drops the table when the test ends.
func createTable(t *testing.T, engine *crateql.Engine, def crate.TableDefinition) {
	t.Helper()
	ctx := context.Background()
	ddl, err := crate.CreateTable(def, nil)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if _, err := engine.ExecSQL(ctx, ddl); err != nil {
		t.Fatalf("Failed to create table: %v\nSQL: %s", err, ddl)
	}
	t.Cleanup(func() {
		_, _ = engine.ExecSQL(context.Background(), crate.DropTable(def.Schema, def.Name, true))
	})
}
