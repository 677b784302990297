package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultImage = "postgres:16-alpine"
	pgPort       = "5432/tcp"
)

// PostgresContainer is a running postgres used by the repository tests.
// The container is reused across test packages by name.
type PostgresContainer struct {
	testcontainers.Container
	user     string
	password string
	dbName   string
}

type containerConfig struct {
	req      testcontainers.ContainerRequest
	user     string
	password string
	dbName   string
}

type PostgresContainerOption func(cfg *containerConfig)

func WithImage(image string) PostgresContainerOption {
	return func(cfg *containerConfig) {
		cfg.req.Image = image
	}
}

func WithName(containerName string) PostgresContainerOption {
	return func(cfg *containerConfig) {
		cfg.req.Name = containerName
	}
}

func WithCredentials(user, password, dbName string) PostgresContainerOption {
	return func(cfg *containerConfig) {
		cfg.user, cfg.password, cfg.dbName = user, password, dbName
	}
}

func WithStartupTimeout(d time.Duration) PostgresContainerOption {
	return func(cfg *containerConfig) {
		cfg.req.WaitingFor = readyStrategy(d)
	}
}

// postgres logs the ready message twice, once for the init phase
func readyStrategy(d time.Duration) wait.Strategy {
	return wait.ForAll(
		wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2),
		wait.ForListeningPort(pgPort),
	).WithDeadline(d)
}

// SetupPostgres starts (or reuses) a postgres container.
// Durability settings are turned off, the data lives in a tmpfs.
func SetupPostgres(ctx context.Context, opts ...PostgresContainerOption) (
	*PostgresContainer, error,
) {
	cfg := containerConfig{
		req: testcontainers.ContainerRequest{
			Image:        defaultImage,
			ExposedPorts: []string{pgPort},
			Tmpfs:        map[string]string{"/var/lib/postgresql/data": "rw"},
			Cmd: []string{
				"postgres",
				"-c", "fsync=off",
				"-c", "synchronous_commit=off",
				"-c", "full_page_writes=off",
			},
			WaitingFor: readyStrategy(time.Minute),
		},
		user:     "postgres",
		password: "password",
		dbName:   "postgres",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.req.Env = map[string]string{
		"POSTGRES_USER":     cfg.user,
		"POSTGRES_PASSWORD": cfg.password,
		"POSTGRES_DB":       cfg.dbName,
	}

	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: cfg.req,
			Started:          true,
			Reuse:            cfg.req.Name != "",
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{
		Container: container,
		user:      cfg.user,
		password:  cfg.password,
		dbName:    cfg.dbName,
	}, nil
}

// ConnectionString returns a postgresql:// url for the mapped port
func (c *PostgresContainer) ConnectionString(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, nat.Port(pgPort))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.user, c.password, host, port.Port(), c.dbName), nil
}
