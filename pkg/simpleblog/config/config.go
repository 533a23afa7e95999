// Package config builds a ready-to-serve simpleblog.Service from declarative
// configuration, with env-variable loading for the common deployments.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	memoryrepo "github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	postgresrepo "github.com/tendant/simple-blog/pkg/simpleblog/repo/postgres"
	sqliterepo "github.com/tendant/simple-blog/pkg/simpleblog/repo/sqlite"
	fsstorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/fs"
	memorystorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
	s3storage "github.com/tendant/simple-blog/pkg/simpleblog/storage/s3"

	"github.com/tendant/simple-blog/pkg/simpleblog/identity"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		Storage: StorageBackendConfig{
			Name: "memory",
			Type: "memory",
		},
	}
}

// ServerConfig represents server configuration for the simple-blog service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseType string // "memory", "sqlite", "postgres"
	DatabaseURL  string // postgres connection string, or sqlite file path
	SQLitePath   string

	// Storage configuration
	Storage StorageBackendConfig

	// Identity configuration. When JWTSecret is set, bearer tokens are
	// HS256-verified JWTs; otherwise StaticTokens maps raw credentials to
	// subject ids (development only).
	JWTSecret    string
	StaticTokens map[string]string
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Name string
	Type string // "memory", "fs", "s3"

	// fs options
	BaseDir   string
	URLPrefix string

	// s3 options
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string
	CreateBucket    bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("sqlite path is required when using sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return errors.New("database_type must be 'memory', 'sqlite' or 'postgres'")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.BaseDir == "" {
			return errors.New("storage base directory is required for fs storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("bucket is required for s3 storage")
		}
	default:
		return errors.New("storage type must be 'memory', 'fs' or 's3'")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simpleblog.Service, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	return c.BuildServiceWith(repo)
}

// BuildServiceWith creates a Service around an already-built repository, for
// callers that need direct repository access (profile bootstrap, migrations).
func (c *ServerConfig) BuildServiceWith(repo simpleblog.Repository) (simpleblog.Service, error) {
	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Name, err)
	}

	return simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithBlobStore(c.Storage.Name, store),
		simpleblog.WithIdentityProvider(c.buildIdentityProvider()),
	)
}

// BuildRepository creates the repository named by DatabaseType.
func (c *ServerConfig) BuildRepository(ctx context.Context) (simpleblog.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "sqlite":
		return sqliterepo.New(c.SQLitePath)
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		return postgresrepo.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildStorageBackend() (simpleblog.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.Storage.BaseDir,
			URLPrefix: c.Storage.URLPrefix,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.Storage.Region,
			Bucket:                 c.Storage.Bucket,
			AccessKeyID:            c.Storage.AccessKeyID,
			SecretAccessKey:        c.Storage.SecretAccessKey,
			Endpoint:               c.Storage.Endpoint,
			UsePathStyle:           c.Storage.UsePathStyle,
			PublicBaseURL:          c.Storage.PublicBaseURL,
			CreateBucketIfNotExist: c.Storage.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
}

func (c *ServerConfig) buildIdentityProvider() simpleblog.IdentityProvider {
	if c.JWTSecret != "" {
		return identity.NewJWT([]byte(c.JWTSecret))
	}
	return identity.NewStatic(c.StaticTokens)
}
