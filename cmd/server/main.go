package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/api"
	"github.com/tendant/simple-blog/pkg/simpleblog/config"
)

// Config holds binary-level settings; service wiring comes from
// config.WithEnv (DATABASE_URL, STORAGE_URL, JWT_SECRET).
type Config struct {
	// AdminSubjectID, when set, is granted the admin flag at startup so a
	// fresh deployment has at least one operator.
	AdminSubjectID string `env:"ADMIN_SUBJECT_ID" env-default:""`
	EnvPrefix      string `env:"ENV_PREFIX" env-default:""`
}

func main() {
	var binCfg Config
	if err := cleanenv.ReadEnv(&binCfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(config.WithEnv(binCfg.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := cfg.BuildRepository(ctx)
	if err != nil {
		slog.Error("Failed to build repository", "err", err)
		os.Exit(1)
	}

	svc, err := cfg.BuildServiceWith(repo)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	if binCfg.AdminSubjectID != "" {
		if err := repo.UpsertProfile(ctx, &simpleblog.Profile{
			SubjectID: binCfg.AdminSubjectID,
			IsAdmin:   true,
		}); err != nil {
			slog.Error("Failed to bootstrap admin profile", "err", err)
			os.Exit(1)
		}
		slog.Info("Bootstrapped admin profile", "subject_id", binCfg.AdminSubjectID)
	}

	server := app.DefaultWithoutRoutes()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Route("/api", func(r chi.Router) {
		r.Mount("/", api.Router(svc))
	})

	slog.Info("Starting simple-blog server",
		"database", cfg.DatabaseType, "storage", cfg.Storage.Type, "environment", cfg.Environment)
	server.Run()
}
