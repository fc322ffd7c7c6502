package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/kamikazebr/ou-toggle/internal/server/config"
	"github.com/kamikazebr/ou-toggle/internal/server/directory"
	"github.com/kamikazebr/ou-toggle/internal/server/scheduler"
	"github.com/kamikazebr/ou-toggle/internal/server/services"
	"github.com/kamikazebr/ou-toggle/internal/server/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// deps holds everything built from the configuration.
type deps struct {
	Access  *services.AccessService
	closers []func() error
}

func (d *deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func buildDeps(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*deps, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	d := &deps{}
	store, err := openStore(ctx, cfg, zl, opts, d)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, store.Close)

	dir, err := directory.NewAdminService(ctx, cfg.AdminEmail, cfg.CredentialsFile)
	if err != nil {
		d.Close()
		return nil, err
	}

	jobs, err := openScheduler(ctx, cfg, opts)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Access = services.NewAccessService(services.AccessConfig{
		UserEmail:      cfg.UserEmail,
		UnrestrictedOU: cfg.UnrestrictedOU,
		RestrictedOU:   cfg.RestrictedOU,
		SwitchLimit:    cfg.SwitchLimit,
		Duration:       cfg.Duration,
		Location:       cfg.Location,
	}, store, dir, jobs, zl)

	return d, nil
}

func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger, opts []option.ClientOption, d *deps) (storage.AccessStore, error) {
	switch cfg.StoreBackend {
	case config.StoreGCS:
		store, err := storage.NewGCSStore(ctx, cfg.BucketName, cfg.FileName, opts...)
		if err != nil {
			return nil, err
		}
		store.SetLegacyUnrestrictedOU(cfg.UnrestrictedOU)
		return store, nil
	case config.StoreFirestore:
		return storage.NewFirestoreStore(ctx, cfg.ProjectID, cfg.FirestoreCollection, opts...)
	case config.StorePostgres:
		db, err := storage.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := runEmbeddedMigrations(zl, db.DB.DB); err != nil {
			db.Close()
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		return storage.NewAccessRepository(db), nil
	case config.StoreMemory:
		zl.Warn("using in-memory record store; records are lost on restart")
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func openScheduler(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (scheduler.Scheduler, error) {
	target := scheduler.Target{
		URL:            cfg.RevertCallbackURL,
		ServiceAccount: cfg.SchedulerServiceAccount,
	}
	switch cfg.SchedulerBackend {
	case config.SchedulerCron:
		return scheduler.NewCloudScheduler(ctx, cfg.ProjectID, cfg.Region, target, opts...)
	case config.SchedulerTasks:
		return scheduler.NewCloudTasks(ctx, cfg.ProjectID, cfg.Region, cfg.TasksQueue, target, opts...)
	}
	return nil, fmt.Errorf("unknown SCHEDULER_BACKEND %q", cfg.SchedulerBackend)
}

func runEmbeddedMigrations(zl *zap.Logger, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations by filename to ensure correct order
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		zl.Info("applying migration", zap.String("file", migration))

		content, err := migrationsFS.ReadFile("migrations/" + migration)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", migration, err)
		}
	}

	return nil
}
