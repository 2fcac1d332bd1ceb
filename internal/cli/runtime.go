package cli

import (
	"context"
	"errors"
	"fmt"

	"smarterd/internal/apperrors"
	"smarterd/internal/config"
	"smarterd/internal/database"
	"smarterd/internal/events"
	"smarterd/internal/identity"
	"smarterd/internal/metrics"
	"smarterd/internal/repositories"
	"smarterd/internal/services"

	"gorm.io/gorm"
)

// Loader returns the configuration resolved by the root command.
type Loader func() config.Config

// runtime is the migrated store and the services built on it.
type runtime struct {
	db    *gorm.DB
	store *repositories.GORMStore
	svc   *services.Services
}

func openRuntime(cfg config.Config, publisher events.Publisher, m *metrics.Metrics) (*runtime, error) {
	db, err := database.OpenAndMigrate(cfg.Database)
	if err != nil {
		return nil, err
	}
	store := repositories.NewGORMStore(db)
	return &runtime{
		db:    db,
		store: store,
		svc: services.New(services.Dependencies{
			Store:   store,
			Events:  publisher,
			Metrics: m,
		}),
	}, nil
}

func (r *runtime) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// actingAs returns a context carrying the identity of the named user.
func (r *runtime) actingAs(ctx context.Context, username string) (context.Context, error) {
	if username == "" {
		return nil, errors.New("--user is required")
	}
	user, err := r.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("no user named %q", username)
		}
		return nil, err
	}
	return identity.WithCaller(ctx, services.CallerFor(user)), nil
}
