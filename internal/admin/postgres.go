package admin

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/services"
)

type postgresBackend struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	users *services.UserService
}

// OpenPostgres is the production Opener.
func OpenPostgres(log logging.Logger) Opener {
	return func(ctx context.Context, dsn string) (Backend, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		return &postgresBackend{
			db:    db,
			rm:    rm,
			users: services.NewUserService(db, rm, nil, nil, nil, log),
		}, nil
	}
}

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return b.rm.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) Provision(ctx context.Context, name, email, password string) (*models.User, error) {
	return b.users.Provision(ctx, name, email, password)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
