package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crucial707/timetable-api/internal/accounts"
	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/catalog"
	"github.com/crucial707/timetable-api/internal/config"
	"github.com/crucial707/timetable-api/internal/db"
	"github.com/crucial707/timetable-api/internal/docstore"
	"github.com/crucial707/timetable-api/internal/repo"
)

// backend is the set of repositories one store driver provides.
type backend struct {
	audit interface {
		audit.Store
		audit.Source
	}
	subjects    catalog.SubjectStore
	departments catalog.DepartmentStore
	users       interface {
		accounts.UserStore
		audit.UserLookup
	}
	ping  func(context.Context) error
	close func(context.Context) error
}

func postgresBackend(st *repo.Store) *backend {
	return &backend{
		audit:       st.Audit,
		subjects:    st.Subjects,
		departments: st.Departments,
		users:       st.Users,
		ping:        st.Ping,
		close:       func(context.Context) error { return st.DB.Close() },
	}
}

func mongoBackend(st *docstore.Store) *backend {
	return &backend{
		audit:       st.Audit,
		subjects:    st.Subjects,
		departments: st.Departments,
		users:       st.Users,
		ping:        st.Ping,
		close:       func(ctx context.Context) error { return st.DB.Client().Disconnect(ctx) },
	}
}

// openBackend connects the configured store and prepares its schema.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		opts := db.Options{
			Host:         cfg.DBHost,
			Port:         cfg.DBPort,
			Name:         cfg.DBName,
			User:         cfg.DBUser,
			Password:     cfg.DBPass,
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		}
		conn, err := db.Connect(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(opts.URL()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		slog.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)
		return postgresBackend(repo.New(conn)), nil

	case config.DriverMongo:
		client, err := docstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		database := client.Database(cfg.MongoDB)
		if err := docstore.EnsureIndexes(ctx, database); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		slog.Info("connected to mongo", "db", cfg.MongoDB)
		return mongoBackend(docstore.New(database)), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
