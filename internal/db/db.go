// Package db opens the Postgres store and applies its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

// Options describes a Postgres connection and its pool.
type Options struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the key/value connection string lib/pq expects.
func (o Options) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		o.Host, o.Port, o.Name, o.User, o.Password,
	)
}

// URL returns the postgres:// form used by migrations.
func (o Options) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Password),
		Host:     o.Host + ":" + o.Port,
		Path:     "/" + o.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func Connect(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", o.DSN())
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		db.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		db.SetMaxIdleConns(o.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
