// Package postgresdb provides a PostgreSQL-based implementation of the
// storage interface for persisting items and users. Schema management is
// done with goose migrations at startup.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the storage interface.
// Uniqueness of item ids and usernames is enforced by primary keys, which
// makes InsertItem/InsertUser the atomic arbiter for allocation races.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables dropping all public tables before migration.
// It exists for test setups and development.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database, runs schema
// migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// InsertItem stores a new item. The primary key on id turns a concurrent
// duplicate insert into models.ErrConflict.
func (db *PostgresDB) InsertItem(ctx context.Context, item models.Item) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO items (id, message, updated_at) VALUES ($1, $2, $3)`,
		item.ID,
		item.Message,
		item.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}

	return err
}

// FindItemByID returns the item stored under id, if any.
func (db *PostgresDB) FindItemByID(ctx context.Context, id int64) (models.Item, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, message, updated_at FROM items WHERE id = $1`,
		id,
	)

	var item models.Item
	err := row.Scan(&item.ID, &item.Message, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, false, nil
		}
		return models.Item{}, false, err
	}

	return item, true, nil
}

// FindItemsByMessage returns all items whose message matches exactly.
func (db *PostgresDB) FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error) {
	return db.queryItems(
		ctx,
		`SELECT id, message, updated_at FROM items WHERE message = $1`,
		message,
	)
}

// ListItems returns the whole item collection in unspecified order.
func (db *PostgresDB) ListItems(ctx context.Context) ([]models.Item, error) {
	return db.queryItems(ctx, `SELECT id, message, updated_at FROM items`)
}

func (db *PostgresDB) queryItems(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := db.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Message, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ReplaceItem overwrites the whole record stored under item.ID.
func (db *PostgresDB) ReplaceItem(ctx context.Context, item models.Item) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE items SET message = $2, updated_at = $3 WHERE id = $1`,
		item.ID,
		item.Message,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteItem removes the record with the given id; absent ids are a no-op.
func (db *PostgresDB) DeleteItem(ctx context.Context, id int64) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM items WHERE id = $1`,
		id,
	)

	return err
}

// IsItemIDTaken reports whether an item with the given id exists.
func (db *PostgresDB) IsItemIDTaken(ctx context.Context, id int64) (bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM items WHERE id = $1`,
		id,
	)

	var count int
	err := row.Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return count > 0, nil
}

// InsertUser stores a new user. The primary key on username turns a
// duplicate registration into models.ErrConflict.
func (db *PostgresDB) InsertUser(ctx context.Context, usr *user.User) error {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)`,
		usr.Username,
		usr.PasswordHash,
		usr.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}

	return err
}

// FindUserByUsername returns the user stored under username, if any.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	)

	var usr user.User
	err := row.Scan(&usr.Username, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

// Ping verifies connectivity with the PostgreSQL database within the
// configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
