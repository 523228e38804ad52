// Package postgresdb provides the PostgreSQL implementation of the storage contract
// for users and their todos. The schema is managed by goose migrations and the
// database enforces email uniqueness, the age range and the todo owner reference.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/patric-chuzhbe/todotracker/internal/db/storage"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

// Driver names registered by the imported database/sql drivers.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

const todoColumns = `id, user_id, title, description, completed, created_at, updated_at`

// PostgresDB is a PostgreSQL-backed storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type initOptions struct {
	DBPreReset bool
	driverName string
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
		driverName: DriverPgx,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open(options.driverName, databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			_ = database.Close()
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	return result, nil
}

// CreateUser inserts a user and returns the new ID.
// A taken email surfaces as a storage.UniqueViolation.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	var userIDFromDB string
	err := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (id, email, password_hash, age)
				VALUES ($1, $2, $3, $4)
				RETURNING id
		`,
		uuid.New().String(),
		usr.Email,
		usr.PasswordHash,
		nullableInt(usr.Age),
	).Scan(&userIDFromDB)
	if err != nil {
		return "", storage.Classify(err)
	}

	return userIDFromDB, nil
}

// GetUserByEmail returns the user including the password hash.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, age, created_at, updated_at FROM users WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

// GetUserByID returns the user without the password hash.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, storage.ErrNotFound
	}

	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, email, '', age, created_at, updated_at FROM users WHERE id = $1`,
		userID,
	)

	return scanUser(row)
}

// DeleteUser removes the user. Todos go with it through ON DELETE CASCADE.
func (db *PostgresDB) DeleteUser(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return storage.ErrNotFound
	}

	result, err := db.database.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return storage.Classify(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// InsertTodo stores a todo. An unknown owner surfaces as a storage.ForeignKeyViolation.
func (db *PostgresDB) InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error) {
	if _, err := uuid.Parse(newTodo.UserID); err != nil {
		return nil, storage.NewError(storage.ForeignKeyViolation, "todos_user_id_fkey", err)
	}

	completed := newTodo.Completed != nil && *newTodo.Completed
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO todos (id, user_id, title, description, completed)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+todoColumns,
		uuid.New().String(),
		newTodo.UserID,
		newTodo.Title,
		nullableString(newTodo.Description),
		completed,
	)

	todo, err := scanTodo(row)
	if err != nil {
		return nil, storage.Classify(err)
	}

	return todo, nil
}

// GetTodosByUserID returns the user's todos, newest first. The result is never nil.
func (db *PostgresDB) GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error) {
	result := models.Todos{}
	if _, err := uuid.Parse(userID); err != nil {
		return result, nil
	}

	var database queryer = db.database
	rows, err := database.QueryContext(
		ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, storage.Classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *todo)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateTodo applies the non-nil patch fields to a todo owned by userID.
// updated_at is refreshed even when the patch is empty.
func (db *PostgresDB) UpdateTodo(
	ctx context.Context,
	todoID,
	userID string,
	patch *models.TodoPatch,
) (*models.Todo, error) {
	if !validIDs(todoID, userID) {
		return nil, storage.ErrNotFound
	}

	row := db.database.QueryRowContext(
		ctx,
		`
			UPDATE todos
				SET
					title = COALESCE($3, title),
					description = COALESCE($4, description),
					completed = COALESCE($5, completed),
					updated_at = now()
				WHERE id = $1 AND user_id = $2
				RETURNING `+todoColumns,
		todoID,
		userID,
		nullableString(patch.Title),
		nullableString(patch.Description),
		nullableBool(patch.Completed),
	)

	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, storage.Classify(err)
	}

	return todo, nil
}

// DeleteTodo removes a todo owned by userID and returns what was deleted.
func (db *PostgresDB) DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error) {
	if !validIDs(todoID, userID) {
		return nil, storage.ErrNotFound
	}

	row := db.database.QueryRowContext(
		ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2 RETURNING `+todoColumns,
		todoID,
		userID,
	)

	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, storage.Classify(err)
	}

	return todo, nil
}

// GetNumberOfUsers counts registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfTodos counts todos across all users.
func (db *PostgresDB) GetNumberOfTodos(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM todos`)
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	var result int64
	if err := db.database.QueryRowContext(ctx, query).Scan(&result); err != nil {
		return 0, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/count(): error while `row.Scan()` calling: %w",
			err,
		)
	}

	return result, nil
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table before migrating. Tests use it.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// WithDriver selects the database/sql driver: DriverPgx or DriverPq.
func WithDriver(driverName string) InitOption {
	return func(options *initOptions) {
		if driverName != "" {
			options.driverName = driverName
		}
	}
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
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

func scanUser(row rowScanner) (*user.User, error) {
	var (
		result user.User
		age    sql.NullInt64
	)
	err := row.Scan(&result.ID, &result.Email, &result.PasswordHash, &age, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.Classify(err)
	}
	if age.Valid {
		value := int(age.Int64)
		result.Age = &value
	}

	return &result, nil
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var (
		result      models.Todo
		description sql.NullString
	)
	err := row.Scan(
		&result.ID,
		&result.UserID,
		&result.Title,
		&description,
		&result.Completed,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if description.Valid {
		value := description.String
		result.Description = &value
	}

	return &result, nil
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}

	return true
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}

	return *value
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}

	return *value
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}

	return *value
}
