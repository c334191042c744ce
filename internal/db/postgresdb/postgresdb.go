// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for users and their saved books. It supports transactional
// operations and runs the embedded goose migrations on start.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/db/postgresdb/migrations"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/storage"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"

	uniqueViolationCode = "23505"

	userColumns      = `id, username, email, password_hash, created_at`
	savedBookColumns = `id, user_id, book_id, title, authors, thumbnail_url, comment, saved_at`
)

// PostgresDB is a PostgreSQL-backed storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
	Driver     string
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table before migrating. Meant for tests and
// the seeding tool.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// WithDriver selects the database/sql driver, DriverPgx or DriverPq.
func WithDriver(driver string) InitOption {
	return func(options *initOptions) {
		if driver != "" {
			options.Driver = driver
		}
	}
}

// New connects to the database, runs the schema migrations and returns a
// ready PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		Driver: DriverPgx,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}
	if options.Driver != DriverPgx && options.Driver != DriverPq {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): unsupported driver %q", options.Driver)
	}

	database, err := sql.Open(options.Driver, databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `sql.Open()` calling: %w", err)
	}

	result := NewFromDB(database, connectionTimeout)

	if err := result.Ping(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w", err)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `migrate()` calling: %w", err)
	}

	return result, nil
}

// NewFromDB wraps an already opened database without migrating it.
func NewFromDB(database *sql.DB, connectionTimeout time.Duration) *PostgresDB {
	return &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}
}

func migrate(ctx context.Context, database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, database, ".")
}

var (
	errNoMatchingRow = fmt.Errorf("%w: no matching record", models.ErrNotFound)
	errAlreadyExists = fmt.Errorf("%w: record already exists", models.ErrConflict)
)

// classify maps driver errors onto the model error kinds. Messages of the
// mapped errors reach clients, so driver details only go to the log.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errNoMatchingRow
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		logger.Log.Debugw("unique violation", "constraint", pgErr.ConstraintName, zap.Error(err))
		return errAlreadyExists
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		logger.Log.Debugw("unique violation", "constraint", pqErr.Constraint, zap.Error(err))
		return errAlreadyExists
	}

	return err
}

func (db *PostgresDB) queryer(transaction *sql.Tx) queryer {
	if transaction == nil {
		return db.database
	}
	return transaction
}

func (db *PostgresDB) executor(transaction *sql.Tx) executor {
	if transaction == nil {
		return db.database
	}
	return transaction
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	usr := &models.User{}
	err := row.Scan(&usr.ID, &usr.Username, &usr.Email, &usr.PasswordHash, &usr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return usr, nil
}

func scanSavedBook(row rowScanner) (*models.SavedBook, error) {
	book := &models.SavedBook{}
	var thumbnailURL, comment sql.NullString
	err := row.Scan(
		&book.ID,
		&book.UserID,
		&book.BookID,
		&book.Title,
		&book.Authors,
		&thumbnailURL,
		&comment,
		&book.SavedAt,
	)
	if err != nil {
		return nil, err
	}
	if thumbnailURL.Valid {
		book.ThumbnailURL = &thumbnailURL.String
	}
	if comment.Valid {
		book.Comment = &comment.String
	}
	return book, nil
}

// InsertUser stores usr and returns it with the generated id and creation
// time. A taken username or email yields models.ErrConflict.
func (db *PostgresDB) InsertUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (*models.User, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`INSERT INTO users (username, password_hash, email)
			VALUES ($1, $2, $3)
			RETURNING `+userColumns,
		usr.Username,
		usr.PasswordHash,
		usr.Email,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}

	return created, nil
}

// GetUserByUsername returns the user including its password hash.
func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	)
	usr, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}

	return usr, nil
}

func (db *PostgresDB) GetUserIDByUsername(ctx context.Context, username string, transaction *sql.Tx) (int64, error) {
	var id int64
	err := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT id FROM users WHERE username = $1`,
		username,
	).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}

	return id, nil
}

// ListUsers returns one page of users ordered by username. Password hashes
// are not selected.
func (db *PostgresDB) ListUsers(ctx context.Context, limit, offset int, transaction *sql.Tx) ([]models.User, error) {
	rows, err := db.queryer(transaction).QueryContext(
		ctx,
		`SELECT id, username, email, created_at
			FROM users
			ORDER BY username
			LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var usr models.User
		if err := rows.Scan(&usr.ID, &usr.Username, &usr.Email, &usr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) count(ctx context.Context, table string, transaction *sql.Tx) (int64, error) {
	var count int64
	err := db.queryer(transaction).QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (db *PostgresDB) CountUsers(ctx context.Context, transaction *sql.Tx) (int64, error) {
	return db.count(ctx, "users", transaction)
}

// UpdateUser applies fields to the user named username using a partial
// UPDATE. No matching row yields models.ErrNotFound.
func (db *PostgresDB) UpdateUser(
	ctx context.Context,
	username string,
	fields []sqlupdate.Field,
	transaction *sql.Tx,
) (*models.User, error) {
	clause, err := sqlupdate.ForPartialUpdate(fields, storage.UserColumns)
	if err != nil {
		return nil, err
	}

	row := db.queryer(transaction).QueryRowContext(
		ctx,
		fmt.Sprintf(
			`UPDATE users SET %s WHERE username = %s RETURNING `+userColumns,
			clause.SetCols,
			clause.NextPlaceholder(),
		),
		append(clause.Values, username)...,
	)
	usr, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}

	return usr, nil
}

// DeleteUser removes the user; its saved books go with it via ON DELETE
// CASCADE.
func (db *PostgresDB) DeleteUser(ctx context.Context, username string, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`DELETE FROM users WHERE username = $1`,
		username,
	)
	if err != nil {
		return err
	}

	return expectAffected(result, fmt.Sprintf("no user %q", username))
}

func expectAffected(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, message)
	}

	return nil
}

func (db *PostgresDB) InsertSavedBook(
	ctx context.Context,
	book models.NewSavedBook,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`INSERT INTO saved_books (user_id, book_id, title, authors, thumbnail_url, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+savedBookColumns,
		book.UserID,
		book.BookID,
		book.Title,
		book.Authors,
		book.ThumbnailURL,
		book.Comment,
	)
	saved, err := scanSavedBook(row)
	if err != nil {
		return nil, classify(err)
	}

	return saved, nil
}

func (db *PostgresDB) FindSavedBook(
	ctx context.Context,
	userID int64,
	bookID string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT `+savedBookColumns+` FROM saved_books WHERE user_id = $1 AND book_id = $2`,
		userID,
		bookID,
	)
	book, err := scanSavedBook(row)
	if err != nil {
		return nil, classify(err)
	}

	return book, nil
}

// ListSavedBooks returns the books of userID, most recently saved first.
func (db *PostgresDB) ListSavedBooks(ctx context.Context, userID int64, transaction *sql.Tx) ([]models.SavedBook, error) {
	rows, err := db.queryer(transaction).QueryContext(
		ctx,
		`SELECT `+savedBookColumns+`
			FROM saved_books
			WHERE user_id = $1
			ORDER BY saved_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.SavedBook{}
	for rows.Next() {
		book, err := scanSavedBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) GetSavedBook(ctx context.Context, id int64, transaction *sql.Tx) (*models.SavedBook, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`SELECT `+savedBookColumns+` FROM saved_books WHERE id = $1`,
		id,
	)
	book, err := scanSavedBook(row)
	if err != nil {
		return nil, classify(err)
	}

	return book, nil
}

// SetComment changes the comment of a book only when it belongs to userID.
func (db *PostgresDB) SetComment(
	ctx context.Context,
	bookID string,
	userID int64,
	comment *string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	row := db.queryer(transaction).QueryRowContext(
		ctx,
		`UPDATE saved_books SET comment = $1
			WHERE book_id = $2 AND user_id = $3
			RETURNING `+savedBookColumns,
		comment,
		bookID,
		userID,
	)
	book, err := scanSavedBook(row)
	if err != nil {
		return nil, classify(err)
	}

	return book, nil
}

// DeleteSavedBook removes a book only when it belongs to userID.
func (db *PostgresDB) DeleteSavedBook(ctx context.Context, bookID string, userID int64, transaction *sql.Tx) error {
	result, err := db.executor(transaction).ExecContext(
		ctx,
		`DELETE FROM saved_books WHERE book_id = $1 AND user_id = $2`,
		bookID,
		userID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result, fmt.Sprintf("book %q is not saved", bookID))
}

func (db *PostgresDB) CountSavedBooks(ctx context.Context, transaction *sql.Tx) (int64, error) {
	return db.count(ctx, "saved_books", transaction)
}

// CommitTransaction commits the given SQL transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while committing transaction: %v", r)
		}
	}()

	return transaction.Commit()
}

// RollbackTransaction rolls back the given SQL transaction.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// BeginTransaction starts a new SQL transaction. The caller is responsible
// for committing or rolling it back.
func (db *PostgresDB) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	return db.database.BeginTx(ctx, nil)
}

// Ping verifies connectivity within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection.
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
