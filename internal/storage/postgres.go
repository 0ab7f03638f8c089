package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/comicverse/txgate/internal/metrics"
	"github.com/comicverse/txgate/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Pool is the subset of pgxpool.Pool the repository uses
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool Pool
}

// NewPostgresRepository creates a connection pool and checks it answers
func NewPostgresRepository(ctx context.Context, databaseURL string, maxConns int32) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// NewPostgresRepositoryWithPool wraps an existing pool
func NewPostgresRepositoryWithPool(pool Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate applies the embedded schema
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	slog.Info("Storage: schema applied")
	return nil
}

// FindProcessed returns the record of a consumed transaction
func (r *PostgresRepository) FindProcessed(ctx context.Context, txHash string) (*models.ProcessedTransaction, error) {
	query := `
		SELECT tx_hash, kind, consumed_at, resulting_entity_id::text
		FROM processed_transactions
		WHERE tx_hash = $1
	`

	var rec models.ProcessedTransaction
	var kind string
	err := r.pool.QueryRow(ctx, query, strings.ToLower(txHash)).Scan(
		&rec.TxHash,
		&kind,
		&rec.ConsumedAt,
		&rec.ResultingEntityID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed transaction: %w", err)
	}

	rec.Kind = models.MutationKind(kind)
	return &rec, nil
}

// ApplyMutation inserts the processed record, then the entity, in one
// transaction. A unique violation on either maps to ErrDuplicateTransaction.
func (r *PostgresRepository) ApplyMutation(ctx context.Context, record *models.ProcessedTransaction, entity *models.Entity) error {
	table, err := tableFor(entity.Kind)
	if err != nil {
		return err
	}
	document, err := json.Marshal(entity.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal entity document: %w", err)
	}

	start := time.Now()
	defer func() { metrics.ApplyDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	recordQuery := `
		INSERT INTO processed_transactions (tx_hash, kind, consumed_at, resulting_entity_id)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, recordQuery,
		strings.ToLower(record.TxHash),
		string(record.Kind),
		record.ConsumedAt,
		record.ResultingEntityID,
	); err != nil {
		_ = tx.Rollback(ctx)
		return classify("failed to record processed transaction", err)
	}

	entityQuery := fmt.Sprintf(`
		INSERT INTO %s (id, tx_hash, name, creator_address, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, table)
	if _, err := tx.Exec(ctx, entityQuery,
		entity.ID,
		strings.ToLower(entity.TxHash),
		entity.Name,
		entity.CreatorAddress,
		document,
		entity.CreatedAt,
		entity.UpdatedAt,
	); err != nil {
		_ = tx.Rollback(ctx)
		return classify("failed to insert "+table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("failed to commit mutation", err)
	}
	return nil
}

// GetEntity retrieves an entity by id
func (r *PostgresRepository) GetEntity(ctx context.Context, kind models.MutationKind, id string) (*models.Entity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, entityColumns, table)
	return scanEntity(kind, r.pool.QueryRow(ctx, query, id))
}

// GetComic retrieves a comic by its on-chain id
func (r *PostgresRepository) GetComic(ctx context.Context, comicID *big.Int) (*models.Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM comics WHERE comic_id = $1::numeric`, entityColumns)
	return scanEntity(models.ComicCreate, r.pool.QueryRow(ctx, query, comicID.String()))
}

// ListEntities lists entities newest first
func (r *PostgresRepository) ListEntities(ctx context.Context, filter models.EntityFilter) ([]models.Entity, error) {
	table, err := tableFor(filter.Kind)
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.Search != "" {
		args = append(args, escapeLike(filter.Search))
		where = append(where, fmt.Sprintf(`name ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if filter.ComicID != nil {
		args = append(args, filter.ComicID.String())
		where = append(where, fmt.Sprintf(`comic_id = $%d::numeric`, len(args)))
	}
	if filter.Day != nil {
		args = append(args, filter.Day.String())
		where = append(where, fmt.Sprintf(`day = $%d::numeric`, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, entityColumns, table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		e, err := scanEntity(filter.Kind, rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}

	return entities, nil
}

// UpdateComicCover sets the cover image of a comic
func (r *PostgresRepository) UpdateComicCover(ctx context.Context, comicID *big.Int, coverImage string) (*models.Entity, error) {
	query := fmt.Sprintf(`
		UPDATE comics
		SET document = jsonb_set(document, '{coverImage}', to_jsonb($2::text)), updated_at = $3
		WHERE comic_id = $1::numeric
		RETURNING %s
	`, entityColumns)
	return scanEntity(models.ComicCreate, r.pool.QueryRow(ctx, query, comicID.String(), coverImage, time.Now().UTC()))
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const entityColumns = `id::text, tx_hash, name, creator_address, document, created_at, updated_at`

func scanEntity(kind models.MutationKind, row pgx.Row) (*models.Entity, error) {
	e := models.Entity{Kind: kind}
	var document []byte

	err := row.Scan(
		&e.ID,
		&e.TxHash,
		&e.Name,
		&e.CreatorAddress,
		&document,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", kind.Collection(), err)
	}

	if len(document) > 0 {
		if err := json.Unmarshal(document, &e.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
	}
	return &e, nil
}

func tableFor(kind models.MutationKind) (string, error) {
	table := kind.Collection()
	if table == "" {
		return "", fmt.Errorf("no collection for kind %q", kind)
	}
	return table, nil
}

// classify maps unique violations to ErrDuplicateTransaction
func classify(msg string, err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", msg, ErrDuplicateTransaction)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
