package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence behind the Store
// interface. Records are stored as a JSONB document alongside the columns
// queries filter on; moves take a row lock so update+move sequences on the
// same id never interleave.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// AddRecord inserts a record created at the initial stage.
func (r *Repository) AddRecord(ctx context.Context, rec Record) error {
	if rec.Stage != InitialStage {
		return ErrIllegalTransition
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("procurement: marshal record: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO procurement_records (id, stage, status, created_at, doc) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, string(rec.Stage), string(rec.Status), rec.CreatedAt, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// UpdateRecord merges the patch into the stored document under a row lock.
func (r *Repository) UpdateRecord(ctx context.Context, id string, patch Patch) error {
	return r.withRecord(ctx, id, func(rec *Record) error {
		patch.apply(rec)
		return nil
	})
}

// MoveRecordToStage validates the transition and commits the stage/status
// pair with the document in a single transaction.
func (r *Repository) MoveRecordToStage(ctx context.Context, id string, stage Stage, status Status) error {
	return r.withRecord(ctx, id, func(rec *Record) error {
		if err := ValidateTransition(*rec, stage); err != nil {
			return err
		}
		rec.Stage = stage
		rec.Status = status
		return nil
	})
}

// GetRecord returns a record by id.
func (r *Repository) GetRecord(ctx context.Context, id string) (Record, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM procurement_records WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return Record{}, fmt.Errorf("procurement: unmarshal record %s: %w", id, err)
	}
	return rec, nil
}

// GetRecordsByStage returns records at the stage in insertion order.
func (r *Repository) GetRecordsByStage(ctx context.Context, stage Stage, status Status) ([]Record, error) {
	query := `SELECT doc FROM procurement_records WHERE stage = $1`
	args := []any{string(stage)}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY seq`
	return r.queryRecords(ctx, query, args...)
}

// ListAll returns every record in insertion order.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	return r.queryRecords(ctx, `SELECT doc FROM procurement_records ORDER BY seq`)
}

// NextSequence advances the counter for a numbering prefix atomically.
func (r *Repository) NextSequence(ctx context.Context, prefix string) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO procurement_sequences (prefix, value) VALUES ($1, 1)
		 ON CONFLICT (prefix) DO UPDATE SET value = procurement_sequences.value + 1
		 RETURNING value`, prefix).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("procurement: unmarshal record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// withRecord runs fn against the locked record and writes the mutated
// document back before committing.
func (r *Repository) withRecord(ctx context.Context, id string, fn func(*Record) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM procurement_records WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	var rec Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return fmt.Errorf("procurement: unmarshal record %s: %w", id, err)
	}
	if err := fn(&rec); err != nil {
		return err
	}
	updated, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("procurement: marshal record %s: %w", id, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE procurement_records SET stage = $2, status = $3, doc = $4 WHERE id = $1`,
		id, string(rec.Stage), string(rec.Status), updated)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
