package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGateway stores one row per document in the documents table
// (collection, id, data jsonb). Scalar filters compile to whitespace-trimmed
// data->>field predicates; the membership and batch bounds of the contract
// are enforced here so this backend behaves like the bounded hosted store it
// replaces.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway creates a Postgres-backed gateway.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

func (g *PostgresGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	doc := Document{ID: id}
	var raw []byte
	err := g.pool.QueryRow(ctx, `
		SELECT data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return Document{}, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (g *PostgresGateway) ScanAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY id
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (g *PostgresGateway) ScanWhereEquals(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	return g.ScanWhereAll(ctx, collection, []Filter{Equals(field, value)})
}

func (g *PostgresGateway) ScanWhereIn(ctx context.Context, collection, field string, values []interface{}) ([]Document, error) {
	return g.ScanWhereAll(ctx, collection, []Filter{In(field, values)})
}

func (g *PostgresGateway) ScanWhereAll(ctx context.Context, collection string, filters []Filter) ([]Document, error) {
	if err := ValidateFilters(filters); err != nil {
		return nil, err
	}

	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1`
	args := []interface{}{collection}

	// Both sides of a scalar comparison are whitespace-trimmed so a stored
	// "Baghdad " matches a requested "Baghdad" the same way the in-memory
	// paths do after decode.
	for _, f := range filters {
		switch f.Op {
		case OpEquals:
			args = append(args, f.Field, strings.TrimSpace(scalarText(f.Value)))
			query += fmt.Sprintf(" AND btrim(data->>$%d, E' \\t\\n\\r') = $%d", len(args)-1, len(args))
		case OpIn:
			texts := make([]string, len(f.Values))
			for i, v := range f.Values {
				texts[i] = strings.TrimSpace(scalarText(v))
			}
			args = append(args, f.Field, texts)
			query += fmt.Sprintf(" AND btrim(data->>$%d, E' \\t\\n\\r') = ANY($%d)", len(args)-1, len(args))
		default:
			return nil, fmt.Errorf("unsupported filter op %d", f.Op)
		}
	}
	query += " ORDER BY id"

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (g *PostgresGateway) CommitBatch(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > MaxBatchWrites {
		return ErrBatchTooLarge
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = g.NewID()
		}
		raw, err := json.Marshal(w.Data)
		if err != nil {
			return fmt.Errorf("encode document %s/%s: %w", w.Collection, id, err)
		}
		batch.Queue(`
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		`, w.Collection, id, raw)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (g *PostgresGateway) UpdateArrayUnion(ctx context.Context, collection, id, field string, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}

	tag, err := g.pool.Exec(ctx, `
		UPDATE documents
		SET data = jsonb_set(data, ARRAY[$3], (
			SELECT COALESCE(jsonb_agg(DISTINCT elem), '[]'::jsonb)
			FROM (
				SELECT jsonb_array_elements(COALESCE(data->$3, '[]'::jsonb)) AS elem
				UNION
				SELECT jsonb_array_elements($4::jsonb)
			) merged
		), true),
		updated_at = now()
		WHERE collection = $1 AND id = $2
	`, collection, id, field, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *PostgresGateway) NewID() string {
	return uuid.NewString()
}

func collectDocuments(rows pgx.Rows) ([]Document, error) {
	docs := make([]Document, 0)
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return docs, nil
}

// scalarText renders a scalar filter value the same way Postgres' ->> renders
// the stored JSON value, so equality on text is equality on the scalar.
func scalarText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
