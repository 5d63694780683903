package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/w-h-a/docqa/index/providers/storer"
)

var DRIVER string

func init() {
	driver, err := otelsql.Register(
		"postgres",
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		detail := "failed to register pg storer with otel"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	DRIVER = driver
}

type postgresStorer struct {
	options storer.Options
	conn    *sql.DB
	mtx     sync.Mutex
}

func (s *postgresStorer) Upsert(ctx context.Context, records []storer.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO records (id, collection, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding
	`

	for _, rec := range records {
		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			query,
			rec.Id,
			s.options.Collection,
			rec.Content,
			metadata,
			pgvector.NewVector(rec.Embedding),
		); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return tx.Commit()
}

func (s *postgresStorer) Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	query := `
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM records
		WHERE collection = $2
	`

	args := []any{pgvector.NewVector(vector), s.options.Collection}

	if len(filter) > 0 {
		encoded, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		query += " AND metadata @> $3"
		args = append(args, encoded)
	}

	query += fmt.Sprintf(" ORDER BY embedding <=> $1, id LIMIT %d", limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var records []storer.Record

	for rows.Next() {
		var rec storer.Record
		var metadata []byte
		if err := rows.Scan(&rec.Id, &rec.Content, &metadata, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	return records, nil
}

func (s *postgresStorer) Count(ctx context.Context) (int, error) {
	var count int
	row := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = $1", s.options.Collection)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *postgresStorer) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM records WHERE collection = $1", s.options.Collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	return nil
}

func (s *postgresStorer) Close() error {
	return s.conn.Close()
}

func (s *postgresStorer) bootstrap(ctx context.Context, dimension int) error {
	if _, err := s.conn.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`, dimension)

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	if _, err := s.conn.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection)"); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	return nil
}

func NewStorer(opts ...storer.Option) (storer.Storer, error) {
	options := storer.NewOptions(opts...)

	dimension := options.Dimension
	if dimension == 0 {
		dimension = 1536
	}

	conn, err := sql.Open(DRIVER, options.Location)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &postgresStorer{
		options: options,
		conn:    conn,
	}

	if err := s.bootstrap(options.Context, dimension); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}
