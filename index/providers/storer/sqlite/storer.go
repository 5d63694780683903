package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/w-h-a/docqa/index/providers/storer"
)

// sqliteStorer is the default persistent collection store. Collections are
// created lazily and survive process restarts; similarity is computed in
// process over the collection's records.
type sqliteStorer struct {
	options storer.Options
	db      *sql.DB
	mtx     sync.Mutex
}

func (s *sqliteStorer) Upsert(ctx context.Context, records []storer.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.ensureCollection(ctx, len(records[0].Embedding)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO records (id, collection, content, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata, embedding = excluded.embedding
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
			string(metadata),
			encodeVector(rec.Embedding),
			rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return tx.Commit()
}

func (s *sqliteStorer) Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	query := `
		SELECT id, content, metadata, embedding
		FROM records
		WHERE collection = ?
	`

	rows, err := s.db.QueryContext(ctx, query, s.options.Collection)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var candidates []storer.Record

	for rows.Next() {
		var rec storer.Record
		var metadata string
		var embedding []byte
		if err := rows.Scan(&rec.Id, &rec.Content, &metadata, &embedding); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		if len(filter) > 0 && !storer.MatchesFilter(rec.Metadata, filter) {
			continue
		}
		rec.Embedding = decodeVector(embedding)
		rec.Score = float32(storer.CosineSimilarity(vector, rec.Embedding))
		candidates = append(candidates, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	storer.Rank(candidates)

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (s *sqliteStorer) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = ?", s.options.Collection)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *sqliteStorer) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE collection = ?", s.options.Collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", s.options.Collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	return nil
}

func (s *sqliteStorer) Close() error {
	return s.db.Close()
}

func (s *sqliteStorer) ensureCollection(ctx context.Context, dimension int) error {
	query := `
		INSERT INTO collections (name, dimension)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, s.options.Collection, dimension); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

func (s *sqliteStorer) bootstrap() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// encodeVector packs float32 components little endian, the layout expected
// back by decodeVector.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector
}

func NewStorer(opts ...storer.Option) (storer.Storer, error) {
	options := storer.NewOptions(opts...)

	dir := options.Location
	if len(dir) == 0 {
		dir = "./docqa_db"
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create persist directory: %w", err)
	}

	path := filepath.Join(dir, "collections.db")

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &sqliteStorer{
		options: options,
		db:      db,
	}

	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}
