package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/mbarlow/apiq/internal/models"
)

// ErrUnavailable reports that the vector index cannot be reached or has
// not been created yet. Callers should tell the user to run setup.
var ErrUnavailable = errors.New("vector index unavailable")

type Config struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// VectorStore persists embedding records in PostgreSQL with the pgvector
// extension and answers nearest-neighbor queries by cosine distance.
type VectorStore struct {
	config Config
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config Config) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "api_docs"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("%w: failed to create vector extension: %v", ErrUnavailable, err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			chunk_index INTEGER,
			embedding vector(%d),
			metadata JSONB
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("%w: failed to create table: %v", ErrUnavailable, err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("%w: failed to create index: %v", ErrUnavailable, err)
	}

	return nil
}

// Add upserts records in batches. Re-ingesting the same documentation
// reuses the same ids and overwrites the previous rows.
func (vs *VectorStore) Add(ctx context.Context, records []models.EmbeddingRecord) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, content, chunk_index, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			chunk_index = EXCLUDED.chunk_index,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		vs.config.TableName)

	for start := 0; start < len(records); start += vs.config.BatchSize {
		end := start + vs.config.BatchSize
		if end > len(records) {
			end = len(records)
		}

		tx, err := vs.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}

		for _, record := range records[start:end] {
			metadata := map[string]interface{}{
				"source": record.Source,
				"index":  record.Index,
			}

			_, err = tx.Exec(ctx, stmt,
				record.ID,
				record.Source,
				sanitizeUTF8(record.Content),
				record.Index,
				pgvector.NewVector(record.Vector),
				metadata,
			)
			if err != nil {
				tx.Rollback(ctx)
				return fmt.Errorf("failed to insert record %s: %v", record.ID, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %v", err)
		}
	}

	return nil
}

// Query returns the contents of the k nearest records, best match first.
func (vs *VectorStore) Query(ctx context.Context, vector []float32, k int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT content
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		contents = append(contents, content)
	}

	return contents, rows.Err()
}

// Count reports the number of stored records.
func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", vs.config.TableName)

	var count int
	if err := vs.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
