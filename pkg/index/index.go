// Package index ties chunking, embedding and vector storage together
// behind the three operations the rest of the system needs: ingest a
// documentation corpus, retrieve grounding context for a query, and
// count stored records.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbarlow/apiq/internal/models"
	"github.com/mbarlow/apiq/internal/types"
	"github.com/mbarlow/apiq/pkg/chunker"
)

// ContextSeparator joins retrieved chunks into one grounding string.
const ContextSeparator = "\n\n---\n\n"

type Config struct {
	ChunkSize  int
	Overlap    int
	TopK       int
	Extensions []string // recognized documentation file extensions
}

type Index struct {
	config   Config
	chunker  chunker.Chunker
	embedder types.Embedder
	store    types.VectorStore
}

func NewWithConfig(config Config, embedder types.Embedder, store types.VectorStore) (*Index, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 300
	}
	if config.Overlap == 0 {
		config.Overlap = 50
	}
	if config.TopK == 0 {
		config.TopK = 3
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".md", ".markdown", ".txt"}
	}

	ch, err := chunker.NewWithConfig(chunker.Config{
		ChunkSize: config.ChunkSize,
		Overlap:   config.Overlap,
	})
	if err != nil {
		return nil, err
	}

	return &Index{
		config:   config,
		chunker:  ch,
		embedder: embedder,
		store:    store,
	}, nil
}

// Ingest discovers documentation files under dir recursively, chunks and
// embeds them, and appends the records to the store. Finding no files or
// producing no chunks is not an error; the returned count is simply 0.
func (ix *Index) Ingest(ctx context.Context, dir string) (int, error) {
	paths, err := ix.discover(dir)
	if err != nil {
		return 0, err
	}

	var docs []models.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %v", path, err)
		}

		name := filepath.Base(path)
		docs = append(docs, models.Document{
			ID:      strings.TrimSuffix(name, filepath.Ext(name)),
			Source:  name,
			Content: string(data),
		})
	}

	return ix.IngestDocuments(ctx, docs)
}

// IngestDocuments chunks, embeds and stores already-loaded documents.
// Record ids are derived as {document id}_{chunk index}, so re-ingesting
// the same corpus upserts over the previous records.
func (ix *Index) IngestDocuments(ctx context.Context, docs []models.Document) (int, error) {
	var records []models.EmbeddingRecord
	var texts []string

	for _, doc := range docs {
		for i, chunk := range ix.chunker.Chunk(doc.Content) {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			records = append(records, models.EmbeddingRecord{
				ID:      fmt.Sprintf("%s_%d", doc.ID, i),
				Source:  doc.Source,
				Content: chunk,
				Index:   i,
			})
			texts = append(texts, chunk)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(records) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(records))
	}
	for i := range records {
		records[i].Vector = vectors[i]
	}

	if err := ix.store.Add(ctx, records); err != nil {
		return 0, err
	}

	return len(records), nil
}

// Retrieve embeds the query and returns the top-k chunk texts joined in
// rank order. An empty string means no context is available, which the
// caller treats as a valid signal rather than an error.
func (ix *Index) Retrieve(ctx context.Context, query string) (string, error) {
	vectors, err := ix.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return "", err
	}
	if len(vectors) == 0 {
		return "", fmt.Errorf("embedder returned no vector for query")
	}

	contents, err := ix.store.Query(ctx, vectors[0], ix.config.TopK)
	if err != nil {
		return "", err
	}

	return strings.Join(contents, ContextSeparator), nil
}

// Count reports the number of records in the store.
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}

func (ix *Index) discover(dir string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, allowed := range ix.config.Extensions {
			if ext == allowed {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs directory: %v", err)
	}

	return paths, nil
}
