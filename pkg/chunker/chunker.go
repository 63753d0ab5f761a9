package chunker

import (
	"fmt"
	"strings"
)

type Config struct {
	ChunkSize int // window size in words
	Overlap   int // words shared between consecutive chunks
}

// Chunker splits raw text into overlapping word-bounded chunks. It holds
// no state across calls.
type Chunker struct {
	config Config
}

func NewWithConfig(config Config) (Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 300
	}
	if config.ChunkSize < 1 {
		return Chunker{}, fmt.Errorf("chunk size must be positive")
	}
	if config.Overlap < 0 || config.Overlap >= config.ChunkSize {
		return Chunker{}, fmt.Errorf("overlap must be non-negative and less than chunk size")
	}

	return Chunker{config: config}, nil
}

// Chunk splits text into word windows of ChunkSize words advancing by
// ChunkSize-Overlap. A text of at most ChunkSize words comes back as a
// single chunk, unchanged.
func (c Chunker) Chunk(text string) []string {
	words := strings.Fields(text)

	if len(words) <= c.config.ChunkSize {
		return []string{text}
	}

	stride := c.config.ChunkSize - c.config.Overlap
	var chunks []string

	for i := 0; i < len(words); i += stride {
		end := i + c.config.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
