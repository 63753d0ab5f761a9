package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "mistral"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_api_docs"
  vector_dim: 768
  batch_size: 50

api:
  base_url: "https://api.internal.example.com"
  key: "test-key"
  timeout_secs: 15

chunker:
  chunk_size: 300
  overlap: 50

retrieval:
  top_k: 5
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, "test_api_docs", config.Database.TableName)
	assert.Equal(t, "https://api.internal.example.com", config.API.BaseURL)
	assert.Equal(t, "test-key", config.API.Key)
	assert.Equal(t, 300, config.Chunker.ChunkSize)
	assert.Equal(t, 50, config.Chunker.Overlap)
	assert.Equal(t, 5, config.Retrieval.TopK)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "nomic-embed-text:latest", config.LLM.EmbedModel)
	assert.Equal(t, "api_docs", config.Database.TableName)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, 300, config.Chunker.ChunkSize)
	assert.Equal(t, 50, config.Chunker.Overlap)
	assert.Equal(t, 3, config.Retrieval.TopK)
	assert.Equal(t, []string{".md", ".markdown", ".txt"}, config.Docs.Extensions)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, valid.Validate())

	invalid := &Config{}
	invalid.LLM.MaxTokens = 5000
	invalid.LLM.Temperature = 3.0
	invalid.Database.VectorDim = -1
	invalid.Chunker.ChunkSize = 100
	invalid.Chunker.Overlap = 100

	errors := invalid.Validate()
	require.NotEmpty(t, errors)

	messages := make([]string, 0, len(errors))
	for _, e := range errors {
		messages = append(messages, e.Error())
	}
	assert.Contains(t, messages, "llm.max_tokens: max_tokens must be between 1 and 4096")
	assert.Contains(t, messages, "llm.temperature: temperature must be between 0 and 2")
	assert.Contains(t, messages, "database.vector_dim: vector_dim must be positive")
	assert.Contains(t, messages, "chunker.overlap: overlap must be non-negative and less than chunk_size")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("API_BASE_URL", "https://env-api.example.com")
	t.Setenv("API_KEY", "env-key")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "https://env-api.example.com", config.API.BaseURL)
	assert.Equal(t, "env-key", config.API.Key)
}
