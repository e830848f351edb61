package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  api_key: "test-key"
  model: "gpt-4"
  embedding_model: "text-embedding-3-large"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/biorag"
  table_name: "test_papers"
  vector_dim: 3072
  batch_size: 50
  top_k: 5

processor:
  max_chunk_size: 500
  chunk_overlap: 100

fetcher:
  rate_limit: 1.5
  timeout_seconds: 10

server:
  port: "3000"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test-key", config.LLM.APIKey)
	assert.Equal(t, "gpt-4", config.LLM.Model)
	assert.Equal(t, "text-embedding-3-large", config.LLM.EmbeddingModel)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/biorag", config.Database.URL)
	assert.Equal(t, "test_papers", config.Database.TableName)
	assert.Equal(t, 3072, config.Database.VectorDim)
	assert.Equal(t, 5, config.Database.TopK)
	assert.Equal(t, 500, config.Processor.MaxChunkSize)
	assert.Equal(t, "3000", config.Server.Port)
}

func TestLoadConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("llm:\n  api_key: key\n"), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", config.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", config.LLM.EmbeddingModel)
	assert.Equal(t, "papers", config.Database.TableName)
	assert.Equal(t, 1536, config.Database.VectorDim)
	assert.Equal(t, 3, config.Database.TopK)
	assert.Equal(t, 1000, config.Processor.MaxChunkSize)
	assert.Equal(t, 200, config.Processor.ChunkOverlap)
	assert.Equal(t, "8080", config.Server.Port)
}

func TestConfigValidation(t *testing.T) {
	valid := &Config{}
	applyDefaults(valid)
	valid.LLM.APIKey = "key"
	valid.Database.URL = "postgres://localhost:5432/biorag"

	assert.Empty(t, valid.Validate())

	invalid := &Config{}
	applyDefaults(invalid)
	invalid.LLM.Temperature = 3.0
	invalid.Processor.ChunkOverlap = invalid.Processor.MaxChunkSize

	errs := invalid.Validate()
	require.NotEmpty(t, errs)

	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "llm.api_key")
	assert.Contains(t, fields, "llm.temperature")
	assert.Contains(t, fields, "database.url")
	assert.Contains(t, fields, "processor.chunk_overlap")
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "env-key")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/biorag")
	defer func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("DATABASE_URL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "env-key", config.LLM.APIKey)
	assert.Equal(t, "postgres://env-db:5432/biorag", config.Database.URL)
}
