package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, "mistral-small", cfg.AnswerModel)
	assert.Equal(t, "contact@optim-finance.com", cfg.ContactEmail)
}

func TestDefaultConfigWithOptions(t *testing.T) {
	t.Run("with custom host", func(t *testing.T) {
		cfg := DefaultConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := DefaultConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithAnswerModel("gpt-4o-mini"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.AnswerModel)
	})

	t.Run("with contact email", func(t *testing.T) {
		cfg := DefaultConfig(WithContactEmail("support@example.com"))

		assert.Equal(t, "support@example.com", cfg.ContactEmail)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		cfg := DefaultConfig(
			WithHost("  http://localhost:11434/v1  "),
			WithEmbeddingModel(" all-minilm "),
		)

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := DefaultConfig(WithHost("   "))
		assert.ErrorIs(t, cfg.Validate(), ErrHostRequired)
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := DefaultConfig(WithEmbeddingModel(""))
		assert.ErrorIs(t, cfg.Validate(), ErrEmbeddingModelRequired)
	})

	t.Run("missing answer model", func(t *testing.T) {
		cfg := DefaultConfig(WithAnswerModel(""))
		assert.ErrorIs(t, cfg.Validate(), ErrAnswerModelRequired)
	})
}
