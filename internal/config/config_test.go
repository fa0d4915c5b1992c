package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("TEXT_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("RETRIEVAL_BACKEND", "local")
	t.Setenv("COMIC_OUTPUT_DIR", "/tmp/comics")

	cfg := LoadConfig()
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "o-key", cfg.TextAPIKey())
	assert.Equal(t, BackendLocal, cfg.RetrievalBackend)
	assert.Equal(t, "/tmp/comics", cfg.OutputDir)
	assert.Equal(t, DefaultKnowledgeDB, cfg.KnowledgeDB)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestApplyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comicgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text_model: custom-model\nlightrag_url: http://rag:9621\nhttp_timeout: 5s\n"), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := &Config{TextModel: "default", LightRAGURL: "http://localhost", OutputDir: "./comics", HTTPTimeout: time.Minute}
	cfg.ApplyOverrides(v)

	assert.Equal(t, "custom-model", cfg.TextModel)
	assert.Equal(t, "http://rag:9621", cfg.LightRAGURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "./comics", cfg.OutputDir, "設定ファイルに無いキーは変更しないこと")
}

func TestValidate(t *testing.T) {
	base := Config{
		GeminiAPIKey:     "g",
		TextProvider:     "gemini",
		RetrievalBackend: BackendLightRAG,
		LightRAGURL:      "http://localhost:9621",
	}

	cfg := base
	assert.NoError(t, cfg.Validate())

	cfg = base
	cfg.GeminiAPIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.TextProvider = "anthropic"
	assert.Error(t, cfg.Validate(), "anthropic のキーが無い")

	cfg = base
	cfg.RetrievalBackend = "elastic"
	assert.Error(t, cfg.Validate())
}
