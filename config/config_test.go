package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY_2", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY_3", "")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Generation.MaxDays)
	assert.Equal(t, 300, cfg.Enrichment.CacheSize)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.GenAI.Models)
	assert.False(t, cfg.GenAI.StrictClientErrors)
	assert.Equal(t, "/travel.jpg", cfg.Enrichment.DefaultImage)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GOOGLE_GEMINI_API_KEY":   "k1",
		"GOOGLE_GEMINI_API_KEY_3": "k3",
		"PIXABAY_KEY":             "pix",
		"JWT_SECRET":              "secret",
		"DATABASE_URL":            "postgresql://u:p@db/trips",
	}
	cfg := Config{}
	cfg.GenAI.APIKeys = []string{"from-file"}

	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"k1", "k3"}, cfg.GenAI.APIKeys)
	assert.Equal(t, "pix", cfg.Enrichment.PixabayKey)
	assert.Equal(t, "secret", cfg.JWT.SecretKey)
	assert.Equal(t, "postgresql://u:p@db/trips", cfg.Repositories.Postgres.URL)
}

func TestApplyEnv_KeepsFileKeysWithoutEnv(t *testing.T) {
	cfg := Config{}
	cfg.GenAI.APIKeys = []string{" a ", "", "b"}

	cfg.applyEnv(func(string) string { return "" })

	assert.Equal(t, []string{"a", "b"}, cfg.GenAI.Credentials())
}
