package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "postgres://localhost/studyroom", []string{"http://localhost:3000"})
		assert.NoError(t, err)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.Equal(t, "postgres://localhost/studyroom", cfg.DatabaseDSN)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	})

	t.Run("empty server address", func(t *testing.T) {
		cfg, err := NewConfig("", "postgres://localhost/studyroom", nil)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("empty database DSN", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "", nil)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("allowed origins are optional", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "postgres://localhost/studyroom", nil)
		assert.NoError(t, err)
		assert.Nil(t, cfg.AllowedOrigins)
	})
}
