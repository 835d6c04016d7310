package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:          "8374",
		SecretKey:     "you-will-never-guess",
		Env:           "development",
		PostsPerPage:  25,
		ExportWorkers: 3,
	}
}

func TestValidate(t *testing.T) {
	t.Run("DevelopmentDefaultsPass", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("PortRequired", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("SecretKeyRequired", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("ProductionRejectsDefaultSecret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Env = "production"
		cfg.DBPassword = "s3cure-enough-for-this-test"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SECRET_KEY")
	})

	t.Run("ProductionRejectsShortSecret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Env = "prod"
		cfg.SecretKey = "short-secret"
		cfg.DBPassword = "s3cure-enough-for-this-test"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("ProductionRejectsWeakDBPassword", func(t *testing.T) {
		cfg := validConfig()
		cfg.Env = "production"
		cfg.SecretKey = "0123456789abcdef0123456789abcdef"
		cfg.DBPassword = "password"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_PASSWORD")
	})

	t.Run("ProductionWithStrongValuesPasses", func(t *testing.T) {
		cfg := validConfig()
		cfg.Env = "production"
		cfg.SecretKey = "0123456789abcdef0123456789abcdef"
		cfg.DBPassword = "s3cure-enough-for-this-test"
		require.NoError(t, cfg.Validate())
	})

	t.Run("PositiveBoundsEnforced", func(t *testing.T) {
		cfg := validConfig()
		cfg.PostsPerPage = 0
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.ExportWorkers = 0
		assert.Error(t, cfg.Validate())
	})
}
