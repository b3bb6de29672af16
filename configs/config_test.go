package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "GRPC_PORT", "STORAGE_DRIVER", "STORAGE_READ_POLICY", "USERS_FILE",
		"USERS_DOCUMENT", "POSTGRES_PORT", "S3_OBJECT", "S3_USE_SSL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Empty(t, cfg.GRPC.Port)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, "lenient", cfg.Storage.ReadPolicy)
	assert.Equal(t, "./users.json", cfg.Storage.FilePath)
	assert.Equal(t, "users", cfg.Storage.Document)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "users.json", cfg.S3.Object)
	assert.False(t, cfg.S3.UseSSL)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GRPC_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_READ_POLICY", "strict")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "users")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "9090", cfg.GRPC.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "strict", cfg.Storage.ReadPolicy)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, "postgres://app:secret@db:5432/users?sslmode=disable", cfg.DatabaseURL())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		errMsg string
	}{
		{name: "driver", key: "STORAGE_DRIVER", value: "mongo", errMsg: "unknown STORAGE_DRIVER"},
		{name: "read policy", key: "STORAGE_READ_POLICY", value: "maybe", errMsg: "unknown STORAGE_READ_POLICY"},
		{name: "use ssl", key: "S3_USE_SSL", value: "sometimes", errMsg: "invalid S3_USE_SSL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
