package config

import (
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldC0xMjM0NQ=="

const testJSON = `{
	"server_address": ":3000",
	"database_dsn": "json-dsn",
	"file_storage_path": "json_storage.json",
	"auth_token_ttl": "2h",
	"trusted_subnet": "10.0.0.0/8",
	"argon2_time": 3
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "authToken", cfg.AuthCookieName)
	assert.Equal(t, 24*time.Hour, cfg.AuthTokenTTL)
	assert.False(t, cfg.IsProduction())

	key, err := cfg.SigningKey()
	require.NoError(t, err, "a random secret should be generated outside production")
	assert.Len(t, key, minSigningKeyLength)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, uint32(3), cfg.HashTime)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("AUTH_TOKEN_TTL", "30m")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, 30*time.Minute, cfg.AuthTokenTTL)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := New(WithArgs([]string{
		"-c", jsonPath,
		"-a", ":6000",
		"-s", testSecret,
	}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, testSecret, cfg.AuthTokenSecret)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ARGON2_PARALLELISM", "4")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, uint8(4), cfg.HashParallelism)

	key, err := cfg.SigningKey()
	require.NoError(t, err)
	expected, err := base64.URLEncoding.DecodeString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, expected, key)
}

func TestValidationFailures(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "production without secret",
			env:  map[string]string{"APP_ENV": "production"},
		},
		{
			name: "short secret",
			env:  map[string]string{"JWT_SECRET": base64.URLEncoding.EncodeToString([]byte("short"))},
		},
		{
			name: "unknown log level",
			env:  map[string]string{"LOG_LEVEL": "verbose"},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"DATABASE_DRIVER": "mysql"},
		},
		{
			name: "bad trusted subnet",
			env:  map[string]string{"TRUSTED_SUBNET": "10.0.0.1"},
		},
		{
			name: "bad address",
			env:  map[string]string{"SERVER_ADDRESS": "localhost"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for key, value := range testCase.env {
				t.Setenv(key, value)
			}

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestMissingSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := New(WithDisableFlagsParsing(true))
	assert.ErrorIs(t, err, ErrMissingSecret)
}
