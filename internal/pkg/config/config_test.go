package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 5.0, cfg.AuthRateLimit)
	assert.Equal(t, 4, cfg.AuditWorkers)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.Mongo.URI)
	assert.Equal(t, "inventoryApp", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "s3cret",
		"PORT":         "8081",
		"ENV":          "production",
		"TOKEN_TTL":    "1h",
		"CORS_ORIGINS": "http://a.test,http://b.test",
		"MONGO_DB":     "inv_test",
		"REDIS_DB":     "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "inv_test", cfg.Mongo.Database)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"ttl":     {"JWT_SECRET": "x", "TOKEN_TTL": "0s"},
		"workers": {"JWT_SECRET": "x", "AUDIT_WORKERS": "0"},
		"parse":   {"JWT_SECRET": "x", "AUDIT_WORKERS": "many"},
	} {
		_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
		assert.Error(t, err, name)
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClientWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Empty(t, cfg.TokenFile)
	assert.Equal(t, "warn", cfg.LogLevel)
}
