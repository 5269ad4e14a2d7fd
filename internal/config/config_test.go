package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_USER", "kitchen")
	t.Setenv("DB_PASS", "p@ss/word")
	t.Setenv("ACCESS_TOKEN_SECRET", "testsecret123456789012345678901234")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("PORT", "5050")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "5050", cfg.Server.Port)
	require.Equal(t, "cloudKitchen", cfg.MongoDB.Database)
	require.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.True(t, cfg.MongoDB.Configured())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestConnectionURI(t *testing.T) {
	m := MongoDBConfig{User: "kitchen", Password: "p@ss/word", Cluster: "cluster0.example.mongodb.net"}
	uri := m.ConnectionURI()
	require.True(t, strings.HasPrefix(uri, "mongodb+srv://kitchen:"), uri)
	require.Contains(t, uri, "@cluster0.example.mongodb.net/?retryWrites=true&w=majority")
	require.NotContains(t, uri, "p@ss/word")

	m.URI = "mongodb://localhost:27017"
	require.Equal(t, "mongodb://localhost:27017", m.ConnectionURI())
}

func TestRedisAddr_Disabled(t *testing.T) {
	require.Empty(t, RedisConfig{Port: "6379"}.Addr())
}
