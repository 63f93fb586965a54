package utils

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestBuildPostgresDSN(t *testing.T) {
	assert.Equal(t, "postgres://postgres@localhost:5432/hackathon_2025?sslmode=disable", BuildPostgresDSN(envMap(nil)))
	got := BuildPostgresDSN(envMap(map[string]string{
		"PG_HOST": "db", "PG_PORT": "6543", "PG_USER": "rnb", "PG_PASSWORD": "secret", "PG_DB": "bat", "PG_SSLMODE": "require",
	}))
	assert.Equal(t, "postgres://rnb:secret@db:6543/bat?sslmode=require", got)
}

func TestRedisOptions(t *testing.T) {
	assert.Nil(t, RedisOptions(envMap(nil)))

	opt := RedisOptions(envMap(map[string]string{"REDIS_HOST": "cache", "REDIS_DB": "x"}))
	require.NotNil(t, opt)
	assert.Equal(t, "cache:6379", opt.Addr)
	assert.Equal(t, 0, opt.DB)

	opt = RedisOptions(envMap(map[string]string{"REDIS_HOST": "cache", "REDIS_PORT": "6380", "REDIS_DB": "3", "REDIS_PASS": "p"}))
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, 3, opt.DB)
	assert.Equal(t, "p", opt.Password)

	assert.Nil(t, OpenRedis("", ""))
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")

	require.NoError(t, EnsureSelfSignedCert(cert, key, "rnb-admin.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	before, err := os.ReadFile(cert)
	require.NoError(t, err)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "rnb-admin.local"))
	after, err := os.ReadFile(cert)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
