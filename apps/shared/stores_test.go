package shared

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergington/roster/core"
)

func testConfig(t *testing.T) *core.Config {
	dir := t.TempDir()
	return &core.Config{
		Store: core.StoreConfig{Backend: core.StoreMemory, Path: filepath.Join(dir, "roster.json")},
		Database: core.DatabaseConfig{
			Engine: "sqlite",
			Path:   filepath.Join(dir, "roster.db"),
		},
		Auth: core.AuthConfig{
			AccountsFile:   filepath.Join(dir, "teachers.json"),
			SessionBackend: core.SessionsMemory,
		},
		Redis: core.RedisConfig{KeyPrefix: "roster:"},
	}
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{core.StoreMemory, core.StoreJSON, core.StoreBolt, core.StoreSQL} {
		t.Run(backend, func(t *testing.T) {
			conf := testConfig(t)
			conf.Store.Backend = backend
			if backend == core.StoreBolt {
				conf.Store.Path = filepath.Join(filepath.Dir(conf.Store.Path), "roster.bolt")
			}

			s, err := OpenStores(ctx, conf)
			require.NoError(t, err)
			defer func() { assert.NoError(t, s.Close()) }()

			assert.NotNil(t, s.Roster)
			assert.NotNil(t, s.Accounts)
			assert.NotNil(t, s.Sessions)
			assert.Equal(t, backend == core.StoreSQL, s.SQL != nil)
		})
	}
}

func TestOpenStores_redisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	conf := testConfig(t)
	conf.Auth.SessionBackend = core.SessionsRedis
	conf.Redis.Address = mr.Addr()

	s, err := OpenStores(context.Background(), conf)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestOpenStores_unknownBackend(t *testing.T) {
	conf := testConfig(t)
	conf.Store.Backend = "cassandra"
	_, err := OpenStores(context.Background(), conf)
	assert.True(t, IsArgumentError(err))
	assert.EqualError(t, err, `unknown store backend "cassandra"`)

	conf = testConfig(t)
	conf.Auth.SessionBackend = "memcached"
	_, err = OpenStores(context.Background(), conf)
	assert.True(t, IsArgumentError(err))
}
