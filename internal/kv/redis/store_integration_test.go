//go:build integration

package redis_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	kvredis "github.com/MrJamesThe3rd/tripwise/internal/kv/redis"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *goredis.Client
	store     *kvredis.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := kvredis.Connect(ctx, kvredis.Options{URL: url, PoolSize: 4})
	s.Require().NoError(err)

	s.client = client
	s.store = kvredis.New(client, "tripwise:test:")
}

func (s *RedisStoreSuite) TearDownSuite() {
	ctx := context.Background()

	if s.client != nil {
		_ = s.client.Close()
	}

	if s.container != nil {
		_ = s.container.Terminate(ctx)
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestSetGetRemove() {
	ctx := context.Background()

	_, ok, err := s.store.Get(ctx, kv.KeyPolicies)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Set(ctx, kv.KeyPolicies, []byte(`[{"id":"POL-1"}]`)))

	got, ok, err := s.store.Get(ctx, kv.KeyPolicies)
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(`[{"id":"POL-1"}]`, string(got))

	raw, err := s.client.Get(ctx, "tripwise:test:"+kv.KeyPolicies).Result()
	s.Require().NoError(err)
	s.NotEmpty(raw)

	s.Require().NoError(s.store.Remove(ctx, kv.KeyPolicies))

	_, ok, err = s.store.Get(ctx, kv.KeyPolicies)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestOverwriteIsWholeValue() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "k", []byte("first value")))
	s.Require().NoError(s.store.Set(ctx, "k", []byte("2nd")))

	got, _, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal("2nd", string(got))
}
