package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingDirectory struct {
	calls     int
	companies map[string]company.Company
}

func (c *countingDirectory) FindByName(ctx context.Context, name string) (company.Company, error) {
	c.calls++
	found, ok := c.companies[name]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return found, nil
}

func TestCompanyDirectory_CachesHits(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	next := &countingDirectory{companies: map[string]company.Company{
		"Acme": {ID: 3, Name: "Acme", DefaultBreakHours: 1},
	}}
	dir := NewCompanyDirectory(next, kv, time.Minute)

	first, err := dir.FindByName(ctx, "Acme")
	require.NoError(t, err)
	second, err := dir.FindByName(ctx, " ACME ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Minute, kv.ttl["workforce:company:acme"])
}

func TestCompanyDirectory_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	next := &countingDirectory{companies: map[string]company.Company{}}
	dir := NewCompanyDirectory(next, kv, time.Minute)

	_, err := dir.FindByName(ctx, "Ghost")
	assert.ErrorIs(t, err, company.ErrCompanyNotFound)
	_, err = dir.FindByName(ctx, "Ghost")
	assert.ErrorIs(t, err, company.ErrCompanyNotFound)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, kv.data)
}

func TestCompanyDirectory_RedisDownFallsThrough(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	next := &countingDirectory{companies: map[string]company.Company{
		"Acme": {ID: 3, Name: "Acme"},
	}}
	dir := NewCompanyDirectory(next, kv, 0)

	found, err := dir.FindByName(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.ID)
}

func TestCompanyDirectory_CorruptEntry(t *testing.T) {
	kv := newFakeKV()
	kv.data["workforce:company:acme"] = "{not json"
	next := &countingDirectory{companies: map[string]company.Company{
		"Acme": {ID: 3, Name: "Acme"},
	}}
	dir := NewCompanyDirectory(next, kv, time.Minute)

	found, err := dir.FindByName(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.ID)
	assert.Equal(t, 1, next.calls)
}
