package signature

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/storage"
	"github.com/leonelpereyra44/pestcontrol/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeObjects struct {
	objects  map[string][]storage.Object
	listErr  error
	signErr  error
	signed   []string
	prefixes []string
}

func (f *fakeObjects) ListObjects(_ context.Context, bucket, prefix string) ([]storage.Object, error) {
	f.prefixes = append(f.prefixes, bucket+"/"+prefix)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects[prefix], nil
}

func (f *fakeObjects) CreateSignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.signed = append(f.signed, path)
	return "https://storage.test/" + bucket + "/" + path + "?ttl=" + ttl.String(), nil
}

func TestResolve_NoTechnician(t *testing.T) {
	objects := &fakeObjects{}
	r := NewResolver(objects, nil, "workers", time.Hour, zap.NewNop())

	res, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StateNone, res.State)
	assert.Empty(t, objects.prefixes)
}

func TestResolve_MissingDistinctFromError(t *testing.T) {
	missing := NewResolver(&fakeObjects{}, nil, "workers", time.Hour, zap.NewNop())
	res, err := missing.Resolve(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, StateMissing, res.State)
	assert.Equal(t, MsgMissing, res.Message)

	failing := NewResolver(&fakeObjects{listErr: errors.New("503")}, nil, "workers", time.Hour, zap.NewNop())
	res, err = failing.Resolve(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, MsgListFailed, res.Message)
	assert.NotEqual(t, StateMissing, res.State)
}

func TestResolve_PicksSmallestName(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]storage.Object{
		"t1/sello/": {{Name: "z.png"}, {Name: "b.png"}, {Name: "c.jpg"}},
	}}
	r := NewResolver(objects, nil, "workers", time.Hour, zap.NewNop())

	res, err := r.Resolve(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, "t1/sello/b.png", res.Path)
	assert.Equal(t, "https://storage.test/workers/t1/sello/b.png?ttl=1h0m0s", res.URL)
	assert.Equal(t, "t1/sello/b.png", r.Path())
	assert.Equal(t, []string{"workers/t1/sello/"}, objects.prefixes)
}

func TestResolve_SignFailure(t *testing.T) {
	objects := &fakeObjects{
		objects: map[string][]storage.Object{"t1/sello/": {{Name: "x.png"}}},
		signErr: errors.New("forbidden"),
	}
	r := NewResolver(objects, nil, "workers", time.Hour, zap.NewNop())

	res, err := r.Resolve(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, MsgSigningFailed, res.Message)
	assert.Equal(t, "", r.Path())
}

func TestClear(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]storage.Object{"t1/sello/": {{Name: "x.png"}}}}
	r := NewResolver(objects, nil, "workers", time.Hour, zap.NewNop())

	_, err := r.Resolve(context.Background(), "t1")
	require.NoError(t, err)
	require.NotEmpty(t, r.Path())

	r.Clear()
	assert.Equal(t, StateNone, r.Current().State)
	assert.Equal(t, "", r.Path())
}

func TestResolve_CachesSignedURL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	objects := &fakeObjects{objects: map[string][]storage.Object{"t1/sello/": {{Name: "x.png"}}}}
	r := NewResolver(objects, store.NewRedisKV(client, ""), "workers", time.Hour, zap.NewNop())

	first, err := r.Resolve(context.Background(), "t1")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, first.URL, second.URL)
	assert.Len(t, objects.signed, 1)
	assert.Equal(t, 55*time.Minute, mr.TTL("sello:workers:t1/sello/x.png"))

	// listing always runs so a removed stamp is noticed
	assert.Len(t, objects.prefixes, 2)
}
