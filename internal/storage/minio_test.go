package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectAPI implements objectAPI in memory.
type fakeObjectAPI struct {
	objects map[string][]byte
	listErr error
	signErr error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string][]byte)}
}

func (f *fakeObjectAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		for key, data := range f.objects {
			ch <- minio.ObjectInfo{Key: key, Size: int64(len(data))}
		}
		if f.listErr != nil {
			ch <- minio.ObjectInfo{Err: f.listErr}
		}
	}()
	return ch
}

func (f *fakeObjectAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = data
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectAPI) PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &url.URL{Scheme: "https", Host: "store.example.com", Path: "/" + bucket + "/" + key}, nil
}

func (f *fakeObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return true, nil
}

func (f *fakeObjectAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return nil
}

func newTestStorage(api *fakeObjectAPI) *MinioStorage {
	return &MinioStorage{client: api, bucket: "images"}
}

func TestListDrainsAllObjects(t *testing.T) {
	api := newFakeObjectAPI()
	api.objects["a.png"] = []byte("a")
	api.objects["b.jpg"] = []byte("bb")
	s := newTestStorage(api)

	objects, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}

func TestListSurfacesChannelError(t *testing.T) {
	api := newFakeObjectAPI()
	api.listErr = errors.New("connection reset")
	s := newTestStorage(api)

	_, err := s.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
}

func TestPutThenDelete(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStorage(api)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k.png", strings.NewReader("data"), 4, "image/png"))
	require.NoError(t, s.Delete(ctx, "k.png"))
	assert.NotContains(t, api.objects, "k.png")
}

func TestDeleteMissingKeyIsNotFound(t *testing.T) {
	s := newTestStorage(newFakeObjectAPI())

	err := s.Delete(context.Background(), "never-uploaded.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "never-uploaded.png")
}

func TestSignedURLFailureIsSigningError(t *testing.T) {
	api := newFakeObjectAPI()
	api.signErr = errors.New("credentials expired")
	s := newTestStorage(api)

	_, err := s.SignedURL(context.Background(), "a.png", time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSigning)
}

func TestSignedURLIncludesKey(t *testing.T) {
	s := newTestStorage(newFakeObjectAPI())

	u, err := s.SignedURL(context.Background(), "a.png", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, u, "/images/a.png")
}
