package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the slice of *minio.Client this package uses. Tests substitute
// a fake; production code always passes the real client.
type objectAPI interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
type MinioStorage struct {
	client objectAPI
	bucket string
}

// MinioOptions configures NewMinioStorage.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// STSEndpoint, when non-empty, switches URL signing to delegated STS
	// credentials obtained via AssumeRole. The credentials provider caches
	// the temporary credential for its validity window and performs at most
	// one refresh at a time, so signing many URLs does not mean many STS
	// round trips.
	STSEndpoint string

	Bucket string
}

// NewMinioStorage creates a MinIO client, ensures the bucket exists, and
// returns a ready-to-use MinioStorage. The bucket stays private; reads go
// through presigned URLs only.
func NewMinioStorage(ctx context.Context, opts MinioOptions) (*MinioStorage, error) {
	creds, err := buildCredentials(opts)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStorage{client: client, bucket: opts.Bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func buildCredentials(opts MinioOptions) (*credentials.Credentials, error) {
	if opts.STSEndpoint != "" {
		creds, err := credentials.NewSTSAssumeRole(opts.STSEndpoint, credentials.STSAssumeRoleOptions{
			AccessKey:       opts.AccessKey,
			SecretKey:       opts.SecretKey,
			DurationSeconds: int(time.Hour / time.Second),
		})
		if err != nil {
			return nil, fmt.Errorf("create sts credentials: %w", err)
		}
		return creds, nil
	}
	return credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""), nil
}

// ensureBucket is idempotent: an existing bucket is a no-op.
func (s *MinioStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
		slog.Info("storage: created bucket", "bucket", s.bucket)
	}
	return nil
}

// List drains the listing channel so multi-page results are fully consumed.
func (s *MinioStorage) List(ctx context.Context) ([]Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]Object, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, &Error{Op: "list objects", Key: s.bucket, Kind: ErrWrite, Err: info.Err}
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	return objects, nil
}

// Put streams reader to the bucket under key. size must be the exact byte count.
func (s *MinioStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return &Error{Op: "put object", Key: key, Kind: ErrWrite, Err: err}
	}
	return nil
}

// Delete removes the object at key. RemoveObject succeeds silently on missing
// keys, so the object is stat'ed first to report absence as ErrNotFound.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return &Error{Op: "delete object", Key: key, Kind: ErrNotFound}
		}
		return &Error{Op: "delete object", Key: key, Kind: ErrWrite, Err: err}
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &Error{Op: "delete object", Key: key, Kind: ErrWrite, Err: err}
	}
	return nil
}

// SignedURL returns a presigned GET URL valid until now+ttl.
func (s *MinioStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", &Error{Op: "sign url", Key: key, Kind: ErrSigning, Err: err}
	}
	return u.String(), nil
}
