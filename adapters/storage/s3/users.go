package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/gruzdev-dev/codex-users/adapters/storage"
	"github.com/gruzdev-dev/codex-users/configs"
	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/ports"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentRepo keeps the collection as a single object in an S3 bucket.
type DocumentRepo struct {
	client *minio.Client
	bucket string
	object string
}

func NewClient(cfg *configs.Config) (*minio.Client, error) {
	if cfg.S3.Endpoint == "" {
		return nil, fmt.Errorf("S3 endpoint is required")
	}
	if cfg.S3.AccessKey == "" {
		return nil, fmt.Errorf("S3 access key is required")
	}
	if cfg.S3.SecretKey == "" {
		return nil, fmt.Errorf("S3 secret key is required")
	}
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	endpoint := cfg.S3.Endpoint
	useSSL := cfg.S3.UseSSL

	if parsedURL, err := url.Parse(cfg.S3.Endpoint); err == nil && parsedURL.Host != "" {
		endpoint = parsedURL.Host
		switch parsedURL.Scheme {
		case "https":
			useSSL = true
		case "http":
			useSSL = false
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return client, nil
}

func NewDocumentRepo(client *minio.Client, bucket, object string) ports.UserRepository {
	return &DocumentRepo{
		client: client,
		bucket: bucket,
		object: object,
	}
}

func (r *DocumentRepo) Load(ctx context.Context) ([]domain.User, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, r.object, minio.GetObjectOptions{})
	if err != nil {
		return r.readError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return r.readError(err)
	}

	users, err := storage.DecodeUsers(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse s3://%s/%s: %v", domain.ErrStorageRead, r.bucket, r.object, err)
	}

	return users, nil
}

func (r *DocumentRepo) Save(ctx context.Context, users []domain.User) error {
	data, err := storage.EncodeUsers(users)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorageWrite, err)
	}

	_, err = r.client.PutObject(ctx, r.bucket, r.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", domain.ErrStorageWrite, r.bucket, r.object, err)
	}

	return nil
}

func (r *DocumentRepo) readError(err error) ([]domain.User, error) {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return []domain.User{}, nil
	}
	return nil, fmt.Errorf("%w: get s3://%s/%s: %w", domain.ErrStorageRead, r.bucket, r.object, err)
}
