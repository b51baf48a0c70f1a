package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/config"
)

// MinioSink uploads files to an S3-compatible bucket. It is safe for
// concurrent use.
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string
	region string
}

// NewMinioSink creates a client for cfg. It does not contact the server;
// call EnsureBucket for that.
func NewMinioSink(cfg config.StorageConfig) (*MinioSink, error) {
	if cfg.Endpoint == "" {
		return nil, eris.New("storage: endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, eris.New("storage: credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, eris.New("storage: bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "storage: create minio client")
	}
	return &MinioSink{client: cli, bucket: cfg.Bucket, prefix: cfg.Prefix, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (m *MinioSink) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return eris.Wrapf(err, "storage: check bucket %s", m.bucket)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return eris.Wrapf(err, "storage: create bucket %s", m.bucket)
	}
	zap.L().Info("created bucket", zap.String("bucket", m.bucket))
	return nil
}

// Put uploads localPath to <prefix>/<key>.
func (m *MinioSink) Put(ctx context.Context, key, localPath string) error {
	objectKey := ObjectKey(m.prefix, key)
	info, err := m.client.FPutObject(ctx, m.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: ContentType(filepath.Base(localPath)),
	})
	if err != nil {
		return eris.Wrapf(err, "storage: put %s", objectKey)
	}
	zap.L().Debug("mirrored file",
		zap.String("bucket", m.bucket),
		zap.String("key", objectKey),
		zap.Int64("size", info.Size),
	)
	return nil
}
