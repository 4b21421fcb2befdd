package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fleetrelay.io/fleetrelay/pkg/log"
	"fleetrelay.io/fleetrelay/pkg/options"
)

type minioProvider struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOProvider creates an S3-protocol storage provider.
func NewMinIOProvider(opts *options.S3Options) (Provider, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioProvider{
		client:     client,
		bucketName: opts.BucketName,
	}, nil
}

func (p *minioProvider) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (p *minioProvider) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := p.client.PutObject(ctx, p.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (p *minioProvider) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presigned, err := p.client.PresignedGetObject(ctx, p.bucketName, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return presigned.String(), nil
}
