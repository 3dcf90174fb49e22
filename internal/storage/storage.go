// AngelaMos | 2026
// storage.go

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carterperez-dev/barbermaster/internal/config"
	"github.com/carterperez-dev/barbermaster/internal/core"
)

var ErrUnsupportedImage = core.ValidationError("image must be a JPEG, PNG or WebP file")

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// ImageStore keeps profile images in an S3 compatible bucket.
type ImageStore struct {
	client        *minio.Client
	bucket        string
	presignExpire time.Duration
}

func NewImageStore(ctx context.Context, cfg config.StorageConfig) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	s := &ImageStore{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpire: cfg.PresignExpire,
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *ImageStore) ensureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if found {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// DetectImage sniffs the content type of an upload and returns the matching
// file extension, rejecting anything that is not an allowed image.
func DetectImage(data []byte) (contentType, extension string, err error) {
	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedImageTypes...) {
		return "", "", ErrUnsupportedImage
	}
	return mime.String(), mime.Extension(), nil
}

// PutImage uploads data under objectName after checking its content type.
func (s *ImageStore) PutImage(ctx context.Context, objectName string, data []byte) error {
	contentType, _, err := DetectImage(data)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s *ImageStore) URL(ctx context.Context, objectName string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, s.presignExpire, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

func (s *ImageStore) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *ImageStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage ping failed: %w", err)
	}
	return nil
}

// ReadLimited reads at most limit bytes, failing when the source is larger.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, core.ValidationError(fmt.Sprintf("image must be at most %d bytes", limit))
	}
	return data, nil
}
