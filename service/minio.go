package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioService archives signed contract PDFs to object storage and can serve
// template assets from the same bucket.
type MinioService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioService(cfg *config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ArchiveSignedPDF stores a copy of a signed contract under
// contracts/<contract_id>.pdf. The database row stays the source of truth;
// the archive copy exists for direct download links.
func (s *MinioService) ArchiveSignedPDF(ctx context.Context, contractID string, pdf []byte) error {
	objectName := fmt.Sprintf("contracts/%s.pdf", contractID)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("failed to archive signed pdf: %w", err)
	}

	return nil
}

// FetchObject reads a whole object, used for template assets kept in the
// bucket.
func (s *MinioService) FetchObject(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// GetPresignedURL generates a presigned URL for the object with expiration
func (s *MinioService) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// MinioTemplates serves agreement templates from the bucket under
// templates/<filename>. Satisfies TemplateSource.
type MinioTemplates struct {
	Service *MinioService
	Files   map[string]string // template id -> filename
}

func (m *MinioTemplates) Template(ctx context.Context, id string) ([]byte, error) {
	filename, ok := m.Files[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q", ErrTemplateLoad, id)
	}
	data, err := m.Service.FetchObject(ctx, "templates/"+filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return data, nil
}
