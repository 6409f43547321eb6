package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"playlistscanner/internal/config"
	"playlistscanner/internal/model"
)

// Minio архивирует отчеты в бакете MinIO/S3 под ключами reports/YYYY/MM/DD/<scanID>.pdf
type Minio struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

// NewMinio подключается к MinIO и создает бакет при необходимости
func NewMinio(ctx context.Context, cfg config.MinioConfig, logger *zap.Logger) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(checkCtx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Report bucket created", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("Connected to MinIO", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return &Minio{client: client, bucket: cfg.Bucket, logger: logger, now: time.Now}, nil
}

// Save загружает PDF в бакет
func (m *Minio) Save(ctx context.Context, scanID string, pdf []byte) error {
	name := objectName(scanID, m.now())
	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType:  "application/pdf",
		UserMetadata: map[string]string{"scan-id": scanID},
	})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", scanID, err)
	}
	m.logger.Debug("Report archived", zap.String("scan_id", scanID), zap.String("object", name))
	return nil
}

// Load ищет отчет по идентификатору сканирования
func (m *Minio) Load(ctx context.Context, scanID string) ([]byte, error) {
	name, err := m.find(ctx, scanID)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", scanID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("scan %s: %w", scanID, model.ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to read report %s: %w", scanID, err)
	}
	return data, nil
}

// find проверяет объекты за последние сутки, затем перебирает префикс reports/
func (m *Minio) find(ctx context.Context, scanID string) (string, error) {
	now := m.now()
	for _, day := range []time.Time{now, now.Add(-24 * time.Hour)} {
		name := objectName(scanID, day)
		if _, err := m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{}); err == nil {
			return name, nil
		}
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	suffix := "/" + scanID + ".pdf"
	for obj := range m.client.ListObjects(listCtx, m.bucket, minio.ListObjectsOptions{Prefix: "reports/", Recursive: true}) {
		if obj.Err != nil {
			return "", fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, suffix) {
			return obj.Key, nil
		}
	}
	return "", fmt.Errorf("scan %s: %w", scanID, model.ErrReportNotFound)
}
