package minio

import (
	"RCA_Insights/backend/go/internal/config"
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 常见产物的内容类型，其余按二进制上传。
var contentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".json": "application/json",
}

// Uploader 将输出产物上传到 MinIO 存储桶。
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
	log    *logger.Logger
}

// NewUploader 创建 MinIO 客户端，并在存储桶不存在时创建它。
func NewUploader(ctx context.Context, cfg *config.MinIOConfig, log *logger.Logger) (*Uploader, error) {
	// 使用配置中的端点、访问密钥和 Secret 密钥创建 MinIO 客户端。
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""), // 静态凭证。
		Secure: cfg.Secure,                                                // 是否使用 HTTPS。
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 '%s' 失败: %w", cfg.Bucket, err)
		}
	}

	if log == nil {
		log = logger.Discard()
	}
	log.WithFields(map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
	}).Info("connected to MinIO")
	return &Uploader{client: c, bucket: cfg.Bucket, prefix: cfg.Prefix, log: log}, nil
}

// ObjectName 返回本地文件在存储桶中的对象名: <prefix>/<traceID>/<文件名>。
func (u *Uploader) ObjectName(traceID, localPath string) string {
	return objectName(u.prefix, traceID, localPath)
}

func objectName(prefix, traceID, localPath string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if traceID != "" {
		parts = append(parts, traceID)
	}
	parts = append(parts, filepath.Base(localPath))
	return path.Join(parts...)
}

// UploadFile 上传单个本地文件，返回对象名。
func (u *Uploader) UploadFile(ctx context.Context, traceID, localPath string) (string, error) {
	name := u.ObjectName(traceID, localPath)
	opts := minio.PutObjectOptions{ContentType: contentType(localPath)}
	info, err := u.client.FPutObject(ctx, u.bucket, name, localPath, opts)
	if err != nil {
		return "", fmt.Errorf("上传 '%s' 到 MinIO 失败: %w", localPath, err)
	}
	u.log.WithFields(map[string]interface{}{
		"bucket": u.bucket,
		"object": name,
		"size":   info.Size,
	}).Debug("artifact uploaded")
	return name, nil
}

// HealthCheck 检查 MinIO 连接的健康状况。
func (u *Uploader) HealthCheck(ctx context.Context) error {
	if _, err := u.client.BucketExists(ctx, u.bucket); err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	return nil
}

func contentType(localPath string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(localPath))]; ok {
		return ct
	}
	return "application/octet-stream"
}
