package ml

import (
	"context"
	"fmt"
	"io"
	"os"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/util"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Source 模型文件来源
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource 本地文件
type FileSource struct {
	Path string
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s *FileSource) String() string {
	return "file://" + s.Path
}

// MinioSource MinIO 对象存储
type MinioSource struct {
	Client *minio.Client
	Bucket string
	Object string
}

func NewMinioSource(cfg *config.StorageConfig, object string) (*MinioSource, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioSource{Client: client, Bucket: cfg.MinioBucket, Object: object}, nil
}

func (s *MinioSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 不会立即请求，Stat 提前暴露不存在等错误
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *MinioSource) String() string {
	return fmt.Sprintf("minio://%s/%s", s.Bucket, s.Object)
}

// NewSource 根据配置选择模型来源
func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.Model.Source {
	case "", util.StorageLocal:
		return &FileSource{Path: cfg.Model.Path}, nil
	case util.StorageMinio:
		return NewMinioSource(&cfg.Storage, cfg.Model.Object)
	}
	return nil, fmt.Errorf("unknown model source %q", cfg.Model.Source)
}
