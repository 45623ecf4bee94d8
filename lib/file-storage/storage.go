package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"approval-backend/config"
)

// Provider - архив выгрузок в объектном хранилище.
// Ключ формируется из uuid, исходное имя файла сохраняется в метаданных.
type Provider interface {
	UploadExport(ctx context.Context, fileName, contentType string, data []byte) (key string, err error)
	GetExport(ctx context.Context, key string) (data []byte, err error)
}

var Instance Provider

func NewInstance(s3client *minio.Client) {
	Instance = &impl{
		s3client: s3client,
	}
}

type impl struct {
	s3client *minio.Client
}

func (i impl) UploadExport(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("exports/%s", uuid.NewString())
	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"file-name": fileName,
		},
	}
	_, err := i.s3client.PutObject(ctx, config.Conf.S3.BucketName, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", err
	}
	return key, nil
}

func (i impl) GetExport(ctx context.Context, key string) ([]byte, error) {
	object, err := i.s3client.GetObject(ctx, config.Conf.S3.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()
	return io.ReadAll(object)
}
