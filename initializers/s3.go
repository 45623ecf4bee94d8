package initializers

import (
	"context"

	"approval-backend/config"
	filestorage "approval-backend/lib/file-storage"
	s3client "approval-backend/s3"

	log "github.com/sirupsen/logrus"
)

func InitS3() {
	if config.Conf.S3.Endpoint == "" {
		log.Info("S3 не настроен, архивирование выгрузок отключено")
		return
	}
	client, err := s3client.NewClient()
	if err != nil {
		log.WithError(err).Error("Ошибка инициализации клиента S3")
		return
	}
	if err = client.MakeBucket(context.Background()); err != nil {
		log.WithError(err).Error("Ошибка создания бакета S3")
		return
	}

	filestorage.NewInstance(client.Client())
	log.Info("S3 клиент успешно инициализирован")
}
