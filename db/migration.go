package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbmodels "approval-backend/models/db"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("Запуск миграций")
	if err := DB.AutoMigrate(&dbmodels.User{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры User")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalFlow{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalFlow")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalFlowBinding{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalFlowBinding")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalComponent{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalComponent")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalContributor{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalContributor")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalCondition{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalCondition")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalGroup{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalGroup")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalGroupContributor{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalGroupContributor")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalEvent{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalEvent")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalEventComponent{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalEventComponent")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalEventContributor{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalEventContributor")
	}
	if err := DB.AutoMigrate(&dbmodels.ApprovalRequest{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalRequest")
	}
	log.Info("Миграция прошла успешно")
	return nil
}
