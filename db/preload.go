package db

import (
	log "github.com/sirupsen/logrus"

	"approval-backend/config"
	groupstore "approval-backend/lib/approval/group-store"
	usersstore "approval-backend/lib/users/store"
	authutils "approval-backend/lib/utils/auth-utils"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

func InitPreload() {
	addAdmin()
	addDefaultGroup()
}

func addAdmin() {
	if config.Conf.Admin.Email == "" {
		log.Warn("администратор не добавлен, отсутствует настройка ADMIN_EMAIL")
		return
	}
	userStore := usersstore.NewInstance(DB)
	existedRec, err := userStore.FindByEmail(config.Conf.Admin.Email)
	if err != nil {
		log.WithError(err).Error("ошибка добавления администратора")
		return
	}
	if existedRec != nil {
		return
	}
	rec := dbmodels.User{
		IsActive:  true,
		Role:      models.UserRoleAdmin,
		Password:  authutils.GetMD5Hash(config.Conf.Admin.Password),
		FirstName: config.Conf.Admin.FirstName,
		LastName:  config.Conf.Admin.LastName,
		Email:     config.Conf.Admin.Email,
	}
	_, err = userStore.Create(rec)
	if err != nil {
		log.WithError(err).Error("ошибка добавления администратора")
	}
}

func addDefaultGroup() {
	name := config.Conf.Approval.DefaultGroup
	if name == "" {
		return
	}
	store := groupstore.NewInstance(DB)
	existed, err := store.FindByName(name)
	if err != nil {
		log.WithError(err).Error("ошибка предзаполнения группы согласующих")
		return
	}
	if existed != nil {
		return
	}
	_, err = store.Create(dbmodels.ApprovalGroup{Name: name})
	if err != nil {
		log.WithError(err).Error("ошибка предзаполнения группы согласующих")
	}
}
