package grouphandler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-backend/db"
	groupstore "approval-backend/lib/approval/group-store"
	usersstore "approval-backend/lib/users/store"
	approvalapimodels "approval-backend/models/api/approval"
	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(data approvalapimodels.ApprovalGroupData) (id string, err error)
	GetByID(id string) (item approvalapimodels.ApprovalGroupView, err error)
	List() (list []approvalapimodels.ApprovalGroupView, err error)
	Update(id string, data approvalapimodels.ApprovalGroupData) error
	Delete(id string) error
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:     groupstore.NewInstance(db.DB),
		userStore: usersstore.NewInstance(db.DB),
	}
}

type impl struct {
	store     groupstore.Provider
	userStore usersstore.Provider
}

func (i impl) Create(data approvalapimodels.ApprovalGroupData) (id string, err error) {
	if err = data.Validate(); err != nil {
		return "", err
	}
	if err = i.checkUsers(data.UserIDs); err != nil {
		return "", err
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		store := groupstore.NewInstance(tx)
		id, err = store.Create(dbmodels.ApprovalGroup{Name: data.Name})
		if err != nil {
			return err
		}
		return store.SaveContributors(id, data.UserIDs)
	})
	if err != nil {
		log.WithError(err).Error("ошибка создания группы согласующих")
		return "", err
	}
	log.WithField("rec_id", id).Info("создана группа согласующих")
	return id, nil
}

func (i impl) GetByID(id string) (approvalapimodels.ApprovalGroupView, error) {
	rec, err := i.getRec(id)
	if err != nil {
		return approvalapimodels.ApprovalGroupView{}, err
	}
	return approvalapimodels.ApprovalGroupConvert(*rec), nil
}

func (i impl) List() ([]approvalapimodels.ApprovalGroupView, error) {
	recList, err := i.store.List()
	if err != nil {
		log.WithError(err).Error("ошибка получения списка групп")
		return nil, err
	}
	result := make([]approvalapimodels.ApprovalGroupView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, approvalapimodels.ApprovalGroupConvert(rec))
	}
	return result, nil
}

func (i impl) Update(id string, data approvalapimodels.ApprovalGroupData) error {
	logger := log.WithField("rec_id", id)
	if err := data.Validate(); err != nil {
		return err
	}
	if _, err := i.getRec(id); err != nil {
		return err
	}
	if err := i.checkUsers(data.UserIDs); err != nil {
		return err
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		store := groupstore.NewInstance(tx)
		if err := store.Update(id, map[string]interface{}{"name": data.Name}); err != nil {
			return err
		}
		return store.SaveContributors(id, data.UserIDs)
	})
	if err != nil {
		logger.WithError(err).Error("ошибка обновления группы")
		return err
	}
	logger.Info("обновлена группа согласующих")
	return nil
}

func (i impl) Delete(id string) error {
	logger := log.WithField("rec_id", id)
	if _, err := i.getRec(id); err != nil {
		return err
	}
	if err := i.store.Delete(id); err != nil {
		logger.WithError(err).Error("ошибка удаления группы")
		return err
	}
	logger.Info("удалена группа согласующих")
	return nil
}

func (i impl) getRec(id string) (*dbmodels.ApprovalGroup, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		log.WithField("rec_id", id).WithError(err).Error("ошибка получения группы")
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("группа согласующих не найдена")
	}
	return rec, nil
}

func (i impl) checkUsers(userIDs []string) error {
	for _, userID := range userIDs {
		user, err := i.userStore.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errors.Errorf("пользователь %s не найден", userID)
		}
	}
	return nil
}
